package alerts_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/monitor/alerts"
)

var (
	testRoute = alerts.Route{ID: "optimism", Name: "Optimism", AlertPrefix: "OPTSM"}
	escrow    = common.HexToAddress("0x467194771dAe2967Aef3ECbEDD3Bf9a310C76C65")
	user      = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func transfer(src, dst common.Address, amount int64) *entity.TransferEvent {
	return &entity.TransferEvent{
		ChainID:     "1",
		Source:      src,
		Destination: dst,
		Amount:      big.NewInt(amount),
		BlockNumber: 100,
	}
}

func TestEmitter_Withdrawal(t *testing.T) {
	t.Parallel()

	e := alerts.NewEmitter("Dai")
	findings := e.Emit(testRoute, entity.DirectionL2ToL1Withdrawal, transfer(escrow, user, 500), &entity.InvariantResult{
		L1Balance: big.NewInt(1000),
		L2Supply:  big.NewInt(900),
	})
	require.Len(t, findings, 1)
	f := findings[0]
	require.Equal(t, "OPTSM-WTHDRW-1", f.AlertID)
	require.Equal(t, "optimism", f.RouteID)
	require.Equal(t, "Dai withdrawn from Optimism", f.Name)
	require.Equal(t, "Dai bridge used to transfer Dai from Optimism to L1", f.Description)
	require.Equal(t, alerts.SeverityInfo, f.Severity)
	require.Equal(t, alerts.KindInfo, f.Kind)
	require.Equal(t, map[string]string{
		"src": escrow.String(),
		"dst": user.String(),
		"amt": "500",
	}, f.Metadata.Fields())
}

func TestEmitter_DepositWithViolation(t *testing.T) {
	t.Parallel()

	e := alerts.NewEmitter("Dai")
	findings := e.Emit(testRoute, entity.DirectionL1ToL2Deposit, transfer(user, escrow, 10), &entity.InvariantResult{
		L1Balance: big.NewInt(900),
		L2Supply:  big.NewInt(1000),
		Violated:  true,
	})
	require.Len(t, findings, 2)
	require.Equal(t, "OPTSM-DPST-1", findings[0].AlertID)
	require.Equal(t, "Dai deposited to Optimism", findings[0].Name)
	require.Equal(t, "10", findings[0].Metadata.Fields()["amt"])

	critical := findings[1]
	require.Equal(t, "OPTSM-INVRNT-1", critical.AlertID)
	require.Equal(t, "Optimism Dai bridge invariant violated", critical.Name)
	require.Equal(t, "Optimism L2 Dai supply exceeds L1 Escrow balance", critical.Description)
	require.Equal(t, alerts.SeverityCritical, critical.Severity)
	require.Equal(t, alerts.KindExploit, critical.Kind)
	require.Equal(t, map[string]string{"l1Balance": "900", "l2Supply": "1000"}, critical.Metadata.Fields())
}

func TestEmitter_Unrelated(t *testing.T) {
	t.Parallel()

	e := alerts.NewEmitter("Dai")
	require.Empty(t, e.Emit(testRoute, entity.DirectionUnrelated, transfer(user, user, 1), nil))
}

func TestEmitter_CopiesAmounts(t *testing.T) {
	t.Parallel()

	e := alerts.NewEmitter("Dai")
	event := transfer(escrow, user, 7)
	findings := e.Emit(testRoute, entity.DirectionL2ToL1Withdrawal, event, nil)
	require.Len(t, findings, 1)
	event.Amount.SetInt64(8)
	require.Equal(t, "7", findings[0].Metadata.Fields()["amt"])
}
