package monitor_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/poanetwork/escrow-monitor/contract/abi"
	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/monitor"
)

func TestDecodeTransfer(t *testing.T) {
	t.Parallel()

	raw := transferLog(optimismEscrow, alice, 500, 120, 7)
	event, err := monitor.DecodeTransfer(entity.NewLog("1", raw))
	require.NoError(t, err)
	require.Equal(t, "1", event.ChainID)
	require.Equal(t, l1Token, event.Token)
	require.Equal(t, optimismEscrow, event.Source)
	require.Equal(t, alice, event.Destination)
	require.Equal(t, "500", event.Amount.String())
	require.Equal(t, uint(120), event.BlockNumber)
	require.Equal(t, uint(7), event.LogIndex)
	require.Equal(t, raw.TxHash, event.TransactionHash)
}

func TestDecodeTransfer_Errors(t *testing.T) {
	t.Parallel()

	approval := abi.ERC20ABI.Events["Approval"].ID
	for _, test := range []struct {
		Name string
		Log  types.Log
		Err  error
	}{
		{
			Name: "approval event",
			Log: types.Log{
				Address: l1Token,
				Topics:  []common.Hash{approval, alice.Hash(), bob.Hash()},
				Data:    make([]byte, 32),
			},
			Err: monitor.ErrNotTransfer,
		},
		{
			Name: "unknown topic",
			Log: types.Log{
				Address: l1Token,
				Topics:  []common.Hash{common.HexToHash("0x1234")},
			},
			Err: monitor.ErrNotTransfer,
		},
		{
			Name: "no topics",
			Log:  types.Log{Address: l1Token},
			Err:  abi.ErrInvalidEvent,
		},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			_, err := monitor.DecodeTransfer(entity.NewLog("1", test.Log))
			require.ErrorIs(t, err, test.Err)
		})
	}
}
