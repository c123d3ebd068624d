package alerts_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/poanetwork/escrow-monitor/monitor/alerts"
)

func TestConvertToAlertMetricValues(t *testing.T) {
	t.Parallel()

	values, err := alerts.ConvertToAlertMetricValues([]alerts.InvariantViolation{
		{
			ChainID:         "1",
			BlockNumber:     123,
			Age:             60,
			TransactionHash: common.HexToHash("0x02"),
			L1Balance:       "900",
			L2Supply:        "1000",
		},
	})
	require.NoError(t, err)
	require.Len(t, values, 1)
	require.Equal(t, 60.0, values[0].Value())
	require.Equal(t, prometheus.Labels{
		"chain_id":     "1",
		"block_number": "123",
		"tx_hash":      common.HexToHash("0x02").String(),
		"l1_balance":   "900",
		"l2_supply":    "1000",
	}, values[0].Labels())
}

func TestConvertToAlertMetricValues_Empty(t *testing.T) {
	t.Parallel()

	values, err := alerts.ConvertToAlertMetricValues([]alerts.LargeWithdrawal{})
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestAlertMetricValues_MissingValue(t *testing.T) {
	t.Parallel()

	require.Zero(t, alerts.AlertMetricValues{"chain_id": "1"}.Value())
}
