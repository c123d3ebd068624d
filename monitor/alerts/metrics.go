package alerts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "monitor",
		Subsystem: "alerts",
		Name:      "findings_total",
		Help:      "Number of emitted findings grouped by route, alert id and severity.",
	}, []string{"route_id", "alert_id", "severity"})
	LastFindingBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "alerts",
		Name:      "last_finding_block",
		Help:      "Shows L1 block number of the latest emitted finding.",
	}, []string{"route_id", "alert_id"})

	NewAlertInvariantViolation = func(route string) *prometheus.GaugeVec {
		return promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "alert",
			Subsystem:   "monitor",
			Name:        "invariant_violation",
			Help:        "Shows recently stored escrow invariant violations, value is the age in seconds.",
			ConstLabels: prometheus.Labels{"route_id": route},
		}, []string{"chain_id", "block_number", "tx_hash", "l1_balance", "l2_supply"})
	}
	NewAlertLargeWithdrawal = func(route string) *prometheus.GaugeVec {
		return promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "alert",
			Subsystem:   "monitor",
			Name:        "large_withdrawal",
			Help:        "Shows recent escrow withdrawals above the configured threshold, value is the age in seconds.",
			ConstLabels: prometheus.Labels{"route_id": route},
		}, []string{"chain_id", "block_number", "tx_hash", "alert_id", "amount"})
	}
)
