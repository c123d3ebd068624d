package monitor

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatestHeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "watcher",
		Name:      "latest_head_block",
		Help:      "Shows the latest fetched head block for the watched token. Logs up to this block are waiting to be fetched.",
	}, []string{"chain_id", "address"})
	LatestFetchedBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "watcher",
		Name:      "latest_fetched_block",
		Help:      "Shows the latest fetched block for the watched token. Logs up to this block are already fetched and saved to the DB.",
	}, []string{"chain_id", "address"})
	LatestProcessedBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "watcher",
		Name:      "latest_processed_block",
		Help:      "Shows the latest processed block for the watched token. Transfers up to this block are already checked against the invariant.",
	}, []string{"chain_id", "address"})
	SyncedWatcher = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "watcher",
		Name:      "synced",
		Help:      "Shows 1 if the watcher is considered as synced up to chain head.",
	}, []string{"chain_id", "address"})

	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "monitor",
		Subsystem: "invariant",
		Name:      "evaluations_total",
		Help:      "Number of invariant evaluations grouped by route, direction and outcome.",
	}, []string{"route_id", "direction", "result"})
	L1Balance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "invariant",
		Name:      "l1_balance",
		Help:      "Latest observed L1 escrow balance of the route.",
	}, []string{"route_id"})
	L2Supply = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "invariant",
		Name:      "l2_supply",
		Help:      "Latest observed L2 token total supply of the route.",
	}, []string{"route_id"})
	Violated = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "invariant",
		Name:      "violated",
		Help:      "Shows 1 if the latest evaluation of the route found L2 supply above L1 escrow balance.",
	}, []string{"route_id"})
)

func toFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
