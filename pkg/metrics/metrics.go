package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncResult labels for price-list sync outcomes.
const (
	SyncResultOK     = "ok"
	SyncResultFailed = "failed"
)

var (
	// SyncRuns counts partner price-list sync attempts by result.
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "market",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Partner price-list sync attempts by result.",
	}, []string{"result"})

	// SyncListings tracks how many listings the last successful sync wrote.
	SyncListings = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "market",
		Subsystem: "sync",
		Name:      "listings_last",
		Help:      "Listings written by the most recent successful sync, per shop.",
	}, []string{"shop"})

	// OrdersPlaced counts basket checkouts that reached the new state.
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "market",
		Subsystem: "orders",
		Name:      "placed_total",
		Help:      "Orders transitioned from basket to new.",
	})
)
