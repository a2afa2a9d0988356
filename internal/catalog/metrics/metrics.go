package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks catalog cache refreshes.
type Metrics struct {
	Refreshes       prometheus.Counter
	RefreshFailures prometheus.Counter
	RefreshDuration prometheus.Histogram
	SnapshotAge     prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Refreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_catalog_refreshes_total",
			Help: "Total successful catalog reloads",
		}),
		RefreshFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_catalog_refresh_failures_total",
			Help: "Total failed catalog reloads (stale snapshot kept)",
		}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseflow_catalog_refresh_duration_seconds",
			Help:    "Duration of catalog reloads",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),
		SnapshotAge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "caseflow_catalog_snapshot_loaded_timestamp_seconds",
			Help: "Unix time the serving catalog snapshot was loaded",
		}),
	}
}

func (m *Metrics) ObserveRefresh(start time.Time, err error) {
	m.RefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.RefreshFailures.Inc()
		return
	}
	m.Refreshes.Inc()
	m.SnapshotAge.SetToCurrentTime()
}
