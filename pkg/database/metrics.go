package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a snapshot of connection pool counters.
type PoolStats struct {
	Acquired        int32
	Idle            int32
	Total           int32
	Max             int32
	AcquireCount    int64
	AcquireSeconds  float64
	EmptyAcquires   int64
	CanceledAcquire int64
}

// PgxPoolStats adapts a pgx pool to the stats callback expected by
// NewPoolStatsCollector.
func PgxPoolStats(pool *pgxpool.Pool) func() PoolStats {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			Acquired:        s.AcquiredConns(),
			Idle:            s.IdleConns(),
			Total:           s.TotalConns(),
			Max:             s.MaxConns(),
			AcquireCount:    s.AcquireCount(),
			AcquireSeconds:  s.AcquireDuration().Seconds(),
			EmptyAcquires:   s.EmptyAcquireCount(),
			CanceledAcquire: s.CanceledAcquireCount(),
		}
	}
}

type statDesc struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(PoolStats) float64
}

// PoolStatsCollector exports pool statistics as armeria_db_pool_* metrics.
type PoolStatsCollector struct {
	stats func() PoolStats
	descs []statDesc
}

// NewPoolStatsCollector builds a collector that reads stats on every scrape.
func NewPoolStatsCollector(stats func() PoolStats) *PoolStatsCollector {
	gauge := func(name, help string, v func(PoolStats) float64) statDesc {
		return statDesc{
			desc:  prometheus.NewDesc("armeria_db_pool_"+name, help, nil, nil),
			kind:  prometheus.GaugeValue,
			value: v,
		}
	}
	counter := func(name, help string, v func(PoolStats) float64) statDesc {
		d := gauge(name, help, v)
		d.kind = prometheus.CounterValue
		return d
	}

	return &PoolStatsCollector{
		stats: stats,
		descs: []statDesc{
			gauge("acquired_connections", "Number of currently acquired connections",
				func(s PoolStats) float64 { return float64(s.Acquired) }),
			gauge("idle_connections", "Number of currently idle connections",
				func(s PoolStats) float64 { return float64(s.Idle) }),
			gauge("total_connections", "Total number of connections in the pool",
				func(s PoolStats) float64 { return float64(s.Total) }),
			gauge("max_connections", "Maximum number of connections allowed",
				func(s PoolStats) float64 { return float64(s.Max) }),
			counter("acquire_count_total", "Total number of connection acquires",
				func(s PoolStats) float64 { return float64(s.AcquireCount) }),
			counter("acquire_duration_seconds_total", "Total time spent acquiring connections",
				func(s PoolStats) float64 { return s.AcquireSeconds }),
			counter("empty_acquire_count_total", "Acquires that had to wait for a connection",
				func(s PoolStats) float64 { return float64(s.EmptyAcquires) }),
			counter("canceled_acquire_count_total", "Acquires canceled by their context",
				func(s PoolStats) float64 { return float64(s.CanceledAcquire) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	for _, d := range c.descs {
		ch <- prometheus.MustNewConstMetric(d.desc, d.kind, d.value(s))
	}
}
