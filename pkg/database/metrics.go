package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStat is the subset of pgxpool statistics exported as metrics.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	MaxConns() int32
}

// PoolStatsCollector exports connection pool statistics.
type PoolStatsCollector struct {
	stat    func() PoolStat
	service string

	acquiredConns *prometheus.Desc
	idleConns     *prometheus.Desc
	totalConns    *prometheus.Desc
	maxConns      *prometheus.Desc
}

// NewPoolStatsCollector creates a collector reading from pool.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	return newPoolStatsCollector(func() PoolStat { return pool.Stat() }, service)
}

func newPoolStatsCollector(stat func() PoolStat, service string) *PoolStatsCollector {
	labels := []string{"service"}
	return &PoolStatsCollector{
		stat:    stat,
		service: service,
		acquiredConns: prometheus.NewDesc("db_pool_acquired_connections",
			"Number of currently acquired connections", labels, nil),
		idleConns: prometheus.NewDesc("db_pool_idle_connections",
			"Number of currently idle connections", labels, nil),
		totalConns: prometheus.NewDesc("db_pool_total_connections",
			"Total number of connections in the pool", labels, nil),
		maxConns: prometheus.NewDesc("db_pool_max_connections",
			"Maximum number of connections allowed", labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.totalConns
	ch <- c.maxConns
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(s.AcquiredConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(s.IdleConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(s.TotalConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(s.MaxConns()), c.service)
}

// RegisterPoolMetrics registers a pool collector with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolStatsCollector(pool, service))
}
