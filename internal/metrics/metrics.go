// Package metrics counts what a transfer moved. Collectors live on a private
// registry that is pushed to a Prometheus Pushgateway at the end of a run
// when one is configured. A nil *Transfer records nothing.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	DirectionExport = "export"
	DirectionImport = "import"
)

type Transfer struct {
	reg *prometheus.Registry

	tables   *prometheus.CounterVec
	rows     *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	duration *prometheus.SummaryVec
}

func New() (*Transfer, error) {
	reg := prometheus.NewRegistry()

	tables := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luna_tables_total",
			Help: "Tables processed, partitioned by direction and final status.",
		},
		[]string{"direction", "status"},
	)
	rows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luna_rows_total",
			Help: "Rows transferred, partitioned by direction and table.",
		},
		[]string{"direction", "table"},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luna_skipped_total",
			Help: "Cells or rows skipped after a conversion or statement failure.",
		},
		[]string{"direction", "kind"},
	)
	duration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "luna_table_duration_seconds",
			Help:       "Time spent on one table.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"direction"},
	)

	for name, c := range map[string]prometheus.Collector{
		"tables": tables, "rows": rows, "skipped": skipped, "duration": duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register %s: %w", name, err)
		}
	}

	return &Transfer{reg: reg, tables: tables, rows: rows, skipped: skipped, duration: duration}, nil
}

// Registry exposes the collectors, e.g. for an HTTP handler or tests.
func (t *Transfer) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.reg
}

func (t *Transfer) Table(direction, status string, d time.Duration) {
	if t == nil {
		return
	}
	t.tables.WithLabelValues(direction, status).Inc()
	t.duration.WithLabelValues(direction).Observe(d.Seconds())
}

func (t *Transfer) Rows(direction, table string, n int64) {
	if t == nil || n <= 0 {
		return
	}
	t.rows.WithLabelValues(direction, table).Add(float64(n))
}

// Skipped counts skipped units; kind is "cell" or "row".
func (t *Transfer) Skipped(direction, kind string, n int64) {
	if t == nil || n <= 0 {
		return
	}
	t.skipped.WithLabelValues(direction, kind).Add(float64(n))
}

// Push sends the collected metrics to the Pushgateway at url under job.
func (t *Transfer) Push(ctx context.Context, url, job string) error {
	if t == nil || url == "" {
		return nil
	}
	if job == "" {
		job = "db-luna"
	}
	if err := push.New(url, job).Gatherer(t.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("metrics: push to %s: %w", url, err)
	}
	return nil
}
