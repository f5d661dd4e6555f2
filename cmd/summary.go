package cmd

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"db-luna/internal/engine"
	"db-luna/internal/metrics"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/viper"
)

// tableLabel holds the last finished table. The bar renders it from the
// uiprogress goroutine.
type tableLabel struct {
	v atomic.Value
}

func (l *tableLabel) Set(name string) { l.v.Store(name) }

func (l *tableLabel) Get() string {
	s, _ := l.v.Load().(string)
	return s
}

// progressBar tracks tables with a uiprogress bar; stop must be called
// before printing anything else.
func progressBar(total int, label string) (onTable func(engine.TableResult), stop func()) {
	uiprogress.Start()
	bar := uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
	current := &tableLabel{}
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("%s %-20s", label, current.Get())
	})
	onTable = func(r engine.TableResult) {
		current.Set(r.Table)
		bar.Incr()
	}
	return onTable, uiprogress.Stop
}

func printSummary(title string, results []engine.TableResult, elapsed time.Duration) {
	fmt.Printf("\n📊 Summary Report (%s):\n", title)
	total := 0
	for i, r := range results {
		icon := "✓"
		if r.Status != engine.StatusSuccess || r.SkippedRows > 0 || r.SkippedCells > 0 {
			icon = "!"
		}
		fmt.Printf("[%s] [%02d/%02d] %-20s : %d rows - %s\n", icon, i+1, len(results), r.Table, r.Rows, r.Status)
		if r.SkippedCells > 0 {
			fmt.Printf("    └ Skipped cells: %d\n", r.SkippedCells)
		}
		if r.SkippedRows > 0 {
			fmt.Printf("    └ Skipped rows: %d\n", r.SkippedRows)
		}
		if r.Err != nil {
			fmt.Printf("    └ Error: %v\n", r.Err)
		}
		total += r.Rows
	}
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Total Rows: %d\n", total)
	log.Printf("Done! Time Elapsed: %s", elapsed)
}

func newMetrics() *metrics.Transfer {
	if viper.GetString("metrics.pushgateway") == "" {
		return nil
	}
	m, err := metrics.New()
	if err != nil {
		log.Printf("Warning: metrics disabled: %v\n", err)
		return nil
	}
	return m
}

func pushMetrics(ctx context.Context, m *metrics.Transfer) {
	if m == nil {
		return
	}
	pushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := m.Push(pushCtx, viper.GetString("metrics.pushgateway"), viper.GetString("metrics.job")); err != nil {
		log.Printf("Warning: %v\n", err)
	}
}
