package cmd

import (
	"fmt"
	"sync"
	"testing"

	"db-luna/internal/engine"
)

func TestTableLabelConcurrentAccess(t *testing.T) {
	var l tableLabel
	if got := l.Get(); got != "" {
		t.Errorf("Expected empty label, got %q", got)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			l.Set(fmt.Sprintf("table%03d", i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if s := l.Get(); s != "" && len(s) != len("table000") {
				t.Errorf("Torn label %q", s)
				return
			}
		}
	}()
	wg.Wait()

	if got := l.Get(); got != "table499" {
		t.Errorf("Expected table499, got %q", got)
	}
}

func TestProgressBarTracksTables(t *testing.T) {
	onTable, stop := progressBar(200, "Exporting:")
	for i := 0; i < 200; i++ {
		onTable(engine.TableResult{Table: fmt.Sprintf("t%d", i), Status: engine.StatusSuccess})
	}
	stop()
}
