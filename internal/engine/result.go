package engine

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusSkipped Status = "SKIPPED" // query could not be built, nothing transferred
	StatusFailed  Status = "FAILED"
)

// TableResult is the outcome of one table in an export or import.
type TableResult struct {
	Table        string
	Rows         int // rows stored (export) or statements sent (import)
	SkippedCells int
	SkippedRows  int
	Status       Status
	Err          error
	Elapsed      time.Duration
}

// SourceError wraps a failure of the relational source. It aborts the
// operation.
type SourceError struct {
	Table string
	Err   error
}

func (e *SourceError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("source: %v", e.Err)
	}
	return fmt.Sprintf("source: table %s: %v", e.Table, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// StoreError wraps a failure of the model store. It aborts the operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
