// Package sink receives the statements produced by an import: one statement
// or comment line per Send.
package sink

import (
	"context"
	"fmt"

	"db-luna/internal/report"
)

type Sink interface {
	Open(ctx context.Context) error
	Send(ctx context.Context, stmt string) error
	Close() error
}

const (
	KindFile     = "file"
	KindDatabase = "database"
)

// Config selects and configures a sink.
type Config struct {
	Kind   string // file or database
	Path   string // file sink
	Driver string // database sink
	DSN    string // database sink
}

// New builds the sink described by cfg.
func New(cfg Config, rep report.Reporter) (Sink, error) {
	switch cfg.Kind {
	case KindFile, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file sink: path is required")
		}
		return NewFileSink(cfg.Path), nil
	case KindDatabase:
		return NewDatabaseSink(cfg.Driver, cfg.DSN, rep)
	default:
		return nil, fmt.Errorf("unknown sink %q (want file or database)", cfg.Kind)
	}
}
