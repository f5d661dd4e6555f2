// Package store persists exported models as a graph: a model owns tables and
// a table contains rows. Relations keep their insertion order.
package store

import (
	"context"
	"errors"
	"time"

	"db-luna/internal/schema"
	"db-luna/internal/value"
)

var ErrNotFound = errors.New("not found")

// Model is a stored model. IDs are opaque.
type Model struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Table is a stored table with its column metadata and extraction options.
type Table struct {
	ID    string
	Table *schema.Table
}

// Store is the persistent model store.
type Store interface {
	SaveModel(ctx context.Context, name string) (string, error)
	SaveTable(ctx context.Context, t *schema.Table) (string, error)
	SaveRow(ctx context.Context, row value.Row) (string, error)
	RelateTableToModel(ctx context.Context, modelID, tableID string) error
	RelateRowToTable(ctx context.Context, tableID, rowID string) error

	ListModels(ctx context.Context) ([]Model, error)
	// FindModel returns the most recent model with the name, or ErrNotFound.
	FindModel(ctx context.Context, name string) (Model, error)
	// TablesByModel returns the tables in the order they were related.
	TablesByModel(ctx context.Context, modelID string) ([]Table, error)
	// RowsByTable returns the rows in the order they were related. A limit
	// of zero or less returns them all.
	RowsByTable(ctx context.Context, tableID string, limit int) ([]value.Row, error)
	CountRows(ctx context.Context, tableID string) (int64, error)

	// DeleteModel removes every model with the name together with its tables,
	// rows and relations. ErrNotFound when there is none.
	DeleteModel(ctx context.Context, name string) error

	Close() error
}
