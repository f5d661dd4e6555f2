package engine

import (
	"context"
	"database/sql"
	"fmt"

	"db-luna/internal/dialect"
	"db-luna/internal/schema"
	"db-luna/internal/value"
)

// CellError is a cell whose native value could not be converted. The cell
// is stored as the column kind's null.
type CellError struct {
	Row    int // 1-based, in result order
	Column string
	Err    error
}

func (e CellError) String() string {
	return fmt.Sprintf("[%d][%s] %v", e.Row, e.Column, e.Err)
}

// RowSource runs a select produced by the query builder and returns rows
// aligned with cols.
type RowSource interface {
	ExecuteSelect(ctx context.Context, query string, cols []*schema.Column) ([]value.Row, []CellError, error)
}

// SQLRowSource reads rows over database/sql.
type SQLRowSource struct {
	db *sql.DB
	d  dialect.Dialect // optional, applies driver value quirks
}

func NewSQLRowSource(db *sql.DB, d dialect.Dialect) *SQLRowSource {
	return &SQLRowSource{db: db, d: d}
}

func (s *SQLRowSource) ExecuteSelect(ctx context.Context, query string, cols []*schema.Column) ([]value.Row, []CellError, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []value.Row
	var cellErrs []CellError
	line := 0
	for rows.Next() {
		line++
		natives := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range natives {
			dest[i] = &natives[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row %d: %w", line, err)
		}

		row := make(value.Row, len(cols))
		for i, c := range cols {
			native := natives[i]
			if s.d != nil {
				native = s.d.NormalizeValue(c.TypeName, native)
			}
			v, err := value.FromDriver(c.TypeName, native)
			if err != nil {
				kind, _ := c.Kind()
				v = value.Null(kind)
				cellErrs = append(cellErrs, CellError{Row: line, Column: c.Name, Err: err})
			}
			row[i] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, cellErrs, nil
}
