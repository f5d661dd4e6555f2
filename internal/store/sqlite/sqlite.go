// Package sqlite implements store.Store on an embedded SQLite file using
// database/sql. Cells are kept as JSON documents; relations are join tables
// whose autoincrement key preserves insertion order.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"db-luna/internal/schema"
	"db-luna/internal/store"
	"db-luna/internal/value"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS model (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS model_table (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		predicate TEXT NOT NULL DEFAULT '',
		skip      INTEGER,
		take      INTEGER,
		columns   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS table_row (
		id    TEXT PRIMARY KEY,
		cells TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS owns (
		seq      INTEGER PRIMARY KEY AUTOINCREMENT,
		model_id TEXT NOT NULL REFERENCES model(id) ON DELETE CASCADE,
		table_id TEXT NOT NULL REFERENCES model_table(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS contains (
		seq      INTEGER PRIMARY KEY AUTOINCREMENT,
		table_id TEXT NOT NULL REFERENCES model_table(id) ON DELETE CASCADE,
		row_id   TEXT NOT NULL REFERENCES table_row(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS owns_model ON owns(model_id)`,
	`CREATE INDEX IF NOT EXISTS contains_table ON contains(table_id)`,
	`CREATE INDEX IF NOT EXISTS model_name ON model(name)`,
}

// Store is a SQLite-backed store.Store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the store at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: path must not be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one connection: SQLite has a single writer and PRAGMAs are per connection
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: apply schema: %w", err)
		}
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func newID(kind string) string {
	return kind + ":" + uuid.NewString()
}

// timestampLayout keeps created_at fixed width so stored values compare
// like the times they hold.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *Store) SaveModel(ctx context.Context, name string) (string, error) {
	id := newID("model")
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO model (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, s.now().UTC().Format(timestampLayout))
	if err != nil {
		return "", fmt.Errorf("sqlite: save model %s: %w", name, err)
	}
	return id, nil
}

// storedColumn is the JSON form of a column.
type storedColumn struct {
	Name       string         `json:"name"`
	TypeName   string         `json:"type"`
	Precision  int            `json:"precision,omitempty"`
	MaxLength  int            `json:"max_length,omitempty"`
	Ordinal    int            `json:"order"`
	PrimaryKey bool           `json:"primary_key,omitempty"`
	ForeignKey *storedForeign `json:"foreign_key,omitempty"`
}

type storedForeign struct {
	ColumnName string `json:"column"`
	TableName  string `json:"table"`
	TypeName   string `json:"type,omitempty"`
}

func (s *Store) SaveTable(ctx context.Context, t *schema.Table) (string, error) {
	cols := make([]storedColumn, 0)
	for _, c := range t.Columns() {
		sc := storedColumn{
			Name: c.Name, TypeName: c.TypeName, Precision: c.Precision,
			MaxLength: c.MaxLength, Ordinal: c.Ordinal, PrimaryKey: c.PrimaryKey,
		}
		if fk := c.ForeignKey; fk != nil {
			sc.ForeignKey = &storedForeign{ColumnName: fk.ColumnName, TableName: fk.TableName, TypeName: fk.TypeName}
		}
		cols = append(cols, sc)
	}
	data, err := json.Marshal(cols)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode columns of %s: %w", t.Name, err)
	}

	id := newID("table")
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO model_table (id, name, predicate, skip, take, columns) VALUES (?, ?, ?, ?, ?, ?)`,
		id, t.Name, t.Predicate, nullInt(t.Skip), nullInt(t.Take), string(data))
	if err != nil {
		return "", fmt.Errorf("sqlite: save table %s: %w", t.Name, err)
	}
	return id, nil
}

func (s *Store) SaveRow(ctx context.Context, row value.Row) (string, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode row: %w", err)
	}
	id := newID("row")
	if _, err := s.db.ExecContext(ctx, `INSERT INTO table_row (id, cells) VALUES (?, ?)`, id, string(data)); err != nil {
		return "", fmt.Errorf("sqlite: save row: %w", err)
	}
	return id, nil
}

func (s *Store) RelateTableToModel(ctx context.Context, modelID, tableID string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO owns (model_id, table_id) VALUES (?, ?)`, modelID, tableID); err != nil {
		return fmt.Errorf("sqlite: relate %s -> owns -> %s: %w", modelID, tableID, err)
	}
	return nil
}

func (s *Store) RelateRowToTable(ctx context.Context, tableID, rowID string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO contains (table_id, row_id) VALUES (?, ?)`, tableID, rowID); err != nil {
		return fmt.Errorf("sqlite: relate %s -> contains -> %s: %w", tableID, rowID, err)
	}
	return nil
}

func (s *Store) ListModels(ctx context.Context) ([]store.Model, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM model ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list models: %w", err)
	}
	defer rows.Close()

	var out []store.Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list models: %w", err)
	}
	return out, nil
}

func (s *Store) FindModel(ctx context.Context, name string) (store.Model, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM model WHERE name = ? ORDER BY rowid DESC LIMIT 1`, name)
	m, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Model{}, fmt.Errorf("model %s: %w", name, store.ErrNotFound)
	}
	return m, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(sc scanner) (store.Model, error) {
	var m store.Model
	var created string
	if err := sc.Scan(&m.ID, &m.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("sqlite: scan model: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return m, fmt.Errorf("sqlite: model %s has a bad timestamp: %w", m.ID, err)
	}
	m.CreatedAt = t
	return m, nil
}

func (s *Store) TablesByModel(ctx context.Context, modelID string) ([]store.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.predicate, t.skip, t.take, t.columns
		FROM owns o
		JOIN model_table t ON t.id = o.table_id
		WHERE o.model_id = ?
		ORDER BY o.seq`, modelID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: tables of %s: %w", modelID, err)
	}
	defer rows.Close()

	var out []store.Table
	for rows.Next() {
		var id, name, predicate, columns string
		var skip, take sql.NullInt64
		if err := rows.Scan(&id, &name, &predicate, &skip, &take, &columns); err != nil {
			return nil, fmt.Errorf("sqlite: scan table: %w", err)
		}

		var stored []storedColumn
		if err := json.Unmarshal([]byte(columns), &stored); err != nil {
			return nil, fmt.Errorf("sqlite: decode columns of %s: %w", name, err)
		}

		t := schema.NewTable(name)
		t.Predicate = predicate
		t.Skip = intPtr(skip)
		t.Take = intPtr(take)
		cols := make([]*schema.Column, 0, len(stored))
		for _, sc := range stored {
			c := &schema.Column{
				Name: sc.Name, TypeName: sc.TypeName, Precision: sc.Precision,
				MaxLength: sc.MaxLength, Ordinal: sc.Ordinal, PrimaryKey: sc.PrimaryKey,
			}
			if fk := sc.ForeignKey; fk != nil {
				c.ForeignKey = &schema.ForeignKey{ColumnName: fk.ColumnName, TableName: fk.TableName, TypeName: fk.TypeName}
			}
			cols = append(cols, c)
		}
		t.AddColumns(cols)
		out = append(out, store.Table{ID: id, Table: t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: tables of %s: %w", modelID, err)
	}
	return out, nil
}

func (s *Store) RowsByTable(ctx context.Context, tableID string, limit int) ([]value.Row, error) {
	q := `SELECT r.cells FROM contains c JOIN table_row r ON r.id = c.row_id WHERE c.table_id = ? ORDER BY c.seq`
	args := []any{tableID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: rows of %s: %w", tableID, err)
	}
	defer rows.Close()

	var out []value.Row
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		var row value.Row
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("sqlite: decode row of %s: %w", tableID, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows of %s: %w", tableID, err)
	}
	return out, nil
}

func (s *Store) CountRows(ctx context.Context, tableID string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contains WHERE table_id = ?`, tableID).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count rows of %s: %w", tableID, err)
	}
	return n, nil
}

func (s *Store) DeleteModel(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	const owned = `SELECT o.table_id FROM owns o JOIN model m ON m.id = o.model_id WHERE m.name = ?`
	steps := []string{
		`DELETE FROM table_row WHERE id IN (SELECT row_id FROM contains WHERE table_id IN (` + owned + `))`,
		`DELETE FROM contains WHERE table_id IN (` + owned + `)`,
		`DELETE FROM model_table WHERE id IN (` + owned + `)`,
		`DELETE FROM owns WHERE model_id IN (SELECT id FROM model WHERE name = ?)`,
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt, name); err != nil {
			rollback()
			return fmt.Errorf("sqlite: delete model %s: %w", name, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM model WHERE name = ?`, name)
	if err != nil {
		rollback()
		return fmt.Errorf("sqlite: delete model %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		rollback()
		return fmt.Errorf("model %s: %w", name, store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
