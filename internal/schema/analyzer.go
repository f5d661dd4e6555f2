package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"db-luna/internal/dialect"
)

// Source introspects a live relational schema.
type Source interface {
	ListTables(ctx context.Context) ([]*Table, error)
	ListColumns(ctx context.Context) ([]*Column, error)
}

// Analyzer reads tables and columns from the database catalog through the
// dialect's metadata queries.
type Analyzer struct {
	db     *sql.DB
	d      dialect.Dialect
	target string
}

func NewAnalyzer(db *sql.DB, d dialect.Dialect, schemaName string) *Analyzer {
	return &Analyzer{db: db, d: d, target: d.GetSchemaName(schemaName)}
}

func (a *Analyzer) ListTables(ctx context.Context) ([]*Table, error) {
	rows, err := a.db.QueryContext(ctx, a.d.GetTablesQuery(a.target), a.target)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []*Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, NewTable(name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// ListColumns returns every column of the schema with primary-key and
// foreign-key metadata attached.
func (a *Analyzer) ListColumns(ctx context.Context) ([]*Column, error) {
	// --- Step 1: Fetch Columns ---
	colRows, err := a.db.QueryContext(ctx, a.d.GetColumnsQuery(a.target), a.target)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer colRows.Close()

	var columns []*Column
	byKey := make(map[string]*Column)
	for colRows.Next() {
		var tName, cName, dType sql.NullString
		var precision, maxLength, ordinal sql.NullInt64
		if err := colRows.Scan(&tName, &cName, &dType, &precision, &maxLength, &ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", tName.String, err)
		}
		if !tName.Valid || !cName.Valid {
			continue // Skip invalid rows
		}

		col := &Column{
			Name:      cName.String,
			TableName: tName.String,
			TypeName:  a.d.NormalizeType(dType.String),
			Precision: int(precision.Int64),
			MaxLength: int(maxLength.Int64),
			Ordinal:   int(ordinal.Int64),
		}
		columns = append(columns, col)
		byKey[columnKey(col.TableName, col.Name)] = col
	}
	if err := colRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	// --- Step 2: Primary Keys ---
	pkRows, err := a.db.QueryContext(ctx, a.d.GetPrimaryKeysQuery(a.target), a.target)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary keys: %w", err)
	}
	defer pkRows.Close()

	for pkRows.Next() {
		var tName, cName sql.NullString
		if err := pkRows.Scan(&tName, &cName); err != nil {
			return nil, fmt.Errorf("failed to scan primary key: %w", err)
		}
		if c, ok := byKey[columnKey(tName.String, cName.String)]; ok {
			c.PrimaryKey = true
		}
	}
	if err := pkRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating primary keys: %w", err)
	}

	// --- Step 3: Foreign Keys ---
	fkRows, err := a.db.QueryContext(ctx, a.d.GetForeignKeysQuery(a.target), a.target)
	if err != nil {
		// FK query might fail on some DBs if permissions are missing.
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer fkRows.Close()

	for fkRows.Next() {
		var tName, cConst, cName, rTable, rCol sql.NullString
		if err := fkRows.Scan(&tName, &cConst, &cName, &rTable, &rCol); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		c, ok := byKey[columnKey(tName.String, cName.String)]
		if !ok || !rTable.Valid {
			continue
		}
		fk := &ForeignKey{ColumnName: rCol.String, TableName: rTable.String}
		if ref, ok := byKey[columnKey(rTable.String, rCol.String)]; ok {
			// original case name and type of the referenced column
			fk.TableName = ref.TableName
			fk.ColumnName = ref.Name
			fk.TypeName = ref.TypeName
		}
		c.ForeignKey = fk
	}
	if err := fkRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}

	return columns, nil
}

// Introspect builds a model from the tables and columns of src. Columns are
// matched to tables case-insensitively (Oracle support).
func Introspect(ctx context.Context, src Source, modelName string) (*Model, error) {
	tables, err := src.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	columns, err := src.ListColumns(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*Column)
	for _, c := range columns {
		key := strings.ToUpper(c.TableName)
		grouped[key] = append(grouped[key], c)
	}

	m := NewModel(modelName)
	for _, t := range tables {
		cols := grouped[strings.ToUpper(t.Name)]
		for _, c := range cols {
			c.TableName = t.Name
		}
		t.AddColumns(cols)
		if err := m.AddTable(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func columnKey(table, column string) string {
	return strings.ToUpper(table) + "." + strings.ToUpper(column)
}
