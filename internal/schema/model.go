package schema

import (
	"fmt"
	"sort"
	"strings"

	"db-luna/internal/value"
)

// Model is a named, ordered collection of tables. Table names are unique.
type Model struct {
	Name   string
	tables []*Table
	byName map[string]*Table
}

func NewModel(name string) *Model {
	return &Model{Name: name, byName: make(map[string]*Table)}
}

// AddTable appends t; a second table with the same name is rejected.
func (m *Model) AddTable(t *Table) error {
	if m.byName == nil {
		m.byName = make(map[string]*Table)
	}
	if _, exists := m.byName[t.Name]; exists {
		return fmt.Errorf("model %s: duplicate table %s", m.Name, t.Name)
	}
	m.byName[t.Name] = t
	m.tables = append(m.tables, t)
	return nil
}

// Table returns the table with the given name, or nil.
func (m *Model) Table(name string) *Table {
	return m.byName[name]
}

// Tables returns the tables in insertion order.
func (m *Model) Tables() []*Table {
	out := make([]*Table, len(m.tables))
	copy(out, m.tables)
	return out
}

// Column is one column of a table.
type Column struct {
	Name       string
	TableName  string
	TypeName   string
	Precision  int
	MaxLength  int
	Ordinal    int // stabilises output column order
	PrimaryKey bool
	ForeignKey *ForeignKey
}

// Kind is the value variant for the declared type; ok is false for types
// with no mapping (binary blobs and the like).
func (c *Column) Kind() (value.Kind, bool) {
	return value.KindForType(c.TypeName)
}

// ForeignKey describes the column referenced by a foreign-key column.
type ForeignKey struct {
	ColumnName string
	TableName  string
	TypeName   string
}

// Table holds the declared extraction options and the column set.
type Table struct {
	Name      string
	Predicate string // optional row filter, trusted SQL
	Skip      *int64
	Take      *int64

	columns map[string]*Column
}

func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumns replaces the full column set.
func (t *Table) AddColumns(cols []*Column) {
	t.columns = make(map[string]*Column, len(cols))
	for _, c := range cols {
		if c.TableName == "" {
			c.TableName = t.Name
		}
		t.columns[c.Name] = c
	}
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	return t.columns[name]
}

// HasColumns reports whether a column set has been attached.
func (t *Table) HasColumns() bool {
	return len(t.columns) > 0
}

// Columns returns the columns sorted by ordinal, then name.
func (t *Table) Columns() []*Column {
	out := make([]*Column, 0, len(t.columns))
	for _, c := range t.columns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ordinal != out[j].Ordinal {
			return out[i].Ordinal < out[j].Ordinal
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TransferColumns returns the ordered columns whose type maps to a value
// variant. Rows are always aligned to this list.
func (t *Table) TransferColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns() {
		if _, ok := c.Kind(); ok {
			out = append(out, c)
		}
	}
	return out
}

// PrimaryKeys returns the primary-key column names in ordinal order.
func (t *Table) PrimaryKeys() []string {
	var out []string
	for _, c := range t.Columns() {
		if c.PrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}

// ForeignKeys returns the foreign-key columns in ordinal order.
func (t *Table) ForeignKeys() []*Column {
	var out []*Column
	for _, c := range t.Columns() {
		if c.ForeignKey != nil {
			out = append(out, c)
		}
	}
	return out
}

// Dependencies lists the distinct referenced tables, self references
// excluded, in foreign-key column order.
func (t *Table) Dependencies() []string {
	var deps []string
	seen := make(map[string]bool)
	for _, c := range t.ForeignKeys() {
		ref := c.ForeignKey.TableName
		if ref == t.Name || seen[ref] {
			continue
		}
		seen[ref] = true
		deps = append(deps, ref)
	}
	return deps
}

// HasPagination reports whether both skip and take are set.
func (t *Table) HasPagination() bool {
	return t.Skip != nil && t.Take != nil
}

// Validate checks the declared options: skip and take come together and are
// not negative.
func (t *Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("table name is empty")
	}
	if (t.Skip == nil) != (t.Take == nil) {
		return fmt.Errorf("table %s: skip and take must be set together", t.Name)
	}
	if t.HasPagination() && (*t.Skip < 0 || *t.Take <= 0) {
		return fmt.Errorf("table %s: invalid pagination skip=%d take=%d", t.Name, *t.Skip, *t.Take)
	}
	return nil
}
