// Package query builds the textual SQL used to extract rows from the source
// and to replay them into a sink. Statements are plain text, with no
// parameter binding, so they can be inspected or replayed by hand.
package query

import (
	"fmt"
	"math"
	"strings"

	"db-luna/internal/value"
)

// Syntax supplies identifier quoting and the pagination clause of a SQL
// flavour. Dialects implement it.
type Syntax interface {
	QuoteIdent(name string) string
	Paginate(skip, take int64) string
}

type tsql struct{}

func (tsql) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (tsql) Paginate(skip, take int64) string {
	return fmt.Sprintf(" offset %d rows fetch next %d rows only", skip, take)
}

// TSQL is the SQL Server syntax, used when none is given.
var TSQL Syntax = tsql{}

// BuilderError reports a statement that cannot be built. It only concerns
// one table (select) or one row (insert).
type BuilderError struct {
	Table  string
	Reason string
}

func (e *BuilderError) Error() string {
	return fmt.Sprintf("cannot build query for %s: %s", e.Table, e.Reason)
}

// SelectSpec describes one extraction query.
type SelectSpec struct {
	Table       string
	Columns     []string
	PrimaryKeys []string
	Skip        *int64
	Take        *int64
	Predicate   string // trusted, appended verbatim

	Syntax Syntax // nil means TSQL
}

// BuildSelect produces
//
//	select [a], [b]from t where p order by  k1, k2 offset S rows fetch next T rows only
//
// The where clause is present only with a predicate, ordering and paging only
// when both skip and take are set.
func BuildSelect(spec SelectSpec) (string, error) {
	syn := spec.Syntax
	if syn == nil {
		syn = TSQL
	}
	if len(spec.Columns) == 0 {
		return "", &BuilderError{Table: spec.Table, Reason: "no columns to select"}
	}

	var b strings.Builder
	b.WriteString("select ")
	b.WriteString(quoteAll(syn, spec.Columns))
	b.WriteString("from ")
	b.WriteString(spec.Table)

	if spec.Predicate != "" {
		b.WriteString(" where ")
		b.WriteString(spec.Predicate)
	}

	if spec.Skip != nil && spec.Take != nil {
		if len(spec.PrimaryKeys) == 0 {
			return "", &BuilderError{Table: spec.Table, Reason: "pagination requires at least one primary key column"}
		}
		b.WriteString(" order by ")
		for i, pk := range spec.PrimaryKeys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(" ")
			b.WriteString(pk)
		}
		b.WriteString(syn.Paginate(*spec.Skip, *spec.Take))
	}

	return b.String(), nil
}

// BuildInsert produces "insert into t([a], [b]) values (1, 'x', NULL);" with
// one literal per column.
func BuildInsert(syn Syntax, table string, columns []string, row value.Row) (string, error) {
	if syn == nil {
		syn = TSQL
	}
	if len(columns) == 0 {
		return "", &BuilderError{Table: table, Reason: "no columns to insert"}
	}
	if len(columns) != len(row) {
		return "", &BuilderError{
			Table:  table,
			Reason: fmt.Sprintf("%d columns but %d values", len(columns), len(row)),
		}
	}

	literals := make([]string, len(row))
	for i, v := range row {
		literals[i] = Literal(v)
	}
	return fmt.Sprintf("insert into %s(%s) values (%s);", table, quoteAll(syn, columns), strings.Join(literals, ", ")), nil
}

// BuildDelete empties a table.
func BuildDelete(table string) string {
	return fmt.Sprintf("delete from %s;", table)
}

// Literal renders v as a SQL literal. Numbers stay bare; text, identifiers,
// timestamps and booleans are single quoted with quotes doubled. NaN and
// infinities have no literal and become NULL.
func Literal(v value.Value) string {
	if !finite(v) {
		return value.NullText
	}
	text := v.Render()
	if v.IsNull() || !v.Kind().Textual() {
		return text
	}
	return "'" + strings.ReplaceAll(text, "'", "''") + "'"
}

// TableMarker is the comment line sent before a table's statements.
func TableMarker(table string) string {
	return "-- Table " + table
}

func finite(v value.Value) bool {
	var f float64
	switch n := v.Interface().(type) {
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return true
	}
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func quoteAll(syn Syntax, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = syn.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
