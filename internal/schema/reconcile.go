package schema

import (
	"fmt"
	"strings"
)

type DiagnosticKind string

const (
	MissingTable  DiagnosticKind = "MISSING_TABLE"
	MissingColumn DiagnosticKind = "MISSING_COLUMN"
	TypeMismatch  DiagnosticKind = "TYPE_MISMATCH"
)

// Diagnostic is one advisory finding of a reconciliation. None of them stop
// a transfer.
type Diagnostic struct {
	Kind     DiagnosticKind
	Table    string
	Column   string
	Expected string // declared type
	Found    string // physical type
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case MissingTable:
		return fmt.Sprintf("%s -> missing table in database", d.Table)
	case MissingColumn:
		return fmt.Sprintf("%s -- %s -> missing column in database", d.Table, d.Column)
	case TypeMismatch:
		return fmt.Sprintf("[%s].[%s] type differs - found: %s, expected: %s", d.Table, d.Column, d.Found, d.Expected)
	}
	return string(d.Kind)
}

// Warning reports whether the finding is warning level rather than error level.
func (d Diagnostic) Warning() bool {
	return d.Kind == TypeMismatch
}

type Report struct {
	Diagnostics []Diagnostic
	Matched     int // declared columns found with a compatible type
}

// OK reports whether every declared table and column was found.
func (r Report) OK() bool {
	for _, d := range r.Diagnostics {
		if !d.Warning() {
			return false
		}
	}
	return true
}

// Check compares the declared model against the introspected one. Tables and
// columns are visited in declaration order.
func Check(db, file *Model) Report {
	var r Report
	for _, ft := range file.Tables() {
		dt := db.Table(ft.Name)
		if dt == nil {
			r.Diagnostics = append(r.Diagnostics, Diagnostic{Kind: MissingTable, Table: ft.Name})
			continue
		}
		for _, fc := range ft.Columns() {
			dc := dt.Column(fc.Name)
			if dc == nil {
				r.Diagnostics = append(r.Diagnostics, Diagnostic{Kind: MissingColumn, Table: ft.Name, Column: fc.Name})
				continue
			}
			if typeDiffers(fc.TypeName, dc.TypeName) {
				r.Diagnostics = append(r.Diagnostics, Diagnostic{
					Kind: TypeMismatch, Table: ft.Name, Column: fc.Name,
					Expected: fc.TypeName, Found: dc.TypeName,
				})
				continue
			}
			r.Matched++
		}
	}
	return r
}

// Fill completes every declared table with the columns that exist physically
// but were left out of the declaration. Declared columns that exist take the
// physical metadata and keep their declared type name. Tables missing from
// the database are left as declared. Running Fill again changes nothing.
func Fill(db, file *Model) []Diagnostic {
	var diags []Diagnostic
	for _, ft := range file.Tables() {
		dt := db.Table(ft.Name)
		if dt == nil {
			diags = append(diags, Diagnostic{Kind: MissingTable, Table: ft.Name})
			continue
		}
		if !dt.HasColumns() {
			continue
		}

		merged := make([]*Column, 0, len(dt.columns))
		for _, dc := range dt.Columns() {
			fc := ft.Column(dc.Name)
			if fc == nil {
				c := *dc
				merged = append(merged, &c)
				continue
			}
			c := *dc
			if fc.TypeName != "" {
				c.TypeName = fc.TypeName
			}
			merged = append(merged, &c)
		}
		// declared columns the database lacks stay in place; Check flags them
		for _, fc := range ft.Columns() {
			if dt.Column(fc.Name) == nil {
				merged = append(merged, fc)
			}
		}
		ft.AddColumns(merged)
	}
	return diags
}

func typeDiffers(declared, physical string) bool {
	if strings.TrimSpace(declared) == "" {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(declared), strings.TrimSpace(physical))
}
