package engine_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"db-luna/internal/engine"
	"db-luna/internal/schema"
	"db-luna/internal/value"

	_ "modernc.org/sqlite"
)

func TestSQLRowSourceConvertsCells(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "source.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE People (Id INTEGER, Name TEXT, Score REAL)`,
		`INSERT INTO People VALUES (1, 'Ada', 9.5)`,
		`INSERT INTO People VALUES ('x', NULL, 7)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}

	cols := []*schema.Column{
		{Name: "Id", TypeName: "int", Ordinal: 1},
		{Name: "Name", TypeName: "nvarchar", Ordinal: 2},
		{Name: "Score", TypeName: "float", Ordinal: 3},
	}
	src := engine.NewSQLRowSource(db, nil)
	rows, cellErrs, err := src.ExecuteSelect(context.Background(), "select [Id], [Name], [Score]from People order by rowid", cols)
	if err != nil {
		t.Fatalf("ExecuteSelect() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first[0].Render() != "1" || first[1].Render() != "Ada" || first[2].Render() != "9.5" {
		t.Errorf("Unexpected first row %v", first)
	}

	second := rows[1]
	if !second[0].IsNull() || second[0].Kind() != value.KindInt {
		t.Errorf("Unconvertible Id should be a null int, got %v (%s)", second[0], second[0].Kind())
	}
	if !second[1].IsNull() || second[1].Kind() != value.KindString {
		t.Errorf("NULL name should be a null string, got %v", second[1])
	}
	if second[2].Render() != "7" {
		t.Errorf("Expected score 7, got %s", second[2].Render())
	}

	if len(cellErrs) != 1 || cellErrs[0].Row != 2 || cellErrs[0].Column != "Id" {
		t.Errorf("Expected one cell error at [2][Id], got %v", cellErrs)
	}
}

func TestSQLRowSourceQueryError(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	src := engine.NewSQLRowSource(db, nil)
	if _, _, err := src.ExecuteSelect(context.Background(), "select [Id]from Missing", nil); err == nil {
		t.Error("Expected error for a missing table")
	}
}
