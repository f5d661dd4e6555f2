package engine_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"db-luna/internal/engine"
	"db-luna/internal/report"
	"db-luna/internal/schema"
	"db-luna/internal/store"
	"db-luna/internal/store/sqlite"
	"db-luna/internal/value"

	"github.com/shopspring/decimal"
)

// --- fakes ---

type fakeSource struct {
	tables  []string
	columns []*schema.Column
}

func (f *fakeSource) ListTables(ctx context.Context) ([]*schema.Table, error) {
	out := make([]*schema.Table, len(f.tables))
	for i, n := range f.tables {
		out[i] = schema.NewTable(n)
	}
	return out, nil
}

func (f *fakeSource) ListColumns(ctx context.Context) ([]*schema.Column, error) {
	out := make([]*schema.Column, len(f.columns))
	for i, c := range f.columns {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

type result struct {
	rows     []value.Row
	cellErrs []engine.CellError
	err      error
}

type fakeRows struct {
	results map[string]result
	queries []string
}

func (f *fakeRows) ExecuteSelect(ctx context.Context, q string, cols []*schema.Column) ([]value.Row, []engine.CellError, error) {
	f.queries = append(f.queries, q)
	r, ok := f.results[q]
	if !ok {
		return nil, nil, fmt.Errorf("unexpected query %q", q)
	}
	return r.rows, r.cellErrs, r.err
}

type memSink struct {
	stmts  []string
	failOn string
	opened bool
	closed bool
}

func (s *memSink) Open(ctx context.Context) error { s.opened = true; return nil }

func (s *memSink) Send(ctx context.Context, stmt string) error {
	if stmt == s.failOn {
		return errors.New("constraint violation")
	}
	s.stmts = append(s.stmts, stmt)
	return nil
}

func (s *memSink) Close() error { s.closed = true; return nil }

// --- fixtures ---

const (
	customersQuery = "select [Id], [Name]from Customers"
	ordersQuery    = "select [Id], [CustomerId], [Total]from Orders order by  Id offset 0 rows fetch next 2 rows only"
)

func shopSource() *fakeSource {
	return &fakeSource{
		tables: []string{"Customers", "Orders"},
		columns: []*schema.Column{
			{Name: "Id", TableName: "Customers", TypeName: "int", Ordinal: 1, PrimaryKey: true},
			{Name: "Name", TableName: "Customers", TypeName: "nvarchar", Ordinal: 2, MaxLength: 100},
			{Name: "Photo", TableName: "Customers", TypeName: "varbinary", Ordinal: 3},
			{Name: "Id", TableName: "Orders", TypeName: "int", Ordinal: 1, PrimaryKey: true},
			{Name: "CustomerId", TableName: "Orders", TypeName: "int", Ordinal: 2,
				ForeignKey: &schema.ForeignKey{ColumnName: "Id", TableName: "Customers", TypeName: "int"}},
			{Name: "Total", TableName: "Orders", TypeName: "decimal", Ordinal: 3, Precision: 18},
		},
	}
}

func shopRows() *fakeRows {
	return &fakeRows{results: map[string]result{
		customersQuery: {
			rows: []value.Row{
				{value.Int(1), value.String("Ada")},
				{value.Int(2), value.Null(value.KindString)},
			},
			cellErrs: []engine.CellError{{Row: 2, Column: "Name", Err: errors.New("bad utf-16")}},
		},
		ordersQuery: {
			rows: []value.Row{
				{value.Int(10), value.Int(1), value.Decimal(decimal.RequireFromString("19.90"))},
			},
		},
	}}
}

// shopModel declares Orders before Customers, plus a table the database lacks.
func shopModel(t *testing.T) *schema.Model {
	t.Helper()
	skip, take := int64(0), int64(2)
	orders := schema.NewTable("Orders")
	orders.Skip, orders.Take = &skip, &take

	customers := schema.NewTable("Customers")
	customers.AddColumns([]*schema.Column{{Name: "Name", TypeName: "nvarchar"}})

	m := schema.NewModel("shop")
	for _, tbl := range []*schema.Table{orders, customers, schema.NewTable("Ghost")} {
		if err := m.AddTable(tbl); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "luna.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func tableNames(results []engine.TableResult) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Table)
	}
	return out
}

// --- tests ---

func TestExportStoresTablesInLocalityOrder(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	rows := shopRows()
	rec := &report.Recorder{}
	var progress []string

	ex := &engine.Exporter{
		Source:   shopSource(),
		Rows:     rows,
		Store:    st,
		Order:    schema.Locality,
		Reporter: rec,
		OnTable:  func(r engine.TableResult) { progress = append(progress, r.Table) },
	}
	results, err := ex.Export(ctx, "shop", shopModel(t))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	want := []string{"Orders", "Customers", "Ghost"}
	if got := tableNames(results); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected order %v, got %v", want, got)
	}
	if !reflect.DeepEqual(progress, want) {
		t.Errorf("Expected progress %v, got %v", want, progress)
	}
	if !reflect.DeepEqual(rows.queries, []string{ordersQuery, customersQuery}) {
		t.Errorf("Unexpected queries: %q", rows.queries)
	}

	byName := map[string]engine.TableResult{}
	for _, r := range results {
		byName[r.Table] = r
	}
	if r := byName["Orders"]; r.Status != engine.StatusSuccess || r.Rows != 1 {
		t.Errorf("Orders: %+v", r)
	}
	if r := byName["Customers"]; r.Status != engine.StatusSuccess || r.Rows != 2 || r.SkippedCells != 1 {
		t.Errorf("Customers: %+v", r)
	}
	if r := byName["Ghost"]; r.Status != engine.StatusSkipped || r.Err == nil {
		t.Errorf("Ghost: %+v", r)
	}

	// missing table, excluded varbinary column, bad cell
	if rec.Count(report.LevelError) != 1 {
		t.Errorf("Expected 1 error diagnostic, got %+v", rec.Entries)
	}
	if rec.Count(report.LevelWarn) < 3 {
		t.Errorf("Expected at least 3 warnings, got %+v", rec.Entries)
	}

	m, err := st.FindModel(ctx, "shop")
	if err != nil {
		t.Fatalf("FindModel() error = %v", err)
	}
	tables, err := st.TablesByModel(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 3 {
		t.Fatalf("Expected 3 stored tables, got %d", len(tables))
	}
	var customers *schema.Table
	for _, tbl := range tables {
		if tbl.Table.Name == "Customers" {
			customers = tbl.Table
		}
	}
	if customers == nil || customers.Column("Photo") != nil || customers.Column("Name") == nil {
		t.Errorf("Stored Customers should keep Id and Name only, got %+v", customers)
	}
}

func TestExportReportsMissingTableOnce(t *testing.T) {
	rec := &report.Recorder{}
	ex := &engine.Exporter{
		Source:   shopSource(),
		Rows:     shopRows(),
		Store:    openStore(t),
		Order:    schema.Locality,
		Reporter: rec,
	}
	if _, err := ex.Export(context.Background(), "shop", shopModel(t)); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	n := 0
	for _, e := range rec.Entries {
		if strings.Contains(e.Message, "Ghost -> missing table") {
			n++
		}
	}
	if n != 1 {
		t.Errorf("Expected 1 missing table diagnostic for Ghost, got %d: %+v", n, rec.Entries)
	}
}

func TestExportReplacesExistingModel(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	for i := 0; i < 2; i++ {
		ex := &engine.Exporter{Source: shopSource(), Rows: shopRows(), Store: st}
		if _, err := ex.Export(ctx, "shop", shopModel(t)); err != nil {
			t.Fatalf("Export() #%d error = %v", i+1, err)
		}
	}
	models, err := st.ListModels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 1 {
		t.Errorf("Expected 1 stored model, got %d", len(models))
	}
}

func TestExportWithoutModelFileTakesEveryTable(t *testing.T) {
	st := openStore(t)
	rows := shopRows()
	rows.results["select [Id], [CustomerId], [Total]from Orders"] = rows.results[ordersQuery]

	ex := &engine.Exporter{Source: shopSource(), Rows: rows, Store: st, Order: schema.ConstraintSafe}
	results, err := ex.Export(context.Background(), "shop", nil)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if got := tableNames(results); !reflect.DeepEqual(got, []string{"Customers", "Orders"}) {
		t.Errorf("Expected [Customers Orders], got %v", got)
	}
}

func TestExportAbortsOnUnresolvedDependency(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	file := schema.NewModel("orders-only")
	if err := file.AddTable(schema.NewTable("Orders")); err != nil {
		t.Fatal(err)
	}
	ex := &engine.Exporter{Source: shopSource(), Rows: shopRows(), Store: st}
	_, err := ex.Export(ctx, "orders-only", file)

	var depErr *schema.DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("Expected DependencyError, got %v", err)
	}
	if !reflect.DeepEqual(depErr.Unresolved, []string{"Customers"}) {
		t.Errorf("Expected Customers unresolved, got %v", depErr.Unresolved)
	}
	if _, err := st.FindModel(ctx, "orders-only"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Nothing should be stored, FindModel() error = %v", err)
	}
}

func TestExportAbortsOnSourceError(t *testing.T) {
	rows := shopRows()
	rows.results[ordersQuery] = result{err: errors.New("connection reset")}

	ex := &engine.Exporter{Source: shopSource(), Rows: rows, Store: openStore(t)}
	results, err := ex.Export(context.Background(), "shop", shopModel(t))

	var srcErr *engine.SourceError
	if !errors.As(err, &srcErr) || srcErr.Table != "Orders" {
		t.Fatalf("Expected SourceError for Orders, got %v", err)
	}
	// Customers goes first in constraint-safe order
	if len(results) != 2 || results[1].Status != engine.StatusFailed {
		t.Errorf("Expected Orders to fail after Customers, got %+v", results)
	}
}

func TestImportSendsStatementsInConstraintSafeOrder(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	ex := &engine.Exporter{Source: shopSource(), Rows: shopRows(), Store: st, Order: schema.Locality}
	if _, err := ex.Export(ctx, "shop", shopModel(t)); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	out := &memSink{}
	im := &engine.Importer{Store: st}
	results, err := im.Import(ctx, "shop", out, engine.ImportOptions{Clean: true})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	want := []string{
		"delete from Ghost;",
		"delete from Orders;",
		"delete from Customers;",
		"-- Table Customers",
		"insert into Customers([Id], [Name]) values (1, 'Ada');",
		"insert into Customers([Id], [Name]) values (2, NULL);",
		"-- Table Orders",
		"insert into Orders([Id], [CustomerId], [Total]) values (10, 1, 19.90);",
		"-- Table Ghost",
	}
	if !reflect.DeepEqual(out.stmts, want) {
		t.Errorf("Unexpected statements:\n got %q\nwant %q", out.stmts, want)
	}
	if !out.opened || !out.closed {
		t.Error("Expected the sink to be opened and closed")
	}
	if got := tableNames(results); !reflect.DeepEqual(got, []string{"Customers", "Orders", "Ghost"}) {
		t.Errorf("Unexpected result order %v", got)
	}
}

func TestImportSkipsFailingRow(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	ex := &engine.Exporter{Source: shopSource(), Rows: shopRows(), Store: st}
	if _, err := ex.Export(ctx, "shop", shopModel(t)); err != nil {
		t.Fatal(err)
	}

	out := &memSink{failOn: "insert into Customers([Id], [Name]) values (1, 'Ada');"}
	rec := &report.Recorder{}
	im := &engine.Importer{Store: st, Reporter: rec}
	results, err := im.Import(ctx, "shop", out, engine.ImportOptions{})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	customers := results[0]
	if customers.Table != "Customers" || customers.Rows != 1 || customers.SkippedRows != 1 {
		t.Errorf("Customers: %+v", customers)
	}
	if customers.Status != engine.StatusSuccess {
		t.Errorf("Expected SUCCESS with a skipped row, got %s", customers.Status)
	}
	if rec.Count(report.LevelWarn) != 1 {
		t.Errorf("Expected 1 warning, got %+v", rec.Entries)
	}
	if len(out.stmts) != 5 {
		t.Errorf("Expected 5 statements sent, got %q", out.stmts)
	}
}

func TestImportUnknownModel(t *testing.T) {
	out := &memSink{}
	im := &engine.Importer{Store: openStore(t)}
	if _, err := im.Import(context.Background(), "nope", out, engine.ImportOptions{}); err == nil {
		t.Fatal("Expected error for a model that was never exported")
	}
	if out.opened {
		t.Error("Sink must not be opened when the model is missing")
	}
}
