package schema_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"db-luna/internal/schema"
)

const shopYAML = `name: shop
model_name: shop
tables:
  - name: Customers
  - name: Orders
    condition: Total > 0
    skip: 0
    take: 500
    columns:
      - name: Total
        type: decimal
`

func TestLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.yml")
	if err := os.WriteFile(path, []byte(shopYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := schema.LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	if m.Name != "shop" {
		t.Errorf("Expected model shop, got %s", m.Name)
	}
	if got := names(m.Tables()); !reflect.DeepEqual(got, []string{"Customers", "Orders"}) {
		t.Errorf("Expected tables [Customers Orders], got %v", got)
	}

	orders := m.Table("Orders")
	if orders.Predicate != "Total > 0" || !orders.HasPagination() || *orders.Take != 500 || *orders.Skip != 0 {
		t.Errorf("Unexpected Orders options: %+v", orders)
	}
	if c := orders.Column("Total"); c == nil || c.TypeName != "decimal" || c.TableName != "Orders" {
		t.Errorf("Unexpected Total column: %+v", c)
	}
	if m.Table("Customers").HasColumns() {
		t.Error("Expected Customers to have no declared columns")
	}
}

func TestLoadModelRejectsHalfPagination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	body := "model_name: bad\ntables:\n  - name: Orders\n    take: 10\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := schema.LoadModel(path)
	if err == nil || !strings.Contains(err.Error(), "skip and take") {
		t.Errorf("Expected skip/take error, got %v", err)
	}
}

func TestSaveModelRoundTrip(t *testing.T) {
	db := dbModel(t)
	db.Name = "shop"
	path := schema.ModelPath(filepath.Join(t.TempDir(), "models"), "shop")

	if err := schema.SaveModel(path, db, true); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}
	back, err := schema.LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}

	for _, want := range db.Tables() {
		got := back.Table(want.Name)
		if got == nil {
			t.Fatalf("Table %s lost", want.Name)
		}
		a, b := want.Columns(), got.Columns()
		if len(a) != len(b) {
			t.Fatalf("%s: expected %d columns, got %d", want.Name, len(a), len(b))
		}
		for i := range a {
			if !reflect.DeepEqual(*a[i], *b[i]) {
				t.Errorf("%s: column %d: expected %+v, got %+v", want.Name, i, *a[i], *b[i])
			}
		}
	}
}

func TestSaveModelWithoutColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.yml")
	if err := schema.SaveModel(path, dbModel(t), false); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "columns:") {
		t.Errorf("Expected no columns in generated model, got:\n%s", data)
	}
}
