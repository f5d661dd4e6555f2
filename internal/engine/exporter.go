// Package engine moves a model between a relational source, the model store
// and a statement sink. Tables are processed one at a time in resolver order,
// rows in the order the source returns them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"db-luna/internal/metrics"
	"db-luna/internal/query"
	"db-luna/internal/report"
	"db-luna/internal/schema"
	"db-luna/internal/store"
	"db-luna/internal/value"
)

// Exporter copies the tables of a declared model from a live database into
// the store.
type Exporter struct {
	Source schema.Source
	Rows   RowSource
	Store  store.Store
	Syntax query.Syntax // source identifier quoting and pagination; nil is T-SQL
	Order  schema.Order

	Reporter report.Reporter
	Metrics  *metrics.Transfer
	OnTable  func(TableResult) // progress, called after each table
}

// Export reconciles file with the live schema, replaces any stored model of
// the same name and stores every table with its rows. A nil file exports
// every table of the live schema.
//
// Dependency, source and store failures abort the export; the results of
// the tables already processed are returned with the error.
func (e *Exporter) Export(ctx context.Context, modelName string, file *schema.Model) ([]TableResult, error) {
	rep := e.reporter()

	rep.Info("Analyzing schema...")
	db, err := schema.Introspect(ctx, e.Source, modelName)
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	if file == nil {
		file = db
	}

	check := schema.Check(db, file)
	reported := make(map[schema.Diagnostic]bool, len(check.Diagnostics))
	for _, d := range check.Diagnostics {
		reportDiagnostic(rep, d)
		reported[d] = true
	}
	for _, d := range schema.Fill(db, file) {
		if !reported[d] {
			reportDiagnostic(rep, d)
			reported[d] = true
		}
	}

	ordered, err := schema.Sort(file.Tables(), e.Order)
	if err != nil {
		return nil, fmt.Errorf("failed to order tables: %w", err)
	}

	if err := e.Store.DeleteModel(ctx, modelName); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, &StoreError{Op: "replace model " + modelName, Err: err}
	}
	modelID, err := e.Store.SaveModel(ctx, modelName)
	if err != nil {
		return nil, &StoreError{Op: "save model " + modelName, Err: err}
	}

	var results []TableResult
	for i, t := range ordered {
		start := time.Now()
		res, err := e.exportTable(ctx, modelID, t, db.Table(t.Name))
		res.Elapsed = time.Since(start)
		results = append(results, res)

		e.Metrics.Table(metrics.DirectionExport, string(res.Status), res.Elapsed)
		e.Metrics.Rows(metrics.DirectionExport, t.Name, int64(res.Rows))
		e.Metrics.Skipped(metrics.DirectionExport, "cell", int64(res.SkippedCells))
		if e.OnTable != nil {
			e.OnTable(res)
		}
		if err != nil {
			rep.Error("[%02d/%02d] %s: %v", i+1, len(ordered), t.Name, err)
			return results, err
		}
	}
	return results, nil
}

func (e *Exporter) exportTable(ctx context.Context, modelID string, t, physical *schema.Table) (TableResult, error) {
	rep := e.reporter()
	res := TableResult{Table: t.Name}

	stored := e.storedTable(t, physical)
	tableID, err := e.Store.SaveTable(ctx, stored)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res, &StoreError{Op: "save table " + t.Name, Err: err}
	}
	if err := e.Store.RelateTableToModel(ctx, modelID, tableID); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res, &StoreError{Op: "relate table " + t.Name, Err: err}
	}

	cols := stored.TransferColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	sqlText, err := query.BuildSelect(query.SelectSpec{
		Table:       t.Name,
		Columns:     names,
		PrimaryKeys: stored.PrimaryKeys(),
		Skip:        t.Skip,
		Take:        t.Take,
		Predicate:   t.Predicate,
		Syntax:      e.Syntax,
	})
	if err != nil {
		var be *query.BuilderError
		if errors.As(err, &be) {
			rep.Warn("Skipping %s: %v", t.Name, err)
			res.Status, res.Err = StatusSkipped, err
			return res, nil
		}
		res.Status, res.Err = StatusFailed, err
		return res, err
	}

	rows, cellErrs, err := e.Rows.ExecuteSelect(ctx, sqlText, cols)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res, &SourceError{Table: t.Name, Err: err}
	}
	for _, ce := range cellErrs {
		rep.Warn("%s %s", t.Name, ce)
	}
	res.SkippedCells = len(cellErrs)

	for _, row := range rows {
		rowID, err := e.Store.SaveRow(ctx, row)
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			return res, &StoreError{Op: "save row of " + t.Name, Err: err}
		}
		if err := e.Store.RelateRowToTable(ctx, tableID, rowID); err != nil {
			res.Status, res.Err = StatusFailed, err
			return res, &StoreError{Op: "relate row of " + t.Name, Err: err}
		}
		res.Rows++
	}

	res.Status = StatusSuccess
	rep.Success("%s: %d rows", t.Name, res.Rows)
	return res, nil
}

// storedTable is the copy of t kept in the store: only columns that exist
// physically and map to a value kind, so stored rows align with its
// transfer columns.
func (e *Exporter) storedTable(t, physical *schema.Table) *schema.Table {
	out := schema.NewTable(t.Name)
	out.Predicate, out.Skip, out.Take = t.Predicate, t.Skip, t.Take
	if physical == nil {
		return out
	}

	var cols []*schema.Column
	for _, c := range t.Columns() {
		if physical.Column(c.Name) == nil {
			continue
		}
		if _, ok := c.Kind(); !ok {
			e.reporter().Warn("Excluding %s.%s: %v", t.Name, c.Name, &value.ConversionError{SourceType: c.TypeName})
			continue
		}
		cp := *c
		cols = append(cols, &cp)
	}
	out.AddColumns(cols)
	return out
}

func (e *Exporter) reporter() report.Reporter {
	if e.Reporter == nil {
		return report.Discard
	}
	return e.Reporter
}

func reportDiagnostic(rep report.Reporter, d schema.Diagnostic) {
	if d.Warning() {
		rep.Warn("%s", d)
	} else {
		rep.Error("%s", d)
	}
}
