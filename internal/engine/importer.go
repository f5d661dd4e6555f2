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
	"db-luna/internal/sink"
	"db-luna/internal/store"
)

// Importer replays a stored model into a sink as insert statements.
type Importer struct {
	Store  store.Store
	Syntax query.Syntax // target identifier quoting; nil is T-SQL

	Reporter report.Reporter
	Metrics  *metrics.Transfer
	OnTable  func(TableResult)
}

// ImportOptions tunes one import.
type ImportOptions struct {
	// Clean sends a delete statement for every table, dependents first,
	// before any insert.
	Clean bool
}

// Import sends the rows of the stored model to s in constraint-safe table
// order: a marker comment per table followed by one insert per row. A row
// whose statement cannot be built or sent is reported and skipped.
func (im *Importer) Import(ctx context.Context, modelName string, s sink.Sink, opts ImportOptions) (results []TableResult, err error) {
	rep := im.reporter()

	m, err := im.Store.FindModel(ctx, modelName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("model %s has not been exported", modelName)
		}
		return nil, &StoreError{Op: "find model " + modelName, Err: err}
	}
	stored, err := im.Store.TablesByModel(ctx, m.ID)
	if err != nil {
		return nil, &StoreError{Op: "load tables of " + modelName, Err: err}
	}

	tables := make([]*schema.Table, len(stored))
	ids := make(map[string]string, len(stored))
	for i, st := range stored {
		tables[i] = st.Table
		ids[st.Table.Name] = st.ID
	}
	ordered, err := schema.SortConstraintSafe(tables)
	if err != nil {
		return nil, fmt.Errorf("failed to order tables: %w", err)
	}

	if err := s.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open sink: %w", err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close sink: %w", cerr)
		}
	}()

	if opts.Clean {
		im.clean(ctx, ordered, s)
	}

	for i, t := range ordered {
		start := time.Now()
		res, err := im.importTable(ctx, ids[t.Name], t, s)
		res.Elapsed = time.Since(start)
		results = append(results, res)

		im.Metrics.Table(metrics.DirectionImport, string(res.Status), res.Elapsed)
		im.Metrics.Rows(metrics.DirectionImport, t.Name, int64(res.Rows))
		im.Metrics.Skipped(metrics.DirectionImport, "row", int64(res.SkippedRows))
		if im.OnTable != nil {
			im.OnTable(res)
		}
		if err != nil {
			rep.Error("[%02d/%02d] %s: %v", i+1, len(ordered), t.Name, err)
			return results, err
		}
	}
	return results, nil
}

// clean deletes in reverse order so dependents go before the tables they
// reference. Failures are reported and the next table is tried.
func (im *Importer) clean(ctx context.Context, ordered []*schema.Table, s sink.Sink) {
	rep := im.reporter()
	for i := len(ordered) - 1; i >= 0; i-- {
		name := ordered[i].Name
		if err := s.Send(ctx, query.BuildDelete(name)); err != nil {
			rep.Warn("Failed to clean %s: %v (continuing...)", name, err)
		}
	}
	rep.Info("Cleaned %d tables", len(ordered))
}

func (im *Importer) importTable(ctx context.Context, tableID string, t *schema.Table, s sink.Sink) (TableResult, error) {
	rep := im.reporter()
	res := TableResult{Table: t.Name}

	if err := s.Send(ctx, query.TableMarker(t.Name)); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res, fmt.Errorf("sink: %w", err)
	}

	rows, err := im.Store.RowsByTable(ctx, tableID, 0)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res, &StoreError{Op: "load rows of " + t.Name, Err: err}
	}

	cols := t.TransferColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	for n, row := range rows {
		stmt, err := query.BuildInsert(im.Syntax, t.Name, names, row)
		if err == nil {
			err = s.Send(ctx, stmt)
		}
		if err != nil {
			rep.Warn("%s row %d skipped: %v", t.Name, n+1, err)
			res.SkippedRows++
			res.Err = err
			continue
		}
		res.Rows++
	}

	res.Status = StatusSuccess
	if len(rows) > 0 && res.Rows == 0 {
		res.Status = StatusFailed
	}
	if res.SkippedRows == 0 {
		rep.Success("%s: %d rows", t.Name, res.Rows)
	}
	return res, nil
}

func (im *Importer) reporter() report.Reporter {
	if im.Reporter == nil {
		return report.Discard
	}
	return im.Reporter
}
