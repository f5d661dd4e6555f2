package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"db-luna/internal/dialect"
	"db-luna/internal/report"
)

// DatabaseSink executes each statement on a database connection. Comment
// lines are reported, never sent.
type DatabaseSink struct {
	driver string
	dsn    string
	rep    report.Reporter
	db     *sql.DB
}

// NewDatabaseSink validates the DSN for the driver; the connection itself is
// made by Open.
func NewDatabaseSink(driver, dsn string, rep report.Reporter) (*DatabaseSink, error) {
	d, err := dialect.GetDialect(driver)
	if err != nil {
		return nil, fmt.Errorf("database sink: %w", err)
	}
	if err := d.ValidateDSN(dsn); err != nil {
		return nil, fmt.Errorf("database sink: %w", err)
	}
	if rep == nil {
		rep = report.Discard
	}
	return &DatabaseSink{driver: d.DriverName(), dsn: dsn, rep: rep}, nil
}

// NewDatabaseSinkFromDB wraps an already open connection.
func NewDatabaseSinkFromDB(db *sql.DB, rep report.Reporter) *DatabaseSink {
	if rep == nil {
		rep = report.Discard
	}
	return &DatabaseSink{db: db, rep: rep}
}

func (s *DatabaseSink) Open(ctx context.Context) error {
	if s.db == nil {
		db, err := sql.Open(s.driver, s.dsn)
		if err != nil {
			return fmt.Errorf("database sink: sql.Open: %w", err)
		}
		s.db = db
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database sink: ping: %w", err)
	}
	return nil
}

func (s *DatabaseSink) Send(ctx context.Context, stmt string) error {
	if s.db == nil {
		return fmt.Errorf("database sink: not open")
	}
	if strings.HasPrefix(strings.TrimSpace(stmt), "--") {
		s.rep.Info("%s", stmt)
		return nil
	}
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("database sink: exec: %w", err)
	}
	return nil
}

func (s *DatabaseSink) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
