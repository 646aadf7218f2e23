package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Dialect selects placeholder style and DDL for SQLSink.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ErrUnknownDialect is returned for dialects other than postgres and sqlite.
var ErrUnknownDialect = errors.New("audit: unknown sql dialect")

// DriverName returns the database/sql driver registered for the dialect:
// "pgx" (github.com/jackc/pgx/v5/stdlib) or "sqlite" (modernc.org/sqlite).
func (d Dialect) DriverName() (string, error) {
	switch d {
	case DialectPostgres:
		return "pgx", nil
	case DialectSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, d)
	}
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS audit_events (
	id TEXT PRIMARY KEY,
	occurred_at TIMESTAMP NOT NULL,
	action TEXT NOT NULL,
	actor_id TEXT NOT NULL DEFAULT '',
	target_email TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}'
)`

const insertPostgresSQL = `INSERT INTO audit_events
	(id, occurred_at, action, actor_id, target_email, ip, user_agent, outcome, error, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const insertSQLiteSQL = `INSERT INTO audit_events
	(id, occurred_at, action, actor_id, target_email, ip, user_agent, outcome, error, metadata)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLSink appends events to the audit_events table. Rows are never updated
// or deleted by this package.
type SQLSink struct {
	db     *sql.DB
	insert string
}

// NewSQLSink wraps an open database handle.
func NewSQLSink(db *sql.DB, dialect Dialect) (*SQLSink, error) {
	if db == nil {
		return nil, errors.New("audit: nil database handle")
	}
	var insert string
	switch dialect {
	case DialectPostgres:
		insert = insertPostgresSQL
	case DialectSQLite:
		insert = insertSQLiteSQL
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
	return &SQLSink{db: db, insert: insert}, nil
}

// OpenSQLSink opens dsn with the dialect's driver and ensures the table
// exists. The driver package must be linked by the caller.
func OpenSQLSink(ctx context.Context, dialect Dialect, dsn string) (*SQLSink, error) {
	driver, err := dialect.DriverName()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", dialect, err)
	}
	sink, err := NewSQLSink(db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := sink.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

// Migrate creates the audit_events table when missing.
func (s *SQLSink) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("audit: create table: %w", err)
	}
	return nil
}

func (s *SQLSink) Emit(ctx context.Context, event Event) error {
	meta := "{}"
	if len(event.Metadata) > 0 {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("audit: encode metadata: %w", err)
		}
		meta = string(raw)
	}

	_, err := s.db.ExecContext(ctx, s.insert,
		event.ID,
		event.Timestamp.UTC(),
		event.Action,
		event.ActorID,
		event.TargetEmail,
		event.IP,
		event.UserAgent,
		string(event.Outcome),
		event.Error,
		meta,
	)
	if err != nil {
		return fmt.Errorf("audit: insert event %s: %w", event.ID, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLSink) Close() error {
	return s.db.Close()
}
