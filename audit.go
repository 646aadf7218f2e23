package goGuard

import (
	"context"
	"database/sql"
	"io"

	"github.com/MrEthical07/goGuard/internal/audit"
	"go.uber.org/zap"
)

// AuditEvent is one security-relevant event. Events are immutable once
// handed to the dispatcher.
type AuditEvent = audit.Event

// AuditOutcome classifies an AuditEvent.
type AuditOutcome = audit.Outcome

// AuditSink receives audit events from the dispatcher worker. Errors are
// logged and otherwise ignored.
type AuditSink = audit.Sink

// Sink implementations.
type (
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	ZapSink        = audit.ZapSink
	MultiSink      = audit.MultiSink
	SQLSink        = audit.SQLSink
	AuditDialect   = audit.Dialect
)

const (
	AuditDialectPostgres = audit.DialectPostgres
	AuditDialectSQLite   = audit.DialectSQLite
)

// Audit actions.
const (
	AuditLoginSuccess          = audit.ActionLoginSuccess
	AuditLoginFailed           = audit.ActionLoginFailed
	AuditLoginRateLimited      = audit.ActionLoginRateLimited
	AuditLoginCooldown         = audit.ActionLoginCooldown
	AuditSignupSuccess         = audit.ActionSignupSuccess
	AuditSignupFailed          = audit.ActionSignupFailed
	AuditSignupProfileDeferred = audit.ActionSignupProfileDeferred
	AuditIdentityCreated       = audit.ActionIdentityCreated
	AuditIdentityUpdated       = audit.ActionIdentityUpdated
	AuditIdentityDeleted       = audit.ActionIdentityDeleted
	AuditIdentityPasswordReset = audit.ActionIdentityPasswordReset
	AuditAdminDenied           = audit.ActionAdminDenied
	AuditMFAEnrolled           = audit.ActionMFAEnrolled
	AuditMFAVerified           = audit.ActionMFAVerified
	AuditMFAVerifyFailed       = audit.ActionMFAVerifyFailed
	AuditMFAUnenrolled         = audit.ActionMFAUnenrolled
	AuditLogout                = audit.ActionLogout
)

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewZapSink writes one structured log line per event.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return audit.NewZapSink(logger)
}

// NewSQLSink wraps an open database. Call Migrate once before use.
func NewSQLSink(db *sql.DB, dialect AuditDialect) (*SQLSink, error) {
	return audit.NewSQLSink(db, dialect)
}

// OpenSQLSink opens dsn with the driver registered for dialect and creates
// the audit_events table. The caller must import the driver: pgx stdlib for
// postgres, modernc.org/sqlite for sqlite.
func OpenSQLSink(ctx context.Context, dialect AuditDialect, dsn string) (*SQLSink, error) {
	return audit.OpenSQLSink(ctx, dialect, dsn)
}
