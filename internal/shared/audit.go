package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog is one applied hook change stored in hook_audit_logs.
type AuditLog struct {
	InvocationID string
	Hook         string
	Action       string
	Entity       string
	EntityID     string
	Meta         map[string]any
	At           time.Time
}

// AuditLogger writes records into hook_audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at any
	if !log.At.IsZero() {
		at = log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO hook_audit_logs (invocation_id, hook, action, entity, entity_id, meta, occurred_at)
VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, COALESCE($7, NOW()))`, log.InvocationID, log.Hook, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}
