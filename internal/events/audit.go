package events

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// PgxIface is the subset of pgxpool.Pool the audit store needs. Declared as an
// interface so tests can substitute pgxmock.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AuditStore persists the execution event stream to PostgreSQL so a compliance
// checker can inspect it after the run. It is an optional secondary sink; the
// in-memory Log remains the source of truth during a run.
type AuditStore struct {
	db     PgxIface
	logger *zap.Logger
}

// NewAuditStore wraps an existing pgx connection pool.
func NewAuditStore(db PgxIface, logger *zap.Logger) *AuditStore {
	return &AuditStore{db: db, logger: logger.Named("audit_store")}
}

// EnsureSchema creates the audit table if it does not exist.
func (s *AuditStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS execution_events (
			id         TEXT PRIMARY KEY,
			run_id     TEXT NOT NULL,
			actor      TEXT NOT NULL,
			phase      TEXT NOT NULL,
			message    TEXT NOT NULL,
			emitted_at TIMESTAMPTZ NOT NULL,
			seq        BIGSERIAL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create execution_events table: %w", err)
	}
	return nil
}

// Append persists one event under the given run identifier.
func (s *AuditStore) Append(ctx context.Context, runID string, ev ExecutionEvent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO execution_events (id, run_id, actor, phase, message, emitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING;
	`, ev.ID, runID, string(ev.Actor), string(ev.Phase), ev.Message, ev.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append execution event: %w", err)
	}
	return nil
}

// EventsForRun retrieves the event stream of a run in emission order.
func (s *AuditStore) EventsForRun(ctx context.Context, runID string) ([]ExecutionEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, actor, phase, message, emitted_at
		FROM execution_events WHERE run_id = $1 ORDER BY seq ASC;
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution events: %w", err)
	}
	defer rows.Close()

	var out []ExecutionEvent
	for rows.Next() {
		var ev ExecutionEvent
		var actor, phase string
		if err := rows.Scan(&ev.ID, &actor, &phase, &ev.Message, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan execution event: %w", err)
		}
		ev.Actor = Actor(actor)
		ev.Phase = Phase(phase)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyRun loads a run's event stream and checks the start/terminal pairing
// invariant against it.
func (s *AuditStore) VerifyRun(ctx context.Context, runID string) error {
	evs, err := s.EventsForRun(ctx, runID)
	if err != nil {
		return err
	}
	if err := VerifyPairing(evs); err != nil {
		s.logger.Warn("Audit trail violates the pairing invariant",
			zap.String("run_id", runID), zap.Error(err))
		return err
	}
	return nil
}

// PersistentEmitter tees events to an AuditStore while also recording them in
// an in-memory log. Persistence failures are logged, never surfaced, to keep
// the fire-and-forget emission contract.
type PersistentEmitter struct {
	log    *Log
	store  *AuditStore
	runID  string
	logger *zap.Logger
}

// NewPersistentEmitter binds a store to a run identifier.
func NewPersistentEmitter(store *AuditStore, runID string, logger *zap.Logger) *PersistentEmitter {
	return &PersistentEmitter{
		log:    NewLog(),
		store:  store,
		runID:  runID,
		logger: logger.Named("persistent_emitter"),
	}
}

// Log returns the in-memory portion of the trail.
func (p *PersistentEmitter) Log() *Log {
	return p.log
}

// Emit records the event locally, then appends it to the store.
func (p *PersistentEmitter) Emit(ctx context.Context, actor Actor, phase Phase, message string) {
	p.log.Emit(ctx, actor, phase, message)
	evs := p.log.Events()
	ev := evs[len(evs)-1]
	if err := p.store.Append(ctx, p.runID, ev); err != nil {
		p.logger.Warn("Failed to persist execution event", zap.String("phase", string(phase)), zap.Error(err))
	}
}
