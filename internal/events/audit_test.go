package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuditMock(t *testing.T) (pgxmock.PgxPoolIface, *AuditStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewAuditStore(mock, zap.NewNop())
}

func TestAuditStoreEnsureSchema(t *testing.T) {
	mock, store := newAuditMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS execution_events").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditStoreAppend(t *testing.T) {
	mock, store := newAuditMock(t)
	ev := ExecutionEvent{
		ID:        "ev-1",
		Actor:     ActorNavigator,
		Phase:     PhaseActStart,
		Message:   "go_to_url",
		Timestamp: time.Now().UTC(),
	}
	mock.ExpectExec("INSERT INTO execution_events").
		WithArgs(ev.ID, "run-1", "navigator", "ACT_START", "go_to_url", ev.Timestamp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Append(context.Background(), "run-1", ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditStoreAppendFailure(t *testing.T) {
	mock, store := newAuditMock(t)
	mock.ExpectExec("INSERT INTO execution_events").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	err := store.Append(context.Background(), "run-1", ExecutionEvent{ID: "ev-1"})
	assert.Error(t, err)
}

func TestAuditStoreEventsForRun(t *testing.T) {
	mock, store := newAuditMock(t)
	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "actor", "phase", "message", "emitted_at"}).
		AddRow("ev-1", "navigator", "ACT_START", "click_element", now).
		AddRow("ev-2", "navigator", "ACT_OK", "clicked", now.Add(time.Second))
	mock.ExpectQuery("SELECT id, actor, phase, message, emitted_at").
		WithArgs("run-1").
		WillReturnRows(rows)

	evs, err := store.EventsForRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, PhaseActStart, evs[0].Phase)
	assert.Equal(t, ActorNavigator, evs[1].Actor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditStoreVerifyRun(t *testing.T) {
	t.Run("paired trail passes", func(t *testing.T) {
		mock, store := newAuditMock(t)
		now := time.Now().UTC()
		rows := pgxmock.NewRows([]string{"id", "actor", "phase", "message", "emitted_at"}).
			AddRow("ev-1", "navigator", "ACT_START", "open_tab", now).
			AddRow("ev-2", "navigator", "ACT_OK", "opened", now)
		mock.ExpectQuery("SELECT id, actor, phase, message, emitted_at").
			WithArgs("run-1").
			WillReturnRows(rows)

		assert.NoError(t, store.VerifyRun(context.Background(), "run-1"))
	})

	t.Run("orphaned start fails", func(t *testing.T) {
		mock, store := newAuditMock(t)
		rows := pgxmock.NewRows([]string{"id", "actor", "phase", "message", "emitted_at"}).
			AddRow("ev-1", "navigator", "ACT_START", "open_tab", time.Now().UTC())
		mock.ExpectQuery("SELECT id, actor, phase, message, emitted_at").
			WithArgs("run-2").
			WillReturnRows(rows)

		assert.Error(t, store.VerifyRun(context.Background(), "run-2"))
	})
}

func TestPersistentEmitterTeesToStore(t *testing.T) {
	mock, store := newAuditMock(t)
	mock.ExpectExec("INSERT INTO execution_events").
		WithArgs(pgxmock.AnyArg(), "run-1", "navigator", "ACT_START", "send_keys", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	emitter := NewPersistentEmitter(store, "run-1", zap.NewNop())
	emitter.Emit(context.Background(), ActorNavigator, PhaseActStart, "send_keys")

	assert.Equal(t, 1, emitter.Log().Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistentEmitterSurvivesStoreFailure(t *testing.T) {
	mock, store := newAuditMock(t)
	mock.ExpectExec("INSERT INTO execution_events").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("database gone"))

	emitter := NewPersistentEmitter(store, "run-1", zap.NewNop())

	// Emission is fire-and-forget; the in-memory log must still record.
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), ActorNavigator, PhaseActStart, "send_keys")
	})
	assert.Equal(t, 1, emitter.Log().Len())
}
