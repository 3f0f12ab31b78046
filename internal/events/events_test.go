package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEnrichesEvents(t *testing.T) {
	log := NewLog()
	log.Emit(context.Background(), ActorNavigator, PhaseActStart, "click_element")
	log.Emit(context.Background(), ActorNavigator, PhaseActOK, "clicked")

	evs := log.Events()
	require.Len(t, evs, 2)
	assert.NotEmpty(t, evs[0].ID)
	assert.NotEqual(t, evs[0].ID, evs[1].ID)
	assert.False(t, evs[0].Timestamp.IsZero())
	assert.Equal(t, ActorNavigator, evs[0].Actor)
	assert.Equal(t, "click_element", evs[0].Message)
	assert.Equal(t, 2, log.Len())
}

func TestLogEventsReturnsSnapshot(t *testing.T) {
	log := NewLog()
	log.Emit(context.Background(), ActorNavigator, PhaseActStart, "a")

	snapshot := log.Events()
	log.Emit(context.Background(), ActorNavigator, PhaseActOK, "b")
	assert.Len(t, snapshot, 1)
}

func TestPhaseTerminal(t *testing.T) {
	assert.False(t, PhaseActStart.Terminal())
	assert.True(t, PhaseActOK.Terminal())
	assert.True(t, PhaseActFail.Terminal())
}

func TestVerifyPairing(t *testing.T) {
	ev := func(p Phase) ExecutionEvent { return ExecutionEvent{Phase: p} }

	cases := []struct {
		name    string
		stream  []ExecutionEvent
		wantErr bool
	}{
		{"empty stream", nil, false},
		{"single ok pair", []ExecutionEvent{ev(PhaseActStart), ev(PhaseActOK)}, false},
		{"single fail pair", []ExecutionEvent{ev(PhaseActStart), ev(PhaseActFail)}, false},
		{"two sequential pairs", []ExecutionEvent{ev(PhaseActStart), ev(PhaseActOK), ev(PhaseActStart), ev(PhaseActFail)}, false},
		{"unterminated invocation", []ExecutionEvent{ev(PhaseActStart)}, true},
		{"terminal without start", []ExecutionEvent{ev(PhaseActOK)}, true},
		{"nested start", []ExecutionEvent{ev(PhaseActStart), ev(PhaseActStart), ev(PhaseActOK)}, true},
		{"double terminal", []ExecutionEvent{ev(PhaseActStart), ev(PhaseActOK), ev(PhaseActFail)}, true},
		{"unknown phase", []ExecutionEvent{{Phase: Phase("ACT_MAYBE")}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifyPairing(tc.stream)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
