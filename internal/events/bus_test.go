package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(zap.NewNop(), 8)
	defer bus.Shutdown()

	ch, unsubscribe := bus.Subscribe(PhaseActStart)
	defer unsubscribe()

	bus.Emit(context.Background(), ActorNavigator, PhaseActStart, "go_to_url")
	// A phase nobody subscribed to is still recorded, just not delivered.
	bus.Emit(context.Background(), ActorNavigator, PhaseActOK, "navigated")

	select {
	case ev := <-ch:
		assert.Equal(t, PhaseActStart, ev.Phase)
		assert.Equal(t, "go_to_url", ev.Message)
		bus.Acknowledge(ev)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event delivery")
	}

	assert.Equal(t, 2, bus.Log().Len())
}

func TestBusSubscribeAllPhasesByDefault(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(zap.NewNop(), 8)
	defer bus.Shutdown()

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	ctx := context.Background()
	bus.Emit(ctx, ActorNavigator, PhaseActStart, "click_element")
	bus.Emit(ctx, ActorNavigator, PhaseActFail, "element vanished")

	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			bus.Acknowledge(ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestBusEmitAfterShutdownIsSilent(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(zap.NewNop(), 8)
	bus.Shutdown()

	// Fire-and-forget: no panic, no error surfaced; the log still records.
	bus.Emit(context.Background(), ActorNavigator, PhaseActStart, "late")
	assert.Equal(t, 1, bus.Log().Len())
}

func TestBusShutdownIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(zap.NewNop(), 8)
	bus.Shutdown()
	assert.NotPanics(t, bus.Shutdown)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(zap.NewNop(), 8)
	defer bus.Shutdown()

	ch, unsubscribe := bus.Subscribe(PhaseActOK)
	unsubscribe()

	bus.Emit(context.Background(), ActorNavigator, PhaseActOK, "after unsubscribe")

	// The channel was closed by unsubscribe; no delivery may have happened.
	_, open := <-ch
	assert.False(t, open)
}

func TestBusTrailSatisfiesPairing(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(zap.NewNop(), 8)
	defer bus.Shutdown()

	ctx := context.Background()
	bus.Emit(ctx, ActorNavigator, PhaseActStart, "open_tab")
	bus.Emit(ctx, ActorNavigator, PhaseActOK, "opened")
	bus.Emit(ctx, ActorNavigator, PhaseActStart, "click_element")
	bus.Emit(ctx, ActorNavigator, PhaseActFail, "stale element")

	require.NoError(t, VerifyPairing(bus.Log().Events()))
}
