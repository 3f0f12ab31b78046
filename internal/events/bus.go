package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bus fans execution events out to subscribers using a Pub/Sub model, in
// addition to recording them in an append-only log. Implements blocking sends
// (backpressure towards the bus, never towards the emitting handler, which
// goes through the non-blocking Emit) and graceful shutdown.
type Bus struct {
	logger *zap.Logger
	log    *Log

	// Map of phase to the list of subscriber channels.
	subscribers map[Phase][]chan ExecutionEvent
	mu          sync.RWMutex
	bufferSize  int

	// Tracks events currently being processed by consumers.
	processingWg sync.WaitGroup
	// Tracks active Post operations.
	activePostsWg sync.WaitGroup

	isShutdown bool
	shutdownMu sync.Mutex
}

// NewBus initializes the event bus. bufferSize bounds each subscriber channel.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Bus{
		logger:      logger.Named("event_bus"),
		log:         NewLog(),
		subscribers: make(map[Phase][]chan ExecutionEvent),
		bufferSize:  bufferSize,
	}
}

// Log exposes the underlying append-only log for compliance checks.
func (b *Bus) Log() *Log {
	return b.log
}

// Emit satisfies the Emitter contract: it records the event and delivers it to
// subscribers without surfacing failures to the emitting handler. Delivery is
// abandoned if the context is cancelled or the bus is shut down.
func (b *Bus) Emit(ctx context.Context, actor Actor, phase Phase, message string) {
	ev := ExecutionEvent{
		ID:        uuid.NewString(),
		Actor:     actor,
		Phase:     phase,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	b.log.mu.Lock()
	b.log.events = append(b.log.events, ev)
	b.log.mu.Unlock()

	if err := b.post(ctx, ev); err != nil {
		b.logger.Debug("Event delivery abandoned", zap.String("phase", string(phase)), zap.Error(err))
	}
}

// post distributes one event to all subscribers of its phase.
func (b *Bus) post(ctx context.Context, ev ExecutionEvent) (err error) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return fmt.Errorf("cannot post event: bus is shut down")
	}
	b.activePostsWg.Add(1)
	b.shutdownMu.Unlock()
	defer b.activePostsWg.Done()

	// A send on a channel closed during shutdown panics; recover and undo the
	// processing counter for the delivery that never happened.
	defer func() {
		if r := recover(); r != nil {
			b.processingWg.Done()
			err = fmt.Errorf("failed to post event: bus is shutting down")
		}
	}()

	b.mu.RLock()
	subscribers, ok := b.subscribers[ev.Phase]
	if !ok || len(subscribers) == 0 {
		b.mu.RUnlock()
		return nil
	}
	subsCopy := make([]chan ExecutionEvent, len(subscribers))
	copy(subsCopy, subscribers)
	b.mu.RUnlock()

	for _, ch := range subsCopy {
		b.processingWg.Add(1)
		select {
		case ch <- ev:
		case <-ctx.Done():
			b.processingWg.Done()
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe returns a channel receiving events of the given phases. With no
// phases it subscribes to the full lifecycle. The returned function
// unsubscribes and closes the channel.
func (b *Bus) Subscribe(phases ...Phase) (<-chan ExecutionEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan ExecutionEvent, b.bufferSize)

	if len(phases) == 0 {
		phases = []Phase{PhaseActStart, PhaseActOK, PhaseActFail}
	}

	for _, p := range phases {
		b.subscribers[p] = append(b.subscribers[p], ch)
	}

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.isShutdown {
			return
		}

		for _, p := range phases {
			subs := b.subscribers[p]
			for i, subscriberCh := range subs {
				if subscriberCh == ch {
					b.subscribers[p] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
		}
		close(ch)
	}

	return ch, unsubscribe
}

// Acknowledge signals that a received event has been processed by a consumer.
func (b *Bus) Acknowledge(ExecutionEvent) {
	b.processingWg.Done()
}

// Shutdown closes the bus, waiting for in-flight posts and unacknowledged
// deliveries to drain.
func (b *Bus) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	// Closing subscriber channels unblocks any Post stuck on a full buffer.
	b.mu.Lock()
	uniqueChannels := make(map[chan ExecutionEvent]struct{})
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			uniqueChannels[ch] = struct{}{}
		}
	}
	for ch := range uniqueChannels {
		close(ch)
	}
	b.subscribers = make(map[Phase][]chan ExecutionEvent)
	b.mu.Unlock()

	b.activePostsWg.Wait()
	b.processingWg.Wait()
}
