package browser

import (
	"context"
)

// combineContext derives a context from primary (which carries the chromedp
// target) that is additionally canceled when secondary is done. chromedp
// actions must run on the target-carrying context, but callers pass their own
// deadlines; this honors both.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(primary)
	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
