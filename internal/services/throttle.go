package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
	"golang.org/x/time/rate"
)

// ThrottledDispatcher rate limits another [Dispatcher] and bounds each send with a timeout.
type ThrottledDispatcher struct {
	next    Dispatcher
	limiter *rate.Limiter
	timeout time.Duration
}

// NewThrottledDispatcher wraps next. A zero perSecond disables rate limiting and a zero
// timeout leaves sends unbounded.
func NewThrottledDispatcher(next Dispatcher, perSecond float64, burst int, timeout time.Duration) *ThrottledDispatcher {
	t := &ThrottledDispatcher{next: next, timeout: timeout}
	if perSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return t
}

func (t *ThrottledDispatcher) Name() string { return t.next.Name() }

// Send waits for the limiter, then delegates. Exceeding the timeout wraps [shared.ErrTimeout].
func (t *ThrottledDispatcher) Send(ctx context.Context, d models.Delivery) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	err := t.next.Send(ctx, d)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s send after %s: %v", shared.ErrTimeout, t.next.Name(), t.timeout, err)
	}
	return err
}
