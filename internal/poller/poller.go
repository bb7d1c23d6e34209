// Package poller drives long-running remote operations to completion by
// re-querying their handle at a fixed interval.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gax "github.com/googleapis/gax-go/v2"
)

// DefaultInterval is the wait between two status queries.
const DefaultInterval = 10 * time.Second

var (
	// ErrMaxAttempts is returned when the operation is still pending after
	// the configured number of queries.
	ErrMaxAttempts = errors.New("poller: maximum attempts reached")
	// ErrTimeout is returned when the overall polling deadline passes.
	ErrTimeout = errors.New("poller: timed out waiting for operation")
)

// Handle is a snapshot of a remote operation.
type Handle interface {
	Done() bool
}

// QueryFunc fetches a fresh snapshot of the operation behind h.
type QueryFunc[H Handle] func(ctx context.Context, h H) (H, error)

type options struct {
	interval    time.Duration
	maxAttempts int
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures Poll.
type Option func(*options)

// WithInterval sets the wait between queries.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithMaxAttempts bounds the number of queries. Zero means unbounded.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxAttempts = n
		}
	}
}

// WithTimeout bounds the total polling time. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger used for per-attempt debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Poll waits one interval, queries the operation, and repeats until the
// returned handle reports done. A handle that is already done is returned
// without any query. Query errors end polling immediately; nothing is retried.
// The timeout also bounds a query still in flight when it expires.
func Poll[H Handle](ctx context.Context, h H, query QueryFunc[H], opts ...Option) (H, error) {
	o := options{
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if h.Done() {
		return h, nil
	}

	pctx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeoutCause(ctx, o.timeout, ErrTimeout)
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		if err := gax.Sleep(pctx, o.interval); err != nil {
			return h, o.stopped(ctx, pctx, err)
		}

		next, err := query(pctx, h)
		if err != nil {
			if pctx.Err() != nil {
				return h, o.stopped(ctx, pctx, err)
			}
			return h, fmt.Errorf("poller: query attempt %d: %w", attempt, err)
		}
		h = next

		o.logger.Debug("operation polled",
			slog.Int("attempt", attempt),
			slog.Bool("done", h.Done()),
		)

		if h.Done() {
			return h, nil
		}
		if o.maxAttempts > 0 && attempt >= o.maxAttempts {
			return h, fmt.Errorf("%w (%d)", ErrMaxAttempts, o.maxAttempts)
		}
	}
}

// stopped reports why polling ended early: the caller's context, or the
// polling deadline.
func (o options) stopped(ctx, pctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(context.Cause(pctx), ErrTimeout) {
		return fmt.Errorf("%w after %s", ErrTimeout, o.timeout)
	}
	return err
}
