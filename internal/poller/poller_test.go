package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOp struct {
	name string
	seq  int32
	done bool
}

func (f fakeOp) Done() bool { return f.done }

// doneAfter returns a query that reports done on the n-th call. Each
// returned handle carries the number of the call that produced it.
func doneAfter(n int32, calls *atomic.Int32) QueryFunc[fakeOp] {
	return func(ctx context.Context, h fakeOp) (fakeOp, error) {
		c := calls.Add(1)
		return fakeOp{name: h.name, seq: c, done: c >= n}, nil
	}
}

func TestPoll_QueriesUntilDone(t *testing.T) {
	var calls atomic.Int32

	got, err := Poll(context.Background(), fakeOp{name: "op-1"}, doneAfter(3, &calls),
		WithInterval(time.Millisecond))

	require.NoError(t, err)
	assert.True(t, got.Done())
	assert.Equal(t, "op-1", got.name)
	assert.Equal(t, int32(3), got.seq, "the handle of the third query is returned")
	assert.Equal(t, int32(3), calls.Load())
}

func TestPoll_AlreadyDoneSkipsQueries(t *testing.T) {
	var calls atomic.Int32

	got, err := Poll(context.Background(), fakeOp{done: true}, doneAfter(1, &calls))

	require.NoError(t, err)
	assert.True(t, got.Done())
	assert.Equal(t, int32(0), calls.Load())
}

func TestPoll_WaitsBeforeFirstQuery(t *testing.T) {
	var calls atomic.Int32
	interval := 20 * time.Millisecond

	start := time.Now()
	_, err := Poll(context.Background(), fakeOp{}, doneAfter(1, &calls), WithInterval(interval))

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), interval)
}

func TestPoll_QueryErrorStopsImmediately(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	query := func(ctx context.Context, h fakeOp) (fakeOp, error) {
		calls.Add(1)
		return h, boom
	}

	_, err := Poll(context.Background(), fakeOp{}, query, WithInterval(time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPoll_MaxAttempts(t *testing.T) {
	var calls atomic.Int32

	_, err := Poll(context.Background(), fakeOp{}, doneAfter(100, &calls),
		WithInterval(time.Millisecond), WithMaxAttempts(2))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxAttempts)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPoll_Timeout(t *testing.T) {
	var calls atomic.Int32

	_, err := Poll(context.Background(), fakeOp{}, doneAfter(1, &calls),
		WithInterval(time.Hour), WithTimeout(10*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(0), calls.Load())
}

func TestPoll_TimeoutDuringQuery(t *testing.T) {
	var calls atomic.Int32
	query := func(ctx context.Context, h fakeOp) (fakeOp, error) {
		calls.Add(1)
		<-ctx.Done()
		return h, ctx.Err()
	}

	_, err := Poll(context.Background(), fakeOp{}, query,
		WithInterval(time.Millisecond), WithTimeout(20*time.Millisecond))

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPoll_ContextCancelled(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Poll(ctx, fakeOp{}, doneAfter(1, &calls), WithInterval(time.Hour))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

func TestOptions_IgnoreInvalidValues(t *testing.T) {
	o := options{interval: DefaultInterval}

	WithInterval(0)(&o)
	WithMaxAttempts(-1)(&o)
	WithTimeout(-time.Second)(&o)
	WithLogger(nil)(&o)

	assert.Equal(t, DefaultInterval, o.interval)
	assert.Equal(t, 0, o.maxAttempts)
	assert.Equal(t, time.Duration(0), o.timeout)
	assert.Nil(t, o.logger)
}
