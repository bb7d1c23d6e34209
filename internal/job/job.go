// Package job provides the generation job state machine shared by every
// studio workflow. A Job accepts one submission at a time, dispatches it
// through a workflow-specific strategy, and records either a result or an
// error.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Kim6922/senpai-ai/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusIdle indicates no attempt is in flight and none has completed
	// since the last reset.
	StatusIdle Status = "IDLE"
	// StatusRunning indicates an attempt is in flight.
	StatusRunning Status = "RUNNING"
	// StatusSucceeded indicates the last attempt produced a result.
	StatusSucceeded Status = "SUCCEEDED"
	// StatusFailed indicates the last attempt produced an error.
	StatusFailed Status = "FAILED"
)

// IsTerminal reports whether s ends an attempt.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

var (
	// ErrAlreadyRunning is returned when a submission arrives while an
	// attempt is in flight.
	ErrAlreadyRunning = errors.New("job: already running")
	// ErrInvalidTransition is returned when an invalid state transition is attempted.
	ErrInvalidTransition = errors.New("job: invalid state transition")
	// ErrDiscarded is the outcome of a cancelled task.
	ErrDiscarded = errors.New("job: result discarded")
)

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusIdle:      {StatusRunning},
	StatusRunning:   {StatusSucceeded, StatusFailed, StatusIdle},
	StatusSucceeded: {StatusRunning, StatusIdle},
	StatusFailed:    {StatusRunning, StatusIdle},
}

func canTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// Strategy performs the remote work of one attempt.
type Strategy[In, Out any] interface {
	Dispatch(ctx context.Context, in In) (Out, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// Dispatch implements Strategy.
func (f StrategyFunc[In, Out]) Dispatch(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

// Releaser is implemented by results that hold resources, such as local
// media files, which must be freed when the result is replaced.
type Releaser interface {
	Release() error
}

// Snapshot is a consistent copy of a job's observable state.
type Snapshot[In, Out any] struct {
	Workflow    string
	Status      Status
	Input       In
	Result      Out
	HasResult   bool
	Err         *Error
	AttemptID   string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Job is the state machine of one workflow.
type Job[In, Out any] struct {
	name     string
	strategy Strategy[In, Out]
	settings settings

	mu          sync.RWMutex
	status      Status
	input       In
	result      Out
	hasResult   bool
	err         *Error
	attemptID   string
	startedAt   time.Time
	completedAt time.Time
	task        *Task
}

// New creates an idle job named after its workflow.
func New[In, Out any](name string, strategy Strategy[In, Out], opts ...Option) *Job[In, Out] {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Job[In, Out]{
		name:     name,
		strategy: strategy,
		settings: s,
		status:   StatusIdle,
	}
}

// Name returns the workflow name.
func (j *Job[In, Out]) Name() string { return j.name }

// Status returns the current status.
func (j *Job[In, Out]) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Snapshot returns a copy of the job state.
func (j *Job[In, Out]) Snapshot() Snapshot[In, Out] {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot[In, Out]{
		Workflow:    j.name,
		Status:      j.status,
		Input:       j.input,
		Result:      j.result,
		HasResult:   j.hasResult,
		Err:         j.err,
		AttemptID:   j.attemptID,
		StartedAt:   j.startedAt,
		CompletedAt: j.completedAt,
	}
}

// Submit starts a new attempt with in. While an attempt is running it
// returns ErrAlreadyRunning and leaves the job untouched. When a
// precondition fails the job is reset to Idle, the *Error is recorded and
// returned, and nothing is dispatched. Otherwise the previous result and
// error are cleared and the strategy runs in the background.
//
// Cancelling ctx does not interrupt the attempt; use Task.Cancel.
func (j *Job[In, Out]) Submit(ctx context.Context, in In) (*Task, error) {
	j.mu.Lock()
	if j.status == StatusRunning {
		attempt := j.attemptID
		j.mu.Unlock()
		j.settings.logger.Debug("submission rejected while running",
			slog.String("workflow", j.name),
			slog.String("job_id", attempt),
		)
		return nil, ErrAlreadyRunning
	}

	if jerr := j.precheck(ctx, in); jerr != nil {
		from := j.status
		if from != StatusIdle {
			_ = j.transitionLocked(StatusIdle)
		}
		old, had := j.clearLocked()
		j.err = jerr
		ev := Event{Workflow: j.name, AttemptID: j.attemptID, From: from, To: StatusIdle, At: time.Now(), Err: jerr}
		j.mu.Unlock()

		if had {
			j.release(old)
		}
		j.emit(ev)
		return nil, jerr
	}

	old, had := j.clearLocked()
	from := j.status
	j.input = in
	j.attemptID = id.Generate()
	if err := j.transitionLocked(StatusRunning); err != nil {
		j.mu.Unlock()
		return nil, err
	}
	task := newTask(j.attemptID)
	task.cancel = func() { j.discard(task) }
	j.task = task
	ev := Event{Workflow: j.name, AttemptID: j.attemptID, From: from, To: StatusRunning, At: j.startedAt}
	j.mu.Unlock()

	if had {
		j.release(old)
	}
	j.emit(ev)

	go j.run(context.WithoutCancel(ctx), task, in)
	return task, nil
}

// Reset returns a finished job to Idle and releases its result.
func (j *Job[In, Out]) Reset() error {
	j.mu.Lock()
	if j.status == StatusRunning {
		j.mu.Unlock()
		return ErrAlreadyRunning
	}
	from := j.status
	if from != StatusIdle {
		_ = j.transitionLocked(StatusIdle)
	}
	old, had := j.clearLocked()
	ev := Event{Workflow: j.name, AttemptID: j.attemptID, From: from, To: StatusIdle, At: time.Now()}
	j.mu.Unlock()

	if had {
		j.release(old)
	}
	if from != StatusIdle {
		j.emit(ev)
	}
	return nil
}

func (j *Job[In, Out]) precheck(ctx context.Context, in In) *Error {
	for _, check := range j.settings.checks {
		if err := check(ctx, in); err != nil {
			return Classify(err)
		}
	}
	return nil
}

func (j *Job[In, Out]) run(ctx context.Context, task *Task, in In) {
	out, err := j.dispatch(ctx, in)

	j.mu.Lock()
	if task.Discarded() || j.task != task {
		j.mu.Unlock()
		j.settings.logger.Debug("discarding result of cancelled attempt",
			slog.String("workflow", j.name),
			slog.String("job_id", task.ID()),
		)
		if err == nil {
			j.release(out)
		}
		task.finish(ErrDiscarded)
		return
	}

	j.task = nil
	var outcome error
	var jerr *Error
	if err != nil {
		jerr = Classify(err)
		j.err = jerr
		outcome = jerr
		_ = j.transitionLocked(StatusFailed)
	} else {
		j.result = out
		j.hasResult = true
		_ = j.transitionLocked(StatusSucceeded)
	}
	ev := Event{Workflow: j.name, AttemptID: task.ID(), From: StatusRunning, To: j.status, At: j.completedAt, Err: jerr}
	j.mu.Unlock()

	j.emit(ev)
	task.finish(outcome)
}

// dispatch runs the strategy, turning a panic into an error so the job
// never stays Running.
func (j *Job[In, Out]) dispatch(ctx context.Context, in In) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			j.settings.logger.Error("strategy panicked",
				slog.String("workflow", j.name),
				slog.Any("panic", r),
			)
			err = fmt.Errorf("job: internal error: %v", r)
		}
	}()
	return j.strategy.Dispatch(ctx, in)
}

// discard detaches task from the job. Its eventual result is dropped.
func (j *Job[In, Out]) discard(task *Task) {
	j.mu.Lock()
	if j.task != task || j.status != StatusRunning {
		j.mu.Unlock()
		return
	}
	task.markDiscarded()
	j.task = nil
	_ = j.transitionLocked(StatusIdle)
	ev := Event{Workflow: j.name, AttemptID: task.ID(), From: StatusRunning, To: StatusIdle, At: time.Now()}
	j.mu.Unlock()

	j.emit(ev)
	task.finish(ErrDiscarded)
}

// transitionLocked changes status and stamps the attempt timestamps.
// The caller holds j.mu.
func (j *Job[In, Out]) transitionLocked(to Status) error {
	if !canTransition(j.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.status, to)
	}
	now := time.Now()
	j.status = to
	switch to {
	case StatusRunning:
		j.startedAt = now
		j.completedAt = time.Time{}
	case StatusSucceeded, StatusFailed:
		j.completedAt = now
	}
	return nil
}

// clearLocked drops the result and error, returning the old result for
// release outside the lock.
func (j *Job[In, Out]) clearLocked() (Out, bool) {
	old, had := j.result, j.hasResult
	var zero Out
	j.result = zero
	j.hasResult = false
	j.err = nil
	return old, had
}

func (j *Job[In, Out]) release(v Out) {
	r, ok := any(v).(Releaser)
	if !ok {
		return
	}
	if err := r.Release(); err != nil {
		j.settings.logger.Warn("failed to release result",
			slog.String("workflow", j.name),
			slog.String("error", err.Error()),
		)
	}
}

func (j *Job[In, Out]) emit(ev Event) {
	attrs := []any{
		slog.String("workflow", ev.Workflow),
		slog.String("job_id", ev.AttemptID),
		slog.String("from", string(ev.From)),
		slog.String("to", string(ev.To)),
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.String("kind", string(ev.Err.Kind)), slog.String("error", ev.Err.Message))
	}
	j.settings.logger.Info("job transition", attrs...)

	for _, o := range j.settings.observers {
		o(ev)
	}
}

// Task is the handle of one attempt.
type Task struct {
	id        string
	done      chan struct{}
	once      sync.Once
	err       error
	discarded bool
	mu        sync.Mutex
	cancel    func()
}

func newTask(attemptID string) *Task {
	return &Task{id: attemptID, done: make(chan struct{})}
}

// ID returns the attempt ID.
func (t *Task) ID() string { return t.id }

// Done is closed when the attempt has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the outcome once Done is closed: nil on success, the job
// *Error on failure, or ErrDiscarded after Cancel.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the attempt finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel detaches the attempt from its job, which returns to Idle
// immediately, and releases waiters with ErrDiscarded. The remote call is
// not interrupted; its result is discarded when it arrives.
func (t *Task) Cancel() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Discarded reports whether Cancel took effect.
func (t *Task) Discarded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discarded
}

func (t *Task) markDiscarded() {
	t.mu.Lock()
	t.discarded = true
	t.mu.Unlock()
}

func (t *Task) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}
