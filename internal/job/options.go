package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

// Check is a precondition evaluated before a submission is dispatched. A
// non-nil error refuses the submission; errors that are not *Error are
// classified.
type Check func(ctx context.Context, input any) error

// Event describes one state change of a job.
type Event struct {
	Workflow  string
	AttemptID string
	From      Status
	To        Status
	At        time.Time
	// Err is set when the job failed or a submission was refused.
	Err *Error
}

// Observer is notified synchronously after every state change.
type Observer func(Event)

type settings struct {
	logger    *slog.Logger
	checks    []Check
	observers []Observer
}

// Option configures a Job.
type Option func(*settings)

// WithLogger sets the job logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCheck appends a precondition. Checks run in the order they are added.
func WithCheck(check Check) Option {
	return func(s *settings) {
		s.checks = append(s.checks, check)
	}
}

// WithValidation appends a check that validates the input's struct tags
// and reports msg when they are not satisfied.
func WithValidation(v *validator.Validate, msg string) Option {
	return WithCheck(func(ctx context.Context, input any) error {
		if err := v.StructCtx(ctx, input); err != nil {
			return &Error{Kind: KindValidation, Message: msg, Err: err}
		}
		return nil
	})
}

// WithCredential appends a check that refuses every submission when no
// credential is configured.
func WithCredential(present bool) Option {
	return WithCheck(func(context.Context, any) error {
		if !present {
			return Configuration()
		}
		return nil
	})
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		s.observers = append(s.observers, o)
	}
}
