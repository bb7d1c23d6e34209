package job

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned when an attempt record cannot be found by ID.
var ErrRecordNotFound = errors.New("job: record not found")

// Record is the history entry of one attempt.
type Record struct {
	// ID is the attempt ID.
	ID       string
	Workflow string
	Status   Status
	// Discarded is set when the attempt was cancelled before it finished.
	Discarded   bool
	ErrorKind   Kind
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Repository stores attempt records.
type Repository interface {
	// Save inserts or replaces a record.
	Save(ctx context.Context, rec Record) error

	// FindByID returns ErrRecordNotFound if the record does not exist.
	FindByID(ctx context.Context, id string) (Record, error)

	// List returns all records, oldest attempt first.
	List(ctx context.Context) ([]Record, error)
}

// Recorder returns an observer that keeps repo in sync with a job's
// attempts. Refused submissions never started an attempt and are not
// recorded.
func Recorder(repo Repository) Observer {
	return func(ev Event) {
		ctx := context.Background()
		switch {
		case ev.To == StatusRunning:
			_ = repo.Save(ctx, Record{
				ID:        ev.AttemptID,
				Workflow:  ev.Workflow,
				Status:    StatusRunning,
				StartedAt: ev.At,
			})
		case ev.From == StatusRunning:
			rec, err := repo.FindByID(ctx, ev.AttemptID)
			if err != nil {
				return
			}
			rec.Status = ev.To
			rec.Discarded = ev.To == StatusIdle
			rec.CompletedAt = ev.At
			if ev.Err != nil {
				rec.ErrorKind = ev.Err.Kind
				rec.Error = ev.Err.Message
			}
			_ = repo.Save(ctx, rec)
		}
	}
}
