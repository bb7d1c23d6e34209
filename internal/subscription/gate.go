// Package subscription holds the flag that unlocks the premium workflows.
// Any component may read it through a Gate; only Flag.Activate writes it.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Gate is the read-only view of the subscription flag.
type Gate interface {
	Active() bool
}

// Flag is the single writer of the subscription state.
type Flag struct {
	store  Store
	logger *slog.Logger

	mu     sync.RWMutex
	active bool
}

// Load reads the persisted flag. A store without a value yields an
// inactive flag.
func Load(ctx context.Context, store Store, logger *slog.Logger) (*Flag, error) {
	if logger == nil {
		logger = slog.Default()
	}
	active, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Flag{store: store, logger: logger, active: active}, nil
}

// Active implements Gate.
func (f *Flag) Active() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active
}

// Gate returns a view that cannot activate the flag.
func (f *Flag) Gate() Gate {
	return readOnly{f: f}
}

// Activate persists and sets the flag. The in-memory value only changes
// once the store accepted it.
func (f *Flag) Activate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active {
		return nil
	}
	if err := f.store.Save(ctx, true); err != nil {
		return fmt.Errorf("subscription: activate: %w", err)
	}
	f.active = true
	f.logger.Info("subscription activated")
	return nil
}

type readOnly struct {
	f *Flag
}

func (r readOnly) Active() bool { return r.f.Active() }

var (
	_ Gate = (*Flag)(nil)
	_ Gate = readOnly{}
)
