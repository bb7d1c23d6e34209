package subscription

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := OpenBadger(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenBadger_RequiresDir(t *testing.T) {
	_, err := OpenBadger(BadgerOptions{})
	assert.ErrorIs(t, err, ErrDirRequired)
}

func TestBadgerStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	store := openInMemory(t)

	active, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, active, "missing key reads as inactive")

	require.NoError(t, store.Save(ctx, true))
	active, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := OpenBadger(BadgerOptions{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, true))
	require.NoError(t, store.Close())

	store, err = OpenBadger(BadgerOptions{Dir: dir})
	require.NoError(t, err)
	defer store.Close()

	active, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestFlag_Activate(t *testing.T) {
	ctx := context.Background()
	store := openInMemory(t)

	flag, err := Load(ctx, store, nil)
	require.NoError(t, err)
	gate := flag.Gate()
	assert.False(t, gate.Active())

	require.NoError(t, flag.Activate(ctx))
	assert.True(t, gate.Active())
	assert.True(t, flag.Active())

	// Idempotent.
	require.NoError(t, flag.Activate(ctx))

	reloaded, err := Load(ctx, store, nil)
	require.NoError(t, err)
	assert.True(t, reloaded.Active())
}

type failingStore struct{ saveErr error }

func (f failingStore) Load(context.Context) (bool, error) { return false, nil }
func (f failingStore) Save(context.Context, bool) error   { return f.saveErr }
func (f failingStore) Close() error                       { return nil }

func TestFlag_ActivateFailureKeepsFlagInactive(t *testing.T) {
	boom := errors.New("disk full")
	flag, err := Load(context.Background(), failingStore{saveErr: boom}, nil)
	require.NoError(t, err)

	err = flag.Activate(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, flag.Active())
}

func TestGate_IsReadOnly(t *testing.T) {
	flag, err := Load(context.Background(), openInMemory(t), nil)
	require.NoError(t, err)

	_, canActivate := flag.Gate().(interface{ Activate(context.Context) error })
	assert.False(t, canActivate)
}
