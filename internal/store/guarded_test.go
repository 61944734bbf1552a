package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/internal/store"
	"github.com/rpgo/lifedash/internal/store/memory"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowStore struct {
	*memory.Documents
	delay time.Duration
}

func (s slowStore) Get(ctx context.Context, p store.Path) (store.Document, error) {
	select {
	case <-time.After(s.delay):
		return s.Documents.Get(ctx, p)
	case <-ctx.Done():
		return store.Document{}, ctx.Err()
	}
}

func TestGuardedPassesThrough(t *testing.T) {
	docs := memory.NewDocuments()
	g := store.NewGuarded(docs, store.DefaultGuardConfig("remote"), nil)
	ctx := context.Background()
	p := store.Path{User: "u1", Collection: "settings", ID: "x"}

	require.NoError(t, g.Set(ctx, p, domain.Record{"a": 1}, store.SetOptions{}))
	doc, err := g.Get(ctx, p)
	require.NoError(t, err)
	assert.True(t, doc.Exists)
	assert.EqualValues(t, 1, doc.Data["a"])

	list, err := g.List(ctx, "u1", "settings", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, g.Delete(ctx, p))
	doc, err = g.Get(ctx, p)
	require.NoError(t, err)
	assert.False(t, doc.Exists)
}

func TestGuardedTimeout(t *testing.T) {
	cfg := store.DefaultGuardConfig("remote")
	cfg.Timeout = 10 * time.Millisecond
	g := store.NewGuarded(slowStore{Documents: memory.NewDocuments(), delay: time.Second}, cfg, nil)

	_, err := g.Get(context.Background(), store.Path{User: "u1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuardedTripsOpen(t *testing.T) {
	docs := memory.NewDocuments()
	docs.FailWith("get", errors.New("boom"))
	cfg := store.DefaultGuardConfig("remote")
	cfg.MinRequests = 2
	cfg.FailureThreshold = 0.5
	g := store.NewGuarded(docs, cfg, nil)

	for i := 0; i < 2; i++ {
		_, err := g.Get(context.Background(), store.Path{User: "u1"})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	_, err := g.Get(context.Background(), store.Path{User: "u1"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, docs.Calls("get"))
}
