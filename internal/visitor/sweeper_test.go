package visitor

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperRemovesExpiredGrants(t *testing.T) {
	store := NewInMemoryGrantStore()
	manager, err := NewManager(store, 10*time.Minute)
	require.NoError(t, err)

	req, err := manager.Register("Emily Davis", "Sarah Johnson")
	require.NoError(t, err)
	grant, _, err := manager.Approve(context.Background(), req.ID)
	require.NoError(t, err)

	// Backdate the grant so the first sweep removes it.
	grant.Expiry = time.Now().Add(-time.Minute)
	require.NoError(t, store.Put(context.Background(), grant))

	swept := make(chan int, 1)
	sweeper := NewSweeper(manager, 10*time.Millisecond, slog.Default(),
		WithSweepHook(func(removed int) {
			select {
			case swept <- removed:
			default:
			}
		}),
	)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	select {
	case removed := <-swept:
		assert.Equal(t, 1, removed)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep hook never fired")
	}

	_, ok := manager.GrantFor(context.Background(), grant.SubjectID)
	assert.False(t, ok)
}

func TestSweeperStopIsIdempotentAfterContextCancel(t *testing.T) {
	manager, err := NewManager(NewInMemoryGrantStore(), 10*time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sweeper := NewSweeper(manager, 10*time.Millisecond, slog.Default())
	sweeper.Start(ctx)

	cancel()
	sweeper.Stop()
}
