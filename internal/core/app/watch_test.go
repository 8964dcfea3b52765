package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msindex/internal/core/ports"
)

func TestWatchService_NotifiesEverySubscriberOnStart(t *testing.T) {
	f := newFixture(t, false)
	svc := f.app.WatchService(ports.PairwiseRequest{NoHistory: true})

	var (
		mu  sync.Mutex
		got []ports.WatchUpdate
	)
	for i := 0; i < 2; i++ {
		svc.Subscribe(func(u ports.WatchUpdate) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, u)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx))
	defer svc.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	for _, u := range got {
		require.NoError(t, u.Err)
		assert.Empty(t, u.Trigger)
		assert.Len(t, u.Result.Scores, 2)
	}
}

func TestWatchService_SubscribeDuringDispatch(t *testing.T) {
	f := newFixture(t, false)
	svc := f.app.WatchService(ports.PairwiseRequest{NoHistory: true})

	calls := 0
	svc.Subscribe(func(ports.WatchUpdate) {
		calls++
		// Registering from a handler must not deadlock or join the current
		// dispatch.
		svc.Subscribe(func(ports.WatchUpdate) { calls += 10 })
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx))
	defer svc.Close()

	assert.Equal(t, 1, calls)
}
