package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu    sync.Mutex
	saved []uint64
	err   error
}

func (that *memoryRepo) Save(_ context.Context, snapshot *entity.Snapshot) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.saved = append(that.saved, snapshot.Token)
	return that.err
}

func (that *memoryRepo) tokens() []uint64 {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]uint64(nil), that.saved...)
}

func TestPublisher(t *testing.T) {
	t.Run("Saves snapshots in order", func(t *testing.T) {
		// Given: a running publisher
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		repo := &memoryRepo{}
		publisher := NewPublisher(discard, repo)
		go publisher.Run(ctx)

		// When: three snapshots are handed over
		for token := uint64(1); token <= 3; token++ {
			publisher.OnSnapshot(entity.Snapshot{SessionID: "s", Token: token})
		}

		// Then: they reach the repository in the same order
		require.Eventually(t, func() bool {
			return len(repo.tokens()) == 3
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, []uint64{1, 2, 3}, repo.tokens())
	})

	t.Run("Repository errors do not stop the loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		repo := &memoryRepo{err: errors.New("redis down")}
		publisher := NewPublisher(discard, repo)
		go publisher.Run(ctx)

		publisher.OnSnapshot(entity.Snapshot{Token: 1})
		publisher.OnSnapshot(entity.Snapshot{Token: 2})

		require.Eventually(t, func() bool {
			return len(repo.tokens()) == 2
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("OnSnapshot never blocks", func(t *testing.T) {
		// Given: a publisher nobody drains
		publisher := NewPublisher(discard, &memoryRepo{})

		// Then: overflowing the buffer returns immediately
		done := make(chan struct{})
		go func() {
			for i := 0; i < publishBuffer*2; i++ {
				publisher.OnSnapshot(entity.Snapshot{Token: uint64(i)})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("OnSnapshot blocked")
		}
	})
}
