package services

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLockWatched(t *testing.T) {
	t.Run("free lock is taken silently", func(t *testing.T) {
		var out lockedBuffer
		var mu sync.Mutex

		lockWatched(context.Background(), &mu, time.Millisecond, slog.New(slog.NewTextHandler(&out, nil)), "publish")

		assert.False(t, mu.TryLock())
		assert.Empty(t, out.String())
	})

	t.Run("stalled caller is logged", func(t *testing.T) {
		var out lockedBuffer
		var mu sync.Mutex
		mu.Lock()

		acquired := make(chan struct{})
		go func() {
			lockWatched(context.Background(), &mu, 10*time.Millisecond, slog.New(slog.NewTextHandler(&out, nil)), "publish")
			close(acquired)
		}()

		assert.Eventually(t, func() bool {
			return strings.Contains(out.String(), "publish is waiting on a running dispatch")
		}, time.Second, 5*time.Millisecond)

		mu.Unlock()
		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("lock was never acquired")
		}
	})
}
