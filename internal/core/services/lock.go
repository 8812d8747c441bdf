package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// stallWarnAfter is how long a publish or command may wait for the running
// dispatch or turn before a possible deadlock is logged.
const stallWarnAfter = 5 * time.Second

// lockWatched acquires mu. A caller still waiting after the given duration is
// logged once: the usual cause is a handler calling back with a context other
// than the one it was given, which waits on itself forever.
func lockWatched(ctx context.Context, mu *sync.Mutex, after time.Duration, logger *slog.Logger, what string) {
	if mu.TryLock() {
		return
	}
	timer := time.AfterFunc(after, func() {
		logger.WarnContext(ctx, what+" is waiting on a running dispatch; handlers must pass on the context they receive",
			"waited", after,
		)
	})
	mu.Lock()
	timer.Stop()
}
