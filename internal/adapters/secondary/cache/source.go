package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	datasetKey        = "dataset"
	defaultSetTimeout = 5 * time.Second
)

// CachedSource is a read-through cache in front of a DatasetSource. Concurrent
// misses share one load of the underlying source.
type CachedSource struct {
	source ports.DatasetSource
	cache  Cacher
	key    string
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

var _ ports.DatasetSource = (*CachedSource)(nil)

// NewCachedSource wraps source. Entries are stored under "<prefix>:dataset".
func NewCachedSource(source ports.DatasetSource, cache Cacher, prefix string, ttl time.Duration, logger *slog.Logger) *CachedSource {
	key := datasetKey
	if prefix != "" {
		key = prefix + ":" + datasetKey
	}
	return &CachedSource{
		source: source,
		cache:  cache,
		key:    key,
		ttl:    ttl,
		logger: logger.With("component", "dataset_cache"),
	}
}

// Load serves the cached dataset, falling back to the source on a miss.
// Cache errors are treated as misses.
func (s *CachedSource) Load(ctx context.Context) (domain.Dataset, error) {
	var cached domain.Dataset
	err := s.cache.Get(ctx, s.key, &cached)
	switch {
	case err == nil:
		s.logger.DebugContext(ctx, "cache hit", "key", s.key)
		return cached, nil
	case errors.Is(err, redis.Nil):
		s.logger.DebugContext(ctx, "cache miss", "key", s.key)
	default:
		s.logger.WarnContext(ctx, "cache get error (treating as miss)", "key", s.key, "error", err)
	}

	return s.fetch(ctx)
}

// Fresh returns a DatasetSource that always reads the underlying source and
// writes the result through to the cache. Refreshes use it.
func (s *CachedSource) Fresh() ports.DatasetSource {
	return freshSource{s}
}

// Invalidate drops the cached dataset.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.cache.Del(ctx, s.key)
}

func (s *CachedSource) fetch(ctx context.Context) (domain.Dataset, error) {
	v, err, shared := s.group.Do(s.key, func() (any, error) {
		dataset, err := s.source.Load(ctx)
		if err != nil {
			return nil, err
		}
		s.store(ctx, dataset)
		return dataset, nil
	})
	if err != nil {
		return domain.Dataset{}, err
	}

	dataset, ok := v.(domain.Dataset)
	if !ok {
		return domain.Dataset{}, fmt.Errorf("type mismatch for key %q", s.key)
	}
	if shared {
		s.logger.DebugContext(ctx, "singleflight shared result", "key", s.key)
	}
	return dataset, nil
}

func (s *CachedSource) store(ctx context.Context, dataset domain.Dataset) {
	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultSetTimeout)
	defer cancel()

	if err := s.cache.Set(setCtx, s.key, dataset, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to set cache", "key", s.key, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "cache populated", "key", s.key, "ttl", s.ttl)
}

type freshSource struct {
	s *CachedSource
}

func (f freshSource) Load(ctx context.Context) (domain.Dataset, error) {
	return f.s.fetch(ctx)
}
