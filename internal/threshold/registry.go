// Package threshold implements the threshold ladder: cached config
// storage and the per-topic, per-level evaluator that decides when a
// sample crosses a level and an alert should fire.
package threshold

import (
	"context"
	"sync"
	"time"

	"github.com/wardenmq/warden-core/internal/cache"
)

const (
	// CacheTTL is how long a topic's threshold config stays cached.
	CacheTTL = 1800 * time.Second
	// CacheSweep is how often expired cache entries are evicted.
	CacheSweep = 300 * time.Second
	// FullFlushInterval is how often the entire cache is dropped, so
	// out-of-band edits to the store eventually become visible even
	// without going through UpdateThresholds.
	FullFlushInterval = 120 * time.Second
)

// Logger is the minimal logging interface Registry needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Repository is the external threshold-config store's contract.
type Repository interface {
	LoadThresholds(ctx context.Context, topic string) (Config, error)
	UpsertThresholds(ctx context.Context, topic string, newLevels Config) error
}

// Registry is a TTL-cached read-through over Repository, with a
// process-wide periodic full flush alongside per-write invalidation.
//
// Thread Safety: all methods are safe for concurrent use.
type Registry struct {
	repo   Repository
	cache  *cache.TTLCache[string, Config]
	logger Logger

	flushDone chan struct{}
	flushWG   sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewRegistry creates a Registry backed by repo, with background sweep
// and full-flush loops.
func NewRegistry(repo Repository) *Registry {
	r := &Registry{
		repo:      repo,
		cache:     cache.New[string, Config](CacheTTL, CacheSweep),
		logger:    noopLogger{},
		flushDone: make(chan struct{}),
	}
	return r
}

// SetLogger sets the logger used for load/update failures.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Start begins the background sweep and full-flush loops.
func (r *Registry) Start() {
	r.startOnce.Do(func() {
		r.cache.Start()
		r.flushWG.Add(1)
		go r.flushLoop()
	})
}

// Stop halts the background loops.
func (r *Registry) Stop() {
	r.cache.Stop()
	r.stopOnce.Do(func() {
		close(r.flushDone)
	})
	r.flushWG.Wait()
}

func (r *Registry) flushLoop() {
	defer r.flushWG.Done()
	ticker := time.NewTicker(FullFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.cache.Flush()
		case <-r.flushDone:
			return
		}
	}
}

// Thresholds returns topic's configured levels. A load failure is
// logged and treated as "no thresholds" for this call.
func (r *Registry) Thresholds(ctx context.Context, topic string) Config {
	if cached, ok := r.cache.Get(topic); ok {
		return cached
	}

	levels, err := r.repo.LoadThresholds(ctx, topic)
	if err != nil {
		r.logger.Warn("threshold load failed", "topic", topic, "error", err)
		return nil
	}

	r.cache.Set(topic, levels)
	return levels
}

// UpdateThresholds writes newLevels through to the store and invalidates
// the cached entry for topic. Failures are logged and not retried.
func (r *Registry) UpdateThresholds(ctx context.Context, topic string, newLevels Config) {
	if err := r.repo.UpsertThresholds(ctx, topic, newLevels); err != nil {
		r.logger.Warn("threshold update failed", "topic", topic, "error", err)
		return
	}
	r.cache.Delete(topic)
}
