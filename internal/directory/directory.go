// Package directory resolves which email addresses should be alerted for
// a topic, cached in front of the employee/supervisor tables.
package directory

import (
	"context"
	"sync"
	"time"

	"github.com/wardenmq/warden-core/internal/cache"
)

const (
	// RecipientCacheTTL is how long a topic's recipient list stays cached.
	RecipientCacheTTL = 3600 * time.Second
	// RecipientCacheSweep is how often expired cache entries are evicted.
	RecipientCacheSweep = 600 * time.Second
)

// Logger is the minimal logging interface Directory needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Repository is the external directory store's contract: employees and
// supervisors, each keyed by the topics they should be alerted for.
type Repository interface {
	EmployeesByTopic(ctx context.Context, topic string) ([]string, error)
	SupervisorsByTopic(ctx context.Context, topic string) ([]string, error)
}

// Directory is a TTL-cached read-through over Repository.
//
// Thread Safety: all methods are safe for concurrent use.
type Directory struct {
	repo   Repository
	cache  *cache.TTLCache[string, []string]
	logger Logger
}

// New creates a Directory backed by repo, with a background sweep of
// expired cache entries.
func New(repo Repository) *Directory {
	d := &Directory{
		repo:   repo,
		cache:  cache.New[string, []string](RecipientCacheTTL, RecipientCacheSweep),
		logger: noopLogger{},
	}
	d.cache.Start()
	return d
}

// SetLogger sets the logger used for lookup failures.
func (d *Directory) SetLogger(logger Logger) {
	d.logger = logger
}

// Close stops the background cache sweep.
func (d *Directory) Close() {
	d.cache.Stop()
}

// Recipients returns the deduplicated list of email addresses that should
// be alerted for topic, in first-seen order (employees before
// supervisors). A repository failure is logged and yields an empty list
// rather than propagating an error — recipient lookup must never block an
// alert from at least attempting to fire.
func (d *Directory) Recipients(ctx context.Context, topic string) []string {
	if cached, ok := d.cache.Get(topic); ok {
		return cached
	}

	employees, supervisors := d.queryBoth(ctx, topic)
	merged := dedupePreserveOrder(employees, supervisors)

	if len(merged) > 0 {
		d.cache.Set(topic, merged)
	}
	return merged
}

func (d *Directory) queryBoth(ctx context.Context, topic string) (employees, supervisors []string) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		emails, err := d.repo.EmployeesByTopic(ctx, topic)
		if err != nil {
			d.logger.Warn("employee lookup failed", "topic", topic, "error", err)
			return
		}
		employees = emails
	}()

	go func() {
		defer wg.Done()
		emails, err := d.repo.SupervisorsByTopic(ctx, topic)
		if err != nil {
			d.logger.Warn("supervisor lookup failed", "topic", topic, "error", err)
			return
		}
		supervisors = emails
	}()

	wg.Wait()
	return employees, supervisors
}

func dedupePreserveOrder(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, email := range list {
			if _, ok := seen[email]; ok {
				continue
			}
			seen[email] = struct{}{}
			out = append(out, email)
		}
	}
	return out
}
