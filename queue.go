// Package spray is a relaxed concurrent priority queue: a lock-free
// ordered skip list (lib/skl) topped with a randomized spray descent
// (lib/spray) that trades strict minimum-first ordering for contention
// that stays low as the number of concurrent callers grows.
//
// Insert and PeekMin delegate directly to the skip list; DeleteMin
// delegates to the spray layer, which in turn only ever touches the
// skip list through the small cursor surface skl exports for it.
package spray

import (
	"github.com/maschad/spray/lib/infra"
	"github.com/maschad/spray/lib/skl"
	sprayer "github.com/maschad/spray/lib/spray"
)

// SprayParams re-exports the spray layer's tunable knobs so callers
// never need to import lib/spray directly.
type SprayParams = sprayer.SprayParams

// DefaultSprayParams returns the literature-suggested defaults: base
// 32, height offset 20, 8 attempts before fallback, fallback enabled.
func DefaultSprayParams() SprayParams { return sprayer.DefaultSprayParams() }

// Queue is a relaxed priority queue over keys K with payloads V. The
// zero value is not usable; construct with New.
type Queue[K infra.OrderedKey, V any] struct {
	list  *skl.List[K, V]
	spray *sprayer.Spray[K, V]
}

// config collects Option values before New builds the queue.
type config[K infra.OrderedKey, V any] struct {
	sklOpts        []skl.Option[K, V]
	sprayParams    SprayParams
	initialThreads int32
}

// Option configures a Queue at construction time.
type Option[K infra.OrderedKey, V any] interface {
	apply(*config[K, V])
}

type optionFunc[K infra.OrderedKey, V any] func(*config[K, V])

func (f optionFunc[K, V]) apply(c *config[K, V]) { f(c) }

// WithComparator overrides the default natural ordering of K.
func WithComparator[K infra.OrderedKey, V any](cmp skl.Comparator[K]) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		c.sklOpts = append(c.sklOpts, skl.WithComparator[K, V](cmp))
	})
}

// WithMaxLevel bounds the underlying skip list's node height.
func WithMaxLevel[K infra.OrderedKey, V any](level int32) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		c.sklOpts = append(c.sklOpts, skl.WithMaxLevel[K, V](level))
	})
}

// WithParams overrides the spray layer's default SprayParams. Invalid
// values (e.g. SprayBase < 1) surface as an error from New, not a
// panic and not a silent clamp.
func WithParams[K infra.OrderedKey, V any](p SprayParams) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) { c.sprayParams = p })
}

// WithInitialThreads seeds the spray descent's contention estimate p
// before the first SetNumThreads call. Defaults to 1.
func WithInitialThreads[K infra.OrderedKey, V any](n int32) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) { c.initialThreads = n })
}

// New constructs an empty Queue, or an error if an Option supplied
// invalid SprayParams.
func New[K infra.OrderedKey, V any](opts ...Option[K, V]) (*Queue[K, V], error) {
	cfg := &config[K, V]{
		sprayParams:    DefaultSprayParams(),
		initialThreads: 1,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	list := skl.New[K, V](cfg.sklOpts...)
	spry, err := sprayer.New[K, V](list, cfg.sprayParams, cfg.initialThreads)
	if err != nil {
		return nil, err
	}
	return &Queue[K, V]{list: list, spray: spry}, nil
}

// Insert adds key/val if key is not already present, reporting whether
// it did so.
func (q *Queue[K, V]) Insert(key K, val V) bool {
	return q.list.Insert(key, val)
}

// PeekMin returns the key/value of some node currently at or near the
// front of the queue, without removing it. Advisory only: concurrent
// inserts and deletes may invalidate the result immediately.
func (q *Queue[K, V]) PeekMin() (key K, val V, ok bool) {
	return q.list.PeekFirst()
}

// DeleteMin removes and returns some key near the front of the queue
// with a statistically bounded rank under the queue's current
// contention estimate. ok is false only when the queue is empty (or,
// with fallback disabled, when spraying fails to claim anything).
// viaFallback reports whether the result came from the exact level-0
// scan rather than the spray descent.
func (q *Queue[K, V]) DeleteMin() (key K, val V, ok bool, viaFallback bool) {
	return q.spray.DeleteMin()
}

// Len is an advisory count of live keys.
func (q *Queue[K, V]) Len() int64 { return q.list.Len() }

// IsEmpty is advisory for the same reason Len is.
func (q *Queue[K, V]) IsEmpty() bool { return q.list.IsEmpty() }

// SetNumThreads updates the spray descent's contention estimate p,
// recomputing the H/D parameters that govern its jump width. Call this
// when the number of goroutines driving the queue changes materially;
// it is safe to call concurrently with any other Queue method.
func (q *Queue[K, V]) SetNumThreads(n int32) {
	q.spray.SetNumThreads(n)
}
