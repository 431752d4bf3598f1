package skl

import "github.com/maschad/spray/lib/infra"

// Option configures a List at construction time. The apply method is
// unexported so Option can only be satisfied by this package's own
// With* constructors, mirroring the delegator pattern the wider example
// codebase uses for its own skip list options.
type Option[K infra.OrderedKey, V any] interface {
	apply(*config[K, V])
}

type config[K infra.OrderedKey, V any] struct {
	cmp      Comparator[K]
	maxLevel int32
}

type optionFunc[K infra.OrderedKey, V any] func(*config[K, V])

func (f optionFunc[K, V]) apply(c *config[K, V]) { f(c) }

// WithComparator overrides the default natural ordering of K.
func WithComparator[K infra.OrderedKey, V any](cmp Comparator[K]) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) { c.cmp = cmp })
}

// WithMaxLevel bounds the height any node may sample to, clamped to
// [1, MaxLevel].
func WithMaxLevel[K infra.OrderedKey, V any](level int32) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		if level < 1 {
			level = 1
		}
		if level > MaxLevel {
			level = MaxLevel
		}
		c.maxLevel = level
	})
}
