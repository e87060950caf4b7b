package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var _ FAQs = (*CachedFAQs)(nil)

// CachedFAQs keeps recent FAQ lookups in an expiring LRU. FAQ rows are
// read-only at runtime, so entries are dropped by size, age or a reseed.
type CachedFAQs struct {
	next  FAQs
	cache *expirable.LRU[string, []FAQ]
}

func NewCachedFAQs(next FAQs, size int, ttl time.Duration) *CachedFAQs {
	if size <= 0 {
		size = 128
	}
	return &CachedFAQs{
		next:  next,
		cache: expirable.NewLRU[string, []FAQ](size, nil, ttl),
	}
}

func (c *CachedFAQs) Search(ctx context.Context, query, category string) ([]FAQ, error) {
	return c.load("search\x00"+query+"\x00"+category, func() ([]FAQ, error) {
		return c.next.Search(ctx, query, category)
	})
}

func (c *CachedFAQs) ListAll(ctx context.Context) ([]FAQ, error) {
	return c.load("all", func() ([]FAQ, error) {
		return c.next.ListAll(ctx)
	})
}

func (c *CachedFAQs) ListByCategory(ctx context.Context, category string) ([]FAQ, error) {
	return c.load("category\x00"+category, func() ([]FAQ, error) {
		return c.next.ListByCategory(ctx, category)
	})
}

// Purge drops every cached entry.
func (c *CachedFAQs) Purge() {
	c.cache.Purge()
}

func (c *CachedFAQs) load(key string, fetch func() ([]FAQ, error)) ([]FAQ, error) {
	if v, ok := c.cache.Get(key); ok {
		return cloneFAQs(v), nil
	}
	v, err := fetch()
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneFAQs(v))
	return v, nil
}

func cloneFAQs(in []FAQ) []FAQ {
	out := make([]FAQ, len(in))
	copy(out, in)
	return out
}

type cachedStore struct {
	Store
	faqs *CachedFAQs
}

func (s cachedStore) FAQs() FAQs { return s.faqs }

// WithFAQCache returns s with its FAQ lookups served through a CachedFAQs.
func WithFAQCache(s Store, size int, ttl time.Duration) Store {
	return cachedStore{Store: s, faqs: NewCachedFAQs(s.FAQs(), size, ttl)}
}

// PurgeAfterSeed wraps seed so that, when s was built by WithFAQCache, its
// cached FAQs are dropped once seeding succeeds.
func PurgeAfterSeed(s Store, seed func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := seed(ctx); err != nil {
			return err
		}
		if c, ok := s.(cachedStore); ok {
			c.faqs.Purge()
		}
		return nil
	}
}
