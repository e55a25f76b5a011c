package store

import (
	"context"
	"sync"
	"time"

	"portfolio-ai/internal/domain"
)

// Backend is the read side that Cached wraps.
type Backend interface {
	domain.ResumeStore
	domain.ChatbotStore
}

type cacheEntry[T any] struct {
	value   *T
	fetched time.Time
}

// Cached revalidates the chatbot configuration and the default resume once
// they are older than the cache duration. Lookups by slug and failed reads
// are never cached.
type Cached struct {
	inner Backend
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	chatbot *cacheEntry[domain.ChatbotConfig]
	resume  *cacheEntry[domain.Resume]
}

// NewCached wraps inner with a TTL cache. A non-positive ttl disables caching.
func NewCached(inner Backend, ttl time.Duration) *Cached {
	return &Cached{inner: inner, ttl: ttl, now: time.Now}
}

// Chatbot implements domain.ChatbotStore.
func (c *Cached) Chatbot(ctx context.Context) (*domain.ChatbotConfig, error) {
	if v, ok := lookup(c, &c.chatbot); ok {
		return v, nil
	}
	v, err := c.inner.Chatbot(ctx)
	if err != nil {
		return nil, err
	}
	put(c, &c.chatbot, v)
	return v, nil
}

// DefaultResume implements domain.ResumeStore.
func (c *Cached) DefaultResume(ctx context.Context) (*domain.Resume, error) {
	if v, ok := lookup(c, &c.resume); ok {
		return v, nil
	}
	v, err := c.inner.DefaultResume(ctx)
	if err != nil {
		return nil, err
	}
	put(c, &c.resume, v)
	return v, nil
}

// ResumeBySlug implements domain.ResumeStore. It always reads through.
func (c *Cached) ResumeBySlug(ctx context.Context, slug string) (*domain.Resume, error) {
	return c.inner.ResumeBySlug(ctx, slug)
}

// Invalidate drops every cached entry.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.chatbot = nil
	c.resume = nil
	c.mu.Unlock()
}

func lookup[T any](c *Cached, slot **cacheEntry[T]) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := *slot
	if e == nil || c.ttl <= 0 || c.now().Sub(e.fetched) >= c.ttl {
		return nil, false
	}
	return clone(e.value), true
}

func put[T any](c *Cached, slot **cacheEntry[T], v *T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*slot = &cacheEntry[T]{value: clone(v), fetched: c.now()}
}

// clone copies v so callers cannot mutate the cached value. Types holding
// slices or maps provide a deep Clone.
func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	if c, ok := any(v).(interface{ Clone() *T }); ok {
		return c.Clone()
	}
	cp := *v
	return &cp
}

var _ Backend = (*Cached)(nil)
