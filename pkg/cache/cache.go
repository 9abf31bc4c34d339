package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// GetOrSet returns the cached value for key, or calls fn and caches its result.
// A nil Cache always calls fn. Cache errors never fail the call.
func GetOrSet[T any](c Cache, ctx context.Context, key string, expiration time.Duration, fn func() (T, error)) (T, error) {
	if c == nil {
		return fn()
	}

	var result T
	if err := c.Get(ctx, key, &result); err == nil {
		return result, nil
	}

	result, err := fn()
	if err != nil {
		return result, err
	}

	if err := c.Set(ctx, key, result, expiration); err != nil {
		log.Printf("Error caching %s: %v", key, err)
	}
	return result, nil
}

// Generation tracks a counter that is bumped on every write, so keys built
// with Key go stale together without enumerating them.
type Generation struct {
	cache Cache
	name  string
}

func NewGeneration(c Cache, name string) *Generation {
	return &Generation{cache: c, name: name}
}

func (g *Generation) counterKey() string {
	return g.name + ":gen"
}

// Key prefixes parts with the namespace and its current generation.
func (g *Generation) Key(ctx context.Context, parts ...interface{}) string {
	var gen int64
	if g.cache != nil {
		if err := g.cache.Get(ctx, g.counterKey(), &gen); err != nil && !errors.Is(err, ErrMiss) {
			log.Printf("Error reading cache generation %s: %v", g.name, err)
		}
	}
	key := fmt.Sprintf("%s:%d", g.name, gen)
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// Invalidate bumps the generation.
func (g *Generation) Invalidate(ctx context.Context) {
	if g.cache == nil {
		return
	}
	if _, err := g.cache.Increment(ctx, g.counterKey()); err != nil {
		log.Printf("Error invalidating cache %s: %v", g.name, err)
	}
}
