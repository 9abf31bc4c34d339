package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"
)

// memoryCache is an in-process Cache used to exercise the helpers without Redis.
type memoryCache struct {
	data map[string][]byte
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := m.data[key]
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.data[key] = data
	return nil
}

func (m *memoryCache) Increment(ctx context.Context, key string) (int64, error) {
	var n int64
	if data, ok := m.data[key]; ok {
		n, _ = strconv.ParseInt(string(data), 10, 64)
	}
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memoryCache) Close() error {
	return nil
}

func TestGetOrSet(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()
	calls := 0
	fn := func() (map[string]int, error) {
		calls++
		return map[string]int{"paid": 300}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrSet(Cache(c), ctx, "dashboard", time.Minute, fn)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got["paid"] != 300 {
			t.Errorf("Expected 300, got %d", got["paid"])
		}
	}
	if calls != 1 {
		t.Errorf("Expected fn to run once, ran %d times", calls)
	}
}

func TestGetOrSetNilCache(t *testing.T) {
	calls := 0
	for i := 0; i < 2; i++ {
		GetOrSet[int](nil, context.Background(), "k", time.Minute, func() (int, error) {
			calls++
			return 1, nil
		})
	}
	if calls != 2 {
		t.Errorf("Expected fn to run on every call without a cache, ran %d times", calls)
	}
}

func TestGetOrSetDoesNotCacheErrors(t *testing.T) {
	c := newMemoryCache()
	boom := errors.New("boom")
	_, err := GetOrSet(Cache(c), context.Background(), "k", time.Minute, func() (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
	if c.sets != 0 {
		t.Errorf("Expected nothing cached, got %d sets", c.sets)
	}
}

func TestGenerationInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache()
	g := NewGeneration(c, "dashboard")

	before := g.Key(ctx, "2024-03-15", 7)
	if before != "dashboard:0:2024-03-15:7" {
		t.Errorf("Unexpected key %s", before)
	}
	g.Invalidate(ctx)
	after := g.Key(ctx, "2024-03-15", 7)
	if after != "dashboard:1:2024-03-15:7" {
		t.Errorf("Expected generation 1 key, got %s", after)
	}

	nilGen := NewGeneration(nil, "dashboard")
	nilGen.Invalidate(ctx)
	if k := nilGen.Key(ctx, "x"); k != "dashboard:0:x" {
		t.Errorf("Unexpected key without cache %s", k)
	}
}
