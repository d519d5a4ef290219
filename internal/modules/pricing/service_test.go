// README: Pricing provider tests (cache fallthrough, seeding, last-known-good).
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"ecoscoot/internal/cache"
	"ecoscoot/internal/types"
)

type memPricingRepo struct {
	mu     sync.Mutex
	p      Pricing
	has    bool
	getErr error
	putErr error
}

func (r *memPricingRepo) Get(context.Context) (Pricing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return Pricing{}, r.getErr
	}
	if !r.has {
		return Pricing{}, ErrNotConfigured
	}
	return r.p, nil
}

func (r *memPricingRepo) Put(_ context.Context, p Pricing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.p = p
	r.has = true
	return nil
}

type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemCache() *memCache {
	return &memCache{m: make(map[string]string)}
}

func (c *memCache) Enabled() bool { return true }

func (c *memCache) SetIfAbsent(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; ok {
		return false, nil
	}
	c.m[key] = value
	return true, nil
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key], nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.m, k)
	}
	return nil
}

func (c *memCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[key]
	return ok, nil
}

func TestCurrentSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	repo := &memPricingRepo{}
	c := newMemCache()
	svc := NewService(repo, c, zap.NewNop())

	p, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if p.ActivationFee.Amount != 200 || p.PerMinuteRate.Amount != 50 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if !repo.has {
		t.Fatal("defaults were not persisted")
	}
	if raw, _ := c.Get(ctx, cache.PricingKey); raw == "" {
		t.Fatal("defaults were not cached")
	}
}

func TestCurrentPrefersCache(t *testing.T) {
	ctx := context.Background()
	repo := &memPricingRepo{getErr: errors.New("store must not be hit")}
	c := newMemCache()
	svc := NewService(repo, c, zap.NewNop())

	cached := Pricing{
		ActivationFee: types.PLN(300),
		PerMinuteRate: types.PLN(75),
	}
	b, _ := json.Marshal(cached)
	_ = c.Set(ctx, cache.PricingKey, string(b), 0)

	p, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if p.ActivationFee.Amount != 300 || p.PerMinuteRate.Amount != 75 {
		t.Fatalf("got %+v, want cached tariff", p)
	}
}

func TestCurrentDiscardsMalformedCache(t *testing.T) {
	ctx := context.Background()
	repo := &memPricingRepo{p: Default(), has: true}
	c := newMemCache()
	_ = c.Set(ctx, cache.PricingKey, "{not json", 0)
	svc := NewService(repo, c, zap.NewNop())

	p, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if p.ActivationFee.Amount != 200 {
		t.Fatalf("got %+v, want store tariff", p)
	}
}

func TestCurrentLastKnownGood(t *testing.T) {
	ctx := context.Background()
	repo := &memPricingRepo{p: Default(), has: true}
	c := newMemCache()
	svc := NewService(repo, c, zap.NewNop())

	if _, err := svc.Current(ctx); err != nil {
		t.Fatalf("warm-up read: %v", err)
	}

	// Store goes down and the cache is emptied; the in-process copy serves.
	repo.mu.Lock()
	repo.getErr = errors.New("db down")
	repo.mu.Unlock()
	_ = c.Delete(ctx, cache.PricingKey)

	p, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("current with store down: %v", err)
	}
	if p.ActivationFee.Amount != 200 {
		t.Fatalf("got %+v, want last-known-good tariff", p)
	}
}

func TestCurrentFailsWithNothingKnown(t *testing.T) {
	repo := &memPricingRepo{getErr: errors.New("db down")}
	svc := NewService(repo, newMemCache(), zap.NewNop())

	if _, err := svc.Current(context.Background()); err == nil {
		t.Fatal("expected error with no tariff available anywhere")
	}
}

func TestSetValidatesAndCaches(t *testing.T) {
	ctx := context.Background()
	repo := &memPricingRepo{}
	c := newMemCache()
	svc := NewService(repo, c, zap.NewNop())

	if _, err := svc.Set(ctx, Pricing{ActivationFee: types.PLN(-1)}); err == nil {
		t.Fatal("expected rejection of negative fee")
	}

	p, err := svc.Set(ctx, Pricing{
		ActivationFee: types.PLN(150),
		PerMinuteRate: types.PLN(40),
	})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if p.UpdatedAt.IsZero() {
		t.Fatal("updatedAt was not bumped")
	}

	got, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("current after set: %v", err)
	}
	if got.ActivationFee.Amount != 150 || got.PerMinuteRate.Amount != 40 {
		t.Fatalf("got %+v, want updated tariff", got)
	}
}
