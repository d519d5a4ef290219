// README: Pricing provider; read-through cache, durable fallback, last-known-good.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"ecoscoot/internal/cache"
)

// Provider is the read side consumed by the ride manager and the scheduler.
// Current must never block billing on tariff unavailability beyond one
// best-effort pass over cache and store.
type Provider interface {
	Current(ctx context.Context) (Pricing, error)
}

type Repository interface {
	Get(ctx context.Context) (Pricing, error)
	Put(ctx context.Context, p Pricing) error
}

type Service struct {
	store Repository
	cache cache.LockStore
	log   *zap.Logger

	mu        sync.RWMutex
	lastKnown Pricing
	hasLast   bool
}

func NewService(store Repository, c cache.LockStore, log *zap.Logger) *Service {
	return &Service{store: store, cache: c, log: log}
}

// Current resolves the tariff cache-first, then durable store, then the
// in-process last-known-good copy. A complete miss seeds and returns defaults
// so a billing tick is never stalled by configuration plumbing.
func (s *Service) Current(ctx context.Context) (Pricing, error) {
	if raw, _ := s.cache.Get(ctx, cache.PricingKey); raw != "" {
		var p Pricing
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			s.remember(p)
			return p, nil
		}
		s.log.Warn("discarding malformed cached pricing", zap.String("key", cache.PricingKey))
	}

	p, err := s.store.Get(ctx)
	switch {
	case err == nil:
		s.writeCache(ctx, p)
		s.remember(p)
		return p, nil
	case errors.Is(err, ErrNotConfigured):
		p = Default()
		if perr := s.store.Put(ctx, p); perr != nil {
			s.log.Warn("seeding default pricing failed", zap.Error(perr))
		}
		s.writeCache(ctx, p)
		s.remember(p)
		return p, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hasLast {
		s.log.Warn("pricing store unavailable, using last-known-good", zap.Error(err))
		return s.lastKnown, nil
	}
	return Pricing{}, err
}

// Set replaces the tariff (admin operation) and bumps updatedAt.
func (s *Service) Set(ctx context.Context, p Pricing) (Pricing, error) {
	if p.ActivationFee.Amount < 0 || p.PerMinuteRate.Amount < 0 {
		return Pricing{}, errors.New("pricing values must be non-negative")
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, p); err != nil {
		return Pricing{}, err
	}
	s.writeCache(ctx, p)
	s.remember(p)
	return p, nil
}

func (s *Service) writeCache(ctx context.Context, p Pricing) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, cache.PricingKey, string(b), 0)
}

func (s *Service) remember(p Pricing) {
	s.mu.Lock()
	s.lastKnown = p
	s.hasLast = true
	s.mu.Unlock()
}
