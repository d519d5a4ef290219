// README: Metering scheduler; bills active rides once per elapsed minute.
package ride

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"ecoscoot/internal/events"
	"ecoscoot/internal/modules/wallet"
	"ecoscoot/internal/observability"
	"ecoscoot/internal/types"
)

// Scheduler sweeps all active rides on a fixed interval and charges the
// unbilled minutes. A ride whose owner cannot pay is force-ended through the
// same End path acting as the system. One ride's failure never aborts the
// sweep.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	workers  int
	log      *zap.Logger
}

type SweepResult struct {
	Charged int
	Ended   int
}

func NewScheduler(svc *Service, interval time.Duration, workers int, log *zap.Logger) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{svc: svc, interval: interval, workers: workers, log: log}
}

// Run ticks until ctx is cancelled. The sweep executes inline in the loop,
// so ticks never overlap; a slow sweep delays the next one and the
// delta-based billing absorbs the lag.
func (m *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			result, err := m.ChargeActiveRides(ctx)
			observability.MeterTick.Observe(time.Since(start).Seconds())
			if err != nil {
				m.log.Error("metering sweep failed", zap.Error(err))
				continue
			}
			if result.Charged > 0 || result.Ended > 0 {
				m.log.Info("metering sweep",
					zap.Int("charged", result.Charged), zap.Int("ended", result.Ended))
			}
		}
	}
}

// ChargeActiveRides scans the active subset and fans the per-ride work out
// over a bounded worker pool; ordering across rides carries no meaning.
func (m *Scheduler) ChargeActiveRides(ctx context.Context) (SweepResult, error) {
	rides, err := m.svc.store.ListActive(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	if len(rides) == 0 {
		return SweepResult{}, nil
	}

	tariff, err := m.svc.pricing.Current(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	rate := tariff.PerMinuteRate.Amount

	jobs := make(chan *Ride)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var result SweepResult

	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				charged, ended, err := m.chargeOne(ctx, r, rate)
				if err != nil {
					observability.MeterErrors.Inc()
					m.log.Warn("charging ride failed",
						zap.String("ride_id", string(r.ID)), zap.Error(err))
					continue
				}
				mu.Lock()
				if charged {
					result.Charged++
				}
				if ended {
					result.Ended++
				}
				mu.Unlock()
			}
		}()
	}

	for i := range rides {
		jobs <- &rides[i]
	}
	close(jobs)
	wg.Wait()

	return result, nil
}

// chargeOne settles the unbilled minutes of a single ride. Rides that turned
// inactive between scan and action are benign no-ops.
func (m *Scheduler) chargeOne(ctx context.Context, r *Ride, rate int64) (charged, ended bool, err error) {
	now := time.Now().UTC()
	elapsed := r.ElapsedMinutes(now)
	if elapsed <= r.LastBilledMinute {
		return false, false, nil
	}

	delta := elapsed - r.LastBilledMinute
	amount := types.PLN(rate * int64(delta))
	if amount.Amount <= 0 {
		return false, false, nil
	}

	if _, err := m.svc.wallet.Deduct(ctx, r.UserID, amount); err != nil {
		if !errors.Is(err, wallet.ErrInsufficientFunds) {
			return false, false, err
		}
		return false, m.forceEnd(ctx, r), nil
	}

	ok, err := m.svc.store.ApplyCharge(ctx, r.ID, r.LastBilledMinute, elapsed, amount.Amount, now)
	if err != nil {
		return false, false, err
	}
	if !ok {
		// The user ended the ride between scan and charge; give the minute
		// back rather than billing a completed ride.
		m.svc.refund(ctx, r.UserID, amount)
		return false, false, nil
	}

	observability.MeterCharges.Inc()
	m.svc.publish(ctx, events.RideCharged, r, amount.Amount)
	return true, false, nil
}

func (m *Scheduler) forceEnd(ctx context.Context, r *Ride) bool {
	_, _, err := m.svc.End(ctx, EndCommand{RideID: r.ID, UserID: r.UserID, System: true})
	if err == nil {
		return true
	}
	if errors.Is(err, ErrNotActive) || errors.Is(err, ErrNotFound) {
		return false
	}
	m.log.Warn("forced ride end failed", zap.String("ride_id", string(r.ID)), zap.Error(err))
	return false
}
