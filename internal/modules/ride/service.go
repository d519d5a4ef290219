// README: Ride manager; reservation hand-off, metered termination.
package ride

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ecoscoot/internal/cache"
	"ecoscoot/internal/events"
	"ecoscoot/internal/modules/pricing"
	"ecoscoot/internal/modules/reservation"
	"ecoscoot/internal/modules/scooter"
	"ecoscoot/internal/modules/wallet"
	"ecoscoot/internal/observability"
	"ecoscoot/internal/types"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("ride not found")
	ErrNotOwner   = errors.New("ride owned by another user")
	ErrNotActive  = errors.New("ride not active")
)

type Repository interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	Complete(ctx context.Context, id types.ID, endedAt time.Time, durationMinutes, lastBilledMinute int, totalCharged int64) (bool, error)
	ApplyCharge(ctx context.Context, id types.ID, fromMinute, toMinute int, amount int64, chargedAt time.Time) (bool, error)
	ActiveByUser(ctx context.Context, userID types.ID) (*Ride, error)
	ListActive(ctx context.Context) ([]Ride, error)
	ListByUser(ctx context.Context, userID types.ID, limit int) ([]Ride, error)
}

// ReservationHandoff is the slice of the reservation store the hand-off
// needs; the conditional update carries the atomicity.
type ReservationHandoff interface {
	Get(ctx context.Context, id types.ID) (*reservation.Reservation, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to reservation.Status) (bool, error)
}

type Service struct {
	store        Repository
	reservations ReservationHandoff
	scooters     scooter.Directory
	wallet       wallet.Ledger
	pricing      pricing.Provider
	locks        cache.LockStore
	pub          events.Publisher
	log          *zap.Logger
}

func NewService(
	store Repository,
	reservations ReservationHandoff,
	scooters scooter.Directory,
	ledger wallet.Ledger,
	tariff pricing.Provider,
	locks cache.LockStore,
	pub events.Publisher,
	log *zap.Logger,
) *Service {
	return &Service{
		store:        store,
		reservations: reservations,
		scooters:     scooters,
		wallet:       ledger,
		pricing:      tariff,
		locks:        locks,
		pub:          pub,
		log:          log,
	}
}

type StartCommand struct {
	ReservationID types.ID
	UserID        types.ID
}

type EndCommand struct {
	RideID types.ID
	UserID types.ID
	// System marks a scheduler-triggered termination; it skips the owner
	// check and is counted separately.
	System bool
}

// Start converts an active reservation into a ride. The activation fee is
// deducted first; an insufficient balance aborts the whole hand-off and the
// reservation stays active. The reservation CAS is the single decision
// point: a caller losing it gets its fee back.
func (s *Service) Start(ctx context.Context, cmd StartCommand) (*Ride, error) {
	if cmd.ReservationID == "" || cmd.UserID == "" {
		return nil, ErrBadRequest
	}

	res, err := s.reservations.Get(ctx, cmd.ReservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != cmd.UserID {
		return nil, reservation.ErrNotOwner
	}
	if res.Status != reservation.StatusActive {
		return nil, reservation.ErrNotActive
	}

	tariff, err := s.pricing.Current(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.wallet.Deduct(ctx, cmd.UserID, tariff.ActivationFee); err != nil {
		return nil, err
	}

	ok, err := s.reservations.UpdateStatus(ctx, res.ID, reservation.StatusActive, reservation.StatusCompleted)
	if err != nil || !ok {
		s.refund(ctx, cmd.UserID, tariff.ActivationFee)
		if err != nil {
			return nil, err
		}
		return nil, reservation.ErrNotActive
	}

	now := time.Now().UTC()
	r := &Ride{
		ID:               types.ID(uuid.NewString()),
		UserID:           cmd.UserID,
		ScooterID:        res.ScooterID,
		ReservationID:    res.ID,
		Status:           StatusActive,
		StartedAt:        now,
		ActivationFee:    tariff.ActivationFee,
		LastBilledMinute: 0,
		TotalCharged:     tariff.ActivationFee,
	}
	if err := s.store.Create(ctx, r); err != nil {
		// Roll the hand-off back; a completed reservation must not exist
		// without its ride.
		if ok, _ := s.reservations.UpdateStatus(ctx, res.ID, reservation.StatusCompleted, reservation.StatusActive); !ok {
			s.log.Error("ride create failed and reservation rollback lost",
				zap.String("reservation_id", string(res.ID)))
		}
		s.refund(ctx, cmd.UserID, tariff.ActivationFee)
		return nil, err
	}

	_ = s.locks.Delete(ctx,
		cache.ScooterLockKey(string(res.ScooterID)),
		cache.UserReservationKey(string(cmd.UserID)),
	)
	_ = s.locks.Set(ctx, cache.UserRideKey(string(cmd.UserID)), string(r.ID), 0)
	_ = s.locks.Set(ctx, cache.ScooterRideKey(string(res.ScooterID)), string(r.ID), 0)

	if err := s.scooters.SetStatus(ctx, res.ScooterID, scooter.StatusInUse); err != nil {
		s.log.Warn("marking scooter in_use failed",
			zap.String("scooter_id", string(res.ScooterID)), zap.Error(err))
	}

	observability.RidesStarted.Inc()
	s.publish(ctx, events.RideStarted, r, tariff.ActivationFee.Amount)
	return r, nil
}

// End terminates a ride and settles the outstanding minutes. Termination is
// unconditional once triggered: when the balance does not cover the final
// charge, whatever remains is taken and the ride still completes.
func (s *Service) End(ctx context.Context, cmd EndCommand) (*Ride, types.Money, error) {
	if cmd.RideID == "" {
		return nil, types.Money{}, ErrBadRequest
	}

	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, types.Money{}, err
	}
	if !cmd.System && r.UserID != cmd.UserID {
		return nil, types.Money{}, ErrNotOwner
	}
	if r.Status != StatusActive {
		return nil, types.Money{}, ErrNotActive
	}

	now := time.Now().UTC()
	elapsed := r.ElapsedMinutes(now)
	total := r.TotalCharged

	var settled types.Money
	if delta := elapsed - r.LastBilledMinute; delta > 0 {
		settled = s.settle(ctx, r.UserID, delta)
		total = total.Add(settled)
	}

	ok, err := s.store.Complete(ctx, r.ID, now, elapsed, elapsed, total.Amount)
	if err != nil {
		return nil, types.Money{}, err
	}
	if !ok {
		// A concurrent terminator won; give the settled minutes back, its
		// completion already accounts for them.
		if settled.Amount > 0 {
			s.refund(ctx, r.UserID, settled)
		}
		return nil, types.Money{}, ErrNotActive
	}

	_ = s.locks.Delete(ctx,
		cache.UserRideKey(string(r.UserID)),
		cache.ScooterRideKey(string(r.ScooterID)),
	)
	if err := s.scooters.SetStatus(ctx, r.ScooterID, scooter.StatusAvailable); err != nil {
		s.log.Warn("resetting scooter after ride end failed",
			zap.String("scooter_id", string(r.ScooterID)), zap.Error(err))
	}

	r.Status = StatusCompleted
	r.EndedAt = &now
	r.DurationMinutes = elapsed
	r.LastBilledMinute = elapsed
	r.TotalCharged = total

	actor := "user"
	if cmd.System {
		actor = "system"
	}
	observability.RidesEnded.WithLabelValues(actor).Inc()
	s.publish(ctx, events.RideEnded, r, total.Amount)
	return r, total, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.store.Get(ctx, id)
}

// ActiveByUser resolves through the fast-path ride pointer first, then the
// durable index.
func (s *Service) ActiveByUser(ctx context.Context, userID types.ID) (*Ride, error) {
	if s.locks.Enabled() {
		if id, _ := s.locks.Get(ctx, cache.UserRideKey(string(userID))); id != "" {
			r, err := s.store.Get(ctx, types.ID(id))
			if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			if r != nil && r.Status == StatusActive {
				return r, nil
			}
		}
	}
	return s.store.ActiveByUser(ctx, userID)
}

func (s *Service) History(ctx context.Context, userID types.ID, limit int) ([]Ride, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListByUser(ctx, userID, limit)
}

// settle charges for delta minutes, degrading to a partial charge when the
// balance cannot cover the full amount. Returns what was actually taken.
func (s *Service) settle(ctx context.Context, userID types.ID, deltaMinutes int) types.Money {
	tariff, err := s.pricing.Current(ctx)
	if err != nil {
		s.log.Error("pricing unavailable during settlement, skipping final charge",
			zap.String("user_id", string(userID)), zap.Error(err))
		return types.PLN(0)
	}
	amount := types.PLN(tariff.PerMinuteRate.Amount * int64(deltaMinutes))
	if amount.Amount <= 0 {
		return types.PLN(0)
	}

	if _, err := s.wallet.Deduct(ctx, userID, amount); err == nil {
		return amount
	} else if !errors.Is(err, wallet.ErrInsufficientFunds) {
		s.log.Error("wallet deduct failed during settlement",
			zap.String("user_id", string(userID)), zap.Error(err))
		return types.PLN(0)
	}

	balance, err := s.wallet.Balance(ctx, userID)
	if err != nil || balance.Amount <= 0 {
		return types.PLN(0)
	}
	if _, err := s.wallet.Deduct(ctx, userID, balance); err != nil {
		// Lost a race against another charge; the floor guard held.
		return types.PLN(0)
	}
	return balance
}

func (s *Service) refund(ctx context.Context, userID types.ID, amount types.Money) {
	if _, err := s.wallet.TopUp(ctx, userID, amount); err != nil {
		s.log.Error("refund failed",
			zap.String("user_id", string(userID)), zap.Int64("amount", amount.Amount), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, t events.Type, r *Ride, amount int64) {
	if err := s.pub.Publish(ctx, events.Event{
		Type:      t,
		UserID:    string(r.UserID),
		ScooterID: string(r.ScooterID),
		EntityID:  string(r.ID),
		Amount:    amount,
		At:        time.Now().UTC(),
	}); err != nil {
		s.log.Warn("event publish failed", zap.String("type", string(t)), zap.Error(err))
	}
}
