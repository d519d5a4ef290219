// README: Reservation manager; lock acquisition, cancellation and the expiry sweep.
package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ecoscoot/internal/cache"
	"ecoscoot/internal/events"
	"ecoscoot/internal/modules/scooter"
	"ecoscoot/internal/observability"
	"ecoscoot/internal/types"
)

var (
	ErrBadRequest         = errors.New("bad request")
	ErrNotFound           = errors.New("reservation not found")
	ErrNotOwner           = errors.New("reservation owned by another user")
	ErrNotActive          = errors.New("reservation not active")
	ErrScooterUnavailable = errors.New("scooter not available")
	ErrAlreadyReserved    = errors.New("user already has an active reservation")
	ErrScooterLocked      = errors.New("scooter already reserved")
)

type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	Get(ctx context.Context, id types.ID) (*Reservation, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error)
	ActiveByUser(ctx context.Context, userID types.ID) (*Reservation, error)
	ListByUser(ctx context.Context, userID types.ID, limit int) ([]Reservation, error)
	ListExpired(ctx context.Context, now time.Time) ([]Reservation, error)
}

type Service struct {
	store    Repository
	scooters scooter.Directory
	locks    cache.LockStore
	pub      events.Publisher
	log      *zap.Logger
	ttl      time.Duration
}

func NewService(store Repository, scooters scooter.Directory, locks cache.LockStore, pub events.Publisher, log *zap.Logger, ttl time.Duration) *Service {
	return &Service{store: store, scooters: scooters, locks: locks, pub: pub, log: log, ttl: ttl}
}

type CreateCommand struct {
	UserID    types.ID
	ScooterID types.ID
}

type CancelCommand struct {
	ReservationID types.ID
	UserID        types.ID
}

// Create places a hold on one scooter for one user. Precondition failures
// short-circuit in order: scooter existence and availability, no other
// active reservation for the user, scooter not locked. The per-scooter lock
// acquisition is a single SETNX; with the fast path disabled, exclusivity
// degrades to the scooter's own durable status field.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Reservation, error) {
	if cmd.UserID == "" || cmd.ScooterID == "" {
		return nil, ErrBadRequest
	}

	sc, err := s.scooters.Get(ctx, cmd.ScooterID)
	if err != nil {
		return nil, err
	}
	if sc.Status != scooter.StatusAvailable {
		return nil, ErrScooterUnavailable
	}

	if active, err := s.ActiveByUser(ctx, cmd.UserID); err != nil {
		return nil, err
	} else if active != nil {
		return nil, ErrAlreadyReserved
	}

	lockKey := cache.ScooterLockKey(string(cmd.ScooterID))
	if s.locks.Enabled() {
		acquired, err := s.locks.SetIfAbsent(ctx, lockKey, string(cmd.UserID), s.ttl)
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, ErrScooterLocked
		}
	}

	now := time.Now().UTC()
	r := &Reservation{
		ID:        types.ID(uuid.NewString()),
		UserID:    cmd.UserID,
		ScooterID: cmd.ScooterID,
		Status:    StatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	// The durable write precedes the scooter status flip; a crash in between
	// leaves a reservation the sweep can reconcile, never a reserved scooter
	// without a record.
	if err := s.store.Create(ctx, r); err != nil {
		_ = s.locks.Delete(ctx, lockKey)
		return nil, err
	}
	_ = s.locks.Set(ctx, cache.UserReservationKey(string(cmd.UserID)), string(r.ID), s.ttl)

	if err := s.scooters.SetStatus(ctx, cmd.ScooterID, scooter.StatusReserved); err != nil {
		s.log.Error("scooter status flip failed, rolling back reservation",
			zap.String("reservation_id", string(r.ID)), zap.Error(err))
		if ok, _ := s.store.UpdateStatus(ctx, r.ID, StatusActive, StatusCancelled); ok {
			s.releaseKeys(ctx, r)
		}
		return nil, err
	}

	observability.ReservationsCreated.Inc()
	s.publish(ctx, events.ReservationCreated, r, 0)
	return r, nil
}

// Cancel transitions an active reservation to cancelled and frees the scooter.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	if cmd.ReservationID == "" || cmd.UserID == "" {
		return ErrBadRequest
	}

	r, err := s.store.Get(ctx, cmd.ReservationID)
	if err != nil {
		return err
	}
	if r.UserID != cmd.UserID {
		return ErrNotOwner
	}
	if r.Status != StatusActive {
		return ErrNotActive
	}

	ok, err := s.store.UpdateStatus(ctx, r.ID, StatusActive, StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotActive
	}

	s.releaseKeys(ctx, r)
	if err := s.scooters.SetStatus(ctx, r.ScooterID, scooter.StatusAvailable); err != nil {
		s.log.Warn("resetting scooter after cancel failed",
			zap.String("scooter_id", string(r.ScooterID)), zap.Error(err))
	}
	s.publish(ctx, events.ReservationCancelled, r, 0)
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Reservation, error) {
	return s.store.Get(ctx, id)
}

// ActiveByUser resolves the user's active reservation through the fast-path
// pointer when possible, always verifying against the durable record. A
// pointer miss is not authoritative; the durable query decides.
func (s *Service) ActiveByUser(ctx context.Context, userID types.ID) (*Reservation, error) {
	if s.locks.Enabled() {
		if id, _ := s.locks.Get(ctx, cache.UserReservationKey(string(userID))); id != "" {
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

func (s *Service) History(ctx context.Context, userID types.ID, limit int) ([]Reservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListByUser(ctx, userID, limit)
}

// ExpireOld reconciles reservations whose TTL elapsed without user action.
// The fast-path store evicts its keys silently, so only this sweep moves the
// durable status to expired and frees the scooter.
func (s *Service) ExpireOld(ctx context.Context) (int, error) {
	stale, err := s.store.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		r := &stale[i]
		ok, err := s.store.UpdateStatus(ctx, r.ID, StatusActive, StatusExpired)
		if err != nil {
			s.log.Warn("expiring reservation failed", zap.String("reservation_id", string(r.ID)), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		s.releaseKeys(ctx, r)
		if err := s.scooters.SetStatus(ctx, r.ScooterID, scooter.StatusAvailable); err != nil {
			s.log.Warn("resetting scooter after expiry failed",
				zap.String("scooter_id", string(r.ScooterID)), zap.Error(err))
		}
		observability.ReservationsExpired.Inc()
		s.publish(ctx, events.ReservationExpired, r, 0)
		expired++
	}
	return expired, nil
}

// RunExpirySweeper expires stale reservations on a fixed interval until ctx
// is cancelled.
func (s *Service) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.ExpireOld(ctx); err != nil {
				s.log.Error("expiry sweep failed", zap.Error(err))
			} else if n > 0 {
				s.log.Info("expired stale reservations", zap.Int("count", n))
			}
		}
	}
}

func (s *Service) releaseKeys(ctx context.Context, r *Reservation) {
	_ = s.locks.Delete(ctx,
		cache.ScooterLockKey(string(r.ScooterID)),
		cache.UserReservationKey(string(r.UserID)),
	)
}

func (s *Service) publish(ctx context.Context, t events.Type, r *Reservation, amount int64) {
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
