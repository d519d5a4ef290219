// README: Reservation manager tests (flow + concurrency, in-memory stores).
package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"ecoscoot/internal/events"
	"ecoscoot/internal/modules/scooter"
	"ecoscoot/internal/types"
)

type memRepo struct {
	mu sync.Mutex
	m  map[types.ID]*Reservation
}

func newMemRepo() *memRepo {
	return &memRepo{m: make(map[types.ID]*Reservation)}
}

func (r *memRepo) Create(_ context.Context, res *Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *res
	r.m[res.ID] = &cp
	return nil
}

func (r *memRepo) Get(_ context.Context, id types.ID) (*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id types.ID, from, to Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.m[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	return true, nil
}

func (r *memRepo) ActiveByUser(_ context.Context, userID types.ID) (*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.m {
		if res.UserID == userID && res.Status == StatusActive {
			cp := *res
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) ListByUser(_ context.Context, userID types.ID, limit int) ([]Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Reservation
	for _, res := range r.m {
		if res.UserID == userID {
			out = append(out, *res)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) ListExpired(_ context.Context, now time.Time) ([]Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Reservation
	for _, res := range r.m {
		if res.Status == StatusActive && res.ExpiresAt.Before(now) {
			out = append(out, *res)
		}
	}
	return out, nil
}

type memDirectory struct {
	mu        sync.Mutex
	m         map[types.ID]*scooter.Scooter
	statusErr error
}

func newMemDirectory(ids ...types.ID) *memDirectory {
	d := &memDirectory{m: make(map[types.ID]*scooter.Scooter)}
	for _, id := range ids {
		d.m[id] = &scooter.Scooter{ID: id, Status: scooter.StatusAvailable, Battery: 90}
	}
	return d
}

func (d *memDirectory) Get(_ context.Context, id types.ID) (*scooter.Scooter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sc, ok := d.m[id]
	if !ok {
		return nil, scooter.ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

func (d *memDirectory) SetStatus(_ context.Context, id types.ID, status scooter.Status) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.statusErr != nil {
		return d.statusErr
	}
	sc, ok := d.m[id]
	if !ok {
		return scooter.ErrNotFound
	}
	sc.Status = status
	return nil
}

func (d *memDirectory) status(id types.ID) scooter.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m[id].Status
}

type memLocks struct {
	mu      sync.Mutex
	m       map[string]string
	enabled bool
}

func newMemLocks(enabled bool) *memLocks {
	return &memLocks{m: make(map[string]string), enabled: enabled}
}

func (l *memLocks) Enabled() bool { return l.enabled }

func (l *memLocks) SetIfAbsent(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	if !l.enabled {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.m[key]; ok {
		return false, nil
	}
	l.m[key] = value
	return true, nil
}

func (l *memLocks) Get(_ context.Context, key string) (string, error) {
	if !l.enabled {
		return "", nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.m[key], nil
}

func (l *memLocks) Set(_ context.Context, key, value string, _ time.Duration) error {
	if !l.enabled {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[key] = value
	return nil
}

func (l *memLocks) Delete(_ context.Context, keys ...string) error {
	if !l.enabled {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		delete(l.m, k)
	}
	return nil
}

func (l *memLocks) Exists(_ context.Context, key string) (bool, error) {
	if !l.enabled {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.m[key]
	return ok, nil
}

func newTestService(repo *memRepo, dir *memDirectory, locks *memLocks) *Service {
	return NewService(repo, dir, locks, events.Nop{}, zap.NewNop(), 5*time.Minute)
}

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	dir := newMemDirectory("sc1")
	locks := newMemLocks(true)
	svc := newTestService(repo, dir, locks)

	r, err := svc.Create(ctx, CreateCommand{UserID: "u1", ScooterID: "sc1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Status != StatusActive {
		t.Fatalf("status = %s, want active", r.Status)
	}
	if got := dir.status("sc1"); got != scooter.StatusReserved {
		t.Fatalf("scooter status = %s, want reserved", got)
	}
	if v, _ := locks.Get(ctx, "reservation:scooter:sc1"); v != "u1" {
		t.Fatalf("scooter lock = %q, want u1", v)
	}
	if v, _ := locks.Get(ctx, "reservation:user:u1"); v != string(r.ID) {
		t.Fatalf("user pointer = %q, want %s", v, r.ID)
	}
}

func TestCreateScooterUnavailable(t *testing.T) {
	ctx := context.Background()
	dir := newMemDirectory("sc1")
	dir.m["sc1"].Status = scooter.StatusMaintenance
	svc := newTestService(newMemRepo(), dir, newMemLocks(true))

	if _, err := svc.Create(ctx, CreateCommand{UserID: "u1", ScooterID: "sc1"}); !errors.Is(err, ErrScooterUnavailable) {
		t.Fatalf("err = %v, want ErrScooterUnavailable", err)
	}
}

func TestCreateSecondReservationRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), newMemDirectory("sc1", "sc2"), newMemLocks(true))

	if _, err := svc.Create(ctx, CreateCommand{UserID: "u1", ScooterID: "sc1"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{UserID: "u1", ScooterID: "sc2"}); !errors.Is(err, ErrAlreadyReserved) {
		t.Fatalf("err = %v, want ErrAlreadyReserved", err)
	}
}

func TestConcurrentCreateSameScooter(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	dir := newMemDirectory("sc1")
	svc := newTestService(repo, dir, newMemLocks(true))

	const attempts = 8
	errs := make(chan error, attempts)
	start := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		userID := types.ID(fmt.Sprintf("u%d", i))
		wg.Add(1)
		go func(uid types.ID) {
			defer wg.Done()
			<-start
			_, err := svc.Create(ctx, CreateCommand{UserID: uid, ScooterID: "sc1"})
			errs <- err
		}(userID)
	}

	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrScooterLocked) && !errors.Is(err, ErrScooterUnavailable) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", success)
	}
	if got := dir.status("sc1"); got != scooter.StatusReserved {
		t.Fatalf("scooter status = %s, want reserved", got)
	}
}

func TestCreateFastPathDisabled(t *testing.T) {
	ctx := context.Background()
	dir := newMemDirectory("sc1")
	svc := newTestService(newMemRepo(), dir, newMemLocks(false))

	if _, err := svc.Create(ctx, CreateCommand{UserID: "u1", ScooterID: "sc1"}); err != nil {
		t.Fatalf("create without fast path: %v", err)
	}
	// Exclusivity now rests on the durable scooter status.
	if _, err := svc.Create(ctx, CreateCommand{UserID: "u2", ScooterID: "sc1"}); !errors.Is(err, ErrScooterUnavailable) {
		t.Fatalf("err = %v, want ErrScooterUnavailable", err)
	}
}

func TestCreateRollsBackOnScooterFlipFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	dir := newMemDirectory("sc1")
	locks := newMemLocks(true)
	svc := newTestService(repo, dir, locks)

	dir.statusErr = errors.New("db down")
	if _, err := svc.Create(ctx, CreateCommand{UserID: "u1", ScooterID: "sc1"}); err == nil {
		t.Fatal("expected error when scooter flip fails")
	}

	// The reservation must not stay active and the lock must be released.
	if r, _ := repo.ActiveByUser(ctx, "u1"); r != nil {
		t.Fatalf("active reservation survived rollback: %+v", r)
	}
	if ok, _ := locks.Exists(ctx, "reservation:scooter:sc1"); ok {
		t.Fatal("scooter lock survived rollback")
	}
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	dir := newMemDirectory("sc1")
	locks := newMemLocks(true)
	svc := newTestService(repo, dir, locks)

	r, err := svc.Create(ctx, CreateCommand{UserID: "u1", ScooterID: "sc1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Cancel(ctx, CancelCommand{ReservationID: r.ID, UserID: "u2"}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign cancel err = %v, want ErrNotOwner", err)
	}
	if err := svc.Cancel(ctx, CancelCommand{ReservationID: r.ID, UserID: "u1"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := dir.status("sc1"); got != scooter.StatusAvailable {
		t.Fatalf("scooter status = %s, want available", got)
	}
	if ok, _ := locks.Exists(ctx, "reservation:scooter:sc1"); ok {
		t.Fatal("scooter lock survived cancel")
	}
	if err := svc.Cancel(ctx, CancelCommand{ReservationID: r.ID, UserID: "u1"}); !errors.Is(err, ErrNotActive) {
		t.Fatalf("second cancel err = %v, want ErrNotActive", err)
	}
}

func TestExpireOld(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	dir := newMemDirectory("sc1", "sc2", "sc3")
	locks := newMemLocks(true)
	svc := newTestService(repo, dir, locks)

	stale := func(id, user, sc types.ID) {
		repo.m[id] = &Reservation{
			ID: id, UserID: user, ScooterID: sc, Status: StatusActive,
			CreatedAt: time.Now().Add(-10 * time.Minute),
			ExpiresAt: time.Now().Add(-5 * time.Minute),
		}
		dir.m[sc].Status = scooter.StatusReserved
	}
	stale("r1", "u1", "sc1")
	stale("r2", "u2", "sc2")
	repo.m["r3"] = &Reservation{
		ID: "r3", UserID: "u3", ScooterID: "sc3", Status: StatusActive,
		CreatedAt: time.Now(), ExpiresAt: time.Now().Add(4 * time.Minute),
	}

	n, err := svc.ExpireOld(ctx)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 2 {
		t.Fatalf("expired = %d, want 2", n)
	}
	for _, id := range []types.ID{"r1", "r2"} {
		r, _ := repo.Get(ctx, id)
		if r.Status != StatusExpired {
			t.Fatalf("%s status = %s, want expired", id, r.Status)
		}
	}
	if r, _ := repo.Get(ctx, "r3"); r.Status != StatusActive {
		t.Fatalf("fresh reservation status = %s, want active", r.Status)
	}
	if got := dir.status("sc1"); got != scooter.StatusAvailable {
		t.Fatalf("sc1 status = %s, want available", got)
	}
}

func TestActiveByUserStalePointer(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	locks := newMemLocks(true)
	svc := newTestService(repo, newMemDirectory("sc1"), locks)

	// A pointer naming a cancelled reservation must not resurface it.
	repo.m["r1"] = &Reservation{ID: "r1", UserID: "u1", ScooterID: "sc1", Status: StatusCancelled}
	_ = locks.Set(ctx, "reservation:user:u1", "r1", 0)

	r, err := svc.ActiveByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("active by user: %v", err)
	}
	if r != nil {
		t.Fatalf("expected nil, got %+v", r)
	}
}
