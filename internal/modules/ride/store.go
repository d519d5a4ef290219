// README: Ride store backed by PostgreSQL; billing updates are conditional writes.
package ride

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecoscoot/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO rides (
            id, user_id, scooter_id, reservation_id, status,
            started_at, activation_fee, last_billed_minute, total_charged
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(r.ID), string(r.UserID), string(r.ScooterID), string(r.ReservationID),
		string(r.Status), r.StartedAt, r.ActivationFee.Amount, r.LastBilledMinute, r.TotalCharged.Amount,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, user_id, scooter_id, reservation_id, status, started_at, ended_at,
               duration_minutes, activation_fee, last_billed_minute, total_charged, last_charged_at
        FROM rides
        WHERE id = $1`, string(id),
	)
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// Complete ends the ride only while it is still active; the row count tells a
// racing terminator that it lost.
func (s *Store) Complete(ctx context.Context, id types.ID, endedAt time.Time, durationMinutes, lastBilledMinute int, totalCharged int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE rides
        SET status = 'completed',
            ended_at = $2,
            duration_minutes = $3,
            last_billed_minute = $4,
            total_charged = $5
        WHERE id = $1 AND status = 'active'`,
		string(id), endedAt, durationMinutes, lastBilledMinute, totalCharged,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyCharge advances the billing watermark. The condition on both status
// and the previous watermark makes the per-minute charge idempotent against
// a concurrent user-triggered end or a duplicate sweep.
func (s *Store) ApplyCharge(ctx context.Context, id types.ID, fromMinute, toMinute int, amount int64, chargedAt time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE rides
        SET last_billed_minute = $2,
            total_charged = total_charged + $3,
            last_charged_at = $4
        WHERE id = $1 AND status = 'active' AND last_billed_minute = $5`,
		string(id), toMinute, amount, chargedAt, fromMinute,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ActiveByUser(ctx context.Context, userID types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, user_id, scooter_id, reservation_id, status, started_at, ended_at,
               duration_minutes, activation_fee, last_billed_minute, total_charged, last_charged_at
        FROM rides
        WHERE user_id = $1 AND status = 'active'
        LIMIT 1`, string(userID),
	)
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *Store) ListActive(ctx context.Context) ([]Ride, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, user_id, scooter_id, reservation_id, status, started_at, ended_at,
               duration_minutes, activation_fee, last_billed_minute, total_charged, last_charged_at
        FROM rides
        WHERE status = 'active'`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) ListByUser(ctx context.Context, userID types.ID, limit int) ([]Ride, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, user_id, scooter_id, reservation_id, status, started_at, ended_at,
               duration_minutes, activation_fee, last_billed_minute, total_charged, last_charged_at
        FROM rides
        WHERE user_id = $1
        ORDER BY started_at DESC
        LIMIT $2`, string(userID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*Ride, error) {
	var r Ride
	var endedAt, lastChargedAt sql.NullTime
	var duration sql.NullInt64
	var fee, charged int64
	if err := row.Scan(
		&r.ID, &r.UserID, &r.ScooterID, &r.ReservationID, &r.Status, &r.StartedAt, &endedAt,
		&duration, &fee, &r.LastBilledMinute, &charged, &lastChargedAt,
	); err != nil {
		return nil, err
	}
	r.ActivationFee = types.PLN(fee)
	r.TotalCharged = types.PLN(charged)
	if endedAt.Valid {
		t := endedAt.Time
		r.EndedAt = &t
	}
	if lastChargedAt.Valid {
		t := lastChargedAt.Time
		r.LastChargedAt = &t
	}
	if duration.Valid {
		r.DurationMinutes = int(duration.Int64)
	}
	return &r, nil
}
