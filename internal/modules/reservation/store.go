// README: Reservation store backed by PostgreSQL; conditional updates carry the CAS.
package reservation

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

func (s *Store) Create(ctx context.Context, r *Reservation) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO reservations (
            id, user_id, scooter_id, status, created_at, expires_at
        ) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(r.ID), string(r.UserID), string(r.ScooterID),
		string(r.Status), r.CreatedAt, r.ExpiresAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Reservation, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, user_id, scooter_id, status, created_at, expires_at, completed_at, cancelled_at
        FROM reservations
        WHERE id = $1`, string(id),
	)
	return scanReservation(row)
}

// UpdateStatus flips from→to only when the row still holds from. The row
// count is the success signal; a concurrent writer losing this race observes
// zero rows and must treat the record as already transitioned.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE reservations
        SET status = $1,
            completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
            cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
        WHERE id = $2 AND status = $3`,
		string(to), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ActiveByUser(ctx context.Context, userID types.ID) (*Reservation, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, user_id, scooter_id, status, created_at, expires_at, completed_at, cancelled_at
        FROM reservations
        WHERE user_id = $1 AND status = 'active'
        LIMIT 1`, string(userID),
	)
	r, err := scanReservation(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return r, err
}

func (s *Store) ListByUser(ctx context.Context, userID types.ID, limit int) ([]Reservation, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, user_id, scooter_id, status, created_at, expires_at, completed_at, cancelled_at
        FROM reservations
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2`, string(userID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		r, err := scanReservationRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) ListExpired(ctx context.Context, now time.Time) ([]Reservation, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, user_id, scooter_id, status, created_at, expires_at, completed_at, cancelled_at
        FROM reservations
        WHERE status = 'active' AND expires_at < $1`, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		r, err := scanReservationRow(rows)
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

func scanReservation(row pgx.Row) (*Reservation, error) {
	r, err := scanReservationRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func scanReservationRow(row rowScanner) (*Reservation, error) {
	var r Reservation
	var completedAt, cancelledAt sql.NullTime
	if err := row.Scan(
		&r.ID, &r.UserID, &r.ScooterID, &r.Status,
		&r.CreatedAt, &r.ExpiresAt, &completedAt, &cancelledAt,
	); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		r.CancelledAt = &t
	}
	return &r, nil
}
