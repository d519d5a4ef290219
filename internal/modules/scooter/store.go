// README: Scooter store backed by PostgreSQL.
package scooter

import (
	"context"
	"errors"

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

func (s *Store) Get(ctx context.Context, id types.ID) (*Scooter, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, code, status, battery, lat, lng, created_at, updated_at
        FROM scooters
        WHERE id = $1`, string(id),
	)
	var sc Scooter
	err := row.Scan(&sc.ID, &sc.Code, &sc.Status, &sc.Battery, &sc.Lat, &sc.Lng, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]Scooter, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, code, status, battery, lat, lng, created_at, updated_at
        FROM scooters
        ORDER BY code
        LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Scooter
	for rows.Next() {
		var sc Scooter
		if err := rows.Scan(&sc.ID, &sc.Code, &sc.Status, &sc.Battery, &sc.Lat, &sc.Lng, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) SetStatus(ctx context.Context, id types.ID, status Status) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE scooters
        SET status = $1, updated_at = NOW()
        WHERE id = $2`,
		string(status), string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetBattery(ctx context.Context, id types.ID, battery int) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE scooters
        SET battery = $1, updated_at = NOW()
        WHERE id = $2`,
		battery, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
