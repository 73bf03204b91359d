package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"karaoke/internal/pricing"
)

// Room belongs to exactly one branch; its category drives pricing and is
// not reassigned by the booking core.
type Room struct {
	ID          int64            `json:"id"`
	BranchID    int64            `json:"branch_id"`
	Name        string           `json:"name"`
	Number      int              `json:"number"`
	Category    pricing.Category `json:"category"`
	CapacityMax int              `json:"capacity_max"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type RoomsStore struct {
	db *pgxpool.Pool
}

func (s *RoomsStore) Create(ctx context.Context, room *Room) error {
	query := `
		INSERT INTO rooms (branch_id, name, number, category, capacity_max, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query,
		room.BranchID,
		room.Name,
		room.Number,
		room.Category,
		room.CapacityMax,
		room.IsActive,
	).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
}

func (s *RoomsStore) GetByID(ctx context.Context, id int64) (*Room, error) {
	query := `
		SELECT id, branch_id, name, number, category, capacity_max, is_active, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var room Room
	err := s.db.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.BranchID,
		&room.Name,
		&room.Number,
		&room.Category,
		&room.CapacityMax,
		&room.IsActive,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// ListActive returns the branch's active rooms ordered by room number.
func (s *RoomsStore) ListActive(ctx context.Context, branchID int64) ([]Room, error) {
	query := `
		SELECT id, branch_id, name, number, category, capacity_max, is_active, created_at, updated_at
		FROM rooms
		WHERE branch_id = $1 AND is_active = true
		ORDER BY number
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(
			&room.ID,
			&room.BranchID,
			&room.Name,
			&room.Number,
			&room.Category,
			&room.CapacityMax,
			&room.IsActive,
			&room.CreatedAt,
			&room.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (s *RoomsStore) Update(ctx context.Context, room *Room) error {
	query := `
		UPDATE rooms
		SET name = $1, number = $2, category = $3, capacity_max = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		room.Name,
		room.Number,
		room.Category,
		room.CapacityMax,
		room.IsActive,
		room.ID,
	).Scan(&room.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
