package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"karaoke/internal/schedule"
)

// Branch is one karaoke venue location. The weekly working hours are
// stored as jsonb keyed by lowercase day name.
type Branch struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name"`
	Slug         string                `json:"slug"`
	WorkingHours schedule.WorkingHours `json:"working_hours"`
	IsActive     bool                  `json:"is_active"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

type BranchesStore struct {
	db *pgxpool.Pool
}

func (s *BranchesStore) Create(ctx context.Context, branch *Branch) error {
	query := `
		INSERT INTO branches (name, slug, working_hours, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	hours, err := json.Marshal(branch.WorkingHours)
	if err != nil {
		return fmt.Errorf("encode working hours: %w", err)
	}

	return s.db.QueryRow(ctx, query,
		branch.Name,
		branch.Slug,
		hours,
		branch.IsActive,
	).Scan(&branch.ID, &branch.CreatedAt, &branch.UpdatedAt)
}

func (s *BranchesStore) GetByID(ctx context.Context, id int64) (*Branch, error) {
	query := `
		SELECT id, name, slug, working_hours, is_active, created_at, updated_at
		FROM branches
		WHERE id = $1
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var branch Branch
	var hours []byte
	err := s.db.QueryRow(ctx, query, id).Scan(
		&branch.ID,
		&branch.Name,
		&branch.Slug,
		&hours,
		&branch.IsActive,
		&branch.CreatedAt,
		&branch.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(hours, &branch.WorkingHours); err != nil {
		return nil, fmt.Errorf("decode working hours for branch %d: %w", branch.ID, err)
	}
	return &branch, nil
}

func (s *BranchesStore) List(ctx context.Context) ([]Branch, error) {
	query := `
		SELECT id, name, slug, working_hours, is_active, created_at, updated_at
		FROM branches
		ORDER BY id
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Branch
	for rows.Next() {
		var branch Branch
		var hours []byte
		if err := rows.Scan(
			&branch.ID,
			&branch.Name,
			&branch.Slug,
			&hours,
			&branch.IsActive,
			&branch.CreatedAt,
			&branch.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(hours, &branch.WorkingHours); err != nil {
			return nil, fmt.Errorf("decode working hours for branch %d: %w", branch.ID, err)
		}
		out = append(out, branch)
	}
	return out, rows.Err()
}

func (s *BranchesStore) Update(ctx context.Context, branch *Branch) error {
	query := `
		UPDATE branches
		SET name = $1, slug = $2, working_hours = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	hours, err := json.Marshal(branch.WorkingHours)
	if err != nil {
		return fmt.Errorf("encode working hours: %w", err)
	}

	err = s.db.QueryRow(ctx, query,
		branch.Name,
		branch.Slug,
		hours,
		branch.IsActive,
		branch.ID,
	).Scan(&branch.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
