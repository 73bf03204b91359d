package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"karaoke/internal/slotgrid"
)

// SlotConfig is the stored slot-grid pattern, either deployment-wide
// (nil BranchID) or a per-branch override.
type SlotConfig struct {
	ID        int64           `json:"id"`
	BranchID  *int64          `json:"branch_id,omitempty"`
	Config    slotgrid.Config `json:"config"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type SlotConfigsStore struct {
	db *pgxpool.Pool
}

// defaultSlotConfig matches the historical 3h-slot, 1h-gap pattern.
var defaultSlotConfig = slotgrid.Config{StartHour: 9, SlotDuration: 3, GapHours: 1}

// Get returns the branch's slot config, falling back to the deployment
// default row, then to the built-in default.
func (s *SlotConfigsStore) Get(ctx context.Context, branchID *int64) (*SlotConfig, error) {
	query := `
		SELECT id, branch_id, start_hour, slot_duration, gap_hours, created_at, updated_at
		FROM slot_configs
		WHERE branch_id IS NOT DISTINCT FROM $1
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var cfg SlotConfig
	err := s.db.QueryRow(ctx, query, branchID).Scan(
		&cfg.ID,
		&cfg.BranchID,
		&cfg.Config.StartHour,
		&cfg.Config.SlotDuration,
		&cfg.Config.GapHours,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err == nil {
		return &cfg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if branchID != nil {
		// No per-branch override; fall back to the deployment-wide row.
		return s.Get(ctx, nil)
	}
	return &SlotConfig{Config: defaultSlotConfig}, nil
}

// Put upserts the config for its scope.
func (s *SlotConfigsStore) Put(ctx context.Context, cfg *SlotConfig) error {
	query := `
		INSERT INTO slot_configs (branch_id, start_hour, slot_duration, gap_hours)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (branch_id) DO UPDATE
		SET start_hour = EXCLUDED.start_hour,
		    slot_duration = EXCLUDED.slot_duration,
		    gap_hours = EXCLUDED.gap_hours,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query,
		cfg.BranchID,
		cfg.Config.StartHour,
		cfg.Config.SlotDuration,
		cfg.Config.GapHours,
	).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
}
