package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"karaoke/internal/pricing"
)

// PriceRulesStore implements pricing.RuleSource over the price_rules
// table. The table holds exactly one base rule per (category, day_type)
// and any number of seasonal rules with validity windows.
type PriceRulesStore struct {
	db *pgxpool.Pool
}

const ruleColumns = `
	id, category, day_type, price_per_hour, valid_from, valid_to,
	is_seasonal, season_coefficient, created_at, updated_at`

func scanRule(row pgx.Row, r *pricing.Rule) error {
	return row.Scan(
		&r.ID,
		&r.Category,
		&r.DayType,
		&r.PricePerHour,
		&r.ValidFrom,
		&r.ValidTo,
		&r.IsSeasonal,
		&r.SeasonCoefficient,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
}

// Rules returns a pair's rules with the base rule first, so the pricing
// engine's seasonal tie-break ("first row wins") is deterministic.
func (s *PriceRulesStore) Rules(ctx context.Context, category pricing.Category, dayType pricing.DayType) ([]pricing.Rule, error) {
	query := `
		SELECT` + ruleColumns + `
		FROM price_rules
		WHERE category = $1 AND day_type = $2
		ORDER BY is_seasonal, id
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, category, dayType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.Rule
	for rows.Next() {
		var r pricing.Rule
		if err := scanRule(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PriceRulesStore) List(ctx context.Context) ([]pricing.Rule, error) {
	query := `SELECT` + ruleColumns + ` FROM price_rules ORDER BY category, day_type, is_seasonal, id`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.Rule
	for rows.Next() {
		var r pricing.Rule
		if err := scanRule(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PriceRulesStore) Create(ctx context.Context, r *pricing.Rule) error {
	query := `
		INSERT INTO price_rules (category, day_type, price_per_hour, valid_from, valid_to, is_seasonal, season_coefficient)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query,
		r.Category,
		r.DayType,
		r.PricePerHour,
		r.ValidFrom,
		r.ValidTo,
		r.IsSeasonal,
		r.SeasonCoefficient,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
}

func (s *PriceRulesStore) Update(ctx context.Context, r *pricing.Rule) error {
	query := `
		UPDATE price_rules
		SET price_per_hour = $1, valid_from = $2, valid_to = $3,
		    is_seasonal = $4, season_coefficient = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING category, day_type, updated_at
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		r.PricePerHour,
		r.ValidFrom,
		r.ValidTo,
		r.IsSeasonal,
		r.SeasonCoefficient,
		r.ID,
	).Scan(&r.Category, &r.DayType, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
