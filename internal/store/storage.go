package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"karaoke/internal/pricing"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("time range conflicts with an existing booking")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Branches interface {
		Create(context.Context, *Branch) error
		GetByID(context.Context, int64) (*Branch, error)
		List(context.Context) ([]Branch, error)
		Update(context.Context, *Branch) error
	}
	Rooms interface {
		Create(context.Context, *Room) error
		GetByID(context.Context, int64) (*Room, error)
		ListActive(context.Context, int64) ([]Room, error)
		Update(context.Context, *Room) error
	}
	Bookings interface {
		GetByID(context.Context, int64) (*Booking, error)
		List(context.Context, BookingFilter) ([]Booking, error)
		Count(context.Context, BookingFilter) (int, error)
		Calendar(context.Context, int64, time.Time, time.Time) ([]CalendarEntry, error)
		ListForDay(context.Context, int64, time.Time, time.Time) ([]Booking, error)
		ListForRoomRange(context.Context, int64, time.Time, time.Time) ([]Booking, error)
		CreateChecked(context.Context, *Booking, time.Time, time.Time) error
		UpdateChecked(context.Context, *Booking, *time.Time, *time.Time) error
	}
	PriceRules interface {
		Rules(context.Context, pricing.Category, pricing.DayType) ([]pricing.Rule, error)
		List(context.Context) ([]pricing.Rule, error)
		Create(context.Context, *pricing.Rule) error
		Update(context.Context, *pricing.Rule) error
	}
	SlotConfigs interface {
		Get(context.Context, *int64) (*SlotConfig, error)
		Put(context.Context, *SlotConfig) error
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Branches:    &BranchesStore{db},
		Rooms:       &RoomsStore{db},
		Bookings:    &BookingsStore{db},
		PriceRules:  &PriceRulesStore{db},
		SlotConfigs: &SlotConfigsStore{db},
	}
}
