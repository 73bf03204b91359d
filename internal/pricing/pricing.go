// Package pricing resolves per-hour room rates from the price-rule table
// and computes booking quotes.
package pricing

import (
	"context"
	"math"
	"time"

	"karaoke/internal/metrics"
)

// Category is a room tier and the rate-table key, cheapest first.
type Category string

const (
	CategoryBratski Category = "bratski"
	CategoryVibe    Category = "vibe"
	CategoryFlex    Category = "flex"
	CategoryFullGas Category = "full_gas"
)

// Valid reports whether c is one of the four known tiers.
func (c Category) Valid() bool {
	switch c {
	case CategoryBratski, CategoryVibe, CategoryFlex, CategoryFullGas:
		return true
	}
	return false
}

// DayType is one of the six pricing buckets derived from weekday and
// time of day.
type DayType string

const (
	WeekdayDay     DayType = "weekday_day"
	WeekdayEvening DayType = "weekday_evening"
	FridayDay      DayType = "friday_day"
	FridayEvening  DayType = "friday_evening"
	Saturday       DayType = "saturday"
	Sunday         DayType = "sunday"
)

// Valid reports whether d is one of the six buckets.
func (d DayType) Valid() bool {
	switch d {
	case WeekdayDay, WeekdayEvening, FridayDay, FridayEvening, Saturday, Sunday:
		return true
	}
	return false
}

// eveningHour is the local hour at which weekday and Friday rates switch
// to the evening bucket.
const eveningHour = 17

// Classify maps an instant to its pricing bucket. Bookings are bucketed
// by their start hour only; a booking crossing 17:00 keeps its start rate.
func Classify(t time.Time) DayType {
	switch t.Weekday() {
	case time.Sunday:
		return Sunday
	case time.Saturday:
		return Saturday
	case time.Friday:
		if t.Hour() < eveningHour {
			return FridayDay
		}
		return FridayEvening
	default:
		if t.Hour() < eveningHour {
			return WeekdayDay
		}
		return WeekdayEvening
	}
}

// Rule is one row of the price-rule table. For each (category, day type)
// pair there is exactly one base rule; seasonal rules apply only inside
// their validity window and scale their own price by the coefficient.
type Rule struct {
	ID                int64      `json:"id"`
	Category          Category   `json:"category"`
	DayType           DayType    `json:"day_type"`
	PricePerHour      int        `json:"price_per_hour"`
	ValidFrom         *time.Time `json:"valid_from,omitempty"`
	ValidTo           *time.Time `json:"valid_to,omitempty"`
	IsSeasonal        bool       `json:"is_seasonal"`
	SeasonCoefficient float64    `json:"season_coefficient"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// activeAt reports whether a seasonal rule's validity window contains t.
func (r Rule) activeAt(t time.Time) bool {
	if !r.IsSeasonal || r.ValidFrom == nil || r.ValidTo == nil {
		return false
	}
	return !t.Before(*r.ValidFrom) && !t.After(*r.ValidTo)
}

// RuleSource loads the rules for one (category, day type) pair.
type RuleSource interface {
	Rules(ctx context.Context, category Category, dayType DayType) ([]Rule, error)
}

// Quote is the priced breakdown of a booking time range.
type Quote struct {
	PricePerHour int     `json:"price_per_hour"`
	Hours        float64 `json:"hours"`
	BasePrice    int     `json:"base_price"`
}

// Engine resolves prices against a RuleSource, optionally fronted by a
// cache. A nil cache is skipped.
type Engine struct {
	src   RuleSource
	cache *Cache
}

func NewEngine(src RuleSource, cache *Cache) *Engine {
	return &Engine{src: src, cache: cache}
}

func (e *Engine) rules(ctx context.Context, category Category, dayType DayType) ([]Rule, error) {
	if e.cache != nil {
		if rules, ok := e.cache.Get(ctx, category, dayType); ok {
			return rules, nil
		}
		metrics.IncPriceCacheMiss()
	}
	rules, err := e.src.Rules(ctx, category, dayType)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(ctx, category, dayType, rules)
	}
	return rules, nil
}

// Price resolves the per-hour rate for a category and bucket at the given
// instant. An active seasonal rule wins over the base rule; when several
// seasonal rules cover the same instant the first row wins. With no rules
// configured the price is zero.
func (e *Engine) Price(ctx context.Context, category Category, dayType DayType, at time.Time) (int, error) {
	rules, err := e.rules(ctx, category, dayType)
	if err != nil {
		return 0, err
	}
	if len(rules) == 0 {
		return 0, nil
	}

	for _, r := range rules {
		if r.activeAt(at) {
			coeff := r.SeasonCoefficient
			if coeff == 0 {
				coeff = 1
			}
			return int(math.Round(float64(r.PricePerHour) * coeff)), nil
		}
	}

	for _, r := range rules {
		if !r.IsSeasonal {
			return r.PricePerHour, nil
		}
	}
	return rules[0].PricePerHour, nil
}

// QuoteBooking prices a time range. The rate is taken from the booking's
// start instant only; there is no proration across bucket boundaries.
func (e *Engine) QuoteBooking(ctx context.Context, category Category, start, end time.Time) (Quote, error) {
	hours := end.Sub(start).Hours()
	pricePerHour, err := e.Price(ctx, category, Classify(start), start)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		PricePerHour: pricePerHour,
		Hours:        hours,
		BasePrice:    int(math.Round(float64(pricePerHour) * hours)),
	}, nil
}
