package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRules struct {
	rules []Rule
	calls int
}

func (s *staticRules) Rules(ctx context.Context, category Category, dayType DayType) ([]Rule, error) {
	s.calls++
	return s.rules, nil
}

func TestClassify(t *testing.T) {
	// Week of 2025-06-01 (Sunday).
	at := func(day, hour int) time.Time {
		return time.Date(2025, 6, day, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		t    time.Time
		want DayType
	}{
		{"sunday", at(1, 12), Sunday},
		{"saturday", at(7, 23), Saturday},
		{"friday day", at(6, 16), FridayDay},
		{"friday evening", at(6, 17), FridayEvening},
		{"thursday 16:59 is day", time.Date(2025, 6, 5, 16, 59, 0, 0, time.UTC), WeekdayDay},
		{"thursday 17:00 is evening", at(5, 17), WeekdayEvening},
		{"monday morning", at(2, 10), WeekdayDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.t))
		})
	}
}

func TestPriceSeasonalOverride(t *testing.T) {
	julyFrom := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	julyTo := time.Date(2025, 7, 31, 23, 59, 59, 0, time.UTC)

	src := &staticRules{rules: []Rule{
		{Category: CategoryVibe, DayType: WeekdayDay, PricePerHour: 1000},
		{
			Category: CategoryVibe, DayType: WeekdayDay, PricePerHour: 1500,
			IsSeasonal: true, SeasonCoefficient: 1.2,
			ValidFrom: &julyFrom, ValidTo: &julyTo,
		},
	}}
	engine := NewEngine(src, nil)

	july15 := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	price, err := engine.Price(context.Background(), CategoryVibe, WeekdayDay, july15)
	require.NoError(t, err)
	assert.Equal(t, 1800, price, "seasonal rule applies inside window")

	aug1 := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	price, err = engine.Price(context.Background(), CategoryVibe, WeekdayDay, aug1)
	require.NoError(t, err)
	assert.Equal(t, 1000, price, "base rule applies outside window")
}

func TestPriceFallbacks(t *testing.T) {
	engine := NewEngine(&staticRules{}, nil)
	price, err := engine.Price(context.Background(), CategoryFlex, Saturday, time.Now())
	require.NoError(t, err)
	assert.Zero(t, price, "no rules configured resolves to zero")

	// Only a seasonal rule, outside its window: first row is the fallback.
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	engine = NewEngine(&staticRules{rules: []Rule{
		{PricePerHour: 900, IsSeasonal: true, SeasonCoefficient: 1.5, ValidFrom: &from, ValidTo: &to},
	}}, nil)
	price, err = engine.Price(context.Background(), CategoryFlex, Saturday, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 900, price)

	// Zero coefficient reads as 1.0.
	engine = NewEngine(&staticRules{rules: []Rule{
		{PricePerHour: 900, IsSeasonal: true, ValidFrom: &from, ValidTo: &to},
	}}, nil)
	price, err = engine.Price(context.Background(), CategoryFlex, Saturday, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 900, price)
}

func TestQuoteBooking(t *testing.T) {
	src := &staticRules{rules: []Rule{
		{Category: CategoryVibe, DayType: WeekdayDay, PricePerHour: 3190},
	}}
	engine := NewEngine(src, nil)

	// Thursday 09:00-11:00, weekday_day.
	start := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	quote, err := engine.QuoteBooking(context.Background(), CategoryVibe, start, end)
	require.NoError(t, err)
	assert.Equal(t, 3190, quote.PricePerHour)
	assert.Equal(t, 2.0, quote.Hours)
	assert.Equal(t, 6380, quote.BasePrice)

	// Idempotent for identical inputs and an unchanged rule set.
	again, err := engine.QuoteBooking(context.Background(), CategoryVibe, start, end)
	require.NoError(t, err)
	assert.Equal(t, quote, again)

	// Fractional hours round the total.
	quote, err = engine.QuoteBooking(context.Background(), CategoryVibe, start, start.Add(2*time.Hour+30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2.5, quote.Hours)
	assert.Equal(t, 7975, quote.BasePrice)
}

func TestQuoteUsesStartBucket(t *testing.T) {
	// Evening rate exists but the booking starts in the day bucket; the
	// start-hour rate covers the whole range.
	src := &staticRules{}
	engine := NewEngine(src, nil)

	start := time.Date(2025, 6, 5, 16, 0, 0, 0, time.UTC) // Thursday 16:00
	src.rules = []Rule{{Category: CategoryVibe, DayType: WeekdayDay, PricePerHour: 2000}}

	quote, err := engine.QuoteBooking(context.Background(), CategoryVibe, start, start.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 6000, quote.BasePrice)
}
