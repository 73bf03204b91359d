package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"karaoke/internal/pricing"
	"karaoke/internal/store"
)

func (app *application) listPriceRulesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := pricing.Category(q.Get("category"))
	dayType := pricing.DayType(q.Get("day_type"))

	var (
		rules []pricing.Rule
		err   error
	)
	switch {
	case category != "" && dayType != "":
		if !category.Valid() {
			app.badRequestResponse(w, r, fmt.Errorf("unknown category %q", category))
			return
		}
		if !dayType.Valid() {
			app.badRequestResponse(w, r, fmt.Errorf("unknown day_type %q", dayType))
			return
		}
		rules, err = app.store.PriceRules.Rules(r.Context(), category, dayType)
	case category != "" || dayType != "":
		app.badRequestResponse(w, r, fmt.Errorf("category and day_type must be given together"))
		return
	default:
		rules, err = app.store.PriceRules.List(r.Context())
	}
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if rules == nil {
		rules = []pricing.Rule{}
	}

	if err := app.jsonResponse(w, http.StatusOK, rules); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreatePriceRulePayload struct {
	Category          pricing.Category `json:"category" validate:"required,oneof=bratski vibe flex full_gas"`
	DayType           pricing.DayType  `json:"day_type" validate:"required,oneof=weekday_day weekday_evening friday_day friday_evening saturday sunday"`
	PricePerHour      int              `json:"price_per_hour" validate:"required,min=0"`
	ValidFrom         *time.Time       `json:"valid_from"`
	ValidTo           *time.Time       `json:"valid_to"`
	IsSeasonal        bool             `json:"is_seasonal"`
	SeasonCoefficient float64          `json:"season_coefficient" validate:"omitempty,min=0"`
}

func (app *application) createPriceRuleHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreatePriceRulePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.IsSeasonal && (payload.ValidFrom == nil || payload.ValidTo == nil) {
		app.badRequestResponse(w, r, fmt.Errorf("seasonal rules need valid_from and valid_to"))
		return
	}

	rule := &pricing.Rule{
		Category:          payload.Category,
		DayType:           payload.DayType,
		PricePerHour:      payload.PricePerHour,
		ValidFrom:         payload.ValidFrom,
		ValidTo:           payload.ValidTo,
		IsSeasonal:        payload.IsSeasonal,
		SeasonCoefficient: payload.SeasonCoefficient,
	}

	if err := app.store.PriceRules.Create(r.Context(), rule); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if app.priceCache != nil {
		app.priceCache.Invalidate(r.Context(), rule.Category, rule.DayType)
	}

	if err := app.jsonResponse(w, http.StatusCreated, rule); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UpdatePriceRulePayload replaces every mutable field of a rule; the
// category/day-type pair is fixed at creation.
type UpdatePriceRulePayload struct {
	PricePerHour      int        `json:"price_per_hour" validate:"required,min=0"`
	ValidFrom         *time.Time `json:"valid_from"`
	ValidTo           *time.Time `json:"valid_to"`
	IsSeasonal        bool       `json:"is_seasonal"`
	SeasonCoefficient float64    `json:"season_coefficient" validate:"omitempty,min=0"`
}

func (app *application) updatePriceRuleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ruleID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdatePriceRulePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.IsSeasonal && (payload.ValidFrom == nil || payload.ValidTo == nil) {
		app.badRequestResponse(w, r, fmt.Errorf("seasonal rules need valid_from and valid_to"))
		return
	}

	rule := &pricing.Rule{
		ID:                id,
		PricePerHour:      payload.PricePerHour,
		ValidFrom:         payload.ValidFrom,
		ValidTo:           payload.ValidTo,
		IsSeasonal:        payload.IsSeasonal,
		SeasonCoefficient: payload.SeasonCoefficient,
	}

	if err := app.store.PriceRules.Update(r.Context(), rule); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if app.priceCache != nil {
		app.priceCache.Invalidate(r.Context(), rule.Category, rule.DayType)
	}

	if err := app.jsonResponse(w, http.StatusOK, rule); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) priceQuoteHandler(w http.ResponseWriter, r *http.Request) {
	category := pricing.Category(r.URL.Query().Get("category"))
	if !category.Valid() {
		app.badRequestResponse(w, r, fmt.Errorf("unknown category %q", category))
		return
	}

	start, err := parseTimeParam(r, "start")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if !end.After(start) {
		app.badRequestResponse(w, r, fmt.Errorf("end must be after start"))
		return
	}

	quote, err := app.pricer.QuoteBooking(r.Context(), category, start, end)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := map[string]any{
		"category": category,
		"day_type": pricing.Classify(start),
		"quote":    quote,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
