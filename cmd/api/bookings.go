package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"karaoke/internal/booking"
	"karaoke/internal/params"
	"karaoke/internal/pricing"
	"karaoke/internal/store"
)

type CreateBookingPayload struct {
	BranchID     int64             `json:"branch_id" validate:"required"`
	RoomID       int64             `json:"room_id" validate:"required"`
	Type         store.BookingType `json:"booking_type" validate:"required,oneof=advance walkin"`
	StartTime    time.Time         `json:"start_time" validate:"required"`
	EndTime      time.Time         `json:"end_time" validate:"required"`
	GuestCount   int               `json:"guest_count" validate:"required,min=1"`
	GuestName    string            `json:"guest_name" validate:"required,max=120"`
	GuestPhone   string            `json:"guest_phone" validate:"required,guestphone"`
	GuestEmail   *string           `json:"guest_email" validate:"omitempty,email"`
	GuestComment *string           `json:"guest_comment" validate:"omitempty,max=500"`
	Source       string            `json:"source" validate:"required,oneof=widget admin phone walkin"`
}

func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateBookingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.bookings.Create(r.Context(), booking.CreateRequest{
		BranchID:     payload.BranchID,
		RoomID:       payload.RoomID,
		Type:         payload.Type,
		StartTime:    payload.StartTime,
		EndTime:      payload.EndTime,
		GuestCount:   payload.GuestCount,
		GuestName:    payload.GuestName,
		GuestPhone:   payload.GuestPhone,
		GuestEmail:   payload.GuestEmail,
		GuestComment: payload.GuestComment,
		Source:       payload.Source,
	})
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, b); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.store.Bookings.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, b); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateBookingPayload struct {
	Status       *store.BookingStatus `json:"status" validate:"omitempty,oneof=new awaiting_payment partially_paid fully_paid walkin completed cancelled"`
	StartTime    *time.Time           `json:"start_time"`
	EndTime      *time.Time           `json:"end_time"`
	GuestCount   *int                 `json:"guest_count" validate:"omitempty,min=1"`
	GuestName    *string              `json:"guest_name" validate:"omitempty,max=120"`
	GuestPhone   *string              `json:"guest_phone" validate:"omitempty,guestphone"`
	GuestEmail   *string              `json:"guest_email" validate:"omitempty,email"`
	GuestComment *string              `json:"guest_comment" validate:"omitempty,max=500"`
}

func (app *application) updateBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateBookingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.bookings.Update(r.Context(), id, booking.UpdateRequest{
		Status:       payload.Status,
		StartTime:    payload.StartTime,
		EndTime:      payload.EndTime,
		GuestCount:   payload.GuestCount,
		GuestName:    payload.GuestName,
		GuestPhone:   payload.GuestPhone,
		GuestEmail:   payload.GuestEmail,
		GuestComment: payload.GuestComment,
	})
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, b); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listBookingsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseBookingFilter(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	pagination := params.ParsePagination(r.URL.Query())
	filter.Limit = pagination.Limit
	filter.Offset = pagination.Offset

	bookings, err := app.store.Bookings.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []store.Booking{}
	}

	total, err := app.store.Bookings.Count(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	pagination.ComputeMeta(total)

	resp := map[string]any{
		"bookings":   bookings,
		"pagination": pagination,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) bookingCalendarHandler(w http.ResponseWriter, r *http.Request) {
	branchID, err := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid branch_id: %w", err))
		return
	}

	from, err := parseTimeParam(r, "date_from")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	to, err := parseTimeParam(r, "date_to")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	entries, err := app.store.Bookings.Calendar(r.Context(), branchID, from, to)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if entries == nil {
		entries = []store.CalendarEntry{}
	}

	if err := app.jsonResponse(w, http.StatusOK, entries); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) availableSlotsHandler(w http.ResponseWriter, r *http.Request) {
	branchID, err := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid branch_id: %w", err))
		return
	}

	date, err := parseDateParam(r, "date")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	guestCount := 0
	if val := r.URL.Query().Get("guest_count"); val != "" {
		guestCount, err = strconv.Atoi(val)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("invalid guest_count: %w", err))
			return
		}
	}

	category := pricing.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		app.badRequestResponse(w, r, fmt.Errorf("unknown category %q", category))
		return
	}

	slots, err := app.bookings.AvailableSlots(r.Context(), branchID, date, guestCount, category)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if slots == nil {
		slots = []booking.AvailableSlot{}
	}

	if err := app.jsonResponse(w, http.StatusOK, slots); err != nil {
		app.internalServerError(w, r, err)
	}
}

// bookingErrorResponse maps admission-core errors onto HTTP statuses.
func (app *application) bookingErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case booking.IsValidation(err):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, booking.ErrInvalidTransition):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, store.ErrConflict):
		app.conflictResponse(w, r, err)
	case errors.Is(err, store.ErrNotFound):
		app.notFoundResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

func parseBookingFilter(r *http.Request) (store.BookingFilter, error) {
	var filter store.BookingFilter
	q := r.URL.Query()

	if val := q.Get("branch_id"); val != "" {
		id, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid branch_id: %w", err)
		}
		filter.BranchID = id
	}
	if val := q.Get("room_id"); val != "" {
		id, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid room_id: %w", err)
		}
		filter.RoomID = id
	}
	if val := q.Get("status"); val != "" {
		status := store.BookingStatus(val)
		if !status.Valid() {
			return filter, fmt.Errorf("unknown status %q", val)
		}
		filter.Status = status
	}
	if val := q.Get("date_from"); val != "" {
		t, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return filter, fmt.Errorf("invalid date_from: %w", err)
		}
		filter.DateFrom = t
	}
	if val := q.Get("date_to"); val != "" {
		t, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return filter, fmt.Errorf("invalid date_to: %w", err)
		}
		filter.DateTo = t
	}
	return filter, nil
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return time.Time{}, fmt.Errorf("missing %s", name)
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}

// parseDateParam accepts a plain calendar date (2025-07-15) or a full
// RFC3339 timestamp whose date part is used.
func parseDateParam(r *http.Request, name string) (time.Time, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return time.Time{}, fmt.Errorf("missing %s", name)
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}
