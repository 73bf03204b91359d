package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"karaoke/internal/schedule"
	"karaoke/internal/store"
)

type CreateBranchPayload struct {
	Name         string                `json:"name" validate:"required,max=120"`
	Slug         string                `json:"slug" validate:"required,max=60,lowercase"`
	WorkingHours schedule.WorkingHours `json:"working_hours"`
	IsActive     *bool                 `json:"is_active"`
}

func validateWorkingHours(wh schedule.WorkingHours) error {
	for day := range wh {
		switch day {
		case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		default:
			return fmt.Errorf("unknown weekday %q in working_hours", day)
		}
	}
	return nil
}

func (app *application) createBranchHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateBranchPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validateWorkingHours(payload.WorkingHours); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	branch := &store.Branch{
		Name:         payload.Name,
		Slug:         payload.Slug,
		WorkingHours: payload.WorkingHours,
		IsActive:     true,
	}
	if payload.IsActive != nil {
		branch.IsActive = *payload.IsActive
	}

	if err := app.store.Branches.Create(r.Context(), branch); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, branch); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listBranchesHandler(w http.ResponseWriter, r *http.Request) {
	branches, err := app.store.Branches.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if branches == nil {
		branches = []store.Branch{}
	}

	if err := app.jsonResponse(w, http.StatusOK, branches); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getBranchHandler(w http.ResponseWriter, r *http.Request) {
	branch, ok := app.branchFromURL(w, r)
	if !ok {
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, branch); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateBranchPayload struct {
	Name         *string               `json:"name" validate:"omitempty,max=120"`
	Slug         *string               `json:"slug" validate:"omitempty,max=60,lowercase"`
	WorkingHours schedule.WorkingHours `json:"working_hours"`
	IsActive     *bool                 `json:"is_active"`
}

func (app *application) updateBranchHandler(w http.ResponseWriter, r *http.Request) {
	branch, ok := app.branchFromURL(w, r)
	if !ok {
		return
	}

	var payload UpdateBranchPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.Name != nil {
		branch.Name = *payload.Name
	}
	if payload.Slug != nil {
		branch.Slug = *payload.Slug
	}
	if payload.WorkingHours != nil {
		if err := validateWorkingHours(payload.WorkingHours); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		branch.WorkingHours = payload.WorkingHours
	}
	if payload.IsActive != nil {
		branch.IsActive = *payload.IsActive
	}

	if err := app.store.Branches.Update(r.Context(), branch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, branch); err != nil {
		app.internalServerError(w, r, err)
	}
}

// HourState is one resolved hour of a branch day.
type HourState struct {
	Hour int  `json:"hour"`
	Open bool `json:"open"`
}

// branchScheduleHandler returns the weekly working hours; with ?date= it
// additionally resolves each hour of that calendar day, including carryover
// from the previous day's overnight shift.
func (app *application) branchScheduleHandler(w http.ResponseWriter, r *http.Request) {
	branch, ok := app.branchFromURL(w, r)
	if !ok {
		return
	}

	resp := map[string]any{
		"working_hours": branch.WorkingHours,
	}

	if r.URL.Query().Get("date") != "" {
		date, err := parseDateParam(r, "date")
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}

		hours := make([]HourState, 24)
		for h := 0; h < 24; h++ {
			hours[h] = HourState{
				Hour: h,
				Open: schedule.IsHourOpen(branch.WorkingHours, date, h),
			}
		}
		resp["date"] = date.Format("2006-01-02")
		resp["hours"] = hours
		resp["day_off"] = schedule.IsDayFullyClosed(branch.WorkingHours, date, 0, 23)
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// branchFromURL loads the branch named by the URL, writing the error
// response itself when the lookup fails.
func (app *application) branchFromURL(w http.ResponseWriter, r *http.Request) (*store.Branch, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "branchID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid branch id: %w", err))
		return nil, false
	}

	branch, err := app.store.Branches.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
		} else {
			app.internalServerError(w, r, err)
		}
		return nil, false
	}
	return branch, true
}
