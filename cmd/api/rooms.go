package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"karaoke/internal/pricing"
	"karaoke/internal/store"
)

type CreateRoomPayload struct {
	BranchID    int64            `json:"branch_id" validate:"required"`
	Name        string           `json:"name" validate:"required,max=120"`
	Number      int              `json:"number" validate:"required,min=1"`
	Category    pricing.Category `json:"category" validate:"required,oneof=bratski vibe flex full_gas"`
	CapacityMax int              `json:"capacity_max" validate:"required,min=1"`
	IsActive    *bool            `json:"is_active"`
}

func (app *application) createRoomHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateRoomPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	room := &store.Room{
		BranchID:    payload.BranchID,
		Name:        payload.Name,
		Number:      payload.Number,
		Category:    payload.Category,
		CapacityMax: payload.CapacityMax,
		IsActive:    true,
	}
	if payload.IsActive != nil {
		room.IsActive = *payload.IsActive
	}

	if err := app.store.Rooms.Create(r.Context(), room); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, room); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listRoomsHandler(w http.ResponseWriter, r *http.Request) {
	branchID, err := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid branch_id: %w", err))
		return
	}

	rooms, err := app.store.Rooms.ListActive(r.Context(), branchID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []store.Room{}
	}

	if err := app.jsonResponse(w, http.StatusOK, rooms); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roomID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	room, err := app.store.Rooms.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, room); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateRoomPayload struct {
	Name        *string           `json:"name" validate:"omitempty,max=120"`
	Number      *int              `json:"number" validate:"omitempty,min=1"`
	Category    *pricing.Category `json:"category" validate:"omitempty,oneof=bratski vibe flex full_gas"`
	CapacityMax *int              `json:"capacity_max" validate:"omitempty,min=1"`
	IsActive    *bool             `json:"is_active"`
}

func (app *application) updateRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roomID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	room, err := app.store.Rooms.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	var payload UpdateRoomPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.Name != nil {
		room.Name = *payload.Name
	}
	if payload.Number != nil {
		room.Number = *payload.Number
	}
	if payload.Category != nil {
		room.Category = *payload.Category
	}
	if payload.CapacityMax != nil {
		room.CapacityMax = *payload.CapacityMax
	}
	if payload.IsActive != nil {
		room.IsActive = *payload.IsActive
	}

	if err := app.store.Rooms.Update(r.Context(), room); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, room); err != nil {
		app.internalServerError(w, r, err)
	}
}
