package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"karaoke/internal/pricing"
	"karaoke/internal/slotgrid"
	"karaoke/internal/store"
)

// branchIDParam reads an optional branch_id query param; nil means the
// deployment-wide scope.
func branchIDParam(r *http.Request) (*int64, error) {
	val := r.URL.Query().Get("branch_id")
	if val == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid branch_id: %w", err)
	}
	return &id, nil
}

func (app *application) getSlotConfigHandler(w http.ResponseWriter, r *http.Request) {
	branchID, err := branchIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	cfg, err := app.store.SlotConfigs.Get(r.Context(), branchID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, cfg); err != nil {
		app.internalServerError(w, r, err)
	}
}

type PutSlotConfigPayload struct {
	BranchID *int64          `json:"branch_id"`
	Config   slotgrid.Config `json:"config" validate:"required"`
}

func (app *application) putSlotConfigHandler(w http.ResponseWriter, r *http.Request) {
	var payload PutSlotConfigPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	cfg := &store.SlotConfig{
		BranchID: payload.BranchID,
		Config:   payload.Config,
	}
	if err := app.store.SlotConfigs.Put(r.Context(), cfg); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, cfg); err != nil {
		app.internalServerError(w, r, err)
	}
}

// slotWindowsHandler returns the generated planning windows for the
// effective slot config, both as grid offsets and as wall-clock hours.
func (app *application) slotWindowsHandler(w http.ResponseWriter, r *http.Request) {
	branchID, err := branchIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	cfg, err := app.store.SlotConfigs.Get(r.Context(), branchID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	windows := slotgrid.Generate(cfg.Config)

	type windowView struct {
		From     int `json:"from"`
		To       int `json:"to"`
		FromHour int `json:"from_hour"`
		ToHour   int `json:"to_hour"`
	}
	views := make([]windowView, 0, len(windows))
	for _, win := range windows {
		views = append(views, windowView{
			From:     win.From,
			To:       win.To,
			FromHour: slotgrid.GridToHour(win.From),
			ToHour:   slotgrid.GridToHour(win.To),
		})
	}

	resp := map[string]any{
		"config":  cfg.Config,
		"windows": views,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// RoomGridRow is one room's classified 36-hour cell row.
type RoomGridRow struct {
	RoomID   int64            `json:"room_id"`
	RoomName string           `json:"room_name"`
	Number   int              `json:"number"`
	Category pricing.Category `json:"category"`
	Cells    []slotgrid.Cell  `json:"cells"`
}

// calendarGridHandler renders the two-day planning grid: for each room of
// a branch, 36 hourly cells starting at 09:00 of the requested date,
// classified closed/occupied/gap/open with per-hour prices on open cells.
func (app *application) calendarGridHandler(w http.ResponseWriter, r *http.Request) {
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

	branch, err := app.store.Branches.GetByID(r.Context(), branchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	rooms, err := app.store.Rooms.ListActive(r.Context(), branchID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if val := r.URL.Query().Get("room_id"); val != "" {
		roomID, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("invalid room_id: %w", err))
			return
		}
		filtered := rooms[:0]
		for _, room := range rooms {
			if room.ID == roomID {
				filtered = append(filtered, room)
			}
		}
		rooms = filtered
	}

	cfg, err := app.store.SlotConfigs.Get(r.Context(), &branchID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	windows := slotgrid.Generate(cfg.Config)

	gridStart := date.Add(time.Duration(slotgrid.GridStartHour) * time.Hour)
	gridEnd := gridStart.Add(time.Duration(slotgrid.GridHours) * time.Hour)

	rows := make([]RoomGridRow, 0, len(rooms))
	for _, room := range rooms {
		bookings, err := app.store.Bookings.ListForRoomRange(r.Context(), room.ID, gridStart, gridEnd)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}

		intervals := make([]slotgrid.Interval, 0, len(bookings))
		for _, b := range bookings {
			intervals = append(intervals, slotgrid.Interval{
				BookingID: b.ID,
				Start:     b.StartTime,
				End:       b.EndTime,
			})
		}

		category := room.Category
		classifier := slotgrid.Classifier{
			Hours:    branch.WorkingHours,
			Day:      date,
			Windows:  windows,
			Bookings: intervals,
			PriceAt: func(at time.Time) int {
				price, err := app.pricer.Price(r.Context(), category, pricing.Classify(at), at)
				if err != nil {
					app.logger.Warnw("grid price lookup failed", "room_id", room.ID, "error", err)
					return 0
				}
				return price
			},
		}

		rows = append(rows, RoomGridRow{
			RoomID:   room.ID,
			RoomName: room.Name,
			Number:   room.Number,
			Category: room.Category,
			Cells:    classifier.Cells(),
		})
	}

	resp := map[string]any{
		"date":    date.Format("2006-01-02"),
		"config":  cfg.Config,
		"windows": windows,
		"rooms":   rows,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
