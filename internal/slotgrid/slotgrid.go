// Package slotgrid derives the repeating bookable-window pattern used by
// the two-day calendar grid, and classifies grid cells for rendering.
//
// Windows are a planning aid for the admin's capacity grid; they reserve
// nothing. Actual reservation goes through the booking service.
package slotgrid

import (
	"time"

	"karaoke/internal/schedule"
)

const (
	// GridStartHour is the wall-clock hour mapped to grid offset 0.
	GridStartHour = 9
	// GridHours is the fixed two-day grid window (09:00 through 21:00
	// the next day).
	GridHours = 36
	// MaxWindows caps how many repeating windows one config produces.
	MaxWindows = 10
)

// Config is the per-deployment (or per-branch) slot pattern.
type Config struct {
	StartHour    int `json:"startHour" validate:"min=0,max=23"`
	SlotDuration int `json:"slotDuration" validate:"required,min=1,max=24"`
	GapHours     int `json:"gapHours" validate:"min=0,max=12"`
}

// Window is one bookable planning window in grid-relative hour offsets.
// From is inclusive, To exclusive.
type Window struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// GridToHour maps a grid offset to its wall-clock hour.
func GridToHour(gi int) int {
	return (GridStartHour + gi) % 24
}

// Generate produces the repeating windows for a config: up to MaxWindows
// windows of SlotDuration hours, spaced SlotDuration+GapHours apart,
// starting at offset 0 and clipped to the grid.
func Generate(cfg Config) []Window {
	if cfg.SlotDuration <= 0 {
		return nil
	}
	step := cfg.SlotDuration + cfg.GapHours
	var windows []Window
	for from := 0; from < GridHours && len(windows) < MaxWindows; from += step {
		to := from + cfg.SlotDuration
		if to > GridHours {
			to = GridHours
		}
		windows = append(windows, Window{From: from, To: to})
	}
	return windows
}

// HasSlotOverlap reports whether two planning windows directly overlap.
// Unlike committed-booking conflict checks there is no buffer here:
// back-to-back windows are fine, the configured gap is presentational.
func HasSlotOverlap(a, b Window) bool {
	return a.From < b.To && b.From < a.To
}

// CellState classifies one grid cell for rendering.
type CellState string

const (
	CellClosed   CellState = "closed"
	CellOccupied CellState = "occupied"
	CellGap      CellState = "gap"
	CellOpen     CellState = "open"
)

// Interval is a booked time range occupying cells.
type Interval struct {
	BookingID int64
	Start     time.Time
	End       time.Time
}

// Cell is one classified grid cell. Open cells carry the resolved
// per-hour price; occupied cells carry the booking id.
type Cell struct {
	Index        int       `json:"index"`
	Hour         int       `json:"hour"`
	State        CellState `json:"state"`
	PricePerHour int       `json:"price_per_hour,omitempty"`
	BookingID    int64     `json:"booking_id,omitempty"`
}

// Classifier classifies the 36 cells of one room row. Day is the grid's
// first calendar day at midnight. PriceAt resolves the per-hour rate for
// an open cell's start instant.
type Classifier struct {
	Hours    schedule.WorkingHours
	Day      time.Time
	Windows  []Window
	Bookings []Interval
	PriceAt  func(at time.Time) int
}

// CellTime returns the wall-clock start of a grid offset.
func (c *Classifier) CellTime(gi int) time.Time {
	return c.Day.Add(time.Duration(GridStartHour+gi) * time.Hour)
}

// inGap reports whether an offset falls strictly between two configured
// windows.
func (c *Classifier) inGap(gi int) bool {
	for i := 0; i+1 < len(c.Windows); i++ {
		if gi >= c.Windows[i].To && gi < c.Windows[i+1].From {
			return true
		}
	}
	return false
}

// Cells classifies every offset of the grid. Precedence: closed, then
// occupied, then gap, then open.
func (c *Classifier) Cells() []Cell {
	cells := make([]Cell, 0, GridHours)
	for gi := 0; gi < GridHours; gi++ {
		cellStart := c.CellTime(gi)
		cell := Cell{Index: gi, Hour: GridToHour(gi)}

		switch {
		case !schedule.IsHourOpen(c.Hours, cellStart, cellStart.Hour()):
			cell.State = CellClosed
		case c.occupiedBy(cellStart) != 0:
			cell.State = CellOccupied
			cell.BookingID = c.occupiedBy(cellStart)
		case c.inGap(gi):
			cell.State = CellGap
		default:
			cell.State = CellOpen
			if c.PriceAt != nil {
				cell.PricePerHour = c.PriceAt(cellStart)
			}
		}
		cells = append(cells, cell)
	}
	return cells
}

func (c *Classifier) occupiedBy(cellStart time.Time) int64 {
	cellEnd := cellStart.Add(time.Hour)
	for _, b := range c.Bookings {
		if b.Start.Before(cellEnd) && b.End.After(cellStart) {
			return b.BookingID
		}
	}
	return 0
}
