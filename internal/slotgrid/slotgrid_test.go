package slotgrid

import (
	"testing"
	"time"

	"karaoke/internal/schedule"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []Window
	}{
		{
			name: "default pattern 3h slots 1h gap",
			cfg:  Config{StartHour: 9, SlotDuration: 3, GapHours: 1},
			want: []Window{
				{0, 3}, {4, 7}, {8, 11}, {12, 15}, {16, 19},
				{20, 23}, {24, 27}, {28, 31}, {32, 35},
			},
		},
		{
			name: "last window clipped to grid boundary",
			cfg:  Config{SlotDuration: 5, GapHours: 2},
			want: []Window{{0, 5}, {7, 12}, {14, 19}, {21, 26}, {28, 33}, {35, 36}},
		},
		{
			name: "no gap caps at ten windows",
			cfg:  Config{SlotDuration: 2, GapHours: 0},
			want: []Window{
				{0, 2}, {2, 4}, {4, 6}, {6, 8}, {8, 10},
				{10, 12}, {12, 14}, {14, 16}, {16, 18}, {18, 20},
			},
		},
		{
			name: "zero duration yields nothing",
			cfg:  Config{SlotDuration: 0, GapHours: 1},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.cfg)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d windows %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("window %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHasSlotOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b Window
		want bool
	}{
		{"direct overlap", Window{0, 3}, Window{2, 5}, true},
		{"contained", Window{0, 6}, Window{2, 4}, true},
		{"back-to-back is allowed", Window{0, 3}, Window{3, 6}, false},
		{"disjoint", Window{0, 3}, Window{4, 7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasSlotOverlap(tt.a, tt.b); got != tt.want {
				t.Errorf("HasSlotOverlap(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := HasSlotOverlap(tt.b, tt.a); got != tt.want {
				t.Errorf("overlap is not symmetric for %v, %v", tt.a, tt.b)
			}
		})
	}
}

func TestGridToHour(t *testing.T) {
	if h := GridToHour(0); h != 9 {
		t.Errorf("offset 0 = hour %d, want 9", h)
	}
	if h := GridToHour(15); h != 0 {
		t.Errorf("offset 15 = hour %d, want 0 (midnight)", h)
	}
	if h := GridToHour(35); h != 20 {
		t.Errorf("offset 35 = hour %d, want 20", h)
	}
}

func TestClassifierCells(t *testing.T) {
	// Tuesday 2025-06-03, branch open 14:00-06:00.
	day := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	wh := schedule.WorkingHours{
		"tuesday":   {Open: "14:00", Close: "06:00"},
		"wednesday": {Open: "14:00", Close: "06:00"},
	}

	c := &Classifier{
		Hours:   wh,
		Day:     day,
		Windows: []Window{{5, 8}, {9, 12}}, // 14:00-17:00 and 18:00-21:00
		Bookings: []Interval{
			{BookingID: 42, Start: day.Add(18 * time.Hour), End: day.Add(21 * time.Hour)}, // 18:00-21:00
		},
		PriceAt: func(at time.Time) int { return 1500 },
	}

	cells := c.Cells()
	if len(cells) != GridHours {
		t.Fatalf("got %d cells, want %d", len(cells), GridHours)
	}

	// 09:00 (offset 0): before opening, closed.
	if cells[0].State != CellClosed {
		t.Errorf("offset 0 = %s, want closed", cells[0].State)
	}
	// 14:00 (offset 5): open, priced.
	if cells[5].State != CellOpen || cells[5].PricePerHour != 1500 {
		t.Errorf("offset 5 = %+v, want open at 1500", cells[5])
	}
	// 17:00 (offset 8): strictly between the two windows.
	if cells[8].State != CellGap {
		t.Errorf("offset 8 = %s, want gap", cells[8].State)
	}
	// 19:00 (offset 10): inside the booking.
	if cells[10].State != CellOccupied || cells[10].BookingID != 42 {
		t.Errorf("offset 10 = %+v, want occupied by 42", cells[10])
	}
	// 21:00 (offset 12): booking ended, past last window, open again.
	if cells[12].State != CellOpen {
		t.Errorf("offset 12 = %s, want open", cells[12].State)
	}
	// Next day 03:00 (offset 18): Tuesday's overnight shift carries over.
	if cells[18].State != CellOpen {
		t.Errorf("offset 18 = %s, want open via carryover", cells[18].State)
	}
	// Next day 07:00 (offset 22): past the 06:00 close, Wednesday's own
	// shift has not started.
	if cells[22].State != CellClosed {
		t.Errorf("offset 22 = %s, want closed", cells[22].State)
	}
}
