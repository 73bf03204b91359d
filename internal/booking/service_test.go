package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"karaoke/internal/pricing"
	"karaoke/internal/schedule"
	"karaoke/internal/store"
)

// memBookings is an in-memory BookingStore that mirrors the pgx store's
// conflict semantics.
type memBookings struct {
	nextID int64
	items  map[int64]*store.Booking
}

func newMemBookings() *memBookings {
	return &memBookings{items: map[int64]*store.Booking{}}
}

func (m *memBookings) GetByID(ctx context.Context, id int64) (*store.Booking, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) ListForDay(ctx context.Context, branchID int64, dayStart, dayEnd time.Time) ([]store.Booking, error) {
	var out []store.Booking
	for _, b := range m.items {
		if b.BranchID == branchID && b.Status != store.StatusCancelled &&
			!b.StartTime.Before(dayStart) && b.StartTime.Before(dayEnd) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBookings) conflicts(roomID int64, bufferedStart, bufferedEnd time.Time, excludeID int64) bool {
	for _, b := range m.items {
		if b.RoomID != roomID || b.ID == excludeID || b.Status == store.StatusCancelled {
			continue
		}
		if Overlaps(b.StartTime, b.EndTime, bufferedStart, bufferedEnd) {
			return true
		}
	}
	return false
}

func (m *memBookings) CreateChecked(ctx context.Context, b *store.Booking, bufferedStart, bufferedEnd time.Time) error {
	if m.conflicts(b.RoomID, bufferedStart, bufferedEnd, 0) {
		return store.ErrConflict
	}
	m.nextID++
	b.ID = m.nextID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *memBookings) UpdateChecked(ctx context.Context, b *store.Booking, bufferedStart, bufferedEnd *time.Time) error {
	if _, ok := m.items[b.ID]; !ok {
		return store.ErrNotFound
	}
	if bufferedStart != nil && bufferedEnd != nil {
		if m.conflicts(b.RoomID, *bufferedStart, *bufferedEnd, b.ID) {
			return store.ErrConflict
		}
	}
	b.UpdatedAt = time.Now()
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

type memRooms struct {
	items map[int64]*store.Room
}

func (m *memRooms) GetByID(ctx context.Context, id int64) (*store.Room, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (m *memRooms) ListActive(ctx context.Context, branchID int64) ([]store.Room, error) {
	var out []store.Room
	for _, r := range m.items {
		if r.BranchID == branchID && r.IsActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

type memBranches struct {
	items map[int64]*store.Branch
}

func (m *memBranches) GetByID(ctx context.Context, id int64) (*store.Branch, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b, nil
}

// flatPricer returns one fixed rate regardless of bucket.
type flatPricer struct {
	rate int
}

func (p *flatPricer) Price(ctx context.Context, category pricing.Category, dayType pricing.DayType, at time.Time) (int, error) {
	return p.rate, nil
}

func (p *flatPricer) QuoteBooking(ctx context.Context, category pricing.Category, start, end time.Time) (pricing.Quote, error) {
	hours := end.Sub(start).Hours()
	return pricing.Quote{
		PricePerHour: p.rate,
		Hours:        hours,
		BasePrice:    int(float64(p.rate) * hours),
	}, nil
}

func newTestService(rate int) (*Service, *memBookings) {
	bookings := newMemBookings()
	rooms := &memRooms{items: map[int64]*store.Room{
		1: {ID: 1, BranchID: 1, Name: "Room 1", Number: 1, Category: pricing.CategoryVibe, CapacityMax: 10, IsActive: true},
		2: {ID: 2, BranchID: 1, Name: "Room 2", Number: 2, Category: pricing.CategoryFullGas, CapacityMax: 20, IsActive: true},
	}}
	branches := &memBranches{items: map[int64]*store.Branch{
		1: {ID: 1, Name: "Central", WorkingHours: schedule.WorkingHours{
			"monday":    {Open: "10:00", Close: "06:00"},
			"tuesday":   {Open: "10:00", Close: "06:00"},
			"wednesday": {Open: "10:00", Close: "06:00"},
			"thursday":  {Open: "10:00", Close: "06:00"},
			"friday":    {Open: "10:00", Close: "06:00"},
			"saturday":  {Open: "10:00", Close: "06:00"},
			"sunday":    {Open: "10:00", Close: "06:00"},
		}},
	}}
	return NewService(bookings, rooms, branches, &flatPricer{rate: rate}, zap.NewNop().Sugar()), bookings
}

// Thursday 2025-06-05.
var day = time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func validRequest(start, end time.Time) CreateRequest {
	return CreateRequest{
		BranchID:   1,
		RoomID:     1,
		Type:       store.TypeAdvance,
		StartTime:  start,
		EndTime:    end,
		GuestCount: 4,
		GuestName:  "Alex",
		GuestPhone: "+79990001122",
		Source:     "admin",
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(1000)
	ctx := context.Background()

	_, err := svc.Create(ctx, validRequest(at(12, 0), at(11, 0)))
	assert.True(t, IsValidation(err), "end before start: %v", err)

	_, err = svc.Create(ctx, validRequest(at(12, 0), at(13, 59)))
	assert.True(t, IsValidation(err), "under two hours: %v", err)

	_, err = svc.Create(ctx, validRequest(at(12, 0), at(14, 0)))
	assert.NoError(t, err, "exactly two hours is accepted")

	req := validRequest(at(16, 0), at(18, 0))
	req.RoomID = 99
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateBufferConflict(t *testing.T) {
	svc, _ := newTestService(1000)
	ctx := context.Background()

	// Existing booking 18:00-21:00.
	_, err := svc.Create(ctx, validRequest(at(18, 0), at(21, 0)))
	require.NoError(t, err)

	// 20:00-22:00 overlaps outright.
	_, err = svc.Create(ctx, validRequest(at(20, 0), at(22, 0)))
	assert.ErrorIs(t, err, store.ErrConflict)

	// 21:00-23:00 is back-to-back but inside the 15-minute buffer.
	_, err = svc.Create(ctx, validRequest(at(21, 0), at(23, 0)))
	assert.ErrorIs(t, err, store.ErrConflict)

	// 21:16-23:16 clears the buffer.
	_, err = svc.Create(ctx, validRequest(at(21, 16), at(23, 16)))
	assert.NoError(t, err)

	// The same range in another room is free.
	req := validRequest(at(20, 0), at(22, 0))
	req.RoomID = 2
	_, err = svc.Create(ctx, req)
	assert.NoError(t, err)
}

func TestCreateIgnoresCancelled(t *testing.T) {
	svc, bookings := newTestService(1000)
	ctx := context.Background()

	b, err := svc.Create(ctx, validRequest(at(18, 0), at(21, 0)))
	require.NoError(t, err)
	bookings.items[b.ID].Status = store.StatusCancelled

	_, err = svc.Create(ctx, validRequest(at(18, 0), at(21, 0)))
	assert.NoError(t, err, "cancelled bookings do not block")
}

func TestCreatePricingAndStatus(t *testing.T) {
	svc, _ := newTestService(3190)
	ctx := context.Background()

	// 09:00-11:00, two hours.
	b, err := svc.Create(ctx, validRequest(at(9, 0), at(11, 0)))
	require.NoError(t, err)
	assert.Equal(t, 6380, b.BasePrice)
	assert.Equal(t, 0, b.DiscountAmount)
	assert.Equal(t, 6380, b.TotalPrice)
	assert.Equal(t, store.StatusNew, b.Status)
	assert.NotEmpty(t, b.Reference)

	req := validRequest(at(12, 0), at(14, 0))
	req.Type = store.TypeWalkin
	b, err = svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, store.StatusWalkin, b.Status, "walk-ins skip the payment workflow")
}

func TestUpdateStatusTransitions(t *testing.T) {
	svc, bookings := newTestService(1000)
	ctx := context.Background()

	b, err := svc.Create(ctx, validRequest(at(18, 0), at(21, 0)))
	require.NoError(t, err)

	status := store.StatusAwaitingPayment
	updated, err := svc.Update(ctx, b.ID, UpdateRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, store.StatusAwaitingPayment, updated.Status)

	// Completed is terminal.
	bookings.items[b.ID].Status = store.StatusCompleted
	status = store.StatusNew
	_, err = svc.Update(ctx, b.ID, UpdateRequest{Status: &status})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Cancelled is always reachable from live states.
	bookings.items[b.ID].Status = store.StatusNew
	status = store.StatusCancelled
	_, err = svc.Update(ctx, b.ID, UpdateRequest{Status: &status})
	assert.NoError(t, err)
}

func TestUpdateTimesRechecksConflicts(t *testing.T) {
	svc, _ := newTestService(1000)
	ctx := context.Background()

	first, err := svc.Create(ctx, validRequest(at(12, 0), at(14, 0)))
	require.NoError(t, err)
	second, err := svc.Create(ctx, validRequest(at(18, 0), at(21, 0)))
	require.NoError(t, err)

	// Shifting the first booking onto the second is rejected.
	start, end := at(19, 0), at(21, 0)
	_, err = svc.Update(ctx, first.ID, UpdateRequest{StartTime: &start, EndTime: &end})
	assert.ErrorIs(t, err, store.ErrConflict)

	// Shifting within its own slot is fine: the check excludes the
	// booking itself.
	start, end = at(12, 30), at(14, 30)
	updated, err := svc.Update(ctx, first.ID, UpdateRequest{StartTime: &start, EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, start, updated.StartTime)

	// Shrinking below the minimum duration is rejected.
	start, end = at(12, 30), at(13, 30)
	_, err = svc.Update(ctx, first.ID, UpdateRequest{StartTime: &start, EndTime: &end})
	assert.True(t, IsValidation(err))

	// Guest fields update without touching times.
	name := "Sasha"
	updated, err = svc.Update(ctx, second.ID, UpdateRequest{GuestName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Sasha", updated.GuestName)
}

func TestAvailableSlots(t *testing.T) {
	svc, _ := newTestService(1500)
	ctx := context.Background()

	// Occupy room 1 from 18:00 to 21:00.
	_, err := svc.Create(ctx, validRequest(at(18, 0), at(21, 0)))
	require.NoError(t, err)

	slots, err := svc.AvailableSlots(ctx, 1, day, 0, "")
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	bySlot := map[int64]map[int]bool{}
	for _, s := range slots {
		if bySlot[s.RoomID] == nil {
			bySlot[s.RoomID] = map[int]bool{}
		}
		offset := int(s.StartTime.Sub(day).Hours())
		bySlot[s.RoomID][offset] = true
		assert.Equal(t, 1500, s.PricePerHour)
	}

	// Branch opens at 10:00; the scan starts there and runs into the
	// night (the overnight schedule keeps hours 24..28 open).
	assert.True(t, bySlot[1][10])
	assert.True(t, bySlot[1][28], "early-morning carryover hours are bookable")

	// The booked range and its buffered edges are gone for room 1 but
	// present for room 2.
	for h := 17; h <= 21; h++ {
		assert.False(t, bySlot[1][h], "hour %d should conflict for room 1", h)
		assert.True(t, bySlot[2][h], "hour %d should be free for room 2", h)
	}
	assert.True(t, bySlot[1][16], "16:00-17:00 clears the buffer before an 18:00 start")
	assert.True(t, bySlot[1][22], "22:00-23:00 clears the buffer after a 21:00 end")
}

func TestAvailableSlotsFilters(t *testing.T) {
	svc, _ := newTestService(1500)
	ctx := context.Background()

	slots, err := svc.AvailableSlots(ctx, 1, day, 15, "")
	require.NoError(t, err)
	for _, s := range slots {
		assert.Equal(t, int64(2), s.RoomID, "only the 20-seat room fits 15 guests")
	}

	slots, err = svc.AvailableSlots(ctx, 1, day, 0, pricing.CategoryVibe)
	require.NoError(t, err)
	for _, s := range slots {
		assert.Equal(t, pricing.CategoryVibe, s.RoomCategory)
	}

	_, err = svc.AvailableSlots(ctx, 99, day, 0, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
