// Package booking is the admission core: it decides whether a booking
// request is accepted, at what price, and how it interacts with its
// neighbors in the same room.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"karaoke/internal/metrics"
	"karaoke/internal/pricing"
	"karaoke/internal/schedule"
	"karaoke/internal/store"
)

const (
	// BufferMinutes is the mandatory turnover time between two bookings
	// in the same room. A request's own bounds are not buffered; its
	// neighbors must be this many minutes clear on each side.
	BufferMinutes = 15

	// MinBookingHours is the shortest accepted booking.
	MinBookingHours = 2

	// The availability scan walks 1-hour start slots from 10:00 through
	// 04:00 the next morning (hour 28).
	scanFirstHour = 10
	scanLastHour  = 28
)

// Buffer is BufferMinutes as a duration.
const Buffer = BufferMinutes * time.Minute

// Overlaps is the half-open interval overlap test used for committed
// bookings: the candidate range is expanded by the buffer on both ends
// before calling it. Planning-grid slot overlap is a separate, unbuffered
// check (slotgrid.HasSlotOverlap) and must not be conflated with this one.
func Overlaps(existingStart, existingEnd, bufferedStart, bufferedEnd time.Time) bool {
	return existingStart.Before(bufferedEnd) && existingEnd.After(bufferedStart)
}

type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*store.Booking, error)
	ListForDay(ctx context.Context, branchID int64, dayStart, dayEnd time.Time) ([]store.Booking, error)
	CreateChecked(ctx context.Context, b *store.Booking, bufferedStart, bufferedEnd time.Time) error
	UpdateChecked(ctx context.Context, b *store.Booking, bufferedStart, bufferedEnd *time.Time) error
}

type RoomStore interface {
	GetByID(ctx context.Context, id int64) (*store.Room, error)
	ListActive(ctx context.Context, branchID int64) ([]store.Room, error)
}

type BranchStore interface {
	GetByID(ctx context.Context, id int64) (*store.Branch, error)
}

type Pricer interface {
	Price(ctx context.Context, category pricing.Category, dayType pricing.DayType, at time.Time) (int, error)
	QuoteBooking(ctx context.Context, category pricing.Category, start, end time.Time) (pricing.Quote, error)
}

type Service struct {
	bookings BookingStore
	rooms    RoomStore
	branches BranchStore
	pricer   Pricer
	logger   *zap.SugaredLogger
}

func NewService(bookings BookingStore, rooms RoomStore, branches BranchStore, pricer Pricer, logger *zap.SugaredLogger) *Service {
	return &Service{
		bookings: bookings,
		rooms:    rooms,
		branches: branches,
		pricer:   pricer,
		logger:   logger,
	}
}

// CreateRequest carries a validated booking request into the core.
type CreateRequest struct {
	BranchID     int64
	RoomID       int64
	Type         store.BookingType
	StartTime    time.Time
	EndTime      time.Time
	GuestCount   int
	GuestName    string
	GuestPhone   string
	GuestEmail   *string
	GuestComment *string
	Source       string
}

// Create admits or rejects a booking request: duration validation, the
// buffered conflict check, pricing from the start instant, and initial
// status assignment. The conflict check and insert run in one per-room
// serialized transaction at the store layer.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*store.Booking, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, validationf("end time must be after start time")
	}
	if req.EndTime.Sub(req.StartTime) < MinBookingHours*time.Hour {
		return nil, validationf("minimum booking duration is %d hours", MinBookingHours)
	}
	if !req.Type.Valid() {
		return nil, validationf("unknown booking type %q", req.Type)
	}

	room, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricer.QuoteBooking(ctx, room.Category, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	status := store.StatusNew
	if req.Type == store.TypeWalkin {
		status = store.StatusWalkin
	}

	b := &store.Booking{
		Reference:    uuid.NewString(),
		BranchID:     req.BranchID,
		RoomID:       req.RoomID,
		Type:         req.Type,
		Status:       status,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		GuestCount:   req.GuestCount,
		GuestName:    req.GuestName,
		GuestPhone:   req.GuestPhone,
		GuestEmail:   req.GuestEmail,
		GuestComment: req.GuestComment,
		BasePrice:    quote.BasePrice,
		// The discount pipeline is an external collaborator; it patches
		// the amount after admission.
		DiscountAmount: 0,
		TotalPrice:     quote.BasePrice,
		Source:         req.Source,
	}

	err = s.bookings.CreateChecked(ctx, b, req.StartTime.Add(-Buffer), req.EndTime.Add(Buffer))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.IncBookingRejected("conflict")
		}
		return nil, err
	}

	metrics.IncBookingCreated(string(b.Status))
	s.logger.Infow("booking admitted",
		"booking_id", b.ID,
		"room_id", b.RoomID,
		"status", b.Status,
		"base_price", b.BasePrice,
	)
	return b, nil
}

// UpdateRequest is a partial booking patch; nil fields are untouched.
type UpdateRequest struct {
	Status       *store.BookingStatus
	StartTime    *time.Time
	EndTime      *time.Time
	GuestCount   *int
	GuestName    *string
	GuestPhone   *string
	GuestEmail   *string
	GuestComment *string
}

// Update applies a patch. Status changes go through the transition table;
// time changes re-run the buffered conflict check excluding the booking
// itself. Guest fields update unconditionally.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*store.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, validationf("unknown status %q", *req.Status)
		}
		if !CanTransition(b.Status, *req.Status) {
			return nil, ErrInvalidTransition
		}
		b.Status = *req.Status
	}

	timesChanged := req.StartTime != nil || req.EndTime != nil
	if req.StartTime != nil {
		b.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		b.EndTime = *req.EndTime
	}
	if timesChanged {
		if !b.EndTime.After(b.StartTime) {
			return nil, validationf("end time must be after start time")
		}
		if b.EndTime.Sub(b.StartTime) < MinBookingHours*time.Hour {
			return nil, validationf("minimum booking duration is %d hours", MinBookingHours)
		}
	}

	if req.GuestCount != nil {
		b.GuestCount = *req.GuestCount
	}
	if req.GuestName != nil {
		b.GuestName = *req.GuestName
	}
	if req.GuestPhone != nil {
		b.GuestPhone = *req.GuestPhone
	}
	if req.GuestEmail != nil {
		b.GuestEmail = req.GuestEmail
	}
	if req.GuestComment != nil {
		b.GuestComment = req.GuestComment
	}

	var bufferedStart, bufferedEnd *time.Time
	if timesChanged {
		bs := b.StartTime.Add(-Buffer)
		be := b.EndTime.Add(Buffer)
		bufferedStart, bufferedEnd = &bs, &be
	}

	if err := s.bookings.UpdateChecked(ctx, b, bufferedStart, bufferedEnd); err != nil {
		return nil, err
	}
	if req.Status != nil {
		metrics.IncStatusChanged(string(*req.Status))
	}
	return b, nil
}

// AvailableSlot is one free 1-hour start window in a room.
type AvailableSlot struct {
	RoomID       int64            `json:"room_id"`
	RoomName     string           `json:"room_name"`
	RoomCategory pricing.Category `json:"room_category"`
	Capacity     int              `json:"capacity"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
	PricePerHour int              `json:"price_per_hour"`
}

// AvailableSlots scans candidate 1-hour start slots from 10:00 through
// 04:00 the next morning for every matching active room, skipping hours
// the branch is closed and slots that conflict with the day's bookings.
// The scan applies the same 15-minute buffer as admission, so a slot it
// reports will also clear the creation-time conflict check.
func (s *Service) AvailableSlots(ctx context.Context, branchID int64, date time.Time, guestCount int, category pricing.Category) ([]AvailableSlot, error) {
	branch, err := s.branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}

	rooms, err := s.rooms.ListActive(ctx, branchID)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	dayBookings, err := s.bookings.ListForDay(ctx, branchID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	var slots []AvailableSlot
	for _, room := range rooms {
		if category != "" && room.Category != category {
			continue
		}
		if guestCount > 0 && room.CapacityMax < guestCount {
			continue
		}

		for hour := scanFirstHour; hour <= scanLastHour; hour++ {
			slotStart := dayStart.Add(time.Duration(hour) * time.Hour)
			slotEnd := slotStart.Add(time.Hour)

			if !schedule.IsHourOpen(branch.WorkingHours, slotStart, slotStart.Hour()) {
				continue
			}
			if s.slotConflicts(dayBookings, room.ID, slotStart, slotEnd) {
				continue
			}

			price, err := s.pricer.Price(ctx, room.Category, pricing.Classify(slotStart), slotStart)
			if err != nil {
				return nil, err
			}
			slots = append(slots, AvailableSlot{
				RoomID:       room.ID,
				RoomName:     room.Name,
				RoomCategory: room.Category,
				Capacity:     room.CapacityMax,
				StartTime:    slotStart,
				EndTime:      slotEnd,
				PricePerHour: price,
			})
		}
	}
	return slots, nil
}

func (s *Service) slotConflicts(bookings []store.Booking, roomID int64, slotStart, slotEnd time.Time) bool {
	bufferedStart := slotStart.Add(-Buffer)
	bufferedEnd := slotEnd.Add(Buffer)
	for _, b := range bookings {
		if b.RoomID != roomID {
			continue
		}
		if Overlaps(b.StartTime, b.EndTime, bufferedStart, bufferedEnd) {
			return true
		}
	}
	return false
}
