package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Booking statuses. Advance bookings start as "new" and progress through
// the payment statuses; walk-ins enter directly as "walkin". The terminal
// states are "completed" and "cancelled". Cancelled rows are retained for
// audit but ignored by conflict and pricing reasoning.
type BookingStatus string

const (
	StatusNew             BookingStatus = "new"
	StatusAwaitingPayment BookingStatus = "awaiting_payment"
	StatusPartiallyPaid   BookingStatus = "partially_paid"
	StatusFullyPaid       BookingStatus = "fully_paid"
	StatusWalkin          BookingStatus = "walkin"
	StatusCompleted       BookingStatus = "completed"
	StatusCancelled       BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusNew, StatusAwaitingPayment, StatusPartiallyPaid,
		StatusFullyPaid, StatusWalkin, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type BookingType string

const (
	TypeAdvance BookingType = "advance"
	TypeWalkin  BookingType = "walkin"
)

func (t BookingType) Valid() bool {
	return t == TypeAdvance || t == TypeWalkin
}

// Booking represents a booking record.
//
// The bookings table carries an exclusion constraint on
// (room_id, tsrange(start_time - '15 min', end_time + '15 min')) filtered
// to non-cancelled rows, so the database is the authoritative double-booking
// check; the in-transaction scan below is the fast-path early reject.
type Booking struct {
	ID             int64         `json:"id"`
	Reference      string        `json:"reference"`
	BranchID       int64         `json:"branch_id"`
	RoomID         int64         `json:"room_id"`
	Type           BookingType   `json:"booking_type"`
	Status         BookingStatus `json:"status"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	GuestCount     int           `json:"guest_count"`
	GuestName      string        `json:"guest_name"`
	GuestPhone     string        `json:"guest_phone"`
	GuestEmail     *string       `json:"guest_email,omitempty"`
	GuestComment   *string       `json:"guest_comment,omitempty"`
	BasePrice      int           `json:"base_price"`
	DiscountAmount int           `json:"discount_amount"`
	TotalPrice     int           `json:"total_price"`
	Source         string        `json:"source"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// BookingFilter narrows List. Zero fields are skipped; cancelled rows are
// included unless Status filters them out.
type BookingFilter struct {
	BranchID int64
	RoomID   int64
	Status   BookingStatus
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
	Offset   int
}

// CalendarEntry is a booking joined with its room for calendar views.
type CalendarEntry struct {
	ID         int64         `json:"id"`
	RoomID     int64         `json:"room_id"`
	RoomName   string        `json:"room_name"`
	RoomNumber int           `json:"room_number"`
	BranchID   int64         `json:"branch_id"`
	Status     BookingStatus `json:"status"`
	Type       BookingType   `json:"booking_type"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	GuestName  string        `json:"guest_name"`
	GuestCount int           `json:"guest_count"`
	TotalPrice int           `json:"total_price"`
}

type BookingsStore struct {
	db *pgxpool.Pool
}

const bookingColumns = `
	id, reference, branch_id, room_id, booking_type, status,
	start_time, end_time, guest_count, guest_name, guest_phone,
	guest_email, guest_comment, base_price, discount_amount, total_price,
	source, created_at, updated_at`

func scanBooking(row pgx.Row, b *Booking) error {
	return row.Scan(
		&b.ID,
		&b.Reference,
		&b.BranchID,
		&b.RoomID,
		&b.Type,
		&b.Status,
		&b.StartTime,
		&b.EndTime,
		&b.GuestCount,
		&b.GuestName,
		&b.GuestPhone,
		&b.GuestEmail,
		&b.GuestComment,
		&b.BasePrice,
		&b.DiscountAmount,
		&b.TotalPrice,
		&b.Source,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

func (s *BookingsStore) GetByID(ctx context.Context, id int64) (*Booking, error) {
	query := `SELECT` + bookingColumns + ` FROM bookings WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var b Booking
	if err := scanBooking(s.db.QueryRow(ctx, query, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// bookingConditions builds the WHERE clause shared by List and Count.
func bookingConditions(filter BookingFilter) (string, []any) {
	var conditions []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.BranchID != 0 {
		add("branch_id = $%d", filter.BranchID)
	}
	if filter.RoomID != 0 {
		add("room_id = $%d", filter.RoomID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if !filter.DateFrom.IsZero() {
		add("start_time >= $%d", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		add("start_time <= $%d", filter.DateTo)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (s *BookingsStore) List(ctx context.Context, filter BookingFilter) ([]Booking, error) {
	where, args := bookingConditions(filter)
	query := `SELECT` + bookingColumns + ` FROM bookings` + where + " ORDER BY start_time"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Count returns how many bookings match the filter, ignoring pagination.
func (s *BookingsStore) Count(ctx context.Context, filter BookingFilter) (int, error) {
	where, args := bookingConditions(filter)
	query := `SELECT COUNT(*) FROM bookings` + where

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Calendar returns the branch's non-cancelled bookings inside a range,
// joined with room name and number for the grid view.
func (s *BookingsStore) Calendar(ctx context.Context, branchID int64, dateFrom, dateTo time.Time) ([]CalendarEntry, error) {
	query := `
		SELECT
			b.id, b.room_id, r.name, r.number, b.branch_id,
			b.status, b.booking_type, b.start_time, b.end_time,
			b.guest_name, b.guest_count, b.total_price
		FROM bookings b
		JOIN rooms r ON r.id = b.room_id
		WHERE b.branch_id = $1
		  AND b.status <> 'cancelled'
		  AND b.start_time >= $2
		  AND b.end_time <= $3
		ORDER BY b.start_time
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, branchID, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalendarEntry
	for rows.Next() {
		var e CalendarEntry
		if err := rows.Scan(
			&e.ID,
			&e.RoomID,
			&e.RoomName,
			&e.RoomNumber,
			&e.BranchID,
			&e.Status,
			&e.Type,
			&e.StartTime,
			&e.EndTime,
			&e.GuestName,
			&e.GuestCount,
			&e.TotalPrice,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListForDay returns the branch's non-cancelled bookings starting inside
// [dayStart, dayEnd), for the availability scan.
func (s *BookingsStore) ListForDay(ctx context.Context, branchID int64, dayStart, dayEnd time.Time) ([]Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE branch_id = $1
		  AND status <> 'cancelled'
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, branchID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListForRoomRange returns a room's non-cancelled bookings overlapping the
// given range, for grid cell classification.
func (s *BookingsStore) ListForRoomRange(ctx context.Context, roomID int64, from, to time.Time) ([]Booking, error) {
	query := `
		SELECT` + bookingColumns + `
		FROM bookings
		WHERE room_id = $1
		  AND status <> 'cancelled'
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, roomID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// isExclusionViolation reports whether an error is the bookings table's
// no-overlap exclusion constraint firing (SQLSTATE 23P01).
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// countConflicts runs the overlap scan inside an open transaction. The
// buffered range is computed by the caller; the interval test is the
// standard half-open overlap.
func countConflicts(ctx context.Context, tx pgx.Tx, roomID int64, bufferedStart, bufferedEnd time.Time, excludeID int64) (int, error) {
	query := `
		SELECT count(*)
		FROM bookings
		WHERE room_id = $1
		  AND status <> 'cancelled'
		  AND id <> $2
		  AND start_time < $3
		  AND end_time > $4
	`
	var n int
	err := tx.QueryRow(ctx, query, roomID, excludeID, bufferedEnd, bufferedStart).Scan(&n)
	return n, err
}

// CreateChecked inserts a booking after re-running the conflict check
// inside a transaction serialized per room by an advisory lock. Two
// concurrent requests for the same room cannot both pass the check, and
// the exclusion constraint backstops the insert either way.
func (s *BookingsStore) CreateChecked(ctx context.Context, b *Booking, bufferedStart, bufferedEnd time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, b.RoomID); err != nil {
		return fmt.Errorf("acquire room lock: %w", err)
	}

	n, err := countConflicts(ctx, tx, b.RoomID, bufferedStart, bufferedEnd, 0)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}

	query := `
		INSERT INTO bookings (
			reference, branch_id, room_id, booking_type, status,
			start_time, end_time, guest_count, guest_name, guest_phone,
			guest_email, guest_comment, base_price, discount_amount,
			total_price, source
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		b.Reference,
		b.BranchID,
		b.RoomID,
		b.Type,
		b.Status,
		b.StartTime,
		b.EndTime,
		b.GuestCount,
		b.GuestName,
		b.GuestPhone,
		b.GuestEmail,
		b.GuestComment,
		b.BasePrice,
		b.DiscountAmount,
		b.TotalPrice,
		b.Source,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			return ErrConflict
		}
		return err
	}

	return tx.Commit(ctx)
}

// UpdateChecked writes a booking back. When a buffered range is supplied
// the times changed: the conflict check re-runs against the booking's room,
// excluding the booking itself, under the same per-room lock as creation.
func (s *BookingsStore) UpdateChecked(ctx context.Context, b *Booking, bufferedStart, bufferedEnd *time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if bufferedStart != nil && bufferedEnd != nil {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, b.RoomID); err != nil {
			return fmt.Errorf("acquire room lock: %w", err)
		}
		n, err := countConflicts(ctx, tx, b.RoomID, *bufferedStart, *bufferedEnd, b.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
	}

	query := `
		UPDATE bookings
		SET status = $1, start_time = $2, end_time = $3, guest_count = $4,
		    guest_name = $5, guest_phone = $6, guest_email = $7,
		    guest_comment = $8, base_price = $9, discount_amount = $10,
		    total_price = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, query,
		b.Status,
		b.StartTime,
		b.EndTime,
		b.GuestCount,
		b.GuestName,
		b.GuestPhone,
		b.GuestEmail,
		b.GuestComment,
		b.BasePrice,
		b.DiscountAmount,
		b.TotalPrice,
		b.ID,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isExclusionViolation(err) {
			return ErrConflict
		}
		return err
	}

	return tx.Commit(ctx)
}
