package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotEnoughSeats = errors.New("not enough seats available")
	ErrNotUnpaid      = errors.New("booking is not unpaid")
)

// SeatTakenError reports the exact seat that lost the race to another booking.
type SeatTakenError struct {
	SeatNumber string
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %s is no longer available", e.SeatNumber)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByCode(ctx context.Context, code string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	HasPayment(ctx context.Context, invoiceID int64) (bool, error)
	RecordPayment(ctx context.Context, bookingID, invoiceID int64, method string, amount int64) (*domain.Payment, error)
	ListExpiredUnpaid(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	CancelExpired(ctx context.Context, bookingID int64) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

// Create persists the whole booking in one transaction: seat counters are
// decremented with a conditional update and seat rows inserted under the
// (schedule_id, seat_number) uniqueness guard, so two concurrent bookings
// can never both take the same seat.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	seatsPerSchedule := make(map[int64]int)
	for _, seat := range booking.Seats {
		seatsPerSchedule[seat.ScheduleID]++
	}
	for scheduleID, n := range seatsPerSchedule {
		cmd, err := tx.Exec(ctx, `UPDATE schedules SET seat_availability = seat_availability - $1, updated_at = now()
			WHERE id = $2 AND seat_availability >= $1`, n, scheduleID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrNotEnoughSeats
		}
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings (code, user_id, status, journey_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		booking.Code, booking.UserID, string(booking.Status), string(booking.JourneyType)).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	for i := range booking.Itinerary {
		booking.Itinerary[i].BookingID = booking.ID
		if _, err := tx.Exec(ctx, `INSERT INTO itineraries (booking_id, leg, schedule_id) VALUES ($1, $2, $3)`,
			booking.ID, string(booking.Itinerary[i].Leg), booking.Itinerary[i].ScheduleID); err != nil {
			return err
		}
	}

	for i := range booking.Passengers {
		p := &booking.Passengers[i]
		p.BookingID = booking.ID
		if err := tx.QueryRow(ctx, `INSERT INTO passengers (booking_id, age_group, label, title, full_name, family_name, birth_date, nationality, identity_number, issuing_country, expiry_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			booking.ID, string(p.AgeGroup), p.Label, p.Title, p.FullName, p.FamilyName, p.BirthDate,
			p.Nationality, p.IdentityNumber, p.IssuingCountry, p.ExpiryDate).
			Scan(&p.ID); err != nil {
			return err
		}
	}

	for i := range booking.Seats {
		seat := &booking.Seats[i]
		seat.BookingID = booking.ID
		cmd, err := tx.Exec(ctx, `INSERT INTO booked_seats (booking_id, schedule_id, passenger_label, seat_number)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (schedule_id, seat_number) DO NOTHING`,
			booking.ID, seat.ScheduleID, seat.PassengerLabel, seat.SeatNumber)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return &SeatTakenError{SeatNumber: seat.SeatNumber}
		}
	}

	inv := booking.Invoice
	inv.BookingID = booking.ID
	if err := tx.QueryRow(ctx, `INSERT INTO invoices (booking_id, invoice_number, payment_due_datetime, subtotal, tax, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		booking.ID, inv.InvoiceNumber, inv.PaymentDueDateTime, inv.Subtotal, inv.Tax, inv.Total).
		Scan(&inv.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT b.id, b.code, b.user_id, b.status, b.journey_type, b.created_at, b.updated_at,
		i.id, i.invoice_number, i.payment_due_datetime, i.subtotal, i.tax, i.total
		FROM bookings b
		JOIN invoices i ON i.booking_id = b.id
		WHERE b.code=$1`, code)

	var b domain.Booking
	var inv domain.Invoice
	if err := row.Scan(&b.ID, &b.Code, &b.UserID, &b.Status, &b.JourneyType, &b.CreatedAt, &b.UpdatedAt,
		&inv.ID, &inv.InvoiceNumber, &inv.PaymentDueDateTime, &inv.Subtotal, &inv.Tax, &inv.Total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	inv.BookingID = b.ID
	b.Invoice = &inv

	if err := r.loadItinerary(ctx, &b); err != nil {
		return nil, err
	}
	if err := r.loadPassengers(ctx, &b); err != nil {
		return nil, err
	}
	if err := r.loadSeats(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) loadItinerary(ctx context.Context, b *domain.Booking) error {
	rows, err := r.db.Query(ctx, `SELECT it.leg, it.schedule_id, sc.departure_datetime, sc.arrival_datetime, sc.duration_minutes, sc.seat_class, sc.ticket_price, sc.seat_availability, sc.flight_id
		FROM itineraries it
		JOIN schedules sc ON sc.id = it.schedule_id
		WHERE it.booking_id=$1
		ORDER BY it.leg DESC`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.Itinerary
		var sc domain.Schedule
		if err := rows.Scan(&it.Leg, &it.ScheduleID, &sc.DepartureDateTime, &sc.ArrivalDateTime,
			&sc.DurationMinutes, &sc.SeatClass, &sc.TicketPrice, &sc.SeatAvailability, &sc.FlightID); err != nil {
			return err
		}
		sc.ID = it.ScheduleID
		it.BookingID = b.ID
		it.Schedule = &sc
		b.Itinerary = append(b.Itinerary, it)
	}
	return rows.Err()
}

func (r *PGBookingRepository) loadPassengers(ctx context.Context, b *domain.Booking) error {
	rows, err := r.db.Query(ctx, `SELECT id, age_group, label, title, full_name, family_name, birth_date, nationality, identity_number, issuing_country, expiry_date
		FROM passengers WHERE booking_id=$1 ORDER BY id`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		p := domain.Passenger{BookingID: b.ID}
		if err := rows.Scan(&p.ID, &p.AgeGroup, &p.Label, &p.Title, &p.FullName, &p.FamilyName,
			&p.BirthDate, &p.Nationality, &p.IdentityNumber, &p.IssuingCountry, &p.ExpiryDate); err != nil {
			return err
		}
		b.Passengers = append(b.Passengers, p)
	}
	return rows.Err()
}

func (r *PGBookingRepository) loadSeats(ctx context.Context, b *domain.Booking) error {
	rows, err := r.db.Query(ctx, `SELECT id, schedule_id, passenger_label, seat_number
		FROM booked_seats WHERE booking_id=$1 ORDER BY id`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		seat := domain.BookedSeat{BookingID: b.ID}
		if err := rows.Scan(&seat.ID, &seat.ScheduleID, &seat.PassengerLabel, &seat.SeatNumber); err != nil {
			return err
		}
		b.Seats = append(b.Seats, seat)
	}
	return rows.Err()
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.code, b.user_id, b.status, b.journey_type, b.created_at, b.updated_at,
		i.id, i.invoice_number, i.payment_due_datetime, i.subtotal, i.tax, i.total
		FROM bookings b
		JOIN invoices i ON i.booking_id = b.id
		WHERE b.user_id=$1
		ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		var inv domain.Invoice
		if err := rows.Scan(&b.ID, &b.Code, &b.UserID, &b.Status, &b.JourneyType, &b.CreatedAt, &b.UpdatedAt,
			&inv.ID, &inv.InvoiceNumber, &inv.PaymentDueDateTime, &inv.Subtotal, &inv.Tax, &inv.Total); err != nil {
			return nil, err
		}
		inv.BookingID = b.ID
		b.Invoice = &inv
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) HasPayment(ctx context.Context, invoiceID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE invoice_id=$1)`, invoiceID).Scan(&exists)
	return exists, err
}

// RecordPayment flips the booking to Issued and writes the payment row in one
// transaction. The conditional update keeps Issued and Cancelled terminal.
func (r *PGBookingRepository) RecordPayment(ctx context.Context, bookingID, invoiceID int64, method string, amount int64) (*domain.Payment, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`,
		string(domain.BookingStatusIssued), bookingID, string(domain.BookingStatusUnpaid))
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrNotUnpaid
	}

	payment := &domain.Payment{InvoiceID: invoiceID, Method: method, Amount: amount}
	if err := tx.QueryRow(ctx, `INSERT INTO payments (invoice_id, method, amount) VALUES ($1, $2, $3) RETURNING id, paid_at`,
		invoiceID, method, amount).Scan(&payment.ID, &payment.PaidAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *PGBookingRepository) ListExpiredUnpaid(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.code, b.user_id, b.status, b.journey_type, b.created_at, b.updated_at
		FROM bookings b
		JOIN invoices i ON i.booking_id = b.id
		WHERE b.status=$1 AND i.payment_due_datetime <= $2
		AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.invoice_id = i.id)`,
		string(domain.BookingStatusUnpaid), deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.Code, &b.UserID, &b.Status, &b.JourneyType, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CancelExpired transitions an unpaid booking to Cancelled and releases its
// seat holds. The status guard makes the transition idempotent: a second call
// for the same booking affects no row and releases nothing.
func (r *PGBookingRepository) CancelExpired(ctx context.Context, bookingID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`,
		string(domain.BookingStatusCancelled), bookingID, string(domain.BookingStatusUnpaid))
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 0 {
		return false, nil
	}

	rows, err := tx.Query(ctx, `DELETE FROM booked_seats WHERE booking_id=$1 RETURNING schedule_id`, bookingID)
	if err != nil {
		return false, err
	}
	released := make(map[int64]int)
	for rows.Next() {
		var scheduleID int64
		if err := rows.Scan(&scheduleID); err != nil {
			rows.Close()
			return false, err
		}
		released[scheduleID]++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}

	for scheduleID, n := range released {
		if _, err := tx.Exec(ctx, `UPDATE schedules SET seat_availability = seat_availability + $1, updated_at = now() WHERE id=$2`, n, scheduleID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
