package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/search"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type ScheduleRepository interface {
	Search(ctx context.Context, query search.ScheduleQuery) ([]domain.Schedule, error)
	GetByID(ctx context.Context, id int64) (*domain.Schedule, error)
	CountDeals(ctx context.Context) (int, error)
	ListDeals(ctx context.Context, limit, offset int) ([]domain.Schedule, error)
	Create(ctx context.Context, schedule *domain.Schedule) error
	Update(ctx context.Context, schedule *domain.Schedule) error
	Delete(ctx context.Context, id int64) error
	CityIDByName(ctx context.Context, name string) (int64, bool, error)
	BookedSeatNumbers(ctx context.Context, scheduleID int64) ([]string, error)
}

type PGScheduleRepository struct {
	db *pgxpool.Pool
}

func NewScheduleRepository(db *pgxpool.Pool) ScheduleRepository {
	return &PGScheduleRepository{db: db}
}

const scheduleColumns = `
	sc.id, sc.flight_id, sc.departure_datetime, sc.arrival_datetime, sc.duration_minutes,
	sc.seat_class, sc.ticket_price, sc.seat_availability, sc.created_at, sc.updated_at,
	f.airline_id, al.name, al.code,
	dpa.id, dpa.name, dpa.code, dpc.id, dpc.name, dpc.code,
	ara.id, ara.name, ara.code, arc.id, arc.name, arc.code`

const scheduleJoins = `
	FROM schedules sc
	JOIN flights f ON f.id = sc.flight_id
	JOIN airlines al ON al.id = f.airline_id
	JOIN airports dpa ON dpa.id = f.departure_airport_id
	JOIN cities dpc ON dpc.id = dpa.city_id
	JOIN airports ara ON ara.id = f.arrival_airport_id
	JOIN cities arc ON arc.id = ara.city_id`

func (r *PGScheduleRepository) Search(ctx context.Context, query search.ScheduleQuery) ([]domain.Schedule, error) {
	where := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	f := query.Filter
	if f.DepartureCityID != nil {
		where = append(where, "dpc.id = "+arg(*f.DepartureCityID))
	}
	if f.ArrivalCityID != nil {
		where = append(where, "arc.id = "+arg(*f.ArrivalCityID))
	}
	if f.DepartureFrom != nil {
		where = append(where, "sc.departure_datetime >= "+arg(*f.DepartureFrom))
	}
	if f.DepartureTo != nil {
		where = append(where, "sc.departure_datetime <= "+arg(*f.DepartureTo))
	}
	if f.SeatClass != nil {
		where = append(where, "sc.seat_class = "+arg(string(*f.SeatClass)))
	}
	if f.MinPrice > 0 {
		where = append(where, "sc.ticket_price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "sc.ticket_price <= "+arg(*f.MaxPrice))
	}
	if f.MinSeats > 0 {
		where = append(where, "sc.seat_availability >= "+arg(f.MinSeats))
	}
	for _, amenity := range f.Amenities {
		where = append(where, `EXISTS (
			SELECT 1 FROM flight_services fs
			JOIN services s ON s.id = fs.service_id
			WHERE fs.flight_id = f.id AND s.title = `+arg(amenity)+")")
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	direction := "ASC"
	if query.Order.Descending {
		direction = "DESC"
	}
	orderBy := fmt.Sprintf(" ORDER BY sc.%s %s", query.Order.Field, direction)

	rows, err := r.db.Query(ctx, "SELECT"+scheduleColumns+scheduleJoins+cond+orderBy, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSchedules(rows)
}

func (r *PGScheduleRepository) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	rows, err := r.db.Query(ctx, "SELECT"+scheduleColumns+scheduleJoins+" WHERE sc.id=$1", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules, err := scanSchedules(rows)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, ErrNotFound
	}
	sc := schedules[0]

	services, err := r.flightServices(ctx, sc.FlightID)
	if err != nil {
		return nil, err
	}
	sc.Flight.Services = services
	return &sc, nil
}

func (r *PGScheduleRepository) flightServices(ctx context.Context, flightID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT s.title FROM flight_services fs JOIN services s ON s.id = fs.service_id WHERE fs.flight_id=$1 ORDER BY s.title`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

func (r *PGScheduleRepository) CountDeals(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM schedules WHERE departure_datetime > now()`).Scan(&total)
	return total, err
}

func (r *PGScheduleRepository) ListDeals(ctx context.Context, limit, offset int) ([]domain.Schedule, error) {
	rows, err := r.db.Query(ctx, "SELECT"+scheduleColumns+scheduleJoins+
		" WHERE sc.departure_datetime > now() ORDER BY sc.ticket_price ASC, sc.id ASC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSchedules(rows)
}

func (r *PGScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	return r.db.QueryRow(ctx, `INSERT INTO schedules (flight_id, departure_datetime, arrival_datetime, duration_minutes, seat_class, ticket_price, seat_availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		schedule.FlightID, schedule.DepartureDateTime, schedule.ArrivalDateTime, schedule.DurationMinutes,
		string(schedule.SeatClass), schedule.TicketPrice, schedule.SeatAvailability).
		Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)
}

func (r *PGScheduleRepository) Update(ctx context.Context, schedule *domain.Schedule) error {
	cmd, err := r.db.Exec(ctx, `UPDATE schedules SET flight_id=$1, departure_datetime=$2, arrival_datetime=$3, duration_minutes=$4, seat_class=$5, ticket_price=$6, updated_at=now() WHERE id=$7`,
		schedule.FlightID, schedule.DepartureDateTime, schedule.ArrivalDateTime, schedule.DurationMinutes,
		string(schedule.SeatClass), schedule.TicketPrice, schedule.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGScheduleRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM schedules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGScheduleRepository) CityIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM cities WHERE name=$1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *PGScheduleRepository) BookedSeatNumbers(ctx context.Context, scheduleID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT bs.seat_number FROM booked_seats bs
		JOIN bookings b ON b.id = bs.booking_id
		WHERE bs.schedule_id=$1 AND b.status <> $2`, scheduleID, string(domain.BookingStatusCancelled))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []string
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

func scanSchedules(rows pgx.Rows) ([]domain.Schedule, error) {
	schedules := make([]domain.Schedule, 0)
	for rows.Next() {
		var (
			sc       domain.Schedule
			airline  domain.Airline
			dpa, ara domain.Airport
			dpc, arc domain.City
		)
		if err := rows.Scan(
			&sc.ID, &sc.FlightID, &sc.DepartureDateTime, &sc.ArrivalDateTime, &sc.DurationMinutes,
			&sc.SeatClass, &sc.TicketPrice, &sc.SeatAvailability, &sc.CreatedAt, &sc.UpdatedAt,
			&airline.ID, &airline.Name, &airline.Code,
			&dpa.ID, &dpa.Name, &dpa.Code, &dpc.ID, &dpc.Name, &dpc.Code,
			&ara.ID, &ara.Name, &ara.Code, &arc.ID, &arc.Name, &arc.Code,
		); err != nil {
			return nil, err
		}
		dpa.City = &dpc
		dpa.CityID = dpc.ID
		ara.City = &arc
		ara.CityID = arc.ID
		sc.Flight = &domain.Flight{
			ID:                 sc.FlightID,
			AirlineID:          airline.ID,
			DepartureAirportID: dpa.ID,
			ArrivalAirportID:   ara.ID,
			Airline:            &airline,
			DepartureAirport:   &dpa,
			ArrivalAirport:     &ara,
		}
		schedules = append(schedules, sc)
	}
	return schedules, rows.Err()
}

var _ ScheduleRepository = (*PGScheduleRepository)(nil)
