package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/kafka"
	"github.com/avdeenkov/flightbook/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, userID int64, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, userID int64, code string) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	PayBooking(ctx context.Context, userID int64, code, method string) (*domain.Booking, error)
	ExpireUnpaidBookings(ctx context.Context) ([]domain.Booking, error)
}

type Cache interface {
	AcquireScheduleLock(ctx context.Context, scheduleID int64, ttl time.Duration) (bool, error)
	ReleaseScheduleLock(ctx context.Context, scheduleID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

const taxRatePercent = 10

type BookingService struct {
	bookings           repository.BookingRepository
	schedules          repository.ScheduleRepository
	notifications      repository.NotificationRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	paymentDue         time.Duration
	lockTTL            time.Duration
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	schedules repository.ScheduleRepository,
	notifications repository.NotificationRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	paymentDue, lockTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:      bookings,
		schedules:     schedules,
		notifications: notifications,
		cache:         cache,
		producer:      producer,
		eventsTopic:   eventsTopic,
		paymentDue:    paymentDue,
		lockTTL:       lockTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking runs the full validation sequence and persists the booking.
// Validation stops at the first failure and nothing is written until every
// rule has passed.
func (s *BookingService) CreateBooking(ctx context.Context, userID int64, input CreateBookingInput) (*domain.Booking, error) {
	if err := validateShape(input); err != nil {
		return nil, err
	}

	journey := domain.JourneyType(input.Itinerary.JourneyType)
	if !journey.Valid() {
		return nil, domain.BadRequest("journeyType must be One-way or Round-trip")
	}

	outbound, err := s.lookupSchedule(ctx, *input.Itinerary.Outbound, "outbound")
	if err != nil {
		return nil, err
	}

	now := s.now()
	if now.After(outbound.DepartureDateTime.Add(-BookingCutoff)) {
		return nil, domain.BadRequest(MsgBookingCutoff)
	}

	var inbound *domain.Schedule
	if journey == domain.JourneyTypeRoundTrip {
		if input.Itinerary.Inbound == nil {
			return nil, domain.BadRequest("inbound schedule is required for a round-trip booking")
		}
		inbound, err = s.lookupSchedule(ctx, *input.Itinerary.Inbound, "inbound")
		if err != nil {
			return nil, err
		}
		if !outbound.ArrivalDateTime.Before(inbound.DepartureDateTime) {
			return nil, domain.BadRequest("inbound departure must be after outbound arrival")
		}
	}

	if err := validateCounts(input.Passenger); err != nil {
		return nil, err
	}
	if err := validatePassengers(input.Passenger.Data, now); err != nil {
		return nil, err
	}

	total := *input.Passenger.Total
	if journey == domain.JourneyTypeRoundTrip && len(input.Seat.Inbound) == 0 {
		return nil, domain.BadRequest("seat.inbound is required for a round-trip booking")
	}

	takenOut, err := s.takenSeats(ctx, outbound.ID)
	if err != nil {
		return nil, err
	}
	if err := validateSeatLeg("outbound", input.Seat.Outbound, total, input.Passenger.Data, takenOut); err != nil {
		return nil, err
	}
	if inbound != nil {
		takenIn, err := s.takenSeats(ctx, inbound.ID)
		if err != nil {
			return nil, err
		}
		if err := validateSeatLeg("inbound", input.Seat.Inbound, total, input.Passenger.Data, takenIn); err != nil {
			return nil, err
		}
	}

	schedules := []*domain.Schedule{outbound}
	if inbound != nil {
		schedules = append(schedules, inbound)
	}
	for _, sc := range schedules {
		ok, err := s.cache.AcquireScheduleLock(ctx, sc.ID, s.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.BadRequest("another booking for this schedule is in progress, try again")
		}
		defer s.cache.ReleaseScheduleLock(ctx, sc.ID)
	}

	booking, err := s.buildBooking(userID, journey, input, outbound, inbound, now)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		var seatTaken *repository.SeatTakenError
		if errors.As(err, &seatTaken) {
			return nil, domain.BadRequest(fmt.Sprintf("seat %s is not available", seatTaken.SeatNumber))
		}
		if errors.Is(err, repository.ErrNotEnoughSeats) {
			return nil, domain.BadRequest("not enough seats available on the selected schedule")
		}
		return nil, err
	}

	s.notify(ctx, booking, "Booking Created",
		fmt.Sprintf("Your booking %s has been created. Complete payment before %s.",
			booking.Code, booking.Invoice.PaymentDueDateTime.Format(time.RFC3339)))
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// GetBooking returns a booking owned by the user. An unpaid booking whose
// payment window has lapsed is cancelled on the spot and the request fails
// with the expiry error, matching what the sweep would have done.
func (s *BookingService) GetBooking(ctx context.Context, userID int64, code string) (*domain.Booking, error) {
	booking, err := s.ownedBooking(ctx, userID, code)
	if err != nil {
		return nil, err
	}

	if booking.Status == domain.BookingStatusUnpaid && s.now().After(booking.Invoice.PaymentDueDateTime) {
		paid, err := s.bookings.HasPayment(ctx, booking.Invoice.ID)
		if err != nil {
			return nil, err
		}
		if !paid {
			cancelled, err := s.bookings.CancelExpired(ctx, booking.ID)
			if err != nil {
				return nil, err
			}
			if cancelled {
				booking.Status = domain.BookingStatusCancelled
				s.notify(ctx, booking, "Booking Cancelled",
					fmt.Sprintf("Your booking %s was cancelled because the payment window expired.", booking.Code))
				s.publish(ctx, kafka.EventBookingCancelled, booking)
			}
			return nil, domain.BadRequest(MsgPaymentWindowExpired)
		}
	}

	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) PayBooking(ctx context.Context, userID int64, code, method string) (*domain.Booking, error) {
	booking, err := s.ownedBooking(ctx, userID, code)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case domain.BookingStatusIssued:
		return nil, domain.BadRequest("booking has already been paid")
	case domain.BookingStatusCancelled:
		return nil, domain.BadRequest("booking has been cancelled")
	}

	if s.now().After(booking.Invoice.PaymentDueDateTime) {
		cancelled, err := s.bookings.CancelExpired(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		if cancelled {
			booking.Status = domain.BookingStatusCancelled
			s.notify(ctx, booking, "Booking Cancelled",
				fmt.Sprintf("Your booking %s was cancelled because the payment window expired.", booking.Code))
			s.publish(ctx, kafka.EventBookingCancelled, booking)
		}
		return nil, domain.BadRequest(MsgPaymentWindowExpired)
	}

	payment, err := s.bookings.RecordPayment(ctx, booking.ID, booking.Invoice.ID, method, booking.Invoice.Total)
	if err != nil {
		if errors.Is(err, repository.ErrNotUnpaid) {
			return nil, domain.BadRequest("booking is not awaiting payment")
		}
		return nil, err
	}

	booking.Status = domain.BookingStatusIssued
	s.notifyPayment(ctx, booking, payment)
	s.publish(ctx, kafka.EventBookingIssued, booking)
	return booking, nil
}

// ExpireUnpaidBookings cancels every unpaid booking whose payment due time has
// passed, releasing seat holds and emitting one notification per booking.
// Notification failures are logged and do not stop the sweep.
func (s *BookingService) ExpireUnpaidBookings(ctx context.Context) ([]domain.Booking, error) {
	overdue, err := s.bookings.ListExpiredUnpaid(ctx, s.now())
	if err != nil {
		return nil, err
	}

	var cancelled []domain.Booking
	for _, b := range overdue {
		ok, err := s.bookings.CancelExpired(ctx, b.ID)
		if err != nil {
			log.Printf("cancel expired booking %s: %v", b.Code, err)
			continue
		}
		if !ok {
			continue
		}
		b.Status = domain.BookingStatusCancelled
		s.notify(ctx, &b, "Booking Cancelled",
			fmt.Sprintf("Your booking %s was cancelled because the payment window expired.", b.Code))
		s.publish(ctx, kafka.EventBookingCancelled, &b)
		cancelled = append(cancelled, b)
	}
	return cancelled, nil
}

func (s *BookingService) lookupSchedule(ctx context.Context, id int64, leg string) (*domain.Schedule, error) {
	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.BadRequest(fmt.Sprintf("%s schedule does not exist", leg))
		}
		return nil, err
	}
	return schedule, nil
}

func (s *BookingService) ownedBooking(ctx context.Context, userID int64, code string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("booking not found")
		}
		return nil, err
	}
	if booking.UserID != userID {
		return nil, domain.NotFound("booking not found")
	}
	return booking, nil
}

func (s *BookingService) takenSeats(ctx context.Context, scheduleID int64) (map[string]bool, error) {
	numbers, err := s.schedules.BookedSeatNumbers(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		taken[n] = true
	}
	return taken, nil
}

func (s *BookingService) buildBooking(userID int64, journey domain.JourneyType, input CreateBookingInput, outbound, inbound *domain.Schedule, now time.Time) (*domain.Booking, error) {
	booking := &domain.Booking{
		Code:        uuid.NewString(),
		UserID:      userID,
		Status:      domain.BookingStatusUnpaid,
		JourneyType: journey,
		Itinerary:   []domain.Itinerary{{Leg: domain.LegOutbound, ScheduleID: outbound.ID}},
	}
	if inbound != nil {
		booking.Itinerary = append(booking.Itinerary, domain.Itinerary{Leg: domain.LegInbound, ScheduleID: inbound.ID})
	}

	for _, p := range input.Passenger.Data {
		birth, err := time.ParseInLocation(domain.DateLayout, p.BirthDate, time.UTC)
		if err != nil {
			return nil, domain.BadRequest("birthDate must be a date in YYYY-MM-DD format")
		}
		passenger := domain.Passenger{
			AgeGroup:       domain.AgeGroup(p.AgeGroup),
			Label:          p.Label,
			Title:          p.Title,
			FullName:       p.FullName,
			FamilyName:     p.FamilyName,
			BirthDate:      birth,
			Nationality:    p.Nationality,
			IdentityNumber: p.IdentityNumber,
			IssuingCountry: p.IssuingCountry,
		}
		if p.ExpiryDate != "" {
			expiry, err := time.ParseInLocation(domain.DateLayout, p.ExpiryDate, time.UTC)
			if err != nil {
				return nil, domain.BadRequest("expiryDate must be a date in YYYY-MM-DD format")
			}
			passenger.ExpiryDate = &expiry
		}
		booking.Passengers = append(booking.Passengers, passenger)
	}

	for _, a := range input.Seat.Outbound {
		booking.Seats = append(booking.Seats, domain.BookedSeat{
			ScheduleID:     outbound.ID,
			PassengerLabel: a.Label,
			SeatNumber:     a.SeatNumber,
		})
	}
	if inbound != nil {
		for _, a := range input.Seat.Inbound {
			booking.Seats = append(booking.Seats, domain.BookedSeat{
				ScheduleID:     inbound.ID,
				PassengerLabel: a.Label,
				SeatNumber:     a.SeatNumber,
			})
		}
	}

	seated := int64(*input.Passenger.Total)
	subtotal := outbound.TicketPrice * seated
	if inbound != nil {
		subtotal += inbound.TicketPrice * seated
	}
	tax := subtotal * taxRatePercent / 100
	booking.Invoice = &domain.Invoice{
		InvoiceNumber:      "INV-" + strings.ToUpper(uuid.NewString()[:8]),
		PaymentDueDateTime: now.Add(s.paymentDue),
		Subtotal:           subtotal,
		Tax:                tax,
		Total:              subtotal + tax,
	}
	return booking, nil
}

func (s *BookingService) notify(ctx context.Context, booking *domain.Booking, title, message string) {
	n := &domain.Notification{
		UserID:    booking.UserID,
		Title:     title,
		Message:   message,
		BookingID: &booking.ID,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		log.Printf("write notification for booking %s: %v", booking.Code, err)
	}
}

func (s *BookingService) notifyPayment(ctx context.Context, booking *domain.Booking, payment *domain.Payment) {
	n := &domain.Notification{
		UserID:    booking.UserID,
		Title:     "Payment Received",
		Message:   fmt.Sprintf("Your booking %s has been issued.", booking.Code),
		BookingID: &booking.ID,
		PaymentID: &payment.ID,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		log.Printf("write notification for booking %s: %v", booking.Code, err)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil {
		return
	}
	event := kafka.BookingEvent{
		Type:        eventType,
		BookingCode: booking.Code,
		UserID:      booking.UserID,
		Status:      string(booking.Status),
		OccurredAt:  s.now(),
	}
	switch eventType {
	case kafka.EventBookingCreated:
		event.Title = "Booking Created"
		event.Message = fmt.Sprintf("Booking %s created, awaiting payment.", booking.Code)
	case kafka.EventBookingIssued:
		event.Title = "Payment Received"
		event.Message = fmt.Sprintf("Booking %s has been issued.", booking.Code)
	case kafka.EventBookingCancelled:
		event.Title = "Booking Cancelled"
		event.Message = fmt.Sprintf("Booking %s was cancelled.", booking.Code)
	}
	if s.eventsTopic != "" {
		if err := s.producer.Publish(ctx, s.eventsTopic, booking.Code, event); err != nil {
			log.Printf("publish %s for booking %s: %v", eventType, booking.Code, err)
		}
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.Code, event); err != nil {
			log.Printf("publish notification for booking %s: %v", booking.Code, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
