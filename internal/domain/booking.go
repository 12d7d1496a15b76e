package domain

import (
	"regexp"
	"time"
)

type BookingStatus string

const (
	BookingStatusUnpaid    BookingStatus = "Unpaid"
	BookingStatusIssued    BookingStatus = "Issued"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

type JourneyType string

const (
	JourneyTypeOneWay    JourneyType = "One-way"
	JourneyTypeRoundTrip JourneyType = "Round-trip"
)

func (j JourneyType) Valid() bool {
	return j == JourneyTypeOneWay || j == JourneyTypeRoundTrip
}

type ItineraryLeg string

const (
	LegOutbound ItineraryLeg = "Outbound"
	LegInbound  ItineraryLeg = "Inbound"
)

type AgeGroup string

const (
	AgeGroupAdult AgeGroup = "Adult"
	AgeGroupChild AgeGroup = "Child"
	AgeGroupBaby  AgeGroup = "Baby"
)

func (g AgeGroup) Valid() bool {
	return g == AgeGroupAdult || g == AgeGroupChild || g == AgeGroupBaby
}

// Age bands as of the moment a booking is submitted.
const (
	AdultMinAge = 12
	ChildMinAge = 2
)

var PassengerTitles = []string{"Mr.", "Master", "Mrs.", "Miss.", "Ms."}

func ValidTitle(t string) bool {
	for _, known := range PassengerTitles {
		if t == known {
			return true
		}
	}
	return false
}

// Grammars for user-supplied identifiers. Seat numbers cover the fixed
// 6x12 cabin layout, passenger labels run P1..P72.
var (
	SeatNumberPattern     = regexp.MustCompile(`^[A-F](1[0-2]|[1-9])$`)
	PassengerLabelPattern = regexp.MustCompile(`^P(7[0-2]|[1-6][0-9]|[1-9])$`)
	DatePattern           = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

const DateLayout = "2006-01-02"

type Booking struct {
	ID          int64
	Code        string
	UserID      int64
	Status      BookingStatus
	JourneyType JourneyType
	Itinerary   []Itinerary
	Passengers  []Passenger
	Seats       []BookedSeat
	Invoice     *Invoice
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Itinerary struct {
	BookingID  int64
	Leg        ItineraryLeg
	ScheduleID int64
	Schedule   *Schedule
}

type Passenger struct {
	ID             int64
	BookingID      int64
	AgeGroup       AgeGroup
	Label          string
	Title          string
	FullName       string
	FamilyName     string
	BirthDate      time.Time
	Nationality    string
	IdentityNumber string
	IssuingCountry string
	ExpiryDate     *time.Time
}

type BookedSeat struct {
	ID             int64
	BookingID      int64
	ScheduleID     int64
	PassengerLabel string
	SeatNumber     string
}

type Invoice struct {
	ID                 int64
	BookingID          int64
	InvoiceNumber      string
	PaymentDueDateTime time.Time
	Subtotal           int64
	Tax                int64
	Total              int64
}

type Payment struct {
	ID        int64
	InvoiceID int64
	Method    string
	Amount    int64
	PaidAt    time.Time
}
