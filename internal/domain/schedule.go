package domain

import "time"

type SeatClass string

const (
	SeatClassEconomy        SeatClass = "Economy"
	SeatClassPremiumEconomy SeatClass = "Premium Economy"
	SeatClassBusiness       SeatClass = "Business"
	SeatClassFirstClass     SeatClass = "First Class"
)

func (c SeatClass) Valid() bool {
	switch c {
	case SeatClassEconomy, SeatClassPremiumEconomy, SeatClassBusiness, SeatClassFirstClass:
		return true
	}
	return false
}

// Canonical amenity titles as stored in the services table.
const (
	AmenityWiFi          = "WiFi"
	AmenityMeal          = "In-Flight Meal"
	AmenityEntertainment = "In-Flight Entertainment"
)

// Seat layout: 6 columns A-F, 12 rows, 72 seats per schedule.
const (
	SeatColumns      = 6
	SeatRows         = 12
	SeatsPerSchedule = SeatColumns * SeatRows
)

type City struct {
	ID   int64
	Name string
	Code string
}

type Airport struct {
	ID     int64
	CityID int64
	Name   string
	Code   string
	City   *City
}

type Airline struct {
	ID   int64
	Name string
	Code string
}

type Flight struct {
	ID                 int64
	AirlineID          int64
	DepartureAirportID int64
	ArrivalAirportID   int64
	Airline            *Airline
	DepartureAirport   *Airport
	ArrivalAirport     *Airport
	Services           []string
}

type Schedule struct {
	ID                int64
	FlightID          int64
	DepartureDateTime time.Time
	ArrivalDateTime   time.Time
	DurationMinutes   int
	SeatClass         SeatClass
	TicketPrice       int64
	SeatAvailability  int
	Flight            *Flight
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
