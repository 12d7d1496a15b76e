package booking

import (
	"fmt"
	"strconv"
	"time"

	"github.com/avdeenkov/flightbook/internal/domain"
)

// CreateBookingInput mirrors the booking submission payload. Sections and
// counts are pointers so a missing field can be told apart from a zero.
type CreateBookingInput struct {
	Itinerary *ItineraryInput `json:"itinerary"`
	Passenger *PassengerInput `json:"passenger"`
	Seat      *SeatInput      `json:"seat"`
}

type ItineraryInput struct {
	JourneyType string `json:"journeyType"`
	Outbound    *int64 `json:"outbound"`
	Inbound     *int64 `json:"inbound"`
}

type PassengerInput struct {
	Total *int            `json:"total"`
	Adult *int            `json:"adult"`
	Child *int            `json:"child"`
	Baby  *int            `json:"baby"`
	Data  []PassengerData `json:"data"`
}

type PassengerData struct {
	AgeGroup       string `json:"ageGroup"`
	Label          string `json:"label"`
	Title          string `json:"title"`
	FullName       string `json:"fullName"`
	FamilyName     string `json:"familyName"`
	BirthDate      string `json:"birthDate"`
	Nationality    string `json:"nationality"`
	IdentityNumber string `json:"identityNumber"`
	IssuingCountry string `json:"issuingCountry"`
	ExpiryDate     string `json:"expiryDate"`
}

type SeatInput struct {
	Outbound []SeatAssignment `json:"outbound"`
	Inbound  []SeatAssignment `json:"inbound"`
}

type SeatAssignment struct {
	Label      string `json:"label"`
	SeatNumber string `json:"seatNumber"`
}

// BookingCutoff is how long before departure a schedule stops accepting
// bookings.
const BookingCutoff = 2 * time.Hour

const (
	MsgBookingCutoff        = "booking is closed within 2 hours of departure"
	MsgPaymentWindowExpired = "payment window for this booking has expired"
)

func validateShape(input CreateBookingInput) error {
	if input.Itinerary == nil {
		return domain.BadRequest("itinerary section is required")
	}
	if input.Passenger == nil {
		return domain.BadRequest("passenger section is required")
	}
	if input.Seat == nil {
		return domain.BadRequest("seat section is required")
	}
	if input.Itinerary.JourneyType == "" {
		return domain.BadRequest("itinerary.journeyType is required")
	}
	if input.Itinerary.Outbound == nil {
		return domain.BadRequest("itinerary.outbound is required")
	}
	p := input.Passenger
	if p.Total == nil || p.Adult == nil || p.Child == nil || p.Baby == nil {
		return domain.BadRequest("passenger.total, passenger.adult, passenger.child and passenger.baby are required")
	}
	if p.Data == nil {
		return domain.BadRequest("passenger.data is required")
	}
	if input.Seat.Outbound == nil {
		return domain.BadRequest("seat.outbound is required")
	}
	return nil
}

func validateCounts(p *PassengerInput) error {
	if *p.Total < 0 || *p.Adult < 0 || *p.Child < 0 || *p.Baby < 0 {
		return domain.BadRequest("passenger counts must be non-negative integers")
	}
	if *p.Total != *p.Adult+*p.Child {
		return domain.BadRequest("passenger.total must equal passenger.adult plus passenger.child")
	}
	if *p.Total == 0 {
		return domain.BadRequest("passenger.total must be greater than zero")
	}
	if len(p.Data) != *p.Total+*p.Baby {
		return domain.BadRequest("passenger.data must contain one record per seated passenger plus one per baby")
	}
	return nil
}

func validatePassengers(data []PassengerData, now time.Time) error {
	for i, p := range data {
		if err := validatePassenger(p, now); err != nil {
			return domain.BadRequest(fmt.Sprintf("passenger %d: %s", i+1, err.Error()))
		}
	}
	return nil
}

func validatePassenger(p PassengerData, now time.Time) error {
	group := domain.AgeGroup(p.AgeGroup)
	if !group.Valid() {
		return fmt.Errorf("ageGroup must be Adult, Child or Baby")
	}
	if group != domain.AgeGroupBaby {
		if !domain.PassengerLabelPattern.MatchString(p.Label) {
			return fmt.Errorf("label must be P1 through P72")
		}
		if !domain.ValidTitle(p.Title) {
			return fmt.Errorf("title must be one of Mr., Master, Mrs., Miss., Ms.")
		}
		if p.FullName == "" || isNumeric(p.FullName) {
			return fmt.Errorf("fullName must be a non-numeric name")
		}
		if p.FamilyName != "" && isNumeric(p.FamilyName) {
			return fmt.Errorf("familyName must be a non-numeric name")
		}
		if p.Nationality == "" || isNumeric(p.Nationality) {
			return fmt.Errorf("nationality must be a non-numeric value")
		}
		if p.IdentityNumber == "" {
			return fmt.Errorf("identityNumber is required")
		}
		if p.ExpiryDate != "" && !domain.DatePattern.MatchString(p.ExpiryDate) {
			return fmt.Errorf("expiryDate must be a date in YYYY-MM-DD format")
		}
	}
	if !domain.DatePattern.MatchString(p.BirthDate) {
		return fmt.Errorf("birthDate must be a date in YYYY-MM-DD format")
	}
	birth, err := time.ParseInLocation(domain.DateLayout, p.BirthDate, time.UTC)
	if err != nil {
		return fmt.Errorf("birthDate must be a date in YYYY-MM-DD format")
	}
	age := yearsBetween(birth, now)
	switch group {
	case domain.AgeGroupAdult:
		if age < domain.AdultMinAge {
			return fmt.Errorf("age %d does not match age group Adult", age)
		}
	case domain.AgeGroupChild:
		if age < domain.ChildMinAge || age >= domain.AdultMinAge {
			return fmt.Errorf("age %d does not match age group Child", age)
		}
	case domain.AgeGroupBaby:
		if age >= domain.ChildMinAge {
			return fmt.Errorf("age %d does not match age group Baby", age)
		}
	}
	return nil
}

// validateSeatLeg checks one leg's seat assignments against the passenger
// manifest and the seats already taken on that schedule.
func validateSeatLeg(leg string, assignments []SeatAssignment, total int, passengers []PassengerData, taken map[string]bool) error {
	if len(assignments) != total {
		return domain.BadRequest(fmt.Sprintf("seat.%s must contain exactly %d assignments", leg, total))
	}
	seated := make(map[string]bool, len(passengers))
	for _, p := range passengers {
		if domain.AgeGroup(p.AgeGroup) != domain.AgeGroupBaby {
			seated[p.Label] = true
		}
	}
	seen := make(map[string]bool, len(assignments))
	seenLabel := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if !seated[a.Label] {
			return domain.BadRequest(fmt.Sprintf("seat label %s does not match any seated passenger", a.Label))
		}
		if seenLabel[a.Label] {
			return domain.BadRequest(fmt.Sprintf("passenger %s has more than one seat assignment", a.Label))
		}
		seenLabel[a.Label] = true
		if !domain.SeatNumberPattern.MatchString(a.SeatNumber) {
			return domain.BadRequest(fmt.Sprintf("seat number %s is invalid", a.SeatNumber))
		}
		if seen[a.SeatNumber] {
			return domain.BadRequest(fmt.Sprintf("seat %s is assigned more than once", a.SeatNumber))
		}
		seen[a.SeatNumber] = true
		if taken[a.SeatNumber] {
			return domain.BadRequest(fmt.Sprintf("seat %s is not available", a.SeatNumber))
		}
	}
	return nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func yearsBetween(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	anniversary := birth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}
