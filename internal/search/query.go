package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avdeenkov/flightbook/internal/domain"
)

// UnknownCityID is the sentinel filter value for a city name that does not
// resolve. It matches no row, so an unknown city yields an empty result
// instead of an error.
const UnknownCityID int64 = -1

// CityResolver looks up a city identifier by its exact name.
type CityResolver interface {
	CityIDByName(ctx context.Context, name string) (int64, bool, error)
}

// SearchParams carries the raw query-string values of a schedule search.
type SearchParams struct {
	DepartureCity string // dpCity
	ArrivalCity   string // arCity
	DepartureDate string // dpDate, YYYY-MM-DD
	SeatClass     string
	MinPrice      string
	MaxPrice      string
	Passengers    string // psg, "adults.children[.babies]"
	Facility      string // dot-separated tokens: wifi, meal, entertainment
	Sort          string
}

type PassengerCounts struct {
	Adults   int
	Children int
	Babies   int
}

// SeatsNeeded is the number of seats the search must find available.
// Babies travel on a lap and occupy no seat.
func (p PassengerCounts) SeatsNeeded() int {
	return p.Adults + p.Children
}

type ScheduleFilter struct {
	DepartureCityID *int64
	ArrivalCityID   *int64
	DepartureFrom   *time.Time
	DepartureTo     *time.Time
	SeatClass       *domain.SeatClass
	MinPrice        int64
	MaxPrice        *int64
	MinSeats        int
	Amenities       []string
}

type SortField string

const (
	SortPrice         SortField = "ticket_price"
	SortDuration      SortField = "duration_minutes"
	SortDepartureTime SortField = "departure_datetime"
	SortArrivalTime   SortField = "arrival_datetime"
)

type Order struct {
	Field      SortField
	Descending bool
}

type ScheduleQuery struct {
	Filter     ScheduleFilter
	Order      Order
	Passengers PassengerCounts
}

var sortKeys = map[string]SortField{
	"price":    SortPrice,
	"duration": SortDuration,
	"dpTime":   SortDepartureTime,
	"arTime":   SortArrivalTime,
}

const sortAllowed = "price, -price, duration, -duration, dpTime, -dpTime, arTime, -arTime"

var facilityTitles = map[string]string{
	"wifi":          domain.AmenityWiFi,
	"meal":          domain.AmenityMeal,
	"entertainment": domain.AmenityEntertainment,
}

// BuildScheduleQuery translates raw search parameters into a filter and sort
// order for the schedule repository. City lookups fail closed: a name that
// resolves to nothing becomes a filter on UnknownCityID.
func BuildScheduleQuery(ctx context.Context, params SearchParams, cities CityResolver) (ScheduleQuery, error) {
	var q ScheduleQuery

	if params.DepartureCity != "" {
		id, err := resolveCity(ctx, cities, params.DepartureCity)
		if err != nil {
			return q, err
		}
		q.Filter.DepartureCityID = &id
	}
	if params.ArrivalCity != "" {
		id, err := resolveCity(ctx, cities, params.ArrivalCity)
		if err != nil {
			return q, err
		}
		q.Filter.ArrivalCityID = &id
	}

	if params.DepartureDate != "" {
		if !domain.DatePattern.MatchString(params.DepartureDate) {
			return q, domain.BadRequest("dpDate must be a date in YYYY-MM-DD format")
		}
		day, err := time.ParseInLocation(domain.DateLayout, params.DepartureDate, time.UTC)
		if err != nil {
			return q, domain.BadRequest("dpDate must be a date in YYYY-MM-DD format")
		}
		from := day
		to := day.Add(24*time.Hour - time.Second)
		q.Filter.DepartureFrom = &from
		q.Filter.DepartureTo = &to
	}

	if params.SeatClass != "" {
		class := domain.SeatClass(params.SeatClass)
		if !class.Valid() {
			return q, domain.BadRequest("seatClass must be one of Economy, Premium Economy, Business, First Class")
		}
		q.Filter.SeatClass = &class
	}

	if params.MinPrice != "" {
		min, err := strconv.ParseInt(params.MinPrice, 10, 64)
		if err != nil || min < 0 {
			return q, domain.BadRequest("minPrice must be a non-negative integer")
		}
		q.Filter.MinPrice = min
	}
	if params.MaxPrice != "" {
		max, err := strconv.ParseInt(params.MaxPrice, 10, 64)
		if err != nil || max < 0 {
			return q, domain.BadRequest("maxPrice must be a non-negative integer")
		}
		q.Filter.MaxPrice = &max
	}

	if params.Passengers != "" {
		counts, err := ParsePassengerCounts(params.Passengers)
		if err != nil {
			return q, err
		}
		q.Passengers = counts
		q.Filter.MinSeats = counts.SeatsNeeded()
	}

	if params.Facility != "" {
		amenities, err := parseFacility(params.Facility)
		if err != nil {
			return q, err
		}
		q.Filter.Amenities = amenities
	}

	order, err := parseSort(params.Sort)
	if err != nil {
		return q, err
	}
	q.Order = order

	return q, nil
}

func resolveCity(ctx context.Context, cities CityResolver, name string) (int64, error) {
	id, found, err := cities.CityIDByName(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("resolve city %q: %w", name, err)
	}
	if !found {
		return UnknownCityID, nil
	}
	return id, nil
}

// ParsePassengerCounts parses the psg parameter, "adults.children" with an
// optional ".babies" third token.
func ParsePassengerCounts(psg string) (PassengerCounts, error) {
	var counts PassengerCounts
	tokens := strings.Split(psg, ".")
	if len(tokens) < 2 || len(tokens) > 3 {
		return counts, domain.BadRequest("psg must be in the form adults.children or adults.children.babies")
	}
	values := make([]int, len(tokens))
	for i, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 {
			return counts, domain.BadRequest("psg must be in the form adults.children or adults.children.babies")
		}
		values[i] = n
	}
	counts.Adults = values[0]
	counts.Children = values[1]
	if len(values) == 3 {
		counts.Babies = values[2]
	}
	return counts, nil
}

func parseFacility(facility string) ([]string, error) {
	tokens := strings.Split(facility, ".")
	amenities := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		title, ok := facilityTitles[tok]
		if !ok {
			return nil, domain.BadRequest(fmt.Sprintf("unknown facility %q: allowed values are wifi, meal, entertainment", tok))
		}
		amenities = append(amenities, title)
	}
	return amenities, nil
}

func parseSort(sort string) (Order, error) {
	if sort == "" {
		sort = "dpTime"
	}
	key := sort
	desc := false
	if strings.HasPrefix(sort, "-") {
		key = sort[1:]
		desc = true
	}
	field, ok := sortKeys[key]
	if !ok {
		return Order{}, domain.BadRequest("sort must be one of " + sortAllowed)
	}
	return Order{Field: field, Descending: desc}, nil
}
