package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/search"
	"github.com/avdeenkov/flightbook/internal/service/schedules"
	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	service schedules.ScheduleUseCase
}

type scheduleRequest struct {
	FlightID          int64  `json:"flightId"`
	DepartureDateTime string `json:"departureDateTime"`
	ArrivalDateTime   string `json:"arrivalDateTime"`
	SeatClass         string `json:"seatClass"`
	TicketPrice       int64  `json:"ticketPrice"`
}

type scheduleResponse struct {
	ID                int64    `json:"id"`
	Airline           string   `json:"airline"`
	DepartureAirport  string   `json:"departureAirport"`
	DepartureCity     string   `json:"departureCity"`
	ArrivalAirport    string   `json:"arrivalAirport"`
	ArrivalCity       string   `json:"arrivalCity"`
	DepartureDateTime string   `json:"departureDateTime"`
	ArrivalDateTime   string   `json:"arrivalDateTime"`
	DurationMinutes   int      `json:"durationMinutes"`
	SeatClass         string   `json:"seatClass"`
	TicketPrice       int64    `json:"ticketPrice"`
	SeatAvailability  int      `json:"seatAvailability"`
	Services          []string `json:"services,omitempty"`
}

func NewScheduleHandler(service schedules.ScheduleUseCase) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

func (h *ScheduleHandler) Register(public, admin *gin.RouterGroup) {
	public.GET("", h.search)
	public.GET("/deals", h.deals)
	public.GET("/:id", h.get)
	admin.POST("", h.create)
	admin.PUT("/:id", h.update)
	admin.DELETE("/:id", h.delete)
}

func (h *ScheduleHandler) search(c *gin.Context) {
	params := search.SearchParams{
		DepartureCity: c.Query("dpCity"),
		ArrivalCity:   c.Query("arCity"),
		DepartureDate: c.Query("dpDate"),
		SeatClass:     c.Query("seatClass"),
		MinPrice:      c.Query("minPrice"),
		MaxPrice:      c.Query("maxPrice"),
		Passengers:    c.Query("psg"),
		Facility:      c.Query("facility"),
		Sort:          c.Query("sort"),
	}

	result, err := h.service.Search(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	if len(result) == 0 {
		success(c, http.StatusOK, msgNoSchedules, []scheduleResponse{})
		return
	}
	success(c, http.StatusOK, "schedules retrieved successfully", toScheduleResponses(result))
}

func (h *ScheduleHandler) deals(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			fail(c, domain.BadRequest("page must be an integer"))
			return
		}
		page = parsed
	}

	deals, pagination, err := h.service.Deals(c.Request.Context(), page)
	if err != nil {
		fail(c, err)
		return
	}
	successPaginated(c, http.StatusOK, "deals retrieved successfully", toScheduleResponses(deals), pagination)
}

func (h *ScheduleHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, domain.BadRequest("invalid schedule id"))
		return
	}
	schedule, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, "schedule retrieved successfully", toScheduleResponse(*schedule))
}

func (h *ScheduleHandler) create(c *gin.Context) {
	schedule, err := h.bindSchedule(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), schedule); err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, "schedule created successfully", toScheduleResponse(*schedule))
}

func (h *ScheduleHandler) update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, domain.BadRequest("invalid schedule id"))
		return
	}
	schedule, err := h.bindSchedule(c)
	if err != nil {
		fail(c, err)
		return
	}
	schedule.ID = id
	if err := h.service.Update(c.Request.Context(), schedule); err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, "schedule updated successfully", toScheduleResponse(*schedule))
}

func (h *ScheduleHandler) delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, domain.BadRequest("invalid schedule id"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, "schedule deleted successfully", nil)
}

func (h *ScheduleHandler) bindSchedule(c *gin.Context) (*domain.Schedule, error) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, domain.BadRequest("invalid request body")
	}
	departure, err := time.Parse(time.RFC3339, req.DepartureDateTime)
	if err != nil {
		return nil, domain.BadRequest("departureDateTime must be an RFC3339 timestamp")
	}
	arrival, err := time.Parse(time.RFC3339, req.ArrivalDateTime)
	if err != nil {
		return nil, domain.BadRequest("arrivalDateTime must be an RFC3339 timestamp")
	}
	return &domain.Schedule{
		FlightID:          req.FlightID,
		DepartureDateTime: departure,
		ArrivalDateTime:   arrival,
		SeatClass:         domain.SeatClass(req.SeatClass),
		TicketPrice:       req.TicketPrice,
	}, nil
}

func toScheduleResponses(list []domain.Schedule) []scheduleResponse {
	out := make([]scheduleResponse, 0, len(list))
	for _, sc := range list {
		out = append(out, toScheduleResponse(sc))
	}
	return out
}

func toScheduleResponse(sc domain.Schedule) scheduleResponse {
	resp := scheduleResponse{
		ID:                sc.ID,
		DepartureDateTime: sc.DepartureDateTime.Format(time.RFC3339),
		ArrivalDateTime:   sc.ArrivalDateTime.Format(time.RFC3339),
		DurationMinutes:   sc.DurationMinutes,
		SeatClass:         string(sc.SeatClass),
		TicketPrice:       sc.TicketPrice,
		SeatAvailability:  sc.SeatAvailability,
	}
	if f := sc.Flight; f != nil {
		if f.Airline != nil {
			resp.Airline = f.Airline.Name
		}
		if f.DepartureAirport != nil {
			resp.DepartureAirport = f.DepartureAirport.Name
			if f.DepartureAirport.City != nil {
				resp.DepartureCity = f.DepartureAirport.City.Name
			}
		}
		if f.ArrivalAirport != nil {
			resp.ArrivalAirport = f.ArrivalAirport.Name
			if f.ArrivalAirport.City != nil {
				resp.ArrivalCity = f.ArrivalAirport.City.Name
			}
		}
		resp.Services = f.Services
	}
	return resp
}
