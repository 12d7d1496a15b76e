package api

import (
	"net/http"
	"time"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type payRequest struct {
	Method string `json:"method"`
}

type invoiceResponse struct {
	InvoiceNumber      string `json:"invoiceNumber"`
	PaymentDueDateTime string `json:"paymentDueDateTime"`
	Subtotal           int64  `json:"subtotal"`
	Tax                int64  `json:"tax"`
	Total              int64  `json:"total"`
}

type itineraryResponse struct {
	Leg               string `json:"leg"`
	ScheduleID        int64  `json:"scheduleId"`
	DepartureDateTime string `json:"departureDateTime,omitempty"`
	ArrivalDateTime   string `json:"arrivalDateTime,omitempty"`
}

type seatResponse struct {
	ScheduleID int64  `json:"scheduleId"`
	Label      string `json:"label"`
	SeatNumber string `json:"seatNumber"`
}

type bookingResponse struct {
	Code        string              `json:"code"`
	Status      string              `json:"status"`
	JourneyType string              `json:"journeyType"`
	Itinerary   []itineraryResponse `json:"itinerary,omitempty"`
	Seats       []seatResponse      `json:"seats,omitempty"`
	Invoice     *invoiceResponse    `json:"invoice,omitempty"`
	CreatedAt   string              `json:"createdAt"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:code", h.get)
	router.POST("/:code/payment", h.pay)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.BadRequest("invalid request body"))
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, "booking created successfully", toBookingResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	success(c, http.StatusOK, "bookings retrieved successfully", out)
}

func (h *BookingHandler) get(c *gin.Context) {
	found, err := h.service.GetBooking(c.Request.Context(), currentUserID(c), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, "booking retrieved successfully", toBookingResponse(found))
}

func (h *BookingHandler) pay(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.BadRequest("invalid request body"))
		return
	}
	if req.Method == "" {
		fail(c, domain.BadRequest("payment method is required"))
		return
	}

	paid, err := h.service.PayBooking(c.Request.Context(), currentUserID(c), c.Param("code"), req.Method)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, "payment recorded successfully", toBookingResponse(paid))
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		Code:        b.Code,
		Status:      string(b.Status),
		JourneyType: string(b.JourneyType),
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
	for _, it := range b.Itinerary {
		leg := itineraryResponse{Leg: string(it.Leg), ScheduleID: it.ScheduleID}
		if it.Schedule != nil {
			leg.DepartureDateTime = it.Schedule.DepartureDateTime.Format(time.RFC3339)
			leg.ArrivalDateTime = it.Schedule.ArrivalDateTime.Format(time.RFC3339)
		}
		resp.Itinerary = append(resp.Itinerary, leg)
	}
	for _, seat := range b.Seats {
		resp.Seats = append(resp.Seats, seatResponse{
			ScheduleID: seat.ScheduleID,
			Label:      seat.PassengerLabel,
			SeatNumber: seat.SeatNumber,
		})
	}
	if b.Invoice != nil {
		resp.Invoice = &invoiceResponse{
			InvoiceNumber:      b.Invoice.InvoiceNumber,
			PaymentDueDateTime: b.Invoice.PaymentDueDateTime.Format(time.RFC3339),
			Subtotal:           b.Invoice.Subtotal,
			Tax:                b.Invoice.Tax,
			Total:              b.Invoice.Total,
		}
	}
	return resp
}
