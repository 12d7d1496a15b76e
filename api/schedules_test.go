package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/search"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockScheduleUseCase struct {
	mock.Mock
}

func (m *MockScheduleUseCase) Search(ctx context.Context, params search.SearchParams) ([]domain.Schedule, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *MockScheduleUseCase) Deals(ctx context.Context, page int) ([]domain.Schedule, search.Pagination, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, search.Pagination{}, args.Error(2)
	}
	return args.Get(0).([]domain.Schedule), args.Get(1).(search.Pagination), args.Error(2)
}

func (m *MockScheduleUseCase) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleUseCase) Create(ctx context.Context, schedule *domain.Schedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleUseCase) Update(ctx context.Context, schedule *domain.Schedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleUseCase) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func scheduleRouter(service *MockScheduleUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewScheduleHandler(service)
	handler.Register(router.Group("/api/v1/schedules"), router.Group("/api/v1/admin/schedules"))
	return router
}

func TestSearch_EmptyResultIsSuccess(t *testing.T) {
	service := &MockScheduleUseCase{}
	service.On("Search", mock.Anything, mock.AnythingOfType("search.SearchParams")).
		Return([]domain.Schedule{}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedules?dpCity=Jakarta&arCity=Denpasar", nil)
	scheduleRouter(service).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status  string            `json:"status"`
		Message string            `json:"message"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Success", body.Status)
	assert.Equal(t, msgNoSchedules, body.Message)
	assert.Empty(t, body.Data)
}

func TestSearch_PassesQueryParams(t *testing.T) {
	service := &MockScheduleUseCase{}
	service.On("Search", mock.Anything, search.SearchParams{
		DepartureCity: "Jakarta",
		Passengers:    "2.0.0",
		Sort:          "-price",
	}).Return([]domain.Schedule{{ID: 1, TicketPrice: 900}}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedules?dpCity=Jakarta&psg=2.0.0&sort=-price", nil)
	scheduleRouter(service).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestSearch_ValidationErrorRendersFailedEnvelope(t *testing.T) {
	service := &MockScheduleUseCase{}
	service.On("Search", mock.Anything, mock.AnythingOfType("search.SearchParams")).
		Return(nil, domain.BadRequest("page exceeds total pages")).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedules?page=99", nil)
	scheduleRouter(service).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body failedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed", body.Status)
	assert.Equal(t, http.StatusBadRequest, body.StatusCode)
	assert.Equal(t, "page exceeds total pages", body.Message)
}

func TestDeals_RendersPagination(t *testing.T) {
	service := &MockScheduleUseCase{}
	service.On("Deals", mock.Anything, 2).Return(
		[]domain.Schedule{{ID: 6}},
		search.Pagination{CurrentPage: 2, TotalPage: 3, Count: 1, Total: 11, HasNextPage: true, HasPreviousPage: true},
		nil,
	).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedules/deals?page=2", nil)
	scheduleRouter(service).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Pagination *search.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Pagination)
	assert.Equal(t, 2, body.Pagination.CurrentPage)
	assert.True(t, body.Pagination.HasNextPage)
}

func TestDeals_RejectsNonIntegerPage(t *testing.T) {
	service := &MockScheduleUseCase{}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedules/deals?page=abc", nil)
	scheduleRouter(service).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "Deals", mock.Anything, mock.Anything)
}

func TestGetSchedule_NotFound(t *testing.T) {
	service := &MockScheduleUseCase{}
	service.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.NotFound("schedule not found")).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedules/99", nil)
	scheduleRouter(service).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
