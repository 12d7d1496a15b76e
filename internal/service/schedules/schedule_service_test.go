package schedules

import (
	"context"
	"testing"
	"time"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/repository"
	"github.com/avdeenkov/flightbook/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Search(ctx context.Context, query search.ScheduleQuery) ([]domain.Schedule, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) CountDeals(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduleRepository) ListDeals(ctx context.Context, limit, offset int) ([]domain.Schedule, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) Update(ctx context.Context, schedule *domain.Schedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockScheduleRepository) CityIDByName(ctx context.Context, name string) (int64, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockScheduleRepository) BookedSeatNumbers(ctx context.Context, scheduleID int64) ([]string, error) {
	args := m.Called(ctx, scheduleID)
	return args.Get(0).([]string), args.Error(1)
}

type MockDealsCache struct {
	mock.Mock
}

func (m *MockDealsCache) GetDeals(ctx context.Context, page int) ([]domain.Schedule, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *MockDealsCache) SetDeals(ctx context.Context, page int, schedules []domain.Schedule) error {
	args := m.Called(ctx, page, schedules)
	return args.Error(0)
}

func (m *MockDealsCache) InvalidateDeals(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func validDraft() *domain.Schedule {
	departure := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)
	return &domain.Schedule{
		FlightID:          3,
		DepartureDateTime: departure,
		ArrivalDateTime:   departure.Add(95 * time.Minute),
		TicketPrice:       1200,
		SeatClass:         domain.SeatClassEconomy,
	}
}

func TestDeals_CacheMissPopulatesCache(t *testing.T) {
	repo := &MockScheduleRepository{}
	cache := &MockDealsCache{}
	ctx := context.Background()

	deals := []domain.Schedule{{ID: 1}, {ID: 2}}
	repo.On("CountDeals", ctx).Return(12, nil).Once()
	cache.On("GetDeals", ctx, 2).Return(nil, nil).Once()
	repo.On("ListDeals", ctx, search.PageSize, 5).Return(deals, nil).Once()
	cache.On("SetDeals", ctx, 2, deals).Return(nil).Once()

	got, pagination, err := NewScheduleService(repo, cache).Deals(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, deals, got)
	assert.Equal(t, 2, pagination.CurrentPage)
	assert.Equal(t, 3, pagination.TotalPage)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestDeals_CacheHitSkipsRepository(t *testing.T) {
	repo := &MockScheduleRepository{}
	cache := &MockDealsCache{}
	ctx := context.Background()

	cached := []domain.Schedule{{ID: 9}}
	repo.On("CountDeals", ctx).Return(12, nil).Once()
	cache.On("GetDeals", ctx, 1).Return(cached, nil).Once()

	got, _, err := NewScheduleService(repo, cache).Deals(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, cached, got)
	repo.AssertNotCalled(t, "ListDeals", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeals_PageBeyondTotal(t *testing.T) {
	repo := &MockScheduleRepository{}
	ctx := context.Background()

	repo.On("CountDeals", ctx).Return(4, nil).Once()

	_, _, err := NewScheduleService(repo, nil).Deals(ctx, 3)
	assert.EqualError(t, err, "page exceeds total pages")
}

func TestCreate_FillsSeatsAndDuration(t *testing.T) {
	repo := &MockScheduleRepository{}
	cache := &MockDealsCache{}
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Schedule")).Return(nil).Once()
	cache.On("InvalidateDeals", ctx).Return(nil).Once()

	draft := validDraft()
	err := NewScheduleService(repo, cache).Create(ctx, draft)

	require.NoError(t, err)
	assert.Equal(t, domain.SeatsPerSchedule, draft.SeatAvailability)
	assert.Equal(t, 95, draft.DurationMinutes)
	cache.AssertExpectations(t)
}

func TestCreate_Validation(t *testing.T) {
	service := NewScheduleService(&MockScheduleRepository{}, nil)
	ctx := context.Background()

	bad := validDraft()
	bad.SeatClass = "Coach"
	assert.EqualError(t, service.Create(ctx, bad),
		"seatClass must be one of Economy, Premium Economy, Business, First Class")

	bad = validDraft()
	bad.TicketPrice = -1
	assert.EqualError(t, service.Create(ctx, bad), "ticketPrice must be non-negative")

	bad = validDraft()
	bad.ArrivalDateTime = bad.DepartureDateTime
	assert.EqualError(t, service.Create(ctx, bad), "departure must be before arrival")
}

func TestDelete_NotFound(t *testing.T) {
	repo := &MockScheduleRepository{}
	ctx := context.Background()

	repo.On("Delete", ctx, int64(404)).Return(repository.ErrNotFound).Once()

	err := NewScheduleService(repo, nil).Delete(ctx, 404)

	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)
}
