package schedules

import (
	"context"
	"errors"
	"log"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/repository"
	"github.com/avdeenkov/flightbook/internal/search"
)

type ScheduleUseCase interface {
	Search(ctx context.Context, params search.SearchParams) ([]domain.Schedule, error)
	Deals(ctx context.Context, page int) ([]domain.Schedule, search.Pagination, error)
	GetByID(ctx context.Context, id int64) (*domain.Schedule, error)
	Create(ctx context.Context, schedule *domain.Schedule) error
	Update(ctx context.Context, schedule *domain.Schedule) error
	Delete(ctx context.Context, id int64) error
}

type Cache interface {
	GetDeals(ctx context.Context, page int) ([]domain.Schedule, error)
	SetDeals(ctx context.Context, page int, schedules []domain.Schedule) error
	InvalidateDeals(ctx context.Context) error
}

type ScheduleService struct {
	repo  repository.ScheduleRepository
	cache Cache
}

func NewScheduleService(repo repository.ScheduleRepository, cache Cache) *ScheduleService {
	return &ScheduleService{repo: repo, cache: cache}
}

// Search translates the raw parameters into a schedule query and executes it.
// An empty result is not an error; the handler renders it as a success with
// an empty data set.
func (s *ScheduleService) Search(ctx context.Context, params search.SearchParams) ([]domain.Schedule, error) {
	query, err := search.BuildScheduleQuery(ctx, params, s.repo)
	if err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, query)
}

// Deals lists upcoming schedules ordered by price for the homepage, five per
// page, serving repeat pages from the cache.
func (s *ScheduleService) Deals(ctx context.Context, page int) ([]domain.Schedule, search.Pagination, error) {
	total, err := s.repo.CountDeals(ctx)
	if err != nil {
		return nil, search.Pagination{}, err
	}
	pagination, offset, err := search.Paginate(page, total)
	if err != nil {
		return nil, search.Pagination{}, err
	}

	if s.cache != nil {
		if cached, err := s.cache.GetDeals(ctx, pagination.CurrentPage); err == nil && cached != nil {
			return cached, pagination, nil
		}
	}

	deals, err := s.repo.ListDeals(ctx, search.PageSize, offset)
	if err != nil {
		return nil, search.Pagination{}, err
	}
	if s.cache != nil {
		if err := s.cache.SetDeals(ctx, pagination.CurrentPage, deals); err != nil {
			log.Printf("cache deals page %d: %v", pagination.CurrentPage, err)
		}
	}
	return deals, pagination, nil
}

func (s *ScheduleService) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	schedule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("schedule not found")
		}
		return nil, err
	}
	return schedule, nil
}

func (s *ScheduleService) Create(ctx context.Context, schedule *domain.Schedule) error {
	if err := validateSchedule(schedule); err != nil {
		return err
	}
	schedule.SeatAvailability = domain.SeatsPerSchedule
	if schedule.DurationMinutes == 0 {
		schedule.DurationMinutes = int(schedule.ArrivalDateTime.Sub(schedule.DepartureDateTime).Minutes())
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return err
	}
	s.invalidateDeals(ctx)
	return nil
}

func (s *ScheduleService) Update(ctx context.Context, schedule *domain.Schedule) error {
	if err := validateSchedule(schedule); err != nil {
		return err
	}
	if schedule.DurationMinutes == 0 {
		schedule.DurationMinutes = int(schedule.ArrivalDateTime.Sub(schedule.DepartureDateTime).Minutes())
	}
	if err := s.repo.Update(ctx, schedule); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound("schedule not found")
		}
		return err
	}
	s.invalidateDeals(ctx)
	return nil
}

func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound("schedule not found")
		}
		return err
	}
	s.invalidateDeals(ctx)
	return nil
}

func validateSchedule(schedule *domain.Schedule) error {
	if !schedule.SeatClass.Valid() {
		return domain.BadRequest("seatClass must be one of Economy, Premium Economy, Business, First Class")
	}
	if schedule.TicketPrice < 0 {
		return domain.BadRequest("ticketPrice must be non-negative")
	}
	if !schedule.DepartureDateTime.Before(schedule.ArrivalDateTime) {
		return domain.BadRequest("departure must be before arrival")
	}
	return nil
}

func (s *ScheduleService) invalidateDeals(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDeals(ctx); err != nil {
		log.Printf("invalidate deals cache: %v", err)
	}
}

var _ ScheduleUseCase = (*ScheduleService)(nil)
