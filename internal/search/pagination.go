package search

import "github.com/avdeenkov/flightbook/internal/domain"

// PageSize is fixed for paginated listings.
const PageSize = 5

type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPage       int  `json:"totalPage"`
	Count           int  `json:"count"`
	Total           int  `json:"total"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// Paginate computes page metadata and the row offset for the requested page.
// Pages below 1 clamp to 1; a page beyond the last is a validation error
// rather than a silent clamp.
func Paginate(page, total int) (Pagination, int, error) {
	if page < 1 {
		page = 1
	}
	totalPage := (total + PageSize - 1) / PageSize
	if totalPage == 0 {
		totalPage = 1
	}
	if page > totalPage {
		return Pagination{}, 0, domain.BadRequest("page exceeds total pages")
	}

	offset := (page - 1) * PageSize
	count := total - offset
	if count > PageSize {
		count = PageSize
	}
	if count < 0 {
		count = 0
	}

	return Pagination{
		CurrentPage:     page,
		TotalPage:       totalPage,
		Count:           count,
		Total:           total,
		HasNextPage:     page < totalPage,
		HasPreviousPage: page > 1,
	}, offset, nil
}
