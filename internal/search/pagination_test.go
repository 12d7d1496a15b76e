package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate_FirstPage(t *testing.T) {
	p, offset, err := Paginate(1, 12)
	require.NoError(t, err)

	assert.Equal(t, 0, offset)
	assert.Equal(t, Pagination{
		CurrentPage:     1,
		TotalPage:       3,
		Count:           5,
		Total:           12,
		HasNextPage:     true,
		HasPreviousPage: false,
	}, p)
}

func TestPaginate_LastPartialPage(t *testing.T) {
	p, offset, err := Paginate(3, 12)
	require.NoError(t, err)

	assert.Equal(t, 10, offset)
	assert.Equal(t, 2, p.Count)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPreviousPage)
}

func TestPaginate_ClampsLowPages(t *testing.T) {
	p, offset, err := Paginate(0, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 0, offset)

	p, _, err = Paginate(-3, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentPage)
}

func TestPaginate_PageBeyondTotalIsError(t *testing.T) {
	_, _, err := Paginate(4, 12)
	assert.EqualError(t, err, "page exceeds total pages")
}

func TestPaginate_EmptyTotal(t *testing.T) {
	p, offset, err := Paginate(1, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, offset)
	assert.Equal(t, 0, p.Count)
	assert.Equal(t, 1, p.TotalPage)

	_, _, err = Paginate(2, 0)
	assert.Error(t, err)
}
