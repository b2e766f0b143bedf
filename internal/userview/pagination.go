package userview

import (
	"fmt"
	"slices"

	"github.com/BradenHooton/useradmin/internal/models"
)

// AllowedPageSizes lists the page sizes a Pagination may use.
var AllowedPageSizes = []int{20, 50, 100}

// DefaultPageSize is the page size of a new view.
const DefaultPageSize = 20

// Pagination windows a list into fixed-size pages.
type Pagination struct {
	ItemsPerPage int
	CurrentPage  int
}

// NewPagination returns a Pagination on page zero.
func NewPagination(itemsPerPage int) (Pagination, error) {
	if !slices.Contains(AllowedPageSizes, itemsPerPage) {
		return Pagination{}, fmt.Errorf("%w: %d", ErrInvalidPageSize, itemsPerPage)
	}
	return Pagination{ItemsPerPage: itemsPerPage}, nil
}

// WithPage returns a copy of p showing page. Out-of-range pages are allowed and
// render empty.
func (p Pagination) WithPage(page int) (Pagination, error) {
	if page < 0 {
		return p, fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}
	p.CurrentPage = page
	return p, nil
}

// Apply returns the current page of users. It never corrects a stale CurrentPage;
// a page past the end yields an empty slice.
func (p Pagination) Apply(users []*models.User) []*models.User {
	if p.ItemsPerPage <= 0 || p.CurrentPage < 0 {
		return []*models.User{}
	}
	start := p.CurrentPage * p.ItemsPerPage
	if start >= len(users) {
		return []*models.User{}
	}
	end := min(len(users), start+p.ItemsPerPage)
	return users[start:end:end]
}

// PageCount is the number of pages needed for total items.
func (p Pagination) PageCount(total int) int {
	if p.ItemsPerPage <= 0 || total == 0 {
		return 0
	}
	return (total + p.ItemsPerPage - 1) / p.ItemsPerPage
}
