package userview

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/BradenHooton/useradmin/internal/models"
)

// SortKey names a registered user comparator.
type SortKey string

const (
	SortByUsername        SortKey = "username"
	SortByEmail           SortKey = "email"
	SortByAdmin           SortKey = "admin"
	SortByVirtualClusters SortKey = "virtualClusters"
)

// Direction is the sort direction of an Ordering.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Comparator orders two users; it must be a consistent three-way comparison.
type Comparator func(a, b *models.User) int

var (
	comparatorsMu sync.RWMutex
	comparators   = map[SortKey]Comparator{
		SortByUsername: func(a, b *models.User) int {
			return strings.Compare(a.Username, b.Username)
		},
		SortByEmail: func(a, b *models.User) int {
			return strings.Compare(a.Email, b.Email)
		},
		SortByAdmin: func(a, b *models.User) int {
			return cmp.Compare(boolRank(a.Admin), boolRank(b.Admin))
		},
		SortByVirtualClusters: func(a, b *models.User) int {
			return cmp.Compare(len(a.VirtualClusters), len(b.VirtualClusters))
		},
	}
)

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// RegisterSortKey makes key available to Ordering. Registering an existing key replaces it.
func RegisterSortKey(key SortKey, c Comparator) {
	comparatorsMu.Lock()
	defer comparatorsMu.Unlock()
	comparators[key] = c
}

func comparatorFor(key SortKey) (Comparator, bool) {
	comparatorsMu.RLock()
	defer comparatorsMu.RUnlock()
	c, ok := comparators[key]
	return c, ok
}

// Ordering is a sort key plus direction. The zero value leaves lists as they are.
type Ordering struct {
	Key       SortKey
	Direction Direction
}

// Validate checks that the key is registered and the direction is known.
func (o Ordering) Validate() error {
	if o.Key == "" {
		return nil
	}
	if _, ok := comparatorFor(o.Key); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSortKey, o.Key)
	}
	switch o.Direction {
	case "", Ascending, Descending:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDirection, o.Direction)
}

// Apply returns users sorted by the configured key. Equal elements keep their
// input order in both directions. With no key configured users is returned as is.
func (o Ordering) Apply(users []*models.User) []*models.User {
	c, ok := comparatorFor(o.Key)
	if o.Key == "" || !ok {
		return users
	}
	sorted := slices.Clone(users)
	if o.Direction == Descending {
		slices.SortStableFunc(sorted, func(a, b *models.User) int { return c(b, a) })
	} else {
		slices.SortStableFunc(sorted, c)
	}
	return sorted
}
