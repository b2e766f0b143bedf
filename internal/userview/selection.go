package userview

import (
	"slices"

	"github.com/BradenHooton/useradmin/internal/models"
)

// Selection is either an explicit set of users or the "all selected" flag.
// The two modes are exclusive; switching between them is always explicit.
type Selection struct {
	all   bool
	users []*models.User
}

// SelectAllUsers returns a Selection in "all selected" mode.
func SelectAllUsers() Selection {
	return Selection{all: true}
}

// AllSelected reports whether the selection is in "all selected" mode.
func (s Selection) AllSelected() bool {
	return s.all
}

// Explicit returns the explicitly selected users in selection order.
func (s Selection) Explicit() []*models.User {
	return slices.Clone(s.users)
}

// IsSelected reports whether username is explicitly selected.
func (s Selection) IsSelected(username string) bool {
	return s.indexOf(username) >= 0
}

func (s Selection) indexOf(username string) int {
	return slices.IndexFunc(s.users, func(u *models.User) bool { return u.Username == username })
}

// Select adds u to an explicit selection. Selecting an already selected user is a no-op.
func (s Selection) Select(u *models.User) (Selection, error) {
	if s.all {
		return s, ErrSelectAllActive
	}
	if s.IsSelected(u.Username) {
		return s, nil
	}
	users := slices.Clone(s.users)
	return Selection{users: append(users, u)}, nil
}

// Deselect removes username from an explicit selection.
func (s Selection) Deselect(username string) (Selection, error) {
	if s.all {
		return s, ErrSelectAllActive
	}
	i := s.indexOf(username)
	if i < 0 {
		return s, nil
	}
	return Selection{users: slices.Delete(slices.Clone(s.users), i, i+1)}, nil
}

// Resolve returns the selected users. In "all selected" mode visible is evaluated
// now, so the result always reflects the current view; the explicit set is
// returned verbatim whether or not its users are still visible.
func (s Selection) Resolve(visible func() []*models.User) []*models.User {
	if s.all {
		return visible()
	}
	return s.Explicit()
}
