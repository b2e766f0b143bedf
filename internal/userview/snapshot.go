package userview

import "github.com/BradenHooton/useradmin/internal/models"

// Snapshot is the immutable state of a view at one version. Controllers publish
// a new Snapshot on every change and never modify a published one.
type Snapshot struct {
	Version         uint64
	Users           []*models.User
	VirtualClusters []string
	Filter          Filter
	Ordering        Ordering
	Pagination      Pagination
	Selection       Selection
	// Filtered is Filter applied to Users as of the last recomputation. While
	// Pending is true it may lag behind Filter.
	Filtered []*models.User
	Pending  bool
}

// Visible is the current page of the ordered, filtered list.
func (s Snapshot) Visible() []*models.User {
	return s.Pagination.Apply(s.Ordering.Apply(s.Filtered))
}

// SelectedUsers resolves the selection against this snapshot.
func (s Snapshot) SelectedUsers() []*models.User {
	return s.Selection.Resolve(s.Visible)
}

// PageCount is the number of pages of the filtered list.
func (s Snapshot) PageCount() int {
	return s.Pagination.PageCount(len(s.Filtered))
}
