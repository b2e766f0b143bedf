package userview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/useradmin/internal/models"
)

// DefaultDebounceDelay is the quiet period before a filter edit is applied.
const DefaultDebounceDelay = 200 * time.Millisecond

// UserSource provides the raw data a view is built from.
type UserSource interface {
	FetchAllUsers(ctx context.Context) ([]*models.User, error)
	FetchAllVirtualClusterNames(ctx context.Context) ([]string, error)
}

// UserMutator performs the per-user operations behind batch actions.
type UserMutator interface {
	RemoveUser(ctx context.Context, username string) error
	UpdatePassword(ctx context.Context, username, password string) error
	UpdateVirtualClusters(ctx context.Context, username string, virtualClusters []string) error
}

// ControllerConfig wires a Controller to its collaborators.
type ControllerConfig struct {
	Source  UserSource
	Mutator UserMutator
	Store   StateStore
	// StoreKey is where the filter is persisted, usually one key per operator.
	StoreKey         string
	Logger           *slog.Logger
	DebounceDelay    time.Duration
	BatchConcurrency int
	PageSize         int
}

// Controller owns the state of one user-management view: it fetches users,
// applies filter, ordering and pagination, tracks the selection and runs batch
// actions. Every change publishes a new Snapshot to subscribers.
type Controller struct {
	source     UserSource
	mutator    UserMutator
	store      StateStore
	storeKey   string
	logger     *slog.Logger
	batchLimit int
	debounce   *Debouncer

	// saveMu orders filter writes so the store ends on the latest filter.
	saveMu sync.Mutex

	mu          sync.Mutex
	state       Snapshot
	closed      bool
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewController builds a Controller. Call Start before using it.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Source == nil || cfg.Mutator == nil {
		return nil, fmt.Errorf("view controller requires a user source and mutator")
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	pagination, err := NewPagination(cfg.PageSize)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		source:      cfg.Source,
		mutator:     cfg.Mutator,
		store:       cfg.Store,
		storeKey:    cfg.StoreKey,
		logger:      cfg.Logger,
		batchLimit:  cfg.BatchConcurrency,
		state:       Snapshot{Pagination: pagination, Users: []*models.User{}, Filtered: []*models.User{}},
		subscribers: make(map[int]func(Snapshot)),
	}
	c.debounce = NewDebouncer(cfg.DebounceDelay, c.applyPendingFilter)
	return c, nil
}

// Start restores the persisted filter and loads the user list.
func (c *Controller) Start(ctx context.Context) error {
	f := LoadFilter(ctx, c.store, c.storeKey, c.logger)
	if _, err := c.mutate(func(s *Snapshot) (bool, error) {
		s.Filter = f
		return true, nil
	}); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every published Snapshot. Snapshots may be
// delivered from different goroutines; compare Version to drop stale ones.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// mutate applies fn to a copy of the state and publishes it if fn reports a change.
func (c *Controller) mutate(fn func(s *Snapshot) (bool, error)) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrControllerClosed
	}
	next := c.state
	changed, err := fn(&next)
	if err != nil || !changed {
		current := c.state
		c.mu.Unlock()
		return current, err
	}
	next.Version = c.state.Version + 1
	c.state = next
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, sub := range c.subscribers {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	return next, nil
}

// recompute rebuilds the filtered list and recreates the pagination on page zero,
// so a page index from the previous list is never shown.
func recompute(s *Snapshot) {
	s.Filtered = s.Filter.Apply(s.Users)
	s.Pagination = Pagination{ItemsPerPage: s.Pagination.ItemsPerPage}
	s.Pending = false
}

func (c *Controller) applyPendingFilter() {
	_, err := c.mutate(func(s *Snapshot) (bool, error) {
		recompute(s)
		return true, nil
	})
	if err != nil && !errors.Is(err, ErrControllerClosed) {
		c.logger.Error("failed to apply filter", slog.Any("error", err))
	}
}

// Refresh reloads users and virtual clusters from the source. A failure leaves
// the view unusable and is reported as ErrUserListUnavailable.
func (c *Controller) Refresh(ctx context.Context) error {
	users, err := c.source.FetchAllUsers(ctx)
	if err != nil {
		c.logger.Error("failed to fetch users", slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrUserListUnavailable, err)
	}
	vcs, err := c.source.FetchAllVirtualClusterNames(ctx)
	if err != nil {
		c.logger.Error("failed to fetch virtual clusters", slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrUserListUnavailable, err)
	}

	_, err = c.mutate(func(s *Snapshot) (bool, error) {
		s.Users = users
		s.VirtualClusters = vcs
		recompute(s)
		return true, nil
	})
	return err
}

// SetFilter replaces the filter, persists it, and schedules the filtered list
// to be recomputed once edits stop for the debounce delay.
func (c *Controller) SetFilter(ctx context.Context, f Filter) (Snapshot, error) {
	changed := false
	snap, err := c.mutate(func(s *Snapshot) (bool, error) {
		if s.Filter == f {
			return false, nil
		}
		s.Filter = f
		s.Pending = true
		changed = true
		return true, nil
	})
	if err != nil || !changed {
		return snap, err
	}

	c.persistFilter(ctx)
	c.debounce.Trigger()
	return snap, nil
}

// persistFilter writes the current filter, read under the save lock so
// overlapping edits cannot leave an older filter in the store.
func (c *Controller) persistFilter(ctx context.Context) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	f := c.state.Filter
	c.mu.Unlock()

	if err := f.Save(ctx, c.store, c.storeKey); err != nil {
		c.logger.Warn("failed to persist filter", slog.String("key", c.storeKey), slog.Any("error", err))
	}
}

// Flush applies a pending filter edit now. It reports whether one was pending.
func (c *Controller) Flush() bool {
	return c.debounce.Flush()
}

func (c *Controller) SetOrdering(o Ordering) (Snapshot, error) {
	if err := o.Validate(); err != nil {
		return c.Snapshot(), err
	}
	return c.mutate(func(s *Snapshot) (bool, error) {
		if s.Ordering == o {
			return false, nil
		}
		s.Ordering = o
		return true, nil
	})
}

func (c *Controller) SetPage(page int) (Snapshot, error) {
	return c.mutate(func(s *Snapshot) (bool, error) {
		p, err := s.Pagination.WithPage(page)
		if err != nil {
			return false, err
		}
		s.Pagination = p
		return true, nil
	})
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller) SetPageSize(size int) (Snapshot, error) {
	p, err := NewPagination(size)
	if err != nil {
		return c.Snapshot(), err
	}
	return c.mutate(func(s *Snapshot) (bool, error) {
		s.Pagination = p
		return true, nil
	})
}

// Select adds a user to the explicit selection.
func (c *Controller) Select(username string) (Snapshot, error) {
	return c.mutate(func(s *Snapshot) (bool, error) {
		u := findUser(s.Users, username)
		if u == nil {
			return false, fmt.Errorf("user %q: %w", username, models.ErrNotFound)
		}
		sel, err := s.Selection.Select(u)
		if err != nil {
			return false, err
		}
		s.Selection = sel
		return true, nil
	})
}

// Deselect removes a user from the explicit selection.
func (c *Controller) Deselect(username string) (Snapshot, error) {
	return c.mutate(func(s *Snapshot) (bool, error) {
		sel, err := s.Selection.Deselect(username)
		if err != nil {
			return false, err
		}
		s.Selection = sel
		return true, nil
	})
}

// SelectAll switches to "all selected": every user on the current page, resolved
// whenever the selection is read.
func (c *Controller) SelectAll() (Snapshot, error) {
	return c.mutate(func(s *Snapshot) (bool, error) {
		s.Selection = SelectAllUsers()
		return true, nil
	})
}

// ClearSelection switches to an empty explicit selection.
func (c *Controller) ClearSelection() (Snapshot, error) {
	return c.mutate(func(s *Snapshot) (bool, error) {
		s.Selection = Selection{}
		return true, nil
	})
}

// SelectedUsers resolves the selection against the current state.
func (c *Controller) SelectedUsers() []*models.User {
	return c.Snapshot().SelectedUsers()
}

// RemoveSelected removes every selected user. See runBatch.
func (c *Controller) RemoveSelected(ctx context.Context) (BatchSummary, error) {
	return c.runBatch(ctx, ActionRemove, func(ctx context.Context, u *models.User) error {
		return c.mutator.RemoveUser(ctx, u.Username)
	})
}

// UpdatePasswordOfSelected sets the same password on every selected user.
func (c *Controller) UpdatePasswordOfSelected(ctx context.Context, password string) (BatchSummary, error) {
	return c.runBatch(ctx, ActionUpdatePassword, func(ctx context.Context, u *models.User) error {
		return c.mutator.UpdatePassword(ctx, u.Username, password)
	})
}

// UpdateVirtualClustersOfSelected assigns the same virtual clusters to every selected user.
func (c *Controller) UpdateVirtualClustersOfSelected(ctx context.Context, virtualClusters []string) (BatchSummary, error) {
	return c.runBatch(ctx, ActionUpdateVirtualClusters, func(ctx context.Context, u *models.User) error {
		return c.mutator.UpdateVirtualClusters(ctx, u.Username, virtualClusters)
	})
}

// runBatch resolves the selection, runs op for each user, clears the selection
// and refreshes the list exactly once whatever the outcome. The returned error is
// only the refresh error; per-user failures are in the summary.
func (c *Controller) runBatch(ctx context.Context, action string, op func(context.Context, *models.User) error) (BatchSummary, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return BatchSummary{Action: action}, ErrControllerClosed
	}

	users := c.SelectedUsers()
	summary := RunBatch(ctx, action, users, c.batchLimit, op)
	c.logger.Info("batch action finished",
		slog.String("action", action),
		slog.Int("succeeded", summary.Succeeded()),
		slog.Int("failed", summary.Failed()),
	)

	if _, err := c.ClearSelection(); err != nil {
		return summary, err
	}
	return summary, c.Refresh(ctx)
}

// Close stops pending work and detaches subscribers.
func (c *Controller) Close() {
	c.debounce.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.subscribers = make(map[int]func(Snapshot))
}

func findUser(users []*models.User, username string) *models.User {
	for _, u := range users {
		if u.Username == username {
			return u
		}
	}
	return nil
}
