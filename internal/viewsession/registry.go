// Package viewsession keeps the user-management views opened by administrators.
package viewsession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/useradmin/internal/userview"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown ids and for sessions owned by
// someone else.
var ErrSessionNotFound = errors.New("view session not found")

// Factory builds an unstarted controller for owner.
type Factory func(owner string) (*userview.Controller, error)

// Session is one open view.
type Session struct {
	ID         string
	Owner      string
	Controller *userview.Controller
	CreatedAt  time.Time

	lastAccess time.Time // guarded by Registry.mu
}

// Registry holds open sessions keyed by id.
type Registry struct {
	factory Factory
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(factory Factory, logger *slog.Logger) *Registry {
	return &Registry{
		factory:  factory,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create opens a view for owner and loads its first snapshot. If the user list
// cannot be loaded the view is discarded and the error returned.
func (r *Registry) Create(ctx context.Context, owner string) (*Session, error) {
	c, err := r.factory(owner)
	if err != nil {
		return nil, fmt.Errorf("build view controller: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, err
	}

	now := r.now()
	s := &Session{
		ID:         uuid.New().String(),
		Owner:      owner,
		Controller: c,
		CreatedAt:  now,
		lastAccess: now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Info("view session opened", slog.String("session_id", s.ID), slog.String("owner", owner))
	return s, nil
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id, owner string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.Owner != owner {
		return nil, ErrSessionNotFound
	}
	s.lastAccess = r.now()
	return s, nil
}

// Close stops and forgets the session.
func (r *Registry) Close(id, owner string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || s.Owner != owner {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	s.Controller.Close()
	r.logger.Info("view session closed", slog.String("session_id", id), slog.String("owner", owner))
	return nil
}

// PruneIdle closes every session unused for longer than maxIdle and reports how
// many were closed.
func (r *Registry) PruneIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.lastAccess.Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Controller.Close()
		r.logger.Info("idle view session closed", slog.String("session_id", s.ID), slog.String("owner", s.Owner))
	}
	return len(idle)
}

// CloseAll closes every session, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Controller.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
