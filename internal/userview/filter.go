package userview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/useradmin/internal/models"
)

// AdminFilter is the tri-state admin constraint of a Filter.
type AdminFilter string

const (
	AdminAny      AdminFilter = ""
	AdminOnly     AdminFilter = "true"
	AdminExcluded AdminFilter = "false"
)

// ParseAdminFilter maps "", "any", "true" and "false" to an AdminFilter.
func ParseAdminFilter(s string) (AdminFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return AdminAny, true
	case "true":
		return AdminOnly, true
	case "false":
		return AdminExcluded, true
	}
	return AdminAny, false
}

// Filter narrows the displayed user set. The zero value accepts every user.
//
// Filter is a comparable value: edits go through the With* methods, which return
// a new Filter, so two filters with the same fields are interchangeable.
type Filter struct {
	Username       string
	Admin          AdminFilter
	VirtualCluster string
}

func (f Filter) WithUsername(s string) Filter {
	f.Username = s
	return f
}

func (f Filter) WithAdmin(a AdminFilter) Filter {
	f.Admin = a
	return f
}

func (f Filter) WithVirtualCluster(vc string) Filter {
	f.VirtualCluster = vc
	return f
}

// IsEmpty reports whether no field constrains the result.
func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// Matches reports whether u satisfies every configured field.
func (f Filter) Matches(u *models.User) bool {
	if f.Username != "" && !strings.Contains(strings.ToLower(u.Username), strings.ToLower(f.Username)) {
		return false
	}
	switch f.Admin {
	case AdminOnly:
		if !u.Admin {
			return false
		}
	case AdminExcluded:
		if u.Admin {
			return false
		}
	}
	if f.VirtualCluster != "" && !u.InVirtualCluster(f.VirtualCluster) {
		return false
	}
	return true
}

// Apply returns the users matching f in their original order. users is not modified.
func (f Filter) Apply(users []*models.User) []*models.User {
	out := make([]*models.User, 0, len(users))
	if f.IsEmpty() {
		return append(out, users...)
	}
	for _, u := range users {
		if f.Matches(u) {
			out = append(out, u)
		}
	}
	return out
}

// persistedFilter is the stored JSON layout. Fields are decoded one at a time so a
// single bad value does not discard the others.
type persistedFilter struct {
	Username       string `json:"username,omitempty"`
	Admin          string `json:"admin,omitempty"`
	VirtualCluster string `json:"virtualCluster,omitempty"`
}

// Save writes f to store under key.
func (f Filter) Save(ctx context.Context, store StateStore, key string) error {
	data, err := json.Marshal(persistedFilter{
		Username:       f.Username,
		Admin:          string(f.Admin),
		VirtualCluster: f.VirtualCluster,
	})
	if err != nil {
		return fmt.Errorf("failed to encode filter: %w", err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to save filter: %w", err)
	}
	return nil
}

// LoadFilter restores a Filter from store. Missing or malformed values leave the
// affected fields unset; LoadFilter never fails.
func LoadFilter(ctx context.Context, store StateStore, key string, logger *slog.Logger) Filter {
	var f Filter
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("failed to read persisted filter", slog.String("key", key), slog.Any("error", err))
		return f
	}
	if !ok {
		return f
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		logger.Debug("ignoring malformed persisted filter", slog.String("key", key))
		return f
	}

	var s string
	if v, ok := fields["username"]; ok && json.Unmarshal(v, &s) == nil {
		f.Username = s
	}
	s = ""
	if v, ok := fields["admin"]; ok && json.Unmarshal(v, &s) == nil {
		if a, ok := ParseAdminFilter(s); ok {
			f.Admin = a
		}
	}
	s = ""
	if v, ok := fields["virtualCluster"]; ok && json.Unmarshal(v, &s) == nil {
		f.VirtualCluster = s
	}
	return f
}
