package models

import (
	"slices"
	"time"
)

// ExtensionGroupList is the Extension key holding directory group names.
const ExtensionGroupList = "groupList"

// User is a cluster account as stored by the platform.
type User struct {
	Username        string
	Email           string
	PasswordHash    string // never serialised
	Admin           bool
	VirtualClusters []string
	Extension       map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InVirtualCluster reports whether the user is assigned to the named virtual cluster.
func (u *User) InVirtualCluster(name string) bool {
	return slices.Contains(u.VirtualClusters, name)
}

// GroupList returns the directory groups recorded in the user's extension, if any.
func (u *User) GroupList() []string {
	raw, ok := u.Extension[ExtensionGroupList]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		groups := make([]string, 0, len(v))
		for _, g := range v {
			if s, ok := g.(string); ok {
				groups = append(groups, s)
			}
		}
		return groups
	}
	return nil
}

// NormalizeVirtualClusters returns a sorted copy of names with duplicates and blanks removed.
func NormalizeVirtualClusters(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
