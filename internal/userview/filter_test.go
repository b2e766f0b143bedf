package userview_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/userview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isSubsequence reports whether sub appears in full in the same relative order.
func isSubsequence(sub, full []*models.User) bool {
	i := 0
	for _, u := range full {
		if i < len(sub) && sub[i] == u {
			i++
		}
	}
	return i == len(sub)
}

func TestFilter_Apply_AdminOnly(t *testing.T) {
	users := roster(10) // admins: user00, user03, user06, user09

	users[9].Admin = false // leave exactly three admins

	got := userview.Filter{}.WithAdmin(userview.AdminOnly).Apply(users)

	assert.Equal(t, []string{"user00", "user03", "user06"}, usernames(got))
}

func TestFilter_Apply_EmptyFilterIsIdentity(t *testing.T) {
	users := roster(7)

	got := userview.Filter{}.Apply(users)

	assert.Equal(t, users, got)
	assert.True(t, userview.Filter{}.IsEmpty())
}

func TestFilter_Apply_EmptyList(t *testing.T) {
	f := userview.Filter{Username: "abc", Admin: userview.AdminExcluded}

	got := f.Apply(nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_Apply_UsernameCaseInsensitiveSubstring(t *testing.T) {
	users := []*models.User{
		newUser("Alice", false),
		newUser("malice", false),
		newUser("bob", false),
	}

	got := userview.Filter{Username: "LIC"}.Apply(users)

	assert.Equal(t, []string{"Alice", "malice"}, usernames(got))
}

func TestFilter_Apply_VirtualClusterMembership(t *testing.T) {
	users := []*models.User{
		newUser("a", false, "default"),
		newUser("b", false, "gpu", "default"),
		newUser("c", false),
	}

	got := userview.Filter{VirtualCluster: "default"}.Apply(users)

	assert.Equal(t, []string{"a", "b"}, usernames(got))
}

func TestFilter_Apply_CombinedFields(t *testing.T) {
	users := roster(30)
	f := userview.Filter{Username: "user1", Admin: userview.AdminExcluded, VirtualCluster: "gpu"}

	got := f.Apply(users)

	for _, u := range got {
		assert.Contains(t, u.Username, "user1")
		assert.False(t, u.Admin)
		assert.True(t, u.InVirtualCluster("gpu"))
	}
	assert.Equal(t, []string{"user11", "user13", "user17", "user19"}, usernames(got))
}

func TestFilter_Apply_SubsequenceAndIdempotent(t *testing.T) {
	users := roster(40)
	filters := []userview.Filter{
		{},
		{Username: "2"},
		{Admin: userview.AdminOnly},
		{Admin: userview.AdminExcluded, VirtualCluster: "default"},
		{Username: "nobody"},
	}

	for _, f := range filters {
		once := f.Apply(users)
		twice := f.Apply(once)

		assert.True(t, isSubsequence(once, users), "filter %+v must preserve order", f)
		assert.Equal(t, once, twice, "filter %+v must be idempotent", f)
	}
}

func TestFilter_Apply_DoesNotMutateInput(t *testing.T) {
	users := roster(5)
	before := append([]*models.User(nil), users...)

	_ = userview.Filter{Admin: userview.AdminOnly}.Apply(users)

	assert.Equal(t, before, users)
}

func TestFilter_WithMethods_ReturnNewValue(t *testing.T) {
	base := userview.Filter{}
	edited := base.WithUsername("bob").WithVirtualCluster("gpu")

	assert.True(t, base.IsEmpty())
	assert.Equal(t, userview.Filter{Username: "bob", VirtualCluster: "gpu"}, edited)
	assert.Equal(t, edited, userview.Filter{}.WithVirtualCluster("gpu").WithUsername("bob"))
}

func TestParseAdminFilter(t *testing.T) {
	tests := []struct {
		in   string
		want userview.AdminFilter
		ok   bool
	}{
		{"", userview.AdminAny, true},
		{"any", userview.AdminAny, true},
		{"TRUE", userview.AdminOnly, true},
		{"false", userview.AdminExcluded, true},
		{"maybe", userview.AdminAny, false},
	}

	for _, tt := range tests {
		got, ok := userview.ParseAdminFilter(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestFilter_SaveAndLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := userview.NewMemoryStore()
	f := userview.Filter{Username: "ali", Admin: userview.AdminExcluded, VirtualCluster: "gpu"}

	require.NoError(t, f.Save(ctx, store, "filter:root"))
	got := userview.LoadFilter(ctx, store, "filter:root", slog.Default())

	assert.Equal(t, f, got)
}

func TestLoadFilter_MissingKey(t *testing.T) {
	got := userview.LoadFilter(context.Background(), userview.NewMemoryStore(), "absent", slog.Default())

	assert.True(t, got.IsEmpty())
}

func TestLoadFilter_MalformedValues(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		raw  string
		want userview.Filter
	}{
		{"not json", "{{{", userview.Filter{}},
		{"json array", `["a"]`, userview.Filter{}},
		{"bad admin value", `{"username":"bob","admin":"sometimes"}`, userview.Filter{Username: "bob"}},
		{"wrong field type", `{"username":42,"virtualCluster":"gpu"}`, userview.Filter{VirtualCluster: "gpu"}},
		{"unknown fields", `{"keyword":"x","admin":"true"}`, userview.Filter{Admin: userview.AdminOnly}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := userview.NewMemoryStore()
			require.NoError(t, store.Set(ctx, "k", tt.raw))

			assert.Equal(t, tt.want, userview.LoadFilter(ctx, store, "k", slog.Default()))
		})
	}
}

func TestLoadFilter_StoreError(t *testing.T) {
	got := userview.LoadFilter(context.Background(), failingStore{}, "k", slog.Default())

	assert.True(t, got.IsEmpty())
}
