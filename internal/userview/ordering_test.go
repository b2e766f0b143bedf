package userview_test

import (
	"strings"
	"testing"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/userview"
	"github.com/stretchr/testify/assert"
)

func TestOrdering_Apply_ZeroValueIsIdentity(t *testing.T) {
	users := []*models.User{newUser("c", false), newUser("a", false), newUser("b", false)}

	got := userview.Ordering{}.Apply(users)

	assert.Equal(t, []string{"c", "a", "b"}, usernames(got))
}

func TestOrdering_Apply_Username(t *testing.T) {
	users := []*models.User{newUser("carol", false), newUser("alice", false), newUser("bob", false)}

	asc := userview.Ordering{Key: userview.SortByUsername}.Apply(users)
	desc := userview.Ordering{Key: userview.SortByUsername, Direction: userview.Descending}.Apply(users)

	assert.Equal(t, []string{"alice", "bob", "carol"}, usernames(asc))
	assert.Equal(t, []string{"carol", "bob", "alice"}, usernames(desc))
	assert.Equal(t, []string{"carol", "alice", "bob"}, usernames(users), "input must not be reordered")
}

func TestOrdering_Apply_StableForEqualKeys(t *testing.T) {
	users := []*models.User{
		newUser("u1", true),
		newUser("u2", false),
		newUser("u3", true),
		newUser("u4", false),
		newUser("u5", true),
	}

	asc := userview.Ordering{Key: userview.SortByAdmin, Direction: userview.Ascending}.Apply(users)
	desc := userview.Ordering{Key: userview.SortByAdmin, Direction: userview.Descending}.Apply(users)

	assert.Equal(t, []string{"u2", "u4", "u1", "u3", "u5"}, usernames(asc))
	assert.Equal(t, []string{"u1", "u3", "u5", "u2", "u4"}, usernames(desc))
}

func TestOrdering_Apply_VirtualClusterCount(t *testing.T) {
	users := []*models.User{
		newUser("two", false, "a", "b"),
		newUser("none", false),
		newUser("one", false, "a"),
		newUser("zero", false),
	}

	got := userview.Ordering{Key: userview.SortByVirtualClusters}.Apply(users)

	assert.Equal(t, []string{"none", "zero", "one", "two"}, usernames(got))
}

func TestOrdering_RegisterSortKey(t *testing.T) {
	key := userview.SortKey("usernameLength")
	userview.RegisterSortKey(key, func(a, b *models.User) int {
		return len(a.Username) - len(b.Username)
	})
	users := []*models.User{newUser("ccc", false), newUser("a", false), newUser("bb", false)}

	o := userview.Ordering{Key: key}

	assert.NoError(t, o.Validate())
	assert.Equal(t, []string{"a", "bb", "ccc"}, usernames(o.Apply(users)))
}

func TestOrdering_Validate(t *testing.T) {
	assert.NoError(t, userview.Ordering{}.Validate())
	assert.NoError(t, userview.Ordering{Key: userview.SortByEmail, Direction: userview.Descending}.Validate())
	assert.ErrorIs(t, userview.Ordering{Key: "shoeSize"}.Validate(), userview.ErrUnknownSortKey)
	assert.ErrorIs(t, userview.Ordering{Key: userview.SortByEmail, Direction: "up"}.Validate(), userview.ErrInvalidDirection)
}

func TestOrdering_Apply_UnknownKeyIsIdentity(t *testing.T) {
	users := []*models.User{newUser("b", false), newUser("a", false)}

	got := userview.Ordering{Key: "shoeSize"}.Apply(users)

	assert.Equal(t, "b,a", strings.Join(usernames(got), ","))
}
