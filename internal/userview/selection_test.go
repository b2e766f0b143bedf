package userview_test

import (
	"testing"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/userview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_ExplicitKeepsOrderAndIgnoresDuplicates(t *testing.T) {
	a, b := newUser("alice", false), newUser("bob", true)

	sel, err := userview.Selection{}.Select(b)
	require.NoError(t, err)
	sel, err = sel.Select(a)
	require.NoError(t, err)
	again, err := sel.Select(b)
	require.NoError(t, err)

	assert.Equal(t, []string{"bob", "alice"}, usernames(again.Explicit()))
	assert.True(t, again.IsSelected("alice"))

	sel, err = again.Deselect("bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames(sel.Explicit()))
	assert.Equal(t, []string{"bob", "alice"}, usernames(again.Explicit()), "original value must be unchanged")

	sel, err = sel.Deselect("nobody")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames(sel.Explicit()))
}

func TestSelection_AllModeRejectsIndividualChanges(t *testing.T) {
	sel := userview.SelectAllUsers()

	_, err := sel.Select(newUser("alice", false))
	assert.ErrorIs(t, err, userview.ErrSelectAllActive)

	_, err = sel.Deselect("alice")
	assert.ErrorIs(t, err, userview.ErrSelectAllActive)
}

func TestSelection_Resolve(t *testing.T) {
	calls := 0
	visible := func() []*models.User {
		calls++
		return []*models.User{newUser("carol", false)}
	}

	all := userview.SelectAllUsers()
	assert.Equal(t, []string{"carol"}, usernames(all.Resolve(visible)))
	assert.Equal(t, []string{"carol"}, usernames(all.Resolve(visible)))
	assert.Equal(t, 2, calls, "all mode is evaluated on every read")

	explicit, err := userview.Selection{}.Select(newUser("dave", false))
	require.NoError(t, err)
	assert.Equal(t, []string{"dave"}, usernames(explicit.Resolve(visible)))
	assert.Equal(t, 2, calls)
}
