//go:build integration

package repositories

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/BradenHooton/useradmin/internal/database"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *database.DB

// TestMain starts one PostgreSQL container for the package and applies the
// embedded migrations to it.
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("useradmin"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	code := func() int {
		defer func() { _ = container.Terminate(ctx) }()

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
			return 1
		}
		pool, err := pgxpool.New(ctx, connStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create connection pool: %v\n", err)
			return 1
		}
		defer pool.Close()

		testDB = database.NewFromPool(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err := testDB.Migrate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
			return 1
		}
		return m.Run()
	}()
	os.Exit(code)
}

// cleanupTables truncates the mutable tables for test isolation
func cleanupTables(t *testing.T) {
	t.Helper()
	for _, table := range []string{"users", "ui_state"} {
		_, err := testDB.Pool.Exec(context.Background(), "TRUNCATE TABLE "+table)
		require.NoError(t, err, "truncate %s", table)
	}
}

func seedUser(t *testing.T, repo *UserRepository, username string, admin bool, vcs ...string) *models.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &models.User{
		Username:        username,
		Email:           username + "@example.com",
		PasswordHash:    "$2a$04$hash",
		Admin:           admin,
		VirtualClusters: vcs,
	})
	require.NoError(t, err)
	return u
}

func TestUserRepository_CreateAndList(t *testing.T) {
	cleanupTables(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	seedUser(t, repo, "carol", false, "default")
	seedUser(t, repo, "alice", true, "default", "gpu")
	seedUser(t, repo, "bob", false)

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, []string{"default", "gpu"}, users[0].VirtualClusters)
	assert.True(t, users[0].Admin)
	assert.Equal(t, []string{}, users[1].VirtualClusters)
	assert.Equal(t, map[string]any{}, users[1].Extension)

	_, err = repo.Create(ctx, &models.User{Username: "alice"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestUserRepository_GetByUsername_NotFound(t *testing.T) {
	cleanupTables(t)
	repo := NewUserRepository(testDB)

	_, err := repo.GetByUsername(context.Background(), "ghost")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_Updates(t *testing.T) {
	cleanupTables(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()
	seedUser(t, repo, "alice", false, "default")

	require.NoError(t, repo.UpdatePassword(ctx, "alice", "$2a$04$other"))
	require.NoError(t, repo.UpdateVirtualClusters(ctx, "alice", []string{"gpu"}))
	require.NoError(t, repo.UpdateExtension(ctx, "alice", models.ExtensionGroupList, []string{"ops", "dev"}))

	u, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$other", u.PasswordHash)
	assert.Equal(t, []string{"gpu"}, u.VirtualClusters)
	assert.Equal(t, []string{"ops", "dev"}, u.GroupList())

	u.Email = "alice@corp.example.com"
	u.Admin = true
	updated, err := repo.Update(ctx, u)
	require.NoError(t, err)
	assert.True(t, updated.Admin)
	assert.Equal(t, "alice@corp.example.com", updated.Email)
	assert.Equal(t, []string{"ops", "dev"}, updated.GroupList())

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "ghost", "x"), models.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateVirtualClusters(ctx, "ghost", []string{}), models.ErrNotFound)
}

func TestUserRepository_DeleteRemovesViewState(t *testing.T) {
	cleanupTables(t)
	users := NewUserRepository(testDB)
	state := NewUIStateRepository(testDB)
	ctx := context.Background()
	seedUser(t, users, "alice", true)
	seedUser(t, users, "malice", true)

	require.NoError(t, state.Set(ctx, "userview.filter:alice", `{"username":"a"}`))
	require.NoError(t, state.Set(ctx, "userview.filter:malice", `{"username":"m"}`))

	require.NoError(t, users.Delete(ctx, "alice"))

	_, ok, err := state.Get(ctx, "userview.filter:alice")
	require.NoError(t, err)
	assert.False(t, ok)

	value, ok, err := state.Get(ctx, "userview.filter:malice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"username":"m"}`, value)

	assert.ErrorIs(t, users.Delete(ctx, "alice"), models.ErrNotFound)
}

func TestUIStateRepository_LastWriteWins(t *testing.T) {
	cleanupTables(t)
	repo := NewUIStateRepository(testDB)
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "userview.filter:root")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "userview.filter:root", "first"))
	require.NoError(t, repo.Set(ctx, "userview.filter:root", "second"))

	value, ok, err := repo.Get(ctx, "userview.filter:root")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", value)
}

func TestVirtualClusterRepository(t *testing.T) {
	repo := NewVirtualClusterRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "gpu", "GPU nodes"))
	require.NoError(t, repo.Create(ctx, "gpu", "duplicate is ignored"))

	names, err := repo.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "gpu"}, names)
}
