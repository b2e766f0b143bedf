package userview_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/userview"
)

func newUser(username string, admin bool, vcs ...string) *models.User {
	return &models.User{
		Username:        username,
		Email:           username + "@example.com",
		Admin:           admin,
		VirtualClusters: vcs,
	}
}

// roster returns n users named user00..user(n-1); every third user is an admin
// and users alternate between the "default" and "gpu" virtual clusters.
func roster(n int) []*models.User {
	users := make([]*models.User, n)
	for i := range users {
		vc := "default"
		if i%2 == 1 {
			vc = "gpu"
		}
		users[i] = newUser(fmt.Sprintf("user%02d", i), i%3 == 0, vc)
	}
	return users
}

func usernames(users []*models.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names
}

// fakeBackend implements UserSource and UserMutator over an in-memory roster.
type fakeBackend struct {
	mu         sync.Mutex
	users      []*models.User
	vcs        []string
	fetchErr   error
	fetchCalls int
	failFor    map[string]error
	removed    []string
	passwords  map[string]string
	assigned   map[string][]string
}

func newFakeBackend(users []*models.User) *fakeBackend {
	return &fakeBackend{
		users:     users,
		vcs:       []string{"default", "gpu"},
		failFor:   map[string]error{},
		passwords: map[string]string{},
		assigned:  map[string][]string{},
	}
}

func (b *fakeBackend) FetchAllUsers(ctx context.Context) ([]*models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetchCalls++
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	out := make([]*models.User, len(b.users))
	copy(out, b.users)
	return out, nil
}

func (b *fakeBackend) FetchAllVirtualClusterNames(ctx context.Context) ([]string, error) {
	return b.vcs, nil
}

func (b *fakeBackend) RemoveUser(ctx context.Context, username string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failFor[username]; err != nil {
		return err
	}
	b.removed = append(b.removed, username)
	for i, u := range b.users {
		if u.Username == username {
			b.users = append(b.users[:i:i], b.users[i+1:]...)
			break
		}
	}
	return nil
}

func (b *fakeBackend) UpdatePassword(ctx context.Context, username, password string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failFor[username]; err != nil {
		return err
	}
	b.passwords[username] = password
	return nil
}

func (b *fakeBackend) UpdateVirtualClusters(ctx context.Context, username string, vcs []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failFor[username]; err != nil {
		return err
	}
	b.assigned[username] = vcs
	return nil
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetchCalls
}

// failingStore is a StateStore whose reads and writes always fail.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store offline")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("store offline")
}

// gatedStore holds its first write until release is closed.
type gatedStore struct {
	*userview.MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: userview.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (s *gatedStore) Set(ctx context.Context, key, value string) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.MemoryStore.Set(ctx, key, value)
}
