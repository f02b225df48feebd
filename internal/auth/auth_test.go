package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
	"github.com/alphabot-ai/qaforum/internal/store/memory"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })
	opts = append([]Option{WithCost(bcrypt.MinCost)}, opts...)
	return NewService(st, opts...), st
}

func TestCreateUser(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "ada", "ada@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Len(t, user.AccessToken, 2*TokenBytes)
	assert.Regexp(t, "^[0-9a-f]+$", user.AccessToken)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	stored, err := st.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2")))
	assert.Equal(t, user.AccessToken, stored.AccessToken)

	other, err := svc.CreateUser(ctx, "grace", "grace@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, user.AccessToken, other.AccessToken)
	assert.NotEqual(t, stored.PasswordHash, other.PasswordHash)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "ada", "ada@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "ada", "new@example.com", "pw")
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
	_, err = svc.CreateUser(ctx, "grace", "ada@example.com", "pw")
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name, email, password, field string
	}{
		{"", "a@example.com", "pw", "name"},
		{"ada", "", "pw", "email"},
		{"ada", "a@example.com", "", "password"},
		{"ada", "a@example.com", strings.Repeat("x", 73), "password"},
	}
	for _, tc := range cases {
		_, err := svc.CreateUser(ctx, tc.name, tc.email, tc.password)
		var verr *store.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, tc.field, verr.Field)
		assert.ErrorIs(t, err, store.ErrValidation)
	}
}

func TestVerifyCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "ada", "ada@example.com", "hunter2")
	require.NoError(t, err)

	user, err := svc.VerifyCredentials(ctx, "ada", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, created.AccessToken, user.AccessToken)

	_, err = svc.VerifyCredentials(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.VerifyCredentials(ctx, "nobody", "hunter2")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.VerifyCredentials(ctx, "ada", "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolveToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "ada", "ada@example.com", "pw")
	require.NoError(t, err)

	user, err := svc.ResolveToken(ctx, created.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, "ada", user.Name)

	_, err = svc.ResolveToken(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.ResolveToken(ctx, "Bearer "+created.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.ResolveToken(ctx, created.AccessToken[1:])
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

type brokenUsers struct {
	store.UserStore
}

func (brokenUsers) FindUserByToken(context.Context, string) (model.User, error) {
	return model.User{}, store.ErrUnavailable
}

func TestResolveTokenStoreFailure(t *testing.T) {
	svc := NewService(brokenUsers{UserStore: memory.New()})

	_, err := svc.ResolveToken(context.Background(), "some-token")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

type mapCache struct {
	mu     sync.Mutex
	users  map[string]model.User
	gets   int
	getErr error
}

func (c *mapCache) Get(_ context.Context, token string) (model.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return model.User{}, false, c.getErr
	}
	u, ok := c.users[token]
	return u, ok, nil
}

func (c *mapCache) Set(_ context.Context, token string, user model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[token] = user
	return nil
}

func TestResolveTokenUsesCache(t *testing.T) {
	cache := &mapCache{users: map[string]model.User{}}
	svc, _ := newTestService(t, WithCache(cache))
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "ada", "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.ResolveToken(ctx, created.AccessToken)
	require.NoError(t, err)
	require.Contains(t, cache.users, created.AccessToken)

	cache.users[created.AccessToken] = model.User{ID: created.ID, Name: "from-cache"}
	user, err := svc.ResolveToken(ctx, created.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "from-cache", user.Name)
	assert.Equal(t, 2, cache.gets)

	_, err = svc.ResolveToken(ctx, "unknown")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.NotContains(t, cache.users, "unknown")
}

func TestResolveTokenCacheFailureFallsBack(t *testing.T) {
	cache := &mapCache{users: map[string]model.User{}, getErr: errors.New("redis down")}
	svc, _ := newTestService(t, WithCache(cache))
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "ada", "ada@example.com", "pw")
	require.NoError(t, err)

	user, err := svc.ResolveToken(ctx, created.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestWithCostIgnoresInvalid(t *testing.T) {
	svc := NewService(memory.New(), WithCost(100))
	assert.Equal(t, bcrypt.DefaultCost, svc.cost)
}
