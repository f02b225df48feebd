package main

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphabot-ai/qaforum/internal/auth"
	"github.com/alphabot-ai/qaforum/internal/client"
	"github.com/alphabot-ai/qaforum/internal/config"
	httpapp "github.com/alphabot-ai/qaforum/internal/http"
	"github.com/alphabot-ai/qaforum/internal/store/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := memory.New()
	authSvc := auth.NewService(st, auth.WithCost(bcrypt.MinCost))
	srv := httptest.NewServer(httpapp.NewServer(st, authSvc, nil, zerolog.Nop(), config.Config{}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := loadSession()
	require.Error(t, err)

	want := Session{BaseURL: "http://forum.test", Name: "ada", UserID: 7, Token: "abc"}
	require.NoError(t, saveSession(want))
	got, err := loadSession()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSessionNeedsHomeDirectory(t *testing.T) {
	t.Setenv("HOME", "")
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	err = saveSession(Session{Name: "ada", Token: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locate session file")
	assert.NoDirExists(t, filepath.Join(dir, ".qaforum"))

	_, err = loadSession()
	assert.ErrorContains(t, err, "locate session file")
}

func TestOpenStore(t *testing.T) {
	st, err := openStore(config.Config{Store: config.Store{Driver: config.StoreMemory}})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = openStore(config.Config{Store: config.Store{Driver: "postgres"}})
	assert.Error(t, err)
}

func TestRegisterAskAndLike(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := newTestServer(t)
	require.NoError(t, newApp().Run([]string{"qaforum", "register",
		"--url", srv.URL, "--name", "ada", "--email", "ada@example.com", "--password", "pw"}))
	s, err := loadSession()
	require.NoError(t, err)
	assert.Equal(t, srv.URL, s.BaseURL)
	assert.Equal(t, "ada", s.Name)
	assert.NotEmpty(t, s.Token)

	require.NoError(t, newApp().Run([]string{"qaforum", "ask", "--title", "Why is the sky blue?"}))

	found, err := client.New(srv.URL).Search("sky")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, s.UserID, found[0].UserID)

	require.NoError(t, newApp().Run([]string{"qaforum", "like", "--question", strconv.FormatInt(found[0].ID, 10)}))
	q, err := client.New(srv.URL).Question(found[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Likes)
}

func TestLikeNeedsExactlyOneTarget(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	assert.Error(t, newApp().Run([]string{"qaforum", "like"}))
	assert.Error(t, newApp().Run([]string{"qaforum", "like", "--question", "1", "--answer", "2"}))
}

func TestLoginWithWrongPassword(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := newTestServer(t)
	require.NoError(t, newApp().Run([]string{"qaforum", "register",
		"--url", srv.URL, "--name", "ken", "--email", "ken@example.com", "--password", "pw"}))
	err := newApp().Run([]string{"qaforum", "login", "--url", srv.URL, "--name", "ken", "--password", "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong name or password")
}
