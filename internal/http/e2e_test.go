package httpapp_test

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphabot-ai/qaforum/internal/auth"
	"github.com/alphabot-ai/qaforum/internal/client"
	"github.com/alphabot-ai/qaforum/internal/config"
	httpapp "github.com/alphabot-ai/qaforum/internal/http"
	"github.com/alphabot-ai/qaforum/internal/store/sqlstore"
)

func startServer(t *testing.T) string {
	t.Helper()
	dsn := fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared", t.Name())
	st, err := sqlstore.Open(sqlstore.DriverSQLite, dsn)
	require.NoError(t, err, "open store")
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Config{Addr: ":0"}
	authSvc := auth.NewService(st, auth.WithCost(bcrypt.MinCost))
	server := httpapp.NewServer(st, authSvc, nil, zerolog.Nop(), cfg)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "listen")
	httpServer := &http.Server{Handler: server}
	go func() {
		_ = httpServer.Serve(listener)
	}()
	t.Cleanup(func() { _ = httpServer.Close() })

	return "http://" + listener.Addr().String()
}

func TestEndToEndServer(t *testing.T) {
	baseURL := startServer(t)

	ada := client.New(baseURL)
	session, err := ada.Register("ada", "a@x.com", "secret")
	require.NoError(t, err)
	assert.Len(t, session.AccessToken, 2*auth.TokenBytes)

	msg, err := ada.Secret()
	require.NoError(t, err)
	assert.Equal(t, "This is profile page for ada.", msg)

	stranger := client.New(baseURL)
	stranger.UserID = ada.UserID
	_, err = stranger.Secret()
	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(err))
	stranger.Token = "not-a-token"
	_, err = stranger.Secret()
	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(err))

	again := client.New(baseURL)
	login, err := again.Login("ada", "secret")
	require.NoError(t, err)
	assert.Equal(t, session.AccessToken, login.AccessToken)
	_, err = client.New(baseURL).Login("ada", "wrong")
	assert.Equal(t, http.StatusNotFound, client.StatusOf(err))

	qid, err := ada.Ask("wifi issue", "my wifi keeps dropping")
	require.NoError(t, err)
	found, err := ada.Search("wi-fi")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, qid, found[0].ID)
	none, err := ada.Search("bluetooth")
	require.NoError(t, err)
	assert.Empty(t, none)

	grace, err := client.NewTestHelper(baseURL).CreateAuthenticatedClient("grace")
	require.NoError(t, err)
	aid, err := grace.Answer(qid, "restart the router")
	require.NoError(t, err)
	require.NoError(t, ada.LikeAnswer(aid))

	detail, err := grace.Question(qid)
	require.NoError(t, err)
	require.Len(t, detail.Answers, 1)
	assert.Equal(t, 1, detail.Answers[0].Likes)
	assert.Equal(t, grace.UserID, detail.Answers[0].UserID)

	unanswered, err := ada.Unanswered()
	require.NoError(t, err)
	assert.Empty(t, unanswered)
}

func TestConcurrentLikesOverHTTP(t *testing.T) {
	baseURL := startServer(t)
	helper := client.NewTestHelper(baseURL)
	ada, err := helper.CreateAuthenticatedClient("ada")
	require.NoError(t, err)
	qid, err := ada.Ask("like me", "")
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ada.LikeQuestion(qid)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	popular, err := ada.Popular()
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, n, popular[0].Likes)
}
