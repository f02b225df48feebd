package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientNew(t *testing.T) {
	c := New("https://example.com/")
	assert.Equal(t, "https://example.com", c.BaseURL)
	assert.NotNil(t, c.HTTPClient)
	assert.False(t, c.IsAuthenticated())
}

func TestRegisterKeepsToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada", body["name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"name":"ada","userId":4,"accessToken":"tok"}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	s, err := c.Register("ada", "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.UserID)
	assert.Equal(t, "tok", c.Token)
	assert.Equal(t, int64(4), c.UserID)
	assert.True(t, c.IsAuthenticated())
}

func TestTokenSentVerbatim(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.Token = "abc123"
	require.NoError(t, c.LikeQuestion(1))
	assert.Equal(t, "abc123", got)
}

func TestErrorCarriesMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Sorry, could not find this question"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL).Question(9)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Sorry, could not find this question", apiErr.Message)
	assert.Contains(t, err.Error(), "404")
}

func TestSearchEmptyResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wi-fi 6", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{"message":"Sorry, could not find this question"}`))
	}))
	defer ts.Close()

	questions, err := New(ts.URL).Search("wi-fi 6")
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestStatusOfOtherErrors(t *testing.T) {
	assert.Zero(t, StatusOf(nil))
	assert.Zero(t, StatusOf(assert.AnError))
}
