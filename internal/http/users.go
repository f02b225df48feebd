package httpapp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/alphabot-ai/qaforum/internal/events"
	"github.com/alphabot-ai/qaforum/internal/store"
)

func (s *Server) handleHello(c echo.Context) error {
	return c.String(http.StatusOK, "Hello world")
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "qaforum",
		"time":    time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleSignup(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return writeMessage(c, http.StatusBadRequest, msgCreateUser)
	}
	user, err := s.auth.CreateUser(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return s.fail(c, err, http.StatusBadRequest, msgCreateUser)
	}
	s.publish(c, events.Event{Type: events.UserCreated, ID: user.ID, UserID: user.ID})
	return c.JSON(http.StatusCreated, map[string]any{
		"name":        user.Name,
		"userId":      user.ID,
		"accessToken": user.AccessToken,
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	notFound := map[string]any{"notFound": true}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusNotFound, notFound)
	}
	user, err := s.auth.VerifyCredentials(c.Request().Context(), req.Name, req.Password)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return s.fail(c, err, http.StatusNotFound, msgNoUser)
		}
		return c.JSON(http.StatusNotFound, notFound)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"name":        user.Name,
		"questions":   user.QuestionIDs,
		"userId":      user.ID,
		"accessToken": user.AccessToken,
		"message":     msgLoggedIn,
	})
}

func (s *Server) handleSecret(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return writeMessage(c, http.StatusUnauthorized, msgLoggedOut)
	}
	if c.Param("id") != strconv.FormatInt(user.ID, 10) {
		return writeMessage(c, http.StatusForbidden, msgForbidden)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"secretMessage": fmt.Sprintf(secretMessageFormat, user.Name),
	})
}

func (s *Server) handleGetUser(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return writeMessage(c, http.StatusBadRequest, msgNoUser)
	}
	user, err := s.store.GetUser(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err, statusFor(err, http.StatusBadRequest), msgNoUser)
	}
	return c.JSON(http.StatusOK, user)
}

// statusFor is 404 for lookup misses and fallback otherwise.
func statusFor(err error, fallback int) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return fallback
}

func (s *Server) publish(c echo.Context, e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := s.events.Publish(c.Request().Context(), e); err != nil {
		s.logger.Warn().Err(err).Str("event", e.Key()).Msg("publish event")
	}
}
