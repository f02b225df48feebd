package httpapp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/alphabot-ai/qaforum/internal/store"
)

const (
	msgNoQuestion       = "Sorry, could not find this question"
	msgNoUser           = "Sorry, could not find this user"
	msgCreateUser       = "Could not create user"
	msgCreateQuestion   = "Could not create question"
	msgCreateAnswer     = "Could not create answer"
	msgLikeQuestion     = "Could not update likes to an undefined question."
	msgLikeAnswer       = "Could not update likes to an undefined answer."
	msgUserQuestions    = "Could not find questions for this user"
	msgUserAnswers      = "Could not find answers for this user"
	msgListFailed       = "Could not load the list"
	msgTokenMissing     = "Access token is missing"
	msgLoggedOut        = "Please try logging in again"
	msgForbidden        = "This profile belongs to another user"
	msgUnavailable      = "Service unavailable"
	msgInternal         = "Internal server error"
	msgLoggedIn         = "You are logged in"
	secretMessageFormat = "This is profile page for %s."
)

func writeMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{"message": message})
}

// fail answers with a fixed message. Store outages become 503 regardless
// of status; the underlying error is logged, never returned to the client.
func (s *Server) fail(c echo.Context, err error, status int, message string) error {
	if errors.Is(err, store.ErrUnavailable) {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("store unavailable")
		return writeMessage(c, http.StatusServiceUnavailable, msgUnavailable)
	}
	ev := s.logger.Debug()
	if !expected(err) {
		ev = s.logger.Error()
	}
	ev.Err(err).Str("path", c.Path()).Int("status", status).Msg("request failed")
	return writeMessage(c, status, message)
}

func expected(err error) bool {
	return err == nil ||
		errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrValidation) ||
		errors.Is(err, store.ErrDuplicateKey)
}

// handleError renders errors returned by echo itself (unknown route, bad
// method, bind failures, recovered panics).
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := msgInternal
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	} else {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = writeMessage(c, status, message)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("write error response")
	}
}

func parseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
