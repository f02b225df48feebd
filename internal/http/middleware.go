package httpapp

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/alphabot-ai/qaforum/internal/auth"
	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
)

const userKey = "qaforum.user"

// RequireUser resolves the raw Authorization header to a user. The header
// value is the token itself; there is no "Bearer " scheme.
func RequireUser(resolver auth.TokenResolver, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(echo.HeaderAuthorization)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]any{"loggedOut": true, "message": msgTokenMissing})
			}
			user, err := resolver.ResolveToken(c.Request().Context(), token)
			if errors.Is(err, auth.ErrUnauthenticated) {
				return c.JSON(http.StatusUnauthorized, map[string]any{"loggedOut": true, "message": msgLoggedOut})
			}
			if err != nil {
				logger.Error().Err(err).Msg("resolve token")
				return writeMessage(c, http.StatusServiceUnavailable, msgUnavailable)
			}
			c.Set(userKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user attached by RequireUser.
func CurrentUser(c echo.Context) (model.User, bool) {
	user, ok := c.Get(userKey).(model.User)
	return user, ok
}

func storeAvailable(st store.Store, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := st.Ping(c.Request().Context()); err != nil {
				logger.Error().Err(err).Msg("store ping")
				return writeMessage(c, http.StatusServiceUnavailable, msgUnavailable)
			}
			return next(c)
		}
	}
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := logger.Info()
			if v.Error != nil {
				ev = logger.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
