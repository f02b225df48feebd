package httpapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/alphabot-ai/qaforum/internal/auth"
	"github.com/alphabot-ai/qaforum/internal/config"
	"github.com/alphabot-ai/qaforum/internal/events"
	"github.com/alphabot-ai/qaforum/internal/store"
)

type Server struct {
	echo   *echo.Echo
	store  store.Store
	auth   *auth.Service
	events events.Publisher
	logger zerolog.Logger
	cfg    config.Config
}

// NewServer wires the routes. A nil publisher disables events.
func NewServer(st store.Store, authSvc *auth.Service, pub events.Publisher, logger zerolog.Logger, cfg config.Config) *Server {
	if pub == nil {
		pub = events.Nop{}
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		store:  st,
		auth:   authSvc,
		events: pub,
		logger: logger.With().Str("component", "http").Logger(),
		cfg:    cfg,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(s.logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(storeAvailable(st, s.logger))

	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	requireUser := RequireUser(s.auth, s.logger)

	e.GET("/", s.handleHello)
	e.GET("/health", s.handleHealth)

	e.POST("/users", s.handleSignup)
	e.POST("/sessions", s.handleLogin)
	e.GET("/users/:id/secret", s.handleSecret, requireUser)
	e.GET("/user/:id", s.handleGetUser)

	e.GET("/questions", s.handleSearchQuestions)
	e.POST("/questions", s.handleCreateQuestion, requireUser)
	e.GET("/question/:id", s.handleGetQuestion)
	e.POST("/question/:id/like", s.handleLikeQuestion, requireUser)
	e.GET("/question/:id/answers", s.handleQuestionAnswers)
	e.POST("/question/:id/answers", s.handleCreateAnswer, requireUser)
	e.GET("/profile/:userId/questions", s.handleUserQuestions)
	e.GET("/latest/:userId/questions", s.handleLatestQuestions)
	e.GET("/latest/:userId/answers", s.handleLatestAnswers)
	e.GET("/popular", s.handlePopular)
	e.GET("/noanswer", s.handleUnanswered)

	e.GET("/answers", s.handleListAnswers)
	e.POST("/answer/:id/like", s.handleLikeAnswer, requireUser)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
