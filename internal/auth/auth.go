// Package auth owns credentials: bcrypt password hashes, opaque access
// tokens and the lookup of a token back to its user.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
)

// TokenBytes is the amount of randomness in an access token. Tokens are
// hex-encoded, so they are twice as long on the wire.
const TokenBytes = 128

var ErrUnauthenticated = errors.New("unauthenticated")

// TokenResolver maps an access token to the user it was issued to.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (model.User, error)
}

// TokenCache is a read-through cache in front of the user store.
type TokenCache interface {
	Get(ctx context.Context, token string) (model.User, bool, error)
	Set(ctx context.Context, token string, user model.User) error
}

type Service struct {
	store  store.UserStore
	cache  TokenCache
	cost   int
	logger zerolog.Logger
}

type Option func(*Service)

// WithCache puts cache in front of token lookups.
func WithCache(cache TokenCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithCost sets the bcrypt cost. Out of range values fall back to the default.
func WithCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(users store.UserStore, opts ...Option) *Service {
	s := &Service{
		store:  users,
		cost:   bcrypt.DefaultCost,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser hashes password, issues a fresh token and stores the user.
func (s *Service) CreateUser(ctx context.Context, name, email, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if password == "" {
		return model.User{}, &store.ValidationError{Field: "password"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return model.User{}, &store.ValidationError{Field: "password"}
	}
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	token, err := randomToken(TokenBytes)
	if err != nil {
		return model.User{}, fmt.Errorf("generate token: %w", err)
	}
	user := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		AccessToken:  token,
		CreatedAt:    time.Now(),
	}
	id, err := s.store.CreateUser(ctx, &user)
	if err != nil {
		return model.User{}, err
	}
	user.ID = id
	user.QuestionIDs = []int64{}
	user.AnswerIDs = []int64{}
	return user, nil
}

// VerifyCredentials returns the user named name when password matches. An
// unknown name and a wrong password both yield store.ErrNotFound.
func (s *Service) VerifyCredentials(ctx context.Context, name, password string) (model.User, error) {
	user, err := s.store.FindUserByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return model.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *Service) ResolveToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrUnauthenticated
	}
	if s.cache != nil {
		user, ok, err := s.cache.Get(ctx, token)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("token cache get")
		case ok:
			return user, nil
		}
	}

	user, err := s.store.FindUserByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, ErrUnauthenticated
	}
	if err != nil {
		return model.User{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, token, user); err != nil {
			s.logger.Warn().Err(err).Msg("token cache set")
		}
	}
	return user, nil
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
