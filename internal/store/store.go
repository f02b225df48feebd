package store

import (
	"context"
	"errors"
	"strings"

	"github.com/alphabot-ai/qaforum/internal/model"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrValidation   = errors.New("validation failed")
	ErrUnavailable  = errors.New("store unavailable")
)

// ValidationError reports a required field that was left empty.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Field + " is required"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

const (
	SortNatural = ""
	SortNewest  = "new"
	SortPopular = "popular"
)

type QuestionListOpts struct {
	// Query is matched as a case-insensitive substring of the title or the
	// question text. Hyphens are ignored on both sides.
	Query      string
	UserID     int64
	Unanswered bool
	Sort       string
	Limit      int
}

type AnswerListOpts struct {
	QuestionID int64
	UserID     int64
	Sort       string
	Limit      int
}

type Store interface {
	UserStore
	QuestionStore
	AnswerStore
	Ping(ctx context.Context) error
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	FindUserByName(ctx context.Context, name string) (model.User, error)
	FindUserByToken(ctx context.Context, token string) (model.User, error)
}

type QuestionStore interface {
	CreateQuestion(ctx context.Context, question *model.Question) (int64, error)
	GetQuestion(ctx context.Context, id int64) (model.QuestionDetail, error)
	ListQuestions(ctx context.Context, opts QuestionListOpts) ([]model.Question, error)
	IncrementQuestionLikes(ctx context.Context, id int64) error
}

type AnswerStore interface {
	CreateAnswer(ctx context.Context, answer *model.Answer) (int64, error)
	ListAnswers(ctx context.Context, opts AnswerListOpts) ([]model.Answer, error)
	IncrementAnswerLikes(ctx context.Context, id int64) error
}

func ValidateUser(u *model.User) error {
	switch {
	case strings.TrimSpace(u.Name) == "":
		return &ValidationError{Field: "name"}
	case strings.TrimSpace(u.Email) == "":
		return &ValidationError{Field: "email"}
	case u.PasswordHash == "":
		return &ValidationError{Field: "password"}
	case u.AccessToken == "":
		return &ValidationError{Field: "accessToken"}
	}
	return nil
}

func ValidateQuestion(q *model.Question) error {
	switch {
	case strings.TrimSpace(q.Title) == "":
		return &ValidationError{Field: "title"}
	case q.UserID == 0:
		return &ValidationError{Field: "userId"}
	}
	return nil
}

func ValidateAnswer(a *model.Answer) error {
	switch {
	case strings.TrimSpace(a.Text) == "":
		return &ValidationError{Field: "text"}
	case a.QuestionID == 0:
		return &ValidationError{Field: "questionId"}
	case a.UserID == 0:
		return &ValidationError{Field: "userId"}
	}
	return nil
}

// NormalizeSearch folds s the way search queries and searched fields are
// compared.
func NormalizeSearch(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", ""))
}
