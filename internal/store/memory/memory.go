// Package memory is an in-process store.Store used by tests and by
// `qaforum serve --store memory`.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	users     []model.User
	questions []model.Question
	answers   []model.Answer
	closed    bool
}

func New() *Store {
	return &Store{}
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrUnavailable
	}
	return ctx.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	if err := store.ValidateUser(user); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == user.Name || u.Email == user.Email || u.AccessToken == user.AccessToken {
			return 0, store.ErrDuplicateKey
		}
	}
	u := *user
	u.ID = int64(len(s.users) + 1)
	u.QuestionIDs, u.AnswerIDs = nil, nil
	s.users = append(s.users, u)
	return u.ID, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	return s.findUser(func(u model.User) bool { return u.ID == id })
}

func (s *Store) FindUserByName(ctx context.Context, name string) (model.User, error) {
	return s.findUser(func(u model.User) bool { return u.Name == name })
}

func (s *Store) FindUserByToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, store.ErrNotFound
	}
	return s.findUser(func(u model.User) bool { return u.AccessToken == token })
}

func (s *Store) findUser(match func(model.User) bool) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if !match(u) {
			continue
		}
		u.QuestionIDs = []int64{}
		u.AnswerIDs = []int64{}
		for _, q := range s.questions {
			if q.UserID == u.ID {
				u.QuestionIDs = append(u.QuestionIDs, q.ID)
			}
		}
		for _, a := range s.answers {
			if a.UserID == u.ID {
				u.AnswerIDs = append(u.AnswerIDs, a.ID)
			}
		}
		return u, nil
	}
	return model.User{}, store.ErrNotFound
}

func (s *Store) CreateQuestion(ctx context.Context, question *model.Question) (int64, error) {
	if err := store.ValidateQuestion(question); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasUser(question.UserID) {
		return 0, store.ErrNotFound
	}
	q := *question
	q.ID = int64(len(s.questions) + 1)
	q.Likes = 0
	q.AnswerIDs = nil
	s.questions = append(s.questions, q)
	return q.ID, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (model.QuestionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.question(id)
	if !ok {
		return model.QuestionDetail{}, store.ErrNotFound
	}
	detail := model.QuestionDetail{Question: s.withAnswerIDs(q), Answers: []model.Answer{}}
	for _, a := range s.answers {
		if a.QuestionID == id {
			detail.Answers = append(detail.Answers, a)
		}
	}
	return detail, nil
}

func (s *Store) ListQuestions(ctx context.Context, opts store.QuestionListOpts) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := store.NormalizeSearch(opts.Query)
	out := make([]model.Question, 0)
	for _, q := range s.questions {
		if opts.UserID != 0 && q.UserID != opts.UserID {
			continue
		}
		if query != "" &&
			!strings.Contains(store.NormalizeSearch(q.Title), query) &&
			!strings.Contains(store.NormalizeSearch(q.Body), query) {
			continue
		}
		q = s.withAnswerIDs(q)
		if opts.Unanswered && len(q.AnswerIDs) > 0 {
			continue
		}
		out = append(out, q)
	}
	switch opts.Sort {
	case store.SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID > out[j].ID
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case store.SortPopular:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Likes > out[j].Likes })
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) IncrementQuestionLikes(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || id > int64(len(s.questions)) {
		return store.ErrNotFound
	}
	s.questions[id-1].Likes++
	return nil
}

func (s *Store) CreateAnswer(ctx context.Context, answer *model.Answer) (int64, error) {
	if err := store.ValidateAnswer(answer); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.question(answer.QuestionID); !ok || !s.hasUser(answer.UserID) {
		return 0, store.ErrNotFound
	}
	a := *answer
	a.ID = int64(len(s.answers) + 1)
	a.Likes = 0
	s.answers = append(s.answers, a)
	return a.ID, nil
}

func (s *Store) ListAnswers(ctx context.Context, opts store.AnswerListOpts) ([]model.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Answer, 0)
	for _, a := range s.answers {
		if opts.QuestionID != 0 && a.QuestionID != opts.QuestionID {
			continue
		}
		if opts.UserID != 0 && a.UserID != opts.UserID {
			continue
		}
		out = append(out, a)
	}
	switch opts.Sort {
	case store.SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID > out[j].ID
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case store.SortPopular:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Likes > out[j].Likes })
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) IncrementAnswerLikes(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || id > int64(len(s.answers)) {
		return store.ErrNotFound
	}
	s.answers[id-1].Likes++
	return nil
}

// Callers hold s.mu.
func (s *Store) question(id int64) (model.Question, bool) {
	if id < 1 || id > int64(len(s.questions)) {
		return model.Question{}, false
	}
	return s.questions[id-1], true
}

func (s *Store) hasUser(id int64) bool {
	return id >= 1 && id <= int64(len(s.users))
}

func (s *Store) withAnswerIDs(q model.Question) model.Question {
	q.AnswerIDs = []int64{}
	for _, a := range s.answers {
		if a.QuestionID == q.ID {
			q.AnswerIDs = append(q.AnswerIDs, a.ID)
		}
	}
	return q
}
