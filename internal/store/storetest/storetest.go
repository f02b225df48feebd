// Package storetest holds behaviour every store.Store implementation must
// share. Implementations call Run from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
)

// Factory returns an empty store. The store is closed by Run.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st store.Store)
	}{
		{"UserLifecycle", testUserLifecycle},
		{"DuplicateUser", testDuplicateUser},
		{"UserValidation", testUserValidation},
		{"QuestionLifecycle", testQuestionLifecycle},
		{"QuestionRequiresAuthor", testQuestionRequiresAuthor},
		{"SearchQuestions", testSearchQuestions},
		{"SearchEscapesWildcards", testSearchEscapesWildcards},
		{"PopularQuestions", testPopularQuestions},
		{"UnansweredQuestions", testUnansweredQuestions},
		{"LatestByUser", testLatestByUser},
		{"AnswerRequiresQuestion", testAnswerRequiresQuestion},
		{"ConcurrentLikes", testConcurrentLikes},
		{"LikeMissing", testLikeMissing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := newStore(t)
			t.Cleanup(func() { _ = st.Close() })
			tc.fn(t, st)
		})
	}
}

func createUser(t *testing.T, st store.Store, name string) model.User {
	t.Helper()
	u := model.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "hash-" + name,
		AccessToken:  "token-" + name,
		CreatedAt:    time.Now(),
	}
	id, err := st.CreateUser(context.Background(), &u)
	require.NoError(t, err)
	u.ID = id
	return u
}

func createQuestion(t *testing.T, st store.Store, userID int64, title, body string, created time.Time) int64 {
	t.Helper()
	id, err := st.CreateQuestion(context.Background(), &model.Question{
		Title:     title,
		Body:      body,
		UserID:    userID,
		CreatedAt: created,
	})
	require.NoError(t, err)
	return id
}

func createAnswer(t *testing.T, st store.Store, userID, questionID int64, text string, created time.Time) int64 {
	t.Helper()
	id, err := st.CreateAnswer(context.Background(), &model.Answer{
		Text:       text,
		QuestionID: questionID,
		UserID:     userID,
		CreatedAt:  created,
	})
	require.NoError(t, err)
	return id
}

func questionIDs(qs []model.Question) []int64 {
	ids := make([]int64, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids
}

func testUserLifecycle(t *testing.T, st store.Store) {
	ctx := context.Background()
	ada := createUser(t, st, "ada")
	require.NotZero(t, ada.ID)

	byID, err := st.GetUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", byID.Name)
	assert.Equal(t, "ada@example.com", byID.Email)
	assert.Empty(t, byID.QuestionIDs)

	byName, err := st.FindUserByName(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, byName.ID)
	assert.Equal(t, "hash-ada", byName.PasswordHash)

	byToken, err := st.FindUserByToken(ctx, "token-ada")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, byToken.ID)

	qid := createQuestion(t, st, ada.ID, "first", "", time.Now())
	aid := createAnswer(t, st, ada.ID, qid, "self answer", time.Now())
	byID, err = st.GetUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{qid}, byID.QuestionIDs)
	assert.Equal(t, []int64{aid}, byID.AnswerIDs)

	_, err = st.GetUser(ctx, ada.ID+100)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.FindUserByName(ctx, "grace")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.FindUserByToken(ctx, "token-grace")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.FindUserByToken(ctx, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicateUser(t *testing.T, st store.Store) {
	ctx := context.Background()
	createUser(t, st, "ada")

	sameName := model.User{Name: "ada", Email: "other@example.com", PasswordHash: "h", AccessToken: "t1"}
	_, err := st.CreateUser(ctx, &sameName)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	sameEmail := model.User{Name: "grace", Email: "ada@example.com", PasswordHash: "h", AccessToken: "t2"}
	_, err = st.CreateUser(ctx, &sameEmail)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	fresh := model.User{Name: "grace", Email: "grace@example.com", PasswordHash: "h", AccessToken: "t3"}
	_, err = st.CreateUser(ctx, &fresh)
	assert.NoError(t, err)
}

func testUserValidation(t *testing.T, st store.Store) {
	_, err := st.CreateUser(context.Background(), &model.User{Name: "ada", PasswordHash: "h", AccessToken: "t"})
	require.ErrorIs(t, err, store.ErrValidation)
	var verr *store.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}

func testQuestionLifecycle(t *testing.T, st store.Store) {
	ctx := context.Background()
	ada := createUser(t, st, "ada")
	grace := createUser(t, st, "grace")
	qid := createQuestion(t, st, ada.ID, "wifi issue", "my wifi keeps dropping", time.Now())

	got, err := st.GetQuestion(ctx, qid)
	require.NoError(t, err)
	assert.Equal(t, "wifi issue", got.Title)
	assert.Equal(t, "my wifi keeps dropping", got.Body)
	assert.Equal(t, ada.ID, got.UserID)
	assert.Zero(t, got.Likes)
	assert.Empty(t, got.Answers)

	a1 := createAnswer(t, st, grace.ID, qid, "restart the router", time.Now())
	a2 := createAnswer(t, st, ada.ID, qid, "that worked", time.Now())

	got, err = st.GetQuestion(ctx, qid)
	require.NoError(t, err)
	require.Len(t, got.Answers, 2)
	assert.Equal(t, "restart the router", got.Answers[0].Text)
	assert.Equal(t, grace.ID, got.Answers[0].UserID)
	assert.Equal(t, []int64{a1, a2}, got.AnswerIDs)

	answers, err := st.ListAnswers(ctx, store.AnswerListOpts{QuestionID: qid})
	require.NoError(t, err)
	assert.Len(t, answers, 2)

	listed, err := st.ListQuestions(ctx, store.QuestionListOpts{UserID: ada.ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, []int64{a1, a2}, listed[0].AnswerIDs)

	_, err = st.GetQuestion(ctx, qid+100)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testQuestionRequiresAuthor(t *testing.T, st store.Store) {
	_, err := st.CreateQuestion(context.Background(), &model.Question{Title: "orphan", UserID: 42, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.CreateQuestion(context.Background(), &model.Question{Title: "  ", UserID: 42})
	assert.ErrorIs(t, err, store.ErrValidation)
}

func testSearchQuestions(t *testing.T, st store.Store) {
	ctx := context.Background()
	ada := createUser(t, st, "ada")
	base := time.Now().Add(-time.Hour)
	wifi := createQuestion(t, st, ada.ID, "wifi issue", "my wifi keeps dropping", base)
	playing := createQuestion(t, st, ada.ID, "Guitar", "Which song are you PLAYING?", base.Add(time.Minute))
	router := createQuestion(t, st, ada.ID, "Router upgrade", "Does Wi-Fi 6 matter?", base.Add(2*time.Minute))
	createQuestion(t, st, ada.ID, "Unrelated", "nothing to see", base.Add(3*time.Minute))
	umlaut := createQuestion(t, st, ada.ID, "Ärger mit WLAN", "Das Netz fällt ständig aus", base.Add(4*time.Minute))

	got, err := st.ListQuestions(ctx, store.QuestionListOpts{Query: "wi-fi", Sort: store.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []int64{router, wifi}, questionIDs(got))

	got, err = st.ListQuestions(ctx, store.QuestionListOpts{Query: "WIFI", Sort: store.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []int64{router, wifi}, questionIDs(got))

	got, err = st.ListQuestions(ctx, store.QuestionListOpts{Query: "playing", Sort: store.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []int64{playing}, questionIDs(got))

	for _, query := range []string{"Ärger", "ärger", "ÄRGER", "FÄLLT"} {
		got, err = st.ListQuestions(ctx, store.QuestionListOpts{Query: query, Sort: store.SortNewest})
		require.NoError(t, err)
		assert.Equal(t, []int64{umlaut}, questionIDs(got), "query %q", query)
	}

	got, err = st.ListQuestions(ctx, store.QuestionListOpts{Query: "no such words", Sort: store.SortNewest})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = st.ListQuestions(ctx, store.QuestionListOpts{Sort: store.SortNewest})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func testSearchEscapesWildcards(t *testing.T, st store.Store) {
	ctx := context.Background()
	ada := createUser(t, st, "ada")
	percent := createQuestion(t, st, ada.ID, "Is 100% uptime possible?", "", time.Now())
	createQuestion(t, st, ada.ID, "100 users online", "", time.Now())
	underscore := createQuestion(t, st, ada.ID, "snake_case or camelCase", "", time.Now())
	createQuestion(t, st, ada.ID, "snakes in python", "", time.Now())

	got, err := st.ListQuestions(ctx, store.QuestionListOpts{Query: "100%"})
	require.NoError(t, err)
	assert.Equal(t, []int64{percent}, questionIDs(got))

	got, err = st.ListQuestions(ctx, store.QuestionListOpts{Query: "snake_"})
	require.NoError(t, err)
	assert.Equal(t, []int64{underscore}, questionIDs(got))
}

func testPopularQuestions(t *testing.T, st store.Store) {
	ctx := context.Background()
	ada := createUser(t, st, "ada")
	likes := []int{1, 5, 3, 5, 0}
	ids := make([]int64, len(likes))
	for i, n := range likes {
		ids[i] = createQuestion(t, st, ada.ID, "question", "", time.Now())
		for j := 0; j < n; j++ {
			require.NoError(t, st.IncrementQuestionLikes(ctx, ids[i]))
		}
	}

	got, err := st.ListQuestions(ctx, store.QuestionListOpts{Sort: store.SortPopular, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[1], ids[3], ids[2]}, questionIDs(got))
	assert.Equal(t, 5, got[0].Likes)
}

func testUnansweredQuestions(t *testing.T, st store.Store) {
	ctx := context.Background()
	ada := createUser(t, st, "ada")
	answered := createQuestion(t, st, ada.ID, "answered", "", time.Now())
	open1 := createQuestion(t, st, ada.ID, "open one", "", time.Now())
	open2 := createQuestion(t, st, ada.ID, "open two", "", time.Now())
	createAnswer(t, st, ada.ID, answered, "done", time.Now())

	got, err := st.ListQuestions(ctx, store.QuestionListOpts{Unanswered: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{open1, open2}, questionIDs(got))
	for _, q := range got {
		assert.Empty(t, q.AnswerIDs)
	}
}

func testLatestByUser(t *testing.T, st store.Store) {
	ctx := context.Background()
	ada := createUser(t, st, "ada")
	grace := createUser(t, st, "grace")
	base := time.Now().Add(-time.Hour)
	var adaQuestions []int64
	for i := 0; i < 5; i++ {
		adaQuestions = append(adaQuestions, createQuestion(t, st, ada.ID, "q", "", base.Add(time.Duration(i)*time.Minute)))
	}
	other := createQuestion(t, st, grace.ID, "other", "", base.Add(time.Hour))

	got, err := st.ListQuestions(ctx, store.QuestionListOpts{UserID: ada.ID, Sort: store.SortNewest, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{adaQuestions[4], adaQuestions[3], adaQuestions[2]}, questionIDs(got))

	var answers []int64
	for i := 0; i < 4; i++ {
		answers = append(answers, createAnswer(t, st, grace.ID, adaQuestions[0], "a", base.Add(time.Duration(i)*time.Minute)))
	}
	createAnswer(t, st, ada.ID, other, "mine", base.Add(time.Hour))

	latest, err := st.ListAnswers(ctx, store.AnswerListOpts{UserID: grace.ID, Sort: store.SortNewest, Limit: 3})
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, answers[3], latest[0].ID)
	assert.Equal(t, answers[1], latest[2].ID)

	all, err := st.ListAnswers(ctx, store.AnswerListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func testAnswerRequiresQuestion(t *testing.T, st store.Store) {
	ada := createUser(t, st, "ada")
	_, err := st.CreateAnswer(context.Background(), &model.Answer{Text: "lost", QuestionID: 99, UserID: ada.ID, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.CreateAnswer(context.Background(), &model.Answer{QuestionID: 99, UserID: ada.ID})
	assert.ErrorIs(t, err, store.ErrValidation)
}

func testConcurrentLikes(t *testing.T, st store.Store) {
	ctx := context.Background()
	ada := createUser(t, st, "ada")
	qid := createQuestion(t, st, ada.ID, "popular", "", time.Now())
	aid := createAnswer(t, st, ada.ID, qid, "also popular", time.Now())

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- st.IncrementQuestionLikes(ctx, qid)
		}()
		go func() {
			defer wg.Done()
			errs <- st.IncrementAnswerLikes(ctx, aid)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := st.GetQuestion(ctx, qid)
	require.NoError(t, err)
	assert.Equal(t, n, got.Likes)
	require.Len(t, got.Answers, 1)
	assert.Equal(t, n, got.Answers[0].Likes)
}

func testLikeMissing(t *testing.T, st store.Store) {
	ctx := context.Background()
	assert.ErrorIs(t, st.IncrementQuestionLikes(ctx, 7), store.ErrNotFound)
	assert.ErrorIs(t, st.IncrementAnswerLikes(ctx, 7), store.ErrNotFound)
}
