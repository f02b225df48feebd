package httpapp

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/alphabot-ai/qaforum/internal/events"
	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
)

// Size of the /popular and /latest listings.
const topN = 3

func (s *Server) handleSearchQuestions(c echo.Context) error {
	questions, err := s.store.ListQuestions(c.Request().Context(), store.QuestionListOpts{
		Query: c.QueryParam("query"),
		Sort:  store.SortNewest,
	})
	if err != nil {
		return s.fail(c, err, http.StatusBadRequest, msgNoQuestion)
	}
	if len(questions) == 0 {
		return writeMessage(c, http.StatusOK, msgNoQuestion)
	}
	return c.JSON(http.StatusOK, questions)
}

func (s *Server) handleCreateQuestion(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return writeMessage(c, http.StatusUnauthorized, msgLoggedOut)
	}
	var req struct {
		Title    string `json:"title"`
		Question string `json:"question"`
	}
	if err := c.Bind(&req); err != nil {
		return writeMessage(c, http.StatusBadRequest, msgCreateQuestion)
	}
	q := model.Question{
		Title:     req.Title,
		Body:      req.Question,
		UserID:    user.ID,
		CreatedAt: time.Now(),
	}
	id, err := s.store.CreateQuestion(c.Request().Context(), &q)
	if err != nil {
		return s.fail(c, err, http.StatusBadRequest, msgCreateQuestion)
	}
	s.publish(c, events.Event{Type: events.QuestionCreated, ID: id, UserID: user.ID})
	return c.JSON(http.StatusCreated, map[string]any{
		"title":      q.Title,
		"question":   q.Body,
		"questionId": id,
		"userId":     user.ID,
	})
}

func (s *Server) handleGetQuestion(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return writeMessage(c, http.StatusBadRequest, msgNoQuestion)
	}
	detail, err := s.store.GetQuestion(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err, statusFor(err, http.StatusBadRequest), msgNoQuestion)
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) handleLikeQuestion(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return writeMessage(c, http.StatusUnauthorized, msgLoggedOut)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return writeMessage(c, http.StatusNotFound, msgLikeQuestion)
	}
	if err := s.store.IncrementQuestionLikes(c.Request().Context(), id); err != nil {
		return s.fail(c, err, http.StatusNotFound, msgLikeQuestion)
	}
	s.publish(c, events.Event{Type: events.QuestionLiked, ID: id, UserID: user.ID, QuestionID: id})
	return c.NoContent(http.StatusCreated)
}

func (s *Server) handleUserQuestions(c echo.Context) error {
	return s.listQuestions(c, store.QuestionListOpts{}, msgUserQuestions)
}

func (s *Server) handleLatestQuestions(c echo.Context) error {
	return s.listQuestions(c, store.QuestionListOpts{Sort: store.SortNewest, Limit: topN}, msgUserQuestions)
}

func (s *Server) listQuestions(c echo.Context, opts store.QuestionListOpts, message string) error {
	userID, ok := parseID(c, "userId")
	if !ok {
		return writeMessage(c, http.StatusBadRequest, message)
	}
	opts.UserID = userID
	questions, err := s.store.ListQuestions(c.Request().Context(), opts)
	if err != nil {
		return s.fail(c, err, http.StatusBadRequest, message)
	}
	return c.JSON(http.StatusOK, questions)
}

func (s *Server) handlePopular(c echo.Context) error {
	questions, err := s.store.ListQuestions(c.Request().Context(), store.QuestionListOpts{Sort: store.SortPopular, Limit: topN})
	if err != nil {
		return s.fail(c, err, http.StatusBadRequest, msgListFailed)
	}
	return c.JSON(http.StatusOK, questions)
}

func (s *Server) handleUnanswered(c echo.Context) error {
	questions, err := s.store.ListQuestions(c.Request().Context(), store.QuestionListOpts{Unanswered: true})
	if err != nil {
		return s.fail(c, err, http.StatusBadRequest, msgListFailed)
	}
	return c.JSON(http.StatusOK, questions)
}
