package httpapp

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/alphabot-ai/qaforum/internal/events"
	"github.com/alphabot-ai/qaforum/internal/model"
	"github.com/alphabot-ai/qaforum/internal/store"
)

func (s *Server) handleListAnswers(c echo.Context) error {
	answers, err := s.store.ListAnswers(c.Request().Context(), store.AnswerListOpts{})
	if err != nil {
		return s.fail(c, err, http.StatusBadRequest, msgListFailed)
	}
	return c.JSON(http.StatusOK, answers)
}

func (s *Server) handleQuestionAnswers(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return writeMessage(c, http.StatusBadRequest, msgNoQuestion)
	}
	answers, err := s.store.ListAnswers(c.Request().Context(), store.AnswerListOpts{QuestionID: id})
	if err != nil {
		return s.fail(c, err, http.StatusBadRequest, msgNoQuestion)
	}
	return c.JSON(http.StatusOK, answers)
}

func (s *Server) handleLatestAnswers(c echo.Context) error {
	userID, ok := parseID(c, "userId")
	if !ok {
		return writeMessage(c, http.StatusBadRequest, msgUserAnswers)
	}
	answers, err := s.store.ListAnswers(c.Request().Context(), store.AnswerListOpts{
		UserID: userID,
		Sort:   store.SortNewest,
		Limit:  topN,
	})
	if err != nil {
		return s.fail(c, err, http.StatusBadRequest, msgUserAnswers)
	}
	return c.JSON(http.StatusOK, answers)
}

func (s *Server) handleCreateAnswer(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return writeMessage(c, http.StatusUnauthorized, msgLoggedOut)
	}
	questionID, ok := parseID(c, "id")
	if !ok {
		return writeMessage(c, http.StatusBadRequest, msgCreateAnswer)
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return writeMessage(c, http.StatusBadRequest, msgCreateAnswer)
	}
	a := model.Answer{
		Text:       req.Text,
		QuestionID: questionID,
		UserID:     user.ID,
		CreatedAt:  time.Now(),
	}
	id, err := s.store.CreateAnswer(c.Request().Context(), &a)
	if errors.Is(err, store.ErrNotFound) {
		return s.fail(c, err, http.StatusNotFound, msgNoQuestion)
	}
	if err != nil {
		return s.fail(c, err, http.StatusBadRequest, msgCreateAnswer)
	}
	s.publish(c, events.Event{Type: events.AnswerCreated, ID: id, UserID: user.ID, QuestionID: questionID})
	return c.JSON(http.StatusCreated, map[string]any{
		"answerId":   id,
		"text":       a.Text,
		"userId":     user.ID,
		"questionId": questionID,
	})
}

func (s *Server) handleLikeAnswer(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return writeMessage(c, http.StatusUnauthorized, msgLoggedOut)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return writeMessage(c, http.StatusNotFound, msgLikeAnswer)
	}
	if err := s.store.IncrementAnswerLikes(c.Request().Context(), id); err != nil {
		return s.fail(c, err, http.StatusNotFound, msgLikeAnswer)
	}
	s.publish(c, events.Event{Type: events.AnswerLiked, ID: id, UserID: user.ID})
	return c.NoContent(http.StatusCreated)
}
