// Package client is a Go client for the qaforum API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alphabot-ai/qaforum/internal/model"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	// Token is sent verbatim in the Authorization header.
	Token  string
	UserID int64
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
	Body    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("qaforum: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("qaforum: %d %s", e.Status, e.Body)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Session is the signup and login response.
type Session struct {
	Name        string  `json:"name"`
	UserID      int64   `json:"userId"`
	AccessToken string  `json:"accessToken"`
	Questions   []int64 `json:"questions"`
	Message     string  `json:"message"`
}

// Register signs up and keeps the returned token.
func (c *Client) Register(name, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(http.MethodPost, "/users", body, http.StatusCreated, &s); err != nil {
		return nil, err
	}
	c.Token, c.UserID = s.AccessToken, s.UserID
	return &s, nil
}

// Login checks the password and keeps the returned token.
func (c *Client) Login(name, password string) (*Session, error) {
	var s Session
	body := map[string]string{"name": name, "password": password}
	if err := c.do(http.MethodPost, "/sessions", body, http.StatusCreated, &s); err != nil {
		return nil, err
	}
	c.Token, c.UserID = s.AccessToken, s.UserID
	return &s, nil
}

func (c *Client) IsAuthenticated() bool {
	return c.Token != ""
}

// Secret fetches the profile message of the logged in user.
func (c *Client) Secret() (string, error) {
	var out struct {
		SecretMessage string `json:"secretMessage"`
	}
	if err := c.do(http.MethodGet, fmt.Sprintf("/users/%d/secret", c.UserID), nil, http.StatusCreated, &out); err != nil {
		return "", err
	}
	return out.SecretMessage, nil
}

func (c *Client) GetUser(id int64) (*model.User, error) {
	var u model.User
	if err := c.do(http.MethodGet, fmt.Sprintf("/user/%d", id), nil, http.StatusOK, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Ask posts a question and returns its id.
func (c *Client) Ask(title, text string) (int64, error) {
	var out struct {
		QuestionID int64 `json:"questionId"`
	}
	body := map[string]string{"title": title, "question": text}
	if err := c.do(http.MethodPost, "/questions", body, http.StatusCreated, &out); err != nil {
		return 0, err
	}
	return out.QuestionID, nil
}

// Answer posts an answer to questionID and returns its id.
func (c *Client) Answer(questionID int64, text string) (int64, error) {
	var out struct {
		AnswerID int64 `json:"answerId"`
	}
	body := map[string]string{"text": text}
	if err := c.do(http.MethodPost, fmt.Sprintf("/question/%d/answers", questionID), body, http.StatusCreated, &out); err != nil {
		return 0, err
	}
	return out.AnswerID, nil
}

func (c *Client) LikeQuestion(id int64) error {
	return c.do(http.MethodPost, fmt.Sprintf("/question/%d/like", id), nil, http.StatusCreated, nil)
}

func (c *Client) LikeAnswer(id int64) error {
	return c.do(http.MethodPost, fmt.Sprintf("/answer/%d/like", id), nil, http.StatusCreated, nil)
}

// Search returns questions matching query, newest first. No match is an
// empty slice.
func (c *Client) Search(query string) ([]model.Question, error) {
	var raw json.RawMessage
	if err := c.do(http.MethodGet, "/questions?query="+url.QueryEscape(query), nil, http.StatusOK, &raw); err != nil {
		return nil, err
	}
	if len(raw) > 0 && raw[0] == '{' {
		return []model.Question{}, nil
	}
	var questions []model.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *Client) Question(id int64) (*model.QuestionDetail, error) {
	var q model.QuestionDetail
	if err := c.do(http.MethodGet, fmt.Sprintf("/question/%d", id), nil, http.StatusOK, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Client) Popular() ([]model.Question, error) {
	return c.questions("/popular")
}

func (c *Client) Unanswered() ([]model.Question, error) {
	return c.questions("/noanswer")
}

func (c *Client) UserQuestions(userID int64) ([]model.Question, error) {
	return c.questions(fmt.Sprintf("/profile/%d/questions", userID))
}

func (c *Client) LatestQuestions(userID int64) ([]model.Question, error) {
	return c.questions(fmt.Sprintf("/latest/%d/questions", userID))
}

func (c *Client) Answers() ([]model.Answer, error) {
	return c.answers("/answers")
}

func (c *Client) QuestionAnswers(questionID int64) ([]model.Answer, error) {
	return c.answers(fmt.Sprintf("/question/%d/answers", questionID))
}

func (c *Client) LatestAnswers(userID int64) ([]model.Answer, error) {
	return c.answers(fmt.Sprintf("/latest/%d/answers", userID))
}

func (c *Client) questions(path string) ([]model.Question, error) {
	var out []model.Question
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) answers(path string) ([]model.Answer, error) {
	var out []model.Answer
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do sends body as JSON and decodes a response with status want into out.
func (c *Client) do(method, path string, body any, want int, out any) error {
	resp, err := c.doRequest(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		apiErr := &Error{Status: resp.StatusCode, Body: string(respBody)}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", c.Token)
	}
	return c.HTTPClient.Do(req)
}

// TestHelper creates signed up clients against a running server.
type TestHelper struct {
	BaseURL string
}

func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// CreateAuthenticatedClient signs up name with a throwaway password and
// returns a client holding its token.
func (h *TestHelper) CreateAuthenticatedClient(name string) (*Client, error) {
	c := New(h.BaseURL)
	if _, err := c.Register(name, name+"@example.com", "password-"+name); err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}

// GetToken signs up name and returns just the access token.
func (h *TestHelper) GetToken(name string) (string, error) {
	c, err := h.CreateAuthenticatedClient(name)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}
