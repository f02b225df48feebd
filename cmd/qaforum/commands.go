package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/alphabot-ai/qaforum/internal/client"
	"github.com/alphabot-ai/qaforum/internal/model"
)

const defaultURL = "http://localhost:8080"

// Session is the client state kept between CLI runs.
type Session struct {
	BaseURL string `json:"base_url"`
	Name    string `json:"name"`
	UserID  int64  `json:"user_id"`
	Token   string `json:"token"`
}

func sessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate session file: %w", err)
	}
	return filepath.Join(home, ".qaforum", "session.json"), nil
}

func loadSession() (Session, error) {
	path, err := sessionPath()
	if err != nil {
		return Session{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, errors.New("not logged in - run 'qaforum register' or 'qaforum login'")
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func saveSession(s Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(s, "", "  ")
	return os.WriteFile(path, data, 0600)
}

// baseURL prefers --url, then the saved session, then localhost.
func baseURL(c *cli.Context) string {
	if u := c.String("url"); u != "" {
		return u
	}
	if s, err := loadSession(); err == nil && s.BaseURL != "" {
		return s.BaseURL
	}
	return defaultURL
}

func authenticatedClient() (*client.Client, error) {
	s, err := loadSession()
	if err != nil {
		return nil, err
	}
	if s.Token == "" {
		return nil, errors.New("no token saved - run 'qaforum login'")
	}
	c := client.New(s.BaseURL)
	c.Token, c.UserID = s.Token, s.UserID
	return c, nil
}

func remember(c *cli.Context, api *client.Client, session *client.Session) error {
	return saveSession(Session{
		BaseURL: api.BaseURL,
		Name:    session.Name,
		UserID:  session.UserID,
		Token:   session.AccessToken,
	})
}

func cmdRegister(c *cli.Context) error {
	api := client.New(baseURL(c))
	session, err := api.Register(c.String("name"), c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	if err := remember(c, api, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Printf("✓ Registered '%s' (user %d)\n", session.Name, session.UserID)
	return nil
}

func cmdLogin(c *cli.Context) error {
	api := client.New(baseURL(c))
	session, err := api.Login(c.String("name"), c.String("password"))
	if err != nil {
		if client.StatusOf(err) == 404 {
			return errors.New("wrong name or password")
		}
		return err
	}
	if err := remember(c, api, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Printf("✓ %s as '%s'\n", session.Message, session.Name)
	return nil
}

func cmdWhoami(c *cli.Context) error {
	s, err := loadSession()
	if err != nil {
		fmt.Println("Status: Not logged in")
		return nil
	}
	fmt.Printf("User:   %s (%d)\n", s.Name, s.UserID)
	fmt.Printf("Server: %s\n", s.BaseURL)
	return nil
}

func cmdAsk(c *cli.Context) error {
	api, err := authenticatedClient()
	if err != nil {
		return err
	}
	id, err := api.Ask(c.String("title"), c.String("text"))
	if err != nil {
		return err
	}
	fmt.Printf("✓ Asked: %s\n  ID: %d\n", c.String("title"), id)
	return nil
}

func cmdAnswer(c *cli.Context) error {
	api, err := authenticatedClient()
	if err != nil {
		return err
	}
	id, err := api.Answer(c.Int64("question"), c.String("text"))
	if err != nil {
		return err
	}
	fmt.Printf("✓ Answered question %d\n  ID: %d\n", c.Int64("question"), id)
	return nil
}

func cmdLike(c *cli.Context) error {
	questionID, answerID := c.Int64("question"), c.Int64("answer")
	if (questionID == 0) == (answerID == 0) {
		return errors.New("provide exactly one of --question or --answer")
	}
	api, err := authenticatedClient()
	if err != nil {
		return err
	}
	if questionID != 0 {
		if err := api.LikeQuestion(questionID); err != nil {
			return err
		}
		fmt.Printf("✓ Liked question %d\n", questionID)
		return nil
	}
	if err := api.LikeAnswer(answerID); err != nil {
		return err
	}
	fmt.Printf("✓ Liked answer %d\n", answerID)
	return nil
}

func cmdSearch(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	questions, err := client.New(baseURL(c)).Search(query)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		fmt.Println("Sorry, could not find this question")
		return nil
	}
	printQuestions(questions)
	return nil
}

func cmdPopular(c *cli.Context) error {
	questions, err := client.New(baseURL(c)).Popular()
	if err != nil {
		return err
	}
	printQuestions(questions)
	return nil
}

func cmdShow(c *cli.Context) error {
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return errors.New("usage: qaforum show <question id>")
	}
	q, err := client.New(baseURL(c)).Question(id)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n", q.Title)
	fmt.Printf("  %d likes | user %d | #%d\n", q.Likes, q.UserID, q.ID)
	if q.Body != "" {
		fmt.Printf("\n  %s\n", q.Body)
	}
	if len(q.Answers) > 0 {
		fmt.Printf("\n  --- Answers (%d) ---\n", len(q.Answers))
		for _, a := range q.Answers {
			fmt.Printf("  [%d] user %d (%d likes): %s\n", a.ID, a.UserID, a.Likes, a.Text)
		}
	}
	return nil
}

func printQuestions(questions []model.Question) {
	for i, q := range questions {
		fmt.Printf("%d. %s\n", i+1, q.Title)
		fmt.Printf("   %d likes | %d answers | user %d | #%d\n\n", q.Likes, len(q.AnswerIDs), q.UserID, q.ID)
	}
}
