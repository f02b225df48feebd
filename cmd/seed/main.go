package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/alphabot-ai/qaforum/internal/client"
)

var members = []string{"ada", "linus", "grace", "ken", "barbara"}

var questions = []struct {
	title string
	body  string
}{
	{"How do I reset my Wi-Fi router?", "The lights keep blinking orange after a power cut."},
	{"Best way to learn Go in a month?", "I know Python and some C."},
	{"Why does my sourdough not rise?", ""},
	{"Is 100% test coverage worth it?", "Our team lead insists on it for every package."},
	{"What is the difference between a mutex and a channel?", ""},
	{"How do I migrate a SQLite database to MySQL?", "About two million rows, mostly text."},
	{"Recommendations for a quiet mechanical keyboard?", ""},
	{"Does wifi range drop with the microwave on?", "Only happens in the kitchen."},
}

var replies = []string{
	"Have you tried turning it off and on again?",
	"Read the official tour first, then build something small.",
	"Check the temperature, yeast is picky.",
	"Coverage is a signal, not a goal.",
	"Share memory by communicating.",
	"Dump to CSV and use LOAD DATA INFILE.",
	"Brown switches with o-rings are a good start.",
	"Yes, both use the 2.4 GHz band.",
	"Same problem here, following.",
}

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "Fill a qaforum server with demo members and content",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "qaforum server URL"},
			&cli.StringFlag{Name: "password", Value: "demo-password", Usage: "password for every demo member"},
		},
		Action: seed,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func seed(c *cli.Context) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	baseURL := c.String("url")
	logger.Info().Str("url", baseURL).Msg("seeding")

	var clients []*client.Client
	for _, name := range members {
		api := client.New(baseURL)
		if _, err := api.Register(name, name+"@example.com", c.String("password")); err != nil {
			if client.StatusOf(err) != 400 {
				return fmt.Errorf("register %s: %w", name, err)
			}
			// Already seeded once; log in instead.
			if _, err := api.Login(name, c.String("password")); err != nil {
				return fmt.Errorf("login %s: %w", name, err)
			}
		}
		logger.Info().Str("name", name).Int64("user", api.UserID).Msg("member ready")
		clients = append(clients, api)
	}

	var questionIDs []int64
	for _, q := range questions {
		i := rand.Intn(len(clients))
		id, err := clients[i].Ask(q.title, q.body)
		if err != nil {
			logger.Warn().Err(err).Str("title", q.title).Msg("ask failed")
			continue
		}
		questionIDs = append(questionIDs, id)
		logger.Info().Int64("question", id).Str("by", members[i]).Msg(q.title)
	}

	var answerIDs []int64
	// Leave the last question unanswered.
	for _, questionID := range questionIDs[:max(len(questionIDs)-1, 0)] {
		for n := rand.Intn(3) + 1; n > 0; n-- {
			i := rand.Intn(len(clients))
			id, err := clients[i].Answer(questionID, replies[rand.Intn(len(replies))])
			if err != nil {
				logger.Warn().Err(err).Int64("question", questionID).Msg("answer failed")
				continue
			}
			answerIDs = append(answerIDs, id)
		}
	}

	likes := 0
	for _, api := range clients {
		for n := rand.Intn(len(questionIDs) + 1); n > 0; n-- {
			if err := api.LikeQuestion(questionIDs[rand.Intn(len(questionIDs))]); err == nil {
				likes++
			}
		}
		if len(answerIDs) > 0 {
			if err := api.LikeAnswer(answerIDs[rand.Intn(len(answerIDs))]); err == nil {
				likes++
			}
		}
	}

	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Members:   %d\n", len(clients))
	fmt.Printf("Questions: %d\n", len(questionIDs))
	fmt.Printf("Answers:   %d\n", len(answerIDs))
	fmt.Printf("Likes:     %d\n", likes)
	fmt.Println("\nView at:", baseURL)
	return nil
}
