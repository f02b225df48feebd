package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func urlFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "url",
		Usage:   "qaforum server URL",
		EnvVars: []string{"QAFORUM_URL"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "qaforum",
		Usage:   "Question and answer forum server and client",
		Version: version,
		Action:  runServer,
		Flags:   serveFlags(),
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server"},
				Usage:   "Start the HTTP server (default)",
				Flags:   serveFlags(),
				Action:  runServer,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and exit",
				Action: runMigrate,
			},
			{
				Name:  "register",
				Usage: "Sign up and save the access token",
				Flags: []cli.Flag{
					urlFlag(),
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"QAFORUM_PASSWORD"}},
				},
				Action: cmdRegister,
			},
			{
				Name:    "login",
				Aliases: []string{"auth"},
				Usage:   "Log in and save the access token",
				Flags: []cli.Flag{
					urlFlag(),
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"QAFORUM_PASSWORD"}},
				},
				Action: cmdLogin,
			},
			{
				Name:    "whoami",
				Aliases: []string{"status"},
				Usage:   "Show the saved session",
				Action:  cmdWhoami,
			},
			{
				Name:  "ask",
				Usage: "Post a question",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "text", Usage: "question body"},
				},
				Action: cmdAsk,
			},
			{
				Name:  "answer",
				Usage: "Answer a question",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "question", Required: true},
					&cli.StringFlag{Name: "text", Required: true},
				},
				Action: cmdAnswer,
			},
			{
				Name:  "like",
				Usage: "Like a question or an answer",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "question"},
					&cli.Int64Flag{Name: "answer"},
				},
				Action: cmdLike,
			},
			{
				Name:      "search",
				Usage:     "Search questions, newest first",
				ArgsUsage: "<query>",
				Flags:     []cli.Flag{urlFlag()},
				Action:    cmdSearch,
			},
			{
				Name:   "popular",
				Usage:  "Show the three most liked questions",
				Flags:  []cli.Flag{urlFlag()},
				Action: cmdPopular,
			},
			{
				Name:      "show",
				Usage:     "Show a question with its answers",
				ArgsUsage: "<question id>",
				Flags:     []cli.Flag{urlFlag()},
				Action:    cmdShow,
			},
		},
	}
}
