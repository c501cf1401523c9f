// submodule cmd contains command definitions
package main

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/senti/internal/shared"
)

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "senti",
		Usage:   "Sentiment analysis from the terminal",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to this file instead of stderr",
			},
			&cli.BoolFlag{
				Name:  "ephemeral",
				Usage: "Keep the session in memory and skip the local history",
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Sentiment API base URL (overrides config and " + shared.EnvAPIURL + ")",
				Sources: cli.EnvVars(shared.EnvAPIURL),
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

// Before applies global flags, which take precedence over the config file and environment.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	rewire := false

	if path := cmd.String("log-file"); path != "" {
		fileLogger, err := shared.NewFileLogger(path)
		if err != nil {
			return ctx, err
		}
		r.logger = fileLogger
		rewire = true
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if u := cmd.String("api-url"); u != "" && u != r.config.API.BaseURL {
		r.config.API.BaseURL = u
		rewire = true
	}

	if cmd.Bool("ephemeral") && r.db != nil {
		r.db = nil
		rewire = true
	}

	if rewire {
		r.wire()
	}
	if exp, ok := r.session.TokenExpiry(ctx); ok && time.Now().After(exp) {
		r.logger.Warn("stored token has expired, log in again", "expired", exp.Local().Format(time.RFC1123))
	}
	r.logger.Debug("configured", "api", r.api.BaseURL(), "persistent", r.db != nil)
	return ctx, nil
}

// setupCommand handles setup operations for the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create config.toml if missing, initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account and session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and keep the session on this device",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password (prompted when omitted)"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password (prompted when omitted)"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the session on this device",
				Action: r.AuthLogout,
			},
			{
				Name:  "whoami",
				Usage: "Show the logged-in user",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "refresh", Usage: "Fetch the profile from the server"},
				},
				Action: r.AuthWhoami,
			},
			{
				Name:   "status",
				Usage:  "Check the server health and the session",
				Action: r.AuthStatus,
			},
		},
	}
}

func classifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Aliases:   []string{"analyze"},
		Usage:     "Classify the sentiment of a text",
		ArgsUsage: "<text...>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Classify,
	}
}

func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Classify every row of a CSV or text file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the results to this file"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format: csv, markdown, txt, json", Value: "csv"},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Batch,
	}
}

func scrapeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "scrape",
		Usage:     "Classify comments from one or more social media URLs",
		ArgsUsage: "<url...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "platform", Usage: "Platform hint (twitter, youtube, ...); detected by the server when omitted"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Write one export per URL and a manifest here"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format: csv, markdown, txt, json", Value: "csv"},
			&cli.IntFlag{Name: "workers", Usage: "Concurrent requests (default from config)"},
			&cli.FloatFlag{Name: "rate", Usage: "Requests per second (default from config)"},
		},
		Action: r.Scrape,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Past analyses",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List analyses (server history when logged in, this device otherwise)",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
					&cli.IntFlag{Name: "per-page", Value: 10, Usage: "Entries per page"},
					&cli.BoolFlag{Name: "tui", Usage: "Browse interactively"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.HistoryList,
			},
			{
				Name:   "clear",
				Usage:  "Delete the analyses kept on this device",
				Action: r.HistoryClear,
			},
		},
	}
}

func feedbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "feedback",
		Usage:     "Correct the label of one of your analyses",
		ArgsUsage: "<id> <Positif|Negatif|Netral>",
		Action:    r.Feedback,
	}
}

func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Your sentiment statistics",
		Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
		Action: r.StatsDashboard,
		Commands: []*cli.Command{
			{
				Name:   "trend",
				Usage:  "Daily counts per label",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.StatsTrend,
			},
			{
				Name:   "wordcloud",
				Usage:  "Most frequent words",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.StatsWordCloud,
			},
		},
	}
}

func trainCommand(r *Runner) *cli.Command {
	pollFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.DurationFlag{Name: "interval", Usage: "Time between status checks (default from config)"},
			&cli.IntFlag{Name: "max-attempts", Usage: "Give up after this many checks, 0 for no limit (default from config)"},
			&cli.DurationFlag{Name: "timeout", Usage: "Give up after this long, 0 for no limit (default from config)"},
			&cli.BoolFlag{Name: "tui", Usage: "Show an interactive monitor"},
		}
	}

	return &cli.Command{
		Name:  "train",
		Usage: "Retrain the model on labelled data",
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload a labelled CSV and wait for training to finish",
				ArgsUsage: "<file>",
				Flags:     pollFlags(),
				Action:    r.TrainUpload,
			},
			{
				Name:   "watch",
				Usage:  "Wait for the current training run to finish",
				Flags:  pollFlags(),
				Action: r.TrainWatch,
			},
			{
				Name:   "status",
				Usage:  "Show the training status once",
				Action: r.TrainStatus,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the sentiment API (session attached when logged in)",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Everything the current session can see (health, training, history, stats)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "save",
						Usage: "Also write the dump to this file",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}
