// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "down",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// credentialFlags are shared by login and signup.
func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "Account email",
			Sources:  cli.EnvVars("DAILYCAST_EMAIL"),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Aliases:  []string{"p"},
			Usage:    "Account password",
			Sources:  cli.EnvVars("DAILYCAST_PASSWORD"),
			Required: true,
		},
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the podcast service session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Log in and store the session token",
				Flags:  credentialFlags(),
				Action: r.AuthLogin,
			},
			{
				Name:   "signup",
				Usage:  "Create an account and start a session",
				Flags:  credentialFlags(),
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session token",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the current session and profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// prefsCommand handles country and topic preferences
func prefsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "prefs",
		Aliases: []string{"preferences"},
		Usage:   "View and change podcast preferences",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show saved preferences",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PrefsShow,
			},
			{
				Name:  "set",
				Usage: "Save a new country and/or topic, then fetch today's podcast",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "country",
						Usage: "Country code (see 'prefs options')",
					},
					&cli.StringFlag{
						Name:  "topic",
						Usage: "Topic code (see 'prefs options')",
					},
				},
				Action: r.PrefsSet,
			},
			{
				Name:   "options",
				Usage:  "List supported countries and topics",
				Action: r.PrefsOptions,
			},
		},
	}
}

// podcastCommand handles podcast retrieval and playback
func podcastCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "podcast",
		Usage: "Fetch and play the daily podcast",
		Commands: []*cli.Command{
			{
				Name:  "today",
				Usage: "Fetch the podcast for the saved preferences",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "date",
						Usage: "Podcast date as YYYY-MM-DD (default: today)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PodcastToday,
			},
			{
				Name:  "play",
				Usage: "Fetch the podcast and start playing it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "date",
						Usage: "Podcast date as YYYY-MM-DD (default: today)",
					},
					&cli.BoolFlag{
						Name:  "no-open",
						Usage: "Only print the podcast, don't open a player",
					},
				},
				Action: r.PodcastPlay,
			},
			{
				Name:  "history",
				Usage: "Show or export podcasts played on this machine",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries (0 for all)",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv or json)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Export file path (default: dailycast_history.{format})",
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Delete the play history",
					},
				},
				Action: r.PodcastHistory,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive podcast dashboard",
		Action:  r.TUI,
	}
}
