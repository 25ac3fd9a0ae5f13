// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, csv or markdown",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to a file instead of stdout; with --format markdown, a directory that also receives thumbnails",
		},
	}
}

// setupCommand handles configuration and local database setup
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the configuration file and local database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent database migration",
				Action: r.RollbackDatabase,
			},
		},
	}
}

// authCommand handles sign-in and the stored session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in, sign out and inspect the stored session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("TELTUBE_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("TELTUBE_PASSWORD"),
					},
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Display name",
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "google",
				Usage: "Sign in with a Google account through the browser",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultCallbackTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the sign-in URL instead of opening a browser",
					},
				},
				Action: r.AuthGoogle,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the signed-in account",
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

// uploadCommand publishes a local video
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Upload a video and register it in the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Video title",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Usage:   "Video description",
			},
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the video file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "thumbnail",
				Usage: "Path to a thumbnail image",
			},
			&cli.IntFlag{
				Name:  "register-retries",
				Usage: "Times to retry catalog registration when the upload succeeded but registration failed",
				Value: 0,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the created entry as JSON",
			},
		},
		Action: r.Upload,
	}
}

// catalogCommand lists and views catalog entries
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"videos"},
		Usage:   "Browse the video catalog",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the newest videos",
				Flags:  formatFlags(),
				Action: r.CatalogList,
			},
			{
				Name:  "channel",
				Usage: "List one user's videos, your own by default",
				Flags: append(formatFlags(),
					&cli.IntFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "User id of the channel",
					},
				),
				Action: r.CatalogChannel,
			},
			{
				Name:  "view",
				Usage: "Record a view of a video",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "id",
						UsageText: "Video ID",
					},
				},
				Action: r.CatalogView,
			},
		},
	}
}

// tuiCommand launches the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive terminal UI",
		Action: r.TUI,
	}
}
