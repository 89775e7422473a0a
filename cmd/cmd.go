// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for configuration and the audit database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the audit database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.MigrationStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.MigrationRollback,
			},
		},
	}
}

// authCommand handles the Simkl device-code login
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Link a Simkl account with a pairing code (the token is never stored)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the verification page in a browser",
			},
		},
		Action: r.Auth,
	}
}

// importCommand runs the full history import
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Submit a Letterboxd export to Simkl and report what is missing",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "Watched export CSV (default: sync.history_path)",
			},
			&cli.StringFlag{
				Name:  "watchlist",
				Usage: "Watchlist export CSV (default: sync.watchlist_path)",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Import the watchlist without asking",
			},
			&cli.BoolFlag{
				Name:  "skip-watchlist",
				Usage: "Do not offer the watchlist import",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the history payload instead of submitting it",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Wait after a successful submission (default: sync.settle_delay)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the verification page in a browser",
			},
		}, exportFlags()...),
		Action: r.Import,
	}
}

// reconcileCommand compares an export with the remote history without submitting
func reconcileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "Report export items missing from the Simkl history",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "Watched export CSV (default: sync.history_path)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the verification page in a browser",
			},
		}, exportFlags()...),
		Action: r.Reconcile,
	}
}

// watchlistCommand imports only the watchlist
func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watchlist",
		Usage: "Add a Letterboxd watchlist export to a Simkl list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Watchlist export CSV (default: sync.watchlist_path)",
			},
			&cli.StringFlag{
				Name:  "list",
				Usage: "Target list (default: sync.watchlist_label)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the verification page in a browser",
			},
		},
		Action: r.Watchlist,
	}
}

// expandCommand prints the season manifest of a show
func expandCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "expand",
		Usage: "Show the seasons and episodes a show would be submitted with",
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "tmdb-id"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Expand,
	}
}

// reviewsCommand scrapes Letterboxd reviews for a film
func reviewsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reviews",
		Usage: "Fetch Letterboxd reviews for a film by TMDB ID",
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "tmdb-id"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of reviews (default: letterboxd.max_reviews)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Reviews,
	}
}

// runsCommand inspects the audit log
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect recorded import and reconcile runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only runs with this status (running, completed, partial, failed)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
			{
				Name:  "show",
				Usage: "Show a run and its missing items",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "sequence"},
				},
				Flags:  exportFlags(),
				Action: r.RunsShow,
			},
		},
	}
}

// exportFlags select where and how a discrepancy report is written.
func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "export",
			Aliases: []string{"o"},
			Usage:   "Write the report to a file instead of stdout",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Report format: text, csv, markdown or json",
			Value: "text",
		},
	}
}
