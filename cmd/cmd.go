// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand prepares the configuration file and the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the example configuration to --config",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the config if missing, open the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// marksCommand seeds mark entries
func marksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "marks",
		Usage: "Mark entry operations",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Import mark entries from CSV (student_id, subject, marks, term)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "CSV file to import",
						Required: true,
					},
				},
				Action: r.ImportMarks,
			},
		},
	}
}

// studentsCommand seeds student snapshots
func studentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "students",
		Usage: "Student operations",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Import students from CSV (id, name, optional email)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "CSV file to import",
						Required: true,
					},
				},
				Action: r.ImportStudents,
			},
			{
				Name:  "list",
				Usage: "List imported students",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ListStudents,
			},
		},
	}
}

// publishCommand runs the publication pipeline
func publishCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Publish results and email marksheets",
		Commands: []*cli.Command{
			{
				Name:  "batch",
				Usage: "Publish every unpublished result set",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the batch report as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Also write the batch report to this CSV file",
					},
					&cli.BoolFlag{
						Name:  "plain",
						Usage: "Print the report as plain text instead of a table",
					},
				},
				Action: r.PublishBatch,
			},
			{
				Name:  "one",
				Usage: "Publish a single student's results for a term",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "student",
						Aliases:  []string{"s"},
						Usage:    "Student ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "term",
						Aliases:  []string{"t"},
						Usage:    "Term, e.g. \"Term 1\"",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PublishOne,
			},
		},
	}
}

// statusCommand reports readiness of every result set
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show drafts, published and blocked result sets",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Status,
	}
}

// renderCommand writes a marksheet preview without sending it
func renderCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render a marksheet PDF without emailing or publishing it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "student",
				Aliases:  []string{"s"},
				Usage:    "Student ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "term",
				Aliases:  []string{"t"},
				Usage:    "Term, e.g. \"Term 1\"",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (defaults to marksheet_<student>_<term>.pdf)",
			},
		},
		Action: r.Render,
	}
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the results API and Prometheus metrics",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override server.port",
			},
		},
		Action: r.Serve,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse result status and publish interactively",
		Action: r.TUI,
	}
}
