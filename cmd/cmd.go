// submodule cmd contains command definitions
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

// app builds the root command. Global flags are read once in [Runner.before].
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "unanetx",
		Usage:   "Reconcile Unanet bill rates and refresh Unanet report data",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file with credential overrides, read when it exists",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, ratesCommand, fetchCommand, runsCommand, blobsCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the config file when it exists, then applies environment overrides.
// Variables from the dotenv file fill in what the process environment leaves unset.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", r.configPath)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if path := cmd.String("env-file"); path != "" {
		if _, err := os.Stat(path); err == nil {
			vars, err := godotenv.Read(path)
			if err != nil {
				return ctx, fmt.Errorf("%w: %s: %v", shared.ErrInvalidConfig, path, err)
			}
			r.lookupEnv = withDotenv(r.lookupEnv, vars)
			r.logger.Debug("loaded env file", "path", path, "vars", len(vars))
		}
	}

	r.config.ApplyEnv(r.lookupEnv)
	return ctx, nil
}

func withDotenv(lookup func(string) (string, bool), vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}
}

func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, then run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.RollbackDatabase,
			},
		},
	}
}

func ratesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "rates",
		Usage: "Bill rate reconciliation",
		Commands: []*cli.Command{
			{
				Name:  "reconcile",
				Usage: "Reconcile a local planned matrix with a local overrides CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "baseline",
						Aliases:  []string{"b"},
						Usage:    "Planned matrix CSV",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "overrides",
						Usage:    "Labor category overrides CSV",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "skip-first-line",
						Usage: "Skip the first line of the overrides file (title row above the header)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the updated planned matrix to this file",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write a Markdown summary of the reconciliation to this file",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print stats as JSON",
					},
				},
				Action: r.RatesReconcile,
			},
			{
				Name:  "update",
				Usage: "Run the bill rate update against the configured blob store",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the result as JSON",
					},
				},
				Action: r.RatesUpdate,
			},
		},
	}
}

// fetchCommand has one subcommand per refresh job.
func fetchCommand(r *Runner) *cli.Command {
	jobs := []struct {
		name  string
		usage string
		job   models.Job
	}{
		{"planned-time", "Scan planned time records into the planned matrix", models.JobPlannedTime},
		{"projects", "Scan projects into the projects sheet", models.JobProjects},
		{"invoices", "Scan invoices into the invoice sheet", models.JobInvoices},
		{"fixed-price", "Build the fixed price schedule sheet", models.JobFixedPriceSchedule},
		{"leave", "Refresh leave requests and the people list", models.JobLeaveCalendar},
	}

	commands := make([]*cli.Command, 0, len(jobs))
	for _, j := range jobs {
		commands = append(commands, &cli.Command{
			Name:  j.name,
			Usage: j.usage,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Print the result as JSON",
				},
			},
			Action: r.runJobAction(j.job),
		})
	}

	return &cli.Command{
		Name:     "fetch",
		Usage:    "Refresh report data from the Unanet API",
		Commands: commands,
	}
}

func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Recorded job history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show recent runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "job",
						Usage: "Only show runs of this job",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only show runs with this status (running, succeeded, failed)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
			{
				Name:  "export",
				Usage: "Export run history to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, json, md)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (defaults to runs.{format})",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to export",
						Value: 1000,
					},
				},
				Action: r.RunsExport,
			},
		},
	}
}

func blobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "blobs",
		Usage: "Inspect and seed the configured blob store",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored blobs",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.BlobsList,
			},
			{
				Name:      "get",
				Usage:     "Print a blob or save it to a file",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the blob to this file instead of stdout",
					},
				},
				Action: r.BlobsGet,
			},
			{
				Name:      "put",
				Usage:     "Upload a local file as a blob",
				ArgsUsage: "NAME FILE",
				Action:    r.BlobsPut,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the job endpoints over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (defaults to server.port)",
			},
		},
		Action: r.Serve,
	}
}
