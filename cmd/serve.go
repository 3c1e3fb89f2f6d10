package main

import (
	"context"

	"github.com/desertthunder/unanetx/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve starts the HTTP server and blocks until ctx is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.jobEngine()
	if err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = int(port)
	}

	return server.New(cfg, engine, r.logger).ListenAndServe(ctx)
}
