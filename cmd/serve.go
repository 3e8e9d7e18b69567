package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/marksheet/internal/server"
	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the results API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	publisher, err := r.openPublisher()
	if err != nil {
		return err
	}

	cfg := r.config.Server
	switch port := cmd.Int("port"); {
	case port < 0 || port > 65535:
		return fmt.Errorf("%w: port %d", shared.ErrInvalidArgument, port)
	case port > 0:
		cfg.Port = port
	}

	srv := server.New(cfg, server.NewResultsHandler(publisher, r.logger), r.recorder.Handler(), r.logger)
	r.logger.Info("serving results API", "addr", srv.Addr())
	return srv.Run(ctx)
}
