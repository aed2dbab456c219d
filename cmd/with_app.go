package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap"
	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/logging"
	"github.com/imai1205/zumen-connect-backend/internal/errs"
	"github.com/imai1205/zumen-connect-backend/internal/server"
	"github.com/imai1205/zumen-connect-backend/internal/usecase/extraction"
	"github.com/imai1205/zumen-connect-backend/internal/usecase/worker"
)

// services bundles everything a command may need from the container.
type services struct {
	fx.In

	App        *bootstrap.App
	Worker     *worker.Service
	Server     *server.Server
	Extraction *extraction.Service
}

func withApp(run func(cmd *cobra.Command, svcs services) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var svcs services
		fxApp := fx.New(
			bootstrap.Module,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(&svcs),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		if err := run(cmd, svcs); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}
