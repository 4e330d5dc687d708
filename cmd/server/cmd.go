package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"bizcard/cmd"
)

func CMD() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run the HTTP server",
		Flags: cmd.ConfigFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := cmd.LoadConfig(c)
			if err != nil {
				return err
			}
			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("shutting down")

			return app.Stop(context.Background())
		},
	}
}

func init() {
	cmd.Register(CMD())
}
