package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservo/internal/reservations/session"
	"reservo/pkg/client"
	"reservo/pkg/config"

	"github.com/urfave/cli/v2"
)

const ServiceName = "reserve"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(&env{out: os.Stdout, in: os.Stdin}).RunContext(ctx, os.Args); err != nil {
		os.Exit(1)
	}
}

func newApp(e *env) *cli.App {
	return &cli.App{
		Name:  "reserve",
		Usage: "request reservations from the booking API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "booking API base URL",
				EnvVars: []string{config.EnvAPIBaseURL},
			},
		},
		Before: func(c *cli.Context) error {
			if e.cfg != nil {
				return nil
			}
			cfg, err := config.LoadClient(ServiceName)
			if err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}
			if api := c.String("api"); api != "" {
				cfg.APIBaseURL = api
				if err := cfg.Validate(); err != nil {
					return cli.Exit(err.Error(), exitFailure)
				}
			}
			cfg.Log.Debug("Client configuration loaded",
				"api_base_url", cfg.APIBaseURL,
				"api_timeout", cfg.APITimeout,
				"storage_path", cfg.StoragePath,
			)

			e.cfg = cfg
			e.store = session.NewFileStore(cfg.StoragePath)
			e.api = client.NewReservationClient(cfg.APIBaseURL, cfg.APITimeout, cfg.Log)
			e.clock = time.Now
			e.interactive = stdinIsTerminal()
			return nil
		},
		Commands: []*cli.Command{
			loginCommand(e),
			logoutCommand(e),
			windowCommand(e),
			submitCommand(e),
			listCommand(e),
		},
	}
}
