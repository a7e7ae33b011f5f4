package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/webriots/awaitio"
	"github.com/webriots/awaitio/internal/config"
	"github.com/webriots/awaitio/internal/demo"
	"github.com/webriots/awaitio/internal/logger"
)

func main() {
	if err := command().Run(context.Background(), os.Args); err != nil {
		logger.New().Error("awaitdemo failed", "error", err)
		os.Exit(1)
	}
}

func command() *cli.Command {
	return &cli.Command{
		Name:  "awaitdemo",
		Usage: "Show sequential and concurrent awaiting on a cooperative scheduler",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a .yaml or .json config file",
				Sources: cli.EnvVars(config.EnvPrefix + "CONFIG"),
			},
			&cli.DurationFlag{
				Name:  "first",
				Usage: "Duration of the first delay",
			},
			&cli.DurationFlag{
				Name:  "second",
				Usage: "Duration of the second delay",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: trace, debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-handler",
				Usage: "Log output: dev, text or json",
			},
		},
		Action: action,
	}
}

func action(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	if cmd.IsSet("first") {
		cfg.First = cmd.Duration("first")
	}
	if cmd.IsSet("second") {
		cfg.Second = cmd.Duration("second")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("log-handler") {
		cfg.LogHandler = cmd.String("log-handler")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l := logger.New(
		logger.WithLoggerWriter(os.Stdout),
		logger.WithLoggerLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithHandler(logger.ParseHandler(cfg.LogHandler)),
	)
	ctx = logger.WithStdlib(ctx, l)

	tm, err := demo.Run(ctx, awaitio.New(), cfg.First, cfg.Second)
	if err != nil {
		return err
	}

	l.DebugContext(ctx, "timings",
		"native", tm.Native,
		"sequential", tm.Sequential,
		"concurrent", tm.Concurrent,
		"delegated", tm.Delegated,
	)
	return nil
}
