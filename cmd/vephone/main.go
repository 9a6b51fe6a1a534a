package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.TimeOnly,
	})))

	cmd := &cli.Command{
		Name:           "vephone",
		Usage:          "run UI test cases against remote cloud-phone pods",
		DefaultCommand: "run",
		Commands: []*cli.Command{
			runCommand(),
			validateEnvCommand(),
			queryCommand(),
			cancelCommand(),
			progressCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
