package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/huanghao-6/vePhone/internal/environment"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "query the current step and final result of a run id",
		ArgsUsage: "<run-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-detail", Usage: "fetch the result without step detail"},
			&cli.BoolFlag{Name: "step-only", Usage: "only query the current step"},
			&cli.BoolFlag{Name: "result-only", Usage: "only query the final result"},
			&cli.BoolFlag{Name: "pretty", Usage: "indent JSON output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			runID := cmd.Args().First()
			if runID == "" {
				return fmt.Errorf("a run id is required")
			}
			if cmd.Bool("step-only") && cmd.Bool("result-only") {
				return fmt.Errorf("--step-only and --result-only are mutually exclusive")
			}

			cfg, err := environment.ReadEnvConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)

			out := map[string]any{"RunId": runID}
			if !cmd.Bool("result-only") {
				step, err := client.CurrentStep(ctx, runID)
				if err != nil {
					return err
				}
				out["ListAgentRunCurrentStep"] = step
			}
			if !cmd.Bool("step-only") {
				result, err := client.Result(ctx, runID, !cmd.Bool("no-detail"))
				if err != nil {
					return err
				}
				out["GetAgentResult"] = result
			}
			return printJSON(out, cmd.Bool("pretty"))
		},
	}
}

func cancelCommand() *cli.Command {
	return &cli.Command{
		Name:      "cancel",
		Usage:     "cancel a running task by run id",
		ArgsUsage: "<run-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "pretty", Usage: "indent JSON output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			runID := cmd.Args().First()
			if runID == "" {
				return fmt.Errorf("a run id is required")
			}

			cfg, err := environment.ReadEnvConfig()
			if err != nil {
				return err
			}
			resp, err := newClient(cfg).Cancel(ctx, runID)
			if err != nil {
				return err
			}
			return printJSON(resp, cmd.Bool("pretty"))
		},
	}
}
