package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/huanghao-6/vePhone/api"
	"github.com/huanghao-6/vePhone/internal/cases"
	"github.com/huanghao-6/vePhone/internal/environment"
	"github.com/huanghao-6/vePhone/internal/gatherer"
	"github.com/huanghao-6/vePhone/internal/gatherer/jsonlgath"
	"github.com/huanghao-6/vePhone/internal/gatherer/natsgath"
	"github.com/huanghao-6/vePhone/internal/gatherer/sqsgath"
	"github.com/huanghao-6/vePhone/internal/gatherer/termgath"
	"github.com/huanghao-6/vePhone/internal/podapi"
	"github.com/huanghao-6/vePhone/internal/runner"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run the case suite: validate env, write incremental JSONL, emit a final JSON report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cases", Value: "cases", Usage: "case directory"},
			&cli.StringFlag{Name: "results", Value: "results", Usage: "results output directory"},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := environment.ReadEnvConfig()
	if err != nil {
		return err
	}

	casesDir := cmd.String("cases")
	resultsDir := cmd.String("results")
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	ok, details, msg := validatePods(ctx, cfg, "")
	if !ok {
		slog.Error("environment validation via DetailPod failed", "error", msg)
		if b, err := json.MarshalIndent(details, "", "  "); err == nil {
			fmt.Fprintln(os.Stderr, string(b))
		}
		return cli.Exit("environment validation via DetailPod failed", 2)
	}
	slog.Info("environment validated via DetailPod")

	cs, err := cases.Discover(casesDir, cfg.CaseFilter)
	if err != nil {
		return err
	}
	if len(cs) == 0 {
		slog.Warn("no cases discovered", "dir", casesDir)
		return nil
	}

	suiteUuid := uuid.NewString()
	outBase := time.Now().UTC().Format("20060102_150405")
	jsonlPath := filepath.Join(resultsDir, outBase+".jsonl")
	if cfg.CompressResults {
		jsonlPath += ".zst"
	}
	jsonPath := filepath.Join(resultsDir, outBase+".json")

	jsonl, err := jsonlgath.New(suiteUuid, jsonlPath)
	if err != nil {
		return err
	}
	sinks := gatherer.Multi{termgath.New(), jsonl}

	if cfg.ResultNatsURL != "" {
		nc, err := nats.Connect(cfg.ResultNatsURL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()
		sinks = append(sinks, natsgath.New(nc, suiteUuid, cfg.ResultNatsSubject))
	}
	if cfg.ResultSqsURL != "" {
		sq, err := sqsgath.New(ctx, suiteUuid, cfg.ResultSqsURL)
		if err != nil {
			return err
		}
		sinks = append(sinks, sq)
	}

	slog.Info("writing incremental results", "suite_uuid", suiteUuid, "jsonl", jsonlPath)
	sinks.SuiteStart(len(cs), casesDir)

	caseIndex := make(map[string]int, len(cs))
	for _, c := range cs {
		caseIndex[c.Path] = c.Index
	}

	runCfg := runner.Config{
		ProductId:           cfg.ProductId,
		SystemPrompt:        cfg.SystemPrompt,
		TosBucket:           cfg.TosBucket,
		TosEndpoint:         cfg.TosEndpoint,
		TosRegion:           cfg.TosRegion,
		TimeoutS:            cfg.TimeoutS,
		PollIntervalS:       cfg.PollIntervalS,
		RunAPI:              cfg.RunAPI,
		UseBase64Screenshot: cfg.UseBase64Screenshot,
		ScreenRecord:        cfg.ScreenRecord,
		ExecMode:            runner.ParseExecMode(cfg.ExecMode),
	}

	factory := func(podID string) podapi.TaskClient { return newClient(cfg) }
	r := runner.New(runCfg, factory, func(v api.Verdict) {
		sinks.CaseVerdict(caseIndex[v.Case], &v)
	})

	stop := r.InstallSignalHandler()
	defer stop()

	startedAt := time.Now()
	verdicts := r.RunSuite(ctx, cs, cfg.PodIdList)
	durationMs := time.Since(startedAt).Milliseconds()

	passed, failed, skipped := r.Progress().Counts()
	sinks.SuiteFinish(passed, failed, skipped, durationMs)
	if err := sinks.Close(); err != nil {
		slog.Warn("failed to close result sinks", "error", err)
	}

	return writeFinalReport(jsonlPath, jsonPath, caseIndex, verdicts)
}

// writeFinalReport re-reads the incremental JSONL file, restores discovery
// order and writes the consolidated JSON array. Falling back to the
// in-memory verdicts keeps the report available even if the file cannot be
// read back.
func writeFinalReport(jsonlPath, jsonPath string, caseIndex map[string]int, verdicts []api.Verdict) error {
	items, err := jsonlgath.Load(jsonlPath)
	if err != nil {
		slog.Warn("failed to reload incremental results", "error", err)
		items = verdicts
	}
	sort.SliceStable(items, func(i, j int) bool {
		return orderOf(caseIndex, items[i].Case) < orderOf(caseIndex, items[j].Case)
	})

	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal final report: %w", err)
	}
	if err := os.WriteFile(jsonPath, b, 0o644); err != nil {
		return fmt.Errorf("failed to write final report: %w", err)
	}
	slog.Info("final report written", "path", jsonPath, "verdicts", len(items))
	return nil
}

func orderOf(caseIndex map[string]int, caseName string) int {
	if i, ok := caseIndex[caseName]; ok {
		return i
	}
	return int(^uint(0) >> 1)
}
