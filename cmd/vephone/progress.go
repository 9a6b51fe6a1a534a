package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/huanghao-6/vePhone/internal/gatherer/jsonlgath"
)

func progressCommand() *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "report done/total progress from an incremental JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "jsonl", Usage: "results JSONL path, defaults to the newest in the results directory"},
			&cli.StringFlag{Name: "results", Value: "results", Usage: "results directory to search"},
			&cli.BoolFlag{Name: "watch", Usage: "keep refreshing the output"},
			&cli.Float64Flag{Name: "interval", Value: 1, Usage: "refresh interval in seconds for --watch"},
			&cli.BoolFlag{Name: "pretty", Usage: "indent JSON output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("jsonl")
			if path == "" {
				latest, err := findLatestJsonl(cmd.String("results"))
				if err != nil {
					return err
				}
				path = latest
			}

			interval := time.Duration(math.Max(0.2, cmd.Float64("interval")) * float64(time.Second))
			for {
				meta, done, err := jsonlgath.ReadMeta(path)
				if err != nil {
					return err
				}

				out := map[string]any{
					"jsonl": path,
					"meta":  meta,
					"done":  done,
				}
				if meta != nil && meta.TotalCases > 0 {
					out["total"] = meta.TotalCases
					out["percent"] = math.Round(float64(done)/float64(meta.TotalCases)*10000) / 100
				}
				if err := printJSON(out, cmd.Bool("pretty")); err != nil {
					return err
				}

				if !cmd.Bool("watch") {
					return nil
				}
				time.Sleep(interval)
			}
		},
	}
}

// findLatestJsonl returns the most recently modified results file in dir,
// considering both plain and zstd-compressed JSONL.
func findLatestJsonl(dir string) (string, error) {
	var matches []string
	for _, pattern := range []string{"*.jsonl", "*.jsonl.zst"} {
		found, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		matches = append(matches, found...)
	}

	latest := ""
	var latestMod time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = m
			latestMod = info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no results JSONL found in %s, run a suite first", dir)
	}
	return latest, nil
}
