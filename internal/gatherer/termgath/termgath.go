// Package termgath prints suite progress to the terminal.
package termgath

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/huanghao-6/vePhone/api"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	skipColor = color.New(color.FgYellow)
)

type TerminalGatherer struct {
	StartedAt time.Time
	total     int
}

func New() *TerminalGatherer { return &TerminalGatherer{StartedAt: time.Now()} }

func (t *TerminalGatherer) SuiteStart(totalCases int, casesDir string) {
	t.total = totalCases
	fmt.Printf("== Suite started: %d cases from %s ==\n", totalCases, casesDir)
}

func (t *TerminalGatherer) CaseVerdict(index int, v *api.Verdict) {
	label := statusColor(v.Status).Sprint(string(v.Status))
	fmt.Printf("[%d/%d] %s %s", index+1, t.total, label, v.Case)
	if v.Reason != "" {
		fmt.Printf(" (%s)", v.Reason)
	}
	fmt.Println()
}

func (t *TerminalGatherer) SuiteFinish(passed, failed, skipped int, durationMs int64) {
	dur := time.Duration(durationMs) * time.Millisecond
	fmt.Printf("== Suite finished in %s: %s %s %s ==\n",
		dur.Round(time.Millisecond),
		passColor.Sprintf("%d passed", passed),
		failColor.Sprintf("%d failed", failed),
		skipColor.Sprintf("%d skipped", skipped))
}

func (t *TerminalGatherer) Close() error { return nil }

func statusColor(s api.Status) *color.Color {
	switch s {
	case api.StatusPass:
		return passColor
	case api.StatusSkip:
		return skipColor
	default:
		return failColor
	}
}
