// Package runner executes discovered cases against remote pods and derives
// one verdict per case.
package runner

import (
	"strings"
	"time"
)

// ExecMode selects how cases are distributed across pods.
type ExecMode string

// Execution mode constants
const (
	ExecAuto     ExecMode = "auto"
	ExecSerial   ExecMode = "serial"
	ExecParallel ExecMode = "parallel"
)

// ParseExecMode normalizes a mode string, falling back to auto for
// unrecognized values.
func ParseExecMode(s string) ExecMode {
	switch ExecMode(strings.ToLower(strings.TrimSpace(s))) {
	case ExecSerial:
		return ExecSerial
	case ExecParallel:
		return ExecParallel
	default:
		return ExecAuto
	}
}

// Config holds the immutable run-wide settings.
type Config struct {
	ProductId    string
	SystemPrompt string

	TosBucket   string
	TosEndpoint string
	TosRegion   string

	// TimeoutS is the wall-clock deadline per case, counted from
	// submission.
	TimeoutS int
	// PollIntervalS is the sleep between poll iterations, floored at
	// half a second.
	PollIntervalS float64

	RunAPI              string
	UseBase64Screenshot bool
	ScreenRecord        bool
	ExecMode            ExecMode
}

func (c Config) timeout() time.Duration {
	s := c.TimeoutS
	if s < 1 {
		s = 1
	}
	return time.Duration(s) * time.Second
}

func (c Config) pollInterval() time.Duration {
	d := time.Duration(c.PollIntervalS * float64(time.Second))
	if d < 500*time.Millisecond {
		d = 500 * time.Millisecond
	}
	return d
}
