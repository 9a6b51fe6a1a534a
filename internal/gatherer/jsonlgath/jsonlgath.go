// Package jsonlgath appends suite results to a JSONL file as they arrive,
// so a crashed or interrupted run still leaves every finished verdict on
// disk. The first line is a meta record; each following line is one
// verdict. Files ending in .zst are zstd-compressed.
package jsonlgath

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/huanghao-6/vePhone/api"
)

// Meta is the first line of every results file.
type Meta struct {
	SuiteUuid   string `json:"suite_uuid"`
	TotalCases  int    `json:"total_cases"`
	CasesDir    string `json:"cases_dir"`
	StartedTime string `json:"started_time"`
}

type metaLine struct {
	Meta *Meta `json:"__meta__"`
}

type JsonlGatherer struct {
	mu        sync.Mutex
	file      *os.File
	zw        *zstd.Encoder
	w         io.Writer
	suiteUuid string
}

// New creates (truncating) the results file at path.
func New(suiteUuid, path string) (*JsonlGatherer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create results file: %w", err)
	}
	g := &JsonlGatherer{file: f, w: f, suiteUuid: suiteUuid}
	if strings.HasSuffix(path, ".zst") {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		g.zw = zw
		g.w = zw
	}
	return g, nil
}

func (g *JsonlGatherer) SuiteStart(totalCases int, casesDir string) {
	g.writeLine(metaLine{Meta: &Meta{
		SuiteUuid:   g.suiteUuid,
		TotalCases:  totalCases,
		CasesDir:    casesDir,
		StartedTime: time.Now().UTC().Format(time.RFC3339),
	}})
}

func (g *JsonlGatherer) CaseVerdict(index int, v *api.Verdict) {
	g.writeLine(v)
}

func (g *JsonlGatherer) SuiteFinish(passed, failed, skipped int, durationMs int64) {}

func (g *JsonlGatherer) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.zw != nil {
		if err := g.zw.Close(); err != nil {
			g.file.Close()
			return err
		}
	}
	return g.file.Close()
}

// writeLine marshals msg and appends it as one line. Each line is synced
// to the OS immediately so readers see progress while the suite runs.
func (g *JsonlGatherer) writeLine(msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.w.Write(b)
	g.w.Write([]byte("\n"))
	if g.zw != nil {
		g.zw.Flush()
	}
}

// Load reads every verdict from a results file, skipping the meta line.
func Load(path string) ([]api.Verdict, error) {
	_, verdicts, err := read(path)
	return verdicts, err
}

// ReadMeta returns the meta line and how many verdicts the file holds so
// far. Used to report progress on a run that is still writing.
func ReadMeta(path string) (*Meta, int, error) {
	meta, verdicts, err := read(path)
	if err != nil {
		return nil, 0, err
	}
	return meta, len(verdicts), nil
}

func read(path string) (*Meta, []api.Verdict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var meta *Meta
	var verdicts []api.Verdict

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ml metaLine
		if err := json.Unmarshal([]byte(line), &ml); err == nil && ml.Meta != nil {
			meta = ml.Meta
			continue
		}
		var v api.Verdict
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			return nil, nil, fmt.Errorf("malformed results line: %w", err)
		}
		verdicts = append(verdicts, v)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return meta, verdicts, nil
}
