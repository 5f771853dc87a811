// Package tracelog provides a rotating JSONL log of evaluator
// invocations (Evaluate/Step/Test calls and the verdict each produced),
// useful ambient diagnostics for a long-running property test harness.
package tracelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	MaxRotatedFiles = 3
	TraceDir        = "data/traces"
)

// Event represents a single record in the trace log.
type Event struct {
	Timestamp time.Time   `json:"ts"`
	Kind      string      `json:"kind"` // "evaluate", "step", or "test"
	RunID     string      `json:"run_id,omitempty"`
	TimeMs    int64       `json:"time_ms"`
	Formula   string      `json:"formula,omitempty"`
	Verdict   string      `json:"verdict"` // "true", "false", or "residual"
	Data      interface{} `json:"data,omitempty"`
}

// Recorder manages rotating trace logs for one or more runtime runs.
type Recorder struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *json.Encoder
	basePath string
}

// NewRecorder creates a recorder instance, ensuring basePath exists.
func NewRecorder(basePath string) (*Recorder, error) {
	if basePath == "" {
		basePath = TraceDir
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	return &Recorder{
		basePath: basePath,
	}, nil
}

// Start begins a new trace file for runID, rotating old files so at
// most MaxRotatedFiles are retained.
func (r *Recorder) Start(runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}

	if err := r.rotate(); err != nil {
		return fmt.Errorf("rotate traces: %w", err)
	}

	filename := fmt.Sprintf("trace_%s_%d.jsonl", runID, time.Now().UnixMilli())
	path := filepath.Join(r.basePath, filename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	r.file = f
	r.encoder = json.NewEncoder(f)
	return nil
}

// Log writes an event to the current trace file. A Recorder with no
// Start call in progress silently drops events, so instrumenting a call
// site with Log is always safe even before a run begins.
func (r *Recorder) Log(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return
	}

	evt.Timestamp = time.Now()
	_ = r.encoder.Encode(evt)
}

// LogVerdict is the common-case call site: an evaluator operation
// (kind is "evaluate", "step", or "test") reached timeMs and produced
// verdict ("true", "false", or "residual") for the given formula.
func (r *Recorder) LogVerdict(runID, kind string, timeMs int64, formulaPretty, verdict string) {
	r.Log(Event{
		Kind:    kind,
		RunID:   runID,
		TimeMs:  timeMs,
		Formula: formulaPretty,
		Verdict: verdict,
	})
}

// rotate keeps only the newest MaxRotatedFiles trace files.
func (r *Recorder) rotate() error {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return err
	}

	var traces []struct {
		Name string
		Time time.Time
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		traces = append(traces, struct {
			Name string
			Time time.Time
		}{e.Name(), info.ModTime()})
	}

	sort.Slice(traces, func(i, j int) bool {
		return traces[i].Time.After(traces[j].Time)
	})

	if len(traces) >= MaxRotatedFiles {
		keep := MaxRotatedFiles - 1
		if keep < 0 {
			keep = 0
		}
		for i := keep; i < len(traces); i++ {
			path := filepath.Join(r.basePath, traces[i].Name)
			_ = os.Remove(path)
		}
	}
	return nil
}

// Close finishes the current trace file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		r.encoder = nil
		return err
	}
	return nil
}
