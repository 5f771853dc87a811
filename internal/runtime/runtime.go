// Package runtime implements the process-wide (per test run) registrar
// of extractor cells: it admits state snapshots in monotone time order,
// updates every registered cell, and exposes the cell abstraction cells
// and formulas read from.
package runtime

import (
	"sync"

	"github.com/google/uuid"

	"ltlcore/internal/ltlerr"
	"ltlcore/internal/timeline"
)

// clock is the shared notion of "current time" that every cell belonging
// to one Runtime consults for its Current()/At() bounds checks.
type clock struct {
	mu      sync.RWMutex
	hasTime bool
	current timeline.Time
}

func (c *clock) now() (timeline.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.hasTime
}

func (c *clock) advance(t timeline.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
	c.hasTime = true
}

func (c *clock) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = timeline.Zero
	c.hasTime = false
}

// updater is the internal registration contract a cell satisfies so a
// Runtime[S] can drive it generically without exposing its value type T.
type updater[S any] interface {
	cellName() string
	update(state S, t timeline.Time) error
}

// Runtime owns the current {state, time} and the ordered registry of
// extractor cells for a single test run. It is not concurrency-safe:
// exactly one RegisterState/reset call may be in flight at a time.
type Runtime[S any] struct {
	RunID string

	clk        *clock
	extractors []updater[S]
	timeCell   *TimeCell

	hasState bool
	hooks    []func(timeline.Time)
}

// New constructs an empty Runtime[S], stamped with a RunID so that
// multiple concurrent (isolated) runtimes can be correlated in logs.
func New[S any]() *Runtime[S] {
	clk := &clock{}
	return &Runtime[S]{
		RunID:    uuid.NewString(),
		clk:      clk,
		timeCell: &TimeCell{clk: clk},
	}
}

// Time returns the distinguished TimeCell for this runtime: its current
// value *is* the runtime's current time, and At(t) returns t itself.
func (r *Runtime[S]) Time() *TimeCell {
	return r.timeCell
}

// RegisterExtractor attaches cell to the update list. Cells may only be
// registered before the first state admission.
func (r *Runtime[S]) RegisterExtractor(cell updater[S]) error {
	if r.hasState {
		return ltlerr.ErrLateRegistration
	}
	r.extractors = append(r.extractors, cell)
	return nil
}

// RegisterState constructs Time(timestampMs), validates monotonicity,
// installs the new {state, time}, and invokes each registered cell's
// update hook in registration order. If an extractor fails, the
// admission is aborted: cells already updated this call retain their new
// value, but the runtime's current time does not advance.
func (r *Runtime[S]) RegisterState(state S, timestampMs int64) (timeline.Time, error) {
	newTime := timeline.At(timestampMs)

	if current, ok := r.clk.now(); ok && newTime.IsBefore(current) {
		return timeline.Time{}, ltlerr.ErrNonMonotonicTime
	}

	for _, cell := range r.extractors {
		if err := cell.update(state, newTime); err != nil {
			return timeline.Time{}, ltlerr.ExtractorFailed(cell.cellName(), err)
		}
	}

	r.clk.advance(newTime)
	r.hasState = true

	for _, hook := range r.hooks {
		hook(newTime)
	}

	return newTime, nil
}

// Reset drops current state and clears registered cells, returning the
// Runtime to its just-constructed condition (RunID is preserved).
func (r *Runtime[S]) Reset() {
	r.extractors = nil
	r.hooks = nil
	r.hasState = false
	r.clk.reset()
}

// OnAdmission registers a hook invoked, in registration order, after
// every successful RegisterState call. Hooks let a driver outside this
// core's scope learn that a new time was admitted without polling; they
// carry no LTL semantics and cannot affect a verdict.
func (r *Runtime[S]) OnAdmission(hook func(timeline.Time)) {
	r.hooks = append(r.hooks, hook)
}

// prunable is satisfied by any cell that supports history pruning.
// ExtractorCell's Prune method has no type parameters in its signature,
// so it trivially satisfies this non-generic interface regardless of
// its S/T instantiation.
type prunable interface {
	Prune(before timeline.Time)
}

// GC prunes every registered cell's retained history strictly before
// the given time. Callers typically pass the minimum `start` timestamp
// referenced by any residual they are still holding, a conservative
// lower bound on which At(t) calls must still stay reachable.
func (r *Runtime[S]) GC(before timeline.Time) {
	for _, cell := range r.extractors {
		if p, ok := cell.(prunable); ok {
			p.Prune(before)
		}
	}
}

// Diagnostics is a point-in-time snapshot of runtime bookkeeping,
// intended for logging, not for evaluation.
type Diagnostics struct {
	RunID           string
	RegisteredCells int
	HasCurrentTime  bool
	CurrentTimeMs   int64
}

// Diagnostics reports the runtime's current bookkeeping state.
func (r *Runtime[S]) Diagnostics() Diagnostics {
	current, ok := r.clk.now()
	return Diagnostics{
		RunID:           r.RunID,
		RegisteredCells: len(r.extractors),
		HasCurrentTime:  ok,
		CurrentTimeMs:   current.Milliseconds(),
	}
}
