package runtime

import (
	"sort"
	"sync"

	"ltlcore/internal/ltlerr"
	"ltlcore/internal/timeline"
)

// Cell is the abstract capability a Formula reads from: its current
// value, and its value at an earlier admitted time.
type Cell[T any] interface {
	// Current returns the value at the runtime's most recently admitted
	// time. Fails with ErrCurrentWithoutAdmission if no state has ever
	// been admitted.
	Current() (T, error)

	// At returns the value at time t. t must be <= the current time
	// (ErrFutureAccess otherwise) and must have been admitted at or
	// after this cell's own registration (ErrUnknownTime otherwise).
	At(t timeline.Time) (T, error)
}

// ExtractorFunc is a pure projection of state S into a snapshot value T.
type ExtractorFunc[S, T any] func(state S) (T, error)

// ExtractorCell applies a pure extraction function over S on every
// admitted state and retains the result in a time-keyed history for
// retrospective lookup.
type ExtractorCell[S, T any] struct {
	name string
	fn   ExtractorFunc[S, T]
	clk  *clock

	mu             sync.RWMutex
	history        map[int64]T
	hasRegistered  bool
	registeredAtMs int64
}

// NewExtractorCell constructs a cell wrapping fn, ready to be attached to
// a Runtime via Attach.
func NewExtractorCell[S, T any](name string, fn ExtractorFunc[S, T]) *ExtractorCell[S, T] {
	return &ExtractorCell[S, T]{
		name:    name,
		fn:      fn,
		history: make(map[int64]T),
	}
}

// Attach binds the cell to rt's clock and registers it. Cells may only
// be attached before the runtime's first state admission.
func Attach[S, T any](rt *Runtime[S], cell *ExtractorCell[S, T]) error {
	cell.clk = rt.clk
	return rt.RegisterExtractor(cell)
}

func (c *ExtractorCell[S, T]) cellName() string {
	return c.name
}

func (c *ExtractorCell[S, T]) update(state S, t timeline.Time) error {
	value, err := c.fn(state)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasRegistered {
		c.hasRegistered = true
		c.registeredAtMs = t.Milliseconds()
	}
	c.history[t.Milliseconds()] = value
	return nil
}

// Current returns the value at the runtime's current time.
func (c *ExtractorCell[S, T]) Current() (T, error) {
	var zero T
	current, ok := c.clk.now()
	if !ok {
		return zero, ltlerr.ErrCurrentWithoutAdmission
	}
	return c.At(current)
}

// At returns the value recorded at t.
func (c *ExtractorCell[S, T]) At(t timeline.Time) (T, error) {
	var zero T

	if current, ok := c.clk.now(); ok && current.IsBefore(t) {
		return zero, ltlerr.ErrFutureAccess
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.hasRegistered || t.Milliseconds() < c.registeredAtMs {
		return zero, ltlerr.ErrUnknownTime
	}
	value, ok := c.history[t.Milliseconds()]
	if !ok {
		return zero, ltlerr.ErrUnknownTime
	}
	return value, nil
}

// Prune discards retained history strictly before the given time. It is
// an optional, opt-in memory control: correctness of At/Current for any
// time still reachable by a live residual does not depend on it.
func (c *ExtractorCell[S, T]) Prune(before timeline.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ms := range c.history {
		if ms < before.Milliseconds() {
			delete(c.history, ms)
		}
	}
}

// Len reports how many snapshots are currently retained, for diagnostics.
func (c *ExtractorCell[S, T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.history)
}

// Observation is one retained (time, value) pair, with the value boxed
// for consumers (like factbridge) that must handle cells of differing T
// uniformly.
type Observation struct {
	TimeMs int64
	Value  any
}

// Name returns the cell's registration name.
func (c *ExtractorCell[S, T]) Name() string {
	return c.name
}

// Observations returns every retained snapshot in ascending time order.
func (c *ExtractorCell[S, T]) Observations() []Observation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	obs := make([]Observation, 0, len(c.history))
	for ms, v := range c.history {
		obs = append(obs, Observation{TimeMs: ms, Value: v})
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].TimeMs < obs[j].TimeMs })
	return obs
}

// CellSource is the type-erased view of an ExtractorCell that
// factbridge consumes to project retained history into Mangle facts,
// without needing to know the cell's S/T instantiation.
type CellSource interface {
	Name() string
	Observations() []Observation
}

var _ CellSource = (*ExtractorCell[struct{}, int])(nil)

// TimeCell is the distinguished cell whose current value is the
// runtime's current time; At(t) returns t itself.
type TimeCell struct {
	clk *clock
}

// Current returns the runtime's current time.
func (tc *TimeCell) Current() (timeline.Time, error) {
	t, ok := tc.clk.now()
	if !ok {
		return timeline.Time{}, ltlerr.ErrCurrentWithoutAdmission
	}
	return t, nil
}

// At returns t itself, so long as it does not exceed the runtime's
// current time.
func (tc *TimeCell) At(t timeline.Time) (timeline.Time, error) {
	current, ok := tc.clk.now()
	if !ok {
		return timeline.Time{}, ltlerr.ErrCurrentWithoutAdmission
	}
	if current.IsBefore(t) {
		return timeline.Time{}, ltlerr.ErrFutureAccess
	}
	return t, nil
}

var _ Cell[timeline.Time] = (*TimeCell)(nil)
