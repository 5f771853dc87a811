// Package factbridge projects a Runtime's extractor-cell history into a
// Mangle deductive database, so a Thunk formula can run an ad-hoc
// Datalog query over trace history instead of hand-rolled Go. The
// Thunk purity rule only requires the closure to be pure at invocation
// time - it does not forbid the closure consulting a richer read-only
// index than a single Cell.At(t) call.
package factbridge

import (
	"fmt"
	"sync"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/factstore"

	"ltlcore/internal/runtime"
)

// observedPredicate is the fixed schema every tracked cell is projected
// into: observed(cell_name, time_ms, value).
var observedPredicate = ast.PredicateSym{Symbol: "observed", Arity: 3}

// Snapshot is a point-in-time Mangle fact store built from one or more
// tracked cells' retained history. It is immutable once built: to
// reflect newly admitted states, call Build again.
type Snapshot struct {
	store factstore.FactStore
}

// Build projects every source's current retained history into a fresh
// fact store of observed/3 atoms. Sources are read in the order given.
// Strings, bools and numbers map to matching Mangle constants; any other
// value is stored as its fmt.Stringer or %v string, so no value is dropped.
func Build(sources ...runtime.CellSource) (Snapshot, error) {
	store := factstore.NewSimpleInMemoryStore()

	for _, src := range sources {
		for _, obs := range src.Observations() {
			valueConst, err := toConstant(obs.Value)
			if err != nil {
				return Snapshot{}, fmt.Errorf("factbridge: cell %q at %dms: %w", src.Name(), obs.TimeMs, err)
			}
			atom := ast.Atom{
				Predicate: observedPredicate,
				Args: []ast.BaseTerm{
					ast.String(src.Name()),
					ast.Number(obs.TimeMs),
					valueConst,
				},
			}
			store.Add(atom)
		}
	}

	return Snapshot{store: store}, nil
}

// Binding is one satisfying assignment of a query's variables.
type Binding map[string]interface{}

// Query runs pattern (an observed/3 atom, typically with one or more
// ast.Variable args) against the snapshot and returns every matching
// binding of its variables.
func (s Snapshot) Query(pattern ast.Atom) ([]Binding, error) {
	if s.store == nil {
		return nil, nil
	}

	var results []Binding
	err := s.store.GetFacts(pattern, func(atom ast.Atom) error {
		binding := make(Binding)
		for i, arg := range pattern.Args {
			if i >= len(atom.Args) {
				break
			}
			if v, ok := arg.(ast.Variable); ok {
				binding[v.Symbol] = fromConstant(atom.Args[i])
			}
		}
		results = append(results, binding)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("factbridge: query failed: %w", err)
	}
	return results, nil
}

// Observed builds the query pattern `observed(cellName, Time, Value)` with
// Time and Value left as variables, for "has this cell ever recorded anything"
// style Thunk closures. Callers needing a specific time or value bind
// an ast.Constant in place of the corresponding ast.Variable directly.
func Observed(cellName string) ast.Atom {
	return ast.Atom{
		Predicate: observedPredicate,
		Args: []ast.BaseTerm{
			ast.String(cellName),
			ast.Variable{Symbol: "Time"},
			ast.Variable{Symbol: "Value"},
		},
	}
}

// toConstant converts a boxed Observation value into a Mangle Constant.
func toConstant(v interface{}) (ast.Constant, error) {
	switch val := v.(type) {
	case string:
		return ast.String(val), nil
	case bool:
		if val {
			return ast.String("true"), nil
		}
		return ast.String("false"), nil
	case int:
		return ast.Number(int64(val)), nil
	case int64:
		return ast.Number(val), nil
	case float64:
		return ast.Float64(val), nil
	case fmt.Stringer:
		return ast.String(val.String()), nil
	default:
		return ast.String(fmt.Sprintf("%v", v)), nil
	}
}

// fromConstant converts a Mangle term back to a Go value.
func fromConstant(term ast.BaseTerm) interface{} {
	c, ok := term.(ast.Constant)
	if !ok {
		return fmt.Sprintf("%v", term)
	}
	switch c.Type {
	case ast.StringType:
		s, _ := c.StringValue()
		return s
	case ast.NumberType:
		n, _ := c.NumberValue()
		return n
	case ast.Float64Type:
		if f, err := c.Float64Value(); err == nil {
			return f
		}
		return c.String()
	default:
		return c.String()
	}
}

// registry is an optional convenience layer a caller can use to track
// cells across multiple Build calls without re-listing them each time,
// mirroring an evaluation engine holding its own fact buffer rather
// than requiring the caller to resubmit it on every query.
type registry struct {
	mu      sync.Mutex
	sources []runtime.CellSource
}

// Registry accumulates CellSource registrations and rebuilds a Snapshot
// from all of them on demand.
type Registry struct {
	r registry
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Track adds a cell to the set projected by the next Snapshot call.
func (r *Registry) Track(src runtime.CellSource) {
	r.r.mu.Lock()
	defer r.r.mu.Unlock()
	r.r.sources = append(r.r.sources, src)
}

// Snapshot rebuilds a Snapshot from every tracked cell's current
// retained history.
func (r *Registry) Snapshot() (Snapshot, error) {
	r.r.mu.Lock()
	sources := make([]runtime.CellSource, len(r.r.sources))
	copy(sources, r.r.sources)
	r.r.mu.Unlock()

	return Build(sources...)
}
