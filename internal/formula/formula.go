// Package formula implements the LTL formula algebra built by the user
// DSL: booleans, conjunction, disjunction, implication, negation, next,
// always (optionally time-bounded), eventually (time-bounded), and the
// two reflective leaves (Pure, Thunk). Formulas are modeled as an
// exhaustive tagged sum dispatched by explicit case analysis, the same
// style google/mangle/ast uses for its BaseTerm/Atom/Constant variants,
// rather than an open class hierarchy.
package formula

import (
	"fmt"

	"ltlcore/internal/ltlerr"
	"ltlcore/internal/timeline"
)

// Formula is an immutable node in the LTL formula DAG. Only types
// defined in this package implement it.
type Formula interface {
	// Pretty renders a stable textual form of the formula; equal
	// formulas always render identically.
	Pretty() string

	isFormula()
}

// PureFormula is a leaf carrying a precomputed boolean.
type PureFormula struct {
	Label string
	Value bool
}

func (PureFormula) isFormula() {}

// Pretty renders the leaf's label, falling back to its value.
func (p PureFormula) Pretty() string {
	if p.Label != "" {
		return p.Label
	}
	if p.Value {
		return "true"
	}
	return "false"
}

// Pure builds a formula that is trivially true or false.
func Pure(b bool) Formula {
	return PureFormula{Value: b}
}

// ThunkFormula is a leaf carrying a closure that produces a Formula when
// first observed. The closure must be pure with respect to the cells it
// reads at the time it is invoked, and is invoked exactly once per
// evaluation site.
type ThunkFormula struct {
	Label string
	Fn    func() Formula
}

func (ThunkFormula) isFormula() {}

// Pretty renders the thunk's label.
func (t ThunkFormula) Pretty() string {
	return t.Label
}

// Lift wraps a boolean-producing closure as a Thunk that yields
// Pure(fn()) when invoked — the "now"/lift DSL helper for a
// `func() bool` argument.
func Lift(label string, fn func() bool) Formula {
	return ThunkFormula{Label: label, Fn: func() Formula { return PureFormula{Label: label, Value: fn()} }}
}

// Defer wraps a Formula-producing closure as a Thunk — the DSL helper
// for a `func() Formula` argument.
func Defer(label string, fn func() Formula) Formula {
	return ThunkFormula{Label: label, Fn: fn}
}

// AndFormula is the conjunction of two formulas.
type AndFormula struct {
	Left, Right Formula
}

func (AndFormula) isFormula() {}

// Pretty renders "(left && right)".
func (a AndFormula) Pretty() string {
	return fmt.Sprintf("(%s && %s)", a.Left.Pretty(), a.Right.Pretty())
}

// And builds the conjunction of l and r.
func And(l, r Formula) Formula {
	return AndFormula{Left: l, Right: r}
}

// OrFormula is the disjunction of two formulas.
type OrFormula struct {
	Left, Right Formula
}

func (OrFormula) isFormula() {}

// Pretty renders "(left || right)".
func (o OrFormula) Pretty() string {
	return fmt.Sprintf("(%s || %s)", o.Left.Pretty(), o.Right.Pretty())
}

// Or builds the disjunction of l and r.
func Or(l, r Formula) Formula {
	return OrFormula{Left: l, Right: r}
}

// ImpliesFormula is classical implication, Antecedent -> Consequent.
type ImpliesFormula struct {
	Antecedent, Consequent Formula
}

func (ImpliesFormula) isFormula() {}

// Pretty renders "(antecedent -> consequent)".
func (i ImpliesFormula) Pretty() string {
	return fmt.Sprintf("(%s -> %s)", i.Antecedent.Pretty(), i.Consequent.Pretty())
}

// Implies builds "a implies c".
func Implies(a, c Formula) Formula {
	return ImpliesFormula{Antecedent: a, Consequent: c}
}

// NotFormula negates a formula. Negating a Next/Always/Eventually is
// rejected at evaluation time with ErrNegationOfModal; Not itself may
// always be constructed.
type NotFormula struct {
	Sub Formula
}

func (NotFormula) isFormula() {}

// Pretty renders "!sub".
func (n NotFormula) Pretty() string {
	return fmt.Sprintf("!%s", n.Sub.Pretty())
}

// Not builds the negation of f.
func Not(f Formula) Formula {
	return NotFormula{Sub: f}
}

// NextFormula asserts its subformula holds at the next admitted state.
type NextFormula struct {
	Sub Formula
}

func (NextFormula) isFormula() {}

// Pretty renders "X sub".
func (n NextFormula) Pretty() string {
	return fmt.Sprintf("X %s", n.Sub.Pretty())
}

// Next builds a formula asserting f holds at the next admitted state.
func Next(f Formula) Formula {
	return NextFormula{Sub: f}
}

// AlwaysFormula asserts its subformula holds at every step from its
// start time onward (unbounded), or within [start, start+Bound] if
// Bound is set.
type AlwaysFormula struct {
	Bound *timeline.Duration
	Sub   Formula
}

func (AlwaysFormula) isFormula() {}

// Pretty renders "G sub" or "G[<=bound] sub".
func (a AlwaysFormula) Pretty() string {
	if a.Bound == nil {
		return fmt.Sprintf("G %s", a.Sub.Pretty())
	}
	return fmt.Sprintf("G[<=%s] %s", a.Bound.String(), a.Sub.Pretty())
}

// Always builds a bare (unbounded) "always f"; chain Within to bound it.
func Always(f Formula) AlwaysFormula {
	return AlwaysFormula{Sub: f}
}

// Within attaches a bound to an Always formula, returning a new,
// independent AlwaysFormula (formulas are immutable once constructed).
// Calling Within on an already-bounded Always fails with
// ErrBoundAlreadySet.
func (a AlwaysFormula) Within(n int64, unit timeline.Unit) (AlwaysFormula, error) {
	if a.Bound != nil {
		return AlwaysFormula{}, ltlerr.ErrBoundAlreadySet
	}
	d := timeline.New(n, unit)
	return AlwaysFormula{Bound: &d, Sub: a.Sub}, nil
}

// EventuallyFormula asserts its subformula becomes true at some step
// within [start, start+Bound]. A Bound is mandatory: a bare Eventually
// has Bound == nil and is rejected the first time it is evaluated or
// stepped, with ErrUnboundedEventually. Construction itself cannot
// observe "never called Within" without a separate finalize step, so
// the check is deferred to first use.
type EventuallyFormula struct {
	Bound *timeline.Duration
	Sub   Formula
}

func (EventuallyFormula) isFormula() {}

// Pretty renders "F[<=bound] sub", or "F[unbounded] sub" for a formula
// under construction that has not yet had Within applied.
func (e EventuallyFormula) Pretty() string {
	if e.Bound == nil {
		return fmt.Sprintf("F[unbounded] %s", e.Sub.Pretty())
	}
	return fmt.Sprintf("F[<=%s] %s", e.Bound.String(), e.Sub.Pretty())
}

// Eventually builds a bare "eventually f"; Within must be chained
// before the formula is evaluated, or evaluation fails with
// ErrUnboundedEventually.
func Eventually(f Formula) EventuallyFormula {
	return EventuallyFormula{Sub: f}
}

// Within attaches a bound to an Eventually formula, returning a new,
// independent EventuallyFormula. Calling Within on an already-bounded
// Eventually fails with ErrBoundAlreadySet.
func (e EventuallyFormula) Within(n int64, unit timeline.Unit) (EventuallyFormula, error) {
	if e.Bound != nil {
		return EventuallyFormula{}, ltlerr.ErrBoundAlreadySet
	}
	d := timeline.New(n, unit)
	return EventuallyFormula{Bound: &d, Sub: e.Sub}, nil
}
