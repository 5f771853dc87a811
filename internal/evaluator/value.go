package evaluator

import (
	"ltlcore/internal/formula"
	"ltlcore/internal/timeline"
)

// ResidualKind tags the variant of a Residual node.
type ResidualKind string

const (
	ResTrue              ResidualKind = "true"
	ResFalse             ResidualKind = "false"
	ResDerivedNext       ResidualKind = "derived_next"
	ResDerivedAlways     ResidualKind = "derived_always"
	ResDerivedEventually ResidualKind = "derived_eventually"
	ResAnd               ResidualKind = "and"
	ResOr                ResidualKind = "or"
	ResImplies           ResidualKind = "implies"
	ResAndAlways         ResidualKind = "and_always"
	ResOrEventually      ResidualKind = "or_eventually"
)

// Residual is the pending-evaluation state carried between steps. It
// is recursive: the operand of an And/Or/Implies
// node is itself a Residual, and True/False appear as terminal variants
// so a resolved operand can be embedded without a separate wrapper type.
type Residual struct {
	Kind ResidualKind

	// ResFalse
	Violation ViolationTree

	// ResDerivedNext: Sub is the asserted formula.
	// ResDerivedAlways / ResDerivedEventually: Sub is the bare inner
	// formula (not re-wrapped in Always/Eventually), Modal is the
	// original AlwaysFormula/EventuallyFormula (read for its Bound),
	// Start is the window's opening time, Deadline/HasDeadline describe
	// a bounded window's resolution time.
	Sub         formula.Formula
	Modal       formula.Formula
	Start       timeline.Time
	Deadline    timeline.Time
	HasDeadline bool

	// ResAnd / ResOr / ResAndAlways / ResOrEventually
	Left, Right *Residual

	// ResImplies
	AntecedentFormula  formula.Formula
	AntecedentResidual *Residual
	ConsequentResidual *Residual
}

func ptrResidual(r Residual) *Residual { return &r }

// ValueKind tags the three top-level outcomes a formula can have at a
// point in time.
type ValueKind string

const (
	VKTrue     ValueKind = "true"
	VKFalse    ValueKind = "false"
	VKResidual ValueKind = "residual"
)

// Value is the result of Evaluate or Step: exactly one of True,
// False{Violation}, or Residual{Residual}.
type Value struct {
	Kind      ValueKind
	Violation ViolationTree
	Residual  Residual
}

func trueValue() Value { return Value{Kind: VKTrue} }

func falseValue(v ViolationTree) Value { return Value{Kind: VKFalse, Violation: v} }

func residualValue(r Residual) Value { return Value{Kind: VKResidual, Residual: r} }

// residualOf flattens a Value into the recursive Residual representation,
// using Residual's own True/False terminal variants for the resolved
// cases so operand positions in And/Or/Implies/AndAlways/OrEventually can
// hold a Value of any kind uniformly.
func residualOf(v Value) Residual {
	switch v.Kind {
	case VKTrue:
		return Residual{Kind: ResTrue}
	case VKFalse:
		return Residual{Kind: ResFalse, Violation: v.Violation}
	default:
		return v.Residual
	}
}

// valueOf lifts a Residual back to the external three-way Value,
// collapsing ResTrue/ResFalse to their Value equivalents and leaving
// every other kind as a pending Residual.
func valueOf(r Residual) Value {
	switch r.Kind {
	case ResTrue:
		return trueValue()
	case ResFalse:
		return falseValue(r.Violation)
	default:
		return residualValue(r)
	}
}
