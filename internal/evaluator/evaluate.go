package evaluator

import (
	"fmt"

	"ltlcore/internal/formula"
	"ltlcore/internal/ltlerr"
	"ltlcore/internal/timeline"
)

// Evaluate computes the first-state verdict for f at t. It never
// touches a Runtime directly; any state that f's Thunk leaves
// read is resolved by their own closures when invoked.
func Evaluate(f formula.Formula, t timeline.Time) (Value, error) {
	switch v := f.(type) {
	case formula.PureFormula:
		if v.Value {
			return trueValue(), nil
		}
		return falseValue(violationFalse(t)), nil

	case formula.ThunkFormula:
		// A thunk resolves to whatever Formula its closure yields; its
		// own falsification carries no extra wrapping beyond what that
		// resolved Formula produces (the Pure rule already covers the
		// common case of a boolean-returning lift).
		return Evaluate(v.Fn(), t)

	case formula.NotFormula:
		return evaluateNot(v, t)

	case formula.AndFormula:
		lv, err := Evaluate(v.Left, t)
		if err != nil {
			return Value{}, err
		}
		rv, err := Evaluate(v.Right, t)
		if err != nil {
			return Value{}, err
		}
		return combineAnd(lv, rv), nil

	case formula.OrFormula:
		lv, err := Evaluate(v.Left, t)
		if err != nil {
			return Value{}, err
		}
		rv, err := Evaluate(v.Right, t)
		if err != nil {
			return Value{}, err
		}
		return combineOr(lv, rv), nil

	case formula.ImpliesFormula:
		av, err := Evaluate(v.Antecedent, t)
		if err != nil {
			return Value{}, err
		}
		cv, err := Evaluate(v.Consequent, t)
		if err != nil {
			return Value{}, err
		}
		return combineImplies(v.Antecedent, av, cv), nil

	case formula.NextFormula:
		return residualValue(Residual{Kind: ResDerivedNext, Sub: v.Sub}), nil

	case formula.AlwaysFormula:
		return evaluateAlwaysAt(v, v.Sub, t, t)

	case formula.EventuallyFormula:
		return evaluateEventuallyAt(v, v.Sub, t, t)

	default:
		return Value{}, fmt.Errorf("evaluator: unhandled formula type %T", f)
	}
}

// evaluateNot rejects Not directly wrapping a modal, and any case where
// the subformula itself resolves to a pending Residual: this core has no
// Residual variant capable of representing a negated pending operand.
func evaluateNot(n formula.NotFormula, t timeline.Time) (Value, error) {
	switch n.Sub.(type) {
	case formula.NextFormula, formula.AlwaysFormula, formula.EventuallyFormula:
		return Value{}, ltlerr.ErrNegationOfModal
	}

	inner, err := Evaluate(n.Sub, t)
	if err != nil {
		return Value{}, err
	}

	switch inner.Kind {
	case VKTrue:
		return falseValue(violationAtom(t, n)), nil
	case VKFalse:
		return trueValue(), nil
	default:
		return Value{}, ltlerr.ErrNegationOfModal
	}
}

// evaluateAlwaysAt implements both the first evaluation of an
// AlwaysFormula (start == t) and its re-entry on a later step (start
// fixed, t advancing).
func evaluateAlwaysAt(modal formula.AlwaysFormula, sub formula.Formula, start, t timeline.Time) (Value, error) {
	gv, err := Evaluate(sub, t)
	if err != nil {
		return Value{}, err
	}
	if gv.Kind == VKFalse {
		return falseValue(violationAlways(t, gv.Violation)), nil
	}

	if modal.Bound != nil {
		deadline := start.Add(*modal.Bound)
		if !t.IsBefore(deadline) {
			return trueValue(), nil
		}
	}

	right := Residual{Kind: ResDerivedAlways, Sub: sub, Modal: modal, Start: start}
	return residualValue(Residual{
		Kind:  ResAndAlways,
		Start: start,
		Left:  ptrResidual(residualOf(gv)),
		Right: ptrResidual(right),
	}), nil
}

// evaluateEventuallyAt implements both the first evaluation of an
// EventuallyFormula (start == t) and its re-entry on a later step. A
// bare (unbounded) Eventually is rejected here, at first use, rather
// than at construction.
func evaluateEventuallyAt(modal formula.EventuallyFormula, sub formula.Formula, start, t timeline.Time) (Value, error) {
	if modal.Bound == nil {
		return Value{}, ltlerr.ErrUnboundedEventually
	}

	gv, err := Evaluate(sub, t)
	if err != nil {
		return Value{}, err
	}
	if gv.Kind == VKTrue {
		return trueValue(), nil
	}

	deadline := start.Add(*modal.Bound)
	if deadline.IsBefore(t) {
		return falseValue(violationEventually(t, sub)), nil
	}

	right := Residual{Kind: ResDerivedEventually, Sub: sub, Modal: modal, Start: start, Deadline: deadline, HasDeadline: true}
	return residualValue(Residual{
		Kind:        ResOrEventually,
		Sub:         sub,
		Start:       start,
		Deadline:    deadline,
		HasDeadline: true,
		Left:        ptrResidual(residualOf(gv)),
		Right:       ptrResidual(right),
	}), nil
}

// combineAnd implements the conjunction combination table.
func combineAnd(l, r Value) Value {
	switch l.Kind {
	case VKTrue:
		switch r.Kind {
		case VKTrue:
			return trueValue()
		case VKFalse:
			return falseValue(r.Violation)
		default:
			return r
		}
	case VKFalse:
		switch r.Kind {
		case VKFalse:
			return falseValue(violationAnd(l.Violation, r.Violation))
		default:
			// r true or residual: l's falsity alone already decides And.
			return falseValue(l.Violation)
		}
	default: // l residual
		switch r.Kind {
		case VKTrue:
			return l
		case VKFalse:
			return falseValue(r.Violation)
		default:
			return residualValue(Residual{Kind: ResAnd, Left: ptrResidual(residualOf(l)), Right: ptrResidual(residualOf(r))})
		}
	}
}

// combineOr implements the disjunction combination table.
func combineOr(l, r Value) Value {
	switch l.Kind {
	case VKTrue:
		return trueValue()
	case VKFalse:
		switch r.Kind {
		case VKTrue:
			return trueValue()
		case VKFalse:
			return falseValue(violationOr(l.Violation, r.Violation))
		default:
			return r
		}
	default: // l residual
		switch r.Kind {
		case VKTrue:
			return trueValue()
		case VKFalse:
			return l
		default:
			return residualValue(Residual{Kind: ResOr, Left: ptrResidual(residualOf(l)), Right: ptrResidual(residualOf(r))})
		}
	}
}

// combineImplies implements the implication combination table. A
// false antecedent resolves the whole formula to True immediately,
// regardless of the consequent's state.
func combineImplies(antecedent formula.Formula, a, c Value) Value {
	if a.Kind == VKFalse {
		return trueValue()
	}
	if a.Kind == VKTrue {
		switch c.Kind {
		case VKTrue:
			return trueValue()
		case VKFalse:
			return falseValue(violationImplies(antecedent, c.Violation))
		default:
			return residualValue(Residual{
				Kind:               ResImplies,
				AntecedentFormula:  antecedent,
				AntecedentResidual: ptrResidual(Residual{Kind: ResTrue}),
				ConsequentResidual: ptrResidual(residualOf(c)),
			})
		}
	}

	// a.Kind == VKResidual
	switch c.Kind {
	case VKTrue:
		return trueValue()
	default:
		return residualValue(Residual{
			Kind:               ResImplies,
			AntecedentFormula:  antecedent,
			AntecedentResidual: ptrResidual(residualOf(a)),
			ConsequentResidual: ptrResidual(residualOf(c)),
		})
	}
}
