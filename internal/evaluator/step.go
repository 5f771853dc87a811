package evaluator

import (
	"fmt"

	"ltlcore/internal/formula"
	"ltlcore/internal/timeline"
)

// Step advances a pending Residual to a newly admitted time t, producing
// the next Value. Every Residual kind re-derives its modal children by
// calling back into Evaluate/evaluate*At so a single set of combination
// rules governs both first evaluation and stepping.
func Step(r Residual, t timeline.Time) (Value, error) {
	switch r.Kind {
	case ResTrue:
		return trueValue(), nil
	case ResFalse:
		return falseValue(r.Violation), nil

	case ResDerivedNext:
		return Evaluate(r.Sub, t)

	case ResDerivedAlways:
		modal, ok := r.Modal.(formula.AlwaysFormula)
		if !ok {
			return Value{}, fmt.Errorf("evaluator: derived_always residual carries non-Always modal %T", r.Modal)
		}
		return evaluateAlwaysAt(modal, r.Sub, r.Start, t)

	case ResDerivedEventually:
		modal, ok := r.Modal.(formula.EventuallyFormula)
		if !ok {
			return Value{}, fmt.Errorf("evaluator: derived_eventually residual carries non-Eventually modal %T", r.Modal)
		}
		return evaluateEventuallyAt(modal, r.Sub, r.Start, t)

	case ResAnd:
		lv, err := stepChild(r.Left, t)
		if err != nil {
			return Value{}, err
		}
		rv, err := stepChild(r.Right, t)
		if err != nil {
			return Value{}, err
		}
		return combineAnd(lv, rv), nil

	case ResOr:
		lv, err := stepChild(r.Left, t)
		if err != nil {
			return Value{}, err
		}
		rv, err := stepChild(r.Right, t)
		if err != nil {
			return Value{}, err
		}
		return combineOr(lv, rv), nil

	case ResImplies:
		av, err := stepChild(r.AntecedentResidual, t)
		if err != nil {
			return Value{}, err
		}
		cv, err := stepChild(r.ConsequentResidual, t)
		if err != nil {
			return Value{}, err
		}
		return combineImplies(r.AntecedentFormula, av, cv), nil

	case ResAndAlways:
		// The right child is a Derived Always residual; stepping it
		// re-derives a fresh And-shaped residual (or a terminal value) on
		// its own, so the plain conjunction table is sufficient here -
		// no special reconstruction needed.
		lv, err := stepChild(r.Left, t)
		if err != nil {
			return Value{}, err
		}
		rv, err := stepChild(r.Right, t)
		if err != nil {
			return Value{}, err
		}
		return combineAnd(lv, rv), nil

	case ResOrEventually:
		return stepOrEventually(r, t)

	default:
		return Value{}, fmt.Errorf("evaluator: unhandled residual kind %q", r.Kind)
	}
}

func stepChild(r *Residual, t timeline.Time) (Value, error) {
	if r == nil {
		return Value{}, fmt.Errorf("evaluator: nil residual child")
	}
	return Step(*r, t)
}

// stepOrEventually re-forms its own OrEventually frame (rather than
// collapsing to a plain Or) in the still-pending case, preserving the
// deadline for subsequent steps; a plain Or residual would otherwise
// lose track of the window end.
func stepOrEventually(r Residual, t timeline.Time) (Value, error) {
	if r.HasDeadline && r.Deadline.IsBefore(t) {
		return falseValue(violationEventually(t, r.Sub)), nil
	}

	lv, err := stepChild(r.Left, t)
	if err != nil {
		return Value{}, err
	}
	rv, err := stepChild(r.Right, t)
	if err != nil {
		return Value{}, err
	}

	switch {
	case lv.Kind == VKTrue || rv.Kind == VKTrue:
		return trueValue(), nil
	case lv.Kind == VKFalse && rv.Kind == VKFalse:
		return falseValue(violationOr(lv.Violation, rv.Violation)), nil
	case lv.Kind == VKFalse:
		return rv, nil
	case rv.Kind == VKFalse:
		return lv, nil
	default:
		return residualValue(Residual{
			Kind:        ResOrEventually,
			Sub:         r.Sub,
			Start:       r.Start,
			Deadline:    r.Deadline,
			HasDeadline: true,
			Left:        ptrResidual(residualOf(lv)),
			Right:       ptrResidual(residualOf(rv)),
		}), nil
	}
}
