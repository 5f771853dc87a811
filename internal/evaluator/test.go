package evaluator

import (
	"ltlcore/internal/formula"
	"ltlcore/internal/ltlerr"
	"ltlcore/internal/runtime"
)

// TraceEntry pairs a captured state with the timestamp it was observed
// at, the unit the driver outside this core's scope hands to Test.
type TraceEntry[S any] struct {
	State       S
	TimestampMs int64
}

// ResultKind tags the three outcomes Test can report.
type ResultKind string

const (
	Passed       ResultKind = "passed"
	Failed       ResultKind = "failed"
	Inconclusive ResultKind = "inconclusive"
)

// TestResult is the verdict Test extracts after replaying an entire
// trace through a formula.
type TestResult struct {
	Kind      ResultKind
	Violation ViolationTree
	Residual  Residual
}

// Test replays trace through rt, admitting each entry's state in order
// and evaluating/stepping f. A trace that exhausts
// without a True or False verdict reports Inconclusive, carrying the
// final Residual so a caller can keep stepping with more states later.
func Test[S any](rt *runtime.Runtime[S], f formula.Formula, trace []TraceEntry[S]) (TestResult, error) {
	if len(trace) == 0 {
		return TestResult{}, ltlerr.ErrEmptyTrace
	}

	t0, err := rt.RegisterState(trace[0].State, trace[0].TimestampMs)
	if err != nil {
		return TestResult{}, err
	}
	value, err := Evaluate(f, t0)
	if err != nil {
		return TestResult{}, err
	}

	for _, entry := range trace[1:] {
		if value.Kind != VKResidual {
			break
		}
		tN, err := rt.RegisterState(entry.State, entry.TimestampMs)
		if err != nil {
			return TestResult{}, err
		}
		value, err = Step(value.Residual, tN)
		if err != nil {
			return TestResult{}, err
		}
	}

	return classify(value), nil
}

func classify(v Value) TestResult {
	switch v.Kind {
	case VKTrue:
		return TestResult{Kind: Passed}
	case VKFalse:
		return TestResult{Kind: Failed, Violation: v.Violation}
	default:
		return TestResult{Kind: Inconclusive, Residual: v.Residual}
	}
}
