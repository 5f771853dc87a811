package evaluator

import (
	"errors"
	"testing"

	"ltlcore/internal/formula"
	"ltlcore/internal/ltlerr"
	"ltlcore/internal/runtime"
	"ltlcore/internal/timeline"
)

// --- property-based invariants ---

func TestPropertyPureLeaves(t *testing.T) {
	v, err := Evaluate(formula.Pure(true), timeline.At(0))
	if err != nil || v.Kind != VKTrue {
		t.Fatalf("Evaluate(Pure(true)) = %v, %v, want True", v, err)
	}

	v, err = Evaluate(formula.Pure(false), timeline.At(7))
	if err != nil {
		t.Fatalf("Evaluate(Pure(false)) error: %v", err)
	}
	if v.Kind != VKFalse || v.Violation.Kind != VFalse || v.Violation.Time.Milliseconds() != 7 {
		t.Errorf("Evaluate(Pure(false), 7) violation = %+v, want False{time=7}", v.Violation)
	}
}

func TestPropertyModallessDeterminism(t *testing.T) {
	f := formula.And(formula.Pure(true), formula.Or(formula.Pure(false), formula.Pure(true)))
	v1, err1 := Evaluate(f, timeline.At(100))
	v2, err2 := Evaluate(f, timeline.At(100))
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if v1.Kind != v2.Kind {
		t.Errorf("repeated Evaluate at same t diverged: %v vs %v", v1.Kind, v2.Kind)
	}
}

type boolState struct{ B bool }

func newBoolCellRuntime(label string) (*runtime.Runtime[boolState], *runtime.ExtractorCell[boolState, bool]) {
	rt := runtime.New[boolState]()
	cell := runtime.NewExtractorCell[boolState, bool](label, func(s boolState) (bool, error) { return s.B, nil })
	if err := runtime.Attach(rt, cell); err != nil {
		panic(err)
	}
	return rt, cell
}

func TestPropertyUnboundedAlwaysStaysPendingWhileEveryStateHolds(t *testing.T) {
	rt, cell := newBoolCellRuntime("p")
	f := formula.Always(formula.Lift("p", func() bool { v, _ := cell.Current(); return v }))

	trace := []TraceEntry[boolState]{
		{State: boolState{B: true}, TimestampMs: 0},
		{State: boolState{B: true}, TimestampMs: 1000},
		{State: boolState{B: true}, TimestampMs: 2000},
	}
	res, err := Test(rt, f, trace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Inconclusive {
		t.Errorf("always(true,true,true) = %v, want Inconclusive (unbounded always never terminates True)", res.Kind)
	}
}

func TestPropertyAlwaysFailsAtFirstFalsifyingTimestamp(t *testing.T) {
	rt, cell := newBoolCellRuntime("p")
	f := formula.Always(formula.Lift("p", func() bool { v, _ := cell.Current(); return v }))

	trace := []TraceEntry[boolState]{
		{State: boolState{B: true}, TimestampMs: 0},
		{State: boolState{B: false}, TimestampMs: 1000},
		{State: boolState{B: true}, TimestampMs: 2000},
	}
	res, err := Test(rt, f, trace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Failed {
		t.Fatalf("always with a false state = %v, want Failed", res.Kind)
	}
	if res.Violation.Kind != VAlways || res.Violation.Time.Milliseconds() != 1000 {
		t.Errorf("violation = %+v, want Always{time=1000}", res.Violation)
	}
}

func TestPropertyEventuallyWithinWindow(t *testing.T) {
	rt, cell := newBoolCellRuntime("p")
	ev, err := formula.Eventually(formula.Lift("p", func() bool { v, _ := cell.Current(); return v })).Within(2, timeline.Seconds)
	if err != nil {
		t.Fatalf("Within failed: %v", err)
	}

	passTrace := []TraceEntry[boolState]{
		{State: boolState{B: false}, TimestampMs: 0},
		{State: boolState{B: true}, TimestampMs: 1500},
	}
	res, err := Test(rt, ev, passTrace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Passed {
		t.Errorf("eventually(p).within(2s) with p true inside window = %v, want Passed", res.Kind)
	}

	rt2, cell2 := newBoolCellRuntime("p")
	ev2, _ := formula.Eventually(formula.Lift("p", func() bool { v, _ := cell2.Current(); return v })).Within(2, timeline.Seconds)
	failTrace := []TraceEntry[boolState]{
		{State: boolState{B: false}, TimestampMs: 0},
		{State: boolState{B: false}, TimestampMs: 1000},
		{State: boolState{B: false}, TimestampMs: 3000},
	}
	res2, err := Test(rt2, ev2, failTrace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res2.Kind != Failed {
		t.Errorf("eventually(p).within(2s) never true = %v, want Failed", res2.Kind)
	}
}

func TestPropertyBooleanCombinators(t *testing.T) {
	cases := []struct {
		name string
		f    formula.Formula
		want ValueKind
	}{
		{"and-tt", formula.And(formula.Pure(true), formula.Pure(true)), VKTrue},
		{"and-tf", formula.And(formula.Pure(true), formula.Pure(false)), VKFalse},
		{"or-ff", formula.Or(formula.Pure(false), formula.Pure(false)), VKFalse},
		{"or-ft", formula.Or(formula.Pure(false), formula.Pure(true)), VKTrue},
		{"implies-tt", formula.Implies(formula.Pure(true), formula.Pure(true)), VKTrue},
		{"implies-tf", formula.Implies(formula.Pure(true), formula.Pure(false)), VKFalse},
		{"implies-ft", formula.Implies(formula.Pure(false), formula.Pure(true)), VKTrue},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := Evaluate(c.f, timeline.At(0))
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if v.Kind != c.want {
				t.Errorf("%s = %v, want %v", c.name, v.Kind, c.want)
			}
		})
	}
}

func TestPropertyAndShortCircuitsOnFirstFalse(t *testing.T) {
	rt, cell := newBoolCellRuntime("p")
	f := formula.And(
		formula.Always(formula.Lift("p", func() bool { v, _ := cell.Current(); return v })),
		formula.Pure(true),
	)
	trace := []TraceEntry[boolState]{
		{State: boolState{B: true}, TimestampMs: 0},
		{State: boolState{B: false}, TimestampMs: 1000},
		{State: boolState{B: true}, TimestampMs: 2000},
	}
	res, err := Test(rt, f, trace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Failed {
		t.Fatalf("expected Failed once the left conjunct falsifies, got %v", res.Kind)
	}
}

func TestPropertyMonotonicityNeverReopens(t *testing.T) {
	rt, cell := newBoolCellRuntime("p")
	f := formula.Always(formula.Lift("p", func() bool { v, _ := cell.Current(); return v }))
	trace := []TraceEntry[boolState]{
		{State: boolState{B: true}, TimestampMs: 0},
		{State: boolState{B: false}, TimestampMs: 1000},
		{State: boolState{B: true}, TimestampMs: 2000},
		{State: boolState{B: true}, TimestampMs: 3000},
	}
	res, err := Test(rt, f, trace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Failed {
		t.Fatalf("expected Failed to stick once reached, got %v", res.Kind)
	}
}

func TestPropertyPrettyRoundTrip(t *testing.T) {
	f := formula.Implies(formula.Next(formula.Pure(true)), formula.Pure(false))
	if f.Pretty() != f.Pretty() {
		t.Errorf("Pretty() not stable")
	}
}

// --- concrete scenarios ---

type countState struct{ Count int }

func TestScenarioS1MaxNotifications(t *testing.T) {
	rt := runtime.New[countState]()
	cell := runtime.NewExtractorCell[countState, int]("count", func(s countState) (int, error) { return s.Count, nil })
	if err := runtime.Attach(rt, cell); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	f := formula.Always(formula.Lift("count<=5", func() bool {
		v, _ := cell.Current()
		return v <= 5
	}))

	trace := []TraceEntry[countState]{
		{State: countState{Count: 1}, TimestampMs: 0},
		{State: countState{Count: 1}, TimestampMs: 1000},
		{State: countState{Count: 6}, TimestampMs: 3000},
	}
	res, err := Test(rt, f, trace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Failed {
		t.Fatalf("S1: got %v, want Failed", res.Kind)
	}
	if res.Violation.Kind != VAlways {
		t.Errorf("S1: violation root = %v, want Always", res.Violation.Kind)
	}
	if res.Violation.Inner == nil || res.Violation.Inner.Kind != VFalse {
		t.Errorf("S1: inner = %+v, want False", res.Violation.Inner)
	}
	if res.Violation.Time.Milliseconds() != 3000 {
		t.Errorf("S1: violation time = %v, want 3000", res.Violation.Time.Milliseconds())
	}
}

type errState struct{ Err string }

func TestScenarioS2ErrorDisappears(t *testing.T) {
	rt := runtime.New[errState]()
	cell := runtime.NewExtractorCell[errState, string]("err", func(s errState) (string, error) { return s.Err, nil })
	if err := runtime.Attach(rt, cell); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	errPresent := formula.Lift("err!=null", func() bool {
		v, _ := cell.Current()
		return v != ""
	})
	errGone := formula.Lift("err==null", func() bool {
		v, _ := cell.Current()
		return v == ""
	})
	eventuallyGone, err := formula.Eventually(errGone).Within(5, timeline.Seconds)
	if err != nil {
		t.Fatalf("Within failed: %v", err)
	}
	f := formula.Always(formula.Implies(errPresent, eventuallyGone))

	trace := []TraceEntry[errState]{
		{State: errState{Err: ""}, TimestampMs: 0},
		{State: errState{Err: "x"}, TimestampMs: 1000},
		{State: errState{Err: ""}, TimestampMs: 3000},
	}
	res, err := Test(rt, f, trace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Inconclusive {
		t.Errorf("S2: got %v, want Inconclusive", res.Kind)
	}
}

func TestScenarioS3EventuallyTimeout(t *testing.T) {
	rt, cell := newBoolCellRuntime("b")
	ev, err := formula.Eventually(formula.Lift("b", func() bool { v, _ := cell.Current(); return v })).Within(2, timeline.Seconds)
	if err != nil {
		t.Fatalf("Within failed: %v", err)
	}

	trace := []TraceEntry[boolState]{
		{State: boolState{B: false}, TimestampMs: 0},
		{State: boolState{B: false}, TimestampMs: 1000},
		{State: boolState{B: false}, TimestampMs: 3000},
	}
	res, err := Test(rt, ev, trace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Failed {
		t.Fatalf("S3: got %v, want Failed", res.Kind)
	}
	if res.Violation.Kind != VEventually {
		t.Errorf("S3: violation kind = %v, want Eventually", res.Violation.Kind)
	}
	if res.Violation.Time.Milliseconds() != 3000 {
		t.Errorf("S3: violation time = %v, want 3000", res.Violation.Time.Milliseconds())
	}
	if res.Violation.Formula == nil {
		t.Errorf("S3: violation formula (the boolean thunk) not retained")
	}
}

func TestScenarioS4EventuallySatisfied(t *testing.T) {
	rt, cell := newBoolCellRuntime("b")
	ev, err := formula.Eventually(formula.Lift("b", func() bool { v, _ := cell.Current(); return v })).Within(2, timeline.Seconds)
	if err != nil {
		t.Fatalf("Within failed: %v", err)
	}

	trace := []TraceEntry[boolState]{
		{State: boolState{B: false}, TimestampMs: 0},
		{State: boolState{B: true}, TimestampMs: 1500},
	}
	res, err := Test(rt, ev, trace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Passed {
		t.Fatalf("S4: got %v, want Passed", res.Kind)
	}
}

type lrState struct{ L, R bool }

// TestScenarioS5AndOfAlways exercises the explicit short-circuit rule
// (Residual, False) -> False(r): once the right conjunct's Always
// falsifies while the left is still pending, the verdict carries the
// bare Always violation rather than re-wrapping it in an And node (doing
// so would bloat the tree without changing the verdict).
func TestScenarioS5AndOfAlways(t *testing.T) {
	rt := runtime.New[lrState]()
	lCell := runtime.NewExtractorCell[lrState, bool]("l", func(s lrState) (bool, error) { return s.L, nil })
	rCell := runtime.NewExtractorCell[lrState, bool]("r", func(s lrState) (bool, error) { return s.R, nil })
	if err := runtime.Attach(rt, lCell); err != nil {
		t.Fatalf("Attach(l) failed: %v", err)
	}
	if err := runtime.Attach(rt, rCell); err != nil {
		t.Fatalf("Attach(r) failed: %v", err)
	}

	f := formula.And(
		formula.Always(formula.Lift("l", func() bool { v, _ := lCell.Current(); return v })),
		formula.Always(formula.Lift("r", func() bool { v, _ := rCell.Current(); return v })),
	)

	trace := []TraceEntry[lrState]{
		{State: lrState{L: true, R: true}, TimestampMs: 0},
		{State: lrState{L: true, R: false}, TimestampMs: 1000},
	}
	res, err := Test(rt, f, trace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Failed {
		t.Fatalf("S5: got %v, want Failed", res.Kind)
	}
	if res.Violation.Kind != VAlways {
		t.Errorf("S5: violation kind = %v, want Always (short-circuited)", res.Violation.Kind)
	}
	if res.Violation.Time.Milliseconds() != 1000 {
		t.Errorf("S5: violation time = %v, want 1000", res.Violation.Time.Milliseconds())
	}
}

func TestScenarioS6NonMonotonicAdmission(t *testing.T) {
	rt := runtime.New[boolState]()
	f := formula.Pure(true)

	trace := []TraceEntry[boolState]{
		{State: boolState{B: true}, TimestampMs: 1000},
		{State: boolState{B: true}, TimestampMs: 500},
	}
	_, err := Test(rt, f, trace)
	if !errors.Is(err, ltlerr.ErrNonMonotonicTime) {
		t.Errorf("S6: err = %v, want ErrNonMonotonicTime", err)
	}
}

// --- error paths not covered by the scenarios above ---

func TestNegationOfModalRejected(t *testing.T) {
	_, err := Evaluate(formula.Not(formula.Next(formula.Pure(true))), timeline.At(0))
	if !errors.Is(err, ltlerr.ErrNegationOfModal) {
		t.Errorf("Not(Next(...)): err = %v, want ErrNegationOfModal", err)
	}
}

func TestUnboundedEventuallyRejected(t *testing.T) {
	_, err := Evaluate(formula.Eventually(formula.Pure(true)), timeline.At(0))
	if !errors.Is(err, ltlerr.ErrUnboundedEventually) {
		t.Errorf("bare Eventually: err = %v, want ErrUnboundedEventually", err)
	}
}

func TestEmptyTraceRejected(t *testing.T) {
	rt := runtime.New[boolState]()
	_, err := Test(rt, formula.Pure(true), nil)
	if !errors.Is(err, ltlerr.ErrEmptyTrace) {
		t.Errorf("empty trace: err = %v, want ErrEmptyTrace", err)
	}
}

func TestNextStepsToTheFollowingState(t *testing.T) {
	rt, cell := newBoolCellRuntime("p")
	f := formula.Next(formula.Lift("p", func() bool { v, _ := cell.Current(); return v }))

	trace := []TraceEntry[boolState]{
		{State: boolState{B: false}, TimestampMs: 0},
		{State: boolState{B: true}, TimestampMs: 1000},
	}
	res, err := Test(rt, f, trace)
	if err != nil {
		t.Fatalf("Test failed: %v", err)
	}
	if res.Kind != Passed {
		t.Fatalf("Next(p) with p true at the following state = %v, want Passed", res.Kind)
	}
}
