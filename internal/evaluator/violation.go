package evaluator

import (
	"ltlcore/internal/formula"
	"ltlcore/internal/timeline"
)

// ViolationKind tags the variant of a ViolationTree node.
type ViolationKind string

const (
	VFalse      ViolationKind = "false"
	VViolation  ViolationKind = "violation"
	VNext       ViolationKind = "next"
	VAlways     ViolationKind = "always"
	VEventually ViolationKind = "eventually"
	VAnd        ViolationKind = "and"
	VOr         ViolationKind = "or"
	VImplies    ViolationKind = "implies"
)

// ViolationTree explains why a formula evaluated to false. It mirrors
// the shape of the failed part of the formula and carries enough
// information (the responsible Formula, or a sub-ViolationTree, and the
// time of falsification) for a separate renderer (out of scope for this
// core) to produce a human-readable report without re-running
// evaluation.
type ViolationTree struct {
	Kind ViolationKind `json:"kind"`
	Time timeline.Time `json:"time"`

	// Formula is the atomic formula that was false (Violation), the
	// subformula that failed (Next, Eventually), or the antecedent that
	// held (Implies). Not JSON-serializable itself; FormulaPretty mirrors
	// it for report consumers.
	Formula       formula.Formula `json:"-"`
	FormulaPretty string          `json:"formula,omitempty"`

	Inner      *ViolationTree `json:"inner,omitempty"`
	Left       *ViolationTree `json:"left,omitempty"`
	Right      *ViolationTree `json:"right,omitempty"`
	Consequent *ViolationTree `json:"consequent,omitempty"`
}

func violationFalse(t timeline.Time) ViolationTree {
	return ViolationTree{Kind: VFalse, Time: t}
}

func violationAtom(t timeline.Time, f formula.Formula) ViolationTree {
	return ViolationTree{Kind: VViolation, Time: t, Formula: f, FormulaPretty: f.Pretty()}
}

func violationNext(t timeline.Time, sub formula.Formula) ViolationTree {
	return ViolationTree{Kind: VNext, Time: t, Formula: sub, FormulaPretty: sub.Pretty()}
}

func violationAlways(t timeline.Time, inner ViolationTree) ViolationTree {
	return ViolationTree{Kind: VAlways, Time: t, Inner: &inner}
}

func violationEventually(t timeline.Time, sub formula.Formula) ViolationTree {
	return ViolationTree{Kind: VEventually, Time: t, Formula: sub, FormulaPretty: sub.Pretty()}
}

func violationAnd(l, r ViolationTree) ViolationTree {
	return ViolationTree{Kind: VAnd, Left: &l, Right: &r}
}

func violationOr(l, r ViolationTree) ViolationTree {
	return ViolationTree{Kind: VOr, Left: &l, Right: &r}
}

func violationImplies(antecedent formula.Formula, consequent ViolationTree) ViolationTree {
	return ViolationTree{
		Kind:          VImplies,
		Formula:       antecedent,
		FormulaPretty: antecedent.Pretty(),
		Consequent:    &consequent,
	}
}
