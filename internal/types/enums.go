package types

type VariantKind string

const (
	VariantKindBool VariantKind = "bool"
	VariantKindEnum VariantKind = "enum"
	VariantKindSet  VariantKind = "set"
)

type PredicateOp string

const (
	PredicateOpAtom PredicateOp = "atom"
	PredicateOpAnd  PredicateOp = "and"
	PredicateOpOr   PredicateOp = "or"
	PredicateOpNot  PredicateOp = "not"
)

type AtomKind string

const (
	AtomKindBool     AtomKind = "bool"
	AtomKindValue    AtomKind = "value"
	AtomKindVersion  AtomKind = "version"
	AtomKindCompiler AtomKind = "compiler"
)

type RuleKind string

const (
	RuleKindDependency RuleKind = "dependency"
	RuleKindConflict   RuleKind = "conflict"
	RuleKindOverride   RuleKind = "override"
)

// Tri is a three-valued truth value used when predicates are evaluated
// against partial variant assignments.
type Tri int

const (
	TriFalse Tri = iota
	TriUnknown
	TriTrue
)

// TriAnd combines two truth values with false-dominant semantics: a
// single false argument makes the result false even if the other is
// still unknown.
func TriAnd(a Tri, b Tri) Tri {
	if a == TriFalse || b == TriFalse {
		return TriFalse
	}
	if a == TriTrue && b == TriTrue {
		return TriTrue
	}
	return TriUnknown
}

// TriOr combines two truth values with true-dominant semantics.
func TriOr(a Tri, b Tri) Tri {
	if a == TriTrue || b == TriTrue {
		return TriTrue
	}
	if a == TriFalse && b == TriFalse {
		return TriFalse
	}
	return TriUnknown
}

// TriNot inverts a truth value; unknown stays unknown.
func TriNot(a Tri) Tri {
	switch a {
	case TriTrue:
		return TriFalse
	case TriFalse:
		return TriTrue
	default:
		return TriUnknown
	}
}
