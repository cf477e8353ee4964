package types

// VersionRange is an inclusive version window in recipe syntax
// ("1.2:" means 1.2 and above, ":2.0" means up to 2.0, "1.2" pins an
// exact version). Empty bounds are open.
type VersionRange struct {
	Lo string
	Hi string
}

// IsOpen reports whether the range places no restriction at all.
func (r VersionRange) IsOpen() bool {
	return r.Lo == "" && r.Hi == ""
}

// Atom is a leaf condition of a predicate. Exactly one interpretation
// applies, selected by Kind:
//
//	bool:     variant <Variant> must be <BoolValue>       (+cuda, ~cuda)
//	value:    variant <Variant> must equal/contain Value  (cuda_arch=70)
//	version:  the node version must lie in Range          (@1.2:)
//	compiler: the compiler fact must match                (%gcc@:10)
//
// For value atoms on set variants the special value "none" requires an
// empty set; any other value requires set membership.
type Atom struct {
	Kind      AtomKind
	Variant   string
	BoolValue bool
	Value     string
	Range     VersionRange
	Compiler  string
}

// Predicate is a structured boolean expression tree over atoms. A nil
// *Predicate is the always-true predicate. Raw preserves the source
// text for diagnostics.
type Predicate struct {
	Op       PredicateOp
	Atom     *Atom
	Children []*Predicate
	Raw      string
}

func AtomPredicate(atom *Atom, raw string) *Predicate {
	return &Predicate{Op: PredicateOpAtom, Atom: atom, Raw: raw}
}

func And(children []*Predicate, raw string) *Predicate {
	return &Predicate{Op: PredicateOpAnd, Children: children, Raw: raw}
}

func Or(children []*Predicate, raw string) *Predicate {
	return &Predicate{Op: PredicateOpOr, Children: children, Raw: raw}
}

func Not(child *Predicate, raw string) *Predicate {
	return &Predicate{Op: PredicateOpNot, Children: []*Predicate{child}, Raw: raw}
}

// Text returns the predicate's source form, or "true" for the nil
// (always-true) predicate.
func (p *Predicate) Text() string {
	if p == nil {
		return "true"
	}
	return p.Raw
}

// Facts are the platform-level inputs a resolution is evaluated
// against. They are fixed for the lifetime of one resolve call.
type Facts struct {
	Compiler        string
	CompilerVersion string
}
