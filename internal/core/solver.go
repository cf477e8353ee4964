package core

import (
	"context"

	"github.com/rs/zerolog/log"

	"concretizer/internal/types"
)

// Solver assigns a concrete value to every applicable variant of every
// node in a SpecGraph via deterministic backtracking search with
// propagation. Determinism matters: identical inputs must concretize
// to identical graphs for reproducible builds, so variables are picked
// in node-creation then declaration order and values default-first.
type Solver struct {
	// MaxSteps caps the number of search decisions; zero means no cap.
	// Exceeding the cap fails the resolution with a timeout error.
	MaxSteps int
}

func NewSolver() Solver {
	return Solver{}
}

// Solve runs the search and freezes the result. On failure the
// returned error wraps an UnsatisfiableError carrying the minimal
// conflicting rule set seen; no partial graph survives.
func (s Solver) Solve(ctx context.Context, g *SpecGraph) (*ConcretizedGraph, error) {
	state := &searchState{g: g, maxSteps: s.MaxSteps}

	if refs, ok := state.propagate(); !ok {
		return nil, unsatisfiableErr("forced assignment triggers a conflict", refs)
	}
	done, err := state.search(ctx)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, unsatisfiableErr("no assignment satisfies all rules", state.best)
	}

	graph, err := freeze(g)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().
		Int("nodes", len(graph.Nodes())).
		Int("steps", state.steps).
		Msg("resolution complete")
	return graph, nil
}

type searchState struct {
	g        *SpecGraph
	steps    int
	maxSteps int
	// best is the smallest conflicting rule set observed across dead
	// ends; it becomes the diagnostic when the whole space is
	// exhausted.
	best []types.RuleRef
}

// search picks the next unbound applicable variant and tries its
// values default first. Returns (true, nil) on success, (false, nil)
// when the subtree is exhausted, and a non-nil error only for terminal
// failures (budget, cancellation).
func (st *searchState) search(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, timeoutErr(err)
	}
	if st.maxSteps > 0 && st.steps >= st.maxSteps {
		return false, timeoutErr(nil)
	}

	_, open := st.nextUnbound()
	if open == nil {
		return true, nil
	}
	st.steps++

	for _, candidate := range st.candidates(open) {
		snap := st.g.snapshot()
		open.bound = true
		open.decision = true
		open.value = candidate

		refs, ok := st.propagate()
		if ok {
			done, err := st.search(ctx)
			if err != nil {
				return false, err
			}
			if done {
				return true, nil
			}
		} else {
			st.noteConflict(refs)
		}
		st.g.restore(snap)
	}
	return false, nil
}

// nextUnbound returns the first unbound variant in deterministic
// order, skipping variants whose applicability predicate is
// definitively false and nodes outside the active closure. An
// applicability still unknown is treated as applicable; freeze
// re-checks it once everything is bound.
func (st *searchState) nextUnbound() (*buildNode, *openVariant) {
	active := st.g.activeSet()
	for _, node := range st.g.nodes {
		if !active[node.def.Name] {
			continue
		}
		for _, open := range node.vars {
			if open.bound {
				continue
			}
			if st.g.evalOn(node, open.def.When) == types.TriFalse {
				continue
			}
			return node, open
		}
	}
	return nil, nil
}

// candidates orders trial values: the default first, then the rest of
// the domain in declaration order. Set variants are never enumerated
// over their powerset; the single candidate is the union of required
// elements, or the default when nothing requires any.
func (st *searchState) candidates(open *openVariant) []types.Value {
	switch open.def.Kind {
	case types.VariantKindBool:
		return []types.Value{open.def.Default, types.BoolValue(!open.def.Default.Bool)}
	case types.VariantKindEnum:
		out := []types.Value{open.def.Default}
		for _, value := range open.def.Domain {
			if value == open.def.Default.Enum {
				continue
			}
			out = append(out, types.EnumValue(value))
		}
		return out
	case types.VariantKindSet:
		if len(open.required) > 0 {
			elements := make([]string, 0, len(open.required))
			for element := range open.required {
				elements = append(elements, element)
			}
			return []types.Value{types.SetValue(elements)}
		}
		return []types.Value{open.def.Default}
	default:
		return nil
	}
}

// propagate runs rule forcing to a fixpoint. A dependency rule whose
// activation predicate became definitively true forces its requirement
// onto the target node; a conflict predicate becoming definitively
// true fails the branch with the rules that forced it. Nodes outside
// the active closure are exempt: an unsatisfiable package behind a
// deactivated edge never ends up in the frozen graph and must not fail
// the resolution.
func (st *searchState) propagate() ([]types.RuleRef, bool) {
	for changed := true; changed; {
		changed = false
		active := st.g.activeSet()
		for _, node := range st.g.nodes {
			if !active[node.def.Name] {
				continue
			}
			for _, rule := range node.def.Dependencies {
				if st.g.evalOn(node, rule.When) != types.TriTrue {
					continue
				}
				stepChanged, refs := st.forceRequirement(node, rule)
				if refs != nil {
					return dedupeRefs(refs), false
				}
				changed = changed || stepChanged
			}
			for _, rule := range node.def.Conflicts {
				verdict := types.TriAnd(
					st.g.evalOn(node, rule.Predicate),
					st.g.evalOn(node, rule.When),
				)
				if verdict == types.TriTrue {
					return dedupeRefs(st.conflictWitness(node, rule)), false
				}
			}
		}
	}
	return nil, true
}

// forceRequirement pushes an active rule's requirement onto its target
// node's variants.
func (st *searchState) forceRequirement(owner *buildNode, rule types.DependencyRule) (bool, []types.RuleRef) {
	target := st.g.index[rule.Target]
	if target == nil {
		return false, nil
	}
	ref := dependencyRef(owner, rule)
	changed := false
	for _, atom := range rule.Require.Atoms {
		open := target.variant(atom.Variant)
		if open == nil {
			return false, []types.RuleRef{ref}
		}
		switch {
		case atom.Kind == types.AtomKindBool:
			wasBound := open.bound
			if conflict := st.g.forceValue(open, types.BoolValue(atom.BoolValue), ref); conflict != nil {
				return false, conflict
			}
			changed = changed || !wasBound
		case open.def.Kind == types.VariantKindEnum:
			wasBound := open.bound
			if conflict := st.g.forceValue(open, types.EnumValue(atom.Value), ref); conflict != nil {
				return false, conflict
			}
			changed = changed || !wasBound
		case open.def.Kind == types.VariantKindSet:
			if atom.Value == "none" {
				wasBound := open.bound
				if conflict := st.g.forceValue(open, types.SetValue(nil), ref); conflict != nil {
					return false, conflict
				}
				changed = changed || !wasBound
				continue
			}
			stepChanged, conflict := st.g.requireElement(open, atom.Value, ref)
			if conflict != nil {
				return false, conflict
			}
			changed = changed || stepChanged
		default:
			return false, []types.RuleRef{ref}
		}
	}
	return changed, nil
}

// conflictWitness assembles the rule set that makes a conflict fire:
// the conflict itself plus whatever forced the variants its atoms
// mention.
func (st *searchState) conflictWitness(node *buildNode, rule types.ConflictRule) []types.RuleRef {
	refs := []types.RuleRef{conflictRef(node, rule)}
	for _, name := range predicateVariants(rule.Predicate, rule.When) {
		if open := node.variant(name); open != nil {
			refs = append(refs, open.forcedBy...)
		}
	}
	return refs
}

func (st *searchState) noteConflict(refs []types.RuleRef) {
	if len(refs) == 0 {
		return
	}
	if st.best == nil || len(refs) < len(st.best) {
		st.best = refs
	}
}

// predicateVariants lists the variant names mentioned by the given
// predicates, in first-mention order.
func predicateVariants(predicates ...*types.Predicate) []string {
	var names []string
	seen := map[string]struct{}{}
	var walk func(p *types.Predicate)
	walk = func(p *types.Predicate) {
		if p == nil {
			return
		}
		if p.Op == types.PredicateOpAtom {
			atom := p.Atom
			if atom != nil && atom.Variant != "" {
				if _, ok := seen[atom.Variant]; !ok {
					seen[atom.Variant] = struct{}{}
					names = append(names, atom.Variant)
				}
			}
			return
		}
		for _, child := range p.Children {
			walk(child)
		}
	}
	for _, p := range predicates {
		walk(p)
	}
	return names
}
