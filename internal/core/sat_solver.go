package core

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/crillab/gophersat/solver"
	"github.com/rs/zerolog/log"

	"concretizer/internal/types"
)

// satVarKey maps a SAT variable ID back to the assignment it encodes.
type satVarKey struct {
	Node    string
	Variant string
	Value   string
}

// satSolverState holds all bookkeeping for one SAT encoding. Isolating
// this avoids passing the variable indexes through every helper call.
type satSolverState struct {
	g           *SpecGraph
	varID       int
	boolVar     map[satVarKey]int
	valueVar    map[satVarKey]int
	varKey      map[int]satVarKey
	costLits    []solver.Lit
	costWeights []int
}

// SATSolver encodes the variant constraint problem into propositional
// clauses and delegates to gophersat's optimizing solver. It only
// accepts conjunctive predicates; recipes using or/not fall back to the
// backtracking Solver. The cost function charges one unit per
// assignment that deviates from its declared default, so Minimize
// reproduces the default-first preference of the search.
type SATSolver struct{}

func NewSATSolver() SATSolver {
	return SATSolver{}
}

func (s SATSolver) Solve(ctx context.Context, g *SpecGraph) (*ConcretizedGraph, error) {
	if err := checkConjunctive(g); err != nil {
		return nil, err
	}

	state := buildSatState(g)
	clauses, unsat, err := buildSatClauses(state)
	if err != nil {
		return nil, err
	}
	if unsat {
		// A constant-true conflict needs no solver, but the
		// backtracker produces the rule-level diagnostic.
		return NewSolver().Solve(ctx, g)
	}

	problem := solver.ParseSliceNb(clauses, state.varID)
	problem.SetCostFunc(state.costLits, state.costWeights)
	sat := solver.New(problem)
	if ctx.Err() != nil {
		return nil, timeoutErr(ctx.Err())
	}
	if cost := sat.Minimize(); cost < 0 {
		return NewSolver().Solve(ctx, g)
	}

	if err := bindModel(state, sat.Model()); err != nil {
		return nil, err
	}
	graph, err := freeze(g)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().
		Int("variables", state.varID).
		Int("clauses", len(clauses)).
		Msg("sat resolution complete")
	return graph, nil
}

// checkConjunctive rejects recipes whose predicates use or/not, which
// this encoder does not translate.
func checkConjunctive(g *SpecGraph) error {
	var walk func(p *types.Predicate) bool
	walk = func(p *types.Predicate) bool {
		if p == nil {
			return true
		}
		switch p.Op {
		case types.PredicateOpAtom:
			return true
		case types.PredicateOpAnd:
			for _, child := range p.Children {
				if !walk(child) {
					return false
				}
			}
			return true
		default:
			return false
		}
	}
	for _, node := range g.nodes {
		for _, variant := range node.def.Variants {
			if !walk(variant.When) {
				return conjunctiveErr(node.def.Name, variant.Name)
			}
		}
		for _, rule := range node.def.Dependencies {
			if !walk(rule.When) {
				return conjunctiveErr(node.def.Name, rule.ID)
			}
		}
		for _, rule := range node.def.Conflicts {
			if !walk(rule.Predicate) || !walk(rule.When) {
				return conjunctiveErr(node.def.Name, rule.ID)
			}
		}
	}
	return nil
}

func conjunctiveErr(pkg, where string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("sat mode supports conjunctive predicates only (%s: %s)", pkg, where))
}

// buildSatState enumerates one variable per boolean variant, one per
// (enum variant, value) and one per (set variant, element), skipping
// variants whose applicability is already decided false by the chosen
// versions. Cost literals penalize every deviation from the default.
func buildSatState(g *SpecGraph) *satSolverState {
	s := &satSolverState{
		g:        g,
		boolVar:  map[satVarKey]int{},
		valueVar: map[satVarKey]int{},
		varKey:   map[int]satVarKey{},
	}
	for _, node := range g.nodes {
		for _, open := range node.vars {
			if g.evalOn(node, open.def.When) == types.TriFalse {
				continue
			}
			switch open.def.Kind {
			case types.VariantKindBool:
				id := s.newVar(satVarKey{Node: node.def.Name, Variant: open.def.Name})
				s.boolVar[s.varKey[id]] = id
				s.addCost(id, !open.def.Default.Bool)
			case types.VariantKindEnum:
				for _, value := range open.def.Domain {
					key := satVarKey{Node: node.def.Name, Variant: open.def.Name, Value: value}
					id := s.newVar(key)
					s.valueVar[key] = id
					s.addCost(id, value == open.def.Default.Enum)
				}
			case types.VariantKindSet:
				for _, element := range open.def.Domain {
					key := satVarKey{Node: node.def.Name, Variant: open.def.Name, Value: element}
					id := s.newVar(key)
					s.valueVar[key] = id
					s.addCost(id, open.def.Default.Contains(element))
				}
			}
		}
	}
	return s
}

func (s *satSolverState) newVar(key satVarKey) int {
	s.varID++
	s.varKey[s.varID] = key
	return s.varID
}

// addCost charges one unit when the variable ends up on the non-default
// side: the positive literal when the default is off, the negative one
// when the default is on.
func (s *satSolverState) addCost(id int, defaultOn bool) {
	lit := int32(id) //nolint:gosec // id is bounded by the variant count, well within int32 range
	if defaultOn {
		lit = -lit
	}
	s.costLits = append(s.costLits, solver.IntToLit(lit))
	s.costWeights = append(s.costWeights, 1)
}

// buildSatClauses generates four kinds of clauses:
//  1. Exactly-one per enum variant.
//  2. Override units for the root's requested values.
//  3. Implications: an active dependency rule forces its requirement.
//  4. Conflict clauses: at least one conjunct of each conflict is false.
//
// The boolean result reports a conflict already decided true by the
// version phase alone, which no clause set can express.
func buildSatClauses(s *satSolverState) ([][]int, bool, error) {
	var clauses [][]int

	for _, node := range s.g.nodes {
		for _, open := range node.vars {
			if s.g.evalOn(node, open.def.When) == types.TriFalse {
				continue
			}
			if open.def.Kind == types.VariantKindEnum {
				ids := make([]int, 0, len(open.def.Domain))
				for _, value := range open.def.Domain {
					ids = append(ids, s.valueVar[satVarKey{Node: node.def.Name, Variant: open.def.Name, Value: value}])
				}
				clauses = append(clauses, ids)
				for i := 0; i < len(ids); i++ {
					for j := i + 1; j < len(ids); j++ {
						clauses = append(clauses, []int{-ids[i], -ids[j]})
					}
				}
			}
			// Bindings applied before the search (overrides) become units.
			if open.bound {
				clauses = append(clauses, s.unitClauses(node, open)...)
			}
		}

		for _, rule := range node.def.Dependencies {
			guard, active, err := s.guardLits(node, rule.When)
			if err != nil {
				return nil, false, err
			}
			if !active {
				continue
			}
			target := s.g.index[rule.Target]
			if target == nil {
				continue
			}
			ruleClauses, err := s.requirementClauses(guard, target, rule)
			if err != nil {
				return nil, false, err
			}
			clauses = append(clauses, ruleClauses...)
		}

		for _, rule := range node.def.Conflicts {
			lits, active, err := s.conflictLits(node, rule)
			if err != nil {
				return nil, false, err
			}
			if !active {
				continue
			}
			if len(lits) == 0 {
				return nil, true, nil
			}
			clause := make([]int, 0, len(lits))
			for _, lit := range lits {
				clause = append(clause, -lit)
			}
			clauses = append(clauses, clause)
		}
	}
	return clauses, false, nil
}

// guardLits flattens a conjunctive activation predicate into the
// literals that must all hold. Atoms already decided by the version
// phase or by compiler facts collapse to constants: a false conjunct
// deactivates the rule, a true one drops out.
func (s *satSolverState) guardLits(node *buildNode, p *types.Predicate) ([]int, bool, error) {
	var lits []int
	var walk func(p *types.Predicate) (bool, error)
	walk = func(p *types.Predicate) (bool, error) {
		if p == nil {
			return true, nil
		}
		if p.Op == types.PredicateOpAnd {
			for _, child := range p.Children {
				active, err := walk(child)
				if err != nil || !active {
					return active, err
				}
			}
			return true, nil
		}
		atom := p.Atom
		switch atom.Kind {
		case types.AtomKindVersion, types.AtomKindCompiler:
			// Unknown compiler facts leave the rule inactive, matching
			// how the search freezes only definitively true edges.
			return s.g.evalAtom(node, atom) == types.TriTrue, nil
		}
		lit, constant, err := s.atomLit(node, atom)
		if err != nil {
			return false, err
		}
		if constant != types.TriUnknown {
			return constant == types.TriTrue, nil
		}
		lits = append(lits, lit)
		return true, nil
	}
	active, err := walk(p)
	return lits, active, err
}

// atomLit translates a variant atom to a literal, or to a constant when
// the variant does not exist or the value is out of domain.
func (s *satSolverState) atomLit(node *buildNode, atom *types.Atom) (int, types.Tri, error) {
	open := node.variant(atom.Variant)
	if open == nil {
		return 0, types.TriFalse, nil
	}
	key := satVarKey{Node: node.def.Name, Variant: open.def.Name, Value: atom.Value}
	switch {
	case atom.Kind == types.AtomKindBool:
		id, ok := s.boolVar[satVarKey{Node: node.def.Name, Variant: open.def.Name}]
		if !ok {
			return 0, types.TriFalse, nil
		}
		if atom.BoolValue {
			return id, types.TriUnknown, nil
		}
		return -id, types.TriUnknown, nil
	case open.def.Kind == types.VariantKindEnum:
		id, ok := s.valueVar[key]
		if !ok {
			return 0, types.TriFalse, nil
		}
		return id, types.TriUnknown, nil
	case open.def.Kind == types.VariantKindSet:
		if atom.Value == "none" {
			return 0, types.TriFalse, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("sat mode cannot guard on empty set variant %s", atom.Variant))
		}
		id, ok := s.valueVar[key]
		if !ok {
			return 0, types.TriFalse, nil
		}
		return id, types.TriUnknown, nil
	default:
		return 0, types.TriFalse, nil
	}
}

// requirementClauses emits (¬g1 ∨ … ∨ ¬gk ∨ r) for each requirement
// atom r of an active rule guarded by g1…gk.
func (s *satSolverState) requirementClauses(guard []int, target *buildNode, rule types.DependencyRule) ([][]int, error) {
	negated := make([]int, 0, len(guard))
	for _, lit := range guard {
		negated = append(negated, -lit)
	}
	var clauses [][]int
	emit := func(lit int) {
		clauses = append(clauses, append(append([]int{}, negated...), lit))
	}
	for _, atom := range rule.Require.Atoms {
		open := target.variant(atom.Variant)
		if open == nil {
			continue
		}
		if open.def.Kind == types.VariantKindSet && atom.Value == "none" {
			for _, element := range open.def.Domain {
				if id, ok := s.valueVar[satVarKey{Node: target.def.Name, Variant: open.def.Name, Value: element}]; ok {
					emit(-id)
				}
			}
			continue
		}
		lit, constant, err := s.atomLit(target, atom)
		if err != nil {
			return nil, err
		}
		if constant == types.TriFalse {
			// The requirement can never hold, so the guard must not.
			if len(negated) > 0 {
				clauses = append(clauses, append([]int{}, negated...))
			}
			continue
		}
		emit(lit)
	}
	return clauses, nil
}

// conflictLits flattens predicate and when of a conflict into one
// conjunction. active=false means a constant conjunct already falsifies
// it; an empty active result means the conflict holds regardless of any
// variant assignment.
func (s *satSolverState) conflictLits(node *buildNode, rule types.ConflictRule) ([]int, bool, error) {
	lits, active, err := s.guardLits(node, rule.Predicate)
	if err != nil || !active {
		return nil, false, err
	}
	whenLits, active, err := s.guardLits(node, rule.When)
	if err != nil || !active {
		return nil, false, err
	}
	return append(lits, whenLits...), true, nil
}

// unitClauses pins a pre-bound variant (override) to its value.
func (s *satSolverState) unitClauses(node *buildNode, open *openVariant) [][]int {
	var clauses [][]int
	switch open.def.Kind {
	case types.VariantKindBool:
		id := s.boolVar[satVarKey{Node: node.def.Name, Variant: open.def.Name}]
		if open.value.Bool {
			clauses = append(clauses, []int{id})
		} else {
			clauses = append(clauses, []int{-id})
		}
	case types.VariantKindEnum:
		for _, value := range open.def.Domain {
			id := s.valueVar[satVarKey{Node: node.def.Name, Variant: open.def.Name, Value: value}]
			if value == open.value.Enum {
				clauses = append(clauses, []int{id})
			} else {
				clauses = append(clauses, []int{-id})
			}
		}
	case types.VariantKindSet:
		for _, element := range open.def.Domain {
			id := s.valueVar[satVarKey{Node: node.def.Name, Variant: open.def.Name, Value: element}]
			if open.value.Contains(element) {
				clauses = append(clauses, []int{id})
			} else {
				clauses = append(clauses, []int{-id})
			}
		}
	}
	return clauses
}

// bindModel writes the SAT model back onto the open variants so the
// shared freeze path can finish the job.
func bindModel(s *satSolverState, model []bool) error {
	on := func(id int) bool {
		return id-1 >= 0 && id-1 < len(model) && model[id-1]
	}
	for _, node := range s.g.nodes {
		for _, open := range node.vars {
			if s.g.evalOn(node, open.def.When) == types.TriFalse {
				continue
			}
			switch open.def.Kind {
			case types.VariantKindBool:
				id, ok := s.boolVar[satVarKey{Node: node.def.Name, Variant: open.def.Name}]
				if !ok {
					continue
				}
				open.bound = true
				open.value = types.BoolValue(on(id))
			case types.VariantKindEnum:
				chosen := ""
				for _, value := range open.def.Domain {
					if on(s.valueVar[satVarKey{Node: node.def.Name, Variant: open.def.Name, Value: value}]) {
						chosen = value
						break
					}
				}
				if chosen == "" {
					return internalErr(fmt.Sprintf(
						"sat model left enum variant %s of %s unassigned", open.def.Name, node.def.Name,
					))
				}
				open.bound = true
				open.value = types.EnumValue(chosen)
			case types.VariantKindSet:
				var elements []string
				for _, element := range open.def.Domain {
					if on(s.valueVar[satVarKey{Node: node.def.Name, Variant: open.def.Name, Value: element}]) {
						elements = append(elements, element)
					}
				}
				open.bound = true
				open.value = types.SetValue(elements)
			}
		}
	}
	return nil
}
