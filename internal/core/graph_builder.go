package core

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"concretizer/internal/policies"
	"concretizer/internal/shared"
	"concretizer/internal/types"
)

// openVariant is one (node, variant) variable of the constraint
// problem. It starts unbound, may accumulate required set elements
// from dependency rules, and is bound either by propagation (forced)
// or by a search decision.
type openVariant struct {
	def      types.Variant
	bound    bool
	decision bool
	value    types.Value
	required map[string]struct{}
	forcedBy []types.RuleRef
}

// parentRule records a dependency rule that targets a node, kept for
// version-range collection and diagnostics.
type parentRule struct {
	parent *buildNode
	rule   types.DependencyRule
}

// buildNode is one package instantiation while the graph is still
// being solved. Nodes are created in a deterministic order (depth
// first from the root) which also fixes the variable ordering of the
// search.
type buildNode struct {
	def     types.PackageDefinition
	order   int
	version string
	vars    []*openVariant
	varIdx  map[string]*openVariant
	parents []parentRule
}

func (n *buildNode) variant(name string) *openVariant {
	return n.varIdx[name]
}

// SpecGraph is the mutable working state of one resolution: the
// expanded dependency closure with variant domains still open. All
// search state lives here; nothing is global, so independent
// resolutions can run concurrently.
type SpecGraph struct {
	root  *buildNode
	nodes []*buildNode
	index map[string]*buildNode
	facts types.Facts
	cache *versionCache
}

// GraphBuilder expands a root package and its requested overrides into
// a SpecGraph ready for the resolver.
type GraphBuilder struct{}

func NewGraphBuilder() GraphBuilder {
	return GraphBuilder{}
}

// Build expands the dependency closure, detects cycles, runs the
// version phase, and applies overrides to the root node. Variant
// solving has not happened yet when Build returns.
func (b GraphBuilder) Build(
	ctx context.Context,
	defs map[string]types.PackageDefinition,
	root string,
	overrides []*types.Atom,
	facts types.Facts,
) (*SpecGraph, error) {
	rootName := shared.NormalizePackageName(root)
	rootDef, ok := defs[rootName]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("unknown package: %s", root))
	}
	if err := policies.ValidateOverrides(rootDef, overrides); err != nil {
		return nil, err
	}

	g := &SpecGraph{
		index: map[string]*buildNode{},
		facts: facts,
		cache: newVersionCache(),
	}
	g.root = g.instantiate(rootDef)

	if err := g.applyOverrides(overrides); err != nil {
		return nil, err
	}
	if err := g.expand(g.root, defs, map[string]bool{}, []string{rootName}); err != nil {
		return nil, err
	}
	if err := g.selectVersions(overrides); err != nil {
		return nil, err
	}
	if err := g.checkOverrideApplicability(overrides); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Debug().
		Str("root", rootName).
		Int("nodes", len(g.nodes)).
		Msg("spec graph expanded")
	return g, nil
}

func (g *SpecGraph) instantiate(def types.PackageDefinition) *buildNode {
	node := &buildNode{
		def:    def,
		order:  len(g.nodes),
		varIdx: map[string]*openVariant{},
	}
	for _, variant := range def.Variants {
		open := &openVariant{def: variant, required: map[string]struct{}{}}
		node.vars = append(node.vars, open)
		node.varIdx[variant.Name] = open
	}
	g.nodes = append(g.nodes, node)
	g.index[def.Name] = node
	return node
}

// expand walks dependency rules depth first. A rule whose activation
// predicate is not definitively false instantiates (or reuses) its
// target: the closure is an optimistic superset, trimmed at freeze
// time once predicates are decided.
func (g *SpecGraph) expand(node *buildNode, defs map[string]types.PackageDefinition, onPath map[string]bool, path []string) error {
	onPath[node.def.Name] = true
	defer delete(onPath, node.def.Name)

	for _, rule := range node.def.Dependencies {
		if g.evalOn(node, rule.When) == types.TriFalse {
			continue
		}
		if onPath[rule.Target] {
			return cyclicErr(append(path, rule.Target))
		}
		child, existed := g.index[rule.Target]
		if !existed {
			targetDef, ok := defs[rule.Target]
			if !ok {
				return errbuilder.New().
					WithCode(errbuilder.CodeNotFound).
					WithMsg(fmt.Sprintf("rule %s targets unknown package %s", rule.ID, rule.Target))
			}
			child = g.instantiate(targetDef)
		}
		child.parents = append(child.parents, parentRule{parent: node, rule: rule})
		if !existed {
			if err := g.expand(child, defs, onPath, append(path, rule.Target)); err != nil {
				return err
			}
		}
	}
	return nil
}

// selectVersions runs the version phase: every range imposed by a rule
// that may still activate is collected per node and the highest
// satisfying declared version wins. Version and variant solving are
// sequential on purpose; variant applicability depends on version, the
// reverse almost never holds in this domain.
func (g *SpecGraph) selectVersions(overrides []*types.Atom) error {
	for _, node := range g.nodes {
		var ranges []types.VersionRange
		var contributors []types.RuleRef
		if node == g.root {
			for _, atom := range overrides {
				if atom.Kind == types.AtomKindVersion {
					ranges = append(ranges, atom.Range)
				}
			}
		}
		for _, incoming := range node.parents {
			if incoming.rule.Require.Range.IsOpen() {
				continue
			}
			ranges = append(ranges, incoming.rule.Require.Range)
			contributors = append(contributors, dependencyRef(incoming.parent, incoming.rule))
		}
		version, ok := g.cache.highestSatisfying(node.def.Versions, ranges)
		if !ok {
			return unsatisfiableErr(
				fmt.Sprintf("no declared version of %s satisfies all version windows", node.def.Name),
				contributors,
			)
		}
		node.version = version
	}
	return nil
}

// applyOverrides force-binds the root node's variants to the requested
// values before any search. Contradictory requests fail immediately.
func (g *SpecGraph) applyOverrides(overrides []*types.Atom) error {
	setElements := map[string][]string{}
	for _, atom := range overrides {
		if atom.Kind == types.AtomKindVersion {
			continue
		}
		open := g.root.variant(atom.Variant)
		ref := policies.OverrideRef(g.root.def.Name, atom)
		switch {
		case atom.Kind == types.AtomKindBool:
			if conflict := g.forceValue(open, types.BoolValue(atom.BoolValue), ref); conflict != nil {
				return unsatisfiableErr("contradictory overrides for "+atom.Variant, conflict)
			}
		case open.def.Kind == types.VariantKindEnum:
			if conflict := g.forceValue(open, types.EnumValue(atom.Value), ref); conflict != nil {
				return unsatisfiableErr("contradictory overrides for "+atom.Variant, conflict)
			}
		case open.def.Kind == types.VariantKindSet:
			if atom.Value == "none" {
				if conflict := g.forceValue(open, types.SetValue(nil), ref); conflict != nil {
					return unsatisfiableErr("contradictory overrides for "+atom.Variant, conflict)
				}
				continue
			}
			setElements[atom.Variant] = append(setElements[atom.Variant], atom.Value)
			open.forcedBy = append(open.forcedBy, ref)
		}
	}
	for name, elements := range setElements {
		open := g.root.variant(name)
		if conflict := g.forceValue(open, types.SetValue(elements), types.RuleRef{}); conflict != nil {
			return unsatisfiableErr("contradictory overrides for "+name, conflict)
		}
	}
	return nil
}

// checkOverrideApplicability rejects overrides that name a variant the
// chosen root version does not carry.
func (g *SpecGraph) checkOverrideApplicability(overrides []*types.Atom) error {
	for _, atom := range overrides {
		if atom.Kind == types.AtomKindVersion || atom.Kind == types.AtomKindCompiler {
			continue
		}
		open := g.root.variant(atom.Variant)
		if open != nil && g.evalOn(g.root, open.def.When) == types.TriFalse {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf(
					"variant %s is not applicable to %s@%s",
					atom.Variant, g.root.def.Name, g.root.version,
				))
		}
	}
	return nil
}

// forceValue binds a variant to a value derived from a rule or
// override. A binding that contradicts an existing one returns the
// full set of rules that forced both sides.
func (g *SpecGraph) forceValue(v *openVariant, value types.Value, ref types.RuleRef) []types.RuleRef {
	if v.bound {
		if v.value.Equal(v.def.Kind, value) {
			return nil
		}
		conflict := append([]types.RuleRef(nil), v.forcedBy...)
		if ref.ID != "" {
			conflict = append(conflict, ref)
		}
		return conflict
	}
	v.bound = true
	v.value = value
	if ref.ID != "" {
		v.forcedBy = append(v.forcedBy, ref)
	}
	return nil
}

// requireElement records that a set variant must contain an element.
// On an already bound set the element must be present.
func (g *SpecGraph) requireElement(v *openVariant, element string, ref types.RuleRef) (bool, []types.RuleRef) {
	if v.bound {
		if v.value.Contains(element) {
			return false, nil
		}
		conflict := append([]types.RuleRef(nil), v.forcedBy...)
		return false, append(conflict, ref)
	}
	if _, ok := v.required[element]; ok {
		return false, nil
	}
	v.required[element] = struct{}{}
	v.forcedBy = append(v.forcedBy, ref)
	return true, nil
}

// activeSet lists the packages reachable from the root through rules
// whose activation is not definitively false under the current
// assignment. Packages outside the set can no longer appear in the
// frozen graph, so their variants are not searched and their rules and
// conflicts do not constrain the solution.
func (g *SpecGraph) activeSet() map[string]bool {
	active := map[string]bool{g.root.def.Name: true}
	queue := []*buildNode{g.root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, rule := range node.def.Dependencies {
			if g.evalOn(node, rule.When) == types.TriFalse {
				continue
			}
			child := g.index[rule.Target]
			if child == nil || active[child.def.Name] {
				continue
			}
			active[child.def.Name] = true
			queue = append(queue, child)
		}
	}
	return active
}

// evalOn evaluates a predicate against one node's (possibly partial)
// assignment using three-valued logic.
func (g *SpecGraph) evalOn(n *buildNode, p *types.Predicate) types.Tri {
	if p == nil {
		return types.TriTrue
	}
	switch p.Op {
	case types.PredicateOpAtom:
		return g.evalAtom(n, p.Atom)
	case types.PredicateOpAnd:
		acc := types.TriTrue
		for _, child := range p.Children {
			acc = types.TriAnd(acc, g.evalOn(n, child))
			if acc == types.TriFalse {
				return types.TriFalse
			}
		}
		return acc
	case types.PredicateOpOr:
		acc := types.TriFalse
		for _, child := range p.Children {
			acc = types.TriOr(acc, g.evalOn(n, child))
			if acc == types.TriTrue {
				return types.TriTrue
			}
		}
		return acc
	case types.PredicateOpNot:
		if len(p.Children) != 1 {
			return types.TriFalse
		}
		return types.TriNot(g.evalOn(n, p.Children[0]))
	default:
		return types.TriFalse
	}
}

func (g *SpecGraph) evalAtom(n *buildNode, a *types.Atom) types.Tri {
	switch a.Kind {
	case types.AtomKindVersion:
		if n.version == "" {
			return types.TriUnknown
		}
		return triOf(g.cache.inRange(n.version, a.Range))
	case types.AtomKindCompiler:
		return g.evalCompilerAtom(a)
	case types.AtomKindBool:
		v := n.variant(a.Variant)
		if v == nil || v.def.Kind != types.VariantKindBool {
			return types.TriFalse
		}
		if !v.bound {
			return types.TriUnknown
		}
		return triOf(v.value.Bool == a.BoolValue)
	case types.AtomKindValue:
		return g.evalValueAtom(n, a)
	default:
		return types.TriFalse
	}
}

func (g *SpecGraph) evalCompilerAtom(a *types.Atom) types.Tri {
	if g.facts.Compiler == "" {
		return types.TriUnknown
	}
	if g.facts.Compiler != a.Compiler {
		return types.TriFalse
	}
	if a.Range.IsOpen() {
		return types.TriTrue
	}
	if g.facts.CompilerVersion == "" {
		return types.TriUnknown
	}
	return triOf(g.cache.inRange(g.facts.CompilerVersion, a.Range))
}

func (g *SpecGraph) evalValueAtom(n *buildNode, a *types.Atom) types.Tri {
	v := n.variant(a.Variant)
	if v == nil {
		return types.TriFalse
	}
	switch v.def.Kind {
	case types.VariantKindBool:
		if !v.bound {
			return types.TriUnknown
		}
		return triOf((a.Value == "true") == v.value.Bool)
	case types.VariantKindEnum:
		if !v.def.InDomain(types.EnumValue(a.Value)) {
			return types.TriFalse
		}
		if !v.bound {
			return types.TriUnknown
		}
		return triOf(v.value.Enum == a.Value)
	case types.VariantKindSet:
		if a.Value == "none" {
			if v.bound {
				return triOf(len(v.value.Set) == 0)
			}
			if len(v.required) > 0 {
				return types.TriFalse
			}
			return types.TriUnknown
		}
		if !v.def.InDomain(types.SetValue([]string{a.Value})) {
			return types.TriFalse
		}
		if v.bound {
			return triOf(v.value.Contains(a.Value))
		}
		// Required elements only accumulate, so membership is monotone.
		if _, ok := v.required[a.Value]; ok {
			return types.TriTrue
		}
		return types.TriUnknown
	default:
		return types.TriFalse
	}
}

func triOf(b bool) types.Tri {
	if b {
		return types.TriTrue
	}
	return types.TriFalse
}

func dependencyRef(owner *buildNode, rule types.DependencyRule) types.RuleRef {
	predicate := rule.When.Text()
	if rule.Require.Raw != "" {
		predicate = predicate + " => " + rule.Require.Raw
	}
	return types.RuleRef{
		ID:        rule.ID,
		Package:   owner.def.Name,
		Kind:      types.RuleKindDependency,
		Predicate: predicate,
	}
}

func conflictRef(owner *buildNode, rule types.ConflictRule) types.RuleRef {
	predicate := rule.Predicate.Text()
	if rule.When != nil {
		predicate = predicate + " when " + rule.When.Text()
	}
	return types.RuleRef{
		ID:        rule.ID,
		Package:   owner.def.Name,
		Kind:      types.RuleKindConflict,
		Predicate: predicate,
		Message:   rule.Message,
	}
}

// snapshot captures every variant's mutable state so a search branch
// can be rolled back.
type varSnapshot struct {
	bound    bool
	decision bool
	value    types.Value
	required map[string]struct{}
	forced   int
}

func (g *SpecGraph) snapshot() [][]varSnapshot {
	snap := make([][]varSnapshot, len(g.nodes))
	for i, node := range g.nodes {
		row := make([]varSnapshot, len(node.vars))
		for j, v := range node.vars {
			required := make(map[string]struct{}, len(v.required))
			for k := range v.required {
				required[k] = struct{}{}
			}
			value := v.value
			if v.def.Kind == types.VariantKindSet {
				value = types.SetValue(v.value.Set)
			}
			row[j] = varSnapshot{
				bound:    v.bound,
				decision: v.decision,
				value:    value,
				required: required,
				forced:   len(v.forcedBy),
			}
		}
		snap[i] = row
	}
	return snap
}

func (g *SpecGraph) restore(snap [][]varSnapshot) {
	for i, node := range g.nodes {
		for j, v := range node.vars {
			saved := snap[i][j]
			v.bound = saved.bound
			v.decision = saved.decision
			v.value = saved.value
			v.required = saved.required
			v.forcedBy = v.forcedBy[:saved.forced]
		}
	}
}
