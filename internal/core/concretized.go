package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"concretizer/internal/types"
)

// ConcretizedGraph is the immutable result of a resolution: every
// reachable node fully versioned and valued, every active dependency
// edge recorded with the rule that produced it.
type ConcretizedGraph struct {
	root  string
	nodes []*types.SpecNode
	index map[string]*types.SpecNode
	edges []types.EdgeRecord
}

// freeze converts a solved SpecGraph into its immutable form. Only
// edges whose activation predicate is definitively true survive; the
// optimistic closure built during expansion is trimmed here, and nodes
// no active edge reaches are dropped with it. Requirements and
// conflicts are re-checked on the reachable part only: trimmed nodes
// were exempt from the search and may be left unbound.
func freeze(g *SpecGraph) (*ConcretizedGraph, error) {
	active := map[string][]types.EdgeRecord{}
	reachable := map[string]*buildNode{}
	queue := []*buildNode{g.root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if _, seen := reachable[node.def.Name]; seen {
			continue
		}
		reachable[node.def.Name] = node
		for _, rule := range node.def.Dependencies {
			if g.evalOn(node, rule.When) != types.TriTrue {
				continue
			}
			target := g.index[rule.Target]
			if target == nil {
				return nil, internalErr(fmt.Sprintf("rule %s activated without an instantiated target", rule.ID))
			}
			if err := verifyRequirement(g, target, rule); err != nil {
				return nil, err
			}
			active[node.def.Name] = append(active[node.def.Name], types.EdgeRecord{
				RuleID:    rule.ID,
				Parent:    node.def.Name,
				Target:    rule.Target,
				Predicate: rule.When.Text(),
			})
			queue = append(queue, target)
		}
		for _, rule := range node.def.Conflicts {
			verdict := types.TriAnd(g.evalOn(node, rule.Predicate), g.evalOn(node, rule.When))
			if verdict == types.TriTrue {
				return nil, internalErr(fmt.Sprintf("conflict %s survived the search", rule.ID))
			}
		}
	}

	graph := &ConcretizedGraph{
		root:  g.root.def.Name,
		index: map[string]*types.SpecNode{},
	}
	for _, node := range g.nodes {
		if _, ok := reachable[node.def.Name]; !ok {
			continue
		}
		spec, err := freezeNode(g, node, active[node.def.Name])
		if err != nil {
			return nil, err
		}
		graph.nodes = append(graph.nodes, spec)
		graph.index[spec.Package] = spec
		graph.edges = append(graph.edges, active[node.def.Name]...)
	}
	sort.Slice(graph.edges, func(i, j int) bool { return graph.edges[i].RuleID < graph.edges[j].RuleID })
	return graph, nil
}

func freezeNode(g *SpecGraph, node *buildNode, edges []types.EdgeRecord) (*types.SpecNode, error) {
	spec := &types.SpecNode{
		Package: node.def.Name,
		Version: node.version,
	}
	for _, open := range node.vars {
		if g.evalOn(node, open.def.When) == types.TriFalse {
			continue
		}
		if !open.bound {
			return nil, internalErr(fmt.Sprintf(
				"variant %s of %s left unbound after the search", open.def.Name, node.def.Name,
			))
		}
		spec.Values = append(spec.Values, types.VariantValue{
			Name:  open.def.Name,
			Kind:  open.def.Kind,
			Value: open.value,
		})
	}
	children := map[string]struct{}{}
	for _, edge := range edges {
		children[edge.Target] = struct{}{}
	}
	for child := range children {
		spec.Children = append(spec.Children, child)
	}
	sort.Strings(spec.Children)
	return spec, nil
}

// verifyRequirement re-checks an active rule's requirement against the
// final assignment. The solver is supposed to have forced these; a
// violation here is a resolver bug, not a user error.
func verifyRequirement(g *SpecGraph, target *buildNode, rule types.DependencyRule) error {
	if !rule.Require.Range.IsOpen() && !g.cache.inRange(target.version, rule.Require.Range) {
		return internalErr(fmt.Sprintf(
			"rule %s version window not honored by %s@%s", rule.ID, target.def.Name, target.version,
		))
	}
	for _, atom := range rule.Require.Atoms {
		if g.evalAtom(target, atom) != types.TriTrue {
			return internalErr(fmt.Sprintf(
				"rule %s requirement %s not honored by %s", rule.ID, atom.Variant, target.def.Name,
			))
		}
	}
	return nil
}

func internalErr(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg)
}

func (g *ConcretizedGraph) Root() string { return g.root }

func (g *ConcretizedGraph) Nodes() []*types.SpecNode { return g.nodes }

func (g *ConcretizedGraph) Edges() []types.EdgeRecord { return g.edges }

func (g *ConcretizedGraph) Get(name string) (*types.SpecNode, error) {
	if node, ok := g.index[name]; ok {
		return node, nil
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("package %s is not part of the concretized graph", name))
}

// CanonicalString renders the graph as one line per package, sorted by
// package name. Equal graphs render identically, which makes the form
// usable both for golden tests and as the input of ID.
func (g *ConcretizedGraph) CanonicalString() string {
	lines := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		line := node.Render()
		if len(node.Children) > 0 {
			line += " -> " + strings.Join(node.Children, ", ")
		}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n") + "\n"
}

// ID is a short content hash of the canonical rendering, stable across
// runs and machines for identical resolutions.
func (g *ConcretizedGraph) ID() string {
	sum := sha256.Sum256([]byte(g.CanonicalString()))
	return hex.EncodeToString(sum[:])[:12]
}

// BuildOrder returns the nodes children first, so walking the slice in
// order always builds a package after everything it depends on. Ties
// break alphabetically to keep the order reproducible.
func (g *ConcretizedGraph) BuildOrder() []*types.SpecNode {
	var order []*types.SpecNode
	done := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if done[name] {
			return
		}
		done[name] = true
		node := g.index[name]
		for _, child := range node.Children {
			visit(child)
		}
		order = append(order, node)
	}
	visit(g.root)
	return order
}
