package types

import (
	"sort"
	"strings"
)

// VariantValue is one concrete variant assignment on a frozen node.
type VariantValue struct {
	Name  string
	Kind  VariantKind
	Value Value
}

// SpecNode is one package instantiation inside a concretized graph: a
// concrete version, a concrete value for every applicable variant, and
// the names of its resolved dependencies. Nodes are immutable once the
// graph is frozen.
type SpecNode struct {
	Package  string
	Version  string
	Values   []VariantValue
	Children []string
}

// Value returns the assignment for the named variant, if present.
func (n *SpecNode) Value(name string) (VariantValue, bool) {
	for _, v := range n.Values {
		if v.Name == name {
			return v, true
		}
	}
	return VariantValue{}, false
}

// Render returns the canonical single-line form of the node, with
// variants sorted by name: "pkg@version +a~b key=v".
func (n *SpecNode) Render() string {
	var b strings.Builder
	b.WriteString(n.Package)
	b.WriteString("@")
	b.WriteString(n.Version)
	parts := make([]string, 0, len(n.Values))
	for _, v := range n.Values {
		parts = append(parts, v.Value.Render(v.Kind, v.Name))
	}
	sort.Strings(parts)
	for _, part := range parts {
		b.WriteString(" ")
		b.WriteString(part)
	}
	return b.String()
}
