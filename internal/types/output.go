package types

// LockEntry is one line of spec.lock: a fully rendered concrete node.
type LockEntry struct {
	Package string `yaml:"package"`
	Version string `yaml:"version"`
	Spec    string `yaml:"spec"`
}

// EdgeRecord is one line of resolve.report: a dependency rule whose
// activation predicate held in the final assignment, together with the
// edge it created.
type EdgeRecord struct {
	RuleID    string `yaml:"rule_id"`
	Parent    string `yaml:"parent"`
	Target    string `yaml:"target"`
	Predicate string `yaml:"predicate,omitempty"`
}

// ResolutionReport summarizes one resolution for resolve.report.
type ResolutionReport struct {
	Root       string       `yaml:"root"`
	GraphID    string       `yaml:"graph_id"`
	ResolvedAt string       `yaml:"resolved_at"`
	Locks      []LockEntry  `yaml:"locks"`
	Edges      []EdgeRecord `yaml:"edges"`
}
