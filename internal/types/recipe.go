package types

// VersionDecl is one declared version of a package. Preferred versions
// win over higher non-preferred ones during version selection, which is
// how branch-style versions ("master") are promoted over releases.
type VersionDecl struct {
	Version   string
	Preferred bool
}

// Requirement is the constraint a dependency rule imposes on its
// target: variant atoms that must hold on the target node plus an
// optional version window.
type Requirement struct {
	Atoms []*Atom
	Range VersionRange
	Raw   string
}

// DependencyRule declares a conditional dependency edge: when the
// activation predicate holds on the declaring package's assignment, the
// target package joins the closure and must satisfy the requirement.
type DependencyRule struct {
	ID      string
	Target  string
	Require Requirement
	When    *Predicate
}

// ConflictRule invalidates any resolution in which both Predicate and
// When hold on the declaring package.
type ConflictRule struct {
	ID        string
	Predicate *Predicate
	When      *Predicate
	Message   string
}

// PackageDefinition is the compiled, structured form of one recipe:
// everything the resolver needs, with rule templates already expanded.
type PackageDefinition struct {
	Name         string
	Versions     []VersionDecl
	Variants     []Variant
	Dependencies []DependencyRule
	Conflicts    []ConflictRule
}

// Variant returns the variant declaration with the given name.
func (d PackageDefinition) Variant(name string) (Variant, bool) {
	for _, v := range d.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// RuleRef identifies a rule in diagnostics output: the minimal
// conflicting rule set of a failed resolution is a list of these.
type RuleRef struct {
	ID        string
	Package   string
	Kind      RuleKind
	Predicate string
	Message   string
}

// RecipeSpec is the raw, unparsed YAML shape of a recipe file. The
// compiler in core turns it into a PackageDefinition; adapters only
// unmarshal it.
type RecipeSpec struct {
	APIVersion string           `yaml:"api_version"`
	Name       string           `yaml:"name"`
	Versions   []VersionSpec    `yaml:"versions"`
	Variants   []VariantSpec    `yaml:"variants"`
	DependsOn  []DependencySpec `yaml:"depends_on"`
	Conflicts  []ConflictSpec   `yaml:"conflicts"`
	Templates  []TemplateSpec   `yaml:"templates"`
}

type VersionSpec struct {
	Version   string `yaml:"version"`
	Preferred bool   `yaml:"preferred,omitempty"`
}

type VariantSpec struct {
	Name        string   `yaml:"name"`
	Kind        string   `yaml:"kind"`
	Default     string   `yaml:"default,omitempty"`
	Values      []string `yaml:"values,omitempty"`
	When        string   `yaml:"when,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

type DependencySpec struct {
	Target  string `yaml:"target"`
	Require string `yaml:"require,omitempty"`
	When    string `yaml:"when,omitempty"`
}

type ConflictSpec struct {
	Predicate string `yaml:"predicate"`
	When      string `yaml:"when,omitempty"`
	Message   string `yaml:"message,omitempty"`
}

// TemplateSpec is a rule template parameterized over an enumerable
// axis. Each "{axis}" placeholder in the nested rules is substituted
// with every axis value at compile time, producing concrete rules.
type TemplateSpec struct {
	Axis      []string         `yaml:"axis"`
	DependsOn []DependencySpec `yaml:"depends_on"`
}
