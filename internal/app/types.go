package app

type ResolveRequest struct {
	RecipeDir string
	Root      string
	Overrides []string
	Compiler  string
	OutputDir string
	SATSolver bool
	MaxSteps  int
}

type ResolveResult struct {
	Root      string
	GraphID   string
	Packages  int
	OutputDir string
}

type ResolveAllRequest struct {
	RecipeDir string
	Roots     []string
	Compiler  string
	OutputDir string
	SATSolver bool
	MaxSteps  int
}

type ResolveAllResult struct {
	Results []ResolveResult
}

type ValidateRequest struct {
	RecipeDir string
}

type ValidateResult struct {
	Packages int
}

type BuildRequest struct {
	RecipeDir string
	Root      string
	Overrides []string
	Compiler  string
	Command   string
	WorkDir   string
	SATSolver bool
	MaxSteps  int
}

type BuildResult struct {
	GraphID string
	Built   []string
}

type InspectRequest struct {
	RecipeDir string
	Package   string
}

type VariantReport struct {
	Name        string
	Kind        string
	Default     string
	Values      []string
	When        string
	Description string
}

type RuleReport struct {
	ID      string
	Target  string
	Require string
	When    string
	Message string
}

type InspectResult struct {
	Name         string
	Versions     []string
	Variants     []VariantReport
	Dependencies []RuleReport
	Conflicts    []RuleReport
}
