package core

import (
	"context"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretizer/internal/types"
)

func solve(t *testing.T, defs map[string]types.PackageDefinition, root string, overrides ...string) *ConcretizedGraph {
	t.Helper()
	g := buildGraph(t, defs, root, overrides...)
	graph, err := NewSolver().Solve(t.Context(), g)
	require.NoError(t, err)
	return graph
}

// ---------------------------------------------------------------------------
// default resolution
// ---------------------------------------------------------------------------

func TestSolveDefaultResolution(t *testing.T) {
	graph := solve(t, gpuUniverse(t), "hpxsc")

	require.Len(t, graph.Nodes(), 5)

	root, err := graph.Get("hpxsc")
	require.NoError(t, err)
	assert.Equal(t, "hpxsc@1.0.0 +kokkos cxxstd=17 ~cuda ~rocm", root.Render())
	assert.Equal(t, []string{"cppuddle", "hpx", "hpx-kokkos", "kokkos"}, root.Children)

	hpx, err := graph.Get("hpx")
	require.NoError(t, err)
	// The sycl variant is gated on @1.10: and must not appear at 1.9.1.
	assert.Equal(t, "hpx@1.9.1 cxxstd=17 malloc=system ~cuda", hpx.Render())

	kokkos, err := graph.Get("kokkos")
	require.NoError(t, err)
	assert.Equal(t, "kokkos@4.3.01 cxxstd=17 ~cuda ~rocm", kokkos.Render())
}

func TestSolveIsIdempotent(t *testing.T) {
	defs := gpuUniverse(t)
	first := solve(t, defs, "hpxsc")
	second := solve(t, defs, "hpxsc")
	if diff := cmp.Diff(first.CanonicalString(), second.CanonicalString()); diff != "" {
		t.Fatalf("canonical form differs between runs (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.ID(), second.ID())
	assert.Len(t, first.ID(), 12)
}

func TestSolveDeterministicUnderRuleReordering(t *testing.T) {
	baseline := solve(t, gpuUniverse(t), "hpxsc").CanonicalString()

	defs := gpuUniverse(t)
	hpxsc := defs["hpxsc"]
	reversed := make([]types.DependencyRule, 0, len(hpxsc.Dependencies))
	for i := len(hpxsc.Dependencies) - 1; i >= 0; i-- {
		reversed = append(reversed, hpxsc.Dependencies[i])
	}
	hpxsc.Dependencies = reversed
	defs["hpxsc"] = hpxsc

	reordered := solve(t, defs, "hpxsc").CanonicalString()
	assert.Equal(t, baseline, reordered)
}

// ---------------------------------------------------------------------------
// propagation
// ---------------------------------------------------------------------------

func TestSolvePropagatesRequirements(t *testing.T) {
	graph := solve(t, gpuUniverse(t), "hpxsc", "+cuda")

	kokkos, err := graph.Get("kokkos")
	require.NoError(t, err)
	cuda, ok := kokkos.Value("cuda")
	require.True(t, ok)
	assert.True(t, cuda.Value.Bool)

	// The set requirement accumulates exactly the demanded element.
	arch, ok := kokkos.Value("cuda_arch")
	require.True(t, ok)
	assert.Equal(t, []string{"70"}, arch.Value.Set)

	assert.Equal(t, "kokkos@4.3.01 +cuda cuda_arch=70 cxxstd=17 ~rocm", kokkos.Render())
}

func TestSolveSetUnionAcrossRules(t *testing.T) {
	defs := compileUniverse(t,
		types.RecipeSpec{
			Name:     "app",
			Versions: []types.VersionSpec{{Version: "1.0"}},
			DependsOn: []types.DependencySpec{
				{Target: "gpu", Require: "cuda_arch=70"},
				{Target: "gpu", Require: "cuda_arch=80"},
			},
		},
		types.RecipeSpec{
			Name:     "gpu",
			Versions: []types.VersionSpec{{Version: "1.0"}},
			Variants: []types.VariantSpec{
				{Name: "cuda_arch", Kind: "set", Values: []string{"60", "70", "80"}},
			},
		},
	)
	graph := solve(t, defs, "app")
	gpu, err := graph.Get("gpu")
	require.NoError(t, err)
	arch, ok := gpu.Value("cuda_arch")
	require.True(t, ok)
	assert.Equal(t, []string{"70", "80"}, arch.Value.Set)
}

// ---------------------------------------------------------------------------
// backtracking
// ---------------------------------------------------------------------------

func TestSolveBacktracksOffDefault(t *testing.T) {
	defs := compileUniverse(t,
		types.RecipeSpec{
			Name:     "tool",
			Versions: []types.VersionSpec{{Version: "1.0"}},
			Variants: []types.VariantSpec{
				{Name: "mode", Kind: "enum", Default: "fast", Values: []string{"fast", "safe"}},
			},
			Conflicts: []types.ConflictSpec{
				{Predicate: "mode=fast", Message: "fast mode is broken on this release"},
			},
		},
	)
	graph := solve(t, defs, "tool")
	tool, err := graph.Get("tool")
	require.NoError(t, err)
	mode, ok := tool.Value("mode")
	require.True(t, ok)
	assert.Equal(t, "safe", mode.Value.Enum)
}

// ---------------------------------------------------------------------------
// failure modes
// ---------------------------------------------------------------------------

func unbuildableDepUniverse(t *testing.T) map[string]types.PackageDefinition {
	t.Helper()
	return compileUniverse(t,
		types.RecipeSpec{
			Name:     "app",
			Versions: []types.VersionSpec{{Version: "1.0"}},
			Variants: []types.VariantSpec{{Name: "extra"}},
			DependsOn: []types.DependencySpec{
				{Target: "doomed", When: "+extra"},
			},
		},
		types.RecipeSpec{
			Name:     "doomed",
			Versions: []types.VersionSpec{{Version: "1.0"}},
			Variants: []types.VariantSpec{{Name: "mode"}},
			Conflicts: []types.ConflictSpec{
				{Predicate: "+mode", Message: "broken with the mode on"},
				{Predicate: "~mode", Message: "broken with the mode off"},
			},
		},
	)
}

func TestSolveIgnoresDeactivatedClosure(t *testing.T) {
	defs := unbuildableDepUniverse(t)

	// doomed conflicts on both values of its only variant, but with
	// extra off its only incoming edge is inactive: the package never
	// reaches the frozen graph and must not fail the resolution.
	graph := solve(t, defs, "app")
	require.Len(t, graph.Nodes(), 1)
	_, err := graph.Get("doomed")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	// Activating the edge makes the dead end real.
	_, err = NewSolver().Solve(t.Context(), buildGraph(t, defs, "app", "+extra"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	require.NotEmpty(t, ConflictRules(err))
}

func TestSolveContradictoryEnumRequirements(t *testing.T) {
	defs := compileUniverse(t,
		types.RecipeSpec{
			Name:     "app",
			Versions: []types.VersionSpec{{Version: "1.0"}},
			DependsOn: []types.DependencySpec{
				{Target: "lib", Require: "cxxstd=17"},
				{Target: "lib", Require: "cxxstd=20"},
			},
		},
		types.RecipeSpec{
			Name:     "lib",
			Versions: []types.VersionSpec{{Version: "1.0"}},
			Variants: []types.VariantSpec{
				{Name: "cxxstd", Kind: "enum", Default: "17", Values: []string{"17", "20"}},
			},
		},
	)
	_, err := NewSolver().Solve(t.Context(), buildGraph(t, defs, "app"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))

	ids := make([]string, 0)
	for _, rule := range ConflictRules(err) {
		ids = append(ids, rule.ID)
	}
	assert.Contains(t, ids, "app:depends_on:0")
	assert.Contains(t, ids, "app:depends_on:1")
}

func TestSolveUnsatisfiableReportsMinimalRules(t *testing.T) {
	g := buildGraph(t, gpuUniverse(t), "hpxsc", "+cuda", "+rocm")
	_, err := NewSolver().Solve(t.Context(), g)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))

	rules := ConflictRules(err)
	require.NotEmpty(t, rules)
	ids := make([]string, 0, len(rules))
	messages := make([]string, 0, len(rules))
	for _, rule := range rules {
		ids = append(ids, rule.ID)
		messages = append(messages, rule.Message)
	}
	assert.Contains(t, ids, "hpxsc:conflicts:0")
	assert.Contains(t, ids, "override:hpxsc:cuda")
	assert.Contains(t, ids, "override:hpxsc:rocm")
	assert.Contains(t, messages, "CUDA and ROCm are mutually exclusive")
}

func TestSolveStepBudget(t *testing.T) {
	g := buildGraph(t, gpuUniverse(t), "hpxsc")
	solver := NewSolver()
	solver.MaxSteps = 1
	_, err := solver.Solve(t.Context(), g)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeDeadlineExceeded, errbuilder.CodeOf(err))
}

func TestSolveCancelledContext(t *testing.T) {
	g := buildGraph(t, gpuUniverse(t), "hpxsc")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewSolver().Solve(ctx, g)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeDeadlineExceeded, errbuilder.CodeOf(err))
}
