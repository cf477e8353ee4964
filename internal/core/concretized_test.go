package core

import (
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretizer/internal/types"
)

func optionalDepUniverse(t *testing.T) map[string]types.PackageDefinition {
	t.Helper()
	return compileUniverse(t,
		types.RecipeSpec{
			Name:     "app",
			Versions: []types.VersionSpec{{Version: "1.0"}},
			Variants: []types.VariantSpec{{Name: "extra"}},
			DependsOn: []types.DependencySpec{
				{Target: "extra-lib", When: "+extra"},
			},
		},
		types.RecipeSpec{
			Name:     "extra-lib",
			Versions: []types.VersionSpec{{Version: "2.0"}},
		},
	)
}

func TestFreezeTrimsInactiveClosure(t *testing.T) {
	defs := optionalDepUniverse(t)

	graph := solve(t, defs, "app")
	require.Len(t, graph.Nodes(), 1)
	_, err := graph.Get("extra-lib")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	graph = solve(t, defs, "app", "+extra")
	require.Len(t, graph.Nodes(), 2)
	app, err := graph.Get("app")
	require.NoError(t, err)
	assert.Equal(t, []string{"extra-lib"}, app.Children)
	require.Len(t, graph.Edges(), 1)
	assert.Equal(t, "app:depends_on:0", graph.Edges()[0].RuleID)
}

func TestCanonicalStringSortedByPackage(t *testing.T) {
	graph := solve(t, gpuUniverse(t), "hpxsc")
	lines := strings.Split(strings.TrimSuffix(graph.CanonicalString(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "cppuddle@"))
	assert.True(t, strings.HasPrefix(lines[1], "hpx@"))
	assert.True(t, strings.HasPrefix(lines[2], "hpx-kokkos@"))
	assert.True(t, strings.HasPrefix(lines[3], "hpxsc@"))
	assert.True(t, strings.HasPrefix(lines[4], "kokkos@"))
}

func TestBuildOrderChildrenFirst(t *testing.T) {
	graph := solve(t, gpuUniverse(t), "hpxsc")
	order := graph.BuildOrder()
	require.Len(t, order, 5)

	position := map[string]int{}
	for i, node := range order {
		position[node.Package] = i
	}
	assert.Equal(t, len(order)-1, position["hpxsc"])
	for _, node := range graph.Nodes() {
		for _, child := range node.Children {
			assert.Less(t, position[child], position[node.Package],
				"%s must be built before %s", child, node.Package)
		}
	}
}

func TestGraphIDTracksContent(t *testing.T) {
	defs := gpuUniverse(t)
	plain := solve(t, defs, "hpxsc")
	withCuda := solve(t, defs, "hpxsc", "+cuda")
	assert.Len(t, plain.ID(), 12)
	assert.NotEqual(t, plain.ID(), withCuda.ID())
}
