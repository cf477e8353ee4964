package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hpxRecipe = `api_version: v1
name: hpx
versions:
  - version: "1.9.1"
    preferred: true
  - version: "1.8.1"
variants:
  - name: cuda
  - name: cxxstd
    kind: enum
    default: "17"
    values: ["17", "20"]
`

func writeRecipe(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestRecipeFileAdapterLoadRecipe(t *testing.T) {
	dir := t.TempDir()
	writeRecipe(t, dir, "hpx.yaml", hpxRecipe)

	adapter := NewRecipeFileAdapter()
	spec, err := adapter.LoadRecipe(filepath.Join(dir, "hpx.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "hpx", spec.Name)
	require.Len(t, spec.Versions, 2)
	assert.Equal(t, "1.9.1", spec.Versions[0].Version)
	assert.True(t, spec.Versions[0].Preferred)
	require.Len(t, spec.Variants, 2)
	assert.Equal(t, "enum", spec.Variants[1].Kind)
	assert.Equal(t, []string{"17", "20"}, spec.Variants[1].Values)
}

func TestRecipeFileAdapterLoadRecipeErrors(t *testing.T) {
	dir := t.TempDir()
	writeRecipe(t, dir, "broken.yaml", "name: [unterminated")
	writeRecipe(t, dir, "future.yaml", "api_version: v2\nname: hpx\n")

	tests := []struct {
		name     string
		path     string
		wantCode errbuilder.ErrCode
	}{
		{
			name:     "missing file",
			path:     filepath.Join(dir, "nope.yaml"),
			wantCode: errbuilder.CodeNotFound,
		},
		{
			name:     "malformed yaml",
			path:     filepath.Join(dir, "broken.yaml"),
			wantCode: errbuilder.CodeInvalidArgument,
		},
		{
			name:     "unsupported api version",
			path:     filepath.Join(dir, "future.yaml"),
			wantCode: errbuilder.CodeInvalidArgument,
		},
	}
	adapter := NewRecipeFileAdapter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := adapter.LoadRecipe(tt.path)
			require.Error(t, err)
			if diff := cmp.Diff(tt.wantCode, errbuilder.CodeOf(err)); diff != "" {
				t.Fatalf("unexpected error code (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecipeFileAdapterLoadRecipeDir(t *testing.T) {
	dir := t.TempDir()
	writeRecipe(t, dir, "zlib.yml", "api_version: v1\nname: zlib\nversions: [{version: \"1.3\"}]\n")
	writeRecipe(t, dir, "hpx.yaml", hpxRecipe)
	writeRecipe(t, dir, "README.md", "not a recipe")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o750))

	specs, err := NewRecipeFileAdapter().LoadRecipeDir(dir)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	// Sorted by file name, not declaration order.
	assert.Equal(t, "hpx", specs[0].Name)
	assert.Equal(t, "zlib", specs[1].Name)
}

func TestRecipeFileAdapterLoadRecipeDirErrors(t *testing.T) {
	adapter := NewRecipeFileAdapter()

	_, err := adapter.LoadRecipeDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	_, err = adapter.LoadRecipeDir(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}
