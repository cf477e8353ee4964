package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretizer/internal/types"
)

func TestBuildExecAdapterExportsNodeEnv(t *testing.T) {
	dir := t.TempDir()
	node := &types.SpecNode{
		Package: "hpx",
		Version: "1.9.1",
		Values: []types.VariantValue{
			{Name: "cuda", Kind: types.VariantKindBool, Value: types.BoolValue(false)},
		},
	}

	adapter := NewBuildExecAdapter(`printf '%s %s %s' "$CONCRETIZER_PACKAGE" "$CONCRETIZER_VERSION" "$CONCRETIZER_SPEC" > env.out`, dir)
	require.NoError(t, adapter.Build(t.Context(), node))

	content, err := os.ReadFile(filepath.Join(dir, "env.out"))
	require.NoError(t, err)
	assert.Equal(t, "hpx 1.9.1 hpx@1.9.1 ~cuda", string(content))
}

func TestBuildExecAdapterErrors(t *testing.T) {
	node := &types.SpecNode{Package: "hpx", Version: "1.9.1"}

	err := NewBuildExecAdapter("   ", t.TempDir()).Build(t.Context(), node)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))

	err = NewBuildExecAdapter("exit 3", t.TempDir()).Build(t.Context(), node)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
}
