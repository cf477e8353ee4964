package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretizer/internal/types"
)

func TestCompileRecipe(t *testing.T) {
	spec := types.RecipeSpec{
		Name: "HPX_SC",
		Versions: []types.VersionSpec{
			{Version: "1.0.0"},
			{Version: "0.9.0", Preferred: true},
		},
		Variants: []types.VariantSpec{
			{Name: "cuda"},
			{Name: "cxxstd", Kind: "enum", Default: "17", Values: []string{"17", "20"}},
			{Name: "cuda_arch", Kind: "set", Values: []string{"60", "70"}, When: "+cuda"},
		},
		DependsOn: []types.DependencySpec{
			{Target: "HPX", Require: "@1.9: cxxstd=17"},
		},
		Conflicts: []types.ConflictSpec{
			{Predicate: "+cuda", When: "cxxstd=20", Message: "no CUDA with C++20"},
		},
		Templates: []types.TemplateSpec{
			{Axis: []string{"cuda"}, DependsOn: []types.DependencySpec{
				{Target: "kokkos", Require: "+{axis}", When: "+{axis}"},
			}},
		},
	}

	def, err := NewRecipeCompiler().Compile(t.Context(), spec)
	require.NoError(t, err)

	assert.Equal(t, "hpx-sc", def.Name)
	require.Len(t, def.Versions, 2)
	assert.True(t, def.Versions[1].Preferred)

	require.Len(t, def.Variants, 3)
	assert.Equal(t, types.VariantKindBool, def.Variants[0].Kind)
	assert.Equal(t, types.EnumValue("17"), def.Variants[1].Default)
	assert.Equal(t, types.SetValue(nil), def.Variants[2].Default)
	require.NotNil(t, def.Variants[2].When)

	// Template rules land after the literal ones, numbered continuously.
	require.Len(t, def.Dependencies, 2)
	assert.Equal(t, "hpx-sc:depends_on:0", def.Dependencies[0].ID)
	assert.Equal(t, "hpx", def.Dependencies[0].Target)
	assert.Equal(t, types.VersionRange{Lo: "1.9"}, def.Dependencies[0].Require.Range)
	assert.Equal(t, "hpx-sc:depends_on:1", def.Dependencies[1].ID)
	assert.Equal(t, "+cuda", def.Dependencies[1].Require.Raw)

	require.Len(t, def.Conflicts, 1)
	assert.Equal(t, "hpx-sc:conflicts:0", def.Conflicts[0].ID)
	assert.Equal(t, "no CUDA with C++20", def.Conflicts[0].Message)
}

func TestCompileRecipeDefaults(t *testing.T) {
	tests := []struct {
		name    string
		variant types.VariantSpec
		expect  types.Value
		wantErr bool
	}{
		{
			name:    "bool empty default is false",
			variant: types.VariantSpec{Name: "cuda"},
			expect:  types.BoolValue(false),
		},
		{
			name:    "bool true default",
			variant: types.VariantSpec{Name: "cuda", Default: "true"},
			expect:  types.BoolValue(true),
		},
		{
			name:    "bool garbage default",
			variant: types.VariantSpec{Name: "cuda", Default: "yes"},
			wantErr: true,
		},
		{
			name:    "enum requires default",
			variant: types.VariantSpec{Name: "cxxstd", Kind: "enum", Values: []string{"17"}},
			wantErr: true,
		},
		{
			name:    "set none default is empty",
			variant: types.VariantSpec{Name: "cuda_arch", Kind: "set", Default: "none", Values: []string{"70"}},
			expect:  types.SetValue(nil),
		},
		{
			name:    "set list default",
			variant: types.VariantSpec{Name: "cuda_arch", Kind: "set", Default: "70,60", Values: []string{"60", "70"}},
			expect:  types.SetValue([]string{"60", "70"}),
		},
		{
			name:    "unknown kind",
			variant: types.VariantSpec{Name: "cuda", Kind: "tristate"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := types.RecipeSpec{
				Name:     "pkg",
				Versions: []types.VersionSpec{{Version: "1.0"}},
				Variants: []types.VariantSpec{tt.variant},
			}
			def, err := NewRecipeCompiler().Compile(t.Context(), spec)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect, def.Variants[0].Default)
		})
	}
}

func TestCompileRecipeRejectsEmptyName(t *testing.T) {
	_, err := NewRecipeCompiler().Compile(t.Context(), types.RecipeSpec{})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
