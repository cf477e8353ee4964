package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concretizer/internal/types"
)

func validDefinition() types.PackageDefinition {
	return types.PackageDefinition{
		Name:     "hpxsc",
		Versions: []types.VersionDecl{{Version: "1.0.0"}},
		Variants: []types.Variant{
			{Name: "cuda", Kind: types.VariantKindBool},
			{
				Name:    "cxxstd",
				Kind:    types.VariantKindEnum,
				Domain:  []string{"17", "20"},
				Default: types.EnumValue("17"),
			},
		},
		Dependencies: []types.DependencyRule{
			{ID: "hpxsc:depends_on:0", Target: "hpx"},
		},
	}
}

func TestValidateDefinition(t *testing.T) {
	validator := NewRecipeValidator()
	require.NoError(t, validator.ValidateDefinition(t.Context(), validDefinition()))
}

func TestValidateDefinitionErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*types.PackageDefinition)
		wantCode errbuilder.ErrCode
	}{
		{
			name:     "no versions",
			mutate:   func(d *types.PackageDefinition) { d.Versions = nil },
			wantCode: errbuilder.CodeInvalidArgument,
		},
		{
			name: "duplicate variant",
			mutate: func(d *types.PackageDefinition) {
				d.Variants = append(d.Variants, types.Variant{Name: "cuda", Kind: types.VariantKindBool})
			},
			wantCode: errbuilder.CodeInvalidArgument,
		},
		{
			name: "bool variant with domain",
			mutate: func(d *types.PackageDefinition) {
				d.Variants[0].Domain = []string{"true"}
			},
			wantCode: errbuilder.CodeInvalidArgument,
		},
		{
			name: "enum without domain",
			mutate: func(d *types.PackageDefinition) {
				d.Variants[1].Domain = nil
			},
			wantCode: errbuilder.CodeInvalidArgument,
		},
		{
			name: "default outside domain",
			mutate: func(d *types.PackageDefinition) {
				d.Variants[1].Default = types.EnumValue("23")
			},
			wantCode: errbuilder.CodeInvalidArgument,
		},
		{
			name: "self dependency",
			mutate: func(d *types.PackageDefinition) {
				d.Dependencies[0].Target = "hpxsc"
			},
			wantCode: errbuilder.CodeInvalidArgument,
		},
	}
	validator := NewRecipeValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)
			err := validator.ValidateDefinition(t.Context(), def)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errbuilder.CodeOf(err))
		})
	}
}

func TestValidateUniverse(t *testing.T) {
	validator := NewRecipeValidator()
	defs := map[string]types.PackageDefinition{
		"hpxsc": validDefinition(),
		"hpx": {
			Name:     "hpx",
			Versions: []types.VersionDecl{{Version: "1.9.1"}},
		},
	}
	require.NoError(t, validator.ValidateUniverse(t.Context(), defs))

	delete(defs, "hpx")
	err := validator.ValidateUniverse(t.Context(), defs)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}
