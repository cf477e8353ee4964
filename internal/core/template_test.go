package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"concretizer/internal/types"
)

func TestExpandTemplates(t *testing.T) {
	templates := []types.TemplateSpec{
		{
			Axis: []string{"cuda", "rocm"},
			DependsOn: []types.DependencySpec{
				{Target: "kokkos", Require: "+{axis}", When: "+{axis}"},
			},
		},
	}
	expanded := ExpandTemplates(templates)
	assert.Equal(t, []types.DependencySpec{
		{Target: "kokkos", Require: "+cuda", When: "+cuda"},
		{Target: "kokkos", Require: "+rocm", When: "+rocm"},
	}, expanded)
}

func TestExpandTemplatesMultipleRulesPerAxisValue(t *testing.T) {
	templates := []types.TemplateSpec{
		{
			Axis: []string{"60", "70"},
			DependsOn: []types.DependencySpec{
				{Target: "kokkos", Require: "cuda_arch={axis}", When: "cuda_arch={axis}"},
				{Target: "hpx", When: "cuda_arch={axis}"},
			},
		},
	}
	expanded := ExpandTemplates(templates)
	assert.Len(t, expanded, 4)
	assert.Equal(t, "cuda_arch=60", expanded[0].Require)
	assert.Equal(t, "cuda_arch=60", expanded[1].When)
	assert.Equal(t, "hpx", expanded[3].Target)
	assert.Equal(t, "cuda_arch=70", expanded[3].When)
}

func TestExpandTemplatesEmpty(t *testing.T) {
	assert.Empty(t, ExpandTemplates(nil))
}
