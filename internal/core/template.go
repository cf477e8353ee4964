package core

import (
	"strings"

	"concretizer/internal/types"
)

// axisPlaceholder is the substitution marker inside templated rules:
// "cuda_arch={axis}" expands once per axis value.
const axisPlaceholder = "{axis}"

// ExpandTemplates instantiates every rule template into concrete
// dependency rule specs, one per axis value. This turns the recipe
// pattern "for every GPU target, propagate the chosen target to the
// dependency" into a flat arena of rules before compilation.
func ExpandTemplates(templates []types.TemplateSpec) []types.DependencySpec {
	var out []types.DependencySpec
	for _, template := range templates {
		for _, value := range template.Axis {
			for _, dep := range template.DependsOn {
				out = append(out, types.DependencySpec{
					Target:  substituteAxis(dep.Target, value),
					Require: substituteAxis(dep.Require, value),
					When:    substituteAxis(dep.When, value),
				})
			}
		}
	}
	return out
}

func substituteAxis(text string, value string) string {
	return strings.ReplaceAll(text, axisPlaceholder, value)
}
