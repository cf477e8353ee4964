package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"concretizer/internal/shared"
	"concretizer/internal/types"
)

// Inspect reports one compiled package definition: declared versions,
// variants with their domains and defaults, and every rule after
// template expansion.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	name := shared.NormalizePackageName(req.Package)
	if name == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name is required")
	}
	defs, err := s.loadUniverse(ctx, req.RecipeDir)
	if err != nil {
		return InspectResult{}, err
	}
	def, ok := defs[name]
	if !ok {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("unknown package: %s", req.Package))
	}

	result := InspectResult{Name: def.Name}
	for _, version := range def.Versions {
		rendered := version.Version
		if version.Preferred {
			rendered += " (preferred)"
		}
		result.Versions = append(result.Versions, rendered)
	}
	for _, variant := range def.Variants {
		report := VariantReport{
			Name:        variant.Name,
			Kind:        string(variant.Kind),
			Default:     variant.Default.Render(variant.Kind, variant.Name),
			Values:      variant.Domain,
			When:        predicateText(variant.When),
			Description: variant.Description,
		}
		result.Variants = append(result.Variants, report)
	}
	for _, rule := range def.Dependencies {
		result.Dependencies = append(result.Dependencies, RuleReport{
			ID:      rule.ID,
			Target:  rule.Target,
			Require: rule.Require.Raw,
			When:    predicateText(rule.When),
		})
	}
	for _, rule := range def.Conflicts {
		result.Conflicts = append(result.Conflicts, RuleReport{
			ID:      rule.ID,
			Require: rule.Predicate.Text(),
			When:    predicateText(rule.When),
			Message: rule.Message,
		})
	}
	return result, nil
}

func predicateText(p *types.Predicate) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Text())
}
