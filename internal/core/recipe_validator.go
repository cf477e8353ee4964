package core

import (
	"context"
	"fmt"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"concretizer/internal/types"
)

// RecipeValidator checks compiled definitions before they reach the
// resolver, so domain violations surface as InvalidArgument at load
// time and never as search failures.
type RecipeValidator struct{}

func NewRecipeValidator() RecipeValidator {
	return RecipeValidator{}
}

func (v RecipeValidator) ValidateDefinition(ctx context.Context, def types.PackageDefinition) error {
	assert.NotEmpty(ctx, def.Name, "package name must be set")
	if len(def.Versions) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: at least one version must be declared", def.Name))
	}
	seen := map[string]struct{}{}
	for _, variant := range def.Variants {
		if _, ok := seen[variant.Name]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: duplicate variant %s", def.Name, variant.Name))
		}
		seen[variant.Name] = struct{}{}
		if err := validateVariant(def.Name, variant); err != nil {
			return err
		}
	}
	for _, rule := range def.Dependencies {
		if rule.Target == def.Name {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: rule %s targets its own package", def.Name, rule.ID))
		}
	}
	log.Ctx(ctx).Debug().Str("package", def.Name).Msg("definition validated")
	return nil
}

// ValidateUniverse checks cross-package integrity: every dependency
// rule must target a known definition.
func (v RecipeValidator) ValidateUniverse(ctx context.Context, defs map[string]types.PackageDefinition) error {
	for _, def := range defs {
		for _, rule := range def.Dependencies {
			if _, ok := defs[rule.Target]; !ok {
				return errbuilder.New().
					WithCode(errbuilder.CodeNotFound).
					WithMsg(fmt.Sprintf("rule %s targets unknown package %s", rule.ID, rule.Target))
			}
		}
	}
	log.Ctx(ctx).Debug().Int("packages", len(defs)).Msg("universe validated")
	return nil
}

func validateVariant(pkg string, variant types.Variant) error {
	switch variant.Kind {
	case types.VariantKindBool:
		if len(variant.Domain) > 0 {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: bool variant %s must not declare values", pkg, variant.Name))
		}
	case types.VariantKindEnum, types.VariantKindSet:
		if len(variant.Domain) == 0 {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: variant %s requires a value domain", pkg, variant.Name))
		}
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: variant %s has invalid kind %s", pkg, variant.Name, variant.Kind))
	}
	if !variant.InDomain(variant.Default) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: variant %s default outside its domain", pkg, variant.Name))
	}
	return nil
}
