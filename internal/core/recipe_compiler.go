package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"concretizer/internal/shared"
	"concretizer/internal/types"
)

// RecipeCompiler turns raw recipe specs into structured package
// definitions: predicates parsed into trees, rule templates expanded,
// rules given stable identifiers.
type RecipeCompiler struct{}

func NewRecipeCompiler() RecipeCompiler {
	return RecipeCompiler{}
}

func (c RecipeCompiler) Compile(ctx context.Context, spec types.RecipeSpec) (types.PackageDefinition, error) {
	name := shared.NormalizePackageName(spec.Name)
	if name == "" {
		return types.PackageDefinition{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("recipe name must not be empty")
	}

	def := types.PackageDefinition{Name: name}
	for _, version := range spec.Versions {
		def.Versions = append(def.Versions, types.VersionDecl{
			Version:   strings.TrimSpace(version.Version),
			Preferred: version.Preferred,
		})
	}

	for _, variant := range spec.Variants {
		compiled, err := compileVariant(name, variant)
		if err != nil {
			return types.PackageDefinition{}, err
		}
		def.Variants = append(def.Variants, compiled)
	}

	deps := append([]types.DependencySpec(nil), spec.DependsOn...)
	deps = append(deps, ExpandTemplates(spec.Templates)...)
	for i, dep := range deps {
		rule, err := compileDependency(name, i, dep)
		if err != nil {
			return types.PackageDefinition{}, err
		}
		def.Dependencies = append(def.Dependencies, rule)
	}

	for i, conflict := range spec.Conflicts {
		rule, err := compileConflict(name, i, conflict)
		if err != nil {
			return types.PackageDefinition{}, err
		}
		def.Conflicts = append(def.Conflicts, rule)
	}

	log.Ctx(ctx).Debug().
		Str("package", name).
		Int("variants", len(def.Variants)).
		Int("rules", len(def.Dependencies)+len(def.Conflicts)).
		Msg("recipe compiled")
	return def, nil
}

func compileVariant(pkg string, spec types.VariantSpec) (types.Variant, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return types.Variant{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: variant name must not be empty", pkg))
	}
	kind, err := parseVariantKind(pkg, name, spec.Kind)
	if err != nil {
		return types.Variant{}, err
	}
	when, err := ParsePredicate(spec.When)
	if err != nil {
		return types.Variant{}, compileErr(pkg, name, err)
	}
	defaultValue, err := parseDefault(pkg, name, kind, spec.Default)
	if err != nil {
		return types.Variant{}, err
	}
	return types.Variant{
		Name:        name,
		Kind:        kind,
		Domain:      spec.Values,
		Default:     defaultValue,
		When:        when,
		Description: spec.Description,
	}, nil
}

func parseVariantKind(pkg string, variant string, value string) (types.VariantKind, error) {
	switch types.VariantKind(strings.TrimSpace(value)) {
	case types.VariantKindBool, "":
		return types.VariantKindBool, nil
	case types.VariantKindEnum:
		return types.VariantKindEnum, nil
	case types.VariantKindSet:
		return types.VariantKindSet, nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: variant %s has invalid kind %q", pkg, variant, value))
	}
}

// parseDefault interprets the raw default per kind. Bool defaults to
// false, set defaults to the empty set ("none" is accepted as an
// explicit spelling of it).
func parseDefault(pkg string, variant string, kind types.VariantKind, raw string) (types.Value, error) {
	trimmed := strings.TrimSpace(raw)
	switch kind {
	case types.VariantKindBool:
		switch trimmed {
		case "", "false":
			return types.BoolValue(false), nil
		case "true":
			return types.BoolValue(true), nil
		default:
			return types.Value{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: variant %s has invalid bool default %q", pkg, variant, raw))
		}
	case types.VariantKindEnum:
		if trimmed == "" {
			return types.Value{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: enum variant %s requires a default", pkg, variant))
		}
		return types.EnumValue(trimmed), nil
	case types.VariantKindSet:
		if trimmed == "" || trimmed == "none" {
			return types.SetValue(nil), nil
		}
		return types.SetValue(strings.Split(trimmed, ",")), nil
	default:
		return types.Value{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: variant %s has invalid kind", pkg, variant))
	}
}

func compileDependency(pkg string, index int, spec types.DependencySpec) (types.DependencyRule, error) {
	target := shared.NormalizePackageName(spec.Target)
	if target == "" {
		return types.DependencyRule{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: depends_on[%d] target must not be empty", pkg, index))
	}
	require, err := ParseRequirement(spec.Require)
	if err != nil {
		return types.DependencyRule{}, compileErr(pkg, target, err)
	}
	when, err := ParsePredicate(spec.When)
	if err != nil {
		return types.DependencyRule{}, compileErr(pkg, target, err)
	}
	return types.DependencyRule{
		ID:      fmt.Sprintf("%s:depends_on:%d", pkg, index),
		Target:  target,
		Require: require,
		When:    when,
	}, nil
}

func compileConflict(pkg string, index int, spec types.ConflictSpec) (types.ConflictRule, error) {
	predicate, err := ParsePredicate(spec.Predicate)
	if err != nil {
		return types.ConflictRule{}, compileErr(pkg, "conflicts", err)
	}
	if predicate == nil {
		return types.ConflictRule{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: conflicts[%d] predicate must not be empty", pkg, index))
	}
	when, err := ParsePredicate(spec.When)
	if err != nil {
		return types.ConflictRule{}, compileErr(pkg, "conflicts", err)
	}
	return types.ConflictRule{
		ID:        fmt.Sprintf("%s:conflicts:%d", pkg, index),
		Predicate: predicate,
		When:      when,
		Message:   strings.TrimSpace(spec.Message),
	}, nil
}

func compileErr(pkg string, where string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s: invalid rule for %s", pkg, where)).
		WithCause(err)
}
