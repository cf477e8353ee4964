// Package policies holds the rules that sit between user intent and
// the resolver core: validating requested variant overrides against a
// package definition before any search begins.
package policies

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"concretizer/internal/types"
)

// ValidateOverrides checks user-supplied override atoms against the
// root package definition. Unknown variants and out-of-domain values
// are rejected here, at merge time, so an invalid value can never
// reach the search.
func ValidateOverrides(def types.PackageDefinition, atoms []*types.Atom) error {
	for _, atom := range atoms {
		switch atom.Kind {
		case types.AtomKindVersion:
			continue
		case types.AtomKindCompiler:
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("compiler atoms are resolve facts, not overrides")
		}
		variant, ok := def.Variant(atom.Variant)
		if !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("package %s has no variant %s", def.Name, atom.Variant))
		}
		if err := validateOverrideAtom(def.Name, variant, atom); err != nil {
			return err
		}
	}
	return nil
}

func validateOverrideAtom(pkg string, variant types.Variant, atom *types.Atom) error {
	switch atom.Kind {
	case types.AtomKindBool:
		if variant.Kind != types.VariantKindBool {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: variant %s is not boolean", pkg, atom.Variant))
		}
		return nil
	case types.AtomKindValue:
		if variant.Kind == types.VariantKindBool {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: boolean variant %s takes +/~, not a value", pkg, atom.Variant))
		}
		if variant.Kind == types.VariantKindSet && atom.Value == "none" {
			return nil
		}
		candidate := types.EnumValue(atom.Value)
		if variant.Kind == types.VariantKindSet {
			candidate = types.SetValue([]string{atom.Value})
		}
		if !variant.InDomain(candidate) {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s: value %s outside domain of variant %s", pkg, atom.Value, atom.Variant))
		}
		return nil
	default:
		return nil
	}
}

// OverrideRef builds the diagnostic rule reference recorded when an
// override forces a variant value.
func OverrideRef(pkg string, atom *types.Atom) types.RuleRef {
	text := atom.Variant
	switch atom.Kind {
	case types.AtomKindBool:
		if atom.BoolValue {
			text = "+" + atom.Variant
		} else {
			text = "~" + atom.Variant
		}
	case types.AtomKindValue:
		text = atom.Variant + "=" + atom.Value
	}
	return types.RuleRef{
		ID:        fmt.Sprintf("override:%s:%s", pkg, atom.Variant),
		Package:   pkg,
		Kind:      types.RuleKindOverride,
		Predicate: text,
	}
}
