package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"concretizer/internal/types"
)

// ParsePredicate turns recipe predicate text into a structured tree.
// The recipe syntax is an implicit conjunction of space-separated
// atoms: "+cuda ~rocm cuda_arch=70 @1.2: %gcc@:10". Empty text yields
// the always-true nil predicate. OR/NOT nodes are constructed
// programmatically via types.Or/types.Not; the file syntax has no
// operator for them.
func ParsePredicate(text string) (*types.Predicate, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	tokens := strings.Fields(trimmed)
	var children []*types.Predicate
	for _, token := range tokens {
		atoms, err := parseAtomToken(token)
		if err != nil {
			return nil, err
		}
		for _, atom := range atoms {
			children = append(children, types.AtomPredicate(atom, token))
		}
	}
	if len(children) == 1 {
		children[0].Raw = trimmed
		return children[0], nil
	}
	return types.And(children, trimmed), nil
}

// ParseRequirement parses the constraint a dependency rule imposes on
// its target: variant atoms plus at most one version window. Compiler
// atoms are conditions, not requirements, and are rejected here.
func ParseRequirement(text string) (types.Requirement, error) {
	trimmed := strings.TrimSpace(text)
	req := types.Requirement{Raw: trimmed}
	if trimmed == "" {
		return req, nil
	}
	for _, token := range strings.Fields(trimmed) {
		atoms, err := parseAtomToken(token)
		if err != nil {
			return types.Requirement{}, err
		}
		for _, atom := range atoms {
			switch atom.Kind {
			case types.AtomKindVersion:
				if !req.Range.IsOpen() {
					return types.Requirement{}, errbuilder.New().
						WithCode(errbuilder.CodeInvalidArgument).
						WithMsg(fmt.Sprintf("requirement has multiple version windows: %s", trimmed))
				}
				req.Range = atom.Range
			case types.AtomKindCompiler:
				return types.Requirement{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("compiler atom not allowed in requirement: %s", token))
			default:
				req.Atoms = append(req.Atoms, atom)
			}
		}
	}
	return req, nil
}

// ParseOverrides parses requested root adjustments ("+cuda",
// "cxxstd=17", "@1.9:") into atoms. Version atoms stay atoms here; the
// graph builder folds them into the root's version windows.
func ParseOverrides(tokens []string) ([]*types.Atom, error) {
	var atoms []*types.Atom
	for _, token := range tokens {
		for _, field := range strings.Fields(token) {
			parsed, err := parseAtomToken(field)
			if err != nil {
				return nil, err
			}
			atoms = append(atoms, parsed...)
		}
	}
	return atoms, nil
}

// ParseCompilerFacts parses a "name" or "name@version" toolchain
// declaration into resolution facts.
func ParseCompilerFacts(text string) (types.Facts, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return types.Facts{}, nil
	}
	name, version, _ := strings.Cut(trimmed, "@")
	if strings.TrimSpace(name) == "" {
		return types.Facts{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid compiler declaration: %s", text))
	}
	return types.Facts{
		Compiler:        strings.TrimSpace(name),
		CompilerVersion: strings.TrimSpace(version),
	}, nil
}

// ParseVersionRange parses recipe range syntax: "1.2:" (1.2 and
// above), ":2.0" (up to 2.0), "1.2:2.0", or a bare "1.2" pin. Bounds
// are inclusive.
func ParseVersionRange(text string) (types.VersionRange, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return types.VersionRange{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty version range")
	}
	if !strings.Contains(trimmed, ":") {
		return types.VersionRange{Lo: trimmed, Hi: trimmed}, nil
	}
	lo, hi, _ := strings.Cut(trimmed, ":")
	return types.VersionRange{Lo: strings.TrimSpace(lo), Hi: strings.TrimSpace(hi)}, nil
}

// parseAtomToken parses a single space-delimited token into one or
// more atoms. A comma-separated value list ("cuda_arch=60,70") expands
// into one membership atom per element.
func parseAtomToken(token string) ([]*types.Atom, error) {
	switch {
	case strings.HasPrefix(token, "@"):
		r, err := ParseVersionRange(token[1:])
		if err != nil {
			return nil, err
		}
		return []*types.Atom{{Kind: types.AtomKindVersion, Range: r}}, nil
	case strings.HasPrefix(token, "%"):
		return parseCompilerAtom(token)
	case strings.HasPrefix(token, "+"):
		return boolAtom(token[1:], true, token)
	case strings.HasPrefix(token, "~"), strings.HasPrefix(token, "-"):
		return boolAtom(token[1:], false, token)
	case strings.Contains(token, "="):
		return parseValueAtoms(token)
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unrecognized predicate atom: %s", token))
	}
}

func boolAtom(name string, value bool, token string) ([]*types.Atom, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid bool atom: %s", token))
	}
	return []*types.Atom{{Kind: types.AtomKindBool, Variant: name, BoolValue: value}}, nil
}

func parseValueAtoms(token string) ([]*types.Atom, error) {
	name, rest, _ := strings.Cut(token, "=")
	if name == "" || rest == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid value atom: %s", token))
	}
	var atoms []*types.Atom
	for _, value := range strings.Split(rest, ",") {
		if value == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid value atom: %s", token))
		}
		atoms = append(atoms, &types.Atom{Kind: types.AtomKindValue, Variant: name, Value: value})
	}
	return atoms, nil
}

func parseCompilerAtom(token string) ([]*types.Atom, error) {
	body := token[1:]
	name := body
	var window types.VersionRange
	if before, after, ok := strings.Cut(body, "@"); ok {
		name = before
		parsed, err := ParseVersionRange(after)
		if err != nil {
			return nil, err
		}
		window = parsed
	}
	if strings.TrimSpace(name) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid compiler atom: %s", token))
	}
	return []*types.Atom{{Kind: types.AtomKindCompiler, Compiler: name, Range: window}}, nil
}
