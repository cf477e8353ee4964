package types

import (
	"sort"
	"strings"
)

// Value holds a concrete variant value. Which field is meaningful is
// determined by the owning variant's kind: Bool for bool variants, Enum
// for single-valued enums, Set for multi-valued sets. Set is kept
// sorted so values compare and render deterministically.
type Value struct {
	Bool bool
	Enum string
	Set  []string
}

func BoolValue(v bool) Value {
	return Value{Bool: v}
}

func EnumValue(v string) Value {
	return Value{Enum: v}
}

func SetValue(elements []string) Value {
	ordered := append([]string(nil), elements...)
	sort.Strings(ordered)
	return Value{Set: ordered}
}

// Equal compares two values under the given kind.
func (v Value) Equal(kind VariantKind, other Value) bool {
	switch kind {
	case VariantKindBool:
		return v.Bool == other.Bool
	case VariantKindEnum:
		return v.Enum == other.Enum
	case VariantKindSet:
		if len(v.Set) != len(other.Set) {
			return false
		}
		for i := range v.Set {
			if v.Set[i] != other.Set[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Contains reports whether a set value includes the given element.
func (v Value) Contains(element string) bool {
	for _, e := range v.Set {
		if e == element {
			return true
		}
	}
	return false
}

// Render returns the canonical spec-syntax form of a variant value:
// "+name" / "~name" for bools, "name=value" for enums, and
// "name=a,b,c" for sets ("name=none" when the set is empty).
func (v Value) Render(kind VariantKind, name string) string {
	switch kind {
	case VariantKindBool:
		if v.Bool {
			return "+" + name
		}
		return "~" + name
	case VariantKindEnum:
		return name + "=" + v.Enum
	case VariantKindSet:
		if len(v.Set) == 0 {
			return name + "=none"
		}
		return name + "=" + strings.Join(v.Set, ",")
	default:
		return name
	}
}

// Variant is a named configurable build option of a package. Domain
// lists the allowed values for enum and set kinds; bool variants have
// an implicit true/false domain. When gates the versions (or variant
// combinations) under which the variant exists at all; a nil predicate
// means always applicable.
type Variant struct {
	Name        string
	Kind        VariantKind
	Domain      []string
	Default     Value
	When        *Predicate
	Description string
}

// InDomain reports whether value lies in the variant's domain. Bool
// variants accept any value; set variants require every element to be
// a domain member.
func (v Variant) InDomain(value Value) bool {
	switch v.Kind {
	case VariantKindBool:
		return true
	case VariantKindEnum:
		return v.domainHas(value.Enum)
	case VariantKindSet:
		for _, element := range value.Set {
			if !v.domainHas(element) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Variant) domainHas(value string) bool {
	for _, d := range v.Domain {
		if d == value {
			return true
		}
	}
	return false
}
