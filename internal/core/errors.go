package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"concretizer/internal/types"
)

// UnsatisfiableError carries the minimal conflicting rule set of a
// failed resolution as structured data. It is always wrapped in an
// errbuilder error with CodeFailedPrecondition; callers extract it
// with ConflictRules for user-facing formatting.
type UnsatisfiableError struct {
	Rules []types.RuleRef
}

func (e *UnsatisfiableError) Error() string {
	ids := make([]string, 0, len(e.Rules))
	for _, rule := range e.Rules {
		ids = append(ids, rule.ID)
	}
	return fmt.Sprintf("conflicting rules: %s", strings.Join(ids, ", "))
}

// ConflictRules extracts the minimal conflicting rule set from a
// resolution error, if present.
func ConflictRules(err error) []types.RuleRef {
	var unsat *UnsatisfiableError
	if errors.As(err, &unsat) {
		return unsat.Rules
	}
	return nil
}

func unsatisfiableErr(msg string, refs []types.RuleRef) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("unsatisfiable constraints: %s", msg)).
		WithCause(&UnsatisfiableError{Rules: dedupeRefs(refs)})
}

func cyclicErr(path []string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> ")))
}

func timeoutErr(cause error) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg("resolution budget exceeded")
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return builder
}

// dedupeRefs drops duplicate rule references and orders the rest by ID
// so diagnostics are stable across runs.
func dedupeRefs(refs []types.RuleRef) []types.RuleRef {
	seen := map[string]struct{}{}
	out := make([]types.RuleRef, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
