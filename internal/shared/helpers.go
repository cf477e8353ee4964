// Package shared provides common utility functions used across multiple
// packages in the concretizer codebase.
package shared

import (
	"fmt"
	"strings"
)

// NormalizePackageName lowercases a package name and replaces
// underscores with hyphens so recipe files and CLI arguments agree on
// one spelling.
func NormalizePackageName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	return strings.ReplaceAll(lower, "_", "-")
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}
