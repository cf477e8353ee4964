package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"concretizer/internal/ports"
	"concretizer/internal/types"
)

type OutputFileAdapter struct {
	Dir string
}

func NewOutputFileAdapter(dir string) OutputFileAdapter {
	return OutputFileAdapter{Dir: dir}
}

// WriteLock writes spec.lock, one "package=version spec" line per node,
// sorted by package name.
func (a OutputFileAdapter) WriteLock(entries []types.LockEntry) error {
	path, err := a.ensurePath("spec.lock")
	if err != nil {
		return err
	}
	ordered := append([]types.LockEntry(nil), entries...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Package < ordered[j].Package
	})
	var lines []string
	for _, entry := range ordered {
		lines = append(lines, fmt.Sprintf("%s=%s %s", entry.Package, entry.Version, entry.Spec))
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

// WriteGraph writes graph.spec: the canonical rendering prefixed with
// the graph ID, so two lock directories can be compared with diff.
func (a OutputFileAdapter) WriteGraph(canonical string, graphID string) error {
	path, err := a.ensurePath("graph.spec")
	if err != nil {
		return err
	}
	content := fmt.Sprintf("# graph %s\n%s", graphID, canonical)
	return os.WriteFile(path, []byte(content), 0644)
}

func (a OutputFileAdapter) WriteResolutionReport(report types.ResolutionReport) error {
	path, err := a.ensurePath("resolve.report")
	if err != nil {
		return err
	}
	sort.Slice(report.Locks, func(i, j int) bool {
		return report.Locks[i].Package < report.Locks[j].Package
	})
	sort.Slice(report.Edges, func(i, j int) bool {
		return report.Edges[i].RuleID < report.Edges[j].RuleID
	})
	data, err := yaml.Marshal(report)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal resolution report").
			WithCause(err)
	}
	return os.WriteFile(path, data, 0644)
}

func (a OutputFileAdapter) ensurePath(name string) (string, error) {
	if strings.TrimSpace(a.Dir) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0o750); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, name), nil
}

var _ ports.OutputPort = OutputFileAdapter{}
