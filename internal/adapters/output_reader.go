package adapters

import (
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"concretizer/internal/ports"
	"concretizer/internal/types"
)

type OutputReaderAdapter struct{}

func NewOutputReaderAdapter() OutputReaderAdapter {
	return OutputReaderAdapter{}
}

func (a OutputReaderAdapter) ReadLock(path string) ([]types.LockEntry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("spec.lock not found").
			WithCause(err)
	}
	var entries []types.LockEntry
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		head, spec, _ := strings.Cut(line, " ")
		pkg, version, ok := strings.Cut(head, "=")
		if !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid spec.lock format")
		}
		entries = append(entries, types.LockEntry{
			Package: pkg,
			Version: version,
			Spec:    spec,
		})
	}
	return entries, nil
}

func (a OutputReaderAdapter) ReadResolutionReport(path string) (types.ResolutionReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("resolve.report not found").
			WithCause(err)
	}
	var report types.ResolutionReport
	if err := yaml.Unmarshal(content, &report); err != nil {
		return types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse resolve.report").
			WithCause(err)
	}
	if strings.TrimSpace(report.GraphID) == "" {
		return types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("resolve.report missing graph_id")
	}
	return report, nil
}

var _ ports.OutputReaderPort = OutputReaderAdapter{}
