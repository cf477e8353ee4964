package ports

import "concretizer/internal/types"

type OutputPort interface {
	WriteLock(entries []types.LockEntry) error
	WriteGraph(canonical string, graphID string) error
	WriteResolutionReport(report types.ResolutionReport) error
}

type OutputReaderPort interface {
	ReadLock(path string) ([]types.LockEntry, error)
	ReadResolutionReport(path string) (types.ResolutionReport, error)
}
