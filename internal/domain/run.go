package domain

import "time"

// RunStatus is the terminal (or in-flight) state of a harvest run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success" // every source returned ok
	RunPartial RunStatus = "partial" // some sources ok, some failed
	RunFailed  RunStatus = "failed"  // every source failed (or the run was abandoned)
)

// SourceStatus is the per-source outcome inside a run.
type SourceStatus string

const (
	SourcePending SourceStatus = "pending" // transient; reconciled to failed if the process dies
	SourceOK      SourceStatus = "ok"
	SourceFailed  SourceStatus = "failed"
)

// HarvestRun records one coordinator invocation. Finalized exactly once;
// immutable afterwards.
type HarvestRun struct {
	RunID          string      `json:"runId"`
	StartedAt      time.Time   `json:"startedAt"`
	EndedAt        *time.Time  `json:"endedAt,omitempty"`
	Status         RunStatus   `json:"status"`
	NewCount       int         `json:"newCount"`
	DuplicateCount int         `json:"duplicateCount"`
	ErrorDetail    string      `json:"errorDetail,omitempty"`
	Sources        []RunSource `json:"sources,omitempty"`
}

// RunSource is the outcome of a single source within a run.
type RunSource struct {
	RunID          string       `json:"runId"`
	SourceID       string       `json:"sourceId"`
	Status         SourceStatus `json:"status"`
	NewCount       int          `json:"newCount"`
	DuplicateCount int          `json:"duplicateCount"`
	ErrorDetail    string       `json:"errorDetail,omitempty"`
}

// AggregateStatus folds per-source outcomes into the run status.
func AggregateStatus(sources []RunSource) RunStatus {
	ok, failed := 0, 0
	for _, s := range sources {
		switch s.Status {
		case SourceOK:
			ok++
		default:
			failed++
		}
	}
	switch {
	case ok > 0 && failed == 0:
		return RunSuccess
	case ok > 0:
		return RunPartial
	default:
		return RunFailed
	}
}
