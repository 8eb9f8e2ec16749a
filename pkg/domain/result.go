package domain

// RunStatus is the terminal state of one source's pipeline run.
type RunStatus string

const (
	// StatusCompleted means every discovery endpoint and entry processed cleanly.
	StatusCompleted RunStatus = "completed"
	// StatusCompletedWithErrors means discovery produced entries but some
	// endpoints or individual articles failed along the way.
	StatusCompletedWithErrors RunStatus = "completed_with_errors"
	// StatusFailed means discovery could not produce a single entry.
	StatusFailed RunStatus = "failed"
)

// SourceRunResult is the per-source outcome collected by the orchestrator.
// One source's result never reflects another source's failures.
type SourceRunResult struct {
	SourceID    string
	Articles    []Article
	EntriesSeen int
	Skipped     int
	Errors      []string
	Status      RunStatus
}

// Succeeded reports whether the source produced a usable result.
func (r *SourceRunResult) Succeeded() bool {
	return r.Status != StatusFailed
}
