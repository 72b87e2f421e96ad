package ports

import (
	"context"

	"adinsight/domain/core"
	"adinsight/domain/insight"
)

// RunRecord is one completed pipeline run: the query, the summary it was
// computed from, and every evaluated hypothesis.
type RunRecord struct {
	ID         core.RunID                    `json:"id"`
	Query      string                        `json:"query"`
	Summary    *insight.PerformanceSummary   `json:"summary"`
	Hypotheses []insight.EvaluatedHypothesis `json:"hypotheses"`
	IdeaCount  int                           `json:"idea_count"`
	StartedAt  core.Timestamp                `json:"started_at"`
	FinishedAt core.Timestamp                `json:"finished_at"`
}

// RunRepository persists completed runs. Persistence is an optional
// collaborator: a nil repository simply skips it.
type RunRepository interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id core.RunID) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)
}
