package response

import (
	"time"

	"github.com/user/bookmark-service/internal/entity"
)

type MessageAcceptedResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RunResponse is a DTO for an analysis run, mirroring entity.AnalysisRun
type RunResponse struct {
	ID         string                  `json:"id"`
	Trigger    string                  `json:"trigger"`
	Status     string                  `json:"status"` // "running", "completed", "failed", "canceled"
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt *time.Time              `json:"finished_at,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Summary    entity.RunSummary       `json:"summary"`
	Results    []entity.AnalysisResult `json:"results"`
}

// NewRunResponse builds the DTO. results replaces run.Results so callers can
// pass a filtered subset.
func NewRunResponse(run *entity.AnalysisRun, results []entity.AnalysisResult) RunResponse {
	if results == nil {
		results = []entity.AnalysisResult{}
	}
	return RunResponse{
		ID:         run.ID,
		Trigger:    string(run.Trigger),
		Status:     string(run.Status),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Error:      run.Error,
		Summary:    run.Summary,
		Results:    results,
	}
}
