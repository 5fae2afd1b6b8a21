package entity

import "time"

// Trigger names what started an analysis run.
type Trigger string

const (
	TriggerInstalled Trigger = "installed"
	TriggerMessage   Trigger = "message"
	TriggerInline    Trigger = "inline"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// AnalysisRun is one invocation of the analyzer over a bookmark tree,
// together with its ordered results.
type AnalysisRun struct {
	ID         string
	Trigger    Trigger
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Error      string
	Summary    RunSummary
	Results    []AnalysisResult
}

type RunSummary struct {
	Leaves     int `json:"leaves"`
	Unique     int `json:"unique"`
	Duplicates int `json:"duplicates"`
	Broken     int `json:"broken"`
}

// Summarize counts the classifications in results.
func Summarize(results []AnalysisResult) RunSummary {
	s := RunSummary{Leaves: len(results)}
	for _, r := range results {
		if r.Duplicate {
			s.Duplicates++
			continue
		}
		s.Unique++
		if r.IsBroken() {
			s.Broken++
		}
	}
	return s
}
