package model

// PhaseStatus represents the outcome of a pipeline stage.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of one pipeline stage.
type PhaseResult struct {
	Name     string      `json:"name"`
	Status   PhaseStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	// Items is the number of work items the stage submitted.
	Items int `json:"items"`
	// Output is the number of names or records the stage produced.
	Output int    `json:"output"`
	Error  string `json:"error,omitempty"`
}
