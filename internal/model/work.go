package model

import "fmt"

// WorkKind identifies what a work item asks the research executor to do.
type WorkKind string

const (
	WorkKindDiscoverInterest WorkKind = "discover_interest"
	WorkKindExtendInterest   WorkKind = "extend_interest"
	WorkKindSimilar          WorkKind = "similar"
	WorkKindDetail           WorkKind = "detail"
	WorkKindValidate         WorkKind = "validate"
)

// WorkItem is one unit of external research work. It yields at most one raw
// text blob from the executor.
type WorkItem struct {
	// Seq is the submission order within a stage.
	Seq     int      `json:"seq"`
	Kind    WorkKind `json:"kind"`
	Subject string   `json:"subject"`
	// Query is a web search query the executor may run for context.
	Query string `json:"query,omitempty"`
	// URLs are pages the executor may read for context.
	URLs   []string `json:"urls,omitempty"`
	System string   `json:"system,omitempty"`
	Prompt string   `json:"prompt"`
}

// FixtureKey is the "kind:subject" key used to look up canned responses.
func (w WorkItem) FixtureKey() string {
	return fmt.Sprintf("%s:%s", w.Kind, w.Subject)
}
