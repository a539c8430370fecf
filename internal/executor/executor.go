// Package executor runs research work items against a web-grounded language
// model and returns its raw text answer.
package executor

import (
	"context"

	"github.com/sells-group/institution-research/internal/cost"
	"github.com/sells-group/institution-research/internal/model"
)

// Executor performs one work item and returns the model's free-form text.
// Implementations must be safe for concurrent use.
type Executor interface {
	Execute(ctx context.Context, item model.WorkItem) (*Response, error)
	Name() string
}

// Response is the raw answer for a work item.
type Response struct {
	Text  string
	Usage cost.Usage
	// Sources are URLs the backend consulted or cited.
	Sources []string
}

// SearchHint biases web search toward the user's region and language.
type SearchHint struct {
	// Country is an ISO 3166-1 alpha-2 code, e.g. "GB".
	Country string
	// Language is an ISO 639-1 code, e.g. "en".
	Language string
	// Results caps the number of search results per query.
	Results int
}
