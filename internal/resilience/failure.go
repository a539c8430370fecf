package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/institution-research/internal/model"
)

// Error classes reported by Classify.
const (
	ClassTransient = "transient"
	ClassTimeout   = "timeout"
	ClassPermanent = "permanent"
)

// Failure records a work item whose executor call failed after retries. The
// run continues; failures are reported in the run statistics.
type Failure struct {
	Seq      int            `json:"seq"`
	Kind     model.WorkKind `json:"kind"`
	Subject  string         `json:"subject"`
	Error    string         `json:"error"`
	Class    string         `json:"class"`
	FailedAt time.Time      `json:"failed_at"`
}

// NewFailure builds a Failure for item from err.
func NewFailure(item model.WorkItem, err error) Failure {
	return Failure{
		Seq:      item.Seq,
		Kind:     item.Kind,
		Subject:  item.Subject,
		Error:    err.Error(),
		Class:    Classify(err),
		FailedAt: time.Now().UTC(),
	}
}

// Classify categorizes an error as transient, timeout or permanent.
func Classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case IsTransient(err):
		return ClassTransient
	default:
		return ClassPermanent
	}
}
