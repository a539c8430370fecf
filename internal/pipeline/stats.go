package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/institution-research/internal/cost"
	"github.com/sells-group/institution-research/internal/model"
	"github.com/sells-group/institution-research/internal/resilience"
)

// Stats summarizes a run.
type Stats struct {
	RunID string

	WorkItems          int
	ExecutorFailures   int
	ExtractionFailures int
	Unrecognized       int
	Deletions          int
	SchemaSkips        int
	DuplicatesDropped  int

	Usage cost.Usage
	// Cost is the estimated USD spend.
	Cost float64

	Failures []resilience.Failure
	Phases   []model.PhaseResult
}

// Log writes the statistics to log.
func (s Stats) Log(log *zap.Logger) {
	log.Info("pipeline: run complete",
		zap.Int("work_items", s.WorkItems),
		zap.Int("executor_failures", s.ExecutorFailures),
		zap.Int("extraction_failures", s.ExtractionFailures),
		zap.Int("unrecognized", s.Unrecognized),
		zap.Int("deletions", s.Deletions),
		zap.Int("schema_skips", s.SchemaSkips),
		zap.Int("duplicates_dropped", s.DuplicatesDropped),
		zap.Int("input_tokens", s.Usage.InputTokens),
		zap.Int("output_tokens", s.Usage.OutputTokens),
		zap.Int("jina_tokens", s.Usage.JinaTokens),
		zap.Float64("estimated_cost_usd", s.Cost),
	)
	for _, f := range s.Failures {
		log.Warn("pipeline: failed work item",
			zap.Int("seq", f.Seq),
			zap.String("kind", string(f.Kind)),
			zap.String("subject", f.Subject),
			zap.String("class", f.Class),
			zap.String("error", f.Error),
		)
	}
}
