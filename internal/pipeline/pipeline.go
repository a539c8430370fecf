// Package pipeline runs a research job end to end: discover candidate names,
// enrich each into a record, validate records, then deduplicate.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/institution-research/internal/config"
	"github.com/sells-group/institution-research/internal/cost"
	"github.com/sells-group/institution-research/internal/executor"
	"github.com/sells-group/institution-research/internal/extract"
	"github.com/sells-group/institution-research/internal/model"
	"github.com/sells-group/institution-research/internal/resilience"
)

// Options tune a run.
type Options struct {
	// Concurrency caps in-flight work items. 1 runs them one at a time.
	Concurrency int
	// ExtendRounds is the number of follow-up discovery rounds per interest.
	ExtendRounds int
	// Validate enables the validation stage.
	Validate bool
	// Verbose logs raw executor output at info level.
	Verbose bool
}

// Pipeline orchestrates the stages of a research run. Each stage can also be
// called on its own with synthetic upstream output.
type Pipeline struct {
	exec  executor.Executor
	prefs *config.Preferences
	opts  Options
	calc  *cost.Calculator
	log   *zap.Logger

	seq   int
	mu    sync.Mutex
	stats Stats
}

// New creates a Pipeline. calc may be nil, in which case default rates apply.
func New(exec executor.Executor, prefs *config.Preferences, opts Options, calc *cost.Calculator) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if calc == nil {
		calc = cost.NewCalculator(cost.DefaultRates())
	}
	runID := uuid.NewString()
	return &Pipeline{
		exec:  exec,
		prefs: prefs,
		opts:  opts,
		calc:  calc,
		log:   zap.L().With(zap.String("run_id", runID), zap.String("executor", exec.Name())),
		stats: Stats{RunID: runID},
	}
}

// Run executes discover, enrich, validate and deduplicate, returning the
// final records. Only context cancellation aborts a run; per-item failures
// are logged and counted.
func (p *Pipeline) Run(ctx context.Context) ([]model.Institution, error) {
	p.log.Info("pipeline: starting research run",
		zap.Strings("interests", p.prefs.Interests),
		zap.Strings("seeds", p.prefs.CompaniesOfInterest),
		zap.Int("concurrency", p.opts.Concurrency),
	)

	var cands []Candidate
	if err := p.trackPhase("discover", func() (int, error) {
		var err error
		cands, err = p.Discover(ctx)
		return len(cands), err
	}); err != nil {
		return nil, err
	}

	var rs *ResultSet
	if err := p.trackPhase("enrich", func() (int, error) {
		var err error
		if rs, err = p.Enrich(ctx, cands); err != nil {
			return 0, err
		}
		return rs.Len(), nil
	}); err != nil {
		return nil, err
	}

	if p.opts.Validate {
		if err := p.trackPhase("validate", func() (int, error) {
			validated, err := p.Validate(ctx, rs)
			if err != nil {
				return 0, err
			}
			rs = validated
			return rs.Len(), nil
		}); err != nil {
			return nil, err
		}
	} else {
		p.addPhase(model.PhaseResult{Name: "validate", Status: model.PhaseStatusSkipped})
	}

	var final []model.Institution
	if err := p.trackPhase("deduplicate", func() (int, error) {
		var dropped int
		final, dropped = Deduplicate(rs.Records())
		p.update(func(s *Stats) { s.DuplicatesDropped += dropped })
		return len(final), nil
	}); err != nil {
		return nil, err
	}

	p.Stats().Log(p.log)
	return final, nil
}

// Discover runs interest discovery, extension rounds and seed-company
// similarity searches, returning unique non-excluded candidates in the order
// found.
func (p *Pipeline) Discover(ctx context.Context) ([]Candidate, error) {
	queue := NewNameQueue(p.prefs.CompaniesToExclude)
	found := make(map[string][]string, len(p.prefs.Interests))

	collect := func(outs []outcome, origin func(subject string) Origin) {
		for _, o := range outs {
			if !o.ok {
				continue
			}
			for _, name := range p.names(o) {
				found[o.item.Subject] = append(found[o.item.Subject], name)
				queue.Push(Candidate{Name: name, Origin: origin(o.item.Subject)})
			}
		}
	}
	byInterest := func(subject string) Origin { return Origin{Kind: OriginInterest, Ref: subject} }

	items := make([]model.WorkItem, 0, len(p.prefs.Interests))
	for _, interest := range p.prefs.Interests {
		items = append(items, discoverItem(p.prefs, interest))
	}
	outs, err := p.execute(ctx, items)
	if err != nil {
		return nil, err
	}
	collect(outs, byInterest)

	for round := 1; round <= p.opts.ExtendRounds; round++ {
		var extend []model.WorkItem
		for _, interest := range p.prefs.Interests {
			if len(found[interest]) > 0 {
				extend = append(extend, extendItem(p.prefs, interest, found[interest]))
			}
		}
		if len(extend) == 0 {
			break
		}
		outs, err := p.execute(ctx, extend)
		if err != nil {
			return nil, err
		}
		collect(outs, byInterest)
		p.log.Info("pipeline: extension round complete", zap.Int("round", round), zap.Int("pending", queue.Len()))
	}

	var similar []model.WorkItem
	for _, seed := range p.prefs.CompaniesOfInterest {
		if queue.Excluded(seed) {
			p.log.Warn("pipeline: seed company is also excluded, skipping", zap.String("seed", seed))
			continue
		}
		queue.Push(Candidate{Name: seed, Origin: Origin{Kind: OriginSeed, Ref: seed}})
		similar = append(similar, similarItem(p.prefs, seed))
	}
	outs, err = p.execute(ctx, similar)
	if err != nil {
		return nil, err
	}
	collect(outs, func(subject string) Origin { return Origin{Kind: OriginSimilar, Ref: subject} })

	p.log.Info("pipeline: discovery complete", zap.Int("candidates", queue.Len()))
	return queue.Pending(), nil
}

// Enrich researches each candidate into a record. A delete answer removes
// the candidate from the pending queue and adds nothing.
func (p *Pipeline) Enrich(ctx context.Context, cands []Candidate) (*ResultSet, error) {
	queue := NewNameQueue(p.prefs.CompaniesToExclude)
	for _, c := range cands {
		queue.Push(c)
	}
	pending := queue.Pending()

	items := make([]model.WorkItem, len(pending))
	for i, c := range pending {
		items[i] = detailItem(p.prefs, c.Name)
	}
	outs, err := p.execute(ctx, items)
	if err != nil {
		return nil, err
	}

	rs := NewResultSet()
	for i, o := range outs {
		if !o.ok {
			continue
		}
		out := p.coerce(o)
		switch out.Kind {
		case extract.OutcomeDeleted:
			queue.Remove(pending[i].Name)
			p.update(func(s *Stats) { s.Deletions++ })
		case extract.OutcomeRecords:
			match := pending[i].Origin.InterestMatch()
			for _, rec := range out.Records {
				if rec.InterestMatch == "" {
					rec.InterestMatch = match
				}
				rs.Append(rec)
			}
		}
	}

	p.log.Info("pipeline: enrichment complete",
		zap.Int("records", rs.Len()),
		zap.Int("remaining_names", queue.Len()),
	)
	return rs, nil
}

// Validate re-checks each record. A delete answer drops the record, records
// replace it, and anything else keeps the original.
func (p *Pipeline) Validate(ctx context.Context, rs *ResultSet) (*ResultSet, error) {
	recs := rs.Records()
	items := make([]model.WorkItem, len(recs))
	for i, rec := range recs {
		items[i] = validateItem(p.prefs, rec)
	}
	outs, err := p.execute(ctx, items)
	if err != nil {
		return nil, err
	}

	validated := NewResultSet()
	for i, o := range outs {
		orig := recs[i]
		if !o.ok {
			validated.Append(orig)
			continue
		}

		out := p.coerce(o)
		switch {
		case out.Kind == extract.OutcomeDeleted:
			p.update(func(s *Stats) { s.Deletions++ })
			p.log.Info("pipeline: validation removed institution", zap.String("name", orig.Name))
		case out.Kind == extract.OutcomeRecords && len(out.Records) > 0:
			for _, rec := range out.Records {
				if rec.InterestMatch == "" {
					rec.InterestMatch = orig.InterestMatch
				}
				validated.Append(rec)
			}
		default:
			p.log.Debug("pipeline: keeping unvalidated record", zap.String("name", orig.Name))
			validated.Append(orig)
		}
	}
	return validated, nil
}

// Stats returns a snapshot of the run statistics.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Failures = append([]resilience.Failure(nil), p.stats.Failures...)
	s.Phases = append([]model.PhaseResult(nil), p.stats.Phases...)
	return s
}

// outcome is the executor answer for one submitted work item.
type outcome struct {
	item model.WorkItem
	text string
	ok   bool
}

// execute runs items through the executor with at most Concurrency in
// flight. Outcomes are returned in submission order whatever the completion
// order. Failed items come back with ok unset; only cancellation is an error.
func (p *Pipeline) execute(ctx context.Context, items []model.WorkItem) ([]outcome, error) {
	outs := make([]outcome, len(items))
	if len(items) == 0 {
		return outs, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i := range items {
		p.seq++
		item := items[i]
		item.Seq = p.seq
		outs[i].item = item
		p.update(func(s *Stats) { s.WorkItems++ })

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resp, err := p.exec.Execute(gctx, item)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.recordFailure(item, err)
				return nil
			}
			p.recordUsage(resp.Usage)
			p.logRaw(item, resp.Text)
			outs[i].text = resp.Text
			outs[i].ok = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: execute work items")
	}
	return outs, nil
}

// names extracts candidate names from a discovery answer.
func (p *Pipeline) names(o outcome) []string {
	v, err := extract.Parse(o.text)
	if err != nil {
		p.extractionFailed(o.item, err)
		return nil
	}
	names, ok := extract.Names(v)
	if !ok {
		p.update(func(s *Stats) { s.Unrecognized++ })
		p.log.Warn("pipeline: discovery answer held no names",
			zap.String("kind", string(o.item.Kind)),
			zap.String("subject", o.item.Subject),
		)
		return nil
	}
	return names
}

// coerce extracts and coerces a record answer, counting what was lost.
func (p *Pipeline) coerce(o outcome) extract.Outcome {
	v, err := extract.Parse(o.text)
	if err != nil {
		p.extractionFailed(o.item, err)
		return extract.Outcome{Kind: extract.OutcomeUnrecognized, Reason: "no json found"}
	}

	out := extract.Coerce(v, o.item.Subject)
	p.update(func(s *Stats) {
		s.SchemaSkips += len(out.Skipped)
		if out.Kind == extract.OutcomeUnrecognized {
			s.Unrecognized++
		}
	})
	if out.Kind == extract.OutcomeUnrecognized {
		p.log.Warn("pipeline: unrecognized answer shape",
			zap.String("kind", string(o.item.Kind)),
			zap.String("subject", o.item.Subject),
			zap.String("reason", out.Reason),
		)
	}
	return out
}

func (p *Pipeline) extractionFailed(item model.WorkItem, err error) {
	p.update(func(s *Stats) { s.ExtractionFailures++ })
	p.log.Warn("pipeline: no JSON in executor answer",
		zap.String("kind", string(item.Kind)),
		zap.String("subject", item.Subject),
		zap.Error(err),
	)
}

func (p *Pipeline) recordFailure(item model.WorkItem, err error) {
	f := resilience.NewFailure(item, err)
	p.update(func(s *Stats) {
		s.ExecutorFailures++
		s.Failures = append(s.Failures, f)
	})
	p.log.Error("pipeline: work item failed",
		zap.String("kind", string(item.Kind)),
		zap.String("subject", item.Subject),
		zap.String("class", f.Class),
		zap.Error(err),
	)
}

func (p *Pipeline) recordUsage(u cost.Usage) {
	c := p.calc.Cost(u)
	p.update(func(s *Stats) {
		s.Usage.Add(u)
		s.Cost += c
	})
}

func (p *Pipeline) logRaw(item model.WorkItem, text string) {
	fields := []zap.Field{
		zap.String("kind", string(item.Kind)),
		zap.String("subject", item.Subject),
		zap.String("output", text),
	}
	if p.opts.Verbose {
		p.log.Info("pipeline: executor output", fields...)
		return
	}
	p.log.Debug("pipeline: executor output", fields...)
}

func (p *Pipeline) update(fn func(*Stats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.stats)
}

func (p *Pipeline) addPhase(r model.PhaseResult) {
	p.update(func(s *Stats) { s.Phases = append(s.Phases, r) })
}

// trackPhase times a stage and records its result.
func (p *Pipeline) trackPhase(name string, fn func() (int, error)) error {
	before := p.Stats().WorkItems
	start := time.Now()
	output, err := fn()

	res := model.PhaseResult{
		Name:     name,
		Status:   model.PhaseStatusComplete,
		Duration: time.Since(start).Milliseconds(),
		Items:    p.Stats().WorkItems - before,
		Output:   output,
	}
	if err != nil {
		res.Status = model.PhaseStatusFailed
		res.Error = err.Error()
		p.log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", res.Duration),
			zap.Error(err),
		)
	} else {
		p.log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Int64("duration_ms", res.Duration),
			zap.Int("items", res.Items),
			zap.Int("output", output),
		)
	}
	p.addPhase(res)
	return err
}
