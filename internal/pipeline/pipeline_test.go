package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/institution-research/internal/executor"
	"github.com/sells-group/institution-research/internal/model"
	"github.com/sells-group/institution-research/internal/resilience"
)

const acmeJSON = `{"name":"Acme","type":"company","website_url":"https://acme.com","careers_url":"https://acme.com/careers"}`

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	exec := newScripted(map[string]string{
		"discover_interest:robotics": `Here are the institutions:
["Gone", "Acme", "Acme Holding", "Amazon"]`,
		"detail:Gone":         `["delete"]`,
		"detail:Acme":         "Found it.\n```json\n[" + acmeJSON + "]\n```\nHope this helps.",
		"detail:Acme Holding": `[{"name":" ACME ","type":"company","website_url":"HTTPS://ACME.COM","careers_url":"https://acme.com/jobs"}]`,
	})

	p := New(exec, testPrefs(), Options{Concurrency: 1}, nil)
	recs, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, recs, 1)
	assert.Equal(t, "Acme", recs[0].Name)
	assert.Equal(t, "https://acme.com/careers", recs[0].CareersURL)
	assert.Equal(t, "robotics", recs[0].InterestMatch)

	// Amazon is excluded and never researched.
	assert.Len(t, exec.callsOf(model.WorkKindDetail), 3)

	stats := p.Stats()
	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 4, stats.WorkItems)
	assert.Equal(t, 1, stats.Deletions)
	assert.Equal(t, 1, stats.DuplicatesDropped)
	assert.Zero(t, stats.ExecutorFailures)
	assert.Equal(t, 4000, stats.Usage.InputTokens)
	assert.Greater(t, stats.Cost, 0.0)

	require.Len(t, stats.Phases, 4)
	assert.Equal(t, "discover", stats.Phases[0].Name)
	assert.Equal(t, 1, stats.Phases[0].Items)
	assert.Equal(t, 3, stats.Phases[0].Output)
	assert.Equal(t, model.PhaseStatusSkipped, stats.Phases[2].Status)
	assert.Equal(t, 1, stats.Phases[3].Output)
	assert.Equal(t, "deduplicate", stats.Phases[3].Name)
	assert.Equal(t, model.PhaseStatusComplete, stats.Phases[3].Status)
}

func TestTrackPhase_ReturnsError(t *testing.T) {
	t.Parallel()

	p := New(newScripted(nil), testPrefs(), Options{}, nil)
	boom := errors.New("boom")

	err := p.trackPhase("deduplicate", func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	phases := p.Stats().Phases
	require.Len(t, phases, 1)
	assert.Equal(t, model.PhaseStatusFailed, phases[0].Status)
	assert.Equal(t, "boom", phases[0].Error)
}

func TestRun_FixtureExecutor(t *testing.T) {
	t.Parallel()

	fx, err := executor.ParseFixture([]byte(`
responses:
  "discover_interest:robotics": '["Acme"]'
  "detail:acme": '` + acmeJSON + `'
`))
	require.NoError(t, err)

	recs, err := New(fx, testPrefs(), Options{}, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Acme", recs[0].Name)
}

func TestRun_SeedsAndValidation(t *testing.T) {
	t.Parallel()

	prefs := testPrefs()
	prefs.CompaniesOfInterest = []string{"TNO", "Amazon"}

	exec := newScripted(map[string]string{
		"discover_interest:robotics": `[]`,
		"similar:TNO":                `["SURF", "tno"]`,
		"detail:TNO":                 `{"name":"TNO","type":"research_institute","website_url":"https://tno.nl","careers_url":"https://tno.nl/werken"}`,
		"detail:SURF":                `{"name":"SURF","type":"government","website_url":"https://surf.nl","careers_url":"https://surf.nl/vacatures","interest_match":"hpc"}`,
		"validate:TNO":               `[{"name":"TNO","type":"research_institute","website_url":"https://www.tno.nl","careers_url":"https://www.tno.nl/en/careers"}]`,
		"validate:SURF":              `I could not verify this record.`,
	})

	p := New(exec, prefs, Options{Concurrency: 2, Validate: true}, nil)
	recs, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Equal(t, "TNO", recs[0].Name)
	assert.Equal(t, "https://www.tno.nl/en/careers", recs[0].CareersURL)
	assert.Equal(t, "user provided", recs[0].InterestMatch)
	assert.Equal(t, "SURF", recs[1].Name)
	assert.Equal(t, "hpc", recs[1].InterestMatch)

	// Amazon is both a seed and excluded: no similar search for it.
	assert.Len(t, exec.callsOf(model.WorkKindSimilar), 1)

	validate := exec.callsOf(model.WorkKindValidate)
	require.Len(t, validate, 2)
	for _, item := range validate {
		if item.Subject == "TNO" {
			assert.Equal(t, []string{"https://tno.nl", "https://tno.nl/werken"}, item.URLs)
		}
	}

	stats := p.Stats()
	assert.Equal(t, 1, stats.ExtractionFailures)
	assert.Equal(t, 1, stats.Unrecognized) // the empty discovery array
}

func TestEnrich_SimilarOrigin(t *testing.T) {
	t.Parallel()

	exec := newScripted(map[string]string{"detail:SURF": `{"name":"SURF","type":"government","website_url":"https://surf.nl","careers_url":"https://surf.nl/jobs"}`})
	p := New(exec, testPrefs(), Options{}, nil)

	rs, err := p.Enrich(context.Background(), []Candidate{{Name: "SURF", Origin: Origin{Kind: OriginSimilar, Ref: "TNO"}}})
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, "similar to TNO", rs.Records()[0].InterestMatch)
}

func TestValidate_DeleteDropsRecord(t *testing.T) {
	t.Parallel()

	exec := newScripted(map[string]string{
		"validate:Acme":  `"delete"`,
		"validate:Other": `[{"name":"Other","type":"startup","website_url":"https://o.io","careers_url":"https://o.io/jobs"},{"name":"Other Labs","type":"startup","website_url":"https://labs.o.io","careers_url":"https://labs.o.io/jobs"}]`,
	})
	p := New(exec, testPrefs(), Options{}, nil)

	other := inst("Other", "https://o.io")
	other.InterestMatch = "robotics"
	out, err := p.Validate(context.Background(), NewResultSet(inst("Acme", "https://acme.com"), other))
	require.NoError(t, err)

	recs := out.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "Other", recs[0].Name)
	assert.Equal(t, "Other Labs", recs[1].Name)
	assert.Equal(t, "robotics", recs[1].InterestMatch)
	assert.Equal(t, 1, p.Stats().Deletions)
}

func TestValidate_ExecutorFailureKeepsRecord(t *testing.T) {
	t.Parallel()

	exec := newScripted(nil)
	exec.errs["validate:Acme"] = resilience.NewTransientError(errors.New("overloaded"), 529)
	p := New(exec, testPrefs(), Options{}, nil)

	out, err := p.Validate(context.Background(), NewResultSet(inst("Acme", "https://acme.com")))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())

	stats := p.Stats()
	assert.Equal(t, 1, stats.ExecutorFailures)
	require.Len(t, stats.Failures, 1)
	assert.Equal(t, resilience.ClassTransient, stats.Failures[0].Class)
	assert.Equal(t, "Acme", stats.Failures[0].Subject)
}

func TestDiscover_ExtendRounds(t *testing.T) {
	t.Parallel()

	exec := newScripted(map[string]string{
		"discover_interest:robotics": `["Acme"]`,
		"extend_interest:robotics":   `["Beta Robotics", "Acme"]`,
	})
	p := New(exec, testPrefs(), Options{ExtendRounds: 1}, nil)

	cands, err := p.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "Acme", cands[0].Name)
	assert.Equal(t, "Beta Robotics", cands[1].Name)
	assert.Equal(t, Origin{Kind: OriginInterest, Ref: "robotics"}, cands[1].Origin)

	extend := exec.callsOf(model.WorkKindExtendInterest)
	require.Len(t, extend, 1)
	assert.Contains(t, extend[0].Prompt, "- Acme")
}

func TestExecute_PreservesSubmissionOrder(t *testing.T) {
	t.Parallel()

	exec := newScripted(map[string]string{
		"detail:a": "1", "detail:b": "2", "detail:c": "3", "detail:d": "4",
	})
	// Earlier items finish last.
	exec.delays["detail:a"] = 40 * time.Millisecond
	exec.delays["detail:b"] = 30 * time.Millisecond
	exec.delays["detail:c"] = 20 * time.Millisecond

	p := New(exec, testPrefs(), Options{Concurrency: 4}, nil)
	items := []model.WorkItem{
		{Kind: model.WorkKindDetail, Subject: "a"},
		{Kind: model.WorkKindDetail, Subject: "b"},
		{Kind: model.WorkKindDetail, Subject: "c"},
		{Kind: model.WorkKindDetail, Subject: "d"},
	}

	outs, err := p.execute(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, outs, 4)
	for i, o := range outs {
		assert.True(t, o.ok)
		assert.Equal(t, i+1, o.item.Seq)
		assert.Equal(t, items[i].Subject, o.item.Subject)
	}
	assert.Equal(t, "1", outs[0].text)
	assert.Equal(t, "4", outs[3].text)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	exec := newScripted(map[string]string{"discover_interest:robotics": `["Acme"]`})
	exec.delays["discover_interest:robotics"] = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := New(exec, testPrefs(), Options{}, nil).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_ExecutorFailuresAreRecoverable(t *testing.T) {
	t.Parallel()

	exec := newScripted(map[string]string{
		"discover_interest:robotics": `["Acme", "Broken"]`,
		"detail:Acme":                acmeJSON,
	})
	p := New(exec, testPrefs(), Options{}, nil)

	recs, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, p.Stats().ExecutorFailures)
	assert.Equal(t, resilience.ClassPermanent, p.Stats().Failures[0].Class)
}
