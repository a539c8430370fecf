package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sells-group/institution-research/internal/config"
	"github.com/sells-group/institution-research/internal/cost"
	"github.com/sells-group/institution-research/internal/executor"
	"github.com/sells-group/institution-research/internal/model"
)

var errNoAnswer = errors.New("no scripted answer")

// scriptedExecutor answers work items by "kind:subject" key.
type scriptedExecutor struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	delays  map[string]time.Duration
	calls   []model.WorkItem
}

func newScripted(answers map[string]string) *scriptedExecutor {
	return &scriptedExecutor{
		answers: answers,
		errs:    map[string]error{},
		delays:  map[string]time.Duration{},
	}
}

func (s *scriptedExecutor) Name() string { return "scripted" }

func (s *scriptedExecutor) Execute(ctx context.Context, item model.WorkItem) (*executor.Response, error) {
	key := item.FixtureKey()
	s.mu.Lock()
	s.calls = append(s.calls, item)
	delay := s.delays[key]
	err := s.errs[key]
	text, ok := s.answers[key]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoAnswer
	}
	return &executor.Response{
		Text: text,
		Usage: cost.Usage{
			Provider:     cost.ProviderAnthropic,
			Model:        "claude-sonnet-4-5-20250929",
			InputTokens:  1000,
			OutputTokens: 100,
			Queries:      1,
		},
	}, nil
}

func (s *scriptedExecutor) callsOf(kind model.WorkKind) []model.WorkItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WorkItem
	for _, c := range s.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func testPrefs() *config.Preferences {
	return &config.Preferences{
		Interests:           []string{"robotics"},
		GeographicFocus:     []string{"Netherlands"},
		InstitutionTypes:    config.ParseList(config.DefaultInstitutionTypes),
		CompaniesToExclude:  []string{"Amazon"},
		SearchLocale:        "en-GB",
		MaxResultsPerSearch: 10,
		OutputFilename:      "out.csv",
	}
}

func inst(name, url string) model.Institution {
	return model.Institution{
		Name:       name,
		Type:       model.InstitutionTypeCompany,
		WebsiteURL: url,
		CareersURL: url + "/careers",
	}
}
