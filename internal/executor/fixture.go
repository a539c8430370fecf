package executor

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/institution-research/internal/model"
)

// fixtureFile is the on-disk layout of canned responses.
type fixtureFile struct {
	// Responses maps "kind:subject" (or "kind:*") to raw executor text.
	Responses map[string]string `yaml:"responses"`
	// Default answers any item without a matching key.
	Default *string `yaml:"default"`
}

// Fixture replays canned responses from a YAML file. It makes offline runs
// and end-to-end tests deterministic.
type Fixture struct {
	responses map[string]string
	fallback  *string
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "executor: read fixture %s", path)
	}
	return ParseFixture(data)
}

// ParseFixture parses fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "executor: parse fixture")
	}
	responses := make(map[string]string, len(f.Responses))
	for k, v := range f.Responses {
		responses[model.NormalizeKeyPart(k)] = v
	}
	return &Fixture{responses: responses, fallback: f.Default}, nil
}

// Name implements Executor.
func (f *Fixture) Name() string { return "fixture" }

// Execute implements Executor. Keys match case-insensitively; "kind:*"
// answers every subject of that kind.
func (f *Fixture) Execute(_ context.Context, item model.WorkItem) (*Response, error) {
	for _, key := range []string{item.FixtureKey(), string(item.Kind) + ":*"} {
		if text, ok := f.responses[model.NormalizeKeyPart(key)]; ok {
			return &Response{Text: text}, nil
		}
	}
	if f.fallback != nil {
		return &Response{Text: *f.fallback}, nil
	}
	zap.L().Debug("executor: no fixture for work item", zap.String("key", item.FixtureKey()))
	return nil, eris.Errorf("executor: no fixture for %s", item.FixtureKey())
}
