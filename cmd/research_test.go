package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/institution-research/internal/config"
	"github.com/sells-group/institution-research/internal/export"
)

const researchFixture = `
responses:
  "discover_interest:robotics": '["Acme Robotics", "Amazon"]'
  "similar:TU Delft": '["Acme Robotics"]'
  "detail:Acme Robotics": '{"name":"Acme Robotics","type":"company","website_url":"https://acme.example","careers_url":"https://acme.example/jobs"}'
  "detail:TU Delft": '{"name":"TU Delft","type":"university","website_url":"https://tudelft.nl","careers_url":"https://tudelft.nl/werken"}'
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestRunResearch_Fixture(t *testing.T) {
	dir := t.TempDir()
	fixturePath := filepath.Join(dir, "fixtures.yaml")
	prefsPath := filepath.Join(dir, "user_config.txt")
	outPath := filepath.Join(dir, "results.csv")

	writeFile(t, fixturePath, researchFixture)
	writeFile(t, prefsPath, "USER_INTERESTS=robotics\n"+
		"COMPANIES_OF_INTEREST=TU Delft\n"+
		"COMPANIES_TO_EXCLUDE=Amazon\n"+
		"OUTPUT_FILENAME="+outPath+"\n")

	c := testConfig(config.ProviderFixture)
	c.Executor.FixturePath = fixturePath
	c.Preferences.Path = prefsPath
	withConfig(t, c)

	cmd, out := newTestCommand()
	require.NoError(t, runResearch(cmd, nil))

	recs, err := export.ReadCSV(outPath)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Acme Robotics", recs[0].Name)
	assert.Equal(t, "robotics", recs[0].InterestMatch)
	assert.Equal(t, "TU Delft", recs[1].Name)
	assert.Equal(t, "user provided", recs[1].InterestMatch)

	assert.Contains(t, out.String(), "Research summary: 2 institutions")
}

func TestRunResearch_MissingPreferences(t *testing.T) {
	c := testConfig(config.ProviderFixture)
	c.Preferences.Path = filepath.Join(t.TempDir(), "missing.txt")
	withConfig(t, c)

	cmd, _ := newTestCommand()
	err := runResearch(cmd, nil)

	var cerr *config.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "preferences", cerr.Key)
}

func TestRunResearch_MissingCredentials(t *testing.T) {
	dir := t.TempDir()
	prefsPath := filepath.Join(dir, "user_config.txt")
	writeFile(t, prefsPath, "USER_INTERESTS=robotics\n")

	c := testConfig(config.ProviderAnthropic)
	c.Anthropic.Key = ""
	c.Preferences.Path = prefsPath
	withConfig(t, c)

	cmd, _ := newTestCommand()
	err := runResearch(cmd, nil)

	var cerr *config.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Reason, "ANTHROPIC_API_KEY")
}

func TestSummaryCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")
	writeFile(t, path, "name,type,website_url,careers_url,interest_match\n"+
		"TNO,research_institute,https://tno.nl,https://tno.nl/careers,robotics\n"+
		"SURF,government,https://surf.nl,https://surf.nl/jobs,robotics\n")

	cmd, out := newTestCommand()
	require.NoError(t, summaryCmd.RunE(cmd, []string{path}))

	assert.Contains(t, out.String(), "Research summary: 2 institutions")
	assert.Contains(t, out.String(), "research_institute")
}
