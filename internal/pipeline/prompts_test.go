package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/institution-research/internal/model"
)

func TestWorkItems(t *testing.T) {
	t.Parallel()

	prefs := testPrefs()

	d := discoverItem(prefs, "robotics")
	assert.Equal(t, model.WorkKindDiscoverInterest, d.Kind)
	assert.Equal(t, "robotics", d.Subject)
	assert.Contains(t, d.Prompt, "Netherlands")
	assert.Contains(t, d.Prompt, "research_institutes")
	assert.NotEmpty(t, d.Query)

	det := detailItem(prefs, "TNO")
	assert.Contains(t, det.Prompt, `"delete"`)
	assert.Contains(t, det.Prompt, "Amazon")
	assert.Contains(t, det.Prompt, "research_institute")

	prefs.CompaniesToExclude = nil
	assert.Contains(t, detailItem(prefs, "TNO").Prompt, "(none)")

	v := validateItem(prefs, model.Institution{Name: "TNO", WebsiteURL: "https://tno.nl"})
	assert.Equal(t, []string{"https://tno.nl"}, v.URLs)
	assert.Contains(t, v.Prompt, `"website_url":"https://tno.nl"`)

	s := similarItem(prefs, "SURF")
	assert.Equal(t, model.WorkKindSimilar, s.Kind)
	assert.Contains(t, s.Prompt, "SURF")
}
