package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/institution-research/internal/config"
	"github.com/sells-group/institution-research/internal/model"
)

const researchSystemPrompt = `You research employers for a job seeker. Use web search and the provided context. Answer only in the exact format requested: no markdown, no explanation, no surrounding text.`

const discoverPrompt = `Identify institutions strongly associated with "%s" in: %s.

Cover these kinds of organisation: %s.

Guidelines:
- Search separately for each kind of organisation.
- Only include well-known or active institutions in the field.
- Do not include duplicates.

Return a flat JSON array of institution names as strings, for example:
["Institution 1", "Institution 2", "Institution 3"]`

const extendPrompt = `You previously found these institutions related to "%s" in %s:
%s

Find additional institutions on the same topic that are NOT in that list, such as smaller organisations, regional research labs or emerging startups.

Return a flat JSON array with only the new institution names as strings.`

const similarPrompt = `Find institutions in %s that are similar to: %s.

Guidelines:
- First find out what %s is.
- If it is a company, find similar companies; if a startup, similar startups; if a university, similar universities.
- Only include well-known or active institutions.
- Do not include duplicates.

Return a flat JSON array of institution names as strings.`

const detailPrompt = `Research the institution "%s".

If it is one of these excluded institutions: %s
return only the string "delete" and nothing else.

Otherwise return a single JSON object with these fields:
- name: exact institution name
- type: one of %s
- website_url: the official website, a working URL
- careers_url: a working URL where jobs are listed
- location: city and country
- size: one of small, medium, large, enterprise
- industry: main industry or domain
- description: a concise summary of what the institution does

Do not return an array. Example:
{"name": "ACME Robotics", "type": "startup", "website_url": "https://acmerobotics.com", "careers_url": "https://acmerobotics.com/careers", "location": "Berlin, Germany", "size": "small", "industry": "Robotics", "description": "ACME Robotics develops autonomous drone systems for industrial use."}`

const validatePrompt = `Validate this institution record:
%s

- If the institution is one of these excluded institutions: %s, return only the string "delete".
- Check that website_url and careers_url both work and do not redirect to error pages; replace them with working URLs when they do not.
- Improve the description if it is vague or wrong, and fix formatting issues.
- Keep interest_match as given.

Return a JSON array containing the validated record.`

func orNone(list []string) string {
	if len(list) == 0 {
		return "(none)"
	}
	return strings.Join(list, ", ")
}

func typeNames() string {
	types := model.AllInstitutionTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func discoverItem(prefs *config.Preferences, interest string) model.WorkItem {
	focus := strings.Join(prefs.GeographicFocus, ", ")
	return model.WorkItem{
		Kind:    model.WorkKindDiscoverInterest,
		Subject: interest,
		Query:   fmt.Sprintf("%s institutions %s", interest, focus),
		System:  researchSystemPrompt,
		Prompt:  fmt.Sprintf(discoverPrompt, interest, focus, strings.Join(prefs.InstitutionTypes, ", ")),
	}
}

func extendItem(prefs *config.Preferences, interest string, found []string) model.WorkItem {
	focus := strings.Join(prefs.GeographicFocus, ", ")
	return model.WorkItem{
		Kind:    model.WorkKindExtendInterest,
		Subject: interest,
		Query:   fmt.Sprintf("%s startups research labs %s", interest, focus),
		System:  researchSystemPrompt,
		Prompt:  fmt.Sprintf(extendPrompt, interest, focus, "- "+strings.Join(found, "\n- ")),
	}
}

func similarItem(prefs *config.Preferences, seed string) model.WorkItem {
	focus := strings.Join(prefs.GeographicFocus, ", ")
	return model.WorkItem{
		Kind:    model.WorkKindSimilar,
		Subject: seed,
		Query:   fmt.Sprintf("organisations similar to %s in %s", seed, focus),
		System:  researchSystemPrompt,
		Prompt:  fmt.Sprintf(similarPrompt, focus, seed, seed),
	}
}

func detailItem(prefs *config.Preferences, name string) model.WorkItem {
	return model.WorkItem{
		Kind:    model.WorkKindDetail,
		Subject: name,
		Query:   fmt.Sprintf("%s official website careers", name),
		System:  researchSystemPrompt,
		Prompt:  fmt.Sprintf(detailPrompt, name, orNone(prefs.CompaniesToExclude), typeNames()),
	}
}

func validateItem(prefs *config.Preferences, rec model.Institution) model.WorkItem {
	raw, _ := json.Marshal(rec) //nolint:errchkjson // plain struct of strings
	return model.WorkItem{
		Kind:    model.WorkKindValidate,
		Subject: rec.Name,
		URLs:    nonEmpty(rec.WebsiteURL, rec.CareersURL),
		System:  researchSystemPrompt,
		Prompt:  fmt.Sprintf(validatePrompt, raw, orNone(prefs.CompaniesToExclude)),
	}
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
