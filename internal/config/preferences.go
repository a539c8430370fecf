package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Preference defaults.
const (
	DefaultGeographicFocus  = "Netherlands"
	DefaultInstitutionTypes = "universities, companies, startups, research_institutes, government_agencies"
	DefaultSearchLocation   = "Europe"
	DefaultSearchLocale     = "en-GB"
	DefaultMaxResults       = 10
	DefaultOutputFilename   = "institutions_job_research.csv"
)

// ConfigurationError reports missing or invalid settings. It is fatal and is
// raised before any research work starts.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "config: " + e.Key + ": " + e.Reason
}

// Preferences are the user's job-search settings.
type Preferences struct {
	CVFilePath      string
	LinkedInProfile string
	Email           string

	Interests       []string
	GeographicFocus []string

	// CompaniesOfInterest seed discovery; CompaniesToExclude are never researched.
	CompaniesOfInterest []string
	CompaniesToExclude  []string

	InstitutionTypes []string

	SearchLocation      string
	SearchLocale        string
	MaxResultsPerSearch int

	OutputFilename string
	Verbose        bool
}

// LoadPreferences reads a KEY=VALUE preferences file. Blank values fall back
// to defaults.
func LoadPreferences(path string) (*Preferences, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ConfigurationError{
			Key:    "preferences",
			Reason: "file not found: " + path + " (create it from the template and fill in your information)",
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Key: "preferences", Reason: "read " + path + ": " + err.Error()}
	}
	v := viper.New()
	for key, val := range parsePreferenceLines(path, string(data)) {
		v.Set(key, val)
	}

	get := func(key, def string) string {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			return s
		}
		return def
	}

	p := &Preferences{
		CVFilePath:          get("cv_file_path", ""),
		LinkedInProfile:     get("linkedin_profile", ""),
		Email:               get("email", ""),
		Interests:           ParseList(get("user_interests", "")),
		GeographicFocus:     ParseList(get("geographic_focus", DefaultGeographicFocus)),
		CompaniesOfInterest: ParseList(get("companies_of_interest", "")),
		CompaniesToExclude:  ParseList(get("companies_to_exclude", "")),
		InstitutionTypes:    ParseList(get("institution_types", DefaultInstitutionTypes)),
		SearchLocation:      get("search_location", DefaultSearchLocation),
		SearchLocale:        get("search_locale", DefaultSearchLocale),
		OutputFilename:      get("output_filename", DefaultOutputFilename),
		Verbose:             ParseBool(get("verbose_output", "false")),
	}

	n, err := strconv.Atoi(get("max_results_per_search", strconv.Itoa(DefaultMaxResults)))
	if err != nil || n < 1 {
		return nil, &ConfigurationError{Key: "MAX_RESULTS_PER_SEARCH", Reason: "must be a positive integer"}
	}
	p.MaxResultsPerSearch = n

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// parsePreferenceLines reads KEY=VALUE lines. Values are taken verbatim up to
// the end of the line, so "C#" and "$5M" survive. Lines starting with # are
// comments; lines without '=' are logged and skipped. Keys are lowercased.
func parsePreferenceLines(path, data string) map[string]string {
	out := make(map[string]string)
	data = strings.TrimPrefix(data, "\ufeff")
	for i, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			zap.L().Warn("config: skipping invalid preferences line",
				zap.String("path", path),
				zap.Int("line", i+1),
				zap.String("text", line),
			)
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if val = strings.TrimSpace(val); key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	return out
}

// Validate enforces the hard requirements and fills soft defaults.
func (p *Preferences) Validate() error {
	if len(p.Interests) == 0 {
		return &ConfigurationError{Key: "USER_INTERESTS", Reason: "cannot be empty; specify at least one interest"}
	}
	if len(p.GeographicFocus) == 0 {
		zap.L().Warn("config: no geographic focus specified, using default",
			zap.String("default", DefaultGeographicFocus))
		p.GeographicFocus = []string{DefaultGeographicFocus}
	}
	if p.MaxResultsPerSearch < 1 {
		p.MaxResultsPerSearch = DefaultMaxResults
	}
	if p.OutputFilename == "" {
		p.OutputFilename = DefaultOutputFilename
	}
	return nil
}

// Language returns the language part of SearchLocale ("en" for "en-GB").
func (p *Preferences) Language() string {
	lang, _, _ := strings.Cut(p.SearchLocale, "-")
	return strings.ToLower(strings.TrimSpace(lang))
}

// Country returns the region part of SearchLocale ("GB" for "en-GB"), or ""
// when the locale has no region.
func (p *Preferences) Country() string {
	_, region, ok := strings.Cut(p.SearchLocale, "-")
	if !ok {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(region))
}

// LogSummary logs the loaded preferences.
func (p *Preferences) LogSummary() {
	fields := []zap.Field{
		zap.Strings("interests", p.Interests),
		zap.Strings("geographic_focus", p.GeographicFocus),
		zap.String("search_location", p.SearchLocation),
		zap.String("output_file", p.OutputFilename),
	}
	if p.CVFilePath != "" {
		_, err := os.Stat(p.CVFilePath)
		fields = append(fields, zap.String("cv_file", p.CVFilePath), zap.Bool("cv_found", err == nil))
	}
	if p.LinkedInProfile != "" {
		fields = append(fields, zap.String("linkedin", p.LinkedInProfile))
	}
	if len(p.CompaniesOfInterest) > 0 {
		fields = append(fields, zap.Strings("companies_of_interest", p.CompaniesOfInterest))
	}
	if len(p.CompaniesToExclude) > 0 {
		fields = append(fields, zap.Strings("companies_to_exclude", p.CompaniesToExclude))
	}
	zap.L().Info("config: user preferences loaded", fields...)
}

// ParseList splits a comma separated value, trimming items and dropping
// empties.
func ParseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseBool accepts true, yes, 1 and on in any case.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "on":
		return true
	default:
		return false
	}
}
