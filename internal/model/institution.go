// Package model defines the records that flow through the research pipeline.
package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// InstitutionType classifies an institution.
type InstitutionType string

const (
	InstitutionTypeUniversity        InstitutionType = "university"
	InstitutionTypeCompany           InstitutionType = "company"
	InstitutionTypeStartup           InstitutionType = "startup"
	InstitutionTypeResearchInstitute InstitutionType = "research_institute"
	InstitutionTypeGovernment        InstitutionType = "government"
	InstitutionTypeNGO               InstitutionType = "ngo"
)

// AllInstitutionTypes returns the known institution types.
func AllInstitutionTypes() []InstitutionType {
	return []InstitutionType{
		InstitutionTypeUniversity,
		InstitutionTypeCompany,
		InstitutionTypeStartup,
		InstitutionTypeResearchInstitute,
		InstitutionTypeGovernment,
		InstitutionTypeNGO,
	}
}

// Known reports whether t is one of the enumerated institution types.
// Executors are not bound to the enumeration, so unknown values are kept
// and only warrant a warning.
func (t InstitutionType) Known() bool {
	for _, k := range AllInstitutionTypes() {
		if t == k {
			return true
		}
	}
	return false
}

// Institution is a candidate employer. Field order matches the CSV columns.
type Institution struct {
	Name          string          `json:"name" csv:"name"`
	Type          InstitutionType `json:"type" csv:"type"`
	WebsiteURL    string          `json:"website_url" csv:"website_url"`
	CareersURL    string          `json:"careers_url" csv:"careers_url"`
	Location      string          `json:"location,omitempty" csv:"location"`
	Size          string          `json:"size,omitempty" csv:"size"`
	Industry      string          `json:"industry,omitempty" csv:"industry"`
	InterestMatch string          `json:"interest_match,omitempty" csv:"interest_match"`
	Description   string          `json:"description,omitempty" csv:"description"`
}

// Columns is the fixed column order of the tabular output.
var Columns = []string{
	"name",
	"type",
	"website_url",
	"careers_url",
	"location",
	"size",
	"industry",
	"interest_match",
	"description",
}

// Key identifies an institution for deduplication.
type Key struct {
	Name       string
	WebsiteURL string
}

// Key returns the normalized (name, website_url) identity of the record.
// Other fields do not participate.
func (i Institution) Key() Key {
	return Key{
		Name:       NormalizeKeyPart(i.Name),
		WebsiteURL: NormalizeKeyPart(i.WebsiteURL),
	}
}

// NormalizeKeyPart trims surrounding whitespace and case-folds s.
func NormalizeKeyPart(s string) string {
	// A Caser carries state and must not be shared across goroutines.
	return cases.Fold().String(strings.TrimSpace(s))
}
