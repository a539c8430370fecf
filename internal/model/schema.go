package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SchemaValidationError reports why a mapping could not become an Institution.
type SchemaValidationError struct {
	Field  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema: field %q %s", e.Field, e.Reason)
}

// requiredFields must be present and textual.
var requiredFields = []string{"name", "type", "website_url", "careers_url"}

// NewInstitution builds an Institution from a loosely typed mapping such as a
// decoded JSON object. It fails with a *SchemaValidationError when a required
// field is missing, is not text, or (for name) is blank. Optional fields that
// are absent or null stay empty; numeric and boolean optionals are rendered as
// text since executors often answer e.g. "size": 500.
func NewInstitution(m map[string]any) (Institution, error) {
	req := make(map[string]string, len(requiredFields))
	for _, f := range requiredFields {
		v, ok := m[f]
		if !ok || v == nil {
			return Institution{}, &SchemaValidationError{Field: f, Reason: "is missing"}
		}
		s, ok := v.(string)
		if !ok {
			return Institution{}, &SchemaValidationError{Field: f, Reason: fmt.Sprintf("must be text, got %T", v)}
		}
		req[f] = strings.TrimSpace(s)
	}
	if req["name"] == "" {
		return Institution{}, &SchemaValidationError{Field: "name", Reason: "is empty"}
	}

	inst := Institution{
		Name:       req["name"],
		Type:       InstitutionType(req["type"]),
		WebsiteURL: req["website_url"],
		CareersURL: req["careers_url"],
	}

	optional := []struct {
		field string
		dst   *string
	}{
		{"location", &inst.Location},
		{"size", &inst.Size},
		{"industry", &inst.Industry},
		{"interest_match", &inst.InterestMatch},
		{"description", &inst.Description},
	}
	for _, o := range optional {
		s, err := optionalText(m, o.field)
		if err != nil {
			return Institution{}, err
		}
		*o.dst = s
	}

	return inst, nil
}

func optionalText(m map[string]any, field string) (string, error) {
	v, ok := m[field]
	if !ok || v == nil {
		return "", nil
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", &SchemaValidationError{Field: field, Reason: fmt.Sprintf("must be text, got %T", v)}
	}
}

// Validate re-checks the required-field rules on an already typed record,
// e.g. one decoded from a previously written CSV.
func (i Institution) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return &SchemaValidationError{Field: "name", Reason: "is empty"}
	}
	return nil
}
