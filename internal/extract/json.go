// Package extract turns free-form research executor output into typed
// institution records.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/titanous/json5"
)

// DeleteSentinel is the reserved answer an executor gives for an institution
// that must be excluded from the results.
const DeleteSentinel = "delete"

// NoJSONFoundError is returned when no parseable JSON array or object exists
// in a text blob. Callers skip the work item and continue.
type NoJSONFoundError struct {
	Length int
}

func (e *NoJSONFoundError) Error() string {
	return fmt.Sprintf("extract: no parseable json value in %d bytes of text", e.Length)
}

// jsonFence matches fenced code blocks labelled json (or json5).
var jsonFence = regexp.MustCompile("(?is)```[ \\t]*json5?\\b[ \\t]*\\r?\\n?(.*?)```")

// Parse returns the delete sentinel when the text is exactly that sentinel
// (surrounding whitespace, quotes or fences allowed), otherwise the first JSON
// value found by JSON.
func Parse(text string) (any, error) {
	if IsDeleteSentinel(text) {
		return DeleteSentinel, nil
	}
	for _, body := range fencedBodies(text) {
		if IsDeleteSentinel(body) {
			return DeleteSentinel, nil
		}
	}
	return JSON(text)
}

// IsDeleteSentinel reports whether s is the delete sentinel, ignoring case,
// surrounding whitespace, quotes and backticks. Substrings do not count.
func IsDeleteSentinel(s string) bool {
	t := strings.TrimSpace(s)
	t = strings.Trim(t, "\"'`")
	return strings.EqualFold(strings.TrimSpace(t), DeleteSentinel)
}

// JSON locates the first parseable JSON value in text. Preference order:
// a json-labelled fenced array, a json-labelled fenced object, the first
// array-shaped substring that parses, the first object-shaped substring that
// parses. Parsing uses the JSON5 grammar, so single quotes, unquoted keys and
// trailing commas are accepted.
func JSON(text string) (any, error) {
	fences := fencedBodies(text)

	for _, body := range fences {
		if v, ok := parseLeading(body, '[', ']'); ok {
			return v, nil
		}
	}
	for _, body := range fences {
		if v, ok := parseLeading(body, '{', '}'); ok {
			return v, nil
		}
	}
	if v, ok := scan(text, '[', ']'); ok {
		return v, nil
	}
	if v, ok := scan(text, '{', '}'); ok {
		return v, nil
	}

	return nil, &NoJSONFoundError{Length: len(text)}
}

func fencedBodies(text string) []string {
	matches := jsonFence.FindAllStringSubmatch(text, -1)
	bodies := make([]string, 0, len(matches))
	for _, m := range matches {
		bodies = append(bodies, m[1])
	}
	return bodies
}

// parseLeading parses a fence body that starts with the open delimiter.
func parseLeading(body string, opening, closing byte) (any, bool) {
	body = strings.TrimSpace(body)
	if body == "" || body[0] != opening {
		return nil, false
	}
	if v, ok := decode(body); ok {
		return v, true
	}
	// Trailing commentary inside the fence.
	if end := matchingClose(body, 0, opening, closing); end > 0 {
		return decode(body[:end+1])
	}
	return nil, false
}

// scan tries every open delimiter left to right and returns the first
// balanced span that decodes.
func scan(text string, opening, closing byte) (any, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != opening {
			continue
		}
		end := matchingClose(text, i, opening, closing)
		if end < 0 {
			continue
		}
		if v, ok := decode(text[i : end+1]); ok {
			return v, true
		}
	}
	return nil, false
}

// matchingClose returns the index of the delimiter closing text[start],
// skipping quoted strings, or -1 if it is never closed.
func matchingClose(text string, start int, opening, closing byte) int {
	depth := 0
	var quote byte
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case opening:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func decode(s string) (any, bool) {
	var v any
	if err := json5.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}
