package export

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sells-group/institution-research/internal/model"
)

// Count is a label with its number of records.
type Count struct {
	Label string
	N     int
}

// Summary groups records by type and by interest match.
type Summary struct {
	Total int
	// ByType is sorted alphabetically by type.
	ByType []Count
	// ByInterest is sorted by descending count, ties alphabetically.
	ByInterest []Count
}

// Summarize builds the grouped summary of recs.
func Summarize(recs []model.Institution) Summary {
	byType := map[string]int{}
	byInterest := map[string]int{}
	for _, r := range recs {
		byType[label(string(r.Type))]++
		byInterest[label(r.InterestMatch)]++
	}

	s := Summary{Total: len(recs), ByType: counts(byType), ByInterest: counts(byInterest)}
	slices.SortFunc(s.ByType, func(a, b Count) int { return cmp.Compare(a.Label, b.Label) })
	slices.SortFunc(s.ByInterest, func(a, b Count) int {
		if c := cmp.Compare(b.N, a.N); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return s
}

func label(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "(unspecified)"
	}
	return s
}

func counts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, n := range m {
		out = append(out, Count{Label: k, N: n})
	}
	return out
}

// PrintSummary writes a console summary of recs to w.
func PrintSummary(w io.Writer, recs []model.Institution) error {
	s := Summarize(recs)
	var b strings.Builder

	fmt.Fprintf(&b, "Research summary: %d institutions\n", s.Total)
	b.WriteString(strings.Repeat("-", 40) + "\n")
	if s.Total == 0 {
		b.WriteString("No institutions found.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("By type:\n")
	for _, c := range s.ByType {
		fmt.Fprintf(&b, "  %-24s %d\n", c.Label, c.N)
	}
	b.WriteString("By interest match:\n")
	for _, c := range s.ByInterest {
		fmt.Fprintf(&b, "  %-24s %d\n", c.Label, c.N)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
