package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/institution-research/internal/model"
)

// OriginKind says how a candidate name was found.
type OriginKind string

const (
	OriginInterest OriginKind = "interest"
	OriginSimilar  OriginKind = "similar"
	OriginSeed     OriginKind = "seed"
)

// Origin records where a candidate came from.
type Origin struct {
	Kind OriginKind
	// Ref is the interest term or the seed company name.
	Ref string
}

// InterestMatch is the interest_match text for records found via o.
func (o Origin) InterestMatch() string {
	switch o.Kind {
	case OriginInterest:
		return o.Ref
	case OriginSimilar:
		return "similar to " + o.Ref
	case OriginSeed:
		return "user provided"
	default:
		return ""
	}
}

// Candidate is an institution name waiting for detail research.
type Candidate struct {
	Name   string
	Origin Origin
}

type queued struct {
	cand    Candidate
	removed bool
}

// NameQueue holds pending candidate names in insertion order. Names are unique
// by normalized form and the first origin wins. Excluded names are never
// queued.
type NameQueue struct {
	items    []queued
	index    map[string]int
	excluded map[string]struct{}
}

// NewNameQueue creates an empty queue that rejects the given names.
func NewNameQueue(exclude []string) *NameQueue {
	q := &NameQueue{
		index:    make(map[string]int),
		excluded: make(map[string]struct{}, len(exclude)),
	}
	for _, name := range exclude {
		if k := model.NormalizeKeyPart(name); k != "" {
			q.excluded[k] = struct{}{}
		}
	}
	return q
}

// Push queues c and reports whether it was added.
func (q *NameQueue) Push(c Candidate) bool {
	c.Name = strings.TrimSpace(c.Name)
	k := model.NormalizeKeyPart(c.Name)
	if k == "" {
		return false
	}
	if _, ok := q.excluded[k]; ok {
		zap.L().Debug("pipeline: skipping excluded name", zap.String("name", c.Name))
		return false
	}
	if _, ok := q.index[k]; ok {
		return false
	}
	q.index[k] = len(q.items)
	q.items = append(q.items, queued{cand: c})
	return true
}

// Remove drops name from the pending queue. It reports whether the name was
// pending.
func (q *NameQueue) Remove(name string) bool {
	i, ok := q.index[model.NormalizeKeyPart(name)]
	if !ok || q.items[i].removed {
		return false
	}
	q.items[i].removed = true
	return true
}

// Excluded reports whether name is on the exclusion list.
func (q *NameQueue) Excluded(name string) bool {
	_, ok := q.excluded[model.NormalizeKeyPart(name)]
	return ok
}

// Pending returns the queued candidates in insertion order.
func (q *NameQueue) Pending() []Candidate {
	out := make([]Candidate, 0, len(q.items))
	for _, it := range q.items {
		if !it.removed {
			out = append(out, it.cand)
		}
	}
	return out
}

// Len is the number of pending candidates.
func (q *NameQueue) Len() int {
	n := 0
	for _, it := range q.items {
		if !it.removed {
			n++
		}
	}
	return n
}
