package pipeline

import "github.com/sells-group/institution-research/internal/model"

// ResultSet is the ordered, append-only collection of records produced by a
// run before deduplication.
type ResultSet struct {
	records []model.Institution
}

// NewResultSet creates a ResultSet holding recs in order.
func NewResultSet(recs ...model.Institution) *ResultSet {
	rs := &ResultSet{}
	rs.Append(recs...)
	return rs
}

// Append adds records at the end.
func (rs *ResultSet) Append(recs ...model.Institution) {
	rs.records = append(rs.records, recs...)
}

// Len is the number of records.
func (rs *ResultSet) Len() int { return len(rs.records) }

// Records returns a copy of the records in append order.
func (rs *ResultSet) Records() []model.Institution {
	out := make([]model.Institution, len(rs.records))
	copy(out, rs.records)
	return out
}
