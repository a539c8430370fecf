package extract

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/institution-research/internal/model"
)

// OutcomeKind tags the result of coercing an extracted JSON value.
type OutcomeKind int

const (
	// OutcomeUnrecognized means the value had no expected shape. Zero records.
	OutcomeUnrecognized OutcomeKind = iota
	// OutcomeDeleted means the executor answered with the delete sentinel.
	OutcomeDeleted
	// OutcomeRecords means the value held one or more institution objects.
	OutcomeRecords
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDeleted:
		return "deleted"
	case OutcomeRecords:
		return "records"
	default:
		return "unrecognized"
	}
}

// Outcome is the tagged result of Coerce.
type Outcome struct {
	Kind    OutcomeKind
	Records []model.Institution
	// Skipped holds the schema errors of elements that were dropped.
	Skipped []error
	// Reason describes why a value was unrecognized.
	Reason string
}

// Deleted reports whether the outcome is the delete signal.
func (o Outcome) Deleted() bool { return o.Kind == OutcomeDeleted }

func unrecognized(reason string) Outcome {
	return Outcome{Kind: OutcomeUnrecognized, Reason: reason}
}

// Coerce converts a value returned by Parse into records. subject names the
// work item for diagnostics. Schema failures are isolated per element: one bad
// element never discards the rest of a batch.
func Coerce(v any, subject string) Outcome {
	log := zap.L().With(zap.String("subject", subject))

	var out Outcome
	switch t := v.(type) {
	case string:
		if IsDeleteSentinel(t) {
			log.Info("extract: executor requested deletion")
			return Outcome{Kind: OutcomeDeleted}
		}
		out = unrecognized("text value")

	case map[string]any:
		out = coerceObjects([]any{t}, log)

	case []any:
		switch {
		case len(t) == 0:
			out = unrecognized("empty array")
		case len(t) == 1 && isDeleteValue(t[0]):
			log.Info("extract: executor requested deletion")
			return Outcome{Kind: OutcomeDeleted}
		case len(t) == 1 && isObject(t[0]):
			log.Debug("extract: unwrapping single-element array")
			out = coerceObjects(t, log)
		case !anyObject(t):
			out = unrecognized("array without objects")
		default:
			out = coerceObjects(t, log)
		}

	case nil:
		out = unrecognized("null value")

	default:
		out = unrecognized(fmt.Sprintf("scalar %T", v))
	}

	if out.Kind == OutcomeUnrecognized {
		log.Warn("extract: unrecognized result shape", zap.String("reason", out.Reason))
	}
	return out
}

func coerceObjects(elems []any, log *zap.Logger) Outcome {
	out := Outcome{Kind: OutcomeRecords}
	for i, e := range elems {
		obj, ok := e.(map[string]any)
		if !ok {
			err := eris.Errorf("extract: element %d is %T, not an object", i, e)
			out.Skipped = append(out.Skipped, err)
			log.Warn("extract: skipping element", zap.Int("index", i), zap.Error(err))
			continue
		}

		inst, err := model.NewInstitution(obj)
		if err != nil {
			out.Skipped = append(out.Skipped, err)
			log.Warn("extract: skipping element", zap.Int("index", i), zap.Error(err))
			continue
		}
		if !inst.Type.Known() {
			log.Warn("extract: institution type outside enumeration",
				zap.String("name", inst.Name),
				zap.String("type", string(inst.Type)),
			)
		}
		out.Records = append(out.Records, inst)
	}
	return out
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func anyObject(vs []any) bool {
	for _, v := range vs {
		if isObject(v) {
			return true
		}
	}
	return false
}

func isDeleteValue(v any) bool {
	s, ok := v.(string)
	return ok && IsDeleteSentinel(s)
}
