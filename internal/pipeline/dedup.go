package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/institution-research/internal/model"
)

// Deduplicate keeps the first record for each normalized (name, website_url)
// key and drops later ones, preserving input order. Each drop is logged with
// the record it lost to. It returns the kept records and the number dropped.
func Deduplicate(records []model.Institution) ([]model.Institution, int) {
	seen := make(map[model.Key]int, len(records))
	kept := make([]model.Institution, 0, len(records))
	dropped := 0

	for _, rec := range records {
		k := rec.Key()
		if i, dup := seen[k]; dup {
			dropped++
			zap.L().Info("pipeline: dropped duplicate institution",
				zap.String("dropped_name", rec.Name),
				zap.String("dropped_url", rec.WebsiteURL),
				zap.String("kept_name", kept[i].Name),
				zap.String("kept_url", kept[i].WebsiteURL),
			)
			continue
		}
		seen[k] = len(kept)
		kept = append(kept, rec)
	}
	return kept, dropped
}
