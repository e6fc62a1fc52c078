package probe

import (
	"fmt"
)

// priorityRank mirrors the service's recommendation ordering.
var priorityRank = map[string]int{
	"high":   3,
	"medium": 2,
	"low":    1,
}

var knownTypes = map[string]bool{
	"saddle_height":    true,
	"saddle_fore_aft":  true,
	"handlebar_height": true,
	"stem_length":      true,
	"core_stability":   true,
}

// verifyReport checks the structural invariants every fit report must hold:
// a clamped score, a non-empty summary, known recommendation types, and
// recommendations sorted by descending priority.
func verifyReport(report *reportResponse) error {
	if report.ID == "" {
		return fmt.Errorf("report has no id")
	}
	if report.OverallScore < 0 || report.OverallScore > 100 {
		return fmt.Errorf("score %d outside [0,100]", report.OverallScore)
	}
	if report.Summary == "" {
		return fmt.Errorf("report has no summary")
	}

	prev := -1
	for i, rec := range report.Recommendations {
		if !knownTypes[rec.Type] {
			return fmt.Errorf("unknown recommendation type %q", rec.Type)
		}
		rank, ok := priorityRank[rec.Priority]
		if !ok {
			return fmt.Errorf("unknown priority %q", rec.Priority)
		}
		if prev >= 0 && rank > prev {
			return fmt.Errorf("recommendation %d out of priority order", i)
		}
		prev = rank
	}
	return nil
}
