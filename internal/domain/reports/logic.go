package reports

import (
	"math"

	"pms/internal/domain/goals"
	"pms/internal/domain/initiatives"
)

// openInitiativeStatuses are the states in which an assignee still owes work.
var openInitiativeStatuses = map[string]bool{
	initiatives.StatusAssigned: true,
	initiatives.StatusPending:  true,
	initiatives.StatusOngoing:  true,
	initiatives.StatusOverdue:  true,
}

// GoalSummary folds status rows into counts and the mean progress of goals
// that are still live. Rejected and discarded goals are counted but do not
// drag the average down.
func GoalSummary(rows []StatusCount) (map[string]int, float64) {
	counts := make(map[string]int, len(rows))
	total, sum := 0, 0
	for _, row := range rows {
		counts[row.Status] += row.Count
		if row.Status == goals.StatusRejected || row.Status == goals.StatusDiscarded {
			continue
		}
		total += row.Count
		sum += row.ProgressSum
	}
	if total == 0 {
		return counts, 0
	}
	return counts, round1(float64(sum) / float64(total))
}

// InitiativeSummary returns per-status counts plus the open and overdue totals.
func InitiativeSummary(rows []StatusCount) (counts map[string]int, open, overdue int) {
	counts = make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] += row.Count
		if openInitiativeStatuses[row.Status] {
			open += row.Count
		}
		if row.Status == initiatives.StatusOverdue {
			overdue += row.Count
		}
	}
	return counts, open, overdue
}

// CompletionRate is a percentage with one decimal; no assignments reads as 0.
func CompletionRate(p ReviewProgress) float64 {
	if p.Assignments <= 0 {
		return 0
	}
	return round1(float64(p.Completed) * 100 / float64(p.Assignments))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
