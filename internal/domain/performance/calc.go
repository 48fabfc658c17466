package performance

import (
	"math"
	"sort"
	"time"

	"pms/internal/domain/access"
)

// TaskScore maps initiative scores (1-10) onto 0-100 and averages them.
func TaskScore(scores []int) *float64 {
	if len(scores) == 0 {
		return nil
	}
	var sum float64
	for _, s := range scores {
		sum += float64(s) / 10 * 100
	}
	avg := sum / float64(len(scores))
	return &avg
}

func ReviewScore(scaled []float64) *float64 {
	if len(scaled) == 0 {
		return nil
	}
	var sum float64
	for _, s := range scaled {
		sum += s
	}
	avg := sum / float64(len(scaled))
	return &avg
}

// Overall blends task and review scores 60/40, rounded to two decimals. A
// missing side is not penalised: the present score is used as is.
func Overall(task, review *float64) *float64 {
	var v float64
	switch {
	case task != nil && review != nil:
		v = *task*TaskWeight + *review*ReviewWeight
	case task != nil:
		v = *task
	case review != nil:
		v = *review
	default:
		return nil
	}
	v = math.Round(v*100) / 100
	return &v
}

func Band(overall *float64) string {
	if overall == nil {
		return ""
	}
	switch v := *overall; {
	case v >= 90:
		return BandOutstanding
	case v >= 80:
		return BandExceedsExpectations
	case v >= 65:
		return BandMeetsExpectations
	case v >= 50:
		return BandBelowExpectations
	default:
		return BandNeedsImprovement
	}
}

// DenseRanks ranks ids by descending score; equal scores share a rank and the
// next distinct score takes the following rank.
func DenseRanks(scores map[string]float64) map[string]int {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	ranks := make(map[string]int, len(ids))
	rank := 0
	for i, id := range ids {
		if i == 0 || scores[id] != scores[ids[i-1]] {
			rank++
		}
		ranks[id] = rank
	}
	return ranks
}

// Calculate scores every input and ranks the scored users organization-wide,
// within their department and within their directorate. Users outside any
// department or directorate get no rank at that level.
func Calculate(cycleID string, inputs []Input, tree *access.OrgTree, now time.Time) []Score {
	out := make([]Score, 0, len(inputs))
	overall := map[string]float64{}
	byDept := map[string]map[string]float64{}
	byDir := map[string]map[string]float64{}
	group := func(groups map[string]map[string]float64, key, userID string, v float64) {
		if key == "" {
			return
		}
		if groups[key] == nil {
			groups[key] = map[string]float64{}
		}
		groups[key][userID] = v
	}

	for _, in := range inputs {
		s := Score{
			UserID:         in.UserID,
			UserName:       in.UserName,
			OrganizationID: in.OrganizationID,
			CycleID:        cycleID,
			TaskScore:      TaskScore(in.TaskScores),
			ReviewScore:    ReviewScore(in.ReviewScores),
			CalculatedAt:   now,
		}
		s.OverallScore = Overall(s.TaskScore, s.ReviewScore)
		s.Band = Band(s.OverallScore)
		if s.OverallScore != nil {
			v := *s.OverallScore
			overall[in.UserID] = v
			if tree != nil && in.OrganizationID != "" {
				dept, _ := tree.Department(in.OrganizationID)
				dir, _ := tree.Directorate(in.OrganizationID)
				group(byDept, dept, in.UserID, v)
				group(byDir, dir, in.UserID, v)
			}
		}
		out = append(out, s)
	}

	orgRanks := DenseRanks(overall)
	deptRanks := map[string]int{}
	for _, members := range byDept {
		for id, r := range DenseRanks(members) {
			deptRanks[id] = r
		}
	}
	dirRanks := map[string]int{}
	for _, members := range byDir {
		for id, r := range DenseRanks(members) {
			dirRanks[id] = r
		}
	}
	rankOf := func(ranks map[string]int, id string) *int {
		r, ok := ranks[id]
		if !ok {
			return nil
		}
		return &r
	}
	for i := range out {
		id := out[i].UserID
		out[i].OrganizationRank = rankOf(orgRanks, id)
		out[i].DepartmentRank = rankOf(deptRanks, id)
		out[i].DirectorateRank = rankOf(dirRanks, id)
	}
	return out
}

func buildSummary(scores []Score) Summary {
	summary := Summary{Participants: len(scores), BandDistribution: map[string]int{}}
	for _, b := range Bands {
		summary.BandDistribution[b] = 0
	}
	var sum float64
	for _, s := range scores {
		if s.OverallScore == nil {
			continue
		}
		summary.Scored++
		sum += *s.OverallScore
		summary.BandDistribution[s.Band]++
	}
	if summary.Scored > 0 {
		avg := sum / float64(summary.Scored)
		summary.AverageOverall = &avg
	}
	return summary
}
