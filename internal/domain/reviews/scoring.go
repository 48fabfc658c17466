package reviews

import "time"

// Weights of each review type in the weighted trait score. When a type has
// no ratings its weight is left out and the rest are renormalized.
var Weights = map[string]float64{
	TypeSelf:       0.2,
	TypePeer:       0.3,
	TypeSupervisor: 0.5,
}

// ScaleFactor lifts the 1-10 weighted score onto the 0-100 range used by
// performance scores.
const ScaleFactor = 10

// Average returns the arithmetic mean of ratings, or nil when there are none.
func Average(ratings []int) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return &avg
}

// Weighted combines the per-type averages. Absent types do not count
// towards the total weight, so a single present type yields its own average.
func Weighted(self, peer, supervisor *float64) *float64 {
	var total, weight float64
	add := func(score *float64, w float64) {
		if score == nil {
			return
		}
		total += *score * w
		weight += w
	}
	add(self, Weights[TypeSelf])
	add(peer, Weights[TypePeer])
	add(supervisor, Weights[TypeSupervisor])
	if weight == 0 {
		return nil
	}
	out := total / weight
	return &out
}

func Scaled(weighted *float64) *float64 {
	if weighted == nil {
		return nil
	}
	out := *weighted * ScaleFactor
	return &out
}

// ScoreTraits builds one score per trait from the ratings of a reviewee's
// completed assignments. Traits without any rating still get a row with
// every score absent.
func ScoreTraits(cycleID, userID string, traitIDs []string, ratings []Rating, now time.Time) []Score {
	byTrait := map[string]map[string][]int{}
	for _, r := range ratings {
		if byTrait[r.TraitID] == nil {
			byTrait[r.TraitID] = map[string][]int{}
		}
		byTrait[r.TraitID][r.ReviewType] = append(byTrait[r.TraitID][r.ReviewType], r.Value)
	}

	out := make([]Score, 0, len(traitIDs))
	for _, traitID := range traitIDs {
		types := byTrait[traitID]
		score := Score{
			CycleID:         cycleID,
			UserID:          userID,
			TraitID:         traitID,
			SelfScore:       Average(types[TypeSelf]),
			PeerScore:       Average(types[TypePeer]),
			SupervisorScore: Average(types[TypeSupervisor]),
			CalculatedAt:    now,
		}
		score.WeightedScore = Weighted(score.SelfScore, score.PeerScore, score.SupervisorScore)
		score.ScaledScore = Scaled(score.WeightedScore)
		out = append(out, score)
	}
	return out
}

// Summarize averages each score column over the traits that have it.
func Summarize(scores []Score) Averages {
	collect := func(pick func(Score) *float64) *float64 {
		var sum float64
		n := 0
		for _, s := range scores {
			if v := pick(s); v != nil {
				sum += *v
				n++
			}
		}
		if n == 0 {
			return nil
		}
		avg := sum / float64(n)
		return &avg
	}
	return Averages{
		Self:       collect(func(s Score) *float64 { return s.SelfScore }),
		Peer:       collect(func(s Score) *float64 { return s.PeerScore }),
		Supervisor: collect(func(s Score) *float64 { return s.SupervisorScore }),
		Weighted:   collect(func(s Score) *float64 { return s.WeightedScore }),
	}
}

func rate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// BuildDashboard folds per-assignment rows into cycle-wide participation,
// per-type and per-department completion figures. A participant counts as
// completed once every assignment about them is completed.
func BuildDashboard(cycle Cycle, stats []AssignmentStat) Dashboard {
	type person struct {
		department string
		total      int
		completed  int
	}
	people := map[string]*person{}
	order := []string{}
	byType := map[string]TypeProgress{}
	for _, t := range ReviewTypes {
		byType[t] = TypeProgress{}
	}
	for _, s := range stats {
		p, ok := people[s.RevieweeID]
		if !ok {
			p = &person{department: s.Department}
			people[s.RevieweeID] = p
			order = append(order, s.RevieweeID)
		}
		p.total++
		tp := byType[s.ReviewType]
		tp.Total++
		if s.Status == AssignmentCompleted {
			p.completed++
			tp.Completed++
		}
		byType[s.ReviewType] = tp
	}
	for t, tp := range byType {
		tp.CompletionRate = rate(tp.Completed, tp.Total)
		byType[t] = tp
	}

	dash := Dashboard{Cycle: cycle, ByType: byType, Departments: []DepartmentProgress{}}
	deptIndex := map[string]int{}
	for _, id := range order {
		p := people[id]
		done := p.completed == p.total
		dash.Participation.TotalParticipants++
		if done {
			dash.Participation.CompletedParticipants++
		}
		i, ok := deptIndex[p.department]
		if !ok {
			i = len(dash.Departments)
			deptIndex[p.department] = i
			dash.Departments = append(dash.Departments, DepartmentProgress{Department: p.department})
		}
		dash.Departments[i].TotalParticipants++
		if done {
			dash.Departments[i].CompletedParticipants++
		}
	}
	dash.Participation.CompletionRate = rate(dash.Participation.CompletedParticipants, dash.Participation.TotalParticipants)
	for i := range dash.Departments {
		d := &dash.Departments[i]
		d.CompletionRate = rate(d.CompletedParticipants, d.TotalParticipants)
	}
	return dash
}

// BuildProgress reports assignment completion per reviewee, overall and by
// review type, in the order reviewees first appear in stats.
func BuildProgress(stats []AssignmentStat) []UserProgress {
	index := map[string]int{}
	out := []UserProgress{}
	for _, s := range stats {
		i, ok := index[s.RevieweeID]
		if !ok {
			i = len(out)
			index[s.RevieweeID] = i
			byType := map[string]TypeProgress{}
			for _, t := range ReviewTypes {
				byType[t] = TypeProgress{}
			}
			out = append(out, UserProgress{
				UserID:     s.RevieweeID,
				Name:       s.Name,
				JobTitle:   s.JobTitle,
				Department: s.Department,
				ByType:     byType,
			})
		}
		u := &out[i]
		tp := u.ByType[s.ReviewType]
		tp.Total++
		u.Overall.Total++
		if s.Status == AssignmentCompleted {
			tp.Completed++
			u.Overall.Completed++
		}
		u.ByType[s.ReviewType] = tp
	}
	for i := range out {
		u := &out[i]
		u.Overall.CompletionRate = rate(u.Overall.Completed, u.Overall.Total)
		for t, tp := range u.ByType {
			tp.CompletionRate = rate(tp.Completed, tp.Total)
			u.ByType[t] = tp
		}
	}
	return out
}
