package initiatives

import (
	"slices"
	"time"
)

// transitions lists every status change the workflow allows.
var transitions = map[string][]string{
	StatusPendingApproval: {StatusPending, StatusRejected},
	StatusAssigned:        {StatusPending, StatusOngoing},
	StatusPending:         {StatusOngoing, StatusOverdue},
	StatusOngoing:         {StatusUnderReview, StatusOverdue},
	StatusUnderReview:     {StatusApproved, StatusOngoing, StatusOverdue},
	StatusOverdue:         {StatusUnderReview, StatusOngoing},
}

func CanTransition(from, to string) bool {
	return slices.Contains(transitions[from], to)
}

// InitialStatus picks the starting status of a new initiative. A self-assigned
// initiative needs supervisor approval; a supervisor handing work to others
// skips it.
func InitialStatus(creatorID string, assigneeIDs []string, hasSupervisees bool) string {
	if len(assigneeIDs) == 1 && assigneeIDs[0] == creatorID {
		return StatusPendingApproval
	}
	if hasSupervisees && !slices.Contains(assigneeIDs, creatorID) {
		return StatusAssigned
	}
	return StatusPendingApproval
}

// ValidateCreate checks the fields of a new initiative in order: title, due
// date, assignees, then the team head of a group initiative.
func ValidateCreate(in CreateInput) error {
	if in.Title == "" {
		return ErrTitleRequired
	}
	if in.DueDate == nil || in.DueDate.IsZero() {
		return ErrDueDateRequired
	}
	if !slices.Contains(Types, in.Type) {
		return ErrInvalidType
	}
	if !slices.Contains(Urgencies, in.Urgency) {
		return ErrInvalidUrgency
	}
	if len(in.AssigneeIDs) == 0 {
		return ErrAssigneesRequired
	}
	if in.Type == TypeGroup {
		if in.TeamHeadID == "" {
			return ErrTeamHeadRequired
		}
		if !slices.Contains(in.AssigneeIDs, in.TeamHeadID) {
			return ErrTeamHeadNotAssigned
		}
	}
	return nil
}

// CheckSubmitter verifies who may act on behalf of the initiative: the team
// head for group work, any assignee otherwise.
func CheckSubmitter(in Initiative, userID string, groupErr error) error {
	if in.Type == TypeGroup {
		if in.TeamHeadID != userID {
			return groupErr
		}
		return nil
	}
	if !in.IsAssignee(userID) {
		return ErrNotAssigneeAction
	}
	return nil
}

// CheckSubmit applies the submission rules. The submitter check runs first,
// so a non-head never learns the status of a group initiative.
func CheckSubmit(in Initiative, userID string, pendingExtension bool) error {
	if err := CheckSubmitter(in, userID, ErrNotTeamHeadSubmit); err != nil {
		return err
	}
	if in.Status == StatusOverdue && pendingExtension {
		return ErrOverdueWithExtension
	}
	if in.Status != StatusOngoing && in.Status != StatusOverdue {
		return ErrNotStarted
	}
	return nil
}

func ValidateScore(score int) error {
	if score < 1 || score > 10 {
		return ErrInvalidScore
	}
	return nil
}

// IsOverdue reports whether the initiative should move to OVERDUE at now.
func IsOverdue(in Initiative, now time.Time) bool {
	switch in.Status {
	case StatusPending, StatusOngoing, StatusUnderReview:
		return in.DueDate.Before(now)
	}
	return false
}

func ComputeStats(list []Initiative) Stats {
	stats := Stats{
		ByStatus:  map[string]int{},
		ByType:    map[string]int{},
		ByUrgency: map[string]int{},
	}
	for _, s := range Statuses {
		stats.ByStatus[s] = 0
	}
	for _, t := range Types {
		stats.ByType[t] = 0
	}
	for _, u := range Urgencies {
		stats.ByUrgency[u] = 0
	}

	var scoreSum, scored, done int
	for _, in := range list {
		stats.TotalInitiatives++
		stats.ByStatus[in.Status]++
		stats.ByType[in.Type]++
		stats.ByUrgency[in.Urgency]++
		switch in.Status {
		case StatusOverdue:
			stats.OverdueInitiatives++
		case StatusPendingApproval:
			stats.PendingApproval++
		case StatusUnderReview, StatusApproved:
			done++
		}
		if in.Score != nil {
			scoreSum += *in.Score
			scored++
		}
	}
	if scored > 0 {
		avg := float64(scoreSum) / float64(scored)
		stats.AverageScore = &avg
	}
	if stats.TotalInitiatives > 0 {
		stats.CompletionRate = float64(done) / float64(stats.TotalInitiatives) * 100
	}
	return stats
}
