package initiatives

import (
	"errors"
	"testing"
	"time"

	"pms/internal/domain/apperr"
)

func TestInitialStatus(t *testing.T) {
	cases := []struct {
		name        string
		assignees   []string
		supervisees bool
		want        string
	}{
		{"self assigned", []string{"me"}, false, StatusPendingApproval},
		{"self assigned supervisor", []string{"me"}, true, StatusPendingApproval},
		{"supervisor assigns report", []string{"report"}, true, StatusAssigned},
		{"supervisor assigns team", []string{"a", "b"}, true, StatusAssigned},
		{"supervisor includes self", []string{"me", "a"}, true, StatusPendingApproval},
		{"peer assignment", []string{"peer"}, false, StatusPendingApproval},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InitialStatus("me", tc.assignees, tc.supervisees); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestValidateCreate(t *testing.T) {
	due := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	base := func() CreateInput {
		return CreateInput{Title: "Ship it", Type: TypeIndividual, Urgency: UrgencyMedium, DueDate: &due, AssigneeIDs: []string{"a"}}
	}

	cases := []struct {
		name   string
		mutate func(*CreateInput)
		want   error
	}{
		{"valid", func(*CreateInput) {}, nil},
		{"title", func(in *CreateInput) { in.Title = "" }, ErrTitleRequired},
		{"due date", func(in *CreateInput) { in.DueDate = nil }, ErrDueDateRequired},
		{"type", func(in *CreateInput) { in.Type = "TEAM" }, ErrInvalidType},
		{"urgency", func(in *CreateInput) { in.Urgency = "ASAP" }, ErrInvalidUrgency},
		{"assignees", func(in *CreateInput) { in.AssigneeIDs = nil }, ErrAssigneesRequired},
		{"group head", func(in *CreateInput) { in.Type = TypeGroup }, ErrTeamHeadRequired},
		{"group head outside", func(in *CreateInput) { in.Type = TypeGroup; in.TeamHeadID = "z" }, ErrTeamHeadNotAssigned},
		{"group valid", func(in *CreateInput) { in.Type = TypeGroup; in.TeamHeadID = "a" }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base()
			tc.mutate(&in)
			if err := ValidateCreate(in); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGroupSubmitByNonHeadAlwaysFails(t *testing.T) {
	for _, status := range Statuses {
		in := Initiative{
			Type:        TypeGroup,
			Status:      status,
			TeamHeadID:  "head",
			Assignments: []Assignee{{UserID: "head"}, {UserID: "member"}},
		}
		err := CheckSubmit(in, "member", false)
		if !errors.Is(err, apperr.ErrValidation) || err != ErrNotTeamHeadSubmit {
			t.Fatalf("status %s: expected team head validation error, got %v", status, err)
		}
	}
}

func TestCheckSubmit(t *testing.T) {
	individual := func(status string) Initiative {
		return Initiative{Type: TypeIndividual, Status: status, Assignments: []Assignee{{UserID: "a"}}}
	}
	cases := []struct {
		name    string
		in      Initiative
		user    string
		pending bool
		want    error
	}{
		{"ongoing", individual(StatusOngoing), "a", false, nil},
		{"overdue", individual(StatusOverdue), "a", false, nil},
		{"overdue with extension", individual(StatusOverdue), "a", true, ErrOverdueWithExtension},
		{"ongoing with extension", individual(StatusOngoing), "a", true, nil},
		{"pending", individual(StatusPending), "a", false, ErrNotStarted},
		{"approved", individual(StatusApproved), "a", false, ErrNotStarted},
		{"not assignee", individual(StatusOngoing), "b", false, ErrNotAssigneeAction},
		{"group head", Initiative{Type: TypeGroup, Status: StatusOngoing, TeamHeadID: "h"}, "h", false, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := CheckSubmit(tc.in, tc.user, tc.pending); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTransitions(t *testing.T) {
	allowed := [][2]string{
		{StatusPendingApproval, StatusPending},
		{StatusPendingApproval, StatusRejected},
		{StatusAssigned, StatusPending},
		{StatusPending, StatusOngoing},
		{StatusOngoing, StatusUnderReview},
		{StatusUnderReview, StatusApproved},
		{StatusUnderReview, StatusOngoing},
		{StatusOverdue, StatusOngoing},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}
	denied := [][2]string{
		{StatusApproved, StatusOngoing},
		{StatusRejected, StatusPending},
		{StatusOngoing, StatusRejected},
		{StatusAssigned, StatusRejected},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be denied", pair[0], pair[1])
		}
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		status string
		due    time.Time
		want   bool
	}{
		{StatusPending, past, true},
		{StatusOngoing, past, true},
		{StatusUnderReview, past, true},
		{StatusOngoing, future, false},
		{StatusApproved, past, false},
		{StatusAssigned, past, false},
		{StatusOverdue, past, false},
	}
	for _, tc := range cases {
		if got := IsOverdue(Initiative{Status: tc.status, DueDate: tc.due}, now); got != tc.want {
			t.Fatalf("%s due %v: expected %v, got %v", tc.status, tc.due, tc.want, got)
		}
	}
}

func TestComputeStats(t *testing.T) {
	score := func(v int) *int { return &v }
	stats := ComputeStats([]Initiative{
		{Status: StatusApproved, Type: TypeIndividual, Urgency: UrgencyHigh, Score: score(8)},
		{Status: StatusUnderReview, Type: TypeGroup, Urgency: UrgencyMedium},
		{Status: StatusOverdue, Type: TypeIndividual, Urgency: UrgencyMedium},
		{Status: StatusPendingApproval, Type: TypeIndividual, Urgency: UrgencyLow, Score: score(6)},
	})
	if stats.TotalInitiatives != 4 || stats.OverdueInitiatives != 1 || stats.PendingApproval != 1 {
		t.Fatalf("unexpected counts %+v", stats)
	}
	if stats.CompletionRate != 50 {
		t.Fatalf("expected completion rate 50, got %v", stats.CompletionRate)
	}
	if stats.AverageScore == nil || *stats.AverageScore != 7 {
		t.Fatalf("expected average score 7, got %v", stats.AverageScore)
	}
	if stats.ByType[TypeIndividual] != 3 || stats.ByUrgency[UrgencyMedium] != 2 || stats.ByStatus[StatusOngoing] != 0 {
		t.Fatalf("unexpected breakdown %+v", stats)
	}

	empty := ComputeStats(nil)
	if empty.AverageScore != nil || empty.CompletionRate != 0 || len(empty.ByStatus) != len(Statuses) {
		t.Fatalf("unexpected empty stats %+v", empty)
	}
}
