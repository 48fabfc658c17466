package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/auth"
	"pms/internal/platform/jobs"
)

type fakeStore struct {
	goals       []StatusCount
	initiatives []StatusCount
	pending     int
	latest      *LatestScore
	team        TeamCounts
	orgFilter   []string
	orgCalls    int
	runs        map[string]JobRun
}

func (f *fakeStore) GoalStatusCounts(context.Context, string) ([]StatusCount, error) {
	return f.goals, nil
}

func (f *fakeStore) AssignedInitiativeCounts(context.Context, string) ([]StatusCount, error) {
	return f.initiatives, nil
}

func (f *fakeStore) PendingReviewCount(context.Context, string) (int, error) { return f.pending, nil }

func (f *fakeStore) LatestScore(context.Context, string) (*LatestScore, error) { return f.latest, nil }

func (f *fakeStore) TeamCounts(context.Context, string) (TeamCounts, error) { return f.team, nil }

func (f *fakeStore) ActiveUserCount(_ context.Context, orgIDs []string) (int, error) {
	f.orgFilter = orgIDs
	f.orgCalls++
	return 12, nil
}

func (f *fakeStore) OrgGoalStatusCounts(context.Context, []string) ([]StatusCount, error) {
	return f.goals, nil
}

func (f *fakeStore) OrgInitiativeStatusCounts(context.Context, []string) ([]StatusCount, error) {
	return f.initiatives, nil
}

func (f *fakeStore) ActiveCycleCount(context.Context) (int, error) { return 1, nil }

func (f *fakeStore) ActiveReviewProgress(context.Context, []string) (ReviewProgress, error) {
	return ReviewProgress{Assignments: 4, Completed: 3}, nil
}

func (f *fakeStore) ListJobRuns(context.Context, JobRunFilter) ([]JobRun, error) {
	out := []JobRun{}
	for _, run := range f.runs {
		out = append(out, run)
	}
	return out, nil
}

func (f *fakeStore) CountJobRuns(context.Context, JobRunFilter) (int, error) { return len(f.runs), nil }

func (f *fakeStore) JobRun(_ context.Context, id string) (JobRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return JobRun{}, pgx.ErrNoRows
	}
	return run, nil
}

type fakeOrgs struct{ ids []string }

func (f fakeOrgs) AccessibleOrgs(context.Context, access.Principal) ([]string, error) {
	return f.ids, nil
}

type fakeTrigger struct{ err error }

func (f fakeTrigger) Trigger(string) error { return f.err }

func TestPersonalDashboard(t *testing.T) {
	score := 81.5
	store := &fakeStore{
		goals:       []StatusCount{{Status: "ACTIVE", Count: 2, ProgressSum: 90}},
		initiatives: []StatusCount{{Status: "ONGOING", Count: 1}, {Status: "OVERDUE", Count: 1}},
		pending:     3,
		latest:      &LatestScore{CycleID: "c1", OverallScore: &score},
	}
	svc := NewService(store, fakeOrgs{}, nil)
	got, err := svc.Personal(context.Background(), access.NewPrincipal("u1", "r1", auth.RoleEmployee, "o1", access.ScopeOwnSubtree, nil))
	if err != nil {
		t.Fatalf("personal: %v", err)
	}
	if got.AverageGoalProgress != 45 || got.OpenInitiatives != 2 || got.OverdueInitiatives != 1 || got.PendingReviews != 3 {
		t.Fatalf("unexpected dashboard %+v", got)
	}
	if got.LatestScore == nil || *got.LatestScore.OverallScore != score {
		t.Fatalf("expected latest score, got %+v", got.LatestScore)
	}
}

func TestTeamDashboard(t *testing.T) {
	svc := NewService(&fakeStore{team: TeamCounts{DirectReports: 4, PendingExtensions: 1}}, fakeOrgs{}, nil)
	got, err := svc.Team(context.Background(), access.NewPrincipal("u1", "r1", auth.RoleSupervisor, "o1", access.ScopeOwnSubtree, nil))
	if err != nil || !got.HasSupervisees || got.PendingExtensions != 1 {
		t.Fatalf("unexpected team dashboard %+v (%v)", got, err)
	}
}

func TestOrganizationDashboardScope(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	svc := NewService(store, fakeOrgs{ids: []string{"dept1", "unit1"}}, nil)

	if _, err := svc.Organization(ctx, access.NewPrincipal("u1", "r1", auth.RoleEmployee, "o1", access.ScopeOwnSubtree, nil)); !errors.Is(err, ErrReportDenied) {
		t.Fatalf("expected ErrReportDenied, got %v", err)
	}
	if store.orgCalls != 0 {
		t.Fatal("store should not be queried without permission")
	}

	global := access.NewPrincipal("hr", "r2", auth.RoleHR, "hq", access.ScopeGlobal, []string{auth.PermReportsGenerate})
	got, err := svc.Organization(ctx, global)
	if err != nil {
		t.Fatalf("organization: %v", err)
	}
	if store.orgFilter != nil {
		t.Fatalf("expected no org filter for global scope, got %v", store.orgFilter)
	}
	if got.ActiveUsers != 12 || got.ReviewCompletionRate != 75 || got.ActiveReviewCycles != 1 {
		t.Fatalf("unexpected dashboard %+v", got)
	}

	scoped := access.NewPrincipal("hod", "r3", auth.RoleHOD, "dept1", access.ScopeOwnSubtree, []string{auth.PermReportsGenerate})
	if _, err := svc.Organization(ctx, scoped); err != nil {
		t.Fatalf("organization: %v", err)
	}
	if len(store.orgFilter) != 2 {
		t.Fatalf("expected the accessible orgs as filter, got %v", store.orgFilter)
	}

	empty := NewService(store, fakeOrgs{}, nil)
	if _, err := empty.Organization(ctx, scoped); err != nil {
		t.Fatalf("organization: %v", err)
	}
	if store.orgFilter == nil || len(store.orgFilter) != 0 {
		t.Fatalf("expected an empty non-nil filter, got %#v", store.orgFilter)
	}
}

func TestJobRuns(t *testing.T) {
	store := &fakeStore{runs: map[string]JobRun{"r1": {ID: "r1", JobType: jobs.JobInitiativeOverdue, Status: "completed"}}}
	svc := NewService(store, fakeOrgs{}, fakeTrigger{})
	ctx := context.Background()

	runs, total, err := svc.JobRuns(ctx, JobRunFilter{Limit: 10})
	if err != nil || total != 1 || len(runs) != 1 {
		t.Fatalf("unexpected runs %v %d %v", runs, total, err)
	}
	if _, err := svc.JobRun(ctx, "missing"); !errors.Is(err, ErrJobRunNotFound) {
		t.Fatalf("expected ErrJobRunNotFound, got %v", err)
	}
	if err := svc.TriggerJob(jobs.JobCycleActivation); err != nil {
		t.Fatalf("trigger: %v", err)
	}
}

func TestTriggerJobMapsErrors(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{jobs.ErrUnknownJob, ErrUnknownJob},
		{jobs.ErrQueueFull, ErrJobQueueFull},
	}
	for _, tc := range cases {
		svc := NewService(&fakeStore{}, fakeOrgs{}, fakeTrigger{err: tc.err})
		if err := svc.TriggerJob("x"); !errors.Is(err, tc.want) {
			t.Fatalf("expected %v, got %v", tc.want, err)
		}
	}
	if err := NewService(&fakeStore{}, fakeOrgs{}, nil).TriggerJob("x"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("expected ErrUnknownJob without a trigger, got %v", err)
	}
}
