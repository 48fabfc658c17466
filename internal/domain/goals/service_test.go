package goals

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/apperr"
	"pms/internal/domain/auth"
	"pms/internal/domain/notifications"
)

type fakeStore struct {
	goals       map[string]*Goal
	users       map[string]UserRef
	assignments map[string]Assignment
	reports     []ProgressReport
	logs        []FreezeLog
	seq         int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		goals:       map[string]*Goal{},
		users:       map[string]UserRef{},
		assignments: map[string]Assignment{},
	}
}

func (f *fakeStore) add(g Goal) {
	copyGoal := g
	f.goals[g.ID] = &copyGoal
}

func (f *fakeStore) GetGoal(_ context.Context, id string) (Goal, error) {
	g, ok := f.goals[id]
	if !ok {
		return Goal{}, pgx.ErrNoRows
	}
	out := *g
	out.ChildCount = 0
	for _, c := range f.goals {
		if c.ParentGoalID == id {
			out.ChildCount++
		}
	}
	if owner, ok := f.users[out.OwnerID]; ok {
		out.OwnerName = owner.Name
	}
	return out, nil
}

func (f *fakeStore) ListGoals(context.Context, ListFilter) ([]Goal, int, error) { return nil, 0, nil }

func (f *fakeStore) StatsGoals(context.Context, ListFilter) ([]Goal, error) { return nil, nil }

func (f *fakeStore) SuperviseeGoals(context.Context, string) ([]Goal, error) { return nil, nil }

func (f *fakeStore) CreateGoal(_ context.Context, g Goal) (string, error) {
	f.seq++
	g.ID = fmt.Sprintf("g%d", f.seq)
	f.add(g)
	return g.ID, nil
}

func (f *fakeStore) UpdateGoal(_ context.Context, id string, in UpdateInput) error {
	if in.Title != nil {
		f.goals[id].Title = *in.Title
	}
	return nil
}

func (f *fakeStore) DeleteGoal(_ context.Context, id string) error {
	delete(f.goals, id)
	return nil
}

func (f *fakeStore) Children(_ context.Context, id string) ([]Goal, error) {
	var out []Goal
	for _, g := range f.goals {
		if g.ParentGoalID == id {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeStore) ChildStatuses(_ context.Context, id string) ([]string, error) {
	var out []string
	for _, g := range f.goals {
		if g.ParentGoalID == id {
			out = append(out, g.Status)
		}
	}
	return out, nil
}

func (f *fakeStore) Subtree(_ context.Context, id string) ([]Goal, error) {
	var out []Goal
	for _, g := range f.goals {
		out = append(out, *g)
	}
	return out, nil
}

func (f *fakeStore) SetProgress(ctx context.Context, id string, oldPct, newPct int, report, actor string) error {
	f.goals[id].ProgressPercentage = newPct
	f.reports = append(f.reports, ProgressReport{GoalID: id, OldPercentage: oldPct, NewPercentage: newPct, Report: report, UpdatedBy: actor})
	return propagateProgress(ctx, f, id)
}

func (f *fakeStore) parentOf(_ context.Context, id string) (string, error) {
	g, ok := f.goals[id]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return g.ParentGoalID, nil
}

func (f *fakeStore) childProgress(_ context.Context, id string) ([]ChildProgress, error) {
	var out []ChildProgress
	for _, g := range f.goals {
		if g.ParentGoalID == id {
			out = append(out, ChildProgress{Status: g.Status, Percentage: g.ProgressPercentage})
		}
	}
	return out, nil
}

func (f *fakeStore) setDerivedProgress(_ context.Context, id string, pct int) error {
	if f.goals[id].Status != StatusAchieved {
		f.goals[id].ProgressPercentage = pct
	}
	return nil
}

func (f *fakeStore) ProgressReports(context.Context, string) ([]ProgressReport, error) {
	return f.reports, nil
}

func (f *fakeStore) SetStatus(_ context.Context, id, status string) error {
	f.goals[id].Status = status
	return nil
}

func (f *fakeStore) MarkAchieved(_ context.Context, id string) error {
	f.goals[id].Status = StatusAchieved
	f.goals[id].ProgressPercentage = 100
	return nil
}

func (f *fakeStore) MarkDiscarded(_ context.Context, id, reason string) error {
	f.goals[id].Status = StatusDiscarded
	f.goals[id].DiscardReason = reason
	return nil
}

func (f *fakeStore) SetApproval(_ context.Context, id, status, approver, reason string) error {
	f.goals[id].Status = status
	f.goals[id].ApprovedBy = approver
	f.goals[id].RejectionReason = reason
	return nil
}

func (f *fakeStore) RequestChange(_ context.Context, id, reason string) error {
	f.goals[id].Status = StatusPendingApproval
	f.goals[id].RejectionReason = reason
	f.goals[id].ApprovedBy = ""
	return nil
}

func (f *fakeStore) CreateAssignment(_ context.Context, goalID, by, to, status string) error {
	f.assignments[goalID+"/"+to] = Assignment{GoalID: goalID, AssignedBy: by, AssignedTo: to, Status: status}
	return nil
}

func (f *fakeStore) GetAssignment(_ context.Context, goalID, to string) (Assignment, error) {
	a, ok := f.assignments[goalID+"/"+to]
	if !ok {
		return Assignment{}, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeStore) RespondAssignment(_ context.Context, goalID, to, status, message string) error {
	a := f.assignments[goalID+"/"+to]
	a.Status = status
	a.ResponseMessage = message
	f.assignments[goalID+"/"+to] = a
	return nil
}

func (f *fakeStore) toggle(quarter string, year int, frozen bool) ([]string, int) {
	var owners []string
	count := 0
	for _, g := range f.goals {
		if g.Scope == ScopeIndividual && g.Quarter == quarter && g.Year != nil && *g.Year == year && g.Frozen != frozen {
			g.Frozen = frozen
			count++
			owners = append(owners, g.OwnerID)
		}
	}
	return owners, count
}

func (f *fakeStore) Freeze(_ context.Context, in FreezeInput, actor string) ([]string, int, error) {
	owners, count := f.toggle(in.Quarter, in.Year, true)
	f.logs = append(f.logs, FreezeLog{Action: FreezeActionFreeze, Quarter: in.Quarter, Year: in.Year, AffectedGoalsCount: count, PerformedBy: actor})
	return owners, count, nil
}

func (f *fakeStore) Unfreeze(_ context.Context, in UnfreezeInput, actor string) ([]string, int, error) {
	owners, count := f.toggle(in.Quarter, in.Year, false)
	f.logs = append(f.logs, FreezeLog{Action: FreezeActionUnfreeze, Quarter: in.Quarter, Year: in.Year, AffectedGoalsCount: count,
		IsEmergencyOverride: in.IsEmergencyOverride, EmergencyReason: in.EmergencyReason, PerformedBy: actor})
	return owners, count, nil
}

func (f *fakeStore) FreezeLogs(context.Context, string, int) ([]FreezeLog, error) { return f.logs, nil }

func (f *fakeStore) UserRef(_ context.Context, id string) (UserRef, error) {
	u, ok := f.users[id]
	if !ok {
		return UserRef{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeStore) ClearAll(context.Context) (int64, error) {
	n := int64(len(f.goals))
	f.goals = map[string]*Goal{}
	return n, nil
}

type allOrgs struct{}

func (allOrgs) CanAccessOrg(context.Context, access.Principal, string) (bool, error) { return true, nil }

func (allOrgs) AccessibleOrgs(context.Context, access.Principal) ([]string, error) { return nil, nil }

type captureNotifier struct {
	sent []notifications.Input
}

func (c *captureNotifier) Notify(_ context.Context, in notifications.Input) {
	c.sent = append(c.sent, in)
}

func (c *captureNotifier) NotifyMany(ctx context.Context, ids []string, in notifications.Input) {
	for _, id := range ids {
		next := in
		next.UserID = id
		c.Notify(ctx, next)
	}
}

func principal(userID string, perms ...string) access.Principal {
	return access.NewPrincipal(userID, "role-"+userID, "employee", "org", access.ScopeOwnSubtree, perms)
}

func intPtr(v int) *int { return &v }

func setup() (*Service, *fakeStore, *captureNotifier) {
	store := newFakeStore()
	store.users["sup"] = UserRef{ID: "sup", Name: "Sam Supervisor", Status: "active"}
	store.users["emp"] = UserRef{ID: "emp", Name: "Eve Employee", SupervisorID: "sup", Status: "active"}
	store.users["other"] = UserRef{ID: "other", Name: "Olly Other", Status: "active"}
	notifier := &captureNotifier{}
	return NewService(store, allOrgs{}, notifier), store, notifier
}

func TestCreateIndividualGoalStartsActiveAndNotifiesSupervisor(t *testing.T) {
	svc, _, notifier := setup()
	ctx := context.Background()

	goal, err := svc.Create(ctx, principal("emp"), CreateInput{Title: "X", Scope: ScopeIndividual, Quarter: "Q1", Year: intPtr(2026)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if goal.Status != StatusActive || goal.OwnerID != "emp" || goal.Type != TypeQuarterly {
		t.Fatalf("unexpected goal %+v", goal)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != "sup" || notifier.sent[0].Type != notifications.TypeGoalCreated {
		t.Fatalf("expected goal_created for supervisor, got %+v", notifier.sent)
	}

	_, err = svc.Approve(ctx, principal("other"), goal.ID, true, "")
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for non-supervisor, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, store, _ := setup()
	ctx := context.Background()
	store.add(Goal{ID: "ind", Scope: ScopeIndividual, Status: StatusActive})
	store.add(Goal{ID: "dept", Scope: ScopeDepartmental, Status: StatusActive})

	cases := []struct {
		name string
		p    access.Principal
		in   CreateInput
		kind error
		msg  string
	}{
		{"title", principal("emp"), CreateInput{Scope: ScopeIndividual}, apperr.ErrValidation, "Title is required"},
		{"yearly permission", principal("emp"), CreateInput{Title: "T", Scope: ScopeCompanyWide, Type: TypeYearly}, apperr.ErrForbidden, "Missing permission: goal_create_yearly"},
		{"departmental permission", principal("emp"), CreateInput{Title: "T", Scope: ScopeDepartmental, OrganizationID: "o"}, apperr.ErrForbidden, "Missing permission: goal_create_departmental"},
		{"quarter", principal("emp"), CreateInput{Title: "T", Scope: ScopeIndividual, Year: intPtr(2026)}, apperr.ErrValidation, "Quarter is required for individual goals"},
		{"year", principal("emp"), CreateInput{Title: "T", Scope: ScopeIndividual, Quarter: "Q2"}, apperr.ErrValidation, "Year is required for individual goals"},
		{"org", principal("hod", auth.PermGoalCreateDepartmental), CreateInput{Title: "T", Scope: ScopeDepartmental}, apperr.ErrValidation, ""},
		{"parent missing", principal("emp"), CreateInput{Title: "T", Quarter: "Q1", Year: intPtr(2026), ParentGoalID: "nope"}, apperr.ErrNotFound, "Parent goal not found"},
		{"parent narrower", principal("emp"), CreateInput{Title: "T", Quarter: "Q1", Year: intPtr(2026), ParentGoalID: "ind"}, apperr.ErrValidation, "Invalid parent-child goal relationship"},
		{"company under dept", principal("ceo", auth.PermGoalCreateYearly), CreateInput{Title: "T", Scope: ScopeCompanyWide, ParentGoalID: "dept"}, apperr.ErrValidation, "Invalid parent-child goal relationship"},
		{"individual for other", principal("sup"), CreateInput{Title: "T", Quarter: "Q1", Year: intPtr(2026), OwnerID: "emp"}, apperr.ErrValidation, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.p, tc.in)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			if tc.msg != "" {
				if msg, _ := apperr.Message(err); msg != tc.msg {
					t.Fatalf("expected message %q, got %q", tc.msg, msg)
				}
			}
		})
	}
}

func TestUpdateProgressRules(t *testing.T) {
	svc, store, _ := setup()
	ctx := context.Background()
	store.add(Goal{ID: "parent", Scope: ScopeCompanyWide, Status: StatusActive, CreatedBy: "emp"})
	store.add(Goal{ID: "leaf", Scope: ScopeIndividual, Status: StatusActive, CreatedBy: "emp", OwnerID: "emp", ParentGoalID: "parent"})
	p := principal("emp", auth.PermGoalProgressUpdate)

	if _, err := svc.UpdateProgress(ctx, principal("emp"), "leaf", 10, "r"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if _, err := svc.UpdateProgress(ctx, p, "parent", 10, "report"); !errors.Is(err, ErrHasChildren) {
		t.Fatalf("expected children error, got %v", err)
	}
	if _, err := svc.UpdateProgress(ctx, p, "leaf", 10, " "); !errors.Is(err, ErrReportRequired) {
		t.Fatalf("expected report error, got %v", err)
	}
	if len(store.reports) != 0 {
		t.Fatal("rejected updates must not write reports")
	}

	goal, err := svc.UpdateProgress(ctx, p, "leaf", 100, "  finished  ")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if goal.ProgressPercentage != 100 || goal.Status != StatusActive {
		t.Fatalf("reaching 100 must not achieve the goal, got %+v", goal)
	}
	if len(store.reports) != 1 || store.reports[0].Report != "finished" || store.reports[0].OldPercentage != 0 {
		t.Fatalf("unexpected report rows %+v", store.reports)
	}

	store.goals["leaf"].Frozen = true
	if _, err := svc.UpdateProgress(ctx, p, "leaf", 50, "again"); !errors.Is(err, ErrGoalFrozen) {
		t.Fatalf("expected frozen error, got %v", err)
	}
}

func TestAchievementCascadesUpward(t *testing.T) {
	svc, store, _ := setup()
	ctx := context.Background()
	store.add(Goal{ID: "company", Scope: ScopeCompanyWide, Status: StatusActive})
	store.add(Goal{ID: "dept", Scope: ScopeDepartmental, Status: StatusActive, ParentGoalID: "company"})
	store.add(Goal{ID: "a", Scope: ScopeIndividual, Status: StatusActive, ParentGoalID: "dept"})
	store.add(Goal{ID: "b", Scope: ScopeIndividual, Status: StatusActive, ParentGoalID: "dept"})
	p := principal("sup", auth.PermGoalStatusChange)

	if _, err := svc.ChangeStatus(ctx, p, "a", StatusAchieved, ""); err != nil {
		t.Fatalf("achieve a: %v", err)
	}
	if store.goals["dept"].Status != StatusActive {
		t.Fatal("parent must wait for every child")
	}
	if _, err := svc.ChangeStatus(ctx, p, "b", StatusAchieved, ""); err != nil {
		t.Fatalf("achieve b: %v", err)
	}
	if store.goals["dept"].Status != StatusAchieved || store.goals["dept"].ProgressPercentage != 100 {
		t.Fatalf("expected dept achieved, got %+v", store.goals["dept"])
	}
	if store.goals["company"].Status != StatusAchieved {
		t.Fatal("expected cascade to reach the root")
	}
}

// stuckStore never records achievement and reports every child as achieved,
// so only the visited guard can end the walk.
type stuckStore struct {
	*fakeStore
}

func (stuckStore) ChildStatuses(context.Context, string) ([]string, error) {
	return []string{StatusAchieved}, nil
}

func (stuckStore) MarkAchieved(context.Context, string) error { return nil }

func TestProgressPropagatesToAncestors(t *testing.T) {
	svc, store, _ := setup()
	store.add(Goal{ID: "company", Scope: ScopeCompanyWide, Status: StatusActive, ChildCount: 2})
	store.add(Goal{ID: "dept", Scope: ScopeDepartmental, Status: StatusActive, ParentGoalID: "company", ChildCount: 3})
	store.add(Goal{ID: "other-dept", Scope: ScopeDepartmental, Status: StatusActive, ParentGoalID: "company", ProgressPercentage: 20})
	store.add(Goal{ID: "a", Scope: ScopeIndividual, Status: StatusActive, ParentGoalID: "dept", OwnerID: "emp", CreatedBy: "emp"})
	store.add(Goal{ID: "b", Scope: ScopeIndividual, Status: StatusActive, ParentGoalID: "dept", ProgressPercentage: 50})
	store.add(Goal{ID: "dropped", Scope: ScopeIndividual, Status: StatusDiscarded, ParentGoalID: "dept", ProgressPercentage: 5})

	p := principal("emp", auth.PermGoalProgressUpdate)
	if _, err := svc.UpdateProgress(context.Background(), p, "a", 75, "halfway and then some"); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	// dept = round((75+50)/2) = 63, company = round((63+20)/2) = 42
	if got := store.goals["dept"].ProgressPercentage; got != 63 {
		t.Fatalf("expected dept progress 63, got %d", got)
	}
	if got := store.goals["company"].ProgressPercentage; got != 42 {
		t.Fatalf("expected company progress 42, got %d", got)
	}
}

func TestProgressPropagationKeepsAchievedParent(t *testing.T) {
	svc, store, _ := setup()
	store.add(Goal{ID: "dept", Scope: ScopeDepartmental, Status: StatusAchieved, ProgressPercentage: 100, ChildCount: 1})
	store.add(Goal{ID: "a", Scope: ScopeIndividual, Status: StatusActive, ParentGoalID: "dept", OwnerID: "emp"})

	if _, err := svc.UpdateProgress(context.Background(), principal("emp", auth.PermGoalProgressUpdate), "a", 10, "restarted"); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if got := store.goals["dept"].ProgressPercentage; got != 100 {
		t.Fatalf("achieved parent changed to %d", got)
	}
}

func TestProgressPropagationDetectsCycle(t *testing.T) {
	store := newFakeStore()
	store.add(Goal{ID: "leaf", Status: StatusActive, ParentGoalID: "x"})
	store.add(Goal{ID: "x", Status: StatusActive, ParentGoalID: "y"})
	store.add(Goal{ID: "y", Status: StatusActive, ParentGoalID: "x"})

	if err := propagateProgress(context.Background(), store, "leaf"); !errors.Is(err, ErrHierarchyCorrupt) {
		t.Fatalf("expected corruption error, got %v", err)
	}
}

func TestAchievementCascadeDetectsCycle(t *testing.T) {
	store := newFakeStore()
	store.add(Goal{ID: "x", Status: StatusActive, ParentGoalID: "y"})
	store.add(Goal{ID: "y", Status: StatusActive, ParentGoalID: "x"})
	svc := NewService(stuckStore{store}, allOrgs{}, nil)

	achieved, err := svc.CheckAutoAchievement(context.Background(), "x")
	if !errors.Is(err, ErrHierarchyCorrupt) {
		t.Fatalf("expected corruption error, got %v", err)
	}
	if len(achieved) != 2 {
		t.Fatalf("expected walk to stop after one lap, got %v", achieved)
	}
}

func TestDiscard(t *testing.T) {
	svc, store, _ := setup()
	store.add(Goal{ID: "done", Status: StatusAchieved})
	store.add(Goal{ID: "open", Status: StatusActive})
	p := principal("sup", auth.PermGoalStatusChange)

	if _, err := svc.Discard(context.Background(), p, "done", "no longer needed"); !errors.Is(err, ErrAlreadyAchieved) {
		t.Fatalf("expected achieved error, got %v", err)
	}
	goal, err := svc.ChangeStatus(context.Background(), p, "open", StatusDiscarded, "")
	if err != nil {
		t.Fatalf("discard: %v", err)
	}
	if goal.Status != StatusDiscarded || goal.DiscardReason != "Manual discard" {
		t.Fatalf("unexpected goal %+v", goal)
	}
}

func TestDiscardRequiresPermissionOrOwnership(t *testing.T) {
	svc, store, _ := setup()
	store.add(Goal{ID: "g", Scope: ScopeIndividual, Status: StatusActive, OwnerID: "emp", CreatedBy: "sup"})

	if _, err := svc.Discard(context.Background(), principal("other"), "g", "not mine"); !errors.Is(err, ErrGoalModifyDenied) {
		t.Fatalf("expected modify denied, got %v", err)
	}
	if store.goals["g"].Status != StatusActive {
		t.Fatalf("goal changed by unauthorized caller: %+v", store.goals["g"])
	}
	goal, err := svc.Discard(context.Background(), principal("emp"), "g", "dropped")
	if err != nil {
		t.Fatalf("owner discard: %v", err)
	}
	if goal.Status != StatusDiscarded || goal.DiscardReason != "dropped" {
		t.Fatalf("unexpected goal %+v", goal)
	}
}

func TestDiscardRejectsFrozenGoal(t *testing.T) {
	svc, store, _ := setup()
	store.add(Goal{ID: "g", Scope: ScopeIndividual, Status: StatusActive, OwnerID: "emp", CreatedBy: "sup", Frozen: true})

	for _, p := range []access.Principal{principal("emp"), principal("admin", auth.PermGoalStatusChange)} {
		if _, err := svc.Discard(context.Background(), p, "g", "late"); !errors.Is(err, ErrGoalFrozen) {
			t.Fatalf("%s: expected frozen error, got %v", p.UserID, err)
		}
	}
	if _, err := svc.ChangeStatus(context.Background(), principal("admin", auth.PermGoalStatusChange), "g", StatusDiscarded, ""); !errors.Is(err, ErrGoalFrozen) {
		t.Fatalf("expected frozen error via status change, got %v", err)
	}
	if store.goals["g"].Status != StatusActive {
		t.Fatalf("frozen goal was discarded: %+v", store.goals["g"])
	}
}

func TestSupervisorAssignmentRespondAndChangeRequest(t *testing.T) {
	svc, store, notifier := setup()
	ctx := context.Background()

	if _, err := svc.CreateForSupervisee(ctx, principal("other"), "emp", CreateInput{Title: "T", Quarter: "Q1", Year: intPtr(2026)}); !errors.Is(err, ErrNotSupervisor) {
		t.Fatalf("expected supervisor check, got %v", err)
	}
	if _, err := svc.CreateForSupervisee(ctx, principal("sup"), "emp", CreateInput{Title: "T", Scope: ScopeCompanyWide}); !errors.Is(err, ErrSuperviseeScope) {
		t.Fatalf("expected scope check, got %v", err)
	}

	goal, err := svc.CreateForSupervisee(ctx, principal("sup"), "emp", CreateInput{Title: "Ship it", Quarter: "q1", Year: intPtr(2026)})
	if err != nil {
		t.Fatalf("create for supervisee: %v", err)
	}
	if goal.Status != StatusActive || goal.OwnerID != "emp" || goal.CreatedBy != "sup" {
		t.Fatalf("unexpected goal %+v", goal)
	}
	if last := notifier.sent[len(notifier.sent)-1]; last.UserID != "emp" || last.Type != notifications.TypeGoalAssigned {
		t.Fatalf("expected goal_assigned for supervisee, got %+v", last)
	}

	if _, err := svc.Respond(ctx, principal("emp"), goal.ID, true, ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("respond on active goal should fail, got %v", err)
	}
	if _, err := svc.RequestChange(ctx, principal("sup"), goal.ID, "why"); !errors.Is(err, ErrNotOwnerChange) {
		t.Fatalf("expected owner check, got %v", err)
	}

	goal, err = svc.RequestChange(ctx, principal("emp"), goal.ID, "too ambitious")
	if err != nil {
		t.Fatalf("request change: %v", err)
	}
	if goal.Status != StatusPendingApproval || goal.RejectionReason != "Change requested: too ambitious" {
		t.Fatalf("unexpected goal %+v", goal)
	}
	if last := notifier.sent[len(notifier.sent)-1]; last.UserID != "sup" || last.Type != notifications.TypeGoalChangeRequested {
		t.Fatalf("expected change request to reach creator, got %+v", last)
	}

	if _, err := svc.Respond(ctx, principal("sup"), goal.ID, true, ""); !errors.Is(err, ErrNotOwnerRespond) {
		t.Fatalf("expected owner check, got %v", err)
	}
	goal, err = svc.Respond(ctx, principal("emp"), goal.ID, false, "cannot commit")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if goal.Status != StatusRejected || goal.RejectionReason != "cannot commit" {
		t.Fatalf("unexpected goal %+v", goal)
	}
	if a := store.assignments[goal.ID+"/emp"]; a.Status != StatusRejected || a.ResponseMessage != "cannot commit" {
		t.Fatalf("unexpected assignment %+v", a)
	}
	if last := notifier.sent[len(notifier.sent)-1]; last.Type != notifications.TypeGoalDeclined {
		t.Fatalf("expected goal_declined, got %+v", last)
	}
}

func TestApproveFlow(t *testing.T) {
	svc, store, notifier := setup()
	ctx := context.Background()
	store.add(Goal{ID: "g", Scope: ScopeIndividual, Status: StatusPendingApproval, OwnerID: "emp", CreatedBy: "emp", Frozen: true})

	if _, err := svc.Approve(ctx, principal("other"), "g", true, ""); !errors.Is(err, ErrNotApprover) {
		t.Fatalf("expected approver check before frozen check, got %v", err)
	}
	if _, err := svc.Approve(ctx, principal("sup"), "g", true, ""); !errors.Is(err, ErrGoalFrozen) {
		t.Fatalf("expected frozen error, got %v", err)
	}
	store.goals["g"].Frozen = false
	if _, err := svc.Approve(ctx, principal("sup"), "g", false, " "); !errors.Is(err, ErrRejectionReason) {
		t.Fatalf("expected reason error, got %v", err)
	}
	goal, err := svc.Approve(ctx, principal("hod", auth.PermGoalApprove), "g", true, "")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if goal.Status != StatusActive || goal.ApprovedBy != "hod" {
		t.Fatalf("unexpected goal %+v", goal)
	}
	if last := notifier.sent[len(notifier.sent)-1]; last.UserID != "emp" || last.Type != notifications.TypeGoalApproved {
		t.Fatalf("expected approval notification, got %+v", last)
	}
}

func TestFreezeAlwaysLogs(t *testing.T) {
	svc, store, notifier := setup()
	ctx := context.Background()
	admin := principal("hr", auth.PermGoalFreeze)

	if _, err := svc.Freeze(ctx, principal("emp"), FreezeInput{Quarter: "Q1", Year: 2026}); !errors.Is(err, ErrFreezeDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}

	res, err := svc.Freeze(ctx, admin, FreezeInput{Quarter: "Q1", Year: 2026})
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if res.AffectedCount != 0 || len(store.logs) != 1 || store.logs[0].AffectedGoalsCount != 0 {
		t.Fatalf("expected one zero-count log, got %+v / %+v", res, store.logs)
	}

	store.add(Goal{ID: "a", Scope: ScopeIndividual, Quarter: "Q2", Year: intPtr(2026), OwnerID: "emp", Status: StatusActive})
	store.add(Goal{ID: "b", Scope: ScopeIndividual, Quarter: "Q2", Year: intPtr(2026), OwnerID: "emp", Status: StatusActive})
	store.add(Goal{ID: "c", Scope: ScopeIndividual, Quarter: "Q3", Year: intPtr(2026), OwnerID: "emp", Status: StatusActive})
	res, err = svc.Freeze(ctx, admin, FreezeInput{Quarter: "q2", Year: 2026})
	if err != nil || res.AffectedCount != 2 {
		t.Fatalf("expected 2 frozen, got %+v %v", res, err)
	}
	if res.Message != "Successfully frozen 2 goal(s) for Q2 2026" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if !store.goals["a"].Frozen || store.goals["c"].Frozen {
		t.Fatal("only the matching period must freeze")
	}
	if last := notifier.sent[len(notifier.sent)-1]; last.Type != notifications.TypeGoalFrozen {
		t.Fatalf("expected freeze notification, got %+v", last)
	}

	if err := svc.Delete(ctx, principal("emp"), "a"); !errors.Is(err, ErrGoalFrozen) {
		t.Fatalf("frozen goals cannot be deleted, got %v", err)
	}

	if _, err := svc.Unfreeze(ctx, admin, UnfreezeInput{Quarter: "Q2", Year: 2026, IsEmergencyOverride: true}); !errors.Is(err, ErrEmergencyReason) {
		t.Fatalf("expected emergency reason error, got %v", err)
	}
	res, err = svc.Unfreeze(ctx, admin, UnfreezeInput{Quarter: "Q2", Year: 2026, IsEmergencyOverride: true, EmergencyReason: "audit fix"})
	if err != nil || res.AffectedCount != 2 {
		t.Fatalf("expected 2 unfrozen, got %+v %v", res, err)
	}
	if len(store.logs) != 3 || !store.logs[2].IsEmergencyOverride {
		t.Fatalf("expected emergency unfreeze log, got %+v", store.logs)
	}
}

func TestDeleteRules(t *testing.T) {
	svc, store, _ := setup()
	store.add(Goal{ID: "parent", CreatedBy: "emp", Status: StatusActive})
	store.add(Goal{ID: "child", CreatedBy: "emp", ParentGoalID: "parent", Status: StatusActive})

	if err := svc.Delete(context.Background(), principal("other"), "child"); !errors.Is(err, ErrDeleteDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if err := svc.Delete(context.Background(), principal("emp"), "parent"); !errors.Is(err, ErrDeleteWithChildren) {
		t.Fatalf("expected children error, got %v", err)
	}
	if err := svc.Delete(context.Background(), principal("emp"), "child"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.goals["child"]; ok {
		t.Fatal("child should be deleted")
	}
}

func TestHierarchyThroughService(t *testing.T) {
	svc, store, _ := setup()
	store.add(Goal{ID: "root", Scope: ScopeCompanyWide, Status: StatusActive})
	store.add(Goal{ID: "kid", Scope: ScopeIndividual, ParentGoalID: "root", Status: StatusActive, ProgressPercentage: 30})

	tree, err := svc.Hierarchy(context.Background(), principal("emp"), "root")
	if err != nil {
		t.Fatalf("hierarchy: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].ProgressPercentage != 30 {
		t.Fatalf("unexpected tree %+v", tree)
	}
}
