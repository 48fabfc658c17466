package reviews

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/apperr"
	"pms/internal/domain/auth"
	"pms/internal/domain/notifications"
)

type fakeStore struct {
	cycles       map[string]*Cycle
	traits       map[string]*Trait
	questions    map[string]*Question
	assignments  map[string]*Assignment
	responses    map[string]map[string]SavedResponse
	scores       map[string][]Score
	participants []Participant
	users        map[string]UserRef
	seq          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cycles:      map[string]*Cycle{},
		traits:      map[string]*Trait{},
		questions:   map[string]*Question{},
		assignments: map[string]*Assignment{},
		responses:   map[string]map[string]SavedResponse{},
		scores:      map[string][]Score{},
		users:       map[string]UserRef{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeStore) ListCycles(_ context.Context, filter CycleFilter) ([]Cycle, error) {
	out := []Cycle{}
	for _, c := range f.cycles {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.ViewerID != "" && c.CreatedBy != filter.ViewerID && !f.involved(c.ID, filter.ViewerID) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) involved(cycleID, userID string) bool {
	for _, a := range f.assignments {
		if a.CycleID == cycleID && (a.ReviewerID == userID || a.RevieweeID == userID) {
			return true
		}
	}
	return false
}

func (f *fakeStore) GetCycle(_ context.Context, id string) (Cycle, error) {
	c, ok := f.cycles[id]
	if !ok {
		return Cycle{}, pgx.ErrNoRows
	}
	return *c, nil
}

func (f *fakeStore) CreateCycle(_ context.Context, c Cycle, traitIDs []string) (string, error) {
	c.ID = f.id("c")
	if len(traitIDs) == 0 {
		for id, t := range f.traits {
			if t.IsActive {
				traitIDs = append(traitIDs, id)
			}
		}
		slices.Sort(traitIDs)
	}
	for _, id := range traitIDs {
		if _, ok := f.traits[id]; !ok {
			return "", ErrTraitNotFound
		}
	}
	c.SelectedTraits = traitIDs
	f.cycles[c.ID] = &c
	return c.ID, nil
}

func (f *fakeStore) UpdateCycle(_ context.Context, id string, in CycleUpdate) error {
	c := f.cycles[id]
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.StartDate != nil {
		c.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		c.EndDate = *in.EndDate
	}
	if in.Components != nil {
		c.Components = *in.Components
	}
	return nil
}

func (f *fakeStore) DeleteCycle(_ context.Context, id string) error {
	delete(f.cycles, id)
	return nil
}

func (f *fakeStore) SetCycleStatus(_ context.Context, id, status string) error {
	f.cycles[id].Status = status
	return nil
}

func (f *fakeStore) SetCycleTraits(_ context.Context, id string, traitIDs []string) error {
	f.cycles[id].SelectedTraits = traitIDs
	return nil
}

func (f *fakeStore) ActiveParticipants(context.Context) ([]Participant, error) {
	return f.participants, nil
}

func (f *fakeStore) ActivateCycle(_ context.Context, cycleID string, plan []PlannedAssignment) (int, error) {
	c := f.cycles[cycleID]
	if c.Status != CycleDraft {
		return 0, ErrNotDraft
	}
	for id, a := range f.assignments {
		if a.CycleID == cycleID {
			delete(f.assignments, id)
		}
	}
	reviewees := map[string]bool{}
	for _, p := range plan {
		id := f.id("a")
		f.assignments[id] = &Assignment{
			ID: id, CycleID: cycleID, CycleName: c.Name, ReviewerID: p.ReviewerID, RevieweeID: p.RevieweeID,
			ReviewType: p.ReviewType, Status: AssignmentPending,
		}
		reviewees[p.RevieweeID] = true
	}
	c.Status = CycleScheduled
	c.ParticipantsCount = len(reviewees)
	return len(reviewees), nil
}

func (f *fakeStore) ActivateScheduledCycles(_ context.Context, today time.Time) ([]string, []string, error) {
	var activated, completed []string
	for id, c := range f.cycles {
		switch {
		case c.Status == CycleScheduled && !c.StartDate.After(today):
			c.Status = CycleActive
			activated = append(activated, id)
		case c.Status == CycleActive && c.EndDate.Before(today):
			c.Status = CycleCompleted
			completed = append(completed, id)
		}
	}
	return activated, completed, nil
}

func (f *fakeStore) ListTraits(_ context.Context, includeInactive bool) ([]Trait, error) {
	out := []Trait{}
	for _, t := range f.traits {
		if includeInactive || t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeStore) GetTrait(_ context.Context, id string) (Trait, error) {
	t, ok := f.traits[id]
	if !ok {
		return Trait{}, pgx.ErrNoRows
	}
	return *t, nil
}

func (f *fakeStore) TraitNameTaken(_ context.Context, name, scope, orgID string) (bool, error) {
	for _, t := range f.traits {
		if t.Name == name && t.ScopeType == scope && t.OrganizationID == orgID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateTrait(_ context.Context, t Trait) (string, error) {
	t.ID = f.id("t")
	t.IsActive = true
	f.traits[t.ID] = &t
	return t.ID, nil
}

func (f *fakeStore) UpdateTrait(_ context.Context, id string, in TraitUpdate) error {
	t := f.traits[id]
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	return nil
}

func (f *fakeStore) DeleteTrait(_ context.Context, id string) error {
	delete(f.traits, id)
	return nil
}

func (f *fakeStore) TraitOpenCycles(_ context.Context, traitID string) (int, error) {
	n := 0
	for _, c := range f.cycles {
		if slices.Contains(c.SelectedTraits, traitID) && (c.Status == CycleDraft || c.Status == CycleScheduled || c.Status == CycleActive) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) OrgExists(_ context.Context, orgID string) (bool, error) {
	return orgID == "ops", nil
}

func (f *fakeStore) CycleTraits(_ context.Context, cycleID string) ([]Trait, error) {
	var out []Trait
	for _, id := range f.cycles[cycleID].SelectedTraits {
		if t, ok := f.traits[id]; ok && t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeStore) Questions(_ context.Context, traitIDs []string) ([]Question, error) {
	var ids []string
	for id := range f.questions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := []Question{}
	for _, id := range ids {
		q := f.questions[id]
		if q.IsActive && slices.Contains(traitIDs, q.TraitID) {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeStore) GetQuestion(_ context.Context, id string) (Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return Question{}, pgx.ErrNoRows
	}
	return *q, nil
}

func (f *fakeStore) CreateQuestion(_ context.Context, q Question) (string, error) {
	q.ID = f.id("q")
	f.questions[q.ID] = &q
	return q.ID, nil
}

func (f *fakeStore) UpdateQuestion(_ context.Context, id string, in QuestionUpdate) error {
	q := f.questions[id]
	if in.Text != nil {
		q.Text = *in.Text
	}
	if in.IsActive != nil {
		q.IsActive = *in.IsActive
	}
	return nil
}

func (f *fakeStore) DeleteQuestion(_ context.Context, id string) error {
	delete(f.questions, id)
	return nil
}

func (f *fakeStore) QuestionUsed(_ context.Context, id string) (bool, error) {
	for _, answers := range f.responses {
		if _, ok := answers[id]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ReviewerAssignments(_ context.Context, reviewerID string) ([]Assignment, error) {
	out := []Assignment{}
	for _, a := range f.assignments {
		if a.ReviewerID == reviewerID {
			out = append(out, f.withCycle(*a))
		}
	}
	return out, nil
}

func (f *fakeStore) withCycle(a Assignment) Assignment {
	if c, ok := f.cycles[a.CycleID]; ok {
		a.CycleStatus = c.Status
	}
	return a
}

func (f *fakeStore) GetAssignment(_ context.Context, id string) (Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return Assignment{}, pgx.ErrNoRows
	}
	return f.withCycle(*a), nil
}

func (f *fakeStore) Responses(_ context.Context, assignmentID string) ([]SavedResponse, error) {
	var out []SavedResponse
	for _, r := range f.responses[assignmentID] {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) SaveResponses(_ context.Context, assignmentID string, responses []SavedResponse, complete bool) (Assignment, error) {
	if f.responses[assignmentID] == nil {
		f.responses[assignmentID] = map[string]SavedResponse{}
	}
	for _, r := range responses {
		f.responses[assignmentID][r.QuestionID] = r
	}
	a := f.assignments[assignmentID]
	if complete {
		now := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
		a.Status = AssignmentCompleted
		a.CompletedAt = &now
	} else if a.Status == AssignmentPending {
		a.Status = AssignmentInProgress
	}
	return f.withCycle(*a), nil
}

func (f *fakeStore) RevieweeProgress(_ context.Context, cycleID, revieweeID string) (int, int, error) {
	var total, completed int
	for _, a := range f.assignments {
		if a.CycleID == cycleID && a.RevieweeID == revieweeID {
			total++
			if a.Status == AssignmentCompleted {
				completed++
			}
		}
	}
	return total, completed, nil
}

func (f *fakeStore) AssignmentStats(_ context.Context, cycleID string) ([]AssignmentStat, error) {
	var out []AssignmentStat
	for _, a := range f.assignments {
		if a.CycleID == cycleID {
			out = append(out, AssignmentStat{RevieweeID: a.RevieweeID, ReviewType: a.ReviewType, Status: a.Status, Department: "Ops"})
		}
	}
	return out, nil
}

func (f *fakeStore) Ratings(_ context.Context, cycleID, userID string) ([]Rating, error) {
	var out []Rating
	for id, a := range f.assignments {
		if a.CycleID != cycleID || a.RevieweeID != userID || a.Status != AssignmentCompleted {
			continue
		}
		for qid, r := range f.responses[id] {
			q := f.questions[qid]
			if q == nil || !q.IsActive || !q.AppliesTo(a.ReviewType) {
				continue
			}
			out = append(out, Rating{TraitID: q.TraitID, ReviewType: a.ReviewType, Value: r.Rating})
		}
	}
	return out, nil
}

func (f *fakeStore) Reviewees(_ context.Context, cycleID string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, a := range f.assignments {
		if a.CycleID == cycleID && !seen[a.RevieweeID] {
			seen[a.RevieweeID] = true
			out = append(out, a.RevieweeID)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveScores(_ context.Context, cycleID, userID string, scores []Score) error {
	f.scores[cycleID+"/"+userID] = scores
	return nil
}

func (f *fakeStore) Scores(_ context.Context, cycleID, userID string) ([]Score, error) {
	return f.scores[cycleID+"/"+userID], nil
}

func (f *fakeStore) UserRef(_ context.Context, id string) (UserRef, error) {
	u, ok := f.users[id]
	if !ok {
		return UserRef{}, pgx.ErrNoRows
	}
	return u, nil
}

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

func (c *captureNotifier) count(kind string) int {
	n := 0
	for _, in := range c.sent {
		if in.Type == kind {
			n++
		}
	}
	return n
}

func principal(userID string, perms ...string) access.Principal {
	return access.NewPrincipal(userID, "role-"+userID, "employee", "ops", access.ScopeOwnSubtree, perms)
}

var (
	hr    = principal("hr", auth.PermReviewCreateCycle, auth.PermReviewManageCycle, auth.PermReviewViewAll)
	start = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
)

func setup(t *testing.T) (*Service, *fakeStore, *captureNotifier) {
	t.Helper()
	store := newFakeStore()
	store.participants = []Participant{
		{ID: "sup", OrganizationID: "ops"},
		{ID: "emp", SupervisorID: "sup", OrganizationID: "ops"},
	}
	for _, p := range store.participants {
		store.users[p.ID] = UserRef{ID: p.ID, Name: p.ID, OrganizationID: p.OrganizationID}
	}
	notifier := &captureNotifier{}
	svc := NewService(store, notifier, 5)
	svc.newRand = func() *rand.Rand { return rand.New(rand.NewPCG(1, 1)) }
	svc.now = func() time.Time { return start }
	return svc, store, notifier
}

// seedCatalogue creates one trait with a question for every review type and
// one question asked only of supervisors.
func seedCatalogue(t *testing.T, svc *Service) (Trait, Question, Question) {
	t.Helper()
	ctx := context.Background()
	trait, err := svc.CreateTrait(ctx, hr, TraitInput{Name: "Communication"})
	if err != nil {
		t.Fatalf("create trait: %v", err)
	}
	all, err := svc.CreateQuestion(ctx, hr, trait.ID, QuestionInput{Text: "Explains ideas clearly"})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	no := false
	supOnly, err := svc.CreateQuestion(ctx, hr, trait.ID, QuestionInput{
		Text: "Keeps the team informed", AppliesToSelf: &no, AppliesToPeer: &no,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	return trait, all, supOnly
}

func activeCycle(t *testing.T, svc *Service) Cycle {
	t.Helper()
	ctx := context.Background()
	cycle, err := svc.CreateCycle(ctx, hr, CycleInput{Name: "Q2 2026", StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("create cycle: %v", err)
	}
	cycle, err = svc.Activate(ctx, hr, cycle.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	return cycle
}

func assignmentFor(t *testing.T, store *fakeStore, reviewer, reviewee, kind string) Assignment {
	t.Helper()
	for _, a := range store.assignments {
		if a.ReviewerID == reviewer && a.RevieweeID == reviewee && a.ReviewType == kind {
			return *a
		}
	}
	t.Fatalf("no %s assignment %s -> %s", kind, reviewer, reviewee)
	return Assignment{}
}

func rating(v int) *int { return &v }

func TestCreateCycleValidation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	negative := -1

	cases := []struct {
		name string
		p    access.Principal
		in   CycleInput
		want error
	}{
		{"no permission", principal("emp"), CycleInput{Name: "x", StartDate: &start, EndDate: &end}, ErrCreateDenied},
		{"no name", hr, CycleInput{StartDate: &start, EndDate: &end}, ErrNameRequired},
		{"no dates", hr, CycleInput{Name: "x"}, ErrDatesRequired},
		{"reversed dates", hr, CycleInput{Name: "x", StartDate: &end, EndDate: &start}, ErrInvalidDates},
		{"negative peers", hr, CycleInput{Name: "x", StartDate: &start, EndDate: &end, Components: &Components{PeerCount: &negative}}, ErrInvalidPeerCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateCycle(ctx, tc.p, tc.in); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	created, err := svc.CreateCycle(ctx, hr, CycleInput{Name: " Q2 ", StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != CycleDraft || created.Type != "quarterly" || created.Name != "Q2" {
		t.Fatalf("unexpected cycle %+v", created)
	}
}

func TestActivateGeneratesAssignments(t *testing.T) {
	svc, store, notifier := setup(t)
	ctx := context.Background()
	seedCatalogue(t, svc)

	draft, err := svc.CreateCycle(ctx, hr, CycleInput{Name: "Q2", StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(draft.SelectedTraits) != 1 {
		t.Fatalf("expected active traits linked by default, got %v", draft.SelectedTraits)
	}
	if _, err := svc.Activate(ctx, principal("emp"), draft.ID); err != ErrActivateDenied {
		t.Fatalf("expected activate denied, got %v", err)
	}

	cycle, err := svc.Activate(ctx, hr, draft.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if cycle.Status != CycleScheduled || cycle.ParticipantsCount != 2 {
		t.Fatalf("unexpected cycle %+v", cycle)
	}
	// sup and emp each review themselves; sup reviews emp. Peers exclude
	// the supervisor and direct reports, so there are none here.
	if len(store.assignments) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(store.assignments))
	}
	assignmentFor(t, store, "sup", "emp", TypeSupervisor)
	assignmentFor(t, store, "emp", "emp", TypeSelf)
	if notifier.count(notifications.TypeReviewAssigned) != 2 {
		t.Fatalf("expected one review_assigned per reviewer, got %+v", notifier.sent)
	}

	if _, err := svc.Activate(ctx, hr, draft.ID); err != ErrNotDraft {
		t.Fatalf("expected not draft on second activation, got %v", err)
	}
	if _, err := svc.Activate(ctx, hr, "missing"); err != ErrCycleNotFound {
		t.Fatalf("expected cycle not found, got %v", err)
	}
}

func TestActivateScheduledCycles(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	cycle := activeCycle(t, svc)

	activated, completed, err := svc.ActivateScheduledCycles(ctx, start.AddDate(0, 0, -1))
	if err != nil || activated != 0 || completed != 0 {
		t.Fatalf("expected nothing before start, got %d %d %v", activated, completed, err)
	}
	activated, _, _ = svc.ActivateScheduledCycles(ctx, start)
	if activated != 1 || store.cycles[cycle.ID].Status != CycleActive {
		t.Fatalf("expected cycle active on its start date, got %s", store.cycles[cycle.ID].Status)
	}
	_, completed, _ = svc.ActivateScheduledCycles(ctx, end)
	if completed != 0 {
		t.Fatalf("cycle must stay active on its end date")
	}
	_, completed, _ = svc.ActivateScheduledCycles(ctx, end.AddDate(0, 0, 1))
	if completed != 1 || store.cycles[cycle.ID].Status != CycleCompleted {
		t.Fatalf("expected cycle completed after end date, got %s", store.cycles[cycle.ID].Status)
	}
}

func TestSubmitAndScore(t *testing.T) {
	svc, store, notifier := setup(t)
	ctx := context.Background()
	trait, all, supOnly := seedCatalogue(t, svc)
	cycle := activeCycle(t, svc)

	self := assignmentFor(t, store, "emp", "emp", TypeSelf)
	sup := assignmentFor(t, store, "sup", "emp", TypeSupervisor)

	form, err := svc.Form(ctx, principal("emp"), self.ID)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if len(form.Traits) != 1 || len(form.Traits[0].Questions) != 1 || form.Traits[0].Questions[0].ID != all.ID {
		t.Fatalf("self form must only ask the shared question, got %+v", form.Traits)
	}

	if _, err := svc.Submit(ctx, principal("sup"), self.ID, SubmitInput{}); err != ErrAccessDenied {
		t.Fatalf("expected access denied, got %v", err)
	}
	_, err = svc.Submit(ctx, principal("emp"), self.ID, SubmitInput{Responses: []Response{{QuestionID: all.ID, Rating: rating(11)}}})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected rating validation error, got %v", err)
	}
	_, err = svc.Submit(ctx, principal("emp"), self.ID, SubmitInput{Responses: []Response{{QuestionID: supOnly.ID, Rating: rating(5)}}})
	if err != ErrQuestionTrait {
		t.Fatalf("expected question outside the form to be rejected, got %v", err)
	}

	draft, err := svc.Submit(ctx, principal("emp"), self.ID, SubmitInput{
		Responses: []Response{{QuestionID: all.ID, Rating: rating(6)}, {QuestionID: "", Rating: rating(3)}},
		IsDraft:   true,
	})
	if err != nil || draft.Status != AssignmentInProgress || draft.Message != "Progress saved successfully" {
		t.Fatalf("unexpected draft result %+v %v", draft, err)
	}
	form, _ = svc.Form(ctx, principal("emp"), self.ID)
	if q := form.Traits[0].Questions[0]; q.Rating == nil || *q.Rating != 6 {
		t.Fatalf("expected draft answer in form, got %+v", q)
	}

	done, err := svc.Submit(ctx, principal("emp"), self.ID, SubmitInput{Responses: []Response{{QuestionID: all.ID, Rating: rating(8)}}})
	if err != nil || done.Status != AssignmentCompleted || done.Scored {
		t.Fatalf("self review must complete without scoring yet: %+v %v", done, err)
	}
	if _, err := svc.Submit(ctx, principal("emp"), self.ID, SubmitInput{}); err != ErrAlreadyCompleted {
		t.Fatalf("expected already completed, got %v", err)
	}

	final, err := svc.Submit(ctx, principal("sup"), sup.ID, SubmitInput{Responses: []Response{
		{QuestionID: all.ID, Rating: rating(9)},
		{QuestionID: supOnly.ID, Rating: rating(7)},
	}})
	if err != nil || !final.Scored {
		t.Fatalf("expected scoring on last assignment: %+v %v", final, err)
	}
	if notifier.count(notifications.TypeReviewCompleted) != 1 {
		t.Fatalf("expected review_completed notification, got %+v", notifier.sent)
	}

	scores, err := svc.UserScores(ctx, principal("emp"), "emp", cycle.ID)
	if err != nil {
		t.Fatalf("user scores: %v", err)
	}
	if len(scores.Traits) != 1 || scores.Traits[0].TraitID != trait.ID {
		t.Fatalf("unexpected trait scores %+v", scores.Traits)
	}
	got := scores.Traits[0]
	wantWeighted := (8*0.2 + 8*0.5) / 0.7
	if !near(got.SelfScore, 8) || !near(got.SupervisorScore, 8) || got.PeerScore != nil || !near(got.WeightedScore, wantWeighted) {
		t.Fatalf("unexpected score %+v", got)
	}
	if !near(got.ScaledScore, wantWeighted*10) {
		t.Fatalf("expected scaled score %v, got %v", wantWeighted*10, *got.ScaledScore)
	}

	if _, err := svc.UserScores(ctx, principal("sup"), "emp", cycle.ID); err != ErrScoresDenied {
		t.Fatalf("expected scores denied, got %v", err)
	}
}

func TestSubmitClosedCycle(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	seedCatalogue(t, svc)
	cycle := activeCycle(t, svc)
	store.cycles[cycle.ID].Status = CycleCancelled

	self := assignmentFor(t, store, "emp", "emp", TypeSelf)
	if _, err := svc.Submit(ctx, principal("emp"), self.ID, SubmitInput{}); err != ErrCycleClosed {
		t.Fatalf("expected cycle closed, got %v", err)
	}
}

func TestRecomputeAndDashboard(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	seedCatalogue(t, svc)
	cycle := activeCycle(t, svc)

	if _, err := svc.Recompute(ctx, principal("emp"), cycle.ID); err != ErrCalculateDenied {
		t.Fatalf("expected calculate denied, got %v", err)
	}
	n, err := svc.Recompute(ctx, hr, cycle.ID)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 reviewees recomputed, got %d %v", n, err)
	}
	if scores := store.scores[cycle.ID+"/emp"]; len(scores) != 1 || scores[0].WeightedScore != nil {
		t.Fatalf("expected an empty score row before any answers, got %+v", scores)
	}

	if _, err := svc.Dashboard(ctx, principal("emp"), cycle.ID); err != ErrDashboardDenied {
		t.Fatalf("expected dashboard denied, got %v", err)
	}
	dash, err := svc.Dashboard(ctx, hr, cycle.ID)
	if err != nil || dash.Participation.TotalParticipants != 2 || dash.ByType[TypeSelf].Total != 2 {
		t.Fatalf("unexpected dashboard %+v %v", dash, err)
	}
	progress, err := svc.UserProgress(ctx, hr, cycle.ID)
	if err != nil || len(progress) != 2 {
		t.Fatalf("unexpected progress %+v %v", progress, err)
	}
}

func TestTraitsAndQuestions(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	trait, all, _ := seedCatalogue(t, svc)

	cases := []struct {
		name string
		p    access.Principal
		in   TraitInput
		want error
	}{
		{"no permission", principal("emp"), TraitInput{Name: "x"}, ErrTraitDenied},
		{"duplicate", hr, TraitInput{Name: "Communication"}, ErrTraitNameTaken},
		{"bad scope", hr, TraitInput{Name: "x", ScopeType: "team"}, ErrInvalidScopeType},
		{"scoped without org", hr, TraitInput{Name: "x", ScopeType: "department"}, ErrScopedTraitOrg},
		{"global with org", hr, TraitInput{Name: "x", OrganizationID: "ops"}, ErrGlobalTraitOrg},
		{"unknown org", hr, TraitInput{Name: "x", ScopeType: "unit", OrganizationID: "nowhere"}, ErrOrgNotFound},
		{"scoped", hr, TraitInput{Name: "Communication", ScopeType: "Department", OrganizationID: "ops"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateTrait(ctx, tc.p, tc.in); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := svc.ListTraits(ctx, principal("emp"), true); err != ErrTraitDenied {
		t.Fatalf("expected inactive listing denied, got %v", err)
	}

	draft, err := svc.CreateCycle(ctx, hr, CycleInput{Name: "Q3", StartDate: &start, EndDate: &end, TraitIDs: []string{trait.ID}})
	if err != nil {
		t.Fatalf("create cycle: %v", err)
	}
	err = svc.DeleteTrait(ctx, hr, trait.ID)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected trait in use error, got %v", err)
	}
	if err := svc.DeleteCycle(ctx, hr, draft.ID); err != nil {
		t.Fatalf("delete draft cycle: %v", err)
	}

	store.responses["a-x"] = map[string]SavedResponse{all.ID: {QuestionID: all.ID, Rating: 5}}
	if err := svc.DeleteQuestion(ctx, hr, all.ID); err != ErrQuestionUsed {
		t.Fatalf("expected answered question kept, got %v", err)
	}
	if _, err := svc.CreateQuestion(ctx, hr, trait.ID, QuestionInput{Text: "  "}); err != ErrQuestionTextMissing {
		t.Fatalf("expected question text required, got %v", err)
	}
	if _, err := svc.CreateQuestion(ctx, hr, "missing", QuestionInput{Text: "x"}); err != ErrTraitNotFound {
		t.Fatalf("expected trait not found, got %v", err)
	}
	if err := svc.DeleteTrait(ctx, hr, trait.ID); err != nil {
		t.Fatalf("delete unused trait: %v", err)
	}
}

func TestUpdateAndCancelCycle(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	draft, err := svc.CreateCycle(ctx, hr, CycleInput{Name: "Q2", StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Q2 calibrated"
	if _, err := svc.UpdateCycle(ctx, principal("emp"), draft.ID, CycleUpdate{Name: &name}); err != ErrUpdateDenied {
		t.Fatalf("expected update denied, got %v", err)
	}
	early := start.AddDate(0, 2, 0)
	if _, err := svc.UpdateCycle(ctx, hr, draft.ID, CycleUpdate{StartDate: &early}); err != ErrInvalidDates {
		t.Fatalf("expected invalid dates, got %v", err)
	}
	updated, err := svc.UpdateCycle(ctx, hr, draft.ID, CycleUpdate{Name: &name})
	if err != nil || updated.Name != name {
		t.Fatalf("unexpected update %+v %v", updated, err)
	}

	if _, err := svc.CancelCycle(ctx, principal("emp"), draft.ID); err != ErrManageDenied {
		t.Fatalf("expected cancel denied, got %v", err)
	}
	cancelled, err := svc.CancelCycle(ctx, hr, draft.ID)
	if err != nil || cancelled.Status != CycleCancelled {
		t.Fatalf("unexpected cancel %+v %v", cancelled, err)
	}
	if _, err := svc.CancelCycle(ctx, hr, draft.ID); err != ErrCannotCancel {
		t.Fatalf("expected second cancel rejected, got %v", err)
	}
	if _, err := svc.UpdateCycle(ctx, hr, draft.ID, CycleUpdate{Name: &name}); err != ErrNotDraft {
		t.Fatalf("expected not draft, got %v", err)
	}
}

func TestListCyclesVisibility(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	activeCycle(t, svc)
	if _, err := svc.CreateCycle(ctx, hr, CycleInput{Name: "Later", StartDate: &start, EndDate: &end}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, _ := svc.ListCycles(ctx, hr, "")
	if len(all) != 2 {
		t.Fatalf("expected hr to see 2 cycles, got %d", len(all))
	}
	mine, _ := svc.ListCycles(ctx, principal("emp"), "")
	if len(mine) != 1 {
		t.Fatalf("expected emp to see only the cycle they take part in, got %d", len(mine))
	}
	drafts, _ := svc.ListCycles(ctx, hr, "draft")
	if len(drafts) != 1 {
		t.Fatalf("expected one draft, got %d", len(drafts))
	}
	if _, err := svc.ListCycles(ctx, hr, "bogus"); err != ErrInvalidStatus {
		t.Fatalf("expected invalid status, got %v", err)
	}
}
