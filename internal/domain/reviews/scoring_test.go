package reviews

import (
	"math"
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func near(got *float64, want float64) bool {
	return got != nil && math.Abs(*got-want) < 1e-9
}

func TestWeighted(t *testing.T) {
	cases := []struct {
		name                   string
		self, peer, supervisor *float64
		want                   *float64
	}{
		{"all present", f(8), f(6), f(9), f(8*0.2 + 6*0.3 + 9*0.5)},
		{"self and supervisor", f(10), nil, f(5), f((10*0.2 + 5*0.5) / 0.7)},
		{"peer only", nil, f(7), nil, f(7)},
		{"none", nil, nil, nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Weighted(tc.self, tc.peer, tc.supervisor)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", *got)
				}
				return
			}
			if !near(got, *tc.want) {
				t.Fatalf("expected %v, got %v", *tc.want, got)
			}
		})
	}
}

func TestWeightedSupervisorOnlyIsExact(t *testing.T) {
	for _, avg := range []float64{1, 3.3333333333333335, 7.25, 9.9, 10} {
		got := Weighted(nil, nil, &avg)
		if got == nil || *got != avg {
			t.Fatalf("supervisor-only score %v: got %v", avg, got)
		}
	}
}

func TestScoreTraits(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	ratings := []Rating{
		{TraitID: "comm", ReviewType: TypeSelf, Value: 8},
		{TraitID: "comm", ReviewType: TypeSelf, Value: 6},
		{TraitID: "comm", ReviewType: TypePeer, Value: 5},
		{TraitID: "comm", ReviewType: TypePeer, Value: 7},
		{TraitID: "comm", ReviewType: TypePeer, Value: 9},
		{TraitID: "comm", ReviewType: TypeSupervisor, Value: 10},
		{TraitID: "lead", ReviewType: TypeSupervisor, Value: 6},
		{TraitID: "unused", ReviewType: TypeSelf, Value: 1},
	}
	scores := ScoreTraits("c1", "u1", []string{"comm", "lead", "empty"}, ratings, now)
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}

	comm := scores[0]
	if !near(comm.SelfScore, 7) || !near(comm.PeerScore, 7) || !near(comm.SupervisorScore, 10) {
		t.Fatalf("unexpected averages %+v", comm)
	}
	if !near(comm.WeightedScore, 7*0.2+7*0.3+10*0.5) || !near(comm.ScaledScore, (7*0.2+7*0.3+10*0.5)*10) {
		t.Fatalf("unexpected weighted %v scaled %v", *comm.WeightedScore, *comm.ScaledScore)
	}

	lead := scores[1]
	if lead.SelfScore != nil || lead.PeerScore != nil || *lead.WeightedScore != 6 || *lead.ScaledScore != 60 {
		t.Fatalf("unexpected lead score %+v", lead)
	}

	empty := scores[2]
	if empty.WeightedScore != nil || empty.ScaledScore != nil || empty.SupervisorScore != nil {
		t.Fatalf("expected empty trait to have no scores, got %+v", empty)
	}
	if !empty.CalculatedAt.Equal(now) || empty.CycleID != "c1" || empty.UserID != "u1" {
		t.Fatalf("unexpected metadata %+v", empty)
	}
}

func TestSummarize(t *testing.T) {
	avg := Summarize([]Score{
		{SelfScore: f(6), WeightedScore: f(7)},
		{SelfScore: f(8), SupervisorScore: f(9), WeightedScore: f(9)},
		{},
	})
	if !near(avg.Self, 7) || !near(avg.Supervisor, 9) || !near(avg.Weighted, 8) || avg.Peer != nil {
		t.Fatalf("unexpected averages %+v", avg)
	}
}

func TestBuildDashboard(t *testing.T) {
	stats := []AssignmentStat{
		{RevieweeID: "a", Department: "Ops", ReviewType: TypeSelf, Status: AssignmentCompleted},
		{RevieweeID: "a", Department: "Ops", ReviewType: TypeSupervisor, Status: AssignmentCompleted},
		{RevieweeID: "b", Department: "Ops", ReviewType: TypeSelf, Status: AssignmentCompleted},
		{RevieweeID: "b", Department: "Ops", ReviewType: TypePeer, Status: AssignmentPending},
		{RevieweeID: "c", Department: "Finance", ReviewType: TypeSelf, Status: AssignmentInProgress},
	}
	dash := BuildDashboard(Cycle{ID: "c1"}, stats)
	if dash.Participation.TotalParticipants != 3 || dash.Participation.CompletedParticipants != 1 {
		t.Fatalf("unexpected participation %+v", dash.Participation)
	}
	self := dash.ByType[TypeSelf]
	if self.Total != 3 || self.Completed != 2 || !near(&self.CompletionRate, 200.0/3) {
		t.Fatalf("unexpected self stats %+v", self)
	}
	if dash.ByType[TypePeer].CompletionRate != 0 || dash.ByType[TypeSupervisor].CompletionRate != 100 {
		t.Fatalf("unexpected type stats %+v", dash.ByType)
	}
	if len(dash.Departments) != 2 || dash.Departments[0].Department != "Ops" || dash.Departments[0].CompletionRate != 50 {
		t.Fatalf("unexpected departments %+v", dash.Departments)
	}

	empty := BuildDashboard(Cycle{}, nil)
	if empty.Participation.CompletionRate != 0 || len(empty.ByType) != 3 {
		t.Fatalf("unexpected empty dashboard %+v", empty)
	}
}

func TestBuildProgress(t *testing.T) {
	progress := BuildProgress([]AssignmentStat{
		{RevieweeID: "a", Name: "Ann", ReviewType: TypeSelf, Status: AssignmentCompleted},
		{RevieweeID: "a", Name: "Ann", ReviewType: TypePeer, Status: AssignmentPending},
		{RevieweeID: "a", Name: "Ann", ReviewType: TypePeer, Status: AssignmentCompleted},
		{RevieweeID: "b", Name: "Bo", ReviewType: TypeSelf, Status: AssignmentPending},
	})
	if len(progress) != 2 || progress[0].UserID != "a" {
		t.Fatalf("unexpected progress %+v", progress)
	}
	ann := progress[0]
	if ann.Overall.Total != 3 || ann.Overall.Completed != 2 {
		t.Fatalf("unexpected overall %+v", ann.Overall)
	}
	if peer := ann.ByType[TypePeer]; peer.Total != 2 || peer.CompletionRate != 50 {
		t.Fatalf("unexpected peer progress %+v", peer)
	}
	if progress[1].Overall.CompletionRate != 0 {
		t.Fatalf("unexpected progress for b %+v", progress[1])
	}
}
