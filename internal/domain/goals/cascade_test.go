package goals

import (
	"errors"
	"testing"
)

func TestValidParent(t *testing.T) {
	cases := []struct {
		child, parent string
		want          bool
	}{
		{ScopeCompanyWide, ScopeCompanyWide, true},
		{ScopeCompanyWide, ScopeDepartmental, false},
		{ScopeCompanyWide, ScopeIndividual, false},
		{ScopeDepartmental, ScopeCompanyWide, true},
		{ScopeDepartmental, ScopeDepartmental, false},
		{ScopeDepartmental, ScopeIndividual, false},
		{ScopeIndividual, ScopeCompanyWide, true},
		{ScopeIndividual, ScopeDepartmental, true},
		{ScopeIndividual, ScopeIndividual, false},
	}
	for _, tc := range cases {
		if got := ValidParent(tc.child, tc.parent); got != tc.want {
			t.Fatalf("ValidParent(%s, %s) = %v, want %v", tc.child, tc.parent, got, tc.want)
		}
	}
}

func TestAllAchieved(t *testing.T) {
	if AllAchieved(nil) {
		t.Fatal("no children must not count as achieved")
	}
	if AllAchieved([]string{StatusAchieved, StatusActive}) {
		t.Fatal("mixed children must not count as achieved")
	}
	if !AllAchieved([]string{StatusAchieved, StatusAchieved}) {
		t.Fatal("expected achieved")
	}
}

func TestRollupProgress(t *testing.T) {
	if _, ok := RollupProgress(nil); ok {
		t.Fatal("no children must not produce a value")
	}
	if _, ok := RollupProgress([]ChildProgress{{Status: StatusDiscarded, Percentage: 40}}); ok {
		t.Fatal("discarded children must not count")
	}
	pct, ok := RollupProgress([]ChildProgress{
		{Status: StatusActive, Percentage: 25},
		{Status: StatusAchieved, Percentage: 80},
		{Status: StatusRejected, Percentage: 90},
		{Status: StatusPendingApproval, Percentage: 0},
	})
	if !ok || pct != 42 {
		t.Fatalf("expected 42, got %d (ok=%v)", pct, ok)
	}
}

func TestValidateProgress(t *testing.T) {
	leaf := Goal{ID: "g1"}
	cases := []struct {
		name     string
		goal     Goal
		pct      int
		report   string
		children int
		want     error
	}{
		{"empty report", leaf, 50, "   ", 0, ErrReportRequired},
		{"below range", leaf, -1, "ok", 0, ErrInvalidPercentage},
		{"above range", leaf, 101, "ok", 0, ErrInvalidPercentage},
		{"has children", leaf, 50, "ok", 2, ErrHasChildren},
		{"frozen", Goal{Frozen: true}, 50, "ok", 0, ErrGoalFrozen},
		{"valid", leaf, 100, "done", 0, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateProgress(tc.goal, tc.pct, tc.report, tc.children); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestBuildHierarchy(t *testing.T) {
	goals := []Goal{
		{ID: "root", Title: "Company", Scope: ScopeCompanyWide, ProgressPercentage: 40},
		{ID: "dept", ParentGoalID: "root", Scope: ScopeDepartmental},
		{ID: "ind1", ParentGoalID: "dept", Scope: ScopeIndividual, Status: StatusAchieved},
		{ID: "ind2", ParentGoalID: "dept", Scope: ScopeIndividual},
		{ID: "ind3", ParentGoalID: "root", Scope: ScopeIndividual},
	}
	tree, err := BuildHierarchy("root", goals)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tree.ProgressPercentage != 40 || len(tree.Children) != 2 {
		t.Fatalf("unexpected root %+v", tree)
	}
	if tree.Children[0].ID != "dept" || len(tree.Children[0].Children) != 2 {
		t.Fatalf("unexpected department node %+v", tree.Children[0])
	}
	if tree.Children[0].Children[0].Status != StatusAchieved {
		t.Fatalf("expected status carried into node")
	}
	if len(tree.Children[1].Children) != 0 || tree.Children[1].Children == nil {
		t.Fatalf("leaf children should be an empty list")
	}
}

func TestBuildHierarchyRejectsMissingRoot(t *testing.T) {
	if _, err := BuildHierarchy("missing", []Goal{{ID: "a"}}); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestComputeStats(t *testing.T) {
	goals := []Goal{
		{Scope: ScopeIndividual, Type: TypeQuarterly, Status: StatusActive, ProgressPercentage: 50},
		{Scope: ScopeCompanyWide, Type: TypeYearly, Status: StatusAchieved, ProgressPercentage: 100},
		{Scope: ScopeIndividual, Type: TypeQuarterly, Status: StatusActive, ProgressPercentage: 0},
	}
	late := 0
	stats := ComputeStats(goals, func(g Goal) bool {
		late++
		return g.ProgressPercentage == 0
	})
	if stats.TotalGoals != 3 || stats.ByScope[ScopeIndividual] != 2 || stats.ByStatus[StatusRejected] != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.AverageProgress != 50 || stats.OverdueGoals != 1 || late != 2 {
		t.Fatalf("unexpected aggregates %+v (checked %d)", stats, late)
	}
}
