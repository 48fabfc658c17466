package reports

import "testing"

func TestGoalSummary(t *testing.T) {
	counts, avg := GoalSummary([]StatusCount{
		{Status: "ACTIVE", Count: 3, ProgressSum: 150},
		{Status: "ACHIEVED", Count: 1, ProgressSum: 100},
		{Status: "DISCARDED", Count: 2, ProgressSum: 20},
		{Status: "REJECTED", Count: 1},
	})
	if counts["ACTIVE"] != 3 || counts["DISCARDED"] != 2 || counts["REJECTED"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if avg != 62.5 {
		t.Fatalf("expected average 62.5, got %v", avg)
	}

	if _, avg := GoalSummary([]StatusCount{{Status: "DISCARDED", Count: 4, ProgressSum: 80}}); avg != 0 {
		t.Fatalf("expected 0 when nothing is live, got %v", avg)
	}
}

func TestInitiativeSummary(t *testing.T) {
	counts, open, overdue := InitiativeSummary([]StatusCount{
		{Status: "ASSIGNED", Count: 2},
		{Status: "ONGOING", Count: 1},
		{Status: "OVERDUE", Count: 3},
		{Status: "UNDER_REVIEW", Count: 4},
		{Status: "APPROVED", Count: 5},
	})
	if open != 6 || overdue != 3 {
		t.Fatalf("expected open 6 overdue 3, got %d %d", open, overdue)
	}
	if counts["APPROVED"] != 5 || len(counts) != 5 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestCompletionRate(t *testing.T) {
	cases := []struct {
		in   ReviewProgress
		want float64
	}{
		{ReviewProgress{}, 0},
		{ReviewProgress{Assignments: 3, Completed: 1}, 33.3},
		{ReviewProgress{Assignments: 8, Completed: 8}, 100},
	}
	for _, tc := range cases {
		if got := CompletionRate(tc.in); got != tc.want {
			t.Fatalf("%+v: expected %v, got %v", tc.in, tc.want, got)
		}
	}
}
