package reports

import (
	"encoding/json"
	"time"
)

// StatusCount is one row of a GROUP BY status aggregate.
type StatusCount struct {
	Status      string
	Count       int
	ProgressSum int
}

type LatestScore struct {
	CycleID      string   `json:"cycle_id"`
	CycleName    string   `json:"cycle_name"`
	OverallScore *float64 `json:"overall_performance_score"`
	Band         string   `json:"performance_band,omitempty"`
}

type PersonalDashboard struct {
	GoalsByStatus       map[string]int `json:"goals_by_status"`
	AverageGoalProgress float64        `json:"average_goal_progress"`
	InitiativesByStatus map[string]int `json:"initiatives_by_status"`
	OpenInitiatives     int            `json:"open_initiatives"`
	OverdueInitiatives  int            `json:"overdue_initiatives"`
	PendingReviews      int            `json:"pending_reviews"`
	LatestScore         *LatestScore   `json:"latest_score"`
}

type TeamCounts struct {
	DirectReports         int `json:"direct_reports"`
	GoalsAwaitingApproval int `json:"goals_awaiting_approval"`
	InitiativesToReview   int `json:"initiatives_to_review"`
	PendingExtensions     int `json:"pending_extensions"`
	OverdueInitiatives    int `json:"overdue_initiatives"`
}

type TeamDashboard struct {
	TeamCounts
	HasSupervisees bool `json:"has_supervisees"`
}

type ReviewProgress struct {
	Assignments int
	Completed   int
}

type OrganizationDashboard struct {
	ActiveUsers          int            `json:"active_users"`
	GoalsByStatus        map[string]int `json:"goals_by_status"`
	AverageGoalProgress  float64        `json:"average_goal_progress"`
	InitiativesByStatus  map[string]int `json:"initiatives_by_status"`
	ActiveReviewCycles   int            `json:"active_review_cycles"`
	ReviewCompletionRate float64        `json:"review_completion_rate"`
}

type JobRun struct {
	ID          string          `json:"id"`
	JobType     string          `json:"job_type"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
	Limit       int
	Offset      int
}
