package performance

import "time"

const (
	BandOutstanding         = "outstanding"
	BandExceedsExpectations = "exceeds_expectations"
	BandMeetsExpectations   = "meets_expectations"
	BandBelowExpectations   = "below_expectations"
	BandNeedsImprovement    = "needs_improvement"

	TaskWeight   = 0.6
	ReviewWeight = 0.4
)

var Bands = []string{BandOutstanding, BandExceedsExpectations, BandMeetsExpectations, BandBelowExpectations, BandNeedsImprovement}

type Score struct {
	UserID           string    `json:"user_id"`
	UserName         string    `json:"user_name"`
	JobTitle         string    `json:"job_title,omitempty"`
	OrganizationID   string    `json:"organization_id,omitempty"`
	OrganizationName string    `json:"organization_name,omitempty"`
	CycleID          string    `json:"cycle_id"`
	TaskScore        *float64  `json:"task_performance_score"`
	ReviewScore      *float64  `json:"review_performance_score"`
	OverallScore     *float64  `json:"overall_performance_score"`
	Band             string    `json:"performance_band,omitempty"`
	OrganizationRank *int      `json:"organization_rank"`
	DepartmentRank   *int      `json:"department_rank"`
	DirectorateRank  *int      `json:"directorate_rank"`
	CalculatedAt     time.Time `json:"calculated_at"`
}

// Input is everything needed to score one user in a cycle.
type Input struct {
	UserID         string
	UserName       string
	OrganizationID string
	TaskScores     []int
	ReviewScores   []float64
}

type Cycle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Period    string    `json:"period,omitempty"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
}

type Summary struct {
	Participants     int            `json:"participants"`
	Scored           int            `json:"scored"`
	AverageOverall   *float64       `json:"average_overall"`
	BandDistribution map[string]int `json:"band_distribution"`
}

type Leaderboard struct {
	Cycle   Cycle   `json:"cycle"`
	Summary Summary `json:"summary"`
	Scores  []Score `json:"scores"`
}

// TraitLine is one trait's review score, shown on the PDF report.
type TraitLine struct {
	Name        string   `json:"name"`
	ScaledScore *float64 `json:"scaled_score"`
}
