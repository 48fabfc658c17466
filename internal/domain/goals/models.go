package goals

import "time"

const (
	ScopeCompanyWide  = "COMPANY_WIDE"
	ScopeDepartmental = "DEPARTMENTAL"
	ScopeIndividual   = "INDIVIDUAL"
)

const (
	TypeYearly    = "YEARLY"
	TypeQuarterly = "QUARTERLY"
)

const (
	StatusPendingApproval = "PENDING_APPROVAL"
	StatusActive          = "ACTIVE"
	StatusAchieved        = "ACHIEVED"
	StatusDiscarded       = "DISCARDED"
	StatusRejected        = "REJECTED"
)

const (
	FreezeActionFreeze   = "freeze"
	FreezeActionUnfreeze = "unfreeze"
)

var (
	Scopes   = []string{ScopeCompanyWide, ScopeDepartmental, ScopeIndividual}
	Types    = []string{TypeYearly, TypeQuarterly}
	Statuses = []string{StatusPendingApproval, StatusActive, StatusAchieved, StatusDiscarded, StatusRejected}
	Quarters = []string{"Q1", "Q2", "Q3", "Q4"}
)

type Goal struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Scope              string     `json:"scope"`
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	Quarter            string     `json:"quarter,omitempty"`
	Year               *int       `json:"year,omitempty"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	OrganizationID     string     `json:"organization_id,omitempty"`
	ParentGoalID       string     `json:"parent_goal_id,omitempty"`
	CreatedBy          string     `json:"created_by"`
	OwnerID            string     `json:"owner_id,omitempty"`
	OwnerName          string     `json:"owner_name,omitempty"`
	ApprovedBy         string     `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	RejectionReason    string     `json:"rejection_reason,omitempty"`
	Frozen             bool       `json:"frozen"`
	FrozenAt           *time.Time `json:"frozen_at,omitempty"`
	FrozenBy           string     `json:"frozen_by,omitempty"`
	AchievedAt         *time.Time `json:"achieved_at,omitempty"`
	DiscardedAt        *time.Time `json:"discarded_at,omitempty"`
	DiscardReason      string     `json:"discard_reason,omitempty"`
	ChildCount         int        `json:"child_count"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type CreateInput struct {
	Title          string
	Description    string
	Scope          string
	Type           string
	Quarter        string
	Year           *int
	StartDate      *time.Time
	EndDate        *time.Time
	OrganizationID string
	ParentGoalID   string
	OwnerID        string
}

type UpdateInput struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}

type ListFilter struct {
	Scope  string
	Type   string
	Status string
	// Visibility restriction; nil means unrestricted.
	ViewerID string
	OrgIDs   []string
	Limit    int
	Offset   int
}

type ProgressReport struct {
	ID            string    `json:"id"`
	GoalID        string    `json:"goal_id"`
	OldPercentage int       `json:"old_percentage"`
	NewPercentage int       `json:"new_percentage"`
	Report        string    `json:"report"`
	UpdatedBy     string    `json:"updated_by"`
	UpdatedByName string    `json:"updated_by_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Assignment struct {
	ID              string     `json:"id"`
	GoalID          string     `json:"goal_id"`
	AssignedBy      string     `json:"assigned_by"`
	AssignedTo      string     `json:"assigned_to"`
	Status          string     `json:"status"`
	ResponseMessage string     `json:"response_message,omitempty"`
	AssignedAt      time.Time  `json:"assigned_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
}

type FreezeInput struct {
	Quarter               string
	Year                  int
	ScheduledUnfreezeDate *time.Time
}

type UnfreezeInput struct {
	Quarter             string
	Year                int
	IsEmergencyOverride bool
	EmergencyReason     string
}

type FreezeLog struct {
	ID                    string     `json:"id"`
	Action                string     `json:"action"`
	Quarter               string     `json:"quarter"`
	Year                  int        `json:"year"`
	AffectedGoalsCount    int        `json:"affected_goals_count"`
	ScheduledUnfreezeDate *time.Time `json:"scheduled_unfreeze_date,omitempty"`
	IsEmergencyOverride   bool       `json:"is_emergency_override"`
	EmergencyReason       string     `json:"emergency_reason,omitempty"`
	PerformedBy           string     `json:"performed_by"`
	PerformerName         string     `json:"performer_name,omitempty"`
	PerformedAt           time.Time  `json:"performed_at"`
}

type FreezeResult struct {
	AffectedCount int    `json:"affected_count"`
	Message       string `json:"message"`
}

type Stats struct {
	TotalGoals      int            `json:"total_goals"`
	ByScope         map[string]int `json:"by_scope"`
	ByType          map[string]int `json:"by_type"`
	ByStatus        map[string]int `json:"by_status"`
	AverageProgress float64        `json:"average_progress"`
	OverdueGoals    int            `json:"overdue_goals"`
}

// UserRef is the slice of a user record the workflow needs.
type UserRef struct {
	ID             string
	Name           string
	SupervisorID   string
	OrganizationID string
	Status         string
}
