package reviews

import "time"

const (
	CycleDraft     = "DRAFT"
	CycleScheduled = "SCHEDULED"
	CycleActive    = "ACTIVE"
	CycleCompleted = "COMPLETED"
	CycleCancelled = "CANCELLED"

	TypeSelf       = "self"
	TypePeer       = "peer"
	TypeSupervisor = "supervisor"

	AssignmentPending    = "pending"
	AssignmentInProgress = "in_progress"
	AssignmentCompleted  = "completed"
	AssignmentOverdue    = "overdue"

	TraitScopeGlobal      = "global"
	TraitScopeDirectorate = "directorate"
	TraitScopeDepartment  = "department"
	TraitScopeUnit        = "unit"

	DefaultPeerCount = 5
	MinRating        = 1
	MaxRating        = 10
)

var (
	CycleStatuses = []string{CycleDraft, CycleScheduled, CycleActive, CycleCompleted, CycleCancelled}
	ReviewTypes   = []string{TypeSelf, TypePeer, TypeSupervisor}
	TraitScopes   = []string{TraitScopeGlobal, TraitScopeDirectorate, TraitScopeDepartment, TraitScopeUnit}
)

// Components is the cycle's JSON configuration. Self and supervisor reviews
// are always generated; PeerCount caps peer reviews per reviewee.
type Components struct {
	PeerCount *int `json:"peer_count,omitempty"`
}

type Cycle struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	Period            string     `json:"period,omitempty"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           time.Time  `json:"end_date"`
	Status            string     `json:"status"`
	Components        Components `json:"components"`
	ParticipantsCount int        `json:"participants_count"`
	CompletionRate    float64    `json:"completion_rate"`
	CreatedBy         string     `json:"created_by"`
	SelectedTraits    []string   `json:"selected_traits"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type CycleInput struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Period     string      `json:"period"`
	StartDate  *time.Time  `json:"start_date"`
	EndDate    *time.Time  `json:"end_date"`
	Components *Components `json:"components"`
	TraitIDs   []string    `json:"trait_ids"`
}

type CycleUpdate struct {
	Name       *string     `json:"name"`
	Type       *string     `json:"type"`
	Period     *string     `json:"period"`
	StartDate  *time.Time  `json:"start_date"`
	EndDate    *time.Time  `json:"end_date"`
	Components *Components `json:"components"`
}

type CycleFilter struct {
	Status   string
	ViewerID string
}

type Trait struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	IsActive         bool      `json:"is_active"`
	DisplayOrder     int       `json:"display_order"`
	ScopeType        string    `json:"scope_type"`
	OrganizationID   string    `json:"organization_id,omitempty"`
	OrganizationName string    `json:"organization_name,omitempty"`
	QuestionCount    int       `json:"question_count"`
	CreatedAt        time.Time `json:"created_at"`
}

type TraitInput struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	DisplayOrder   *int   `json:"display_order"`
	ScopeType      string `json:"scope_type"`
	OrganizationID string `json:"organization_id"`
}

type TraitUpdate struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

type Question struct {
	ID                  string    `json:"id"`
	TraitID             string    `json:"trait_id"`
	Text                string    `json:"question_text"`
	AppliesToSelf       bool      `json:"applies_to_self"`
	AppliesToPeer       bool      `json:"applies_to_peer"`
	AppliesToSupervisor bool      `json:"applies_to_supervisor"`
	DisplayOrder        int       `json:"display_order"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
}

// AppliesTo reports whether the question is asked in a review of the given type.
func (q Question) AppliesTo(reviewType string) bool {
	switch reviewType {
	case TypeSelf:
		return q.AppliesToSelf
	case TypePeer:
		return q.AppliesToPeer
	case TypeSupervisor:
		return q.AppliesToSupervisor
	}
	return false
}

type QuestionInput struct {
	Text                string `json:"question_text"`
	AppliesToSelf       *bool  `json:"applies_to_self"`
	AppliesToPeer       *bool  `json:"applies_to_peer"`
	AppliesToSupervisor *bool  `json:"applies_to_supervisor"`
	DisplayOrder        int    `json:"display_order"`
}

type QuestionUpdate struct {
	Text                *string `json:"question_text"`
	AppliesToSelf       *bool   `json:"applies_to_self"`
	AppliesToPeer       *bool   `json:"applies_to_peer"`
	AppliesToSupervisor *bool   `json:"applies_to_supervisor"`
	IsActive            *bool   `json:"is_active"`
}

type Assignment struct {
	ID           string     `json:"id"`
	CycleID      string     `json:"cycle_id"`
	CycleName    string     `json:"cycle_name"`
	CycleStatus  string     `json:"cycle_status"`
	ReviewerID   string     `json:"reviewer_id"`
	RevieweeID   string     `json:"reviewee_id"`
	RevieweeName string     `json:"reviewee_name"`
	ReviewType   string     `json:"review_type"`
	Status       string     `json:"status"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PlannedAssignment is one reviewer/reviewee pairing produced at activation.
type PlannedAssignment struct {
	ReviewerID string
	RevieweeID string
	ReviewType string
}

// Participant is an active user considered for assignment generation.
type Participant struct {
	ID             string
	Name           string
	Email          string
	SupervisorID   string
	OrganizationID string
}

type Response struct {
	QuestionID string `json:"question_id"`
	Rating     *int   `json:"rating"`
	Comment    string `json:"comment"`
}

type SubmitInput struct {
	Responses []Response `json:"responses"`
	IsDraft   bool       `json:"is_draft"`
}

type SubmitResult struct {
	AssignmentID string     `json:"assignment_id"`
	Status       string     `json:"status"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Message      string     `json:"message"`
	Scored       bool       `json:"scored"`
}

type FormQuestion struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Rating  *int   `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

type FormTrait struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Questions   []FormQuestion `json:"questions"`
}

type Form struct {
	AssignmentID string      `json:"assignment_id"`
	ReviewType   string      `json:"review_type"`
	Status       string      `json:"status"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	Reviewee     PersonRef   `json:"reviewee"`
	Cycle        CycleRef    `json:"cycle"`
	Traits       []FormTrait `json:"traits"`
}

type PersonRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	JobTitle   string `json:"job_title,omitempty"`
	Department string `json:"department,omitempty"`
}

type CycleRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Period string `json:"period,omitempty"`
}

type SavedResponse struct {
	QuestionID string
	Rating     int
	Comment    string
}

// Rating is one answered question from a completed assignment, tagged with
// the trait it measures and the type of review it came from.
type Rating struct {
	TraitID    string
	ReviewType string
	Value      int
}

type Score struct {
	CycleID         string    `json:"cycle_id"`
	UserID          string    `json:"user_id"`
	TraitID         string    `json:"trait_id"`
	TraitName       string    `json:"trait_name,omitempty"`
	SelfScore       *float64  `json:"self_score"`
	PeerScore       *float64  `json:"peer_score"`
	SupervisorScore *float64  `json:"supervisor_score"`
	WeightedScore   *float64  `json:"weighted_score"`
	ScaledScore     *float64  `json:"scaled_score"`
	CalculatedAt    time.Time `json:"calculated_at"`
}

type Averages struct {
	Self       *float64 `json:"self_average"`
	Peer       *float64 `json:"peer_average"`
	Supervisor *float64 `json:"supervisor_average"`
	Weighted   *float64 `json:"weighted_average"`
}

type UserScores struct {
	User     PersonRef `json:"user"`
	Cycle    CycleRef  `json:"cycle"`
	Traits   []Score   `json:"trait_scores"`
	Averages Averages  `json:"overall_averages"`
}

type TypeProgress struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

type DepartmentProgress struct {
	Department            string  `json:"department"`
	TotalParticipants     int     `json:"total_participants"`
	CompletedParticipants int     `json:"completed_participants"`
	CompletionRate        float64 `json:"completion_rate"`
}

type Participation struct {
	TotalParticipants     int     `json:"total_participants"`
	CompletedParticipants int     `json:"completed_participants"`
	CompletionRate        float64 `json:"completion_rate"`
}

type Dashboard struct {
	Cycle         Cycle                   `json:"cycle"`
	Participation Participation           `json:"participation"`
	ByType        map[string]TypeProgress `json:"assignment_statistics"`
	Departments   []DepartmentProgress    `json:"department_breakdown"`
}

// AssignmentStat is one row of the per-reviewee assignment breakdown used
// to build dashboards and progress reports.
type AssignmentStat struct {
	RevieweeID string
	Name       string
	JobTitle   string
	Department string
	ReviewType string
	Status     string
}

type UserProgress struct {
	UserID     string                  `json:"user_id"`
	Name       string                  `json:"name"`
	JobTitle   string                  `json:"job_title,omitempty"`
	Department string                  `json:"department,omitempty"`
	Overall    TypeProgress            `json:"overall_progress"`
	ByType     map[string]TypeProgress `json:"assignments_by_type"`
}

type UserRef struct {
	ID             string
	Name           string
	JobTitle       string
	Department     string
	OrganizationID string
}
