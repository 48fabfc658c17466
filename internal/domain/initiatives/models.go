package initiatives

import "time"

const (
	TypeIndividual = "INDIVIDUAL"
	TypeGroup      = "GROUP"
)

const (
	UrgencyLow    = "LOW"
	UrgencyMedium = "MEDIUM"
	UrgencyHigh   = "HIGH"
	UrgencyUrgent = "URGENT"
)

const (
	StatusPendingApproval = "PENDING_APPROVAL"
	StatusAssigned        = "ASSIGNED"
	StatusPending         = "PENDING"
	StatusOngoing         = "ONGOING"
	StatusUnderReview     = "UNDER_REVIEW"
	StatusApproved        = "APPROVED"
	StatusRejected        = "REJECTED"
	StatusOverdue         = "OVERDUE"
)

const (
	ExtensionPending  = "PENDING"
	ExtensionApproved = "APPROVED"
	ExtensionDenied   = "DENIED"
)

var (
	Types     = []string{TypeIndividual, TypeGroup}
	Urgencies = []string{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent}
	Statuses  = []string{
		StatusPendingApproval, StatusAssigned, StatusPending, StatusOngoing,
		StatusUnderReview, StatusApproved, StatusRejected, StatusOverdue,
	}
)

// DocumentContentTypes lists the accepted upload types.
var DocumentContentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/jpeg",
	"image/png",
	"image/gif",
	"text/plain",
}

type Initiative struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Type            string     `json:"type"`
	Urgency         string     `json:"urgency"`
	DueDate         time.Time  `json:"due_date"`
	Status          string     `json:"status"`
	Score           *int       `json:"score,omitempty"`
	Feedback        string     `json:"feedback,omitempty"`
	GoalID          string     `json:"goal_id,omitempty"`
	GoalTitle       string     `json:"goal_title,omitempty"`
	TeamHeadID      string     `json:"team_head_id,omitempty"`
	TeamHeadName    string     `json:"team_head_name,omitempty"`
	CreatedBy       string     `json:"created_by"`
	CreatorName     string     `json:"creator_name,omitempty"`
	CreatorOrgID    string     `json:"-"`
	AssignedBy      string     `json:"assigned_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	Assignments     []Assignee `json:"assignments"`
	AssigneeCount   int        `json:"assignee_count"`
	SubmissionCount int        `json:"submission_count"`
	DocumentCount   int        `json:"document_count"`
	ExtensionCount  int        `json:"extension_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AssigneeIDs returns the ids of the assigned users.
func (i Initiative) AssigneeIDs() []string {
	ids := make([]string, 0, len(i.Assignments))
	for _, a := range i.Assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}

func (i Initiative) IsAssignee(userID string) bool {
	for _, a := range i.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

type Assignee struct {
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email"`
	AssignedAt time.Time `json:"assigned_at"`
}

type CreateInput struct {
	Title       string
	Description string
	Type        string
	Urgency     string
	DueDate     *time.Time
	GoalID      string
	TeamHeadID  string
	AssigneeIDs []string
	DocumentIDs []string
}

type UpdateInput struct {
	Title       *string
	Description *string
	Urgency     *string
	DueDate     *time.Time
	GoalID      *string
}

// ListFilter narrows initiative listings. InvolvedID keeps initiatives the
// user created or is assigned to. When ViewerID is set, only initiatives the
// viewer is involved in are returned, plus those whose creator belongs to one
// of OrgIDs.
type ListFilter struct {
	Statuses   []string
	Type       string
	Urgency    string
	AssigneeID string
	CreatorID  string
	InvolvedID string
	ViewerID   string
	OrgIDs     []string
	Limit      int
	Offset     int
}

type Submission struct {
	ID            string     `json:"id"`
	InitiativeID  string     `json:"initiative_id"`
	Report        string     `json:"report"`
	SubmittedBy   string     `json:"submitted_by"`
	SubmitterName string     `json:"submitter_name,omitempty"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	Documents     []Document `json:"documents"`
}

type Document struct {
	ID           string    `json:"id"`
	InitiativeID string    `json:"initiative_id,omitempty"`
	FileName     string    `json:"file_name"`
	ObjectKey    string    `json:"-"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	UploadedBy   string    `json:"uploaded_by"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type Extension struct {
	ID           string     `json:"id"`
	InitiativeID string     `json:"initiative_id"`
	NewDueDate   time.Time  `json:"new_due_date"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	RequestedBy  string     `json:"requested_by"`
	ReviewedBy   string     `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Stats struct {
	TotalInitiatives   int            `json:"total_initiatives"`
	ByStatus           map[string]int `json:"by_status"`
	ByType             map[string]int `json:"by_type"`
	ByUrgency          map[string]int `json:"by_urgency"`
	OverdueInitiatives int            `json:"overdue_initiatives"`
	PendingApproval    int            `json:"pending_approval"`
	AverageScore       *float64       `json:"average_score"`
	CompletionRate     float64        `json:"completion_rate"`
}

type UserRef struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	JobTitle       string `json:"job_title,omitempty"`
	SupervisorID   string `json:"-"`
	OrganizationID string `json:"-"`
	Status         string `json:"-"`
}

type SuperviseeSummary struct {
	HasSupervisees  bool `json:"has_supervisees"`
	SuperviseeCount int  `json:"supervisee_count"`
}
