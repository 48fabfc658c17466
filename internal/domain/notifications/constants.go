package notifications

const (
	TypeGoalCreated         = "goal_created"
	TypeGoalAssigned        = "goal_assigned"
	TypeGoalApproved        = "goal_approved"
	TypeGoalRejected        = "goal_rejected"
	TypeGoalAccepted        = "goal_accepted"
	TypeGoalDeclined        = "goal_declined"
	TypeGoalChangeRequested = "goal_change_requested"
	TypeGoalAchieved        = "goal_achieved"
	TypeGoalFrozen          = "goal_frozen"
	TypeGoalUnfrozen        = "goal_unfrozen"

	TypeInitiativeCreated           = "initiative_created"
	TypeInitiativeAssigned          = "initiative_assigned"
	TypeInitiativeApproved          = "initiative_approved"
	TypeInitiativeRejected          = "initiative_rejected"
	TypeInitiativeSubmitted         = "initiative_submitted"
	TypeInitiativeReviewed          = "initiative_reviewed"
	TypeInitiativeRedo              = "initiative_redo"
	TypeInitiativeOverdue           = "initiative_overdue"
	TypeInitiativeExtensionRequest  = "initiative_extension_requested"
	TypeInitiativeExtensionReviewed = "initiative_extension_reviewed"

	TypeReviewAssigned     = "review_assigned"
	TypeReviewCompleted    = "review_completed"
	TypeSystemAnnouncement = "system_announcement"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

func ValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
