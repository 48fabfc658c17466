package initiatives

import "pms/internal/domain/apperr"

var (
	ErrInitiativeNotFound     = apperr.NotFound("Initiative not found")
	ErrUserNotFound           = apperr.NotFound("User not found")
	ErrDocumentNotFound       = apperr.NotFound("Document not found")
	ErrFileNotFound           = apperr.NotFound("File not found on server")
	ErrExtensionNotFound      = apperr.NotFound("Extension request not found")
	ErrSubmissionNotFound     = apperr.NotFound("No submission found for this initiative")
	ErrTitleRequired          = apperr.Validation("Title is required")
	ErrDueDateRequired        = apperr.Validation("Due date is required")
	ErrAssigneesRequired      = apperr.Validation("At least one assignee is required")
	ErrTeamHeadRequired       = apperr.Validation("Group initiatives require a team head")
	ErrTeamHeadNotAssigned    = apperr.Validation("Team head must be one of the assignees")
	ErrInvalidType            = apperr.Validation("type must be INDIVIDUAL or GROUP")
	ErrInvalidUrgency         = apperr.Validation("urgency must be LOW, MEDIUM, HIGH or URGENT")
	ErrInvalidScore           = apperr.Validation("Score must be between 1 and 10")
	ErrReportRequired         = apperr.Validation("A submission report is required")
	ErrReasonRequired         = apperr.Validation("A reason is required for an extension request")
	ErrRejectionReason        = apperr.Validation("Rejection reason is required when rejecting an initiative")
	ErrExtensionPending       = apperr.Validation("Extension request already pending for this initiative")
	ErrExtensionReviewed      = apperr.Validation("Extension request has already been reviewed")
	ErrOverdueWithExtension   = apperr.Validation("Cannot submit overdue initiative with pending extension request")
	ErrNotStarted             = apperr.Validation("Initiative must be started to submit")
	ErrDeleteApproved         = apperr.Validation("Approved initiatives cannot be deleted")
	ErrFileTypeNotAllowed     = apperr.Validation("File type not allowed")
	ErrNotApprover            = apperr.Validation("Only the initiative creator's supervisor can approve this initiative")
	ErrNotAssigneeAction      = apperr.Validation("User is not assigned to this initiative")
	ErrNotAssignee            = apperr.Forbidden("You are not assigned to this initiative")
	ErrNotTeamHeadSubmit      = apperr.Validation("Only team head can submit group initiatives")
	ErrNotTeamHeadExtension   = apperr.Validation("Only team head can request extensions for group initiatives")
	ErrNotReviewer            = apperr.Validation("Only initiative creator or supervisor can review submissions")
	ErrNotExtensionReviewer   = apperr.Validation("Only initiative creator can review extension requests")
	ErrNotCreator             = apperr.Forbidden("Only initiative creator can update initiative details")
	ErrSubmissionDenied       = apperr.Forbidden("Only initiative creator can access submission details")
	ErrDeleteDenied           = apperr.Forbidden("Only the initiative creator can delete this initiative")
	ErrAccessDenied           = apperr.Forbidden("Cannot access this initiative")
	ErrDocumentAccessDenied   = apperr.Forbidden("Cannot access this document")
	ErrInsufficientPermission = apperr.Forbidden("Insufficient permissions")
	ErrInvalidStatus          = apperr.Validation("Unknown initiative status")
	ErrStatusNeedsApproval    = apperr.Validation("Initiatives pending approval are decided through the approve endpoint")
	ErrStatusNeedsReview      = apperr.Validation("Initiatives are approved through the review endpoint")
	ErrStatusChangeDenied     = apperr.Forbidden("Only the initiative creator can change its status")
	ErrViewOthersDenied       = apperr.Forbidden("Insufficient permissions to view other users' initiatives")
)

func errTransition(from, to string) error {
	return apperr.Validation("Cannot change initiative status from %s to %s", from, to)
}

func errStatus(action, want, current string) error {
	return apperr.Validation("Initiative must be %s to %s (current: %s)", want, action, current)
}
