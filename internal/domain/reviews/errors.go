package reviews

import "pms/internal/domain/apperr"

var (
	ErrCycleNotFound      = apperr.NotFound("Review cycle not found")
	ErrAssignmentNotFound = apperr.NotFound("Assignment not found")
	ErrTraitNotFound      = apperr.NotFound("Trait not found")
	ErrQuestionNotFound   = apperr.NotFound("Question not found")
	ErrUserNotFound       = apperr.NotFound("User not found")
	ErrRevieweeNotFound   = apperr.NotFound("Reviewee not found")
	ErrOrgNotFound        = apperr.NotFound("Organization not found")

	ErrNameRequired        = apperr.Validation("Name is required")
	ErrDatesRequired       = apperr.Validation("start_date and end_date are required")
	ErrInvalidDates        = apperr.Validation("end_date must not be before start_date")
	ErrInvalidPeerCount    = apperr.Validation("peer_count must not be negative")
	ErrInvalidStatus       = apperr.Validation("Invalid review cycle status")
	ErrNotDraft            = apperr.Validation("Review cycle is not in draft status")
	ErrDraftOnly           = apperr.Validation("Can only modify questions in draft cycles")
	ErrCannotCancel        = apperr.Validation("Only draft, scheduled or active cycles can be cancelled")
	ErrAlreadyCompleted    = apperr.Validation("Assignment already completed")
	ErrCycleClosed         = apperr.Validation("Review cycle is not accepting responses")
	ErrQuestionTextMissing = apperr.Validation("question_text is required")
	ErrInvalidScopeType    = apperr.Validation("scope_type must be global, directorate, department or unit")
	ErrScopedTraitOrg      = apperr.Validation("organization_id is required for scoped traits")
	ErrGlobalTraitOrg      = apperr.Validation("Global traits cannot have an organization_id")
	ErrTraitNameTaken      = apperr.Conflict("Trait with this name already exists in this scope")
	ErrQuestionUsed        = apperr.Validation("Cannot delete question that has been used in reviews")
	ErrQuestionTrait       = apperr.Validation("Question does not belong to a trait of this cycle")

	ErrAccessDenied    = apperr.Forbidden("Access denied")
	ErrCreateDenied    = apperr.Forbidden("Insufficient permissions to create review cycles")
	ErrUpdateDenied    = apperr.Forbidden("Insufficient permissions to update this review cycle")
	ErrActivateDenied  = apperr.Forbidden("Insufficient permissions to activate review cycles")
	ErrManageDenied    = apperr.Forbidden("Insufficient permissions to manage review cycles")
	ErrTraitDenied     = apperr.Forbidden("Insufficient permissions to manage traits")
	ErrCalculateDenied = apperr.Forbidden("Insufficient permissions to calculate scores")
	ErrDashboardDenied = apperr.Forbidden("Insufficient permissions to view cycle dashboard")
	ErrProgressDenied  = apperr.Forbidden("Insufficient permissions to view user progress")
	ErrScoresDenied    = apperr.Forbidden("Insufficient permissions to view user scores")
)

func errRatingRange(rating int) error {
	return apperr.Validation("Rating must be between %d and %d, got %d", MinRating, MaxRating, rating)
}

func errTraitInUse(cycles int) error {
	return apperr.Validation("Cannot delete trait. It is currently used in %d active review cycle(s). Please complete or cancel those cycles first.", cycles)
}
