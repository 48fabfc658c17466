package goals

import "pms/internal/domain/apperr"

var (
	ErrGoalNotFound           = apperr.NotFound("Goal not found")
	ErrParentNotFound         = apperr.NotFound("Parent goal not found")
	ErrUserNotFound           = apperr.NotFound("User not found")
	ErrSuperviseeNotFound     = apperr.NotFound("Supervisee not found")
	ErrAssignmentNotFound     = apperr.NotFound("Goal assignment not found")
	ErrGoalFrozen             = apperr.Validation("Goal is frozen and cannot be modified")
	ErrTitleRequired          = apperr.Validation("Title is required")
	ErrInvalidScope           = apperr.Validation("scope must be COMPANY_WIDE, DEPARTMENTAL or INDIVIDUAL")
	ErrInvalidType            = apperr.Validation("type must be YEARLY or QUARTERLY")
	ErrInvalidQuarter         = apperr.Validation("quarter must be one of Q1, Q2, Q3, Q4")
	ErrQuarterRequired        = apperr.Validation("Quarter is required for individual goals")
	ErrYearRequired           = apperr.Validation("Year is required for individual goals")
	ErrOrgRequired            = apperr.Validation("organization_id is required for departmental goals")
	ErrInvalidRelationship    = apperr.Validation("Invalid parent-child goal relationship")
	ErrReportRequired         = apperr.Validation("A progress report is required")
	ErrInvalidPercentage      = apperr.Validation("Progress percentage must be between 0 and 100")
	ErrHasChildren            = apperr.Validation("Progress of a goal with child goals is derived from its children")
	ErrDeleteWithChildren     = apperr.Validation("Cannot delete goal with child goals. Please delete or reassign child goals first.")
	ErrAlreadyAchieved        = apperr.Validation("Cannot discard an achieved goal")
	ErrInvalidStatus          = apperr.Validation("status must be ACTIVE, ACHIEVED or DISCARDED")
	ErrApprovalScope          = apperr.Validation("Only INDIVIDUAL goals require approval")
	ErrRejectionReason        = apperr.Validation("A rejection reason is required")
	ErrChangeReason           = apperr.Validation("A change request reason is required")
	ErrEmergencyReason        = apperr.Validation("An emergency reason is required for an emergency override")
	ErrSuperviseeScope        = apperr.Validation("Only individual goals can be created for supervisees")
	ErrIndividualOwner        = apperr.Validation("Individual goals for other users must be created through create-for-supervisee")
	ErrHierarchyCorrupt       = apperr.Conflict("Goal hierarchy contains a cycle")
	ErrNotApprover            = apperr.Forbidden("Only supervisors or authorized users can approve goals")
	ErrNotOwnerRespond        = apperr.Forbidden("You can only respond to goals assigned to you")
	ErrNotOwnerChange         = apperr.Forbidden("You can only request changes to your own goals")
	ErrNotSupervisor          = apperr.Forbidden("You can only create goals for your direct supervisees")
	ErrGoalAccessDenied       = apperr.Forbidden("Cannot access this goal")
	ErrGoalModifyDenied       = apperr.Forbidden("Cannot modify this goal")
	ErrProgressDenied         = apperr.Forbidden("Cannot update progress for this goal")
	ErrDeleteDenied           = apperr.Forbidden("You do not have permission to delete this goal")
	ErrFreezeDenied           = apperr.Forbidden("You do not have permission to freeze goals")
	ErrOrgAccessDenied        = apperr.Forbidden("You do not have access to this organization")
	ErrInsufficientPermission = apperr.Forbidden("Insufficient permissions")
)
