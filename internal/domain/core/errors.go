package core

import "pms/internal/domain/apperr"

var (
	ErrUserNotFound         = apperr.NotFound("User not found")
	ErrOrgNotFound          = apperr.NotFound("Organization not found")
	ErrParentNotFound       = apperr.NotFound("Parent organization not found")
	ErrRoleNotFound         = apperr.NotFound("Role not found")
	ErrSupervisorNotFound   = apperr.NotFound("Supervisor not found")
	ErrEmailTaken           = apperr.Conflict("A user with this email already exists")
	ErrRoleNameTaken        = apperr.Conflict("A role with this name already exists")
	ErrGlobalExists         = apperr.Conflict("A global organization already exists")
	ErrOrgHasChildren       = apperr.Conflict("Cannot delete organization with child organizations")
	ErrOrgHasUsers          = apperr.Conflict("Cannot delete organization with assigned users")
	ErrRoleInUse            = apperr.Conflict("Cannot delete role that is assigned to users")
	ErrInvalidLevel         = apperr.Validation("Invalid organization level")
	ErrInvalidParent        = apperr.Validation("Invalid parent for organization level")
	ErrSupervisorCycle      = apperr.Validation("Supervisor assignment would create a reporting cycle")
	ErrSelfSupervisor       = apperr.Validation("A user cannot supervise themselves")
	ErrInactiveSupervisor   = apperr.Validation("Supervisor must be an active user")
	ErrInvalidStatus        = apperr.Validation("Invalid user status")
	ErrOwnStatus            = apperr.Forbidden("You cannot change your own status")
	ErrRoleChangeForbidden  = apperr.Forbidden("Changing a user's role requires role_assign")
	ErrUserAccessDenied     = apperr.Forbidden("You do not have access to this user")
	ErrOrgAccessDenied      = apperr.Forbidden("You do not have access to this organization")
	ErrStatusPermission     = apperr.Forbidden("You do not have permission to set this status")
	ErrInvalidScopeOverride = apperr.Validation("scope_override must be none, global or cross_directorate")
)
