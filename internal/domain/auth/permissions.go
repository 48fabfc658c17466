package auth

const (
	PermOrganizationCreate  = "organization_create"
	PermOrganizationEdit    = "organization_edit"
	PermOrganizationDelete  = "organization_delete"
	PermOrganizationViewAll = "organization_view_all"

	PermRoleCreate  = "role_create"
	PermRoleEdit    = "role_edit"
	PermRoleDelete  = "role_delete"
	PermRoleAssign  = "role_assign"
	PermRoleViewAll = "role_view_all"

	PermUserCreate      = "user_create"
	PermUserEdit        = "user_edit"
	PermUserSuspend     = "user_suspend"
	PermUserActivate    = "user_activate"
	PermUserArchive     = "user_archive"
	PermUserViewAll     = "user_view_all"
	PermUserHistoryView = "user_history_view"

	PermGoalCreateYearly       = "goal_create_yearly"
	PermGoalCreateQuarterly    = "goal_create_quarterly"
	PermGoalCreateDepartmental = "goal_create_departmental"
	PermGoalEdit               = "goal_edit"
	PermGoalProgressUpdate     = "goal_progress_update"
	PermGoalStatusChange       = "goal_status_change"
	PermGoalViewAll            = "goal_view_all"
	PermGoalApprove            = "goal_approve"
	PermGoalFreeze             = "goal_freeze"

	PermInitiativeCreate         = "initiative_create"
	PermInitiativeAssign         = "initiative_assign"
	PermInitiativeEdit           = "initiative_edit"
	PermInitiativeReview         = "initiative_review"
	PermInitiativeViewAll        = "initiative_view_all"
	PermInitiativeExtendDeadline = "initiative_extend_deadline"
	PermInitiativeDelete         = "initiative_delete"

	PermReviewCreateCycle = "review_create_cycle"
	PermReviewEditCycle   = "review_edit_cycle"
	PermReviewManageCycle = "review_manage_cycle"
	PermReviewViewAll     = "review_view_all"
	PermReviewConduct     = "review_conduct"

	PermPerformanceViewAll = "performance_view_all"
	PermPerformanceEdit    = "performance_edit"

	PermSystemAdmin        = "system_admin"
	PermReportsGenerate    = "reports_generate"
	PermAuditAccess        = "audit_access"
	PermNotificationManage = "notification_manage"
	PermBackupAccess       = "backup_access"
)

const (
	RoleSuperAdmin = "super_admin"
	RoleHR         = "hr"
	RoleHOD        = "hod"
	RoleSupervisor = "supervisor"
	RoleEmployee   = "employee"
)

var DefaultPermissions = []string{
	PermOrganizationCreate,
	PermOrganizationEdit,
	PermOrganizationDelete,
	PermOrganizationViewAll,
	PermRoleCreate,
	PermRoleEdit,
	PermRoleDelete,
	PermRoleAssign,
	PermRoleViewAll,
	PermUserCreate,
	PermUserEdit,
	PermUserSuspend,
	PermUserActivate,
	PermUserArchive,
	PermUserViewAll,
	PermUserHistoryView,
	PermGoalCreateYearly,
	PermGoalCreateQuarterly,
	PermGoalCreateDepartmental,
	PermGoalEdit,
	PermGoalProgressUpdate,
	PermGoalStatusChange,
	PermGoalViewAll,
	PermGoalApprove,
	PermGoalFreeze,
	PermInitiativeCreate,
	PermInitiativeAssign,
	PermInitiativeEdit,
	PermInitiativeReview,
	PermInitiativeViewAll,
	PermInitiativeExtendDeadline,
	PermInitiativeDelete,
	PermReviewCreateCycle,
	PermReviewEditCycle,
	PermReviewManageCycle,
	PermReviewViewAll,
	PermReviewConduct,
	PermPerformanceViewAll,
	PermPerformanceEdit,
	PermSystemAdmin,
	PermReportsGenerate,
	PermAuditAccess,
	PermNotificationManage,
	PermBackupAccess,
}

var employeePermissions = []string{
	PermGoalProgressUpdate,
	PermInitiativeCreate,
	PermReviewConduct,
}

var supervisorPermissions = append([]string{
	PermGoalCreateQuarterly,
	PermGoalEdit,
	PermGoalStatusChange,
	PermGoalApprove,
	PermInitiativeAssign,
	PermInitiativeEdit,
	PermInitiativeReview,
	PermInitiativeExtendDeadline,
	PermInitiativeDelete,
}, employeePermissions...)

var hodPermissions = append([]string{
	PermGoalCreateYearly,
	PermGoalCreateDepartmental,
	PermGoalViewAll,
	PermInitiativeViewAll,
	PermUserViewAll,
	PermOrganizationViewAll,
	PermPerformanceViewAll,
	PermReviewViewAll,
}, supervisorPermissions...)

// RolePermissions is the seeded role catalogue. Admins may create further roles at runtime.
var RolePermissions = map[string][]string{
	RoleEmployee:   employeePermissions,
	RoleSupervisor: supervisorPermissions,
	RoleHOD:        hodPermissions,
	RoleHR: append([]string{
		PermUserCreate,
		PermUserEdit,
		PermUserSuspend,
		PermUserActivate,
		PermUserArchive,
		PermUserHistoryView,
		PermRoleViewAll,
		PermRoleAssign,
		PermGoalFreeze,
		PermReviewCreateCycle,
		PermReviewEditCycle,
		PermReviewManageCycle,
		PermPerformanceEdit,
		PermReportsGenerate,
		PermNotificationManage,
	}, hodPermissions...),
	RoleSuperAdmin: DefaultPermissions,
}

// RoleScopeOverrides lists the seeded roles whose scope does not come from their org level.
var RoleScopeOverrides = map[string]string{
	RoleSuperAdmin: "global",
	RoleHR:         "global",
}

func IsKnownPermission(key string) bool {
	for _, perm := range DefaultPermissions {
		if perm == key {
			return true
		}
	}
	return false
}
