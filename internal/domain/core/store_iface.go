package core

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error)
	GetUser(ctx context.Context, userID string) (User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, in CreateUserInput, name, tokenHash string, tokenExpires time.Time) (string, error)
	UpdateUser(ctx context.Context, userID string, in UserUpdate) error
	SetUserStatus(ctx context.Context, userID, status string) error
	SetSupervisor(ctx context.Context, userID, supervisorID string) error
	SetProfileImage(ctx context.Context, userID, key string) error
	Supervisees(ctx context.Context, supervisorID string) ([]User, error)
	SupervisorMap(ctx context.Context) (map[string]string, error)
	ActiveUsers(ctx context.Context, orgIDs []string) ([]User, error)
	AppendHistory(ctx context.Context, userID, adminID, action string, oldValue, newValue any) error
	ListHistory(ctx context.Context, userID string, limit, offset int) ([]HistoryEntry, error)

	ListOrganizations(ctx context.Context, ids []string) ([]Organization, error)
	GetOrganization(ctx context.Context, orgID string) (Organization, error)
	CreateOrganization(ctx context.Context, in OrganizationInput) (string, error)
	UpdateOrganization(ctx context.Context, orgID string, in OrganizationInput) error
	DeleteOrganization(ctx context.Context, orgID string) error
	OrganizationUsage(ctx context.Context, orgID string) (children, users int, err error)
	OrganizationStats(ctx context.Context) (OrgStats, error)

	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, roleID string) (Role, error)
	RoleNameExists(ctx context.Context, name, exceptID string) (bool, error)
	CreateRole(ctx context.Context, in RoleInput) (string, error)
	UpdateRole(ctx context.Context, roleID string, in RoleInput) error
	DeleteRole(ctx context.Context, roleID string) error
	RoleUsers(ctx context.Context, roleID string) ([]User, error)
}
