package access

import "context"

type UserAccess struct {
	UserID        string
	RoleID        string
	RoleName      string
	OrgID         string
	ScopeOverride string
}

type StoreAPI interface {
	Organizations(ctx context.Context) ([]Org, error)
	UserAccess(ctx context.Context, userID string) (UserAccess, error)
	RolePermissions(ctx context.Context, roleID string) ([]string, error)
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}
