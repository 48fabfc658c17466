// Package access resolves what a caller may do and which organizations they may see.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/apperr"
)

var ErrUnknownUser = apperr.NotFound("user not found")

type Resolver struct {
	Store StoreAPI
}

func NewResolver(store StoreAPI) *Resolver {
	return &Resolver{Store: store}
}

func (r *Resolver) Tree(ctx context.Context) (*OrgTree, error) {
	orgs, err := r.Store.Organizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load organizations: %w", err)
	}
	return NewOrgTree(orgs), nil
}

// Principal loads the user's role permissions and effective scope.
func (r *Resolver) Principal(ctx context.Context, userID string) (Principal, error) {
	ua, err := r.Store.UserAccess(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Principal{}, ErrUnknownUser
	}
	if err != nil {
		return Principal{}, err
	}
	perms, err := r.Store.RolePermissions(ctx, ua.RoleID)
	if err != nil {
		return Principal{}, fmt.Errorf("load role permissions: %w", err)
	}
	tree, err := r.Tree(ctx)
	if err != nil {
		return Principal{}, err
	}
	level := ""
	if org, ok := tree.Get(ua.OrgID); ok {
		level = org.Level
	}
	return NewPrincipal(ua.UserID, ua.RoleID, ua.RoleName, ua.OrgID, EffectiveScope(level, ua.ScopeOverride), perms), nil
}

func (r *Resolver) CanAccessOrg(ctx context.Context, p Principal, orgID string) (bool, error) {
	if p.Scope == ScopeGlobal {
		return true, nil
	}
	tree, err := r.Tree(ctx)
	if err != nil {
		return false, err
	}
	return tree.CanAccess(p, orgID), nil
}

func (r *Resolver) AccessibleOrgs(ctx context.Context, p Principal) ([]string, error) {
	tree, err := r.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Accessible(p), nil
}

func (r *Resolver) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return r.Store.HasPermission(ctx, roleID, permission)
}
