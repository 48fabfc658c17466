package core

import (
	"context"
	"fmt"
	"strings"

	"pms/internal/domain/apperr"
	"pms/internal/domain/auth"
)

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

func (s *Service) PermissionCatalogue() []string {
	return auth.DefaultPermissions
}

func (s *Service) GetRole(ctx context.Context, roleID string) (Role, error) {
	role, err := s.store.GetRole(ctx, roleID)
	return role, notFound(err, ErrRoleNotFound)
}

func (s *Service) validateRole(ctx context.Context, roleID string, in *RoleInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.Validation("name is required")
	}
	override, err := ValidateScopeOverride(in.ScopeOverride)
	if err != nil {
		return err
	}
	in.ScopeOverride = override
	if err := ValidatePermissionKeys(in.Permissions); err != nil {
		return err
	}
	if in.Permissions == nil {
		in.Permissions = []string{}
	}
	taken, err := s.store.RoleNameExists(ctx, in.Name, roleID)
	if err != nil {
		return err
	}
	if taken {
		return ErrRoleNameTaken
	}
	return nil
}

func (s *Service) CreateRole(ctx context.Context, in RoleInput) (Role, error) {
	if err := s.validateRole(ctx, "", &in); err != nil {
		return Role{}, err
	}
	id, err := s.store.CreateRole(ctx, in)
	if err != nil {
		return Role{}, fmt.Errorf("create role: %w", err)
	}
	return s.store.GetRole(ctx, id)
}

func (s *Service) UpdateRole(ctx context.Context, roleID string, in RoleInput) (Role, error) {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return Role{}, err
	}
	if err := s.validateRole(ctx, roleID, &in); err != nil {
		return Role{}, err
	}
	if err := s.store.UpdateRole(ctx, roleID, in); err != nil {
		return Role{}, err
	}
	return s.store.GetRole(ctx, roleID)
}

func (s *Service) DeleteRole(ctx context.Context, roleID string) error {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.UserCount > 0 {
		return ErrRoleInUse
	}
	return s.store.DeleteRole(ctx, roleID)
}

func (s *Service) RoleUsers(ctx context.Context, roleID string) ([]User, error) {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.store.RoleUsers(ctx, roleID)
}
