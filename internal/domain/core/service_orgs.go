package core

import (
	"context"
	"fmt"
	"strings"

	"pms/internal/domain/access"
	"pms/internal/domain/apperr"
)

func (s *Service) ListOrganizations(ctx context.Context, p access.Principal) ([]Organization, error) {
	if p.Scope == access.ScopeGlobal {
		return s.store.ListOrganizations(ctx, nil)
	}
	ids, err := s.Access.AccessibleOrgs(ctx, p)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return s.store.ListOrganizations(ctx, ids)
}

// OrganizationTree nests the organizations visible to the caller.
func (s *Service) OrganizationTree(ctx context.Context, p access.Principal) ([]*access.Node, error) {
	tree, err := s.Access.Tree(ctx)
	if err != nil {
		return nil, err
	}
	visible := tree.Accessible(p)
	var orgs []access.Org
	for _, id := range visible {
		org, _ := tree.Get(id)
		orgs = append(orgs, org)
	}
	return access.NewOrgTree(orgs).Forest(), nil
}

func (s *Service) OrganizationStats(ctx context.Context) (OrgStats, error) {
	return s.store.OrganizationStats(ctx)
}

func (s *Service) GetOrganization(ctx context.Context, p access.Principal, orgID string) (Organization, error) {
	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return Organization{}, notFound(err, ErrOrgNotFound)
	}
	ok, err := s.Access.CanAccessOrg(ctx, p, orgID)
	if err != nil {
		return Organization{}, err
	}
	if !ok {
		return Organization{}, ErrOrgAccessDenied
	}
	return org, nil
}

func (s *Service) Children(ctx context.Context, orgID string) ([]access.Org, error) {
	tree, err := s.Access.Tree(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := tree.Get(orgID); !ok {
		return nil, ErrOrgNotFound
	}
	return tree.Children(orgID), nil
}

func (s *Service) CreateOrganization(ctx context.Context, in OrganizationInput) (Organization, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Organization{}, apperr.Validation("name is required")
	}
	tree, err := s.Access.Tree(ctx)
	if err != nil {
		return Organization{}, err
	}
	if err := ValidateOrgPlacement(tree, "", in.Level, in.ParentID); err != nil {
		return Organization{}, err
	}
	id, err := s.store.CreateOrganization(ctx, in)
	if err != nil {
		return Organization{}, fmt.Errorf("create organization: %w", err)
	}
	return s.store.GetOrganization(ctx, id)
}

func (s *Service) UpdateOrganization(ctx context.Context, orgID string, in OrganizationInput) (Organization, error) {
	existing, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return Organization{}, notFound(err, ErrOrgNotFound)
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = existing.Name
	}
	if in.Level == "" {
		in.Level = existing.Level
	}
	tree, err := s.Access.Tree(ctx)
	if err != nil {
		return Organization{}, err
	}
	if err := ValidateOrgPlacement(tree, orgID, in.Level, in.ParentID); err != nil {
		return Organization{}, err
	}
	if err := s.store.UpdateOrganization(ctx, orgID, in); err != nil {
		return Organization{}, err
	}
	return s.store.GetOrganization(ctx, orgID)
}

func (s *Service) DeleteOrganization(ctx context.Context, orgID string) error {
	if _, err := s.store.GetOrganization(ctx, orgID); err != nil {
		return notFound(err, ErrOrgNotFound)
	}
	children, users, err := s.store.OrganizationUsage(ctx, orgID)
	if err != nil {
		return err
	}
	if children > 0 {
		return ErrOrgHasChildren
	}
	if users > 0 {
		return ErrOrgHasUsers
	}
	return s.store.DeleteOrganization(ctx, orgID)
}
