package core

import (
	"context"
)

func (s *Store) ListOrganizations(ctx context.Context, ids []string) ([]Organization, error) {
	query := `
    SELECT o.id, o.name, COALESCE(o.description, ''), o.level, COALESCE(o.parent_id::text, ''),
           (SELECT COUNT(1) FROM users u WHERE u.organization_id = o.id AND u.status <> 'archived'),
           o.created_at, o.updated_at
    FROM organizations o`
	args := []any{}
	if ids != nil {
		query += " WHERE o.id::text = ANY($1)"
		args = append(args, ids)
	}
	rows, err := s.DB.Query(ctx, query+" ORDER BY o.name", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Organization{}
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.Level, &org.ParentID, &org.UserCount, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

func (s *Store) GetOrganization(ctx context.Context, orgID string) (Organization, error) {
	var org Organization
	err := s.DB.QueryRow(ctx, `
    SELECT o.id, o.name, COALESCE(o.description, ''), o.level, COALESCE(o.parent_id::text, ''),
           (SELECT COUNT(1) FROM users u WHERE u.organization_id = o.id AND u.status <> 'archived'),
           o.created_at, o.updated_at
    FROM organizations o
    WHERE o.id = $1
  `, orgID).Scan(&org.ID, &org.Name, &org.Description, &org.Level, &org.ParentID, &org.UserCount, &org.CreatedAt, &org.UpdatedAt)
	return org, err
}

func (s *Store) CreateOrganization(ctx context.Context, in OrganizationInput) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO organizations (name, description, level, parent_id)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, in.Name, nullIfEmpty(in.Description), in.Level, nullIfEmpty(in.ParentID)).Scan(&id)
	return id, err
}

func (s *Store) UpdateOrganization(ctx context.Context, orgID string, in OrganizationInput) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE organizations
    SET name = $2, description = $3, level = $4, parent_id = $5, updated_at = now()
    WHERE id = $1
  `, orgID, in.Name, nullIfEmpty(in.Description), in.Level, nullIfEmpty(in.ParentID))
	return err
}

func (s *Store) DeleteOrganization(ctx context.Context, orgID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM organizations WHERE id = $1", orgID)
	return err
}

func (s *Store) OrganizationUsage(ctx context.Context, orgID string) (int, int, error) {
	var children, users int
	err := s.DB.QueryRow(ctx, `
    SELECT (SELECT COUNT(1) FROM organizations WHERE parent_id = $1),
           (SELECT COUNT(1) FROM users WHERE organization_id = $1)
  `, orgID).Scan(&children, &users)
	return children, users, err
}

func (s *Store) OrganizationStats(ctx context.Context) (OrgStats, error) {
	stats := OrgStats{ByLevel: map[string]int{}}
	rows, err := s.DB.Query(ctx, "SELECT level, COUNT(1) FROM organizations GROUP BY level")
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return stats, err
		}
		stats.ByLevel[level] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}
	err = s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COUNT(1) FILTER (WHERE status = 'active')
    FROM users
  `).Scan(&stats.TotalUsers, &stats.ActiveUsers)
	return stats, err
}
