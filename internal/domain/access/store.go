package access

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Organizations(ctx context.Context) ([]Org, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, level, COALESCE(parent_id::text, '')
    FROM organizations
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Org
	for rows.Next() {
		var org Org
		if err := rows.Scan(&org.ID, &org.Name, &org.Level, &org.ParentID); err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

func (s *Store) UserAccess(ctx context.Context, userID string) (UserAccess, error) {
	var out UserAccess
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, COALESCE(u.role_id::text, ''), COALESCE(r.name, ''),
           COALESCE(u.organization_id::text, ''), COALESCE(r.scope_override, 'none')
    FROM users u
    LEFT JOIN roles r ON r.id = u.role_id
    WHERE u.id = $1
  `, userID).Scan(&out.UserID, &out.RoleID, &out.RoleName, &out.OrgID, &out.ScopeOverride)
	return out, err
}

func (s *Store) RolePermissions(ctx context.Context, roleID string) ([]string, error) {
	if roleID == "" {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT p.key
    FROM role_permissions rp
    JOIN permissions p ON p.id = rp.permission_id
    WHERE rp.role_id = $1
    ORDER BY p.key
  `, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	if roleID == "" {
		return false, nil
	}
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_permissions rp
    JOIN permissions p ON p.id = rp.permission_id
    WHERE rp.role_id = $1 AND p.key = $2
  `, roleID, permission).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
