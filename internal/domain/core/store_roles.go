package core

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const roleQuery = `
    SELECT r.id, r.name, COALESCE(r.description, ''), r.is_leadership, r.scope_override,
           COALESCE(ARRAY(SELECT p.key FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id
                          WHERE rp.role_id = r.id ORDER BY p.key), '{}'),
           (SELECT COUNT(1) FROM users u WHERE u.role_id = r.id),
           r.created_at
    FROM roles r`

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.IsLeadership, &role.ScopeOverride,
		&role.Permissions, &role.UserCount, &role.CreatedAt)
	return role, err
}

func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.DB.Query(ctx, roleQuery+" ORDER BY r.name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (s *Store) GetRole(ctx context.Context, roleID string) (Role, error) {
	return scanRole(s.DB.QueryRow(ctx, roleQuery+" WHERE r.id = $1", roleID))
}

func (s *Store) RoleNameExists(ctx context.Context, name, exceptID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM roles WHERE lower(name) = lower($1) AND ($2 = '' OR id::text <> $2)
  `, name, exceptID).Scan(&count)
	return count > 0, err
}

func (s *Store) CreateRole(ctx context.Context, in RoleInput) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO roles (name, description, is_leadership, scope_override)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, in.Name, nullIfEmpty(in.Description), in.IsLeadership, in.ScopeOverride).Scan(&id); err != nil {
		return "", err
	}
	if err := replaceRolePermissions(ctx, tx, id, in.Permissions); err != nil {
		return "", err
	}
	return id, tx.Commit(ctx)
}

func (s *Store) UpdateRole(ctx context.Context, roleID string, in RoleInput) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    UPDATE roles
    SET name = $2, description = $3, is_leadership = $4, scope_override = $5, updated_at = now()
    WHERE id = $1
  `, roleID, in.Name, nullIfEmpty(in.Description), in.IsLeadership, in.ScopeOverride); err != nil {
		return err
	}
	if err := replaceRolePermissions(ctx, tx, roleID, in.Permissions); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func replaceRolePermissions(ctx context.Context, tx pgx.Tx, roleID string, keys []string) error {
	if _, err := tx.Exec(ctx, "DELETE FROM role_permissions WHERE role_id = $1", roleID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
    INSERT INTO role_permissions (role_id, permission_id)
    SELECT $1, p.id FROM permissions p WHERE p.key = ANY($2)
    ON CONFLICT DO NOTHING
  `, roleID, keys)
	return err
}

func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM roles WHERE id = $1", roleID)
	return err
}

func (s *Store) RoleUsers(ctx context.Context, roleID string) ([]User, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+userColumns+userJoins+" WHERE u.role_id = $1 ORDER BY u.name", roleID)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}
