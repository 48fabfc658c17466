package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const userColumns = `
    u.id, u.email, u.name, u.first_name, u.last_name, COALESCE(u.middle_name, ''),
    COALESCE(u.phone, ''), COALESCE(u.address, ''), COALESCE(u.skillset, ''), u.level,
    COALESCE(u.job_title, ''), u.status,
    COALESCE(u.organization_id::text, ''), COALESCE(o.name, ''),
    COALESCE(u.role_id::text, ''), COALESCE(r.name, ''),
    COALESCE(u.supervisor_id::text, ''), COALESCE(s.name, ''),
    COALESCE(u.profile_image_key, ''), u.email_verified_at, u.created_at, u.updated_at
`

const userJoins = `
    FROM users u
    LEFT JOIN organizations o ON o.id = u.organization_id
    LEFT JOIN roles r ON r.id = u.role_id
    LEFT JOIN users s ON s.id = u.supervisor_id
`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.FirstName, &u.LastName, &u.MiddleName,
		&u.Phone, &u.Address, &u.Skillset, &u.Level, &u.JobTitle, &u.Status,
		&u.OrganizationID, &u.OrganizationName, &u.RoleID, &u.RoleName,
		&u.SupervisorID, &u.SupervisorName, &u.ProfileImageKey, &u.EmailVerifiedAt, &u.CreatedAt, &u.UpdatedAt)
	u.HasProfileImage = u.ProfileImageKey != ""
	return u, err
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	var where []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.OrgIDs != nil {
		add("u.organization_id::text = ANY($%d)", filter.OrgIDs)
	}
	if filter.Status != "" {
		add("u.status = $%d", filter.Status)
	}
	if filter.OrgID != "" {
		add("u.organization_id::text = $%d", filter.OrgID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		add("(u.name ILIKE $%[1]d OR u.email ILIKE $%[1]d OR COALESCE(u.job_title, '') ILIKE $%[1]d)", "%"+search+"%")
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users u "+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf("SELECT %s %s %s ORDER BY u.name LIMIT $%d OFFSET $%d",
		userColumns, userJoins, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	users, err := collectUsers(rows)
	return users, total, err
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+userJoins+" WHERE u.id = $1", userID))
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE lower(email) = lower($1)", email).Scan(&count)
	return count > 0, err
}

func (s *Store) CreateUser(ctx context.Context, in CreateUserInput, name, tokenHash string, tokenExpires time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, name, first_name, last_name, middle_name, phone, job_title, level,
                       status, organization_id, role_id, supervisor_id,
                       onboarding_token_hash, onboarding_token_expires_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'pending_activation',$9,$10,$11,$12,$13)
    RETURNING id
  `, strings.ToLower(strings.TrimSpace(in.Email)), name, in.FirstName, in.LastName, nullIfEmpty(in.MiddleName),
		nullIfEmpty(in.Phone), nullIfEmpty(in.JobTitle), in.Level, nullIfEmpty(in.OrganizationID),
		nullIfEmpty(in.RoleID), nullIfEmpty(in.SupervisorID), tokenHash, tokenExpires).Scan(&id)
	return id, err
}

func (s *Store) UpdateUser(ctx context.Context, userID string, in UserUpdate) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users SET
      first_name = COALESCE($2, first_name),
      last_name = COALESCE($3, last_name),
      middle_name = COALESCE($4, middle_name),
      phone = COALESCE($5, phone),
      address = COALESCE($6, address),
      skillset = COALESCE($7, skillset),
      job_title = COALESCE($8, job_title),
      level = COALESCE($9, level),
      organization_id = COALESCE($10::uuid, organization_id),
      role_id = COALESCE($11::uuid, role_id),
      name = trim(concat_ws(' ', COALESCE($2, first_name), NULLIF(COALESCE($4, middle_name), ''), COALESCE($3, last_name))),
      updated_at = now()
    WHERE id = $1
  `, userID, in.FirstName, in.LastName, in.MiddleName, in.Phone, in.Address, in.Skillset, in.JobTitle,
		in.Level, in.OrganizationID, in.RoleID)
	return err
}

func (s *Store) SetUserStatus(ctx context.Context, userID, status string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET status = $1, updated_at = now() WHERE id = $2", status, userID)
	return err
}

func (s *Store) SetSupervisor(ctx context.Context, userID, supervisorID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET supervisor_id = $1, updated_at = now() WHERE id = $2", nullIfEmpty(supervisorID), userID)
	return err
}

func (s *Store) SetProfileImage(ctx context.Context, userID, key string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET profile_image_key = $1, updated_at = now() WHERE id = $2", nullIfEmpty(key), userID)
	return err
}

func (s *Store) Supervisees(ctx context.Context, supervisorID string) ([]User, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+userColumns+userJoins+" WHERE u.supervisor_id = $1 AND u.status <> 'archived' ORDER BY u.name", supervisorID)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *Store) SupervisorMap(ctx context.Context) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, supervisor_id FROM users WHERE supervisor_id IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var id, supervisor string
		if err := rows.Scan(&id, &supervisor); err != nil {
			return nil, err
		}
		out[id] = supervisor
	}
	return out, rows.Err()
}

func (s *Store) ActiveUsers(ctx context.Context, orgIDs []string) ([]User, error) {
	query := "SELECT " + userColumns + userJoins + " WHERE u.status = 'active'"
	args := []any{}
	if orgIDs != nil {
		query += " AND u.organization_id::text = ANY($1)"
		args = append(args, orgIDs)
	}
	rows, err := s.DB.Query(ctx, query+" ORDER BY u.name", args...)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *Store) AppendHistory(ctx context.Context, userID, adminID, action string, oldValue, newValue any) error {
	oldJSON, err := marshalNullable(oldValue)
	if err != nil {
		return err
	}
	newJSON, err := marshalNullable(newValue)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO user_history (user_id, admin_id, action, old_value, new_value)
    VALUES ($1,$2,$3,$4,$5)
  `, userID, nullIfEmpty(adminID), action, oldJSON, newJSON)
	return err
}

func (s *Store) ListHistory(ctx context.Context, userID string, limit, offset int) ([]HistoryEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT h.id, h.user_id, COALESCE(h.admin_id::text, ''), COALESCE(a.name, ''), h.action,
           h.old_value, h.new_value, h.created_at
    FROM user_history h
    LEFT JOIN users a ON a.id = h.admin_id
    WHERE h.user_id = $1
    ORDER BY h.created_at DESC
    LIMIT $2 OFFSET $3
  `, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []HistoryEntry{}
	for rows.Next() {
		var entry HistoryEntry
		var oldValue, newValue []byte
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.AdminID, &entry.AdminName, &entry.Action, &oldValue, &newValue, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.OldValue = oldValue
		entry.NewValue = newValue
		out = append(out, entry)
	}
	return out, rows.Err()
}

func marshalNullable(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
