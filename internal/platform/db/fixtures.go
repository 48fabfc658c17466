package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"pms/internal/domain/auth"
)

// Fixtures is the YAML seed document. Records refer to each other by name
// (organizations), email (users) and title (goals), and must be listed
// parents first.
type Fixtures struct {
	Organizations []OrgFixture  `yaml:"organizations"`
	Users         []UserFixture `yaml:"users"`
	Goals         []GoalFixture `yaml:"goals"`
}

type OrgFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Level       string `yaml:"level"`
	Parent      string `yaml:"parent"`
}

type UserFixture struct {
	Email        string `yaml:"email"`
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	JobTitle     string `yaml:"job_title"`
	Role         string `yaml:"role"`
	Organization string `yaml:"organization"`
	Supervisor   string `yaml:"supervisor"`
	Password     string `yaml:"password"`
}

type GoalFixture struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Scope        string `yaml:"scope"`
	Type         string `yaml:"type"`
	Quarter      string `yaml:"quarter"`
	Year         int    `yaml:"year"`
	Organization string `yaml:"organization"`
	Parent       string `yaml:"parent"`
	Owner        string `yaml:"owner"`
	CreatedBy    string `yaml:"created_by"`
}

type SeedResult struct {
	Organizations int
	Users         int
	Goals         int
}

func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, err
	}
	return ParseFixtures(data)
}

func ParseFixtures(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Fixtures{}, err
	}
	return f, nil
}

// Validate checks that every reference points at a record listed earlier.
func (f Fixtures) Validate() error {
	orgs := map[string]bool{}
	for i, o := range f.Organizations {
		if strings.TrimSpace(o.Name) == "" || o.Level == "" {
			return fmt.Errorf("organizations[%d]: name and level are required", i)
		}
		if o.Parent != "" && !orgs[o.Parent] {
			return fmt.Errorf("organization %q: parent %q must be listed before it", o.Name, o.Parent)
		}
		orgs[o.Name] = true
	}
	users := map[string]bool{}
	for i, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("users[%d]: email is required", i)
		}
		if _, ok := auth.RolePermissions[u.Role]; !ok {
			return fmt.Errorf("user %q: unknown role %q", u.Email, u.Role)
		}
		if u.Organization != "" && !orgs[u.Organization] {
			return fmt.Errorf("user %q: unknown organization %q", u.Email, u.Organization)
		}
		if u.Supervisor != "" && !users[strings.ToLower(u.Supervisor)] {
			return fmt.Errorf("user %q: supervisor %q must be listed before it", u.Email, u.Supervisor)
		}
		users[email] = true
	}
	goals := map[string]bool{}
	for i, g := range f.Goals {
		if strings.TrimSpace(g.Title) == "" || g.Scope == "" || g.Type == "" {
			return fmt.Errorf("goals[%d]: title, scope and type are required", i)
		}
		if !users[strings.ToLower(g.CreatedBy)] {
			return fmt.Errorf("goal %q: created_by %q is not a fixture user", g.Title, g.CreatedBy)
		}
		if g.Owner != "" && !users[strings.ToLower(g.Owner)] {
			return fmt.Errorf("goal %q: unknown owner %q", g.Title, g.Owner)
		}
		if g.Organization != "" && !orgs[g.Organization] {
			return fmt.Errorf("goal %q: unknown organization %q", g.Title, g.Organization)
		}
		if g.Parent != "" && !goals[g.Parent] {
			return fmt.Errorf("goal %q: parent %q must be listed before it", g.Title, g.Parent)
		}
		goals[g.Title] = true
	}
	return nil
}

// ApplyFixtures inserts the fixtures in one transaction. Records that already
// exist (same org name, user email or goal title) are reused, so the command
// can be rerun.
func ApplyFixtures(ctx context.Context, pool *pgxpool.Pool, f Fixtures) (SeedResult, error) {
	var res SeedResult
	roleIDs, err := ensureRoles(ctx, pool)
	if err != nil {
		return res, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orgIDs := map[string]string{}
	for _, o := range f.Organizations {
		id, created, err := upsertOrg(ctx, tx, o, orgIDs[o.Parent])
		if err != nil {
			return res, fmt.Errorf("organization %q: %w", o.Name, err)
		}
		orgIDs[o.Name] = id
		if created {
			res.Organizations++
		}
	}

	userIDs := map[string]string{}
	for _, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		id, created, err := upsertUser(ctx, tx, u, email, roleIDs[u.Role], orgIDs[u.Organization], userIDs[strings.ToLower(u.Supervisor)])
		if err != nil {
			return res, fmt.Errorf("user %q: %w", u.Email, err)
		}
		userIDs[email] = id
		if created {
			res.Users++
		}
	}

	goalIDs := map[string]string{}
	for _, g := range f.Goals {
		id, created, err := upsertGoal(ctx, tx, g, orgIDs[g.Organization], goalIDs[g.Parent],
			userIDs[strings.ToLower(g.Owner)], userIDs[strings.ToLower(g.CreatedBy)])
		if err != nil {
			return res, fmt.Errorf("goal %q: %w", g.Title, err)
		}
		goalIDs[g.Title] = id
		if created {
			res.Goals++
		}
	}

	return res, tx.Commit(ctx)
}

func upsertOrg(ctx context.Context, tx pgx.Tx, o OrgFixture, parentID string) (string, bool, error) {
	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM organizations WHERE name = $1", o.Name).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}
	err = tx.QueryRow(ctx, `
    INSERT INTO organizations (name, description, level, parent_id)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, o.Name, nullIfEmpty(o.Description), o.Level, nullIfEmpty(parentID)).Scan(&id)
	return id, err == nil, err
}

func upsertUser(ctx context.Context, tx pgx.Tx, u UserFixture, email, roleID, orgID, supervisorID string) (string, bool, error) {
	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = $1", email).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	status := "pending_activation"
	var hash any
	if u.Password != "" {
		h, err := auth.HashPassword(u.Password)
		if err != nil {
			return "", false, err
		}
		hash, status = h, "active"
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = email
	}
	err = tx.QueryRow(ctx, `
    INSERT INTO users (email, name, first_name, last_name, job_title, status, password_hash, role_id, organization_id, supervisor_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    RETURNING id
  `, email, name, u.FirstName, u.LastName, nullIfEmpty(u.JobTitle), status, hash, roleID,
		nullIfEmpty(orgID), nullIfEmpty(supervisorID)).Scan(&id)
	return id, err == nil, err
}

func upsertGoal(ctx context.Context, tx pgx.Tx, g GoalFixture, orgID, parentID, ownerID, createdBy string) (string, bool, error) {
	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM goals WHERE title = $1", g.Title).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}
	var year any
	if g.Year != 0 {
		year = g.Year
	}
	err = tx.QueryRow(ctx, `
    INSERT INTO goals (title, description, scope, type, status, quarter, year, organization_id, parent_goal_id, owner_id, created_by)
    VALUES ($1, $2, $3, $4, 'ACTIVE', $5, $6, $7, $8, $9, $10)
    RETURNING id
  `, g.Title, nullIfEmpty(g.Description), g.Scope, g.Type, nullIfEmpty(g.Quarter), year,
		nullIfEmpty(orgID), nullIfEmpty(parentID), nullIfEmpty(ownerID), createdBy).Scan(&id)
	return id, err == nil, err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
