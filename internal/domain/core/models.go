package core

import (
	"encoding/json"
	"time"
)

const (
	UserStatusActive            = "active"
	UserStatusSuspended         = "suspended"
	UserStatusOnLeave           = "on_leave"
	UserStatusArchived          = "archived"
	UserStatusPendingActivation = "pending_activation"
)

type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	MiddleName       string     `json:"middle_name,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Address          string     `json:"address,omitempty"`
	Skillset         string     `json:"skillset,omitempty"`
	Level            *int       `json:"level,omitempty"`
	JobTitle         string     `json:"job_title,omitempty"`
	Status           string     `json:"status"`
	OrganizationID   string     `json:"organization_id,omitempty"`
	OrganizationName string     `json:"organization_name,omitempty"`
	RoleID           string     `json:"role_id,omitempty"`
	RoleName         string     `json:"role_name,omitempty"`
	SupervisorID     string     `json:"supervisor_id,omitempty"`
	SupervisorName   string     `json:"supervisor_name,omitempty"`
	ProfileImageKey  string     `json:"-"`
	HasProfileImage  bool       `json:"has_profile_image"`
	EmailVerifiedAt  *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type UserFilter struct {
	Status string
	OrgID  string
	Search string
	OrgIDs []string
	Limit  int
	Offset int
}

type CreateUserInput struct {
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	MiddleName     string `json:"middle_name"`
	Phone          string `json:"phone"`
	JobTitle       string `json:"job_title"`
	Level          *int   `json:"level"`
	OrganizationID string `json:"organization_id"`
	RoleID         string `json:"role_id"`
	SupervisorID   string `json:"supervisor_id"`
}

// UserUpdate carries optional fields; nil means unchanged.
type UserUpdate struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	MiddleName     *string `json:"middle_name"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	Skillset       *string `json:"skillset"`
	JobTitle       *string `json:"job_title"`
	Level          *int    `json:"level"`
	OrganizationID *string `json:"organization_id"`
	RoleID         *string `json:"role_id"`
}

type HistoryEntry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	AdminID   string          `json:"admin_id,omitempty"`
	AdminName string          `json:"admin_name,omitempty"`
	Action    string          `json:"action"`
	OldValue  json.RawMessage `json:"old_value,omitempty"`
	NewValue  json.RawMessage `json:"new_value,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Level       string    `json:"level"`
	ParentID    string    `json:"parent_id,omitempty"`
	UserCount   int       `json:"user_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type OrganizationInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       string `json:"level"`
	ParentID    string `json:"parent_id"`
}

type OrgStats struct {
	Total       int            `json:"total"`
	ByLevel     map[string]int `json:"by_level"`
	TotalUsers  int            `json:"total_users"`
	ActiveUsers int            `json:"active_users"`
}

type Role struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	IsLeadership  bool      `json:"is_leadership"`
	ScopeOverride string    `json:"scope_override"`
	Permissions   []string  `json:"permissions"`
	UserCount     int       `json:"user_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type RoleInput struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	IsLeadership  bool     `json:"is_leadership"`
	ScopeOverride string   `json:"scope_override"`
	Permissions   []string `json:"permissions"`
}
