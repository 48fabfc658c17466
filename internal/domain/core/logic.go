package core

import (
	"net/mail"
	"strings"

	"pms/internal/domain/access"
	"pms/internal/domain/apperr"
	"pms/internal/domain/auth"
)

// StatusPermission is the permission required to move a user into status.
func StatusPermission(status string) (string, error) {
	switch status {
	case UserStatusSuspended:
		return auth.PermUserSuspend, nil
	case UserStatusActive:
		return auth.PermUserActivate, nil
	case UserStatusArchived:
		return auth.PermUserArchive, nil
	case UserStatusOnLeave:
		return auth.PermUserEdit, nil
	default:
		return "", ErrInvalidStatus
	}
}

// WouldCreateCycle walks the supervisor chain upwards from supervisorID and reports
// whether it reaches userID. An already-corrupted chain also counts as a cycle.
func WouldCreateCycle(supervisors map[string]string, userID, supervisorID string) bool {
	if userID == supervisorID {
		return true
	}
	visited := map[string]struct{}{}
	current := supervisorID
	for steps := 0; current != ""; steps++ {
		if current == userID {
			return true
		}
		if _, seen := visited[current]; seen || steps > len(supervisors) {
			return true
		}
		visited[current] = struct{}{}
		current = supervisors[current]
	}
	return false
}

// Subordinates returns everyone reporting to userID directly or indirectly.
func Subordinates(supervisors map[string]string, userID string) map[string]struct{} {
	reports := map[string][]string{}
	for user, supervisor := range supervisors {
		reports[supervisor] = append(reports[supervisor], user)
	}
	out := map[string]struct{}{}
	queue := append([]string(nil), reports[userID]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, seen := out[current]; seen || current == userID {
			continue
		}
		out[current] = struct{}{}
		queue = append(queue, reports[current]...)
	}
	return out
}

// ValidateOrgPlacement checks the level and parent of a new or moved organization.
func ValidateOrgPlacement(tree *access.OrgTree, id, level, parentID string) error {
	if !access.ValidLevel(level) {
		return ErrInvalidLevel
	}
	parentLevel := ""
	if parentID != "" {
		parent, ok := tree.Get(parentID)
		if !ok {
			return ErrParentNotFound
		}
		parentLevel = parent.Level
		if id != "" && tree.IsWithin(id, parentID) {
			return ErrInvalidParent
		}
	}
	if !access.ValidParentLevel(level, parentLevel) {
		return ErrInvalidParent
	}
	if level == access.LevelGlobal {
		for _, existing := range tree.IDs() {
			org, _ := tree.Get(existing)
			if org.Level == access.LevelGlobal && existing != id {
				return ErrGlobalExists
			}
		}
	}
	return nil
}

func ValidatePermissionKeys(keys []string) error {
	for _, key := range keys {
		if !auth.IsKnownPermission(key) {
			return apperr.Validation("Unknown permission key: %s", key)
		}
	}
	return nil
}

func ValidateScopeOverride(value string) (string, error) {
	switch value {
	case "":
		return access.OverrideNone, nil
	case access.OverrideNone, access.ScopeGlobal, access.ScopeCrossDirectorate:
		return value, nil
	default:
		return "", ErrInvalidScopeOverride
	}
}

func ValidateNewUser(in CreateUserInput) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		return apperr.Validation("valid email is required")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return apperr.Validation("first_name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return apperr.Validation("last_name is required")
	}
	if in.Level != nil && (*in.Level < 1 || *in.Level > 17) {
		return apperr.Validation("level must be between 1 and 17")
	}
	return nil
}

func FullName(first, middle, last string) string {
	parts := []string{}
	for _, part := range []string{first, middle, last} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// FilterUserFields hides contact details from viewers who are neither the user, their
// supervisor, nor a holder of user_view_all.
func FilterUserFields(user *User, viewer access.Principal) {
	if viewer.UserID == user.ID || viewer.UserID == user.SupervisorID || viewer.Has(auth.PermUserViewAll) {
		return
	}
	user.Phone = ""
	user.Address = ""
	user.EmailVerifiedAt = nil
}
