package access

import "sort"

const (
	ScopeGlobal           = "global"
	ScopeCrossDirectorate = "cross_directorate"
	ScopeOwnSubtree       = "own_subtree"

	OverrideNone = "none"
)

// EffectiveScope derives the scope from the user's org level unless the role overrides it.
func EffectiveScope(orgLevel, override string) string {
	if override != "" && override != OverrideNone {
		return override
	}
	switch orgLevel {
	case LevelGlobal:
		return ScopeGlobal
	case LevelDirectorate:
		return ScopeCrossDirectorate
	default:
		return ScopeOwnSubtree
	}
}

// Principal is the caller together with everything access checks need.
type Principal struct {
	UserID      string              `json:"user_id"`
	RoleID      string              `json:"role_id"`
	RoleName    string              `json:"role_name"`
	OrgID       string              `json:"organization_id,omitempty"`
	Scope       string              `json:"scope"`
	Permissions map[string]struct{} `json:"-"`
}

func NewPrincipal(userID, roleID, roleName, orgID, scope string, perms []string) Principal {
	set := make(map[string]struct{}, len(perms))
	for _, perm := range perms {
		set[perm] = struct{}{}
	}
	return Principal{UserID: userID, RoleID: roleID, RoleName: roleName, OrgID: orgID, Scope: scope, Permissions: set}
}

func (p Principal) Has(perm string) bool {
	_, ok := p.Permissions[perm]
	return ok
}

func (p Principal) PermissionList() []string {
	out := make([]string, 0, len(p.Permissions))
	for perm := range p.Permissions {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}

// CanAccess applies the principal's scope to a target org.
func (t *OrgTree) CanAccess(p Principal, target string) bool {
	switch p.Scope {
	case ScopeGlobal:
		return true
	case ScopeCrossDirectorate:
		mine, ok := t.Directorate(p.OrgID)
		if !ok {
			return false
		}
		theirs, ok := t.Directorate(target)
		return ok && mine == theirs
	default:
		return t.IsWithin(p.OrgID, target)
	}
}

// Accessible lists every org id the principal may see.
func (t *OrgTree) Accessible(p Principal) []string {
	switch p.Scope {
	case ScopeGlobal:
		return t.IDs()
	case ScopeCrossDirectorate:
		directorate, ok := t.Directorate(p.OrgID)
		if !ok {
			return nil
		}
		return t.Subtree(directorate)
	default:
		return t.Subtree(p.OrgID)
	}
}
