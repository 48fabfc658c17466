package access

import (
	"context"
	"sort"
	"testing"
)

func TestEffectiveScope(t *testing.T) {
	cases := []struct {
		level, override, want string
	}{
		{LevelGlobal, OverrideNone, ScopeGlobal},
		{LevelDirectorate, "", ScopeCrossDirectorate},
		{LevelDepartment, OverrideNone, ScopeOwnSubtree},
		{LevelUnit, ScopeGlobal, ScopeGlobal},
		{LevelUnit, ScopeCrossDirectorate, ScopeCrossDirectorate},
		{"", OverrideNone, ScopeOwnSubtree},
	}
	for _, tc := range cases {
		if got := EffectiveScope(tc.level, tc.override); got != tc.want {
			t.Fatalf("EffectiveScope(%q, %q) = %q, want %q", tc.level, tc.override, got, tc.want)
		}
	}
}

func TestCanAccessByScope(t *testing.T) {
	tree := sampleTree()
	cases := []struct {
		name   string
		p      Principal
		target string
		want   bool
	}{
		{"global sees everything", Principal{Scope: ScopeGlobal, OrgID: "u1"}, "u2", true},
		{"directorate peer", Principal{Scope: ScopeCrossDirectorate, OrgID: "dep1"}, "u1", true},
		{"other directorate", Principal{Scope: ScopeCrossDirectorate, OrgID: "dep1"}, "u2", false},
		{"directorate cannot see root", Principal{Scope: ScopeCrossDirectorate, OrgID: "d1"}, "g", false},
		{"own org", Principal{Scope: ScopeOwnSubtree, OrgID: "dep1"}, "dep1", true},
		{"descendant", Principal{Scope: ScopeOwnSubtree, OrgID: "dep1"}, "u1", true},
		{"ancestor", Principal{Scope: ScopeOwnSubtree, OrgID: "div1"}, "dep1", false},
		{"no org", Principal{Scope: ScopeOwnSubtree}, "dep1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tree.CanAccess(tc.p, tc.target); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAccessibleOrgs(t *testing.T) {
	tree := sampleTree()
	got := tree.Accessible(Principal{Scope: ScopeCrossDirectorate, OrgID: "u1"})
	sort.Strings(got)
	if len(got) != 4 || got[0] != "d1" {
		t.Fatalf("expected directorate subtree, got %v", got)
	}
	if len(tree.Accessible(Principal{Scope: ScopeGlobal})) != tree.Len() {
		t.Fatal("expected every org for global scope")
	}
	if len(tree.Accessible(Principal{Scope: ScopeOwnSubtree, OrgID: "u2"})) != 1 {
		t.Fatal("expected only the unit itself")
	}
}

type fakeStore struct {
	orgs  []Org
	users map[string]UserAccess
	perms map[string][]string
}

func (f fakeStore) Organizations(context.Context) ([]Org, error) { return f.orgs, nil }
func (f fakeStore) UserAccess(_ context.Context, id string) (UserAccess, error) {
	return f.users[id], nil
}
func (f fakeStore) RolePermissions(_ context.Context, roleID string) ([]string, error) {
	return f.perms[roleID], nil
}
func (f fakeStore) HasPermission(_ context.Context, roleID, perm string) (bool, error) {
	for _, p := range f.perms[roleID] {
		if p == perm {
			return true, nil
		}
	}
	return false, nil
}

func TestResolverPrincipal(t *testing.T) {
	tree := sampleTree()
	var orgs []Org
	for _, id := range tree.IDs() {
		org, _ := tree.Get(id)
		orgs = append(orgs, org)
	}
	store := fakeStore{
		orgs: orgs,
		users: map[string]UserAccess{
			"hod":   {UserID: "hod", RoleID: "r-hod", RoleName: "hod", OrgID: "d1", ScopeOverride: OverrideNone},
			"staff": {UserID: "staff", RoleID: "r-emp", RoleName: "employee", OrgID: "u1", ScopeOverride: ScopeGlobal},
		},
		perms: map[string][]string{"r-hod": {"goal_view_all", "goal_approve"}},
	}
	resolver := NewResolver(store)
	ctx := context.Background()

	hod, err := resolver.Principal(ctx, "hod")
	if err != nil {
		t.Fatalf("principal: %v", err)
	}
	if hod.Scope != ScopeCrossDirectorate || !hod.Has("goal_approve") || hod.Has("goal_freeze") {
		t.Fatalf("unexpected principal %+v", hod)
	}
	if list := hod.PermissionList(); len(list) != 2 || list[0] != "goal_approve" {
		t.Fatalf("unexpected permission list %v", list)
	}
	ok, err := resolver.CanAccessOrg(ctx, hod, "u2")
	if err != nil || ok {
		t.Fatalf("expected no access across directorates, got %v %v", ok, err)
	}

	staff, _ := resolver.Principal(ctx, "staff")
	if staff.Scope != ScopeGlobal {
		t.Fatalf("expected override to win, got %s", staff.Scope)
	}
	allowed, _ := resolver.HasPermission(ctx, "r-hod", "goal_view_all")
	if !allowed {
		t.Fatal("expected permission lookup to succeed")
	}
}
