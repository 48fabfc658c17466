package core

import (
	"errors"
	"testing"

	"pms/internal/domain/access"
	"pms/internal/domain/apperr"
	"pms/internal/domain/auth"
)

func TestStatusPermission(t *testing.T) {
	cases := map[string]string{
		UserStatusSuspended: auth.PermUserSuspend,
		UserStatusActive:    auth.PermUserActivate,
		UserStatusArchived:  auth.PermUserArchive,
		UserStatusOnLeave:   auth.PermUserEdit,
	}
	for status, want := range cases {
		got, err := StatusPermission(status)
		if err != nil || got != want {
			t.Fatalf("StatusPermission(%s) = %s, %v; want %s", status, got, err, want)
		}
	}
	if _, err := StatusPermission(UserStatusPendingActivation); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected pending_activation to be rejected, got %v", err)
	}
}

func TestWouldCreateCycle(t *testing.T) {
	// ceo <- vp <- lead <- dev
	supervisors := map[string]string{"vp": "ceo", "lead": "vp", "dev": "lead"}
	cases := []struct {
		user, supervisor string
		want             bool
	}{
		{"dev", "vp", false},
		{"ceo", "dev", true},
		{"vp", "lead", true},
		{"dev", "dev", true},
		{"newbie", "dev", false},
	}
	for _, tc := range cases {
		if got := WouldCreateCycle(supervisors, tc.user, tc.supervisor); got != tc.want {
			t.Fatalf("WouldCreateCycle(%s, %s) = %v, want %v", tc.user, tc.supervisor, got, tc.want)
		}
	}

	corrupted := map[string]string{"a": "b", "b": "a"}
	if !WouldCreateCycle(corrupted, "c", "a") {
		t.Fatal("expected corrupted chain to be treated as a cycle")
	}
}

func TestSubordinates(t *testing.T) {
	supervisors := map[string]string{"vp": "ceo", "lead": "vp", "dev": "lead", "ops": "ceo"}
	got := Subordinates(supervisors, "vp")
	if len(got) != 2 {
		t.Fatalf("expected lead and dev, got %v", got)
	}
	if _, ok := got["ops"]; ok {
		t.Fatal("ops does not report to vp")
	}
	if len(Subordinates(supervisors, "dev")) != 0 {
		t.Fatal("dev has no reports")
	}
}

func TestValidateOrgPlacement(t *testing.T) {
	tree := access.NewOrgTree([]access.Org{
		{ID: "g", Level: access.LevelGlobal},
		{ID: "d1", Level: access.LevelDirectorate, ParentID: "g"},
		{ID: "dep1", Level: access.LevelDepartment, ParentID: "d1"},
	})
	cases := []struct {
		name              string
		id, level, parent string
		want              error
	}{
		{"department under directorate", "", access.LevelDepartment, "d1", nil},
		{"unit under department", "", access.LevelUnit, "dep1", nil},
		{"department under global", "", access.LevelDepartment, "g", ErrInvalidParent},
		{"second global", "", access.LevelGlobal, "", ErrGlobalExists},
		{"existing global keeps itself", "g", access.LevelGlobal, "", nil},
		{"missing parent", "", access.LevelUnit, "nope", ErrParentNotFound},
		{"unknown level", "", "team", "dep1", ErrInvalidLevel},
		{"move under own descendant", "d1", access.LevelDirectorate, "dep1", ErrInvalidParent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOrgPlacement(tree, tc.id, tc.level, tc.parent)
			if !errors.Is(err, tc.want) && !(err == nil && tc.want == nil) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidatePermissionKeysAndScope(t *testing.T) {
	if err := ValidatePermissionKeys([]string{auth.PermGoalApprove, auth.PermAuditAccess}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ValidatePermissionKeys([]string{"leave.approve"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got, _ := ValidateScopeOverride(""); got != access.OverrideNone {
		t.Fatalf("expected empty override to normalize to none, got %q", got)
	}
	if _, err := ValidateScopeOverride("tenant"); !errors.Is(err, ErrInvalidScopeOverride) {
		t.Fatalf("expected invalid override, got %v", err)
	}
}

func TestValidateNewUser(t *testing.T) {
	bad := 18
	cases := []struct {
		name string
		in   CreateUserInput
		ok   bool
	}{
		{"valid", CreateUserInput{Email: "a@example.com", FirstName: "Ada", LastName: "Lovelace"}, true},
		{"bad email", CreateUserInput{Email: "nope", FirstName: "Ada", LastName: "Lovelace"}, false},
		{"missing last name", CreateUserInput{Email: "a@example.com", FirstName: "Ada"}, false},
		{"level out of range", CreateUserInput{Email: "a@example.com", FirstName: "Ada", LastName: "L", Level: &bad}, false},
	}
	for _, tc := range cases {
		err := ValidateNewUser(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("%s: unexpected result %v", tc.name, err)
		}
	}
	if FullName(" Ada ", "", "Lovelace") != "Ada Lovelace" {
		t.Fatal("unexpected full name")
	}
}

func TestFilterUserFields(t *testing.T) {
	base := User{ID: "u1", SupervisorID: "boss", Phone: "555", Address: "1 Main St"}

	stranger := base
	FilterUserFields(&stranger, access.NewPrincipal("other", "", "", "", access.ScopeOwnSubtree, nil))
	if stranger.Phone != "" || stranger.Address != "" {
		t.Fatal("expected contact details hidden from strangers")
	}

	for _, viewer := range []access.Principal{
		access.NewPrincipal("u1", "", "", "", access.ScopeOwnSubtree, nil),
		access.NewPrincipal("boss", "", "", "", access.ScopeOwnSubtree, nil),
		access.NewPrincipal("hr", "", "", "", access.ScopeGlobal, []string{auth.PermUserViewAll}),
	} {
		visible := base
		FilterUserFields(&visible, viewer)
		if visible.Phone != "555" {
			t.Fatalf("expected %s to see contact details", viewer.UserID)
		}
	}
}
