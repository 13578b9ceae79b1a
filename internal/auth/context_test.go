package auth

import (
	"context"
	"testing"
)

func TestRolesRoundTrip(t *testing.T) {
	ctx := ContextWithRoles(context.Background(), []string{RoleCurator, RoleViewer})

	roles, ok := RolesFromContext(ctx)
	if !ok || len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %v", roles)
	}

	if _, ok := RolesFromContext(context.Background()); ok {
		t.Fatalf("bare context should carry no roles")
	}
	if _, ok := RolesFromContext(ContextWithRoles(context.Background(), nil)); ok {
		t.Fatalf("empty role set should read back as absent")
	}
}

func TestContextWithRolesCopiesInput(t *testing.T) {
	source := []string{RoleCurator}
	ctx := ContextWithRoles(context.Background(), source)

	source[0] = "tampered"
	if !HasRole(ctx, RoleCurator) {
		t.Fatalf("mutating the source slice must not affect the context")
	}
}

func TestEnforceCuratorAccess(t *testing.T) {
	curator := ContextWithRoles(context.Background(), []string{RoleCurator})
	if err := EnforceCuratorAccess(curator); err != nil {
		t.Fatalf("curator should be allowed: %v", err)
	}

	viewer := ContextWithRoles(context.Background(), []string{RoleViewer})
	if err := EnforceCuratorAccess(viewer); err == nil {
		t.Fatalf("viewer should be rejected")
	}
	if err := EnforceCuratorAccess(context.Background()); err == nil {
		t.Fatalf("anonymous caller should be rejected")
	}
}
