package auth

import (
	"context"
	"fmt"
)

// Role names recognised by the service. Curators are the only role allowed
// to import or export stranding data.
const (
	RoleCurator = "curator"
	RoleViewer  = "viewer"
)

type contextKey string

const rolesKey contextKey = "roles"

// ContextWithRoles returns a new context that carries the authenticated
// user's roles.
func ContextWithRoles(ctx context.Context, roles []string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	copied := make([]string, len(roles))
	copy(copied, roles)
	return context.WithValue(ctx, rolesKey, copied)
}

// RolesFromContext retrieves the authenticated roles from the context, if any.
func RolesFromContext(ctx context.Context) ([]string, bool) {
	if ctx == nil {
		return nil, false
	}
	value := ctx.Value(rolesKey)
	if value == nil {
		return nil, false
	}
	roles, ok := value.([]string)
	if !ok || len(roles) == 0 {
		return nil, false
	}
	return roles, true
}

// HasRole reports whether the context carries the named role.
func HasRole(ctx context.Context, role string) bool {
	roles, ok := RolesFromContext(ctx)
	if !ok {
		return false
	}
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// EnforceCuratorAccess ensures the caller holds the curator role. Import and
// export operations are restricted to curators.
func EnforceCuratorAccess(ctx context.Context) error {
	if HasRole(ctx, RoleCurator) {
		return nil
	}
	return fmt.Errorf("operation requires the %s role", RoleCurator)
}
