package middleware

import (
	"net/http"
	"strings"

	"github.com/dbca-wa/wastd-sub002/internal/auth"
)

// RolesHeader names the header the gateway uses to forward the authenticated
// user's group memberships. Authentication itself happens upstream; this
// service only consumes the resulting roles.
const RolesHeader = "X-User-Roles"

// RolesMiddleware lifts forwarded roles into the request context so handlers
// can enforce access with auth.EnforceCuratorAccess.
func RolesMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(RolesHeader))
		if raw != "" {
			var roles []string
			for _, part := range strings.Split(raw, ",") {
				if role := strings.TrimSpace(part); role != "" {
					roles = append(roles, role)
				}
			}
			if len(roles) > 0 {
				r = r.WithContext(auth.ContextWithRoles(r.Context(), roles))
			}
		}
		next.ServeHTTP(w, r)
	})
}
