package auth

import "context"

// Roles known to the system. Role is stored on the user row and embedded in
// issued tokens; it is never taken from client-supplied request data.
const (
	RoleWorker   = "worker"
	RoleEmployer = "employer"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one of the self-registerable roles.
// Admin accounts are seeded, not registered.
func ValidRole(role string) bool {
	return role == RoleWorker || role == RoleEmployer
}

type contextKey string

const claimsKey contextKey = "claims"

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
