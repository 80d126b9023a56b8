package auth

import "context"

type contextKey string

const roleKey contextKey = "staffRole"

func NewContextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)

	return role, ok && role != ""
}
