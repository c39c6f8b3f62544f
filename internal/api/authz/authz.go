package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Admin is the operator behind an authenticated admin API key.
type Admin struct {
	Name string
}

type adminContextKey struct{}

func ContextWithAdmin(ctx context.Context, admin *Admin) context.Context {
	return context.WithValue(ctx, adminContextKey{}, admin)
}

// AdminFromContext retrieves the Admin stored in ctx.
// It returns nil if ctx is nil, if no admin is stored, or if the stored value has a different type.
func AdminFromContext(ctx context.Context) *Admin {
	if ctx == nil {
		return nil
	}

	admin, ok := ctx.Value(adminContextKey{}).(*Admin)
	if !ok {
		return nil
	}

	return admin
}

// ActorFromContext returns the name recorded in audit trails for the
// request's admin, or "" when the request is not authenticated.
func ActorFromContext(ctx context.Context) string {
	admin := AdminFromContext(ctx)
	if admin == nil {
		return ""
	}
	return "admin:" + admin.Name
}

func RequireAdmin(ctx context.Context) (*Admin, error) {
	admin := AdminFromContext(ctx)
	if admin == nil {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(admin.Name) == "" {
		return nil, ErrForbidden
	}
	return admin, nil
}
