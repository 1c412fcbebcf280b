package faktura

import "context"

type contextKey string

const (
	tenantIDKey contextKey = "faktura.tenant_id"
	actorKey    contextKey = "faktura.actor"
)

// WithTenant returns a context scoped to tenantID. Every Engine operation
// requires one.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantFrom returns the tenant of ctx, or "".
func TenantFrom(ctx context.Context) string {
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		return v
	}
	return ""
}

// WithActor records who performs the operation; it fills CreatedBy.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the actor of ctx, or "".
func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey).(string); ok {
		return v
	}
	return ""
}

func requireTenant(ctx context.Context) (string, error) {
	tenantID := TenantFrom(ctx)
	if tenantID == "" {
		return "", ErrMissingTenant
	}
	return tenantID, nil
}
