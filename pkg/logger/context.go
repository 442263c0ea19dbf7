package logger

import (
	"context"
	"log/slog"
)

type tenantKey struct{}

// WithTenant stores the tenant id in ctx so records logged with that context
// carry a "tenant" attribute.
func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenant)
}

// TenantFromContext returns the tenant id stored by WithTenant.
func TenantFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	tenant, ok := ctx.Value(tenantKey{}).(string)
	return tenant, ok && tenant != ""
}

// TenantExtractor adds the tenant attribute to records when present in context.
func TenantExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if tenant, ok := TenantFromContext(ctx); ok {
			return Tenant(tenant), true
		}
		return slog.Attr{}, false
	}
}
