package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/faktura"
)

// Request headers carrying the caller's scope.
const (
	HeaderTenant = "X-Tenant-ID"
	HeaderActor  = "X-User-ID"
)

const tenantKey = "tenant_id"

// TenantMiddleware scopes the request context to the tenant named by the
// X-Tenant-ID header and rejects requests without one.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(HeaderTenant)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				NewErrorResponse(http.StatusBadRequest, "missing tenant", HeaderTenant+" header is required"))
			return
		}

		ctx := faktura.WithTenant(c.Request.Context(), tenantID)
		if actor := c.GetHeader(HeaderActor); actor != "" {
			ctx = faktura.WithActor(ctx, actor)
		}
		c.Set(tenantKey, tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
