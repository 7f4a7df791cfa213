// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// GetTenantID gets the tenant ID from context.
func GetTenantID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("tenant_id")
	if !exists {
		return 0, false
	}
	tenantID, ok := v.(int64)
	return tenantID, ok
}

// MustGetTenantID gets the tenant ID from context or panics.
func MustGetTenantID(c *gin.Context) int64 {
	tenantID, exists := GetTenantID(c)
	if !exists {
		panic("tenant_id not found in context")
	}
	return tenantID
}
