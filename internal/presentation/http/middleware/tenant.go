package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/logger"
)

const scopeKey = "tenant_scope"

// TenantMiddleware turns the verified tenant claim into a tenancy.Scope.
// Unknown and deactivated tenants are refused.
func TenantMiddleware(tenantRepo repository.TenantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := tenancy.NewScope(GetTenantID(c))
		if err != nil {
			response.Abort(c, apperror.NewAppError(403, apperror.ReasonForbidden, "Tenant context required"))
			return
		}

		tenant, err := tenantRepo.GetByID(c.Request.Context(), scope.TenantID())
		if err != nil {
			logger.Error(c.Request.Context()).Err(err).Str("tenant_id", scope.String()).Msg("tenant lookup failed")
			response.Abort(c, err)
			return
		}
		if tenant == nil || !tenant.IsActive {
			response.Abort(c, apperror.NewAppError(403, apperror.ReasonForbidden, "Access denied to this tenant"))
			return
		}

		c.Set(scopeKey, scope)
		c.Next()
	}
}

// GetScope retrieves the tenant scope from gin context
func GetScope(c *gin.Context) (tenancy.Scope, bool) {
	v, exists := c.Get(scopeKey)
	if !exists {
		return tenancy.Scope{}, false
	}
	scope, ok := v.(tenancy.Scope)
	return scope, ok && !scope.IsZero()
}
