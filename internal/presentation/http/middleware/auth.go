package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/utils"
)

const (
	userIDKey   = "user_id"
	tenantIDKey = "tenant_id"
	branchIDKey = "branch_id"
	rolesKey    = "user_roles"
)

// AuthMiddleware creates a JWT authentication middleware
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, apperror.NewAppError(401, apperror.ReasonUnauthorized, "Authorization header is required"))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Abort(c, apperror.NewAppError(401, apperror.ReasonUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Abort(c, apperror.ErrInvalidToken)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(tenantIDKey, claims.TenantID)
		if claims.BranchID != nil {
			c.Set(branchIDKey, *claims.BranchID)
		}
		c.Set(rolesKey, claims.Roles)

		c.Next()
	}
}

// GetUserID returns the authenticated user
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	return getUUID(c, userIDKey)
}

// GetTenantID returns the tenant named by the token
func GetTenantID(c *gin.Context) uuid.UUID {
	id, _ := getUUID(c, tenantIDKey)
	return id
}

// GetBranchID returns the branch the token is pinned to, if any
func GetBranchID(c *gin.Context) (uuid.UUID, bool) {
	return getUUID(c, branchIDKey)
}

func getUUID(c *gin.Context, key string) (uuid.UUID, bool) {
	v, exists := c.Get(key)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
