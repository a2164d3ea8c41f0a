package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"acadef/backend/pkg/jwt"
	"acadef/backend/pkg/response"
)

// Blacklist revoked token ids
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth validates the access token from "Authorization: Bearer <token>".
// A nil blacklist skips the revocation check; so does a blacklist error.
func JWTAuth(jwtMgr *jwt.Manager, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "En-tête d'authentification manquant")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "En-tête d'authentification invalide")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Jeton invalide ou expiré")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Type de jeton invalide")
			c.Abort()
			return
		}

		if blacklist != nil {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Jeton révoqué")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("token_jti", claims.ID)
		var exp time.Time
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		c.Set("token_exp", exp)

		c.Next()
	}
}

// RoleAuth lets the request through when the caller has one of allowedRoles.
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "Non authentifié")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "Accès refusé")
		c.Abort()
	}
}
