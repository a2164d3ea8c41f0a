package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"acadef/backend/internal/service"
	"acadef/backend/pkg/response"
)

// MustGetUserID reads the user_id set by JWTAuth. When it is missing a 401
// is written and ok is false; the caller should return immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole reads the role set by JWTAuth.
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// MustGetActor caller identity for service-level access checks
func MustGetActor(c *gin.Context) (*service.Actor, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return nil, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return nil, false
	}
	return &service.Actor{UserID: userID, Role: role}, true
}

// tokenMeta jti and expiry of the access token, empty when absent
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	t, _ := exp.(time.Time)
	return jti, t
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "Non authentifié")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "Non authentifié")
		return "", false
	}
	return s, true
}
