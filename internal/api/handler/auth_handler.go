package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"acadef/backend/config"
	"acadef/backend/internal/dto"
	"acadef/backend/internal/service"
	"acadef/backend/pkg/response"
)

const refreshCookieName = "refresh_token"

// CookieOptions refresh token cookie settings
type CookieOptions struct {
	Path   string
	Secure bool
	MaxAge time.Duration
}

// NewCookieOptions derives the cookie settings from the public base URL.
func NewCookieOptions(server *config.ServerConfig, auth *config.AuthConfig) *CookieOptions {
	return &CookieOptions{
		Path:   "/api/v1/auth",
		Secure: strings.HasPrefix(server.BaseURL, "https://"),
		MaxAge: auth.RefreshTokenTTLRemember,
	}
}

// AuthHandler login, token refresh and account endpoints
type AuthHandler struct {
	authSvc service.AuthService
	cookie  *CookieOptions
}

// NewAuthHandler creates an AuthHandler; a nil cookie uses defaults
func NewAuthHandler(authSvc service.AuthService, cookie *CookieOptions) *AuthHandler {
	if cookie == nil {
		cookie = &CookieOptions{Path: "/api/v1/auth", MaxAge: 7 * 24 * time.Hour}
	}
	return &AuthHandler{authSvc: authSvc, cookie: cookie}
}

// Login username or email login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// RefreshToken exchanges a refresh token (body or cookie) for a new pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)

	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}
	if token == "" {
		response.BadRequest(c, 10001, "Jeton de rafraîchissement manquant")
		return
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), token)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Logout revokes the current access token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	jti, exp := tokenMeta(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, h.cookie.Path, "", h.cookie.Secure, true)
	response.OK(c, nil)
}

// GetCurrentUser profile of the caller
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}
	response.OK(c, user)
}

// ChangePassword sets a new password after checking the current one
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Le nouveau mot de passe doit contenir au moins 8 caractères")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── helpers ──

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	if token == "" {
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, int(h.cookie.MaxAge.Seconds()), h.cookie.Path, "", h.cookie.Secure, true)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, err.Error())
	case errors.Is(err, service.ErrAccountDisabled):
		response.Forbidden(c, 11002, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, 11003, err.Error())
	case errors.Is(err, service.ErrWrongPassword):
		response.BadRequest(c, 11004, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11005, err.Error())
	default:
		response.InternalError(c)
	}
}
