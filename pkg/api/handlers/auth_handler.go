package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/middleware"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// Accounts authenticates staff users
type Accounts interface {
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	Lookup(ctx context.Context, username string) (models.User, error)
}

// AuthHandler handles login, token refresh and logout
type AuthHandler struct {
	accounts Accounts
	jwt      *middleware.JWTConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts Accounts, jwt *middleware.JWTConfig) *AuthHandler {
	return &AuthHandler{accounts: accounts, jwt: jwt}
}

// Login handles POST /api/admin/auth/login/
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/admin/auth/login/ [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !middleware.BindAndValidate(c, &req) {
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.AbortWithError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}

	access, refresh, err := middleware.GeneratePair(h.jwt, user)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "token_error", err.Error())
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{Access: access, Refresh: refresh, User: user})
}

// Refresh handles POST /api/admin/auth/refresh/
// @Summary Rotate the token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param token body models.RefreshRequest true "Refresh token"
// @Success 200 {object} models.RefreshResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/admin/auth/refresh/ [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if !middleware.BindAndValidate(c, &req) {
		return
	}

	claims, err := middleware.ValidateToken(h.jwt, req.Refresh, middleware.TokenRefresh)
	if err != nil {
		middleware.AbortWithError(c, http.StatusUnauthorized, "token_not_valid", "Token is invalid or expired")
		return
	}

	user, err := h.accounts.Lookup(c.Request.Context(), claims.Username)
	if err != nil {
		middleware.AbortWithError(c, http.StatusUnauthorized, "user_not_found", "User not found")
		return
	}

	access, refresh, err := middleware.GeneratePair(h.jwt, user)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "token_error", err.Error())
		return
	}
	h.jwt.Revoke(claims.ID)

	c.JSON(http.StatusOK, models.RefreshResponse{Access: access, Refresh: refresh})
}

// Me handles GET /api/admin/auth/me/
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/admin/auth/me/ [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.accounts.Lookup(c.Request.Context(), c.GetString("username"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "user_not_found", "User not found")
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout handles POST /api/admin/auth/logout/
// @Summary Blacklist the refresh token
// @Tags auth
// @Accept json
// @Param token body models.RefreshRequest false "Refresh token"
// @Success 204
// @Router /api/admin/auth/logout/ [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.Refresh != "" {
		claims, err := middleware.ValidateToken(h.jwt, req.Refresh, middleware.TokenRefresh)
		switch {
		case err == nil:
			h.jwt.Revoke(claims.ID)
		case !errors.Is(err, middleware.ErrTokenRevoked):
			middleware.AbortWithError(c, http.StatusBadRequest, "token_not_valid", "Token is invalid or expired")
			return
		}
	}

	c.Status(http.StatusNoContent)
}
