package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/devstore"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/handlers"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/middleware"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *middleware.JWTConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accounts := devstore.NewAccounts()
	_, err := accounts.Add("admin", "admin123", true)
	require.NoError(t, err)

	jwtConfig := middleware.NewJWTConfig("test-secret-0123456789", time.Minute, time.Hour)
	h := handlers.NewAuthHandler(accounts, jwtConfig)

	router := gin.New()
	g := router.Group("/api/admin/auth")
	g.POST("/login/", h.Login)
	g.POST("/refresh/", h.Refresh)
	g.POST("/logout/", h.Logout)
	g.GET("/me/", middleware.JWTAuth(jwtConfig), h.Me)
	return router, jwtConfig
}

func postJSON(router *gin.Engine, target string, v any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(v)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine) models.LoginResponse {
	t.Helper()
	w := postJSON(router, "/api/admin/auth/login/", models.LoginRequest{Username: "admin", Password: "admin123"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuthHandler_Login(t *testing.T) {
	router, _ := setupAuthRouter(t)

	t.Run("valid credentials", func(t *testing.T) {
		resp := login(t, router)
		assert.NotEmpty(t, resp.Access)
		assert.NotEmpty(t, resp.Refresh)
		assert.Equal(t, "admin", resp.User.Username)
		assert.True(t, resp.User.IsSuperuser)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := postJSON(router, "/api/admin/auth/login/", models.LoginRequest{Username: "admin", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid username or password")
	})

	t.Run("missing fields", func(t *testing.T) {
		w := postJSON(router, "/api/admin/auth/login/", map[string]string{"username": "admin"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "password")
	})
}

func TestAuthHandler_Me(t *testing.T) {
	router, _ := setupAuthRouter(t)
	tokens := login(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/auth/me/", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.Access)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "admin", user.Username)
}

func TestAuthHandler_Refresh(t *testing.T) {
	router, _ := setupAuthRouter(t)
	tokens := login(t, router)

	w := postJSON(router, "/api/admin/auth/refresh/", models.RefreshRequest{Refresh: tokens.Refresh})
	require.Equal(t, http.StatusOK, w.Code)
	var rotated models.RefreshResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEmpty(t, rotated.Access)
	assert.NotEmpty(t, rotated.Refresh)

	t.Run("old refresh token is blacklisted", func(t *testing.T) {
		w := postJSON(router, "/api/admin/auth/refresh/", models.RefreshRequest{Refresh: tokens.Refresh})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		w := postJSON(router, "/api/admin/auth/refresh/", models.RefreshRequest{Refresh: rotated.Access})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	router, _ := setupAuthRouter(t)
	tokens := login(t, router)

	w := postJSON(router, "/api/admin/auth/logout/", models.RefreshRequest{Refresh: tokens.Refresh})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = postJSON(router, "/api/admin/auth/refresh/", models.RefreshRequest{Refresh: tokens.Refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	t.Run("repeated logout", func(t *testing.T) {
		w := postJSON(router, "/api/admin/auth/logout/", models.RefreshRequest{Refresh: tokens.Refresh})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := postJSON(router, "/api/admin/auth/logout/", models.RefreshRequest{Refresh: "garbage"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
