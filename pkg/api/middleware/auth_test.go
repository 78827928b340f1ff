package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/middleware"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

func testJWTConfig() *middleware.JWTConfig {
	return middleware.NewJWTConfig("test-secret-0123456789", time.Minute, time.Hour)
}

var testUser = models.User{ID: 7, Username: "john_doe", IsSuperuser: true}

func TestGenerateToken(t *testing.T) {
	config := testJWTConfig()

	t.Run("successful token generation", func(t *testing.T) {
		token, err := middleware.GenerateToken(config, middleware.TokenAccess, testUser)
		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("pair has distinct tokens", func(t *testing.T) {
		access, refresh, err := middleware.GeneratePair(config, testUser)
		require.NoError(t, err)
		assert.NotEqual(t, access, refresh)
	})
}

func TestValidateToken(t *testing.T) {
	config := testJWTConfig()

	t.Run("valid token", func(t *testing.T) {
		token, _ := middleware.GenerateToken(config, middleware.TokenAccess, testUser)

		claims, err := middleware.ValidateToken(config, token, middleware.TokenAccess)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), claims.UserID)
		assert.Equal(t, "john_doe", claims.Username)
		assert.True(t, claims.Superuser)
	})

	t.Run("invalid token", func(t *testing.T) {
		claims, err := middleware.ValidateToken(config, "invalid-token", middleware.TokenAccess)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("wrong kind", func(t *testing.T) {
		token, _ := middleware.GenerateToken(config, middleware.TokenRefresh, testUser)
		_, err := middleware.ValidateToken(config, token, middleware.TokenAccess)
		assert.ErrorIs(t, err, middleware.ErrWrongTokenKind)
	})

	t.Run("other secret", func(t *testing.T) {
		token, _ := middleware.GenerateToken(config, middleware.TokenAccess, testUser)
		other := middleware.NewJWTConfig("another-secret-0123456789", time.Minute, time.Hour)
		_, err := middleware.ValidateToken(other, token, middleware.TokenAccess)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		short := middleware.NewJWTConfig("test-secret-0123456789", -time.Minute, time.Hour)
		token, _ := middleware.GenerateToken(short, middleware.TokenAccess, testUser)
		_, err := middleware.ValidateToken(short, token, middleware.TokenAccess)
		assert.Error(t, err)
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		token, _ := middleware.GenerateToken(config, middleware.TokenRefresh, testUser)
		claims, err := middleware.ValidateToken(config, token, middleware.TokenRefresh)
		require.NoError(t, err)

		config.Revoke(claims.ID)
		_, err = middleware.ValidateToken(config, token, middleware.TokenRefresh)
		assert.ErrorIs(t, err, middleware.ErrTokenRevoked)
	})
}

func newAuthRouter(config *middleware.JWTConfig, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware.JWTAuth(config))
	router.Use(extra...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"user_id": c.GetInt64("user_id"), "username": c.GetString("username")})
	})
	return router
}

func TestJWTAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config := testJWTConfig()

	t.Run("valid token in header", func(t *testing.T) {
		token, _ := middleware.GenerateToken(config, middleware.TokenAccess, testUser)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		newAuthRouter(config).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"john_doe"`)
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing authorization header", ""},
		{"invalid token format", "InvalidFormat"},
		{"garbage token", "Bearer garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newAuthRouter(config).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"detail"`)
		})
	}

	t.Run("refresh token rejected", func(t *testing.T) {
		token, _ := middleware.GenerateToken(config, middleware.TokenRefresh, testUser)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		newAuthRouter(config).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireSuperuser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config := testJWTConfig()

	t.Run("superuser allowed", func(t *testing.T) {
		token, _ := middleware.GenerateToken(config, middleware.TokenAccess, testUser)
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		newAuthRouter(config, middleware.RequireSuperuser()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("staff forbidden", func(t *testing.T) {
		staff := testUser
		staff.IsSuperuser = false
		token, _ := middleware.GenerateToken(config, middleware.TokenAccess, staff)
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		newAuthRouter(config, middleware.RequireSuperuser()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
