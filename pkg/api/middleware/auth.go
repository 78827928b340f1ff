package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// Token kinds carried in the claims
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var (
	// ErrWrongTokenKind is returned when a refresh token is used as an access token or vice versa
	ErrWrongTokenKind = errors.New("wrong token type")

	// ErrTokenRevoked is returned for a refresh token that was rotated or logged out
	ErrTokenRevoked = errors.New("token is blacklisted")
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SecretKey  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string

	revoked sync.Map
}

// Claims represents JWT claims
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Superuser bool   `json:"superuser,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// NewJWTConfig returns a configuration signing with secret
func NewJWTConfig(secret string, accessTTL, refreshTTL time.Duration) *JWTConfig {
	return &JWTConfig{
		SecretKey:  []byte(secret),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Issuer:     "backoffice-devserver",
	}
}

// GenerateToken signs a token of the given kind for user
func GenerateToken(config *JWTConfig, kind string, user models.User) (string, error) {
	ttl := config.AccessTTL
	if kind == TokenRefresh {
		ttl = config.RefreshTTL
	}

	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Superuser: user.IsSuperuser,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.SecretKey)
}

// GeneratePair signs an access and a refresh token for user
func GeneratePair(config *JWTConfig, user models.User) (access, refresh string, err error) {
	if access, err = GenerateToken(config, TokenAccess, user); err != nil {
		return "", "", err
	}
	if refresh, err = GenerateToken(config, TokenRefresh, user); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ValidateToken validates a JWT token of the expected kind
func ValidateToken(config *JWTConfig, tokenString, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return config.SecretKey, nil
	}, jwt.WithIssuer(config.Issuer))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != kind {
		return nil, ErrWrongTokenKind
	}
	if kind == TokenRefresh && config.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blacklists a refresh token by its id
func (config *JWTConfig) Revoke(tokenID string) {
	config.revoked.Store(tokenID, struct{}{})
}

// IsRevoked reports whether the token id was blacklisted
func (config *JWTConfig) IsRevoked(tokenID string) bool {
	_, ok := config.revoked.Load(tokenID)
	return ok
}

// JWTAuth returns a middleware that validates access tokens
func JWTAuth(config *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			AbortWithError(c, http.StatusUnauthorized, "not_authenticated", "Authentication credentials were not provided.")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			AbortWithError(c, http.StatusUnauthorized, "bad_authorization_header", "Authorization header must contain two space-delimited values")
			return
		}

		claims, err := ValidateToken(config, parts[1], TokenAccess)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "token_not_valid", "Given token not valid for any token type")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("superuser", claims.Superuser)

		c.Next()
	}
}

// RequireSuperuser rejects requests whose token does not belong to a superuser
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("superuser") {
			AbortWithError(c, http.StatusForbidden, "permission_denied",
				"You do not have permission to perform this action.")
			return
		}

		c.Next()
	}
}
