package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JideOgun/Pro-Dj-sub004/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by JWTAuth
const (
	ContextKeyUserID = "user_id"
	ContextKeyEmail  = "email"
	ContextKeyRole   = "role"
)

// Roles carried in the token
const (
	RoleAdmin  = "ADMIN"
	RoleDJ     = "DJ"
	RoleClient = "CLIENT"
)

// Claims are the token claims issued by the auth provider
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig configures token verification
type AuthConfig struct {
	Secret string
	// Issuer is checked only when set
	Issuer string
}

// ParseToken verifies an HS256 token and returns its claims
func ParseToken(cfg AuthConfig, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no subject")
	}
	claims.Role = strings.ToUpper(claims.Role)
	return claims, nil
}

// bearerToken returns the token from "Authorization: Bearer <token>"
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// JWTAuth verifies the bearer token and stores the caller in the context
func JWTAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authorization header is required")
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := ParseToken(cfg, token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// GetUserID returns the authenticated user id
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextKeyUserID)
	return id, id != ""
}

// GetRole returns the authenticated role or ""
func GetRole(c *gin.Context) string {
	return c.GetString(ContextKeyRole)
}

// RequireRoles allows only the listed roles
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToUpper(r)] = true
	}

	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "User role not found in context")
			return
		}
		if !allowed[role] {
			response.Abort(c, http.StatusForbidden, response.CodeForbidden, "You do not have access to this resource")
			return
		}
		c.Next()
	}
}

// AdminOnly restricts a route to admins
func AdminOnly() gin.HandlerFunc {
	return RequireRoles(RoleAdmin)
}
