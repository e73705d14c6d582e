package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/util"
)

// Context keys for the authenticated user
const (
	UserIDKey = "user_id"
	UserKey   = "user"
	ClaimsKey = "claims"
)

// Cookie names shared with the auth controller.
const (
	AccessTokenCookie  = "user_access_token"
	RefreshTokenCookie = "user_refresh_token"
)

// TokenValidator resolves an access token to its user.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*model.User, *util.Claims, error)
}

type AuthMiddleware struct {
	validator   TokenValidator
	isAuthError func(error) bool
}

// NewAuthMiddleware builds the middleware. isAuthError reports which
// validator errors mean "bad credential" rather than an internal failure.
func NewAuthMiddleware(validator TokenValidator, isAuthError func(error) bool) *AuthMiddleware {
	return &AuthMiddleware{
		validator:   validator,
		isAuthError: isAuthError,
	}
}

// extractToken reads the bearer header first and falls back to the access cookie.
func extractToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	token, err := c.Cookie(AccessTokenCookie)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// Authenticate validates the access token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := extractToken(c)
		if !ok {
			log.Warn("Missing or malformed access token", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "login required")
			c.Abort()
			return
		}

		user, claims, err := m.validator.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			if m.isAuthError(err) {
				log.Warn("Token validation failed", map[string]interface{}{
					"path":  c.Request.URL.Path,
					"error": err.Error(),
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "invalid or expired token")
			} else {
				log.Error("Token validation error", err, map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserKey, user)
		c.Set(ClaimsKey, claims)

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": user.ID,
		})

		c.Next()
	}
}

// RequireSeller lets only sellers through. Must run after Authenticate.
func (m *AuthMiddleware) RequireSeller() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		user, ok := GetUser(c)
		if !ok {
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if !user.IsSeller {
			log.Warn("Insufficient permissions", map[string]interface{}{
				"user_id": user.ID,
				"path":    c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzSellerOnly, "seller account required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

func GetUser(c *gin.Context) (*model.User, bool) {
	user, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetClaims returns the access-token claims of the current request
func GetClaims(c *gin.Context) (*util.Claims, bool) {
	claims, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	cl, ok := claims.(*util.Claims)
	return cl, ok
}
