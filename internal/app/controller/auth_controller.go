package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/util"
)

type AuthController struct {
	authService service.AuthService
	cookies     config.CookieConfig
}

func NewAuthController(authService service.AuthService, cookies config.CookieConfig) *AuthController {
	return &AuthController{
		authService: authService,
		cookies:     cookies,
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6,max=72"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsSeller  bool   `json:"is_seller"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles user registration
// POST /auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid registration data")
		return
	}

	user, err := ctrl.authService.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsSeller:  req.IsSeller,
	})
	if err != nil {
		respondError(c, err, "register user", map[string]interface{}{
			"username": req.Username,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login handles user login
// POST /auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "username and password are required")
		return
	}

	_, tokens, err := ctrl.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err, "login", map[string]interface{}{
			"username": req.Username,
		})
		return
	}

	ctrl.setTokenCookies(c, tokens)
	c.JSON(http.StatusOK, tokens)
}

// Token exchanges a refresh token for a new token pair
// POST /auth/token?refresh_token=
func (ctrl *AuthController) Token(c *gin.Context) {
	refreshToken := c.Query("refresh_token")
	if refreshToken == "" {
		refreshToken, _ = c.Cookie(middleware.RefreshTokenCookie)
	}
	if refreshToken == "" {
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, service.ErrInvalidRefreshToken.Error())
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		respondError(c, err, "refresh token", nil)
		return
	}

	ctrl.setTokenCookies(c, tokens)
	c.JSON(http.StatusOK, tokens)
}

// Logout drops the refresh token and clears both cookies
// POST /auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	claims, _ := middleware.GetClaims(c)

	if err := ctrl.authService.Logout(c.Request.Context(), userID, claims); err != nil {
		respondError(c, err, "logout", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	ctrl.clearTokenCookies(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetMe returns the authenticated user
// GET /auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

func (ctrl *AuthController) setTokenCookies(c *gin.Context, tokens *util.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken, maxAge(tokens.AccessTokenExpiresAt),
		"/", ctrl.cookies.Domain, ctrl.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, tokens.RefreshToken, maxAge(tokens.RefreshTokenExpiresAt),
		"/", ctrl.cookies.Domain, ctrl.cookies.Secure, true)
}

func (ctrl *AuthController) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", ctrl.cookies.Domain, ctrl.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", ctrl.cookies.Domain, ctrl.cookies.Secure, true)
}

func maxAge(expiresAt time.Time) int {
	seconds := int(time.Until(expiresAt).Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}
