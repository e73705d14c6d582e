package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/storage"
)

// serviceErrors maps service sentinels to a status and error code.
var serviceErrors = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrCartNotFound, http.StatusNotFound, apperrors.CartNotFound},
	{service.ErrCartItemNotFound, http.StatusNotFound, apperrors.CartItemNotFound},
	{service.ErrProductNotFound, http.StatusNotFound, apperrors.ProductNotFound},
	{service.ErrCategoryNotFound, http.StatusNotFound, apperrors.CategoryNotFound},
	{service.ErrUserNotFound, http.StatusNotFound, apperrors.UserNotFound},
	{service.ErrInsufficientStock, http.StatusBadRequest, apperrors.CartInsufficientStock},
	{service.ErrInvalidQuantity, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrInvalidPrice, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrInvalidStock, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrEmptyComment, http.StatusBadRequest, apperrors.CommentEmpty},
	{service.ErrEmptyName, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrCategoryInUse, http.StatusConflict, apperrors.CategoryInUse},
	{service.ErrCategoryExists, http.StatusConflict, apperrors.CategoryExists},
	{service.ErrUsernameAlreadyExists, http.StatusConflict, apperrors.AuthUsernameAlreadyExists},
	{service.ErrEmailAlreadyExists, http.StatusConflict, apperrors.AuthEmailAlreadyExists},
	{service.ErrForbidden, http.StatusForbidden, apperrors.AuthzOwnerOnly},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials},
	{service.ErrRefreshTokenExpired, http.StatusUnauthorized, apperrors.AuthTokenExpired},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid},
	{service.ErrUnauthorized, http.StatusUnauthorized, apperrors.AuthUnauthorized},
	{storage.ErrUnsupportedContentType, http.StatusBadRequest, apperrors.UploadInvalidFileType},
	{storage.ErrFileTooLarge, http.StatusBadRequest, apperrors.UploadFileTooLarge},
}

// respondError writes the reply for err. Known service errors keep their
// message; anything else is logged and parsed into a safe message.
func respondError(c *gin.Context, err error, action string, fields map[string]interface{}) {
	log := middleware.GetLoggerFromContext(c)

	for _, known := range serviceErrors {
		if errors.Is(err, known.err) {
			if fields == nil {
				fields = map[string]interface{}{}
			}
			fields["reason"] = err.Error()
			log.Warn(action+" rejected", fields)
			apperrors.RespondWithError(c, known.status, known.code, err.Error())
			return
		}
	}

	log.Error("Failed to "+action, err, fields)
	apperrors.ParseAndRespond(c, err, action)
}

// currentUserID aborts with 401 when the request carries no user.
func currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryUint reads a required positive integer query parameter.
func queryUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		apperrors.RespondWithValidationError(c, map[string]string{name: "must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		apperrors.RespondWithValidationError(c, map[string]string{name: "must be an integer"})
		return 0, false
	}
	return n, true
}
