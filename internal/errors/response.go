package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable code, see codes.go
	Message string `json:"message"` // human-readable message
}

func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "login required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "access denied"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError carries per-field messages for binding failures.
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "invalid input",
		Fields:  fields,
	})
}

// ParseAndRespond parses a storage error and replies with the matching status.
func ParseAndRespond(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	RespondWithError(c, statusFor(info.Code), info.Code, info.Message)
}

func statusFor(code string) int {
	switch code {
	case ResourceNotFound, ProductNotFound, CategoryNotFound, UserNotFound:
		return http.StatusNotFound
	case ResourceAlreadyExists, ResourceConflict, CategoryInUse, CategoryExists,
		AuthUsernameAlreadyExists, AuthEmailAlreadyExists:
		return http.StatusConflict
	case ValidationRequired, ValidationInvalidInput:
		return http.StatusBadRequest
	case InternalExternalAPI:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
