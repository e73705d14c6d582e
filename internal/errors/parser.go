package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code plus a client-facing message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns a storage error into something safe to show a client.
// Driver details stay in the logs; only the constraint kind leaks through.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "internal server error",
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(err.Error())
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return parseForeignKeyError(err.Error(), context)
	}

	errLower := strings.ToLower(err.Error())

	// postgres 23505, mysql 1062, sqlite "UNIQUE constraint failed"
	if strings.Contains(errLower, "duplicate key") ||
		strings.Contains(errLower, "duplicate entry") ||
		strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	// postgres 23503, mysql 1451/1452, sqlite "FOREIGN KEY constraint failed"
	if strings.Contains(errLower, "foreign key constraint") {
		return parseForeignKeyError(errLower, context)
	}

	if strings.Contains(errLower, "violates not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "a required field is missing"}
	}

	if strings.Contains(errLower, "check constraint") {
		return ErrorInfo{Code: ValidationInvalidInput, Message: "invalid input"}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "a backing service is unavailable, please retry later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "username"):
		return ErrorInfo{Code: AuthUsernameAlreadyExists, Message: "username already exists"}
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "email already exists"}
	case strings.Contains(errLower, "categories"):
		return ErrorInfo{Code: CategoryExists, Message: "category already exists"}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "resource already exists",
	}
}

func parseForeignKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	// delete blocked by referencing rows
	if strings.Contains(errLower, "still referenced") || strings.Contains(errLower, "cannot delete") {
		if strings.Contains(strings.ToLower(context), "category") {
			return ErrorInfo{Code: CategoryInUse, Message: "category still has products"}
		}
		return ErrorInfo{Code: ResourceConflict, Message: "resource is still referenced"}
	}

	switch {
	case strings.Contains(errLower, "category_id"):
		return ErrorInfo{Code: CategoryNotFound, Message: "category not found"}
	case strings.Contains(errLower, "product_id"):
		return ErrorInfo{Code: ProductNotFound, Message: "product not found"}
	case strings.Contains(errLower, "user_id"):
		return ErrorInfo{Code: UserNotFound, Message: "user not found"}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "referenced resource not found",
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "cart item"):
		return "cart item not found"
	case strings.Contains(contextLower, "cart"):
		return "cart not found"
	case strings.Contains(contextLower, "product"):
		return "product not found"
	case strings.Contains(contextLower, "category"):
		return "category not found"
	case strings.Contains(contextLower, "user"):
		return "user not found"
	case strings.Contains(contextLower, "comment"):
		return "comment not found"
	}
	return "resource not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "failed to create, please retry later"
	case strings.Contains(contextLower, "update"):
		return "failed to update, please retry later"
	case strings.Contains(contextLower, "delete"):
		return "failed to delete, please retry later"
	}
	return "internal server error"
}
