package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to their own messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized          = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials    = "AUTH_INVALID_CREDENTIALS" // wrong username or password
	AuthTokenExpired          = "AUTH_TOKEN_EXPIRED"       // refresh token expired
	AuthTokenInvalid          = "AUTH_TOKEN_INVALID"       // unknown or malformed token
	AuthTokenRevoked          = "AUTH_TOKEN_REVOKED"       // access token revoked on logout
	AuthUsernameAlreadyExists = "AUTH_USERNAME_EXISTS"
	AuthEmailAlreadyExists    = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden  = "AUTHZ_FORBIDDEN"
	AuthzSellerOnly = "AUTHZ_SELLER_ONLY"
	AuthzOwnerOnly  = "AUTHZ_OWNER_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (PRODUCT_, CATEGORY_) ====================
	ProductNotFound  = "PRODUCT_NOT_FOUND"
	CategoryNotFound = "CATEGORY_NOT_FOUND"
	CategoryInUse    = "CATEGORY_IN_USE"
	CategoryExists   = "CATEGORY_EXISTS"

	// ==================== Cart (CART_) ====================
	CartNotFound          = "CART_NOT_FOUND"
	CartItemNotFound      = "CART_ITEM_NOT_FOUND"
	CartInsufficientStock = "CART_INSUFFICIENT_STOCK"

	// ==================== Users/comments ====================
	UserNotFound = "USER_NOT_FOUND"
	CommentEmpty = "COMMENT_EMPTY"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
