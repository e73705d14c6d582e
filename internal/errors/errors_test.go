package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
	}{
		{"nil", nil, "", InternalServerError},
		{"record not found", fmt.Errorf("wrap: %w", gorm.ErrRecordNotFound), "get product", ResourceNotFound},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, "register", ResourceAlreadyExists},
		{"postgres username", fmt.Errorf(`ERROR: duplicate key value violates unique constraint "idx_users_username" (SQLSTATE 23505)`), "register", AuthUsernameAlreadyExists},
		{"mysql email", fmt.Errorf(`Error 1062: Duplicate entry 'a@b.c' for key 'users.idx_users_email'`), "register", AuthEmailAlreadyExists},
		{"sqlite category", fmt.Errorf("UNIQUE constraint failed: categories.name"), "create category", CategoryExists},
		{"fk still referenced", fmt.Errorf(`update or delete on table "categories" violates foreign key constraint "fk_products_category" on table "products": Key (id)=(1) is still referenced`), "delete category", CategoryInUse},
		{"fk category missing", fmt.Errorf(`insert violates foreign key constraint: Key (category_id)=(9) is not present`), "create product", CategoryNotFound},
		{"not null", fmt.Errorf(`null value in column "name" violates not-null constraint`), "create", ValidationRequired},
		{"timeout", fmt.Errorf("dial tcp: i/o timeout"), "", InternalExternalAPI},
		{"other", fmt.Errorf("boom"), "update product", InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_NotFoundMessage(t *testing.T) {
	assert.Equal(t, "cart item not found", ParseError(gorm.ErrRecordNotFound, "cart item").Message)
	assert.Equal(t, "product not found", ParseError(gorm.ErrRecordNotFound, "get product").Message)
}

func TestResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		respond    func(c *gin.Context)
		wantStatus int
		wantCode   string
	}{
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, AuthUnauthorized},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "") }, http.StatusForbidden, AuthzForbidden},
		{"not found", func(c *gin.Context) { NotFound(c, CartNotFound, "cart not found") }, http.StatusNotFound, CartNotFound},
		{"conflict", func(c *gin.Context) { Conflict(c, CategoryInUse, "in use") }, http.StatusConflict, CategoryInUse},
		{"internal", func(c *gin.Context) { InternalError(c, "") }, http.StatusInternalServerError, InternalServerError},
		{"parse and respond", func(c *gin.Context) { ParseAndRespond(c, gorm.ErrRecordNotFound, "user") }, http.StatusNotFound, ResourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.respond(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestRespondWithValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithValidationError(c, map[string]string{"quantity": "must be at least 1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ValidationInvalidInput, body.Error)
	assert.Equal(t, "must be at least 1", body.Fields["quantity"])
}
