package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController_Register(t *testing.T) {
	srv := setupTestServer(t)

	w := srv.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	user := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, w.Body.String(), "password")

	w = srv.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AUTH_USERNAME_EXISTS", decodeBody(t, w)["error"])

	w = srv.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "bob",
		"email":    "not-an-email",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthController_Login(t *testing.T) {
	srv := setupTestServer(t)
	srv.createUser(t, "alice", false)

	w := srv.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, "Bearer", body["token_type"])

	access := findCookie(w, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.Equal(t, body["access_token"], access.Value)
	assert.True(t, access.HttpOnly)
	refresh := findCookie(w, middleware.RefreshTokenCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, body["refresh_token"], refresh.Value)
}

func TestAuthController_Login_FailuresLookTheSame(t *testing.T) {
	srv := setupTestServer(t)
	srv.createUser(t, "alice", false)

	wrongPassword := srv.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrong-password",
	})
	unknownUser := srv.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"username": "nobody",
		"password": "password123",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestAuthController_Token_Rotation(t *testing.T) {
	srv := setupTestServer(t)
	srv.createUser(t, "alice", false)

	w := srv.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "alice", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	oldRefresh := decodeBody(t, w)["refresh_token"].(string)

	w = srv.do(t, http.MethodPost, "/auth/token?refresh_token="+oldRefresh, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	newRefresh := decodeBody(t, w)["refresh_token"].(string)
	assert.NotEqual(t, oldRefresh, newRefresh)
	assert.NotNil(t, findCookie(w, middleware.AccessTokenCookie))

	// single use
	w = srv.do(t, http.MethodPost, "/auth/token?refresh_token="+oldRefresh, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid refresh token", decodeBody(t, w)["message"])

	// cookie fallback
	req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: newRefresh})
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodPost, "/auth/token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_LogoutAndMe(t *testing.T) {
	srv := setupTestServer(t)
	user, token := srv.createUser(t, "alice", true)

	w := srv.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, float64(user.ID), me["id"])
	assert.Equal(t, true, me["is_seller"])

	w = srv.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := findCookie(w, middleware.AccessTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0)

	w = srv.do(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
