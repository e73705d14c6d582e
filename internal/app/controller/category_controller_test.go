package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryController(t *testing.T) {
	srv := setupTestServer(t)
	_, sellerToken := srv.createUser(t, "seller", true)
	_, buyerToken := srv.createUser(t, "buyer", false)

	w := srv.do(t, http.MethodPost, "/categories", buyerToken, gin.H{"name": "Rings"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPost, "/categories", sellerToken, gin.H{"name": "  Rings "})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	assert.Equal(t, "Rings", created["name"])
	id := uint(created["id"].(float64))

	w = srv.do(t, http.MethodPost, "/categories", sellerToken, gin.H{"name": "Rings"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CATEGORY_EXISTS", decodeBody(t, w)["error"])

	w = srv.do(t, http.MethodPost, "/categories", sellerToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/categories/%d", id), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = srv.do(t, http.MethodGet, "/categories/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	product := srv.createProduct(t, "Gold Ring", "100", 1, id)

	w = srv.do(t, http.MethodDelete, fmt.Sprintf("/categories/%d", id), sellerToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CATEGORY_IN_USE", decodeBody(t, w)["error"])

	require.NoError(t, srv.db.Delete(product).Error)

	w = srv.do(t, http.MethodDelete, fmt.Sprintf("/categories/%d", id), sellerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = srv.do(t, http.MethodDelete, fmt.Sprintf("/categories/%d", id), sellerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
