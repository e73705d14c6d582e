package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{categoryService: categoryService}
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=150"`
}

// ListCategories GET /categories
func (ctrl *CategoryController) ListCategories(c *gin.Context) {
	categories, err := ctrl.categoryService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "list categories", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategory GET /categories/:id
func (ctrl *CategoryController) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := ctrl.categoryService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get category", map[string]interface{}{
			"category_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, category)
}

// CreateCategory POST /categories
func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "category name is required")
		return
	}

	category, err := ctrl.categoryService.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err, "create category", map[string]interface{}{
			"name": req.Name,
		})
		return
	}

	c.JSON(http.StatusCreated, category)
}

// DeleteCategory DELETE /categories/:id, refused while products reference it
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.categoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete category", map[string]interface{}{
			"category_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category deleted successfully",
	})
}
