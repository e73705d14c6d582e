package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
)

type CommentController struct {
	commentService service.CommentService
}

func NewCommentController(commentService service.CommentService) *CommentController {
	return &CommentController{commentService: commentService}
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// ListComments GET /products/:id/comments?limit=&offset=
func (ctrl *CommentController) ListComments(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	page, err := ctrl.commentService.ListComments(c.Request.Context(), productID, limit, offset)
	if err != nil {
		respondError(c, err, "list comments", map[string]interface{}{
			"product_id": productID,
		})
		return
	}

	c.JSON(http.StatusOK, page)
}

// CreateComment POST /products/:id/comments
func (ctrl *CommentController) CreateComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.CommentEmpty, service.ErrEmptyComment.Error())
		return
	}

	comment, err := ctrl.commentService.AddComment(c.Request.Context(), userID, productID, req.Text)
	if err != nil {
		respondError(c, err, "add comment", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return
	}

	c.JSON(http.StatusCreated, comment)
}
