package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

type UpdateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ListUsers GET /users?limit=&offset=
func (ctrl *UserController) ListUsers(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	page, err := ctrl.userService.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err, "list users", nil)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetUser GET /users/:id
func (ctrl *UserController) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get user", map[string]interface{}{
			"user_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser PATCH /users/:id, only for the user themselves
func (ctrl *UserController) UpdateUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update user request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid profile data")
		return
	}

	user, err := ctrl.userService.UpdateProfile(c.Request.Context(), actorID, id, service.UpdateUserInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, err, "update user", map[string]interface{}{
			"actor_id": actorID,
			"user_id":  id,
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser DELETE /users/:id, only for the user themselves
func (ctrl *UserController) DeleteUser(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.userService.DeleteUser(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err, "delete user", map[string]interface{}{
			"actor_id": actorID,
			"user_id":  id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}
