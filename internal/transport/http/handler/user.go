package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pipeline-expert/internal/app"
	"pipeline-expert/internal/model"
	"pipeline-expert/internal/transport/http/response"
)

type UserHandler struct {
	userService *app.UserService
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

// LoginResponse carries only the identity fields a client needs after
// authenticating.
type LoginResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

func NewUserHandler(userService *app.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.userService.Login(app.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingCredentials):
			response.Error(c, http.StatusBadRequest, "Username and password are required")
		case errors.Is(err, app.ErrInvalidCredential):
			response.Error(c, http.StatusUnauthorized, "Invalid username or password")
		default:
			response.Error(c, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	})
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "List users failed")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Username, display name and password are required")
		return
	}

	user, err := h.userService.Create(app.CreateUserInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "Username, display name and password are required")
		case errors.Is(err, app.ErrUsernameExists):
			response.Error(c, http.StatusBadRequest, "Username already exists")
		default:
			response.Error(c, http.StatusInternalServerError, "Create user failed")
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Param("id")); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "User id is required")
		default:
			response.Error(c, http.StatusInternalServerError, "Delete user failed")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
