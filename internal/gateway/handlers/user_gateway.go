package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	user "vanik-system/internal/services/user/handler"
)

type UserHTTPHandler struct {
	user *user.UserHandler
}

func NewUserHTTPHandler(handler *user.UserHandler) *UserHTTPHandler {
	return &UserHTTPHandler{user: handler}
}

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHTTPHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	resp, err := h.user.Login(c.Request.Context(), &user.LoginRequest{
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		message := "Authentication service error"
		if resp != nil && resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(statusForError(err), errorResponse(message))
		return
	}
	if !resp.Success {
		message := "invalid username or password"
		if resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(http.StatusUnauthorized, errorResponse(message))
		return
	}

	c.JSON(http.StatusOK, successResponse("Login successful", map[string]interface{}{
		"token":      resp.Token,
		"expires_at": resp.ExpiredAt,
		"user":       resp.User,
	}))
}

type registerBody struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	RoleID    int32  `json:"role_id" binding:"required"`
}

func (h *UserHTTPHandler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	actorID, roleID := actor(c)
	resp, err := h.user.Register(c.Request.Context(), &user.RegisterRequest{
		Username:    body.Username,
		Email:       body.Email,
		Password:    body.Password,
		Firstname:   body.Firstname,
		Lastname:    body.Lastname,
		RoleID:      body.RoleID,
		ActorID:     actorID,
		ActorRoleID: roleID,
	})
	if err != nil {
		message := "User service error"
		if resp != nil && resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(statusForError(err), errorResponse(message))
		return
	}
	if !resp.Success {
		message := "Registration failed"
		if resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(http.StatusBadRequest, errorResponse(message))
		return
	}

	c.JSON(http.StatusCreated, successResponse("User registered", map[string]interface{}{
		"token":      resp.Token,
		"expires_at": resp.ExpiredAt,
		"user":       resp.User,
	}))
}

type roleBody struct {
	RoleName    string `json:"role_name" binding:"required"`
	AccessLevel int32  `json:"access_level"`
	Permissions string `json:"permissions"`
}

func (h *UserHTTPHandler) CreateRole(c *gin.Context) {
	var body roleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	_, roleID := actor(c)
	resp, err := h.user.SaveRole(c.Request.Context(), &user.SaveRoleRequest{
		Role: user.RolePayload{
			RoleName:    body.RoleName,
			AccessLevel: body.AccessLevel,
			Permissions: body.Permissions,
		},
		ActorRoleID: roleID,
	})
	if err != nil {
		message := "User service error"
		if resp != nil && resp.Message != nil {
			message = *resp.Message
		}
		c.JSON(statusForError(err), errorResponse(message))
		return
	}
	c.JSON(http.StatusCreated, successResponse("Role created", resp.Role))
}

func (h *UserHTTPHandler) ListRoles(c *gin.Context) {
	_, roleID := actor(c)
	resp, err := h.user.ListRoles(c.Request.Context(), roleID)
	if err != nil {
		c.JSON(statusForError(err), errorResponse("User service error"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Roles retrieved", resp.Roles))
}
