package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// UserHandler handles user administration requests.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// CreateUser creates a user on someone's behalf
// @Summary     Create a user
// @Description Create a user account. Requires manager or admin; only admins may assign a role other than user.
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CreateUserInput true "User details"
// @Success     201 {object} UserEnvelope "User created"
// @Failure     400 {object} ErrorResponse "Invalid input or weak password"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Router      /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CreateUserInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), p, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		ActorID:      p.SubjectID,
		Action:       services.AuditActionCreateUser,
		ResourceType: "user",
		ResourceID:   user.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]any{"email": user.Email, "role": user.Role},
	})

	c.JSON(http.StatusCreated, UserEnvelope{User: user})
}

// ListUsers lists all users
// @Summary     List users
// @Description List user accounts. Requires manager or admin.
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page (max 100)"
// @Success     200 {object} pagination.PageResponse[models.User]
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := bindQuery(c, &page); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.userService.ListUsers(c.Request.Context(), p, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser returns a single user
// @Summary     Get user by ID
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} UserEnvelope
// @Failure     400 {object} ErrorResponse "Invalid user ID"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), p, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserEnvelope{User: user})
}

// UpdateUser patches a user
// @Summary     Update user
// @Description Update a user. Changing the role requires admin; a new password is strength-checked.
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                    true "User ID"
// @Param       request body services.UpdateUserInput true "Fields to change"
// @Success     200 {object} UserEnvelope
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Router      /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.UpdateUserInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), p, id, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if req.Role != nil {
		h.auditService.Log(c.Request.Context(), services.AuditEntry{
			ActorID:      p.SubjectID,
			Action:       services.AuditActionChangeRole,
			ResourceType: "user",
			ResourceID:   user.ID,
			IPAddress:    c.ClientIP(),
			Changes:      map[string]any{"role": user.Role},
		})
	}
	if req.Password != nil {
		h.auditService.Log(c.Request.Context(), services.AuditEntry{
			ActorID:      p.SubjectID,
			Action:       services.AuditActionChangePassword,
			ResourceType: "user",
			ResourceID:   user.ID,
			IPAddress:    c.ClientIP(),
		})
	}

	c.JSON(http.StatusOK, UserEnvelope{User: user})
}

// DeleteUser deletes a user and everything they own
// @Summary     Delete user
// @Description Delete a user account. Users cannot delete themselves.
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} MessageResponse
// @Failure     400 {object} ErrorResponse "Invalid user ID or self-deletion"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), p, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		ActorID:      p.SubjectID,
		Action:       services.AuditActionDeleteUser,
		ResourceType: "user",
		ResourceID:   id,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}
