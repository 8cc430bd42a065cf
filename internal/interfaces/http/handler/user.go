package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/investorcrm/backend/internal/application/identity"
	domainIdentity "github.com/investorcrm/backend/internal/domain/identity"
)

// UserHandler handles team management for a workspace
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identityapp.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// InviteUserRequest adds a teammate with a one-time password
type InviteUserRequest struct {
	Email       string `json:"email" binding:"required,email,max=255" example:"partner@acme.io"`
	DisplayName string `json:"display_name" binding:"omitempty,max=200"`
	Role        string `json:"role" binding:"required,oneof=admin member viewer" example:"member"`
}

// UpdateRoleRequest changes a teammate's role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=owner admin member viewer"`
}

// ListUsersQuery filters the team list
type ListUsersQuery struct {
	Keyword  string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=pending active locked deactivated"`
	Role     string `form:"role" binding:"omitempty,oneof=owner admin member viewer"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Invite godoc
// @Summary      Invite a teammate
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body InviteUserRequest true "Invitation"
// @Success      201 {object} dto.Response{data=identityapp.InviteResult}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Invite(c *gin.Context) {
	tenantID, actorID, ok := h.caller(c)
	if !ok {
		return
	}
	var req InviteUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.userService.Invite(c.Request.Context(), tenantID, actorID, identityapp.InviteUserInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        domainIdentity.Role(req.Role),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List godoc
// @Summary      List teammates
// @Tags         users
// @Produce      json
// @Param        search query string false "Email or name"
// @Param        status query string false "Status filter"
// @Param        role   query string false "Role filter"
// @Success      200 {object} dto.Response{data=[]identityapp.UserResponse}
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var q ListUsersQuery
	if !h.bindQuery(c, &q) {
		return
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}

	users, total, err := h.userService.List(c.Request.Context(), tenantID, identityapp.ListUsersInput{
		Keyword:  q.Keyword,
		Status:   q.Status,
		Role:     q.Role,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, users, total, q.Page, q.PageSize)
}

// GetByID returns a single teammate
func (h *UserHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// UpdateRole godoc
// @Summary      Change a teammate's role
// @Description  The last active owner cannot be demoted
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path string            true "User ID" format(uuid)
// @Param        request body UpdateRoleRequest true "New role"
// @Success      200 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	tenantID, actorID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), tenantID, actorID, id, domainIdentity.Role(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Deactivate godoc
// @Summary      Deactivate a teammate
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.UserResponse}
// @Security     BearerAuth
// @Router       /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	tenantID, actorID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Deactivate(c.Request.Context(), tenantID, actorID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
