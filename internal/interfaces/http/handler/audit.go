package handler

import (
	"github.com/gin-gonic/gin"
	auditapp "github.com/investorcrm/backend/internal/application/audit"
	"github.com/investorcrm/backend/internal/interfaces/http/dto"
)

// AuditHandler exposes the workspace audit log
type AuditHandler struct {
	BaseHandler
	auditService *auditapp.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService *auditapp.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List godoc
// @Summary      Search the audit log
// @Tags         audit
// @Produce      json
// @Param        entity_type query string false "investor, contact, task, ..."
// @Param        entity_id   query string false "Entity" format(uuid)
// @Param        actor_id    query string false "User who acted" format(uuid)
// @Param        action      query string false "create, update, delete, ..."
// @Param        from        query string false "RFC 3339 lower bound"
// @Param        to          query string false "RFC 3339 upper bound"
// @Success      200 {object} dto.Response{data=[]auditapp.EntryResponse}
// @Security     BearerAuth
// @Router       /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter auditapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.EntityID, ok = h.queryUUID(c, "entity_id"); !ok {
		return
	}
	if filter.ActorID, ok = h.queryUUID(c, "actor_id"); !ok {
		return
	}
	defaultPaging(&filter.Page, &filter.PageSize)

	items, total, err := h.auditService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListForEntity returns the history of one record, newest first
func (h *AuditHandler) ListForEntity(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	entityID, ok := h.pathID(c, "entity_id")
	if !ok {
		return
	}
	var page dto.ListRequest
	if !h.bindQuery(c, &page) {
		return
	}
	page.Normalize()

	items, total, err := h.auditService.ListForEntity(c.Request.Context(), tenantID, c.Param("entity_type"), entityID, page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, page.Page, page.PageSize)
}
