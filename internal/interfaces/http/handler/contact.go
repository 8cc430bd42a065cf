package handler

import (
	"github.com/gin-gonic/gin"
	contactapp "github.com/investorcrm/backend/internal/application/contact"
)

// ContactHandler handles people at investor firms
type ContactHandler struct {
	BaseHandler
	contactService *contactapp.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService *contactapp.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Create godoc
// @Summary      Create a contact
// @Description  A contact needs a name or an email. Emails are unique per workspace.
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Param        request body contactapp.CreateContactRequest true "Contact"
// @Success      201 {object} dto.Response{data=contactapp.ContactResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req contactapp.CreateContactRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.contactService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, contact)
}

// GetByID returns a contact
func (h *ContactHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	contact, err := h.contactService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

// List godoc
// @Summary      List contacts
// @Tags         contacts
// @Produce      json
// @Param        investor_id query string false "Investor ID" format(uuid)
// @Param        is_primary  query bool   false "Only primary contacts"
// @Param        search      query string false "Name, email or title"
// @Param        deleted     query bool   false "List the trash instead"
// @Success      200 {object} dto.Response{data=[]contactapp.ContactResponse}
// @Security     BearerAuth
// @Router       /contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter contactapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.InvestorID, ok = h.queryUUID(c, "investor_id"); !ok {
		return
	}
	defaultPaging(&filter.Page, &filter.PageSize)

	items, total, err := h.contactService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListByInvestor returns every contact of one investor, primary first
func (h *ContactHandler) ListByInvestor(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	investorID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	items, err := h.contactService.ListByInvestor(c.Request.Context(), tenantID, investorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Update replaces the editable fields of a contact
func (h *ContactHandler) Update(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req contactapp.UpdateContactRequest
	if !h.bindJSON(c, &req) {
		return
	}

	contact, err := h.contactService.Update(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

// SetPrimary godoc
// @Summary      Make a contact the primary one of its investor
// @Description  Any previous primary contact of the same investor is demoted
// @Tags         contacts
// @Produce      json
// @Param        id path string true "Contact ID" format(uuid)
// @Success      200 {object} dto.Response{data=contactapp.ContactResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /contacts/{id}/primary [post]
func (h *ContactHandler) SetPrimary(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	contact, err := h.contactService.SetPrimary(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

// Delete moves a contact to the trash
func (h *ContactHandler) Delete(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.contactService.Delete(c.Request.Context(), tenantID, userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Restore brings a contact back from the trash
func (h *ContactHandler) Restore(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	contact, err := h.contactService.Restore(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}
