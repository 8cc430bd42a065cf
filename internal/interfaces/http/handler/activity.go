package handler

import (
	"github.com/gin-gonic/gin"
	activityapp "github.com/investorcrm/backend/internal/application/activity"
)

// ActivityHandler handles the interaction log
type ActivityHandler struct {
	BaseHandler
	activityService *activityapp.ActivityService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activityService *activityapp.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// Log godoc
// @Summary      Log an interaction
// @Description  Records a manual note, call, email, meeting or intro against an investor and bumps its last contact time
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        request body activityapp.LogActivityRequest true "Activity"
// @Success      201 {object} dto.Response{data=activityapp.ActivityResponse}
// @Security     BearerAuth
// @Router       /activities [post]
func (h *ActivityHandler) Log(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req activityapp.LogActivityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	a, err := h.activityService.Log(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

func (h *ActivityHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	a, err := h.activityService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// List godoc
// @Summary      List activities
// @Tags         activities
// @Produce      json
// @Param        investor_id query string false "Investor ID" format(uuid)
// @Param        contact_id  query string false "Contact ID" format(uuid)
// @Param        type        query string false "Activity type"
// @Param        source      query string false "manual, gmail, calendar, whatsapp, system"
// @Param        from        query string false "RFC 3339 lower bound"
// @Param        to          query string false "RFC 3339 upper bound"
// @Success      200 {object} dto.Response{data=[]activityapp.ActivityResponse}
// @Security     BearerAuth
// @Router       /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter activityapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.InvestorID, ok = h.queryUUID(c, "investor_id"); !ok {
		return
	}
	if filter.ContactID, ok = h.queryUUID(c, "contact_id"); !ok {
		return
	}
	defaultPaging(&filter.Page, &filter.PageSize)

	items, total, err := h.activityService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

func (h *ActivityHandler) Update(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req activityapp.UpdateActivityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	a, err := h.activityService.Update(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.activityService.Delete(c.Request.Context(), tenantID, userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *ActivityHandler) Restore(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	a, err := h.activityService.Restore(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}
