package handler

import (
	"github.com/gin-gonic/gin"
	preferencesapp "github.com/investorcrm/backend/internal/application/preferences"
)

// PreferencesHandler handles saved filters and per-user settings
type PreferencesHandler struct {
	BaseHandler
	preferencesService *preferencesapp.PreferencesService
}

// NewPreferencesHandler creates a new PreferencesHandler
func NewPreferencesHandler(preferencesService *preferencesapp.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferencesService: preferencesService}
}

// CreateFilter godoc
// @Summary      Save a filter
// @Description  Filter names are unique per user and entity. is_default replaces any previous default.
// @Tags         filters
// @Accept       json
// @Produce      json
// @Param        request body preferencesapp.CreateFilterRequest true "Filter"
// @Success      201 {object} dto.Response{data=preferencesapp.FilterResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /filters [post]
func (h *PreferencesHandler) CreateFilter(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req preferencesapp.CreateFilterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	f, err := h.preferencesService.CreateFilter(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, f)
}

// ListFilters godoc
// @Summary      List saved filters
// @Description  The caller's filters plus filters shared by teammates. deleted=true lists the caller's trash.
// @Tags         filters
// @Produce      json
// @Param        entity  query string false "investor, contact, task, meeting"
// @Param        deleted query bool   false "List the trash instead"
// @Success      200 {object} dto.Response{data=[]preferencesapp.FilterResponse}
// @Security     BearerAuth
// @Router       /filters [get]
func (h *PreferencesHandler) ListFilters(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	var (
		items []preferencesapp.FilterResponse
		err   error
	)
	if c.Query("deleted") == "true" {
		items, err = h.preferencesService.ListDeletedFilters(c.Request.Context(), tenantID, userID)
	} else {
		items, err = h.preferencesService.ListForUser(c.Request.Context(), tenantID, userID, c.Query("entity"))
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

func (h *PreferencesHandler) GetFilter(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	f, err := h.preferencesService.GetFilter(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

func (h *PreferencesHandler) UpdateFilter(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req preferencesapp.UpdateFilterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	f, err := h.preferencesService.UpdateFilter(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// SetDefaultFilter makes a filter the caller's default for its entity
func (h *PreferencesHandler) SetDefaultFilter(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	f, err := h.preferencesService.SetDefault(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

func (h *PreferencesHandler) DeleteFilter(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.preferencesService.DeleteFilter(c.Request.Context(), tenantID, userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *PreferencesHandler) RestoreFilter(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	f, err := h.preferencesService.RestoreFilter(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// GetPreferences returns the caller's settings, or the defaults when none were saved
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	prefs, err := h.preferencesService.GetPreferences(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prefs)
}

// UpdatePreferences godoc
// @Summary      Update preferences
// @Description  Send version 0 when the preferences were never saved
// @Tags         preferences
// @Accept       json
// @Produce      json
// @Param        request body preferencesapp.UpdatePreferencesRequest true "Preferences"
// @Success      200 {object} dto.Response{data=preferencesapp.PreferencesResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /preferences [put]
func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req preferencesapp.UpdatePreferencesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	prefs, err := h.preferencesService.UpdatePreferences(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prefs)
}
