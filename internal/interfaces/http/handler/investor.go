package handler

import (
	"github.com/gin-gonic/gin"
	investorapp "github.com/investorcrm/backend/internal/application/investor"
)

// InvestorHandler handles the investor pipeline
type InvestorHandler struct {
	BaseHandler
	investorService *investorapp.InvestorService
}

// NewInvestorHandler creates a new InvestorHandler
func NewInvestorHandler(investorService *investorapp.InvestorService) *InvestorHandler {
	return &InvestorHandler{investorService: investorService}
}

// Create godoc
// @Summary      Add an investor
// @Description  New investors enter the pipeline at the target stage
// @Tags         investors
// @Accept       json
// @Produce      json
// @Param        request body investorapp.CreateInvestorRequest true "Investor"
// @Success      201 {object} dto.Response{data=investorapp.InvestorResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /investors [post]
func (h *InvestorHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req investorapp.CreateInvestorRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.investorService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// GetByID godoc
// @Summary      Get an investor
// @Tags         investors
// @Produce      json
// @Param        id path string true "Investor ID" format(uuid)
// @Success      200 {object} dto.Response{data=investorapp.InvestorResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /investors/{id} [get]
func (h *InvestorHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	inv, err := h.investorService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// List godoc
// @Summary      List investors
// @Tags         investors
// @Produce      json
// @Param        stage         query string false "Pipeline stage"
// @Param        type          query string false "Investor type"
// @Param        priority      query string false "Priority"
// @Param        owner_id      query string false "Owner user ID" format(uuid)
// @Param        tag           query string false "Tag"
// @Param        search        query string false "Name or firm"
// @Param        follow_up_due query bool   false "Only investors whose follow-up is due"
// @Param        page          query int    false "Page number"
// @Param        page_size     query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]investorapp.InvestorResponse}
// @Security     BearerAuth
// @Router       /investors [get]
func (h *InvestorHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter investorapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.OwnerID, ok = h.queryUUID(c, "owner_id"); !ok {
		return
	}
	defaultPaging(&filter.Page, &filter.PageSize)

	items, total, err := h.investorService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListDeleted returns the investor trash
func (h *InvestorHandler) ListDeleted(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter investorapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	defaultPaging(&filter.Page, &filter.PageSize)

	items, total, err := h.investorService.ListDeleted(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Update godoc
// @Summary      Update an investor
// @Description  The request carries the version last read; a stale version is rejected with 409
// @Tags         investors
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Investor ID" format(uuid)
// @Param        request body investorapp.UpdateInvestorRequest true "Investor"
// @Success      200 {object} dto.Response{data=investorapp.InvestorResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /investors/{id} [put]
func (h *InvestorHandler) Update(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req investorapp.UpdateInvestorRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.investorService.Update(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// MoveStage godoc
// @Summary      Move an investor to another stage
// @Description  Only transitions allowed by the pipeline are accepted. Moving to committed requires a commitment amount.
// @Tags         investors
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Investor ID" format(uuid)
// @Param        request body investorapp.MoveStageRequest true "Target stage"
// @Success      200 {object} dto.Response{data=investorapp.InvestorResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /investors/{id}/stage [post]
func (h *InvestorHandler) MoveStage(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req investorapp.MoveStageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.investorService.MoveStage(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// BulkMoveStage godoc
// @Summary      Move several investors to one stage
// @Description  Each investor is moved independently; per-item failures are reported in the results
// @Tags         investors
// @Accept       json
// @Produce      json
// @Param        request body investorapp.BulkMoveStageRequest true "Investors and target stage"
// @Success      200 {object} dto.Response{data=investorapp.BulkMoveResponse}
// @Security     BearerAuth
// @Router       /investors/bulk/stage [post]
func (h *InvestorHandler) BulkMoveStage(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req investorapp.BulkMoveStageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.investorService.BulkMoveStage(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete godoc
// @Summary      Move an investor to the trash
// @Tags         investors
// @Param        id path string true "Investor ID" format(uuid)
// @Success      204
// @Security     BearerAuth
// @Router       /investors/{id} [delete]
func (h *InvestorHandler) Delete(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.investorService.Delete(c.Request.Context(), tenantID, userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Restore brings an investor back from the trash
func (h *InvestorHandler) Restore(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	inv, err := h.investorService.Restore(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Pipeline godoc
// @Summary      Pipeline summary
// @Description  Investor counts and committed totals per stage
// @Tags         investors
// @Produce      json
// @Success      200 {object} dto.Response{data=investorapp.PipelineSummaryResponse}
// @Security     BearerAuth
// @Router       /investors/pipeline [get]
func (h *InvestorHandler) Pipeline(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	summary, err := h.investorService.PipelineSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Timeline returns activities, meetings and tasks of an investor, newest first
func (h *InvestorHandler) Timeline(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	items, err := h.investorService.Timeline(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

func defaultPaging(page, pageSize *int) {
	if *page <= 0 {
		*page = 1
	}
	if *pageSize <= 0 {
		*pageSize = 20
	}
}
