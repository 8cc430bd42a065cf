package handler

import (
	"github.com/gin-gonic/gin"
	reportapp "github.com/investorcrm/backend/internal/application/report"
)

// ReportHandler handles pipeline exports
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ExportPipeline godoc
// @Summary      Export the pipeline
// @Description  Renders the live pipeline grouped by stage and returns a time-limited download URL
// @Tags         reports
// @Produce      json
// @Param        format query string false "pdf (default) or html"
// @Success      200 {object} dto.Response{data=reportapp.ExportResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/pipeline [post]
func (h *ReportHandler) ExportPipeline(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	resp, err := h.reportService.ExportPipeline(c.Request.Context(), tenantID, userID, c.Query("format"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
