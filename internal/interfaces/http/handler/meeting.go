package handler

import (
	"github.com/gin-gonic/gin"
	meetingapp "github.com/investorcrm/backend/internal/application/meeting"
)

// MeetingHandler handles investor meetings and their transcripts
type MeetingHandler struct {
	BaseHandler
	meetingService *meetingapp.MeetingService
}

// NewMeetingHandler creates a new MeetingHandler
func NewMeetingHandler(meetingService *meetingapp.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetingService: meetingService}
}

// Create godoc
// @Summary      Schedule a meeting
// @Description  With add_to_calendar the meeting is also pushed to the organiser's Google Calendar
// @Tags         meetings
// @Accept       json
// @Produce      json
// @Param        request body meetingapp.CreateMeetingRequest true "Meeting"
// @Success      201 {object} dto.Response{data=meetingapp.MeetingResponse}
// @Security     BearerAuth
// @Router       /meetings [post]
func (h *MeetingHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req meetingapp.CreateMeetingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.meetingService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, m)
}

func (h *MeetingHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	m, err := h.meetingService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

func (h *MeetingHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter meetingapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.InvestorID, ok = h.queryUUID(c, "investor_id"); !ok {
		return
	}
	defaultPaging(&filter.Page, &filter.PageSize)

	items, total, err := h.meetingService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

func (h *MeetingHandler) Update(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req meetingapp.UpdateMeetingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.meetingService.Update(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Complete marks a scheduled meeting as held
func (h *MeetingHandler) Complete(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req meetingapp.TransitionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.meetingService.Complete(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// Cancel cancels a scheduled meeting
func (h *MeetingHandler) Cancel(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req meetingapp.TransitionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.meetingService.Cancel(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

func (h *MeetingHandler) Delete(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.meetingService.Delete(c.Request.Context(), tenantID, userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *MeetingHandler) Restore(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	m, err := h.meetingService.Restore(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// TranscriptUploadURL godoc
// @Summary      Presigned transcript upload
// @Description  Returns a short-lived PUT URL; attach the uploaded key with POST /meetings/{id}/transcript
// @Tags         meetings
// @Produce      json
// @Param        id path string true "Meeting ID" format(uuid)
// @Success      200 {object} dto.Response{data=meetingapp.UploadURLResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /meetings/{id}/transcript-upload-url [get]
func (h *MeetingHandler) TranscriptUploadURL(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	upload, err := h.meetingService.TranscriptUploadURL(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, upload)
}

// AttachTranscript stores raw transcript text or links an uploaded object
func (h *MeetingHandler) AttachTranscript(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req meetingapp.AttachTranscriptRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.meetingService.AttachTranscript(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// AnalyzeTranscript godoc
// @Summary      Analyze a meeting transcript
// @Description  Summarizes the transcript with the LLM and optionally turns action items into tasks
// @Tags         meetings
// @Accept       json
// @Produce      json
// @Param        id      path string                              true  "Meeting ID" format(uuid)
// @Param        request body meetingapp.AnalyzeTranscriptRequest false "Options"
// @Success      200 {object} dto.Response{data=meetingapp.AnalysisResponse}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /meetings/{id}/analyze [post]
func (h *MeetingHandler) AnalyzeTranscript(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req meetingapp.AnalyzeTranscriptRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.meetingService.AnalyzeTranscript(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
