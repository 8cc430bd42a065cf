package handler

import (
	"github.com/gin-gonic/gin"
	assistantapp "github.com/investorcrm/backend/internal/application/assistant"
	searchapp "github.com/investorcrm/backend/internal/application/search"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
)

// AssistantHandler handles the AI assistant and global search
type AssistantHandler struct {
	BaseHandler
	assistantService *assistantapp.AssistantService
	searchService    *searchapp.SearchService
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(assistantService *assistantapp.AssistantService, searchService *searchapp.SearchService) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
		searchService:    searchService,
	}
}

// Chat godoc
// @Summary      Talk to the assistant
// @Description  The assistant may call CRM tools on the caller's behalf. Tools the caller's role does not allow are refused.
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        request body assistantapp.ChatRequest true "User turn"
// @Success      200 {object} dto.Response{data=assistantapp.ChatResponse}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /assistant/chat [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req assistantapp.ChatRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.assistantService.Chat(c.Request.Context(), tenantID, userID, middleware.GetRole(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListConversations lists the caller's conversations, most recent first
func (h *AssistantHandler) ListConversations(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var filter assistantapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	defaultPaging(&filter.Page, &filter.PageSize)

	items, total, err := h.assistantService.ListConversations(c.Request.Context(), tenantID, userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetConversation returns one of the caller's conversations with its messages
func (h *AssistantHandler) GetConversation(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	conv, err := h.assistantService.GetConversation(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, conv)
}

// Search godoc
// @Summary      Search investors and contacts
// @Tags         search
// @Produce      json
// @Param        q     query string true  "Query"
// @Param        types query string false "Comma separated: investor, contact"
// @Param        limit query int    false "Maximum hits"
// @Success      200 {object} dto.Response{data=searchapp.SearchResponse}
// @Security     BearerAuth
// @Router       /search [get]
func (h *AssistantHandler) Search(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req searchapp.SearchRequest
	if !h.bindQuery(c, &req) {
		return
	}

	resp, err := h.searchService.Search(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
