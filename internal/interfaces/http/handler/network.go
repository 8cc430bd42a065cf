package handler

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	networkapp "github.com/investorcrm/backend/internal/application/network"
	domainIdentity "github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
)

// importFormField is the multipart field holding the connections CSV
const importFormField = "file"

// NetworkHandler handles LinkedIn network imports and warm-intro paths
type NetworkHandler struct {
	BaseHandler
	networkService *networkapp.NetworkService
}

// NewNetworkHandler creates a new NetworkHandler
func NewNetworkHandler(networkService *networkapp.NetworkService) *NetworkHandler {
	return &NetworkHandler{networkService: networkService}
}

// Import godoc
// @Summary      Import LinkedIn connections
// @Description  Upserts the connections of the caller (or of owner_user_id, for admins) from a LinkedIn Connections.csv export. With match=true the relationship matcher runs afterwards.
// @Tags         network
// @Accept       multipart/form-data
// @Produce      json
// @Param        file          formData file   true  "Connections.csv"
// @Param        owner_user_id formData string false "Teammate whose network this is" format(uuid)
// @Param        match         formData bool   false "Run matching after import"
// @Success      200 {object} dto.Response{data=networkapp.ImportResult}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /network/import [post]
func (h *NetworkHandler) Import(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile(importFormField)
	if err != nil {
		h.bindError(c, err)
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
		h.ErrorWithCode(c, "INVALID_FILE_TYPE", "Only .csv files are accepted")
		return
	}
	ownerID, ok := h.importOwner(c, userID, c.PostForm("owner_user_id"))
	if !ok {
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.networkService.ImportCSV(c.Request.Context(), tenantID, ownerID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if match, _ := strconv.ParseBool(c.PostForm("match")); match {
		if !h.attachMatching(c, tenantID, userID, result) {
			return
		}
	}
	h.Success(c, result)
}

// ImportUploadURL returns a presigned target for uploading a large connections file
func (h *NetworkHandler) ImportUploadURL(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	upload, err := h.networkService.ImportUploadURL(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, upload)
}

// ImportFromStorage imports a connections file uploaded through the presigned URL
func (h *NetworkHandler) ImportFromStorage(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req networkapp.ImportFromStorageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	var owner string
	if req.OwnerUserID != nil {
		owner = req.OwnerUserID.String()
	}
	ownerID, ok := h.importOwner(c, userID, owner)
	if !ok {
		return
	}

	result, err := h.networkService.ImportFromStorage(c.Request.Context(), tenantID, ownerID, req.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.Match && !h.attachMatching(c, tenantID, userID, result) {
		return
	}
	h.Success(c, result)
}

// importOwner resolves whose network an import belongs to. Importing for a
// teammate requires users:manage.
func (h *NetworkHandler) importOwner(c *gin.Context, callerID uuid.UUID, raw string) (uuid.UUID, bool) {
	if raw == "" {
		return callerID, true
	}
	ownerID, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Invalid owner_user_id")
		return uuid.Nil, false
	}
	if ownerID != callerID && !middleware.HasPermission(c, domainIdentity.PermUsersManage) {
		h.Forbidden(c, "Only admins can import a teammate's network")
		return uuid.Nil, false
	}
	return ownerID, true
}

func (h *NetworkHandler) attachMatching(c *gin.Context, tenantID, userID uuid.UUID, result *networkapp.ImportResult) bool {
	match, err := h.networkService.RunMatching(c.Request.Context(), tenantID, &userID)
	if err != nil {
		h.HandleError(c, err)
		return false
	}
	result.Matching = match
	return true
}

// ListContacts godoc
// @Summary      List imported connections
// @Tags         network
// @Produce      json
// @Param        owner_user_id query string false "Teammate" format(uuid)
// @Param        company       query string false "Company contains"
// @Param        search        query string false "Name, company or position"
// @Success      200 {object} dto.Response{data=[]networkapp.ConnectionResponse}
// @Security     BearerAuth
// @Router       /network/contacts [get]
func (h *NetworkHandler) ListContacts(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter networkapp.ContactListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.OwnerUserID, ok = h.queryUUID(c, "owner_user_id"); !ok {
		return
	}
	defaultPaging(&filter.Page, &filter.PageSize)

	items, total, err := h.networkService.ListContacts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Match godoc
// @Summary      Run the relationship matcher
// @Description  Recomputes suggested warm-intro paths for every investor. Confirmed and dismissed paths are kept.
// @Tags         network
// @Produce      json
// @Success      200 {object} dto.Response{data=networkapp.MatchResult}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /network/match [post]
func (h *NetworkHandler) Match(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	result, err := h.networkService.RunMatching(c.Request.Context(), tenantID, &userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListWarmIntros returns the ranked intro paths to an investor
func (h *NetworkHandler) ListWarmIntros(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	investorID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	items, err := h.networkService.ListWarmIntros(c.Request.Context(), tenantID, investorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ConfirmRelationship marks a suggested path as verified by the team
func (h *NetworkHandler) ConfirmRelationship(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	rel, err := h.networkService.ConfirmRelationship(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rel)
}

// DismissRelationship hides a suggested path from future matching runs
func (h *NetworkHandler) DismissRelationship(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	rel, err := h.networkService.DismissRelationship(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rel)
}
