package network

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/network"
	csvimport "github.com/investorcrm/backend/internal/infrastructure/import"
)

// ImportFromStorageRequest imports a connections file previously uploaded through the presigned URL
type ImportFromStorageRequest struct {
	Key         string     `json:"key" binding:"required,max=500"`
	OwnerUserID *uuid.UUID `json:"owner_user_id"`
	Match       bool       `json:"match"`
}

// ImportResult summarizes a connections import
type ImportResult struct {
	TotalRows int                  `json:"total_rows"`
	Created   int                  `json:"created"`
	Updated   int                  `json:"updated"`
	Unchanged int                  `json:"unchanged"`
	Failed    int                  `json:"failed"`
	Errors    []csvimport.RowError `json:"errors"`
	Truncated bool                 `json:"errors_truncated"`
	Matching  *MatchResult         `json:"matching,omitempty"`
}

// MatchResult summarizes a relationship matching run
type MatchResult struct {
	Contacts  int `json:"contacts"`
	Investors int `json:"investors"`
	Suggested int `json:"suggested"`
	Removed   int `json:"removed"`
	Reviewed  int `json:"skipped_reviewed"`
}

// ContactListFilter filters imported connections
type ContactListFilter struct {
	OwnerUserID *uuid.UUID `form:"-"`
	Company     string     `form:"company"`
	Search      string     `form:"search"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ConnectionResponse represents an imported connection
type ConnectionResponse struct {
	ID          uuid.UUID  `json:"id"`
	OwnerUserID uuid.UUID  `json:"owner_user_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email,omitempty"`
	Company     string     `json:"company"`
	Position    string     `json:"position"`
	ConnectedOn *time.Time `json:"connected_on,omitempty"`
	ProfileURL  string     `json:"profile_url,omitempty"`
}

// WarmIntroResponse is a relationship path to an investor with the connection it runs through
type WarmIntroResponse struct {
	ID          uuid.UUID           `json:"id"`
	InvestorID  uuid.UUID           `json:"investor_id"`
	OwnerUserID uuid.UUID           `json:"owner_user_id"`
	Type        string              `json:"relationship_type"`
	Strength    int                 `json:"strength"`
	Path        string              `json:"path"`
	Status      string              `json:"status"`
	DetectedAt  time.Time           `json:"detected_at"`
	Connection  *ConnectionResponse `json:"connection,omitempty"`
	Version     int                 `json:"version"`
}

// UploadURLResponse is a presigned upload target
type UploadURLResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToConnectionResponse converts an imported connection to its response DTO
func ToConnectionResponse(c *network.LinkedInContact) ConnectionResponse {
	return ConnectionResponse{
		ID:          c.ID,
		OwnerUserID: c.OwnerUserID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Company:     c.Company,
		Position:    c.Position,
		ConnectedOn: c.ConnectedOn,
		ProfileURL:  c.ProfileURL,
	}
}

// ToWarmIntroResponse converts a relationship to its response DTO
func ToWarmIntroResponse(r *network.InvestorRelationship) WarmIntroResponse {
	return WarmIntroResponse{
		ID:          r.ID,
		InvestorID:  r.InvestorID,
		OwnerUserID: r.OwnerUserID,
		Type:        string(r.Type),
		Strength:    r.Strength,
		Path:        r.Path,
		Status:      string(r.Status),
		DetectedAt:  r.DetectedAt,
		Version:     r.Version,
	}
}
