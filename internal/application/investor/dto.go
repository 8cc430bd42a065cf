package investor

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Investor DTOs
// =============================================================================

// CreateInvestorRequest represents a request to add an investor to the pipeline
type CreateInvestorRequest struct {
	Name           string           `json:"name" binding:"required,min=1,max=200"`
	FirmName       string           `json:"firm_name" binding:"max=200"`
	Type           string           `json:"type" binding:"required,oneof=vc angel cvc family_office accelerator other"`
	Priority       string           `json:"priority" binding:"omitempty,oneof=low medium high"`
	Currency       string           `json:"currency" binding:"omitempty,len=3"`
	CheckSizeMin   *decimal.Decimal `json:"check_size_min"`
	CheckSizeMax   *decimal.Decimal `json:"check_size_max"`
	Website        string           `json:"website" binding:"omitempty,url,max=500"`
	LinkedInURL    string           `json:"linkedin_url" binding:"omitempty,url,max=500"`
	Location       string           `json:"location" binding:"max=200"`
	FocusAreas     []string         `json:"focus_areas"`
	Tags           []string         `json:"tags"`
	Notes          string           `json:"notes"`
	Source         string           `json:"source" binding:"max=100"`
	OwnerID        *uuid.UUID       `json:"owner_id"`
	NextFollowUpAt *time.Time       `json:"next_follow_up_at"`
}

// UpdateInvestorRequest replaces the editable fields. Version is the one the client last read.
type UpdateInvestorRequest struct {
	Version        int              `json:"version" binding:"required,min=1"`
	Name           string           `json:"name" binding:"required,min=1,max=200"`
	FirmName       string           `json:"firm_name" binding:"max=200"`
	Type           string           `json:"type" binding:"required,oneof=vc angel cvc family_office accelerator other"`
	Priority       string           `json:"priority" binding:"omitempty,oneof=low medium high"`
	Currency       string           `json:"currency" binding:"omitempty,len=3"`
	CheckSizeMin   *decimal.Decimal `json:"check_size_min"`
	CheckSizeMax   *decimal.Decimal `json:"check_size_max"`
	Website        string           `json:"website" binding:"omitempty,url,max=500"`
	LinkedInURL    string           `json:"linkedin_url" binding:"omitempty,url,max=500"`
	Location       string           `json:"location" binding:"max=200"`
	FocusAreas     []string         `json:"focus_areas"`
	Tags           []string         `json:"tags"`
	Notes          string           `json:"notes"`
	Source         string           `json:"source" binding:"max=100"`
	OwnerID        *uuid.UUID       `json:"owner_id"`
	NextFollowUpAt *time.Time       `json:"next_follow_up_at"`
}

// MoveStageRequest moves one investor through the pipeline
type MoveStageRequest struct {
	Version    int              `json:"version" binding:"required,min=1"`
	Stage      string           `json:"stage" binding:"required"`
	Reason     string           `json:"reason" binding:"max=1000"`
	Commitment *decimal.Decimal `json:"commitment_amount"`
}

// BulkMoveStageRequest moves several investors to the same stage
type BulkMoveStageRequest struct {
	IDs    []uuid.UUID `json:"ids" binding:"required,min=1,max=100"`
	Stage  string      `json:"stage" binding:"required"`
	Reason string      `json:"reason" binding:"max=1000"`
}

// BulkMoveResult is the outcome for one investor of a bulk move
type BulkMoveResult struct {
	ID      uuid.UUID `json:"id"`
	Success bool      `json:"success"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
	Version int       `json:"version,omitempty"`
}

// BulkMoveResponse summarizes a bulk move
type BulkMoveResponse struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []BulkMoveResult `json:"results"`
}

// ListFilter filters the investor list
type ListFilter struct {
	Stage          string     `form:"stage"`
	Type           string     `form:"type"`
	Priority       string     `form:"priority"`
	OwnerID        *uuid.UUID `form:"-"`
	Tag            string     `form:"tag"`
	Search         string     `form:"search"`
	FollowUpDue    bool       `form:"follow_up_due"`
	IncludeDeleted bool       `form:"include_deleted"`
	OnlyDeleted    bool       `form:"-"`
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvestorResponse represents an investor in API responses
type InvestorResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	FirmName         string          `json:"firm_name"`
	DisplayName      string          `json:"display_name"`
	Type             string          `json:"type"`
	Stage            string          `json:"stage"`
	Priority         string          `json:"priority"`
	CheckSizeMin     decimal.Decimal `json:"check_size_min"`
	CheckSizeMax     decimal.Decimal `json:"check_size_max"`
	CommitmentAmount decimal.Decimal `json:"commitment_amount"`
	Currency         string          `json:"currency"`
	Website          string          `json:"website"`
	LinkedInURL      string          `json:"linkedin_url"`
	Location         string          `json:"location"`
	FocusAreas       []string        `json:"focus_areas"`
	Tags             []string        `json:"tags"`
	Notes            string          `json:"notes"`
	OwnerID          *uuid.UUID      `json:"owner_id"`
	Source           string          `json:"source"`
	PassedReason     string          `json:"passed_reason,omitempty"`
	StageChangedAt   time.Time       `json:"stage_changed_at"`
	LastContactedAt  *time.Time      `json:"last_contacted_at"`
	NextFollowUpAt   *time.Time      `json:"next_follow_up_at"`
	FollowUpDue      bool            `json:"follow_up_due"`
	CreatedBy        *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        *time.Time      `json:"deleted_at,omitempty"`
	Version          int             `json:"version"`
}

// ToInvestorResponse converts a domain investor to its response DTO
func ToInvestorResponse(inv *investor.Investor) InvestorResponse {
	return InvestorResponse{
		ID:               inv.ID,
		Name:             inv.Name,
		FirmName:         inv.FirmName,
		DisplayName:      inv.DisplayName(),
		Type:             string(inv.Type),
		Stage:            string(inv.Stage),
		Priority:         string(inv.Priority),
		CheckSizeMin:     inv.CheckSizeMin,
		CheckSizeMax:     inv.CheckSizeMax,
		CommitmentAmount: inv.CommitmentAmount,
		Currency:         inv.Currency,
		Website:          inv.Website,
		LinkedInURL:      inv.LinkedInURL,
		Location:         inv.Location,
		FocusAreas:       inv.FocusAreas,
		Tags:             inv.Tags,
		Notes:            inv.Notes,
		OwnerID:          inv.OwnerID,
		Source:           inv.Source,
		PassedReason:     inv.PassedReason,
		StageChangedAt:   inv.StageChangedAt,
		LastContactedAt:  inv.LastContactedAt,
		NextFollowUpAt:   inv.NextFollowUpAt,
		FollowUpDue:      inv.IsFollowUpDue(time.Now()),
		CreatedBy:        inv.CreatedBy,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		DeletedAt:        inv.DeletedAt,
		Version:          inv.Version,
	}
}

// ToInvestorResponses converts a slice of investors
func ToInvestorResponses(items []investor.Investor) []InvestorResponse {
	out := make([]InvestorResponse, len(items))
	for i := range items {
		out[i] = ToInvestorResponse(&items[i])
	}
	return out
}

// =============================================================================
// Pipeline DTOs
// =============================================================================

// StageSummaryResponse aggregates one pipeline stage
type StageSummaryResponse struct {
	Stage          string          `json:"stage"`
	Count          int64           `json:"count"`
	CheckSizeTotal decimal.Decimal `json:"check_size_total"`
	CommittedTotal decimal.Decimal `json:"committed_total"`
}

// PipelineSummaryResponse aggregates the whole pipeline, every stage listed in pipeline order
type PipelineSummaryResponse struct {
	Stages         []StageSummaryResponse `json:"stages"`
	TotalInvestors int64                  `json:"total_investors"`
	TotalCheckSize decimal.Decimal        `json:"total_check_size"`
	TotalCommitted decimal.Decimal        `json:"total_committed"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

// TimelineKind names the source of a timeline entry
type TimelineKind string

const (
	TimelineActivity TimelineKind = "activity"
	TimelineMeeting  TimelineKind = "meeting"
	TimelineTask     TimelineKind = "task"
)

// TimelineItem is one entry of the merged investor timeline
type TimelineItem struct {
	Kind    TimelineKind `json:"kind"`
	ID      uuid.UUID    `json:"id"`
	Type    string       `json:"type"`
	Title   string       `json:"title"`
	Summary string       `json:"summary,omitempty"`
	Status  string       `json:"status,omitempty"`
	At      time.Time    `json:"at"`
}
