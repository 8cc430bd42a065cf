package contact

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/contact"
)

// CreateContactRequest represents a request to create a contact
type CreateContactRequest struct {
	InvestorID  *uuid.UUID `json:"investor_id"`
	FirstName   string     `json:"first_name" binding:"max=100"`
	LastName    string     `json:"last_name" binding:"max=100"`
	Email       string     `json:"email" binding:"omitempty,email,max=254"`
	Phone       string     `json:"phone" binding:"max=50"`
	Title       string     `json:"title" binding:"max=200"`
	LinkedInURL string     `json:"linkedin_url" binding:"omitempty,url,max=500"`
	Notes       string     `json:"notes"`
	Tags        []string   `json:"tags"`
	IsPrimary   bool       `json:"is_primary"`
}

// UpdateContactRequest replaces the editable fields of a contact
type UpdateContactRequest struct {
	Version     int        `json:"version" binding:"required,min=1"`
	InvestorID  *uuid.UUID `json:"investor_id"`
	FirstName   string     `json:"first_name" binding:"max=100"`
	LastName    string     `json:"last_name" binding:"max=100"`
	Email       string     `json:"email" binding:"omitempty,email,max=254"`
	Phone       string     `json:"phone" binding:"max=50"`
	Title       string     `json:"title" binding:"max=200"`
	LinkedInURL string     `json:"linkedin_url" binding:"omitempty,url,max=500"`
	Notes       string     `json:"notes"`
	Tags        []string   `json:"tags"`
}

// ListFilter filters the contact list
type ListFilter struct {
	InvestorID *uuid.UUID `form:"-"`
	IsPrimary  *bool      `form:"is_primary"`
	Search     string     `form:"search"`
	Deleted    bool       `form:"deleted"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ContactResponse represents a contact in API responses
type ContactResponse struct {
	ID          uuid.UUID  `json:"id"`
	InvestorID  *uuid.UUID `json:"investor_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Title       string     `json:"title"`
	LinkedInURL string     `json:"linkedin_url"`
	IsPrimary   bool       `json:"is_primary"`
	Notes       string     `json:"notes"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	Version     int        `json:"version"`
}

// ToContactResponse converts a domain contact to its response DTO
func ToContactResponse(c *contact.Contact) ContactResponse {
	return ContactResponse{
		ID:          c.ID,
		InvestorID:  c.InvestorID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		FullName:    c.FullName(),
		Email:       c.Email,
		Phone:       c.Phone,
		Title:       c.Title,
		LinkedInURL: c.LinkedInURL,
		IsPrimary:   c.IsPrimary,
		Notes:       c.Notes,
		Tags:        c.Tags,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		DeletedAt:   c.DeletedAt,
		Version:     c.Version,
	}
}

// ToContactResponses converts a slice of contacts
func ToContactResponses(items []contact.Contact) []ContactResponse {
	out := make([]ContactResponse, len(items))
	for i := range items {
		out[i] = ToContactResponse(&items[i])
	}
	return out
}

func (r CreateContactRequest) details() contact.Details {
	return contact.Details{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Phone:       r.Phone,
		Title:       r.Title,
		LinkedInURL: r.LinkedInURL,
		Notes:       r.Notes,
		Tags:        r.Tags,
	}
}

func (r UpdateContactRequest) details() contact.Details {
	return contact.Details{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Phone:       r.Phone,
		Title:       r.Title,
		LinkedInURL: r.LinkedInURL,
		Notes:       r.Notes,
		Tags:        r.Tags,
	}
}
