package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/network"
)

// LinkedInContactModel is the persistence model for an imported LinkedIn connection.
type LinkedInContactModel struct {
	TenantAggregateModel
	OwnerUserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	FirstName         string    `gorm:"type:varchar(100)"`
	LastName          string    `gorm:"type:varchar(100)"`
	Email             string    `gorm:"type:varchar(254)"`
	Company           string    `gorm:"type:varchar(300)"`
	NormalizedCompany string    `gorm:"type:varchar(300);index"`
	Position          string    `gorm:"type:varchar(300)"`
	ConnectedOn       *time.Time
	ProfileURL        string `gorm:"type:varchar(500)"`
	DedupKey          string `gorm:"type:varchar(600);not null"`
}

// TableName returns the table name for GORM
func (LinkedInContactModel) TableName() string {
	return "linkedin_contacts"
}

// ToDomain converts the persistence model to a domain LinkedInContact
func (m *LinkedInContactModel) ToDomain() *network.LinkedInContact {
	return &network.LinkedInContact{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		OwnerUserID:         m.OwnerUserID,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		Email:               m.Email,
		Company:             m.Company,
		NormalizedCompany:   m.NormalizedCompany,
		Position:            m.Position,
		ConnectedOn:         m.ConnectedOn,
		ProfileURL:          m.ProfileURL,
	}
}

// LinkedInContactModelFromDomain creates a persistence model from a domain LinkedInContact
func LinkedInContactModelFromDomain(c *network.LinkedInContact) *LinkedInContactModel {
	m := &LinkedInContactModel{
		OwnerUserID:       c.OwnerUserID,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		Email:             c.Email,
		Company:           c.Company,
		NormalizedCompany: c.NormalizedCompany,
		Position:          c.Position,
		ConnectedOn:       c.ConnectedOn,
		ProfileURL:        c.ProfileURL,
		DedupKey:          c.DedupKey(),
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// RelationshipModel is the persistence model for an investor relationship.
type RelationshipModel struct {
	TenantAggregateModel
	InvestorID        uuid.UUID                  `gorm:"type:uuid;not null;index"`
	LinkedInContactID uuid.UUID                  `gorm:"column:linkedin_contact_id;type:uuid;not null"`
	OwnerUserID       uuid.UUID                  `gorm:"type:uuid;not null"`
	Type              network.RelationshipType   `gorm:"column:relationship_type;type:varchar(30);not null"`
	Strength          int                        `gorm:"not null"`
	Path              string                     `gorm:"type:text"`
	Status            network.RelationshipStatus `gorm:"type:varchar(20);not null;default:'suggested'"`
	DetectedAt        time.Time                  `gorm:"not null"`
	ReviewedBy        *uuid.UUID                 `gorm:"type:uuid"`
	ReviewedAt        *time.Time
}

// TableName returns the table name for GORM
func (RelationshipModel) TableName() string {
	return "investor_relationships"
}

// ToDomain converts the persistence model to a domain InvestorRelationship
func (m *RelationshipModel) ToDomain() *network.InvestorRelationship {
	return &network.InvestorRelationship{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		InvestorID:          m.InvestorID,
		LinkedInContactID:   m.LinkedInContactID,
		OwnerUserID:         m.OwnerUserID,
		Type:                m.Type,
		Strength:            m.Strength,
		Path:                m.Path,
		Status:              m.Status,
		DetectedAt:          m.DetectedAt,
		ReviewedBy:          m.ReviewedBy,
		ReviewedAt:          m.ReviewedAt,
	}
}

// RelationshipModelFromDomain creates a persistence model from a domain InvestorRelationship
func RelationshipModelFromDomain(r *network.InvestorRelationship) *RelationshipModel {
	m := &RelationshipModel{
		InvestorID:        r.InvestorID,
		LinkedInContactID: r.LinkedInContactID,
		OwnerUserID:       r.OwnerUserID,
		Type:              r.Type,
		Strength:          r.Strength,
		Path:              r.Path,
		Status:            r.Status,
		DetectedAt:        r.DetectedAt,
		ReviewedBy:        r.ReviewedBy,
		ReviewedAt:        r.ReviewedAt,
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	return m
}
