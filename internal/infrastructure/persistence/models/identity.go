package models

import (
	"time"

	"github.com/investorcrm/backend/internal/domain/identity"
)

// TenantModel is the persistence model for the Tenant aggregate.
type TenantModel struct {
	AggregateModel
	Name   string                `gorm:"type:varchar(200);not null"`
	Slug   string                `gorm:"type:varchar(63);not null;uniqueIndex"`
	Status identity.TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() *identity.Tenant {
	t := &identity.Tenant{
		Name:   m.Name,
		Slug:   m.Slug,
		Status: m.Status,
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	return t
}

// TenantModelFromDomain creates a persistence model from a domain Tenant
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{Name: t.Name, Slug: t.Slug, Status: t.Status}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	TenantAggregateModel
	Email              string              `gorm:"type:varchar(254);not null"`
	PasswordHash       string              `gorm:"type:varchar(255);not null"`
	DisplayName        string              `gorm:"type:varchar(200)"`
	Role               identity.Role       `gorm:"type:varchar(20);not null;default:'member'"`
	Status             identity.UserStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	LinkedInURL        string              `gorm:"column:linkedin_url;type:varchar(500)"`
	LastLoginAt        *time.Time
	LastLoginIP        string `gorm:"type:varchar(45)"`
	FailedAttempts     int    `gorm:"not null;default:0"`
	LockedUntil        *time.Time
	PasswordChangedAt  *time.Time
	MustChangePassword bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		DisplayName:         m.DisplayName,
		Role:                m.Role,
		Status:              m.Status,
		LinkedInURL:         m.LinkedInURL,
		LastLoginAt:         m.LastLoginAt,
		LastLoginIP:         m.LastLoginIP,
		FailedAttempts:      m.FailedAttempts,
		LockedUntil:         m.LockedUntil,
		PasswordChangedAt:   m.PasswordChangedAt,
		MustChangePassword:  m.MustChangePassword,
	}
}

// UserModelFromDomain creates a persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		DisplayName:        u.DisplayName,
		Role:               u.Role,
		Status:             u.Status,
		LinkedInURL:        u.LinkedInURL,
		LastLoginAt:        u.LastLoginAt,
		LastLoginIP:        u.LastLoginIP,
		FailedAttempts:     u.FailedAttempts,
		LockedUntil:        u.LockedUntil,
		PasswordChangedAt:  u.PasswordChangedAt,
		MustChangePassword: u.MustChangePassword,
	}
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	return m
}

