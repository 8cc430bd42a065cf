package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/activity"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/meeting"
	"github.com/investorcrm/backend/internal/domain/task"
	"github.com/shopspring/decimal"
)

// InvestorModel is the persistence model for the Investor aggregate.
type InvestorModel struct {
	TenantAggregateModel
	SoftDeleteColumn
	Name             string                `gorm:"type:varchar(200);not null"`
	FirmName         string                `gorm:"type:varchar(200)"`
	Type             investor.InvestorType `gorm:"type:varchar(20);not null"`
	Stage            investor.Stage        `gorm:"type:varchar(20);not null;index"`
	Priority         investor.Priority     `gorm:"type:varchar(10);not null;default:'medium'"`
	CheckSizeMin     decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	CheckSizeMax     decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	CommitmentAmount decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Currency         string                `gorm:"type:varchar(3);not null;default:'USD'"`
	Website          string                `gorm:"type:varchar(500)"`
	LinkedInURL      string                `gorm:"column:linkedin_url;type:varchar(500)"`
	Location         string                `gorm:"type:varchar(200)"`
	FocusAreas       StringList            `gorm:"type:jsonb;default:'[]'"`
	Tags             StringList            `gorm:"type:jsonb;default:'[]'"`
	Notes            string                `gorm:"type:text"`
	OwnerID          *uuid.UUID            `gorm:"type:uuid;index"`
	Source           string                `gorm:"type:varchar(100)"`
	PassedReason     string                `gorm:"type:text"`
	StageChangedAt   time.Time             `gorm:"not null"`
	LastContactedAt  *time.Time
	NextFollowUpAt   *time.Time
}

// TableName returns the table name for GORM
func (InvestorModel) TableName() string {
	return "investors"
}

// ToDomain converts the persistence model to a domain Investor
func (m *InvestorModel) ToDomain() *investor.Investor {
	return &investor.Investor{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SoftDeletable:       m.SoftDeleteColumn.ToDomain(),
		Name:                m.Name,
		FirmName:            m.FirmName,
		Type:                m.Type,
		Stage:               m.Stage,
		Priority:            m.Priority,
		CheckSizeMin:        m.CheckSizeMin,
		CheckSizeMax:        m.CheckSizeMax,
		CommitmentAmount:    m.CommitmentAmount,
		Currency:            m.Currency,
		Website:             m.Website,
		LinkedInURL:         m.LinkedInURL,
		Location:            m.Location,
		FocusAreas:          []string(m.FocusAreas),
		Tags:                []string(m.Tags),
		Notes:               m.Notes,
		OwnerID:             m.OwnerID,
		Source:              m.Source,
		PassedReason:        m.PassedReason,
		StageChangedAt:      m.StageChangedAt,
		LastContactedAt:     m.LastContactedAt,
		NextFollowUpAt:      m.NextFollowUpAt,
	}
}

// InvestorModelFromDomain creates a persistence model from a domain Investor
func InvestorModelFromDomain(i *investor.Investor) *InvestorModel {
	m := &InvestorModel{
		SoftDeleteColumn: SoftDeleteColumn{DeletedAt: i.DeletedAt},
		Name:             i.Name,
		FirmName:         i.FirmName,
		Type:             i.Type,
		Stage:            i.Stage,
		Priority:         i.Priority,
		CheckSizeMin:     i.CheckSizeMin,
		CheckSizeMax:     i.CheckSizeMax,
		CommitmentAmount: i.CommitmentAmount,
		Currency:         i.Currency,
		Website:          i.Website,
		LinkedInURL:      i.LinkedInURL,
		Location:         i.Location,
		FocusAreas:       StringList(i.FocusAreas),
		Tags:             StringList(i.Tags),
		Notes:            i.Notes,
		OwnerID:          i.OwnerID,
		Source:           i.Source,
		PassedReason:     i.PassedReason,
		StageChangedAt:   i.StageChangedAt,
		LastContactedAt:  i.LastContactedAt,
		NextFollowUpAt:   i.NextFollowUpAt,
	}
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	return m
}

// ContactModel is the persistence model for the Contact aggregate.
type ContactModel struct {
	TenantAggregateModel
	SoftDeleteColumn
	InvestorID  *uuid.UUID `gorm:"type:uuid;index"`
	FirstName   string     `gorm:"type:varchar(100)"`
	LastName    string     `gorm:"type:varchar(100)"`
	Email       string     `gorm:"type:varchar(254);index"`
	Phone       string     `gorm:"type:varchar(30)"`
	Title       string     `gorm:"type:varchar(200)"`
	LinkedInURL string     `gorm:"column:linkedin_url;type:varchar(500)"`
	IsPrimary   bool       `gorm:"not null;default:false"`
	Notes       string     `gorm:"type:text"`
	Tags        StringList `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts the persistence model to a domain Contact
func (m *ContactModel) ToDomain() *contact.Contact {
	return &contact.Contact{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SoftDeletable:       m.SoftDeleteColumn.ToDomain(),
		InvestorID:          m.InvestorID,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		Email:               m.Email,
		Phone:               m.Phone,
		Title:               m.Title,
		LinkedInURL:         m.LinkedInURL,
		IsPrimary:           m.IsPrimary,
		Notes:               m.Notes,
		Tags:                []string(m.Tags),
	}
}

// ContactModelFromDomain creates a persistence model from a domain Contact
func ContactModelFromDomain(c *contact.Contact) *ContactModel {
	m := &ContactModel{
		SoftDeleteColumn: SoftDeleteColumn{DeletedAt: c.DeletedAt},
		InvestorID:       c.InvestorID,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Email:            c.Email,
		Phone:            c.Phone,
		Title:            c.Title,
		LinkedInURL:      c.LinkedInURL,
		IsPrimary:        c.IsPrimary,
		Notes:            c.Notes,
		Tags:             StringList(c.Tags),
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// ActivityModel is the persistence model for the Activity aggregate.
type ActivityModel struct {
	TenantAggregateModel
	SoftDeleteColumn
	InvestorID *uuid.UUID            `gorm:"type:uuid;index"`
	ContactID  *uuid.UUID            `gorm:"type:uuid;index"`
	Type       activity.ActivityType `gorm:"type:varchar(20);not null"`
	Subject    string                `gorm:"type:varchar(300);not null"`
	Body       string                `gorm:"type:text"`
	OccurredAt time.Time             `gorm:"not null;index"`
	Source     activity.Source       `gorm:"type:varchar(20);not null;default:'manual'"`
	ExternalID *string               `gorm:"type:varchar(255)"`
	Metadata   JSONMap               `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for GORM
func (ActivityModel) TableName() string {
	return "activities"
}

// ToDomain converts the persistence model to a domain Activity
func (m *ActivityModel) ToDomain() *activity.Activity {
	a := &activity.Activity{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SoftDeletable:       m.SoftDeleteColumn.ToDomain(),
		InvestorID:          m.InvestorID,
		ContactID:           m.ContactID,
		Type:                m.Type,
		Subject:             m.Subject,
		Body:                m.Body,
		OccurredAt:          m.OccurredAt,
		Source:              m.Source,
		Metadata:            map[string]any(m.Metadata),
	}
	if m.ExternalID != nil {
		a.ExternalID = *m.ExternalID
	}
	return a
}

// ActivityModelFromDomain creates a persistence model from a domain Activity.
// An empty external id is stored as NULL so the unique index only covers synced rows.
func ActivityModelFromDomain(a *activity.Activity) *ActivityModel {
	m := &ActivityModel{
		SoftDeleteColumn: SoftDeleteColumn{DeletedAt: a.DeletedAt},
		InvestorID:       a.InvestorID,
		ContactID:        a.ContactID,
		Type:             a.Type,
		Subject:          a.Subject,
		Body:             a.Body,
		OccurredAt:       a.OccurredAt,
		Source:           a.Source,
		Metadata:         JSONMap(a.Metadata),
	}
	if a.ExternalID != "" {
		id := a.ExternalID
		m.ExternalID = &id
	}
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	return m
}

// TaskModel is the persistence model for the Task aggregate.
type TaskModel struct {
	TenantAggregateModel
	SoftDeleteColumn
	Title             string        `gorm:"type:varchar(300);not null"`
	Description       string        `gorm:"type:text"`
	InvestorID        *uuid.UUID    `gorm:"type:uuid;index"`
	ContactID         *uuid.UUID    `gorm:"type:uuid"`
	MeetingID         *uuid.UUID    `gorm:"type:uuid"`
	AssigneeID        *uuid.UUID    `gorm:"type:uuid;index"`
	DueAt             *time.Time    `gorm:"index"`
	Priority          task.Priority `gorm:"type:varchar(10);not null;default:'medium'"`
	Status            task.Status   `gorm:"type:varchar(20);not null;default:'open';index"`
	CompletedAt       *time.Time
	OverdueNotifiedAt *time.Time
}

// TableName returns the table name for GORM
func (TaskModel) TableName() string {
	return "tasks"
}

// ToDomain converts the persistence model to a domain Task
func (m *TaskModel) ToDomain() *task.Task {
	return &task.Task{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SoftDeletable:       m.SoftDeleteColumn.ToDomain(),
		Title:               m.Title,
		Description:         m.Description,
		InvestorID:          m.InvestorID,
		ContactID:           m.ContactID,
		MeetingID:           m.MeetingID,
		AssigneeID:          m.AssigneeID,
		DueAt:               m.DueAt,
		Priority:            m.Priority,
		Status:              m.Status,
		CompletedAt:         m.CompletedAt,
		OverdueNotifiedAt:   m.OverdueNotifiedAt,
	}
}

// TaskModelFromDomain creates a persistence model from a domain Task
func TaskModelFromDomain(t *task.Task) *TaskModel {
	m := &TaskModel{
		SoftDeleteColumn:  SoftDeleteColumn{DeletedAt: t.DeletedAt},
		Title:             t.Title,
		Description:       t.Description,
		InvestorID:        t.InvestorID,
		ContactID:         t.ContactID,
		MeetingID:         t.MeetingID,
		AssigneeID:        t.AssigneeID,
		DueAt:             t.DueAt,
		Priority:          t.Priority,
		Status:            t.Status,
		CompletedAt:       t.CompletedAt,
		OverdueNotifiedAt: t.OverdueNotifiedAt,
	}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	return m
}

// MeetingModel is the persistence model for the Meeting aggregate.
type MeetingModel struct {
	TenantAggregateModel
	SoftDeleteColumn
	InvestorID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	Title           string                 `gorm:"type:varchar(300);not null"`
	ScheduledAt     time.Time              `gorm:"not null;index"`
	DurationMinutes int                    `gorm:"not null;default:30"`
	Location        string                 `gorm:"type:varchar(300)"`
	MeetingURL      string                 `gorm:"type:varchar(500)"`
	Attendees       StringList             `gorm:"type:jsonb;default:'[]'"`
	Status          meeting.Status         `gorm:"type:varchar(20);not null;default:'scheduled'"`
	CalendarEventID *string                `gorm:"type:varchar(255)"`
	TranscriptKey   string                 `gorm:"type:varchar(500)"`
	TranscriptText  string                 `gorm:"type:text"`
	Analysis        JSON[meeting.Analysis] `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (MeetingModel) TableName() string {
	return "meetings"
}

// ToDomain converts the persistence model to a domain Meeting
func (m *MeetingModel) ToDomain() *meeting.Meeting {
	mt := &meeting.Meeting{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SoftDeletable:       m.SoftDeleteColumn.ToDomain(),
		InvestorID:          m.InvestorID,
		Title:               m.Title,
		ScheduledAt:         m.ScheduledAt,
		DurationMinutes:     m.DurationMinutes,
		Location:            m.Location,
		MeetingURL:          m.MeetingURL,
		Attendees:           []string(m.Attendees),
		Status:              m.Status,
		TranscriptKey:       m.TranscriptKey,
		TranscriptText:      m.TranscriptText,
		Analysis:            m.Analysis.Data,
	}
	if m.CalendarEventID != nil {
		mt.CalendarEventID = *m.CalendarEventID
	}
	return mt
}

// MeetingModelFromDomain creates a persistence model from a domain Meeting
func MeetingModelFromDomain(mt *meeting.Meeting) *MeetingModel {
	m := &MeetingModel{
		SoftDeleteColumn: SoftDeleteColumn{DeletedAt: mt.DeletedAt},
		InvestorID:       mt.InvestorID,
		Title:            mt.Title,
		ScheduledAt:      mt.ScheduledAt,
		DurationMinutes:  mt.DurationMinutes,
		Location:         mt.Location,
		MeetingURL:       mt.MeetingURL,
		Attendees:        StringList(mt.Attendees),
		Status:           mt.Status,
		TranscriptKey:    mt.TranscriptKey,
		TranscriptText:   mt.TranscriptText,
		Analysis:         JSON[meeting.Analysis]{Data: mt.Analysis},
	}
	if mt.CalendarEventID != "" {
		id := mt.CalendarEventID
		m.CalendarEventID = &id
	}
	m.FromDomainTenantAggregateRoot(mt.TenantAggregateRoot)
	return m
}
