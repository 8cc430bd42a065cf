package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"display_name":  true,
	"role":          true,
	"status":        true,
	"last_login_at": true,
}

// InvestorSortFields contains allowed sort fields for investors
var InvestorSortFields = map[string]bool{
	"created_at":        true,
	"updated_at":        true,
	"name":              true,
	"firm_name":         true,
	"stage":             true,
	"priority":          true,
	"check_size_max":    true,
	"commitment_amount": true,
	"last_contacted_at": true,
	"next_follow_up_at": true,
	"stage_changed_at":  true,
}

// ContactSortFields contains allowed sort fields for contacts
var ContactSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"first_name": true,
	"last_name":  true,
	"email":      true,
}

// ActivitySortFields contains allowed sort fields for activities
var ActivitySortFields = map[string]bool{
	"created_at":  true,
	"occurred_at": true,
	"type":        true,
}

// TaskSortFields contains allowed sort fields for tasks
var TaskSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"due_at":     true,
	"priority":   true,
	"status":     true,
	"title":      true,
}

// MeetingSortFields contains allowed sort fields for meetings
var MeetingSortFields = map[string]bool{
	"created_at":   true,
	"scheduled_at": true,
	"status":       true,
	"title":        true,
}

// LinkedInContactSortFields contains allowed sort fields for imported connections
var LinkedInContactSortFields = map[string]bool{
	"created_at":   true,
	"last_name":    true,
	"first_name":   true,
	"company":      true,
	"connected_on": true,
}

// AuditSortFields contains allowed sort fields for audit entries
var AuditSortFields = map[string]bool{
	"created_at": true,
	"action":     true,
}
