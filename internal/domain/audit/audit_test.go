package audit

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActionForEvent(t *testing.T) {
	tests := []struct {
		eventType string
		want      Action
		ok        bool
	}{
		{"InvestorCreated", ActionCreate, true},
		{"ActivityLogged", ActionCreate, true},
		{"MeetingScheduled", ActionCreate, true},
		{"InvestorStageChanged", ActionStageChange, true},
		{"ContactDeleted", ActionDelete, true},
		{"TaskRestored", ActionRestore, true},
		{"UserLoggedIn", ActionLogin, true},
		{"UserLoggedOut", ActionLogout, true},
		{"NetworkImported", ActionImport, true},
		{"TaskCompleted", ActionUpdate, true},
		{"RelationshipDismissed", ActionUpdate, true},
		{"TaskOverdue", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			got, ok := ActionForEvent(tt.eventType)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntry(t *testing.T) {
	actor := uuid.New()
	e := NewEntry(uuid.New(), &actor, ActionExport, "Report", uuid.Nil).
		WithChanges(map[string]any{"format": "pdf"}).
		WithRequest("10.0.0.1", strings.Repeat("x", 600), "req-1")

	assert.Equal(t, "pdf", e.Changes["format"])
	assert.Len(t, e.UserAgent, 500)
	assert.Equal(t, "req-1", e.RequestID)
	assert.False(t, e.CreatedAt.IsZero())

	e.WithChanges(nil)
	assert.NotNil(t, e.Changes)
}
