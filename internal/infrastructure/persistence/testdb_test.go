package persistence

import (
	"testing"

	"github.com/investorcrm/backend/tests/testutil"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with every CRM table migrated
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewSQLiteDB(t)
}
