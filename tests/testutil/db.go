package testutil

import (
	"testing"

	"github.com/investorcrm/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens an in-memory SQLite database with every CRM table migrated.
// Postgres-only filters (jsonb containment) are not available on it.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.TenantModel{},
		&models.UserModel{},
		&models.InvestorModel{},
		&models.ContactModel{},
		&models.ActivityModel{},
		&models.TaskModel{},
		&models.MeetingModel{},
		&models.LinkedInContactModel{},
		&models.RelationshipModel{},
		&models.SavedFilterModel{},
		&models.UserPreferencesModel{},
		&models.AuditLogModel{},
		&models.GoogleConnectionModel{},
		&models.ConversationModel{},
		&models.ConversationMessage{},
	))
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX idx_linkedin_contacts_dedup ON linkedin_contacts (tenant_id, owner_user_id, dedup_key)",
	).Error)
	return db
}
