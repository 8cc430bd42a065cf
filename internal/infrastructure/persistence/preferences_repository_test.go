package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/preferences"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSavedFilterRepository(t *testing.T) {
	repo := NewGormSavedFilterRepository(setupTestDB(t))
	ctx := context.Background()
	tenantID, alice, bob := uuid.New(), uuid.New(), uuid.New()

	newFilter := func(owner uuid.UUID, name string) *preferences.SavedFilter {
		f, err := preferences.NewSavedFilter(tenantID, owner, name, preferences.EntityInvestor, map[string]any{"stage": "meeting"})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, f))
		return f
	}

	hot := newFilter(alice, "Hot leads")
	warm := newFilter(alice, "Warm leads")
	shared1 := newFilter(bob, "Team view")
	require.NoError(t, shared1.Update("Team view", map[string]any{"priority": "high"}, true))
	require.NoError(t, repo.SaveWithLock(ctx, shared1))
	newFilter(bob, "Bob private")

	t.Run("visible returns own and shared filters", func(t *testing.T) {
		visible, err := repo.FindVisible(ctx, tenantID, alice, preferences.EntityInvestor)
		require.NoError(t, err)
		assert.Len(t, visible, 3)
	})

	t.Run("name uniqueness is per user and case-insensitive", func(t *testing.T) {
		exists, err := repo.ExistsByName(ctx, tenantID, alice, preferences.EntityInvestor, "HOT LEADS", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByName(ctx, tenantID, alice, preferences.EntityInvestor, "hot leads", hot.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = repo.ExistsByName(ctx, tenantID, bob, preferences.EntityInvestor, "Hot leads", uuid.Nil)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("only one default per user and entity", func(t *testing.T) {
		require.NoError(t, hot.MarkDefault())
		require.NoError(t, repo.SetDefault(ctx, hot))

		loaded, err := repo.FindByIDForTenant(ctx, tenantID, warm.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.MarkDefault())
		require.NoError(t, repo.SetDefault(ctx, loaded))

		reloaded, err := repo.FindByIDForTenant(ctx, tenantID, hot.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.IsDefault)
	})

	t.Run("trash and purge", func(t *testing.T) {
		f := newFilter(alice, "Old")
		require.NoError(t, f.Delete())
		require.NoError(t, repo.SaveWithLock(ctx, f))

		_, err := repo.FindByIDForTenant(ctx, tenantID, f.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		deleted, err := repo.FindDeletedForUser(ctx, tenantID, alice)
		require.NoError(t, err)
		assert.Len(t, deleted, 1)

		purged, err := repo.PurgeDeletedBefore(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
	})
}

func TestGormUserPreferencesRepository_Upsert(t *testing.T) {
	repo := NewGormUserPreferencesRepository(setupTestDB(t))
	ctx := context.Background()
	tenantID, userID := uuid.New(), uuid.New()

	_, err := repo.FindByUser(ctx, tenantID, userID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	prefs := preferences.DefaultPreferences(tenantID, userID)
	settings := preferences.Settings{
		Timezone:            "UTC",
		DateFormat:          "02/01/2006",
		DefaultPipelineView: preferences.PipelineViewTable,
		PipelineColumns:     []string{"name", "stage"},
		DigestFrequency:     preferences.DigestDaily,
		Theme:               preferences.ThemeDark,
	}
	require.NoError(t, prefs.Apply(settings))
	require.NoError(t, repo.Upsert(ctx, prefs))

	loaded, err := repo.FindByUser(ctx, tenantID, userID)
	require.NoError(t, err)
	assert.Equal(t, "UTC", loaded.Timezone)
	assert.Equal(t, []string{"name", "stage"}, loaded.PipelineColumns)
	assert.False(t, loaded.EmailNotifications)

	settings.Theme = preferences.ThemeLight
	require.NoError(t, loaded.Apply(settings))
	require.NoError(t, repo.Upsert(ctx, loaded))

	require.NoError(t, prefs.Apply(settings))
	assert.ErrorIs(t, repo.Upsert(ctx, prefs), shared.ErrOptimisticLock)
}
