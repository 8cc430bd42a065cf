package preferences

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/preferences"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (*PreferencesService, *testutil.RecordingPublisher) {
	db := testutil.NewSQLiteDB(t)
	events := testutil.NewRecordingPublisher()
	return NewPreferencesService(
		persistence.NewGormSavedFilterRepository(db),
		persistence.NewGormUserPreferencesRepository(db),
		events,
		zap.NewNop(),
	), events
}

func TestPreferencesService_Filters(t *testing.T) {
	svc, events := newService(t)
	ctx := context.Background()
	tenantID, alice, bob := uuid.New(), uuid.New(), uuid.New()

	hot, err := svc.CreateFilter(ctx, tenantID, alice, CreateFilterRequest{
		Name:      "Hot leads",
		Entity:    "investor",
		Criteria:  map[string]any{"priority": "high"},
		IsDefault: true,
	})
	require.NoError(t, err)
	assert.True(t, hot.IsDefault)
	assert.True(t, hot.Owned)
	assert.Contains(t, events.Types(), preferences.EventTypeSavedFilterCreated)

	t.Run("names are unique per user and entity", func(t *testing.T) {
		_, err := svc.CreateFilter(ctx, tenantID, alice, CreateFilterRequest{Name: "hot LEADS", Entity: "investor"})
		assert.Equal(t, "ALREADY_EXISTS", shared.GetErrorCode(err))

		_, err = svc.CreateFilter(ctx, tenantID, alice, CreateFilterRequest{Name: "Hot leads", Entity: "task"})
		assert.NoError(t, err)
		_, err = svc.CreateFilter(ctx, tenantID, bob, CreateFilterRequest{Name: "Hot leads", Entity: "investor"})
		assert.NoError(t, err)
	})

	t.Run("one default per user and entity", func(t *testing.T) {
		warm, err := svc.CreateFilter(ctx, tenantID, alice, CreateFilterRequest{Name: "Warm", Entity: "investor"})
		require.NoError(t, err)

		_, err = svc.SetDefault(ctx, tenantID, alice, warm.ID)
		require.NoError(t, err)

		got, err := svc.GetFilter(ctx, tenantID, alice, hot.ID)
		require.NoError(t, err)
		assert.False(t, got.IsDefault)
	})

	t.Run("shared filters are visible but read only", func(t *testing.T) {
		shared1, err := svc.CreateFilter(ctx, tenantID, bob, CreateFilterRequest{Name: "Team view", Entity: "investor", IsShared: true})
		require.NoError(t, err)
		private, err := svc.CreateFilter(ctx, tenantID, bob, CreateFilterRequest{Name: "Mine", Entity: "investor"})
		require.NoError(t, err)

		list, err := svc.ListForUser(ctx, tenantID, alice, "investor")
		require.NoError(t, err)
		names := make([]string, 0, len(list))
		for _, f := range list {
			names = append(names, f.Name)
		}
		assert.Contains(t, names, "Team view")
		assert.NotContains(t, names, "Mine")

		_, err = svc.UpdateFilter(ctx, tenantID, alice, shared1.ID, UpdateFilterRequest{Version: shared1.Version, Name: "Hijack"})
		assert.ErrorIs(t, err, shared.ErrForbidden)

		_, err = svc.GetFilter(ctx, tenantID, alice, private.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update checks version", func(t *testing.T) {
		got, err := svc.GetFilter(ctx, tenantID, alice, hot.ID)
		require.NoError(t, err)

		_, err = svc.UpdateFilter(ctx, tenantID, alice, hot.ID, UpdateFilterRequest{Version: got.Version - 1, Name: "Renamed"})
		assert.ErrorIs(t, err, shared.ErrOptimisticLock)

		updated, err := svc.UpdateFilter(ctx, tenantID, alice, hot.ID, UpdateFilterRequest{
			Version:  got.Version,
			Name:     "Renamed",
			Criteria: map[string]any{"stage": "meeting"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, "meeting", updated.Criteria["stage"])
	})

	t.Run("delete and restore", func(t *testing.T) {
		require.NoError(t, svc.DeleteFilter(ctx, tenantID, alice, hot.ID))

		trash, err := svc.ListDeletedFilters(ctx, tenantID, alice)
		require.NoError(t, err)
		require.Len(t, trash, 1)
		assert.Equal(t, hot.ID, trash[0].ID)

		_, err = svc.SetDefault(ctx, tenantID, alice, hot.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		restored, err := svc.RestoreFilter(ctx, tenantID, alice, hot.ID)
		require.NoError(t, err)
		assert.Nil(t, restored.DeletedAt)
		assert.False(t, restored.IsDefault)
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := svc.ListForUser(ctx, tenantID, alice, "deal")
		assert.Equal(t, "INVALID_ENTITY", shared.GetErrorCode(err))
	})
}

func TestPreferencesService_Settings(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	tenantID, userID := uuid.New(), uuid.New()

	defaults, err := svc.GetPreferences(ctx, tenantID, userID)
	require.NoError(t, err)
	assert.True(t, defaults.IsDefault)
	assert.Equal(t, "UTC", defaults.Timezone)
	assert.Equal(t, "board", defaults.DefaultPipelineView)

	saved, err := svc.UpdatePreferences(ctx, tenantID, userID, UpdatePreferencesRequest{
		Timezone:        "Europe/Berlin",
		Theme:           "dark",
		PipelineColumns: []string{"name", "stage", "name"},
	})
	require.NoError(t, err)
	assert.False(t, saved.IsDefault)
	assert.Equal(t, 1, saved.Version)
	assert.Equal(t, []string{"name", "stage"}, saved.PipelineColumns)
	assert.Equal(t, "2006-01-02", saved.DateFormat, "empty fields keep the current value")

	_, err = svc.UpdatePreferences(ctx, tenantID, userID, UpdatePreferencesRequest{Version: 7, Theme: "light"})
	assert.ErrorIs(t, err, shared.ErrOptimisticLock)

	_, err = svc.UpdatePreferences(ctx, tenantID, userID, UpdatePreferencesRequest{Version: 1, Timezone: "Mars/Olympus"})
	assert.Equal(t, "INVALID_TIMEZONE", shared.GetErrorCode(err))

	again, err := svc.UpdatePreferences(ctx, tenantID, userID, UpdatePreferencesRequest{Version: 1, Theme: "light"})
	require.NoError(t, err)
	assert.Equal(t, 2, again.Version)
	assert.Equal(t, "Europe/Berlin", again.Timezone)

	got, err := svc.GetPreferences(ctx, tenantID, userID)
	require.NoError(t, err)
	assert.Equal(t, "light", got.Theme)
}
