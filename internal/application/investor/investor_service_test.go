package investor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appactivity "github.com/investorcrm/backend/internal/application/activity"
	"github.com/investorcrm/backend/internal/domain/activity"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/domain/task"
	"github.com/investorcrm/backend/internal/infrastructure/cache"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc        *InvestorService
	repo       *persistence.GormInvestorRepository
	activities *persistence.GormActivityRepository
	tasks      *persistence.GormTaskRepository
	cache      *cache.MemoryCache
	events     *testutil.RecordingPublisher
	tenantID   uuid.UUID
	userID     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewSQLiteDB(t)
	repo := persistence.NewGormInvestorRepository(db)
	activities := persistence.NewGormActivityRepository(db)
	tasks := persistence.NewGormTaskRepository(db)
	events := testutil.NewRecordingPublisher()
	memCache := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = memCache.Close() })

	recorder := appactivity.NewActivityService(activities, repo, persistence.NewGormContactRepository(db), events, zap.NewNop())
	return &fixture{
		svc: NewInvestorService(
			repo, recorder, activities,
			persistence.NewGormMeetingRepository(db), tasks,
			memCache, time.Minute, events, nil, zap.NewNop(),
		),
		repo:       repo,
		activities: activities,
		tasks:      tasks,
		cache:      memCache,
		events:     events,
		tenantID:   uuid.New(),
		userID:     uuid.New(),
	}
}

func (f *fixture) create(t *testing.T, name string) *InvestorResponse {
	maxCheck := decimal.NewFromInt(500000)
	resp, err := f.svc.Create(context.Background(), f.tenantID, f.userID, CreateInvestorRequest{
		Name:         name,
		FirmName:     name + " Capital",
		Type:         "vc",
		CheckSizeMax: &maxCheck,
		Tags:         []string{"Seed", "seed", "fintech"},
	})
	require.NoError(t, err)
	return resp
}

func TestInvestorService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.create(t, "Jane Partner")
	assert.Equal(t, "target", resp.Stage)
	assert.Equal(t, "medium", resp.Priority)
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, 1, resp.Version)
	assert.Equal(t, []string{"seed", "fintech"}, resp.Tags)
	assert.Equal(t, &f.userID, resp.OwnerID, "creator owns the investor by default")
	assert.Equal(t, []string{investor.EventTypeInvestorCreated}, f.events.Types())

	t.Run("duplicate name and firm", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.tenantID, f.userID, CreateInvestorRequest{
			Name:     "jane partner",
			FirmName: "JANE PARTNER CAPITAL",
			Type:     "vc",
		})
		assert.Equal(t, "ALREADY_EXISTS", shared.GetErrorCode(err))
	})

	t.Run("same name in another tenant", func(t *testing.T) {
		_, err := f.svc.Create(ctx, uuid.New(), f.userID, CreateInvestorRequest{
			Name:     "Jane Partner",
			FirmName: "Jane Partner Capital",
			Type:     "vc",
		})
		assert.NoError(t, err)
	})

	t.Run("min above max", func(t *testing.T) {
		minCheck, maxCheck := decimal.NewFromInt(10), decimal.NewFromInt(5)
		_, err := f.svc.Create(ctx, f.tenantID, f.userID, CreateInvestorRequest{
			Name:         "Bad Range",
			Type:         "angel",
			CheckSizeMin: &minCheck,
			CheckSizeMax: &maxCheck,
		})
		assert.Equal(t, "INVALID_CHECK_SIZE", shared.GetErrorCode(err))
	})
}

func TestInvestorService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, "Jane Partner")

	followUp := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	updated, err := f.svc.Update(ctx, f.tenantID, f.userID, created.ID, UpdateInvestorRequest{
		Version:        created.Version,
		Name:           "Jane Partner",
		FirmName:       "Jane Partner Capital",
		Type:           "vc",
		Priority:       "high",
		Location:       "Berlin",
		NextFollowUpAt: &followUp,
		OwnerID:        created.OwnerID,
		CheckSizeMax:   &created.CheckSizeMax,
	})
	require.NoError(t, err)
	assert.Equal(t, "high", updated.Priority)
	assert.Equal(t, "Berlin", updated.Location)
	assert.Greater(t, updated.Version, created.Version)
	require.NotNil(t, updated.NextFollowUpAt)
	assert.True(t, updated.NextFollowUpAt.Equal(followUp))

	t.Run("stale version", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.tenantID, f.userID, created.ID, UpdateInvestorRequest{
			Version: created.Version,
			Name:    "Jane Partner",
			Type:    "vc",
		})
		assert.ErrorIs(t, err, shared.ErrOptimisticLock)
	})

	t.Run("rename onto another investor", func(t *testing.T) {
		other := f.create(t, "Bob Angel")
		_, err := f.svc.Update(ctx, f.tenantID, f.userID, other.ID, UpdateInvestorRequest{
			Version:  other.Version,
			Name:     "Jane Partner",
			FirmName: "Jane Partner Capital",
			Type:     "angel",
		})
		assert.Equal(t, "ALREADY_EXISTS", shared.GetErrorCode(err))
	})
}

func TestInvestorService_MoveStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, "Jane Partner")

	moved, err := f.svc.MoveStage(ctx, f.tenantID, f.userID, created.ID, MoveStageRequest{
		Version: created.Version,
		Stage:   "contacted",
	})
	require.NoError(t, err)
	assert.Equal(t, "contacted", moved.Stage)

	acts, err := f.activities.FindRecentByInvestor(ctx, f.tenantID, created.ID, 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, activity.ActivityTypeStageChange, acts[0].Type)
	assert.Equal(t, activity.SourceSystem, acts[0].Source)
	assert.Equal(t, "target", acts[0].Metadata["from"])
	assert.Equal(t, "contacted", acts[0].Metadata["to"])

	t.Run("stale version", func(t *testing.T) {
		_, err := f.svc.MoveStage(ctx, f.tenantID, f.userID, created.ID, MoveStageRequest{
			Version: created.Version,
			Stage:   "meeting",
		})
		assert.ErrorIs(t, err, shared.ErrOptimisticLock)
	})

	t.Run("commit needs an amount", func(t *testing.T) {
		_, err := f.svc.MoveStage(ctx, f.tenantID, f.userID, created.ID, MoveStageRequest{
			Version: moved.Version,
			Stage:   "committed",
		})
		assert.Equal(t, "COMMITMENT_REQUIRED", shared.GetErrorCode(err))
	})

	t.Run("pass needs a reason", func(t *testing.T) {
		_, err := f.svc.MoveStage(ctx, f.tenantID, f.userID, created.ID, MoveStageRequest{
			Version: moved.Version,
			Stage:   "passed",
		})
		assert.Equal(t, "PASS_REASON_REQUIRED", shared.GetErrorCode(err))
	})

	t.Run("unknown stage", func(t *testing.T) {
		_, err := f.svc.MoveStage(ctx, f.tenantID, f.userID, created.ID, MoveStageRequest{
			Version: moved.Version,
			Stage:   "closed",
		})
		assert.Equal(t, "INVALID_STAGE", shared.GetErrorCode(err))
	})
}

func TestInvestorService_BulkMoveStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "Alpha")
	b := f.create(t, "Beta")
	missing := uuid.New()

	resp, err := f.svc.BulkMoveStage(ctx, f.tenantID, f.userID, BulkMoveStageRequest{
		IDs:   []uuid.UUID{a.ID, b.ID, missing, a.ID},
		Stage: "contacted",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 3)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[2].Success)
	assert.Equal(t, "NOT_FOUND", resp.Results[2].Code)

	t.Run("too many", func(t *testing.T) {
		ids := make([]uuid.UUID, MaxBulkMove+1)
		for i := range ids {
			ids[i] = uuid.New()
		}
		_, err := f.svc.BulkMoveStage(ctx, f.tenantID, f.userID, BulkMoveStageRequest{IDs: ids, Stage: "contacted"})
		assert.Equal(t, "INVALID_INPUT", shared.GetErrorCode(err))
	})
}

func TestInvestorService_DeleteRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, "Jane Partner")

	require.NoError(t, f.svc.Delete(ctx, f.tenantID, f.userID, created.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.tenantID, f.userID, created.ID), shared.ErrAlreadyDeleted)

	live, total, err := f.svc.List(ctx, f.tenantID, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, live)
	assert.Zero(t, total)

	trash, total, err := f.svc.ListDeleted(ctx, f.tenantID, ListFilter{})
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.EqualValues(t, 1, total)
	assert.NotNil(t, trash[0].DeletedAt)

	_, err = f.svc.MoveStage(ctx, f.tenantID, f.userID, created.ID, MoveStageRequest{Version: trash[0].Version, Stage: "contacted"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	restored, err := f.svc.Restore(ctx, f.tenantID, f.userID, created.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)

	_, err = f.svc.Restore(ctx, f.tenantID, f.userID, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotDeleted)
}

func TestInvestorService_PipelineSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "Alpha")
	f.create(t, "Beta")

	summary, err := f.svc.PipelineSummary(ctx, f.tenantID)
	require.NoError(t, err)
	require.Len(t, summary.Stages, len(investor.AllStages()))
	assert.Equal(t, "target", summary.Stages[0].Stage)
	assert.EqualValues(t, 2, summary.Stages[0].Count)
	assert.EqualValues(t, 2, summary.TotalInvestors)
	assert.True(t, summary.TotalCheckSize.Equal(decimal.NewFromInt(1000000)))

	var cached PipelineSummaryResponse
	ok, err := f.cache.Get(ctx, pipelineKey(f.tenantID), &cached)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("stage move invalidates the cache", func(t *testing.T) {
		_, err := f.svc.MoveStage(ctx, f.tenantID, f.userID, a.ID, MoveStageRequest{Version: a.Version, Stage: "contacted"})
		require.NoError(t, err)

		ok, err := f.cache.Get(ctx, pipelineKey(f.tenantID), &cached)
		require.NoError(t, err)
		assert.False(t, ok)

		summary, err := f.svc.PipelineSummary(ctx, f.tenantID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, summary.Stages[0].Count)
		assert.EqualValues(t, 1, summary.Stages[1].Count)
	})
}

func TestInvestorService_Timeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, "Jane Partner")

	due := time.Now().Add(72 * time.Hour)
	tk, err := task.NewTask(f.tenantID, task.Details{Title: "Send deck", InvestorID: &created.ID, DueAt: &due})
	require.NoError(t, err)
	require.NoError(t, f.tasks.Save(ctx, tk))

	_, err = f.svc.MoveStage(ctx, f.tenantID, f.userID, created.ID, MoveStageRequest{Version: created.Version, Stage: "contacted"})
	require.NoError(t, err)

	items, err := f.svc.Timeline(ctx, f.tenantID, created.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, TimelineTask, items[0].Kind, "future due date sorts first")
	assert.Equal(t, TimelineActivity, items[1].Kind)

	_, err = f.svc.Timeline(ctx, uuid.New(), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
