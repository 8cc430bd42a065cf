package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/domain/task"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingPurger struct{}

func (failingPurger) PurgeDeletedBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestPurgeService_Purge(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	investors := persistence.NewGormInvestorRepository(db)
	tasks := persistence.NewGormTaskRepository(db)
	tenantID := uuid.New()
	now := time.Now()

	trashed := func(name string, deletedAgo time.Duration) *investor.Investor {
		inv, err := investor.NewInvestor(tenantID, name, investor.InvestorTypeAngel)
		require.NoError(t, err)
		if deletedAgo > 0 {
			at := now.Add(-deletedAgo)
			inv.DeletedAt = &at
		}
		require.NoError(t, investors.Save(ctx, inv))
		return inv
	}
	old := trashed("Old Trash", 40*24*time.Hour)
	recent := trashed("Recent Trash", 2*24*time.Hour)
	live := trashed("Live", 0)

	oldTask, err := task.NewTask(tenantID, task.Details{Title: "Stale follow-up"})
	require.NoError(t, err)
	at := now.Add(-45 * 24 * time.Hour)
	oldTask.DeletedAt = &at
	require.NoError(t, tasks.Save(ctx, oldTask))

	svc := NewPurgeService(zap.NewNop(),
		Target{Name: "tasks", Purger: tasks},
		Target{Name: "investors", Purger: investors},
	)
	result, err := svc.Purge(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Total)
	assert.EqualValues(t, 1, result.Removed["investors"])
	assert.EqualValues(t, 1, result.Removed["tasks"])

	_, err = investors.FindByIDIncludingDeleted(ctx, tenantID, old.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = investors.FindByIDIncludingDeleted(ctx, tenantID, recent.ID)
	assert.NoError(t, err, "still inside the retention window")
	_, err = investors.FindByIDForTenant(ctx, tenantID, live.ID)
	assert.NoError(t, err)

	n, err := svc.PurgeDeleted(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "second run finds nothing")
}

func TestPurgeService_StopsOnFailure(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := NewPurgeService(zap.NewNop(),
		Target{Name: "tasks", Purger: persistence.NewGormTaskRepository(db)},
		Target{Name: "contacts", Purger: failingPurger{}},
		Target{Name: "investors", Purger: persistence.NewGormInvestorRepository(db)},
	)

	result, err := svc.Purge(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge contacts")
	assert.Contains(t, result.Removed, "tasks")
	assert.NotContains(t, result.Removed, "investors")

	_, err = svc.PurgeDeleted(context.Background(), time.Now())
	assert.Error(t, err)
}
