package investor

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvestor(t *testing.T) *Investor {
	t.Helper()
	inv, err := NewInvestor(uuid.New(), "Jane Park", InvestorTypeVC)
	require.NoError(t, err)
	return inv
}

func TestNewInvestor(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates investor in target stage", func(t *testing.T) {
		inv, err := NewInvestor(tenantID, "  Jane Park ", InvestorTypeVC)

		require.NoError(t, err)
		assert.Equal(t, "Jane Park", inv.Name)
		assert.Equal(t, StageTarget, inv.Stage)
		assert.Equal(t, PriorityMedium, inv.Priority)
		assert.Equal(t, "USD", inv.Currency)
		assert.Equal(t, 1, inv.Version)
		assert.Equal(t, tenantID, inv.TenantID)
		assert.True(t, inv.CommitmentAmount.IsZero())
		assert.Empty(t, inv.GetDomainEvents())

		inv.MarkCreated()
		require.Len(t, inv.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeInvestorCreated, inv.GetDomainEvents()[0].EventType())
	})

	t.Run("fails with empty name", func(t *testing.T) {
		inv, err := NewInvestor(tenantID, "   ", InvestorTypeAngel)
		assert.Nil(t, inv)
		assert.Equal(t, "INVALID_NAME", shared.GetErrorCode(err))
	})

	t.Run("fails with unknown type", func(t *testing.T) {
		_, err := NewInvestor(tenantID, "Jane", InvestorType("hedge"))
		assert.Equal(t, "INVALID_INVESTOR_TYPE", shared.GetErrorCode(err))
	})
}

func TestInvestor_ApplyProfile(t *testing.T) {
	t.Run("records changed fields and bumps version", func(t *testing.T) {
		inv := newTestInvestor(t)

		changes, err := inv.ApplyProfile(Profile{
			Name:     "Jane Park",
			FirmName: "Northwind Ventures",
			Type:     InvestorTypeVC,
			Priority: PriorityHigh,
			Website:  "https://northwind.vc",
			Tags:     []string{"Seed", "fintech", "seed"},
		})

		require.NoError(t, err)
		assert.Contains(t, changes, "firm_name")
		assert.Contains(t, changes, "priority")
		assert.Contains(t, changes, "tags")
		assert.NotContains(t, changes, "name")
		assert.Equal(t, []string{"seed", "fintech"}, inv.Tags)
		assert.Equal(t, 2, inv.Version)
		assert.Len(t, inv.GetDomainEvents(), 1)
	})

	t.Run("no-op update keeps version", func(t *testing.T) {
		inv := newTestInvestor(t)
		_, err := inv.ApplyProfile(Profile{Name: inv.Name, Type: inv.Type})
		require.NoError(t, err)
		assert.Equal(t, 1, inv.Version)
		assert.Empty(t, inv.GetDomainEvents())
	})

	t.Run("rejects invalid website", func(t *testing.T) {
		inv := newTestInvestor(t)
		_, err := inv.ApplyProfile(Profile{Name: "Jane", Type: InvestorTypeVC, Website: "northwind"})
		assert.Equal(t, "INVALID_URL", shared.GetErrorCode(err))
	})

	t.Run("rejects edits in trash", func(t *testing.T) {
		inv := newTestInvestor(t)
		require.NoError(t, inv.Delete())
		_, err := inv.ApplyProfile(Profile{Name: "Jane", Type: InvestorTypeVC})
		assert.Equal(t, "INVESTOR_DELETED", shared.GetErrorCode(err))
	})
}

func TestInvestor_SetCheckSize(t *testing.T) {
	inv := newTestInvestor(t)

	require.NoError(t, inv.SetCheckSize(decimal.NewFromInt(250000), decimal.NewFromInt(1000000)))
	assert.True(t, inv.CheckSizeMax.Equal(decimal.NewFromInt(1000000)))

	err := inv.SetCheckSize(decimal.NewFromInt(2000000), decimal.NewFromInt(1000000))
	assert.Equal(t, "INVALID_CHECK_SIZE", shared.GetErrorCode(err))

	err = inv.SetCheckSize(decimal.NewFromInt(-1), decimal.Zero)
	assert.Equal(t, "INVALID_CHECK_SIZE", shared.GetErrorCode(err))
}

func TestInvestor_MoveStage(t *testing.T) {
	t.Run("moves forward and emits event", func(t *testing.T) {
		inv := newTestInvestor(t)

		require.NoError(t, inv.MoveStage(StageMeeting, "", nil))

		assert.Equal(t, StageMeeting, inv.Stage)
		assert.Equal(t, 2, inv.Version)
		events := inv.GetDomainEvents()
		require.Len(t, events, 1)
		evt, ok := events[0].(*InvestorStageChangedEvent)
		require.True(t, ok)
		assert.Equal(t, StageTarget, evt.FromStage)
		assert.Equal(t, StageMeeting, evt.ToStage)
		assert.Equal(t, 2, evt.AggregateVersion())
	})

	t.Run("rejects backwards move", func(t *testing.T) {
		inv := newTestInvestor(t)
		require.NoError(t, inv.MoveStage(StageMeeting, "", nil))
		err := inv.MoveStage(StageContacted, "", nil)
		assert.Equal(t, "INVALID_STAGE_TRANSITION", shared.GetErrorCode(err))
	})

	t.Run("commit requires positive amount", func(t *testing.T) {
		inv := newTestInvestor(t)
		err := inv.MoveStage(StageCommitted, "", nil)
		assert.Equal(t, "COMMITMENT_REQUIRED", shared.GetErrorCode(err))
		assert.Equal(t, StageTarget, inv.Stage)

		amount := decimal.NewFromInt(500000)
		require.NoError(t, inv.MoveStage(StageCommitted, "", &amount))
		assert.True(t, inv.CommitmentAmount.Equal(amount))
		assert.True(t, inv.Stage.IsTerminal())
	})

	t.Run("pass requires reason and can be reopened", func(t *testing.T) {
		inv := newTestInvestor(t)
		err := inv.MoveStage(StagePassed, " ", nil)
		assert.Equal(t, "PASS_REASON_REQUIRED", shared.GetErrorCode(err))

		require.NoError(t, inv.MoveStage(StagePassed, "Too early", nil))
		assert.Equal(t, "Too early", inv.PassedReason)

		require.NoError(t, inv.MoveStage(StageTarget, "", nil))
		assert.Empty(t, inv.PassedReason)
	})

	t.Run("unknown stage", func(t *testing.T) {
		inv := newTestInvestor(t)
		err := inv.MoveStage(Stage("won"), "", nil)
		assert.Equal(t, "INVALID_STAGE", shared.GetErrorCode(err))
	})
}

func TestInvestor_SoftDelete(t *testing.T) {
	inv := newTestInvestor(t)

	require.NoError(t, inv.Delete())
	assert.True(t, inv.IsDeleted())
	assert.ErrorIs(t, inv.Delete(), shared.ErrAlreadyDeleted)

	require.NoError(t, inv.Restore())
	assert.False(t, inv.IsDeleted())
	assert.ErrorIs(t, inv.Restore(), shared.ErrNotDeleted)

	types := []string{}
	for _, e := range inv.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, []string{EventTypeInvestorDeleted, EventTypeInvestorRestored}, types)
}

func TestInvestor_RecordContact(t *testing.T) {
	inv := newTestInvestor(t)
	now := time.Now()

	assert.True(t, inv.RecordContact(now))
	assert.False(t, inv.RecordContact(now.Add(-time.Hour)))
	assert.True(t, inv.RecordContact(now.Add(time.Hour)))
}

func TestInvestor_Names(t *testing.T) {
	inv := newTestInvestor(t)
	assert.Equal(t, "Jane Park", inv.DisplayName())
	assert.Equal(t, "Jane Park", inv.OrganizationName())

	inv.FirmName = "Northwind Ventures"
	assert.Equal(t, "Jane Park (Northwind Ventures)", inv.DisplayName())
	assert.Equal(t, "Northwind Ventures", inv.OrganizationName())
}

func TestInvestor_IsFollowUpDue(t *testing.T) {
	inv := newTestInvestor(t)
	now := time.Now()
	assert.False(t, inv.IsFollowUpDue(now))

	past := now.Add(-time.Hour)
	require.NoError(t, inv.ScheduleFollowUp(&past))
	assert.True(t, inv.IsFollowUpDue(now))

	require.NoError(t, inv.MoveStage(StagePassed, "Not a fit", nil))
	assert.False(t, inv.IsFollowUpDue(now))
}

func TestNewInvestorFromProfile(t *testing.T) {
	tenantID := uuid.New()

	inv, err := NewInvestorFromProfile(tenantID, Profile{
		Name:     "Jane Partner",
		FirmName: "Acme Ventures",
		Type:     InvestorTypeVC,
		Priority: PriorityHigh,
		Tags:     []string{"Seed", "seed", "fintech"},
	}, decimal.NewFromInt(250000), decimal.NewFromInt(1000000))
	require.NoError(t, err)

	assert.Equal(t, 1, inv.Version)
	assert.Empty(t, inv.GetDomainEvents())
	assert.Equal(t, StageTarget, inv.Stage)
	assert.Equal(t, PriorityHigh, inv.Priority)
	assert.Equal(t, "Acme Ventures", inv.FirmName)
	assert.True(t, inv.CheckSizeMax.Equal(decimal.NewFromInt(1000000)))

	_, err = NewInvestorFromProfile(tenantID, Profile{Name: "X", Type: InvestorTypeVC},
		decimal.NewFromInt(10), decimal.NewFromInt(5))
	assert.Equal(t, "INVALID_CHECK_SIZE", shared.GetErrorCode(err))
}
