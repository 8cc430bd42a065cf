package contact

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc       *ContactService
	repo      *persistence.GormContactRepository
	investors *persistence.GormInvestorRepository
	events    *testutil.RecordingPublisher
	tenantID  uuid.UUID
	userID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewSQLiteDB(t)
	repo := persistence.NewGormContactRepository(db)
	investors := persistence.NewGormInvestorRepository(db)
	events := testutil.NewRecordingPublisher()
	return &fixture{
		svc:       NewContactService(repo, investors, events, zap.NewNop()),
		repo:      repo,
		investors: investors,
		events:    events,
		tenantID:  uuid.New(),
		userID:    uuid.New(),
	}
}

func (f *fixture) investor(t *testing.T, name string) uuid.UUID {
	inv, err := investor.NewInvestor(f.tenantID, name, investor.InvestorTypeVC)
	require.NoError(t, err)
	require.NoError(t, f.investors.Save(context.Background(), inv))
	return inv.ID
}

func TestContactService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invID := f.investor(t, "Sequoia")

	resp, err := f.svc.Create(ctx, f.tenantID, f.userID, CreateContactRequest{
		InvestorID: &invID,
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      " Jane.Doe@Sequoia.com ",
		IsPrimary:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@sequoia.com", resp.Email)
	assert.Equal(t, "Jane Doe", resp.FullName)
	assert.True(t, resp.IsPrimary)
	assert.Contains(t, f.events.Types(), contact.EventTypeContactCreated)

	t.Run("email is unique per tenant", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.tenantID, f.userID, CreateContactRequest{
			FirstName: "Other",
			Email:     "JANE.DOE@sequoia.com",
		})
		assert.Equal(t, "ALREADY_EXISTS", shared.GetErrorCode(err))
	})

	t.Run("unknown investor", func(t *testing.T) {
		missing := uuid.New()
		_, err := f.svc.Create(ctx, f.tenantID, f.userID, CreateContactRequest{
			InvestorID: &missing,
			FirstName:  "Lost",
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("name required", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.tenantID, f.userID, CreateContactRequest{Email: "x@y.com"})
		assert.Equal(t, "INVALID_NAME", shared.GetErrorCode(err))
	})
}

func TestContactService_SetPrimary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invID := f.investor(t, "Sequoia")

	first, err := f.svc.Create(ctx, f.tenantID, f.userID, CreateContactRequest{InvestorID: &invID, FirstName: "Ann", IsPrimary: true})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.tenantID, f.userID, CreateContactRequest{InvestorID: &invID, FirstName: "Ben"})
	require.NoError(t, err)

	_, err = f.svc.SetPrimary(ctx, f.tenantID, f.userID, second.ID)
	require.NoError(t, err)

	contacts, err := f.svc.ListByInvestor(ctx, f.tenantID, invID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, second.ID, contacts[0].ID)
	assert.True(t, contacts[0].IsPrimary)
	assert.Equal(t, first.ID, contacts[1].ID)
	assert.False(t, contacts[1].IsPrimary)

	t.Run("unlinked contact cannot be primary", func(t *testing.T) {
		loose, err := f.svc.Create(ctx, f.tenantID, f.userID, CreateContactRequest{FirstName: "Cat"})
		require.NoError(t, err)
		_, err = f.svc.SetPrimary(ctx, f.tenantID, f.userID, loose.ID)
		assert.Equal(t, "NO_INVESTOR", shared.GetErrorCode(err))
	})
}

func TestContactService_UpdateDeleteRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invID := f.investor(t, "Sequoia")

	created, err := f.svc.Create(ctx, f.tenantID, f.userID, CreateContactRequest{InvestorID: &invID, FirstName: "Ann", Email: "ann@seq.com"})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, f.tenantID, f.userID, created.ID, UpdateContactRequest{
		Version:    created.Version,
		InvestorID: &invID,
		FirstName:  "Ann",
		LastName:   "Lee",
		Email:      "ann@seq.com",
		Title:      "Partner",
	})
	require.NoError(t, err)
	assert.Equal(t, "Partner", updated.Title)

	_, err = f.svc.Update(ctx, f.tenantID, f.userID, created.ID, UpdateContactRequest{Version: created.Version, FirstName: "Ann"})
	assert.ErrorIs(t, err, shared.ErrOptimisticLock)

	require.NoError(t, f.svc.Delete(ctx, f.tenantID, f.userID, created.ID))

	// the email is free again while the original is in the trash
	_, err = f.svc.Create(ctx, f.tenantID, f.userID, CreateContactRequest{FirstName: "Copy", Email: "ann@seq.com"})
	require.NoError(t, err)

	_, err = f.svc.Restore(ctx, f.tenantID, f.userID, created.ID)
	assert.Equal(t, "ALREADY_EXISTS", shared.GetErrorCode(err))
}
