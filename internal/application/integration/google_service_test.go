package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appactivity "github.com/investorcrm/backend/internal/application/activity"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/integration"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/meeting"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/google"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockGoogleAPI is a mock implementation of GoogleAPI
type MockGoogleAPI struct {
	mock.Mock
	enabled bool
}

func (m *MockGoogleAPI) Enabled() bool { return m.enabled }

func (m *MockGoogleAPI) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (m *MockGoogleAPI) Exchange(ctx context.Context, code string) (integration.Token, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(integration.Token), args.Error(1)
}

func (m *MockGoogleAPI) Refresh(ctx context.Context, refreshToken string) (integration.Token, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(integration.Token), args.Error(1)
}

func (m *MockGoogleAPI) Profile(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

func (m *MockGoogleAPI) ListMessages(ctx context.Context, accessToken string, since time.Time, limit int) ([]google.EmailMessage, error) {
	args := m.Called(ctx, accessToken, since, limit)
	return args.Get(0).([]google.EmailMessage), args.Error(1)
}

func (m *MockGoogleAPI) ListEvents(ctx context.Context, accessToken string, since time.Time) ([]google.CalendarEvent, error) {
	args := m.Called(ctx, accessToken, since)
	return args.Get(0).([]google.CalendarEvent), args.Error(1)
}

func (m *MockGoogleAPI) CreateEvent(ctx context.Context, accessToken string, ev google.CalendarEvent) (string, error) {
	args := m.Called(ctx, accessToken, ev)
	return args.String(0), args.Error(1)
}

type fixture struct {
	svc         *GoogleService
	api         *MockGoogleAPI
	state       *auth.StateSigner
	connections *persistence.GormGoogleConnectionRepository
	activities  *persistence.GormActivityRepository
	meetings    *persistence.GormMeetingRepository
	tenantID    uuid.UUID
	userID      uuid.UUID
	investorID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	investors := persistence.NewGormInvestorRepository(db)
	contacts := persistence.NewGormContactRepository(db)
	activities := persistence.NewGormActivityRepository(db)
	meetings := persistence.NewGormMeetingRepository(db)
	connections := persistence.NewGormGoogleConnectionRepository(db)
	events := testutil.NewRecordingPublisher()
	api := &MockGoogleAPI{enabled: true}
	state := auth.NewStateSigner("state-secret-for-tests-only-32-chars", "investorcrm-test")

	recorder := appactivity.NewActivityService(activities, investors, contacts, events, zap.NewNop())
	f := &fixture{
		svc: NewGoogleService(connections, contacts, meetings, recorder, api, state,
			GoogleServiceConfig{SyncLookback: 7 * 24 * time.Hour}, events, nil, zap.NewNop()),
		api:         api,
		state:       state,
		connections: connections,
		activities:  activities,
		meetings:    meetings,
		tenantID:    uuid.New(),
		userID:      uuid.New(),
	}

	inv, err := investor.NewInvestor(f.tenantID, "Jane Park", investor.InvestorTypeVC)
	require.NoError(t, err)
	require.NoError(t, investors.Save(ctx, inv))
	f.investorID = inv.ID

	c, err := contact.NewContact(f.tenantID, &inv.ID, contact.Details{FirstName: "Jane", LastName: "Park", Email: "jane@sequoia.com"})
	require.NoError(t, err)
	require.NoError(t, contacts.Save(ctx, c))

	unlinked, err := contact.NewContact(f.tenantID, nil, contact.Details{FirstName: "Sam", Email: "sam@friends.io"})
	require.NoError(t, err)
	require.NoError(t, contacts.Save(ctx, unlinked))
	return f
}

func (f *fixture) connect(t *testing.T, scopes ...string) *integration.GoogleConnection {
	conn, err := integration.NewGoogleConnection(f.tenantID, f.userID, "founder@startup.io", integration.Token{
		AccessToken: "access-1", RefreshToken: "refresh-1", Expiry: time.Now().Add(time.Hour), Scopes: scopes,
	})
	require.NoError(t, err)
	require.NoError(t, f.connections.Save(context.Background(), conn))
	return conn
}

func TestGoogleService_Callback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	authURL, err := f.svc.AuthURL(ctx, f.tenantID, f.userID)
	require.NoError(t, err)
	assert.Contains(t, authURL, "state=")

	state, err := f.state.Sign(f.tenantID, f.userID)
	require.NoError(t, err)

	f.api.On("Exchange", mock.Anything, "code-1").Return(integration.Token{
		AccessToken: "access-1", RefreshToken: "refresh-1", Expiry: time.Now().Add(time.Hour),
		Scopes: []string{integration.ScopeGmailReadonly, integration.ScopeCalendar},
	}, nil)
	f.api.On("Profile", mock.Anything, "access-1").Return("Founder@Startup.io", nil)

	resp, err := f.svc.HandleCallback(ctx, "code-1", state)
	require.NoError(t, err)
	assert.True(t, resp.Connected)
	assert.Equal(t, "founder@startup.io", resp.Email)
	assert.True(t, resp.GmailEnabled)
	assert.True(t, resp.CalendarEnabled)

	t.Run("tampered state", func(t *testing.T) {
		_, err := f.svc.HandleCallback(ctx, "code-1", state+"x")
		assert.Equal(t, "INVALID_STATE", shared.GetErrorCode(err))
	})

	t.Run("disconnect", func(t *testing.T) {
		require.NoError(t, f.svc.Disconnect(ctx, f.tenantID, f.userID))
		status, err := f.svc.Status(ctx, f.tenantID, f.userID)
		require.NoError(t, err)
		assert.False(t, status.Connected)
		assert.ErrorIs(t, f.svc.Disconnect(ctx, f.tenantID, f.userID), shared.ErrNotFound)
	})
}

func TestGoogleService_Disabled(t *testing.T) {
	f := newFixture(t)
	f.api.enabled = false

	_, err := f.svc.AuthURL(context.Background(), f.tenantID, f.userID)
	assert.ErrorIs(t, err, shared.ErrIntegrationDisabled)

	n, err := f.svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGoogleService_SyncGmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, integration.ScopeGmailReadonly)

	sent := time.Now().Add(-2 * time.Hour).UTC().Truncate(time.Second)
	msgs := []google.EmailMessage{
		{ID: "m1", ThreadID: "t1", From: "jane@sequoia.com", To: []string{"founder@startup.io"}, Subject: "Re: Seed round", Snippet: "Happy to chat", Date: sent},
		{ID: "m2", From: "founder@startup.io", To: []string{"sam@friends.io"}, Subject: "Dinner", Date: sent},
		{ID: "m3", From: "stranger@nowhere.com", To: []string{"founder@startup.io"}, Subject: "Hi", Date: sent},
	}
	f.api.On("ListMessages", mock.Anything, "access-1", mock.AnythingOfType("time.Time"), maxMessagesPerSync).Return(msgs, nil)

	result, err := f.svc.Sync(ctx, f.tenantID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EmailsLogged, "only contacts linked to an investor produce activities")
	assert.Zero(t, result.MeetingsCreated)

	recent, err := f.activities.FindRecentByInvestor(ctx, f.tenantID, f.investorID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Re: Seed round", recent[0].Subject)
	assert.Equal(t, "m1", recent[0].ExternalID)
	assert.Equal(t, "inbound", recent[0].Metadata["direction"])

	again, err := f.svc.Sync(ctx, f.tenantID, f.userID)
	require.NoError(t, err)
	assert.Zero(t, again.EmailsLogged, "messages are deduplicated by id")

	conn, err := f.connections.FindByUser(ctx, f.tenantID, f.userID)
	require.NoError(t, err)
	assert.NotNil(t, conn.LastGmailSyncAt)
	assert.Nil(t, conn.LastCalendarSyncAt)
}

func TestGoogleService_SyncCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect(t, integration.ScopeCalendar)

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Minute)
	ev := google.CalendarEvent{
		ID: "evt-1", Summary: "Partner meeting", Start: start, End: start.Add(45 * time.Minute),
		Attendees: []string{"jane@sequoia.com"},
	}
	other := google.CalendarEvent{ID: "evt-2", Summary: "Dentist", Start: start, End: start.Add(time.Hour)}

	f.api.On("ListEvents", mock.Anything, "access-1", mock.AnythingOfType("time.Time")).
		Return([]google.CalendarEvent{ev, other}, nil).Once()
	result, err := f.svc.Sync(ctx, f.tenantID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.MeetingsCreated)

	m, err := f.meetings.FindByCalendarEventID(ctx, f.tenantID, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, f.investorID, m.InvestorID)
	assert.Equal(t, 45, m.DurationMinutes)

	moved := ev
	moved.Start = start.Add(time.Hour)
	moved.End = moved.Start.Add(30 * time.Minute)
	f.api.On("ListEvents", mock.Anything, "access-1", mock.AnythingOfType("time.Time")).
		Return([]google.CalendarEvent{moved}, nil).Once()
	result, err = f.svc.Sync(ctx, f.tenantID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.MeetingsUpdated)
	assert.Zero(t, result.MeetingsCreated)

	cancelled := moved
	cancelled.Cancelled = true
	f.api.On("ListEvents", mock.Anything, "access-1", mock.AnythingOfType("time.Time")).
		Return([]google.CalendarEvent{cancelled}, nil).Once()
	_, err = f.svc.Sync(ctx, f.tenantID, f.userID)
	require.NoError(t, err)

	m, err = f.meetings.FindByCalendarEventID(ctx, f.tenantID, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, meeting.StatusCancelled, m.Status)
	assert.True(t, m.ScheduledAt.Equal(moved.Start))
}

func TestGoogleService_TokenRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conn := f.connect(t, integration.ScopeGmailReadonly)
	conn.Expiry = time.Now().Add(-time.Minute)
	require.NoError(t, f.connections.Save(ctx, conn))

	f.api.On("Refresh", mock.Anything, "refresh-1").Return(integration.Token{AccessToken: "access-2", Expiry: time.Now().Add(time.Hour)}, nil).Once()
	f.api.On("ListMessages", mock.Anything, "access-2", mock.AnythingOfType("time.Time"), maxMessagesPerSync).Return([]google.EmailMessage{}, nil)

	_, err := f.svc.Sync(ctx, f.tenantID, f.userID)
	require.NoError(t, err)

	stored, err := f.connections.FindByUser(ctx, f.tenantID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, "access-2", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)

	t.Run("refresh failure is recorded", func(t *testing.T) {
		stored.Expiry = time.Now().Add(-time.Minute)
		require.NoError(t, f.connections.Save(ctx, stored))
		f.api.On("Refresh", mock.Anything, "refresh-1").Return(integration.Token{}, errors.New("invalid_grant")).Once()

		_, err := f.svc.Sync(ctx, f.tenantID, f.userID)
		assert.Equal(t, "INTEGRATION_ERROR", shared.GetErrorCode(err))

		failed, err := f.connections.FindByUser(ctx, f.tenantID, f.userID)
		require.NoError(t, err)
		assert.Equal(t, "invalid_grant", failed.LastError)
	})
}

func TestGoogleService_CreateCalendarEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := meeting.NewMeeting(f.tenantID, f.investorID, meeting.Details{
		Title: "Intro call", ScheduledAt: time.Now().Add(time.Hour), DurationMinutes: 30,
		Attendees: []string{"jane@sequoia.com"},
	})
	require.NoError(t, err)

	_, err = f.svc.CreateCalendarEvent(ctx, f.tenantID, f.userID, m)
	assert.Equal(t, "GOOGLE_NOT_CONNECTED", shared.GetErrorCode(err))

	f.connect(t, integration.ScopeCalendar)
	f.api.On("CreateEvent", mock.Anything, "access-1", mock.MatchedBy(func(ev google.CalendarEvent) bool {
		return ev.Summary == "Intro call" && ev.End.Sub(ev.Start) == 30*time.Minute && len(ev.Attendees) == 1
	})).Return("evt-9", nil)

	id, err := f.svc.CreateCalendarEvent(ctx, f.tenantID, f.userID, m)
	require.NoError(t, err)
	assert.Equal(t, "evt-9", id)
	f.api.AssertExpectations(t)
}
