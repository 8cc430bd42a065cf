package integration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/activity"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/integration"
	"github.com/investorcrm/backend/internal/domain/meeting"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/google"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	defaultSyncLookback = 30 * 24 * time.Hour
	maxMessagesPerSync  = 200
)

var errNotConnected = shared.NewDomainError("GOOGLE_NOT_CONNECTED", "Connect your Google account first")

// GoogleAPI is the subset of the Google client used by the service
type GoogleAPI interface {
	Enabled() bool
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (integration.Token, error)
	Refresh(ctx context.Context, refreshToken string) (integration.Token, error)
	Profile(ctx context.Context, accessToken string) (string, error)
	ListMessages(ctx context.Context, accessToken string, since time.Time, limit int) ([]google.EmailMessage, error)
	ListEvents(ctx context.Context, accessToken string, since time.Time) ([]google.CalendarEvent, error)
	CreateEvent(ctx context.Context, accessToken string, ev google.CalendarEvent) (string, error)
}

// ActivityRecorder persists system-generated timeline entries
type ActivityRecorder interface {
	Record(ctx context.Context, a *activity.Activity) (bool, error)
}

// GoogleServiceConfig tunes GoogleService
type GoogleServiceConfig struct {
	SyncLookback time.Duration // how far back the first sync reaches
}

// GoogleService links Google accounts and syncs Gmail and Calendar into the CRM
type GoogleService struct {
	connections integration.GoogleConnectionRepository
	contacts    contact.ContactRepository
	meetings    meeting.MeetingRepository
	recorder    ActivityRecorder
	api         GoogleAPI
	state       *auth.StateSigner
	cfg         GoogleServiceConfig
	events      shared.EventPublisher
	metrics     *telemetry.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewGoogleService creates a new GoogleService
func NewGoogleService(
	connections integration.GoogleConnectionRepository,
	contacts contact.ContactRepository,
	meetings meeting.MeetingRepository,
	recorder ActivityRecorder,
	api GoogleAPI,
	state *auth.StateSigner,
	cfg GoogleServiceConfig,
	events shared.EventPublisher,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *GoogleService {
	if cfg.SyncLookback <= 0 {
		cfg.SyncLookback = defaultSyncLookback
	}
	return &GoogleService{
		connections: connections,
		contacts:    contacts,
		meetings:    meetings,
		recorder:    recorder,
		api:         api,
		state:       state,
		cfg:         cfg,
		events:      events,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// AuthURL returns the consent URL for the caller. The state binds the callback to tenant and user.
func (s *GoogleService) AuthURL(ctx context.Context, tenantID, userID uuid.UUID) (string, error) {
	if !s.api.Enabled() {
		return "", shared.ErrIntegrationDisabled
	}
	state, err := s.state.Sign(tenantID, userID)
	if err != nil {
		return "", err
	}
	return s.api.AuthURL(state), nil
}

// HandleCallback exchanges the authorization code and stores the connection
func (s *GoogleService) HandleCallback(ctx context.Context, code, state string) (resp *ConnectionResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "GoogleService", "HandleCallback")
	defer telemetry.End(span, &err)

	if !s.api.Enabled() {
		return nil, shared.ErrIntegrationDisabled
	}
	tenantID, userID, err := s.state.Verify(state)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Authorization request is invalid or has expired, start again")
	}
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Authorization code is missing")
	}

	tok, err := s.api.Exchange(ctx, code)
	if err != nil {
		return nil, shared.WrapDomainError("INTEGRATION_ERROR", "Google rejected the authorization code", err)
	}
	email, err := s.api.Profile(ctx, tok.AccessToken)
	if err != nil {
		return nil, shared.WrapDomainError("INTEGRATION_ERROR", "Could not read the Google profile", err)
	}

	conn, err := s.connections.FindByUser(ctx, tenantID, userID)
	switch {
	case err == nil:
		if err := conn.Relink(email, tok); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		conn, err = integration.NewGoogleConnection(tenantID, userID, email, tok)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Info("Google account connected",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.Strings("scopes", conn.Scopes),
	)
	out := ToConnectionResponse(conn)
	return &out, nil
}

// Status returns the caller's connection, or a disconnected response
func (s *GoogleService) Status(ctx context.Context, tenantID, userID uuid.UUID) (*ConnectionResponse, error) {
	conn, err := s.connections.FindByUser(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &ConnectionResponse{}, nil
		}
		return nil, err
	}
	out := ToConnectionResponse(conn)
	return &out, nil
}

// Disconnect forgets the caller's Google tokens
func (s *GoogleService) Disconnect(ctx context.Context, tenantID, userID uuid.UUID) error {
	if err := s.connections.Delete(ctx, tenantID, userID); err != nil {
		return err
	}
	s.logger.Info("Google account disconnected",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

// Sync runs Gmail and Calendar sync for the caller
func (s *GoogleService) Sync(ctx context.Context, tenantID, userID uuid.UUID) (*SyncResult, error) {
	if !s.api.Enabled() {
		return nil, shared.ErrIntegrationDisabled
	}
	conn, err := s.connections.FindByUser(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errNotConnected
		}
		return nil, err
	}
	result, err := s.syncConnection(ctx, conn)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SyncAll syncs every connection. A failing connection is recorded and the rest continue.
func (s *GoogleService) SyncAll(ctx context.Context) (int, error) {
	if !s.api.Enabled() {
		return 0, nil
	}
	conns, err := s.connections.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range conns {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		result, err := s.syncConnection(ctx, &conns[i])
		if err != nil {
			s.logger.Warn("Google sync failed",
				zap.String("tenant_id", conns[i].TenantID.String()),
				zap.String("user_id", conns[i].UserID.String()),
				zap.Error(err))
			continue
		}
		total += result.Total()
	}
	return total, nil
}

func (s *GoogleService) syncConnection(ctx context.Context, conn *integration.GoogleConnection) (result SyncResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "GoogleService", "Sync",
		telemetry.AttrTenantID, conn.TenantID.String(),
		telemetry.AttrUserID, conn.UserID.String())
	defer telemetry.End(span, &err)

	if err := s.ensureToken(ctx, conn); err != nil {
		return result, err
	}

	if conn.HasScope(integration.ScopeGmailReadonly) {
		n, err := s.SyncGmail(ctx, conn)
		s.metrics.SyncRun("gmail", err)
		if err != nil {
			s.fail(ctx, conn, err)
			return result, err
		}
		result.EmailsLogged = n
	}
	if conn.HasScope(integration.ScopeCalendar) {
		created, updated, err := s.SyncCalendar(ctx, conn)
		s.metrics.SyncRun("calendar", err)
		if err != nil {
			s.fail(ctx, conn, err)
			return result, err
		}
		result.MeetingsCreated, result.MeetingsUpdated = created, updated
	}
	if err := s.connections.Save(ctx, conn); err != nil {
		return result, err
	}
	return result, nil
}

// SyncGmail logs an email activity for each new message exchanged with a known contact
func (s *GoogleService) SyncGmail(ctx context.Context, conn *integration.GoogleConnection) (int, error) {
	started := s.now()
	msgs, err := s.api.ListMessages(ctx, conn.AccessToken, s.since(conn.LastGmailSyncAt), maxMessagesPerSync)
	if err != nil {
		return 0, err
	}

	var addrs []string
	for _, m := range msgs {
		addrs = append(addrs, m.Participants()...)
	}
	byEmail, err := s.contactsByEmail(ctx, conn, addrs)
	if err != nil {
		return 0, err
	}

	logged := 0
	for _, m := range msgs {
		c := firstLinked(byEmail, m.Participants())
		if c == nil {
			continue
		}
		subject := m.Subject
		if strings.TrimSpace(subject) == "" {
			subject = "(no subject)"
		}
		a, err := activity.NewActivity(conn.TenantID, c.InvestorID, activity.ActivityTypeEmail, subject, m.Date)
		if err != nil {
			return logged, err
		}
		a.WithSource(activity.SourceGmail, m.ID)
		a.ContactID = &c.ID
		a.Body = m.Snippet
		a.Metadata = map[string]any{
			"from":      m.From,
			"to":        m.To,
			"thread_id": m.ThreadID,
			"direction": direction(conn.Email, m.From),
		}
		a.SetCreatedBy(conn.UserID)
		a.SetActor(conn.UserID)

		created, err := s.recorder.Record(ctx, a)
		if err != nil {
			return logged, err
		}
		if created {
			logged++
		}
	}

	conn.MarkGmailSynced(started)
	return logged, nil
}

// SyncCalendar creates or updates meetings for events attended by a known contact
func (s *GoogleService) SyncCalendar(ctx context.Context, conn *integration.GoogleConnection) (created, updated int, err error) {
	started := s.now()
	events, err := s.api.ListEvents(ctx, conn.AccessToken, s.since(conn.LastCalendarSyncAt))
	if err != nil {
		return 0, 0, err
	}

	var addrs []string
	for _, ev := range events {
		addrs = append(addrs, ev.Attendees...)
	}
	byEmail, err := s.contactsByEmail(ctx, conn, addrs)
	if err != nil {
		return 0, 0, err
	}

	for _, ev := range events {
		existing, err := s.meetings.FindByCalendarEventID(ctx, conn.TenantID, ev.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return created, updated, err
		}
		if existing != nil {
			changed, err := s.applyEvent(ctx, conn, existing, ev)
			if err != nil {
				s.logger.Debug("Skipping calendar update",
					zap.String("event_id", ev.ID), zap.Error(err))
				continue
			}
			if changed {
				updated++
			}
			continue
		}

		if ev.Cancelled {
			continue
		}
		c := firstLinked(byEmail, ev.Attendees)
		if c == nil {
			continue
		}
		m, err := meeting.NewMeeting(conn.TenantID, *c.InvestorID, detailsFromEvent(ev))
		if err != nil {
			s.logger.Debug("Skipping calendar event",
				zap.String("event_id", ev.ID), zap.Error(err))
			continue
		}
		m.LinkCalendarEvent(ev.ID)
		m.SetCreatedBy(conn.UserID)
		m.SetActor(conn.UserID)
		if err := s.meetings.Save(ctx, m); err != nil {
			return created, updated, err
		}
		s.publish(ctx, m)
		created++
	}

	conn.MarkCalendarSynced(started)
	return created, updated, nil
}

// applyEvent mirrors a changed or cancelled event onto its meeting. Held meetings are left alone.
func (s *GoogleService) applyEvent(ctx context.Context, conn *integration.GoogleConnection, m *meeting.Meeting, ev google.CalendarEvent) (bool, error) {
	if m.IsDeleted() || m.Status != meeting.StatusScheduled {
		return false, nil
	}
	m.SetActor(conn.UserID)
	if ev.Cancelled {
		if err := m.Cancel(); err != nil {
			return false, err
		}
	} else {
		d := detailsFromEvent(ev)
		if !d.ScheduledAt.Equal(m.ScheduledAt) || d.DurationMinutes != m.DurationMinutes ||
			d.Title != m.Title || d.Location != m.Location {
			if err := m.Update(d); err != nil {
				return false, err
			}
		} else {
			return false, nil
		}
	}
	if err := s.meetings.SaveWithLock(ctx, m); err != nil {
		return false, err
	}
	s.publish(ctx, m)
	return true, nil
}

// CreateCalendarEvent pushes a meeting to the organizer's primary calendar
func (s *GoogleService) CreateCalendarEvent(ctx context.Context, tenantID, userID uuid.UUID, m *meeting.Meeting) (string, error) {
	if !s.api.Enabled() {
		return "", shared.ErrIntegrationDisabled
	}
	conn, err := s.connections.FindByUser(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", errNotConnected
		}
		return "", err
	}
	if !conn.HasScope(integration.ScopeCalendar) {
		return "", shared.NewDomainError("GOOGLE_SCOPE_MISSING", "Calendar access was not granted")
	}
	if err := s.ensureToken(ctx, conn); err != nil {
		return "", err
	}

	return s.api.CreateEvent(ctx, conn.AccessToken, google.CalendarEvent{
		Summary:     m.Title,
		Description: m.MeetingURL,
		Location:    m.Location,
		Start:       m.ScheduledAt,
		End:         m.EndsAt(),
		Attendees:   m.Attendees,
	})
}

// ensureToken refreshes an expiring access token and persists it
func (s *GoogleService) ensureToken(ctx context.Context, conn *integration.GoogleConnection) error {
	if !conn.NeedsRefresh(s.now()) {
		return nil
	}
	tok, err := s.api.Refresh(ctx, conn.RefreshToken)
	if err != nil {
		s.fail(ctx, conn, err)
		return shared.WrapDomainError("INTEGRATION_ERROR", "Could not refresh the Google token, reconnect the account", err)
	}
	conn.UpdateToken(tok)
	return s.connections.Save(ctx, conn)
}

func (s *GoogleService) fail(ctx context.Context, conn *integration.GoogleConnection, cause error) {
	conn.RecordError(cause)
	if err := s.connections.Save(ctx, conn); err != nil {
		s.logger.Warn("Failed to record sync error", zap.Error(err))
	}
}

func (s *GoogleService) since(cursor *time.Time) time.Time {
	if cursor != nil {
		return *cursor
	}
	return s.now().Add(-s.cfg.SyncLookback)
}

// contactsByEmail loads contacts linked to an investor, keyed by email. The mailbox owner is skipped.
func (s *GoogleService) contactsByEmail(ctx context.Context, conn *integration.GoogleConnection, addrs []string) (map[string]*contact.Contact, error) {
	seen := make(map[string]bool, len(addrs))
	var lookup []string
	for _, a := range addrs {
		a = shared.NormalizeEmail(a)
		if a == "" || a == conn.Email || seen[a] {
			continue
		}
		seen[a] = true
		lookup = append(lookup, a)
	}
	out := make(map[string]*contact.Contact)
	if len(lookup) == 0 {
		return out, nil
	}
	found, err := s.contacts.FindByEmails(ctx, conn.TenantID, lookup)
	if err != nil {
		return nil, err
	}
	for i := range found {
		if found[i].InvestorID == nil {
			continue
		}
		out[shared.NormalizeEmail(found[i].Email)] = &found[i]
	}
	return out, nil
}

func (s *GoogleService) publish(ctx context.Context, m *meeting.Meeting) {
	if err := shared.PublishAndClear(ctx, s.events, m); err != nil {
		s.logger.Warn("Failed to publish meeting events", zap.Error(err))
	}
}

func firstLinked(byEmail map[string]*contact.Contact, addrs []string) *contact.Contact {
	for _, a := range addrs {
		if c, ok := byEmail[shared.NormalizeEmail(a)]; ok {
			return c
		}
	}
	return nil
}

func detailsFromEvent(ev google.CalendarEvent) meeting.Details {
	title := strings.TrimSpace(ev.Summary)
	if title == "" {
		title = "Meeting"
	}
	return meeting.Details{
		Title:           title,
		ScheduledAt:     ev.Start,
		DurationMinutes: ev.DurationMinutes(),
		Location:        ev.Location,
		MeetingURL:      ev.MeetingURL,
		Attendees:       ev.Attendees,
	}
}

func direction(mailbox, from string) string {
	if shared.NormalizeEmail(from) == mailbox {
		return "outbound"
	}
	return "inbound"
}
