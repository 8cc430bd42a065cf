package meeting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/activity"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/meeting"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/domain/task"
	"github.com/investorcrm/backend/internal/infrastructure/integrations/llm"
	"github.com/investorcrm/backend/internal/infrastructure/storage"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	transcriptContentType = "text/plain; charset=utf-8"
	analysisMaxTokens     = 2048
	maxActionItemTasks    = 20
)

const analysisSystemPrompt = `You analyze transcripts of fundraising meetings between a startup and an investor.
Reply with a single JSON object and nothing else, using exactly these fields:
{
  "summary": string (3-6 sentences),
  "sentiment": "positive" | "neutral" | "negative",
  "interest_level": integer 1-5 (investor interest, 5 = ready to commit),
  "key_points": [string],
  "concerns": [string] (investor objections or open questions),
  "action_items": [{"title": string, "owner": string, "due_in_days": integer}],
  "next_steps": string
}`

// Completer is the LLM capability used for transcript analysis
type Completer interface {
	Enabled() bool
	Model() string
	Complete(ctx context.Context, purpose string, req llm.Request) (*llm.Response, error)
}

// CalendarPublisher pushes a meeting to the organizer's calendar and returns the event id
type CalendarPublisher interface {
	CreateCalendarEvent(ctx context.Context, tenantID, userID uuid.UUID, m *meeting.Meeting) (string, error)
}

// ActivityRecorder persists system-generated timeline entries
type ActivityRecorder interface {
	Record(ctx context.Context, a *activity.Activity) (bool, error)
}

// MeetingService manages investor meetings and their transcripts
type MeetingService struct {
	repo      meeting.MeetingRepository
	investors investor.InvestorRepository
	tasks     task.TaskRepository
	recorder  ActivityRecorder
	objects   storage.ObjectStorage
	llm       Completer
	calendar  CalendarPublisher
	uploadTTL time.Duration
	events    shared.EventPublisher
	logger    *zap.Logger
}

// MeetingServiceConfig groups the optional collaborators of MeetingService
type MeetingServiceConfig struct {
	Objects   storage.ObjectStorage
	LLM       Completer
	Calendar  CalendarPublisher
	UploadTTL time.Duration
}

// NewMeetingService creates a new MeetingService
func NewMeetingService(
	repo meeting.MeetingRepository,
	investors investor.InvestorRepository,
	tasks task.TaskRepository,
	recorder ActivityRecorder,
	cfg MeetingServiceConfig,
	events shared.EventPublisher,
	logger *zap.Logger,
) *MeetingService {
	if cfg.UploadTTL <= 0 {
		cfg.UploadTTL = 15 * time.Minute
	}
	return &MeetingService{
		repo:      repo,
		investors: investors,
		tasks:     tasks,
		recorder:  recorder,
		objects:   cfg.Objects,
		llm:       cfg.LLM,
		calendar:  cfg.Calendar,
		uploadTTL: cfg.UploadTTL,
		events:    events,
		logger:    logger,
	}
}

// Create schedules a meeting, optionally pushing it to the organizer's Google Calendar
func (s *MeetingService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateMeetingRequest) (*MeetingResponse, error) {
	if _, err := s.investors.FindByIDForTenant(ctx, tenantID, req.InvestorID); err != nil {
		return nil, err
	}
	m, err := meeting.NewMeeting(tenantID, req.InvestorID, meeting.Details{
		Title:           req.Title,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		MeetingURL:      req.MeetingURL,
		Attendees:       req.Attendees,
	})
	if err != nil {
		return nil, err
	}
	m.SetActor(userID)
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m)

	if req.AddToCalendar && s.calendar != nil {
		s.pushToCalendar(ctx, tenantID, userID, m)
	}

	resp := ToMeetingResponse(m)
	return &resp, nil
}

// pushToCalendar links the created calendar event. Failures leave the meeting unlinked.
func (s *MeetingService) pushToCalendar(ctx context.Context, tenantID, userID uuid.UUID, m *meeting.Meeting) {
	eventID, err := s.calendar.CreateCalendarEvent(ctx, tenantID, userID, m)
	if err != nil {
		s.logger.Warn("Failed to create calendar event",
			zap.String("meeting_id", m.ID.String()), zap.Error(err))
		return
	}
	m.LinkCalendarEvent(eventID)
	if err := s.repo.SaveWithLock(ctx, m); err != nil {
		s.logger.Warn("Failed to link calendar event",
			zap.String("meeting_id", m.ID.String()), zap.Error(err))
	}
}

// GetByID retrieves a meeting, including one in the trash
func (s *MeetingService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*MeetingResponse, error) {
	m, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToMeetingResponse(m)
	return &resp, nil
}

// List retrieves meetings with filtering and pagination
func (s *MeetingService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]MeetingResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:        filter.Page,
		PageSize:    filter.PageSize,
		OrderBy:     filter.OrderBy,
		OrderDir:    filter.OrderDir,
		Search:      filter.Search,
		OnlyDeleted: filter.Deleted,
		Filters:     make(map[string]any),
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "scheduled_at"
	}
	if filter.InvestorID != nil {
		domainFilter.Filters["investor_id"] = *filter.InvestorID
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.From != nil {
		domainFilter.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		domainFilter.Filters["to"] = *filter.To
	}
	domainFilter = domainFilter.Normalize()

	items, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToMeetingResponses(items), total, nil
}

// Update replaces the editable fields of a meeting. The request version must match the stored one.
func (s *MeetingService) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req UpdateMeetingRequest) (*MeetingResponse, error) {
	m, err := s.load(ctx, tenantID, id, req.Version)
	if err != nil {
		return nil, err
	}
	m.SetActor(userID)
	if err := m.Update(meeting.Details{
		Title:           req.Title,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		MeetingURL:      req.MeetingURL,
		Attendees:       req.Attendees,
	}); err != nil {
		return nil, err
	}
	return s.saveAndRespond(ctx, m)
}

// Complete marks a meeting as held
func (s *MeetingService) Complete(ctx context.Context, tenantID, userID, id uuid.UUID, req TransitionRequest) (*MeetingResponse, error) {
	m, err := s.load(ctx, tenantID, id, req.Version)
	if err != nil {
		return nil, err
	}
	m.SetActor(userID)
	if err := m.Complete(); err != nil {
		return nil, err
	}
	return s.saveAndRespond(ctx, m)
}

// Cancel marks a meeting as cancelled
func (s *MeetingService) Cancel(ctx context.Context, tenantID, userID, id uuid.UUID, req TransitionRequest) (*MeetingResponse, error) {
	m, err := s.load(ctx, tenantID, id, req.Version)
	if err != nil {
		return nil, err
	}
	m.SetActor(userID)
	if err := m.Cancel(); err != nil {
		return nil, err
	}
	return s.saveAndRespond(ctx, m)
}

// Delete moves a meeting to the trash
func (s *MeetingService) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	m, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return err
	}
	m.SetActor(userID)
	if err := m.Delete(); err != nil {
		return err
	}
	return s.save(ctx, m)
}

// Restore brings a meeting back from the trash
func (s *MeetingService) Restore(ctx context.Context, tenantID, userID, id uuid.UUID) (*MeetingResponse, error) {
	m, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	m.SetActor(userID)
	if err := m.Restore(); err != nil {
		return nil, err
	}
	return s.saveAndRespond(ctx, m)
}

// TranscriptUploadURL returns a presigned PUT target for the meeting's transcript object
func (s *MeetingService) TranscriptUploadURL(ctx context.Context, tenantID, id uuid.UUID) (*UploadURLResponse, error) {
	if _, err := s.repo.FindByIDForTenant(ctx, tenantID, id); err != nil {
		return nil, err
	}
	if s.objects == nil {
		return nil, shared.ErrIntegrationDisabled
	}
	presigned, err := s.objects.PresignPut(ctx, storage.TranscriptKey(tenantID, id), transcriptContentType, s.uploadTTL)
	if err != nil {
		if errors.Is(err, storage.ErrPresignUnsupported) {
			return nil, shared.ErrIntegrationDisabled
		}
		return nil, shared.WrapDomainError("INTEGRATION_ERROR", "Failed to create upload URL", err)
	}
	return &UploadURLResponse{
		URL:       presigned.URL,
		Key:       presigned.Key,
		Method:    presigned.Method,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// AttachTranscript stores a transcript. Raw text is written to object storage first; an uploaded key is read back.
func (s *MeetingService) AttachTranscript(ctx context.Context, tenantID, userID, id uuid.UUID, req AttachTranscriptRequest) (*MeetingResponse, error) {
	m, err := s.load(ctx, tenantID, id, req.Version)
	if err != nil {
		return nil, err
	}

	key, text := strings.TrimSpace(req.Key), req.Text
	switch {
	case key != "":
		if !storage.BelongsToTenant(key, tenantID) {
			return nil, shared.NewDomainError("INVALID_KEY", "Transcript key does not belong to this workspace")
		}
		if s.objects == nil {
			return nil, shared.ErrIntegrationDisabled
		}
		data, err := s.objects.Get(ctx, key)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				return nil, shared.NewDomainError("TRANSCRIPT_NOT_UPLOADED", "No transcript was uploaded under this key")
			}
			return nil, shared.WrapDomainError("INTEGRATION_ERROR", "Failed to read transcript", err)
		}
		text = string(data)
	case strings.TrimSpace(text) != "" && s.objects != nil:
		key = storage.TranscriptKey(tenantID, id)
		if err := s.objects.Put(ctx, key, []byte(text), transcriptContentType); err != nil {
			return nil, shared.WrapDomainError("INTEGRATION_ERROR", "Failed to store transcript", err)
		}
	}

	m.SetActor(userID)
	if err := m.AttachTranscript(key, text); err != nil {
		return nil, err
	}
	return s.saveAndRespond(ctx, m)
}

// AnalyzeTranscript asks the LLM for a structured summary of the transcript, stores it on the meeting,
// logs a meeting activity and, when asked, turns the action items into tasks.
func (s *MeetingService) AnalyzeTranscript(ctx context.Context, tenantID, userID, id uuid.UUID, req AnalyzeTranscriptRequest) (resp *AnalysisResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "MeetingService", "AnalyzeTranscript",
		telemetry.AttrTenantID, tenantID.String(),
	)
	defer telemetry.End(span, &err)

	m, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !m.HasTranscript() {
		return nil, shared.NewDomainError("TRANSCRIPT_REQUIRED", "Attach a transcript before analyzing")
	}
	if s.llm == nil || !s.llm.Enabled() {
		return nil, shared.ErrIntegrationDisabled
	}

	analysis, err := s.analyze(ctx, m)
	if err != nil {
		return nil, err
	}

	m.SetActor(userID)
	if err = m.ApplyAnalysis(*analysis); err != nil {
		return nil, err
	}
	if err = s.save(ctx, m); err != nil {
		return nil, err
	}

	resp = &AnalysisResponse{TasksCreated: []uuid.UUID{}}
	if req.CreateTasks {
		ids, taskErr := s.createActionItemTasks(ctx, m, userID)
		if taskErr != nil {
			s.logger.Warn("Failed to create tasks from action items",
				zap.String("meeting_id", m.ID.String()), zap.Error(taskErr))
		}
		resp.TasksCreated = ids
	}
	s.recordAnalysis(ctx, m, userID)

	resp.Meeting = ToMeetingResponse(m)
	return resp, nil
}

func (s *MeetingService) analyze(ctx context.Context, m *meeting.Meeting) (*meeting.Analysis, error) {
	temperature := 0.0
	prompt := fmt.Sprintf("Meeting: %s\nDate: %s\nAttendees: %s\n\nTranscript:\n%s",
		m.Title, m.ScheduledAt.UTC().Format(time.RFC3339), strings.Join(m.Attendees, ", "), m.TranscriptText)

	reply, err := s.llm.Complete(ctx, "transcript_analysis", llm.Request{
		System:      analysisSystemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: []llm.Block{llm.Text(prompt)}}},
		MaxTokens:   analysisMaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, shared.WrapDomainError("INTEGRATION_ERROR", "Transcript analysis failed", err)
	}

	raw, err := llm.ExtractJSONObject(reply.Text)
	if err != nil {
		return nil, shared.WrapDomainError("INVALID_ANALYSIS", "The model did not return a usable analysis", err)
	}
	var analysis meeting.Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, shared.WrapDomainError("INVALID_ANALYSIS", "The model did not return a usable analysis", err)
	}
	analysis.Model = reply.Model
	if analysis.Model == "" {
		analysis.Model = s.llm.Model()
	}
	analysis.AnalyzedAt = time.Now()
	return &analysis, nil
}

func (s *MeetingService) createActionItemTasks(ctx context.Context, m *meeting.Meeting, userID uuid.UUID) ([]uuid.UUID, error) {
	if m.Analysis == nil || len(m.Analysis.ActionItems) == 0 {
		return []uuid.UUID{}, nil
	}
	items := m.Analysis.ActionItems
	if len(items) > maxActionItemTasks {
		items = items[:maxActionItemTasks]
	}

	tasks := make([]*task.Task, 0, len(items))
	for _, item := range items {
		var due *time.Time
		if item.DueInDays > 0 {
			d := time.Now().AddDate(0, 0, item.DueInDays)
			due = &d
		}
		description := "From meeting: " + m.Title
		if item.Owner != "" {
			description += "\nOwner: " + item.Owner
		}
		t, err := task.NewTask(m.TenantID, task.Details{
			Title:       item.Title,
			Description: description,
			InvestorID:  &m.InvestorID,
			AssigneeID:  &userID,
			DueAt:       due,
		})
		if err != nil {
			return nil, err
		}
		t.LinkMeeting(m.ID)
		t.SetActor(userID)
		tasks = append(tasks, t)
	}
	if err := s.tasks.SaveBatch(ctx, tasks); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		if err := shared.PublishAndClear(ctx, s.events, t); err != nil {
			s.logger.Warn("Failed to publish task events", zap.Error(err))
		}
	}
	return ids, nil
}

func (s *MeetingService) recordAnalysis(ctx context.Context, m *meeting.Meeting, userID uuid.UUID) {
	if s.recorder == nil || m.Analysis == nil {
		return
	}
	a, err := activity.NewActivity(m.TenantID, &m.InvestorID, activity.ActivityTypeMeeting, "Meeting notes: "+m.Title, m.ScheduledAt)
	if err != nil {
		s.logger.Warn("Failed to build meeting activity", zap.Error(err))
		return
	}
	a.WithSource(activity.SourceAssistant, fmt.Sprintf("analysis:%s:%d", m.ID, m.Version))
	a.Body = m.Analysis.Summary
	a.Metadata = map[string]any{
		"meeting_id":     m.ID.String(),
		"sentiment":      string(m.Analysis.Sentiment),
		"interest_level": m.Analysis.InterestLevel,
	}
	a.SetActor(userID)
	if _, err := s.recorder.Record(ctx, a); err != nil {
		s.logger.Warn("Failed to record meeting activity",
			zap.String("meeting_id", m.ID.String()), zap.Error(err))
	}
}

func (s *MeetingService) load(ctx context.Context, tenantID, id uuid.UUID, version int) (*meeting.Meeting, error) {
	m, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := shared.CheckVersion(version, m.Version); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MeetingService) saveAndRespond(ctx context.Context, m *meeting.Meeting) (*MeetingResponse, error) {
	if err := s.save(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMeetingResponse(m)
	return &resp, nil
}

func (s *MeetingService) save(ctx context.Context, m *meeting.Meeting) error {
	if err := s.repo.SaveWithLock(ctx, m); err != nil {
		return err
	}
	s.publish(ctx, m)
	return nil
}

func (s *MeetingService) publish(ctx context.Context, m *meeting.Meeting) {
	if err := shared.PublishAndClear(ctx, s.events, m); err != nil {
		s.logger.Warn("Failed to publish meeting events", zap.Error(err))
	}
}
