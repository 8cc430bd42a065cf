package investor

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/activity"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/meeting"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/domain/task"
	"github.com/investorcrm/backend/internal/infrastructure/cache"
	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// MaxBulkMove is the largest batch accepted by BulkMoveStage
	MaxBulkMove = 100

	timelineActivityLimit = 100
)

// ActivityRecorder persists system-generated timeline entries
type ActivityRecorder interface {
	Record(ctx context.Context, a *activity.Activity) (bool, error)
}

// InvestorService handles the fundraising pipeline
type InvestorService struct {
	repo        investor.InvestorRepository
	recorder    ActivityRecorder
	activities  activity.ActivityRepository
	meetings    meeting.MeetingRepository
	tasks       task.TaskRepository
	cache       cache.Cache
	pipelineTTL time.Duration
	events      shared.EventPublisher
	metrics     *telemetry.Metrics
	logger      *zap.Logger
}

// NewInvestorService creates a new InvestorService
func NewInvestorService(
	repo investor.InvestorRepository,
	recorder ActivityRecorder,
	activities activity.ActivityRepository,
	meetings meeting.MeetingRepository,
	tasks task.TaskRepository,
	c cache.Cache,
	pipelineTTL time.Duration,
	events shared.EventPublisher,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *InvestorService {
	if pipelineTTL <= 0 {
		pipelineTTL = time.Minute
	}
	return &InvestorService{
		repo:        repo,
		recorder:    recorder,
		activities:  activities,
		meetings:    meetings,
		tasks:       tasks,
		cache:       c,
		pipelineTTL: pipelineTTL,
		events:      events,
		metrics:     metrics,
		logger:      logger,
	}
}

// Create adds an investor to the target stage
func (s *InvestorService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateInvestorRequest) (*InvestorResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "InvestorService", "Create", telemetry.AttrTenantID, tenantID.String())
	var err error
	defer telemetry.End(span, &err)

	exists, err := s.repo.ExistsByName(ctx, tenantID, req.Name, req.FirmName)
	if err != nil {
		return nil, err
	}
	if exists {
		err = shared.NewDomainError("ALREADY_EXISTS", "An investor with this name and firm already exists")
		return nil, err
	}

	inv, err := investor.NewInvestorFromProfile(tenantID, profileOf(
		req.Name, req.FirmName, req.Type, req.Priority, req.Currency, req.Website, req.LinkedInURL,
		req.Location, req.FocusAreas, req.Tags, req.Notes, req.Source,
	), decimalOrZero(req.CheckSizeMin), decimalOrZero(req.CheckSizeMax))
	if err != nil {
		return nil, err
	}
	inv.SetActor(userID)
	inv.OwnerID = req.OwnerID
	if inv.OwnerID == nil {
		inv.OwnerID = &userID
	}
	inv.NextFollowUpAt = req.NextFollowUpAt
	inv.MarkCreated()

	if err = s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.publish(ctx, inv)
	s.invalidatePipeline(ctx, tenantID)

	resp := ToInvestorResponse(inv)
	return &resp, nil
}

// GetByID retrieves an investor, including one in the trash
func (s *InvestorService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InvestorResponse, error) {
	inv, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvestorResponse(inv)
	return &resp, nil
}

// List retrieves investors with filtering and pagination
func (s *InvestorService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]InvestorResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:           filter.Page,
		PageSize:       filter.PageSize,
		OrderBy:        filter.OrderBy,
		OrderDir:       filter.OrderDir,
		Search:         filter.Search,
		IncludeDeleted: filter.IncludeDeleted,
		OnlyDeleted:    filter.OnlyDeleted,
		Filters:        make(map[string]any),
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "updated_at"
	}
	if filter.Stage != "" {
		domainFilter.Filters["stage"] = filter.Stage
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.Priority != "" {
		domainFilter.Filters["priority"] = filter.Priority
	}
	if filter.OwnerID != nil {
		domainFilter.Filters["owner_id"] = *filter.OwnerID
	}
	if filter.Tag != "" {
		domainFilter.Filters["tag"] = filter.Tag
	}
	if filter.FollowUpDue {
		domainFilter.Filters["follow_up_due"] = time.Now()
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
	return ToInvestorResponses(items), total, nil
}

// ListDeleted lists the investors in the trash
func (s *InvestorService) ListDeleted(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]InvestorResponse, int64, error) {
	filter.OnlyDeleted = true
	filter.IncludeDeleted = false
	if filter.OrderBy == "" {
		filter.OrderBy = "deleted_at"
	}
	return s.List(ctx, tenantID, filter)
}

// Update replaces the editable fields of an investor. The request version must match the stored one.
func (s *InvestorService) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req UpdateInvestorRequest) (*InvestorResponse, error) {
	inv, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := shared.CheckVersion(req.Version, inv.Version); err != nil {
		return nil, err
	}
	if req.Name != inv.Name || req.FirmName != inv.FirmName {
		exists, err := s.repo.ExistsByName(ctx, tenantID, req.Name, req.FirmName)
		if err != nil {
			return nil, err
		}
		if exists && !sameName(inv, req.Name, req.FirmName) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "An investor with this name and firm already exists")
		}
	}

	inv.SetActor(userID)
	if _, err := inv.ApplyProfile(profileOf(
		req.Name, req.FirmName, req.Type, req.Priority, req.Currency, req.Website, req.LinkedInURL,
		req.Location, req.FocusAreas, req.Tags, req.Notes, req.Source,
	)); err != nil {
		return nil, err
	}
	if err := inv.SetCheckSize(decimalOrZero(req.CheckSizeMin), decimalOrZero(req.CheckSizeMax)); err != nil {
		return nil, err
	}
	if !sameUUID(inv.OwnerID, req.OwnerID) {
		if err := inv.AssignOwner(req.OwnerID); err != nil {
			return nil, err
		}
	}
	if !sameTime(inv.NextFollowUpAt, req.NextFollowUpAt) {
		if err := inv.ScheduleFollowUp(req.NextFollowUpAt); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, inv); err != nil {
		return nil, err
	}
	resp := ToInvestorResponse(inv)
	return &resp, nil
}

// MoveStage moves an investor to another pipeline stage and logs the change on its timeline
func (s *InvestorService) MoveStage(ctx context.Context, tenantID, userID, id uuid.UUID, req MoveStageRequest) (*InvestorResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "InvestorService", "MoveStage",
		telemetry.AttrTenantID, tenantID.String(),
		telemetry.AttrInvestorID, id.String(),
		telemetry.AttrStage, req.Stage,
	)
	var err error
	defer telemetry.End(span, &err)

	inv, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err = shared.CheckVersion(req.Version, inv.Version); err != nil {
		return nil, err
	}
	if err = s.moveStage(ctx, inv, userID, investor.Stage(req.Stage), req.Reason, req.Commitment); err != nil {
		return nil, err
	}
	resp := ToInvestorResponse(inv)
	return &resp, nil
}

// BulkMoveStage moves several investors to the same stage. Each investor succeeds or fails on its own.
func (s *InvestorService) BulkMoveStage(ctx context.Context, tenantID, userID uuid.UUID, req BulkMoveStageRequest) (*BulkMoveResponse, error) {
	if len(req.IDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one investor is required")
	}
	if len(req.IDs) > MaxBulkMove {
		return nil, shared.NewDomainError("INVALID_INPUT", "Too many investors in one request")
	}

	resp := &BulkMoveResponse{Results: make([]BulkMoveResult, 0, len(req.IDs))}
	seen := make(map[uuid.UUID]bool, len(req.IDs))
	for _, id := range req.IDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		result := BulkMoveResult{ID: id}
		inv, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
		if err == nil {
			err = s.moveStage(ctx, inv, userID, investor.Stage(req.Stage), req.Reason, nil)
		}
		if err != nil {
			result.Code = shared.GetErrorCode(err)
			result.Message = err.Error()
			resp.Failed++
		} else {
			result.Success = true
			result.Version = inv.Version
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, result)
	}

	s.logger.Info("Bulk stage move finished",
		zap.String("tenant_id", tenantID.String()),
		zap.String("stage", req.Stage),
		zap.Int("succeeded", resp.Succeeded),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

func (s *InvestorService) moveStage(ctx context.Context, inv *investor.Investor, userID uuid.UUID, to investor.Stage, reason string, commitment *decimal.Decimal) error {
	from := inv.Stage
	inv.SetActor(userID)
	if err := inv.MoveStage(to, reason, commitment); err != nil {
		return err
	}
	if err := s.save(ctx, inv); err != nil {
		return err
	}
	s.metrics.StageTransition(string(to))
	s.recordStageChange(ctx, inv, userID, from, reason)
	return nil
}

// recordStageChange writes the generated timeline entry. A failure here does not undo the move.
func (s *InvestorService) recordStageChange(ctx context.Context, inv *investor.Investor, userID uuid.UUID, from investor.Stage, reason string) {
	if s.recorder == nil {
		return
	}
	subject := "Stage changed from " + from.String() + " to " + inv.Stage.String()
	a, err := activity.NewActivity(inv.TenantID, &inv.ID, activity.ActivityTypeStageChange, subject, inv.StageChangedAt)
	if err != nil {
		s.logger.Warn("Failed to build stage change activity", zap.Error(err))
		return
	}
	a.WithSource(activity.SourceSystem, "")
	a.Body = reason
	a.Metadata = map[string]any{
		"from":   from.String(),
		"to":     inv.Stage.String(),
		"reason": reason,
	}
	a.SetActor(userID)
	if _, err := s.recorder.Record(ctx, a); err != nil {
		s.logger.Warn("Failed to record stage change activity",
			zap.String("investor_id", inv.ID.String()), zap.Error(err))
	}
}

// Delete moves an investor to the trash
func (s *InvestorService) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	inv, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return err
	}
	inv.SetActor(userID)
	if err := inv.Delete(); err != nil {
		return err
	}
	return s.save(ctx, inv)
}

// Restore brings an investor back from the trash
func (s *InvestorService) Restore(ctx context.Context, tenantID, userID, id uuid.UUID) (*InvestorResponse, error) {
	inv, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	inv.SetActor(userID)
	if err := inv.Restore(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, inv); err != nil {
		return nil, err
	}
	resp := ToInvestorResponse(inv)
	return &resp, nil
}

// PipelineSummary returns counts and totals for every stage, served from cache when fresh
func (s *InvestorService) PipelineSummary(ctx context.Context, tenantID uuid.UUID) (*PipelineSummaryResponse, error) {
	key := pipelineKey(tenantID)
	if s.cache != nil {
		var cached PipelineSummaryResponse
		if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
			s.logger.Debug("Pipeline cache read failed", zap.Error(err))
		} else if ok {
			return &cached, nil
		}
	}

	rows, err := s.repo.SummarizeByStage(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byStage := make(map[investor.Stage]investor.StageSummary, len(rows))
	for _, r := range rows {
		byStage[r.Stage] = r
	}

	resp := &PipelineSummaryResponse{
		Stages:         make([]StageSummaryResponse, 0, len(investor.AllStages())),
		TotalCheckSize: decimal.Zero,
		TotalCommitted: decimal.Zero,
		GeneratedAt:    time.Now().UTC(),
	}
	for _, stage := range investor.AllStages() {
		r := byStage[stage]
		resp.Stages = append(resp.Stages, StageSummaryResponse{
			Stage:          stage.String(),
			Count:          r.Count,
			CheckSizeTotal: r.CheckSizeTotal,
			CommittedTotal: r.CommittedTotal,
		})
		resp.TotalInvestors += r.Count
		resp.TotalCheckSize = resp.TotalCheckSize.Add(r.CheckSizeTotal)
		resp.TotalCommitted = resp.TotalCommitted.Add(r.CommittedTotal)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.pipelineTTL); err != nil {
			s.logger.Debug("Pipeline cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// Timeline merges activities, meetings and tasks of an investor, newest first
func (s *InvestorService) Timeline(ctx context.Context, tenantID, id uuid.UUID) ([]TimelineItem, error) {
	if _, err := s.repo.FindByIDIncludingDeleted(ctx, tenantID, id); err != nil {
		return nil, err
	}

	acts, err := s.activities.FindRecentByInvestor(ctx, tenantID, id, timelineActivityLimit)
	if err != nil {
		return nil, err
	}
	meetings, err := s.meetings.FindByInvestor(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.FindAllForTenant(ctx, tenantID, shared.Filter{
		Page:     1,
		PageSize: timelineActivityLimit,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  map[string]any{"investor_id": id},
	})
	if err != nil {
		return nil, err
	}

	items := make([]TimelineItem, 0, len(acts)+len(meetings)+len(tasks))
	for _, a := range acts {
		items = append(items, TimelineItem{
			Kind:    TimelineActivity,
			ID:      a.ID,
			Type:    string(a.Type),
			Title:   a.Subject,
			Summary: a.Body,
			At:      a.OccurredAt,
		})
	}
	for _, m := range meetings {
		item := TimelineItem{
			Kind:   TimelineMeeting,
			ID:     m.ID,
			Type:   "meeting",
			Title:  m.Title,
			Status: string(m.Status),
			At:     m.ScheduledAt,
		}
		if m.Analysis != nil {
			item.Summary = m.Analysis.Summary
		}
		items = append(items, item)
	}
	for _, t := range tasks {
		at := t.CreatedAt
		if t.CompletedAt != nil {
			at = *t.CompletedAt
		} else if t.DueAt != nil {
			at = *t.DueAt
		}
		items = append(items, TimelineItem{
			Kind:    TimelineTask,
			ID:      t.ID,
			Type:    "task",
			Title:   t.Title,
			Summary: t.Description,
			Status:  string(t.Status),
			At:      at,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].At.After(items[j].At)
	})
	return items, nil
}

func (s *InvestorService) save(ctx context.Context, inv *investor.Investor) error {
	if err := s.repo.SaveWithLock(ctx, inv); err != nil {
		return err
	}
	s.publish(ctx, inv)
	s.invalidatePipeline(ctx, inv.TenantID)
	return nil
}

func (s *InvestorService) publish(ctx context.Context, inv *investor.Investor) {
	if err := shared.PublishAndClear(ctx, s.events, inv); err != nil {
		s.logger.Warn("Failed to publish investor events", zap.Error(err))
	}
}

func (s *InvestorService) invalidatePipeline(ctx context.Context, tenantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, pipelineKey(tenantID)); err != nil {
		s.logger.Warn("Failed to invalidate pipeline cache", zap.Error(err))
	}
}

func pipelineKey(tenantID uuid.UUID) string {
	return cache.Key("pipeline", tenantID.String())
}

func profileOf(name, firm, typ, priority, currency, website, linkedIn, location string, focus, tags []string, notes, source string) investor.Profile {
	return investor.Profile{
		Name:        name,
		FirmName:    firm,
		Type:        investor.InvestorType(typ),
		Priority:    investor.Priority(priority),
		Currency:    currency,
		Website:     website,
		LinkedInURL: linkedIn,
		Location:    location,
		FocusAreas:  focus,
		Tags:        tags,
		Notes:       notes,
		Source:      source,
	}
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func sameName(inv *investor.Investor, name, firm string) bool {
	return strings.EqualFold(inv.Name, name) && strings.EqualFold(inv.FirmName, firm)
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
