package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/audit"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditService writes and reads the append-only audit log
type AuditService struct {
	repo   audit.Repository
	logger *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo audit.Repository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record appends an entry for an action that has no domain event, such as login or export.
// The request id and client metadata are taken from ctx.
func (s *AuditService) Record(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, action audit.Action, entityType string, entityID uuid.UUID, changes map[string]any) error {
	entry := audit.NewEntry(tenantID, actorID, action, entityType, entityID).WithChanges(changes)
	info := RequestInfoFrom(ctx)
	entry.WithRequest(info.IP, info.UserAgent, logger.GetRequestID(ctx))
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append audit entry",
			zap.String("tenant_id", tenantID.String()),
			zap.String("action", string(action)),
			zap.String("entity_type", entityType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// List returns a page of the tenant's audit log, newest first
func (s *AuditService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]EntryResponse, int64, error) {
	q := audit.Query{
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
		ActorID:    filter.ActorID,
		Action:     audit.Action(filter.Action),
		From:       filter.From,
		To:         filter.To,
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
	}
	entries, total, err := s.repo.Find(ctx, tenantID, q)
	if err != nil {
		return nil, 0, err
	}
	return ToEntryResponses(entries), total, nil
}

// ListForEntity returns the history of one record
func (s *AuditService) ListForEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, page, pageSize int) ([]EntryResponse, int64, error) {
	return s.List(ctx, tenantID, ListFilter{
		EntityType: entityType,
		EntityID:   &entityID,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Handle turns domain events into audit entries. Events without an audit action are ignored.
func (s *AuditService) Handle(ctx context.Context, event shared.DomainEvent) error {
	action, ok := audit.ActionForEvent(event.EventType())
	if !ok || event.TenantID() == uuid.Nil {
		return nil
	}

	var actorID *uuid.UUID
	if ae, ok := event.(shared.ActorEvent); ok {
		actorID = ae.ActorID()
	}
	if actorID == nil {
		if id := logger.GetUserID(ctx); id != uuid.Nil {
			actorID = &id
		}
	}

	entry := audit.NewEntry(event.TenantID(), actorID, action, event.AggregateType(), event.AggregateID()).
		WithChanges(eventChanges(event))
	entry.CreatedAt = event.OccurredAt()
	info := RequestInfoFrom(ctx)
	entry.WithRequest(info.IP, info.UserAgent, logger.GetRequestID(ctx))
	return s.repo.Append(ctx, entry)
}

// EventTypes subscribes to every event
func (s *AuditService) EventTypes() []string {
	return nil
}

// envelope keys already stored in their own audit columns
var envelopeKeys = []string{"id", "type", "timestamp", "aggregate_id", "aggregate_type", "tenant_id", "actor_id"}

// eventChanges flattens the event payload into the change set
func eventChanges(event shared.DomainEvent) map[string]any {
	raw, err := json.Marshal(event)
	if err != nil {
		return map[string]any{"event": event.EventType()}
	}
	changes := map[string]any{}
	if err := json.Unmarshal(raw, &changes); err != nil {
		return map[string]any{"event": event.EventType()}
	}
	for _, k := range envelopeKeys {
		delete(changes, k)
	}
	changes["event"] = event.EventType()
	return changes
}

var _ shared.EventHandler = (*AuditService)(nil)
