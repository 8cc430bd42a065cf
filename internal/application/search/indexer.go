package search

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/contact"
	"github.com/investorcrm/backend/internal/domain/investor"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/investorcrm/backend/internal/infrastructure/search"
	"go.uber.org/zap"
)

const reindexPageSize = 200

// Indexer keeps the search index in step with investor and contact events
type Indexer struct {
	index     Index
	investors investor.InvestorRepository
	contacts  contact.ContactRepository
	logger    *zap.Logger
}

// NewIndexer creates a new Indexer
func NewIndexer(index Index, investors investor.InvestorRepository, contacts contact.ContactRepository, logger *zap.Logger) *Indexer {
	return &Indexer{index: index, investors: investors, contacts: contacts, logger: logger}
}

// EventTypes implements shared.EventHandler
func (x *Indexer) EventTypes() []string {
	return []string{
		investor.EventTypeInvestorCreated,
		investor.EventTypeInvestorUpdated,
		investor.EventTypeInvestorStageChanged,
		investor.EventTypeInvestorDeleted,
		investor.EventTypeInvestorRestored,
		contact.EventTypeContactCreated,
		contact.EventTypeContactUpdated,
		contact.EventTypeContactDeleted,
		contact.EventTypeContactRestored,
	}
}

// Handle upserts or removes the document behind the event. Events that arrive while the index is
// down are dropped; Reindex rebuilds a tenant afterwards.
func (x *Indexer) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !x.index.Healthy() {
		x.logger.Debug("Search index unhealthy, skipping event",
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_id", event.AggregateID().String()))
		return nil
	}

	switch event.EventType() {
	case investor.EventTypeInvestorDeleted:
		return x.index.Remove(search.KindInvestor, event.AggregateID())
	case contact.EventTypeContactDeleted:
		return x.index.Remove(search.KindContact, event.AggregateID())
	case investor.EventTypeInvestorCreated, investor.EventTypeInvestorUpdated,
		investor.EventTypeInvestorStageChanged, investor.EventTypeInvestorRestored:
		return x.syncInvestor(ctx, event.TenantID(), event.AggregateID())
	case contact.EventTypeContactCreated, contact.EventTypeContactUpdated, contact.EventTypeContactRestored:
		return x.syncContact(ctx, event.TenantID(), event.AggregateID())
	}
	return nil
}

func (x *Indexer) syncInvestor(ctx context.Context, tenantID, id uuid.UUID) error {
	inv, err := x.investors.FindByIDForTenant(ctx, tenantID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return x.index.Remove(search.KindInvestor, id)
	}
	if err != nil {
		return err
	}
	return x.index.Upsert(InvestorDocument(inv))
}

func (x *Indexer) syncContact(ctx context.Context, tenantID, id uuid.UUID) error {
	c, err := x.contacts.FindByIDForTenant(ctx, tenantID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return x.index.Remove(search.KindContact, id)
	}
	if err != nil {
		return err
	}
	return x.index.Upsert(ContactDocument(c))
}

// Reindex pushes every live investor and contact of the tenant to the index and returns the
// number of documents sent.
func (x *Indexer) Reindex(ctx context.Context, tenantID uuid.UUID) (int, error) {
	if !x.index.Healthy() {
		return 0, search.ErrUnhealthy
	}
	total := 0
	for page := 1; ; page++ {
		filter := shared.Filter{Page: page, PageSize: reindexPageSize, OrderBy: "created_at", OrderDir: "asc"}
		items, err := x.investors.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return total, err
		}
		docs := make([]search.Document, len(items))
		for i := range items {
			docs[i] = InvestorDocument(&items[i])
		}
		if len(docs) > 0 {
			if err := x.index.Upsert(docs...); err != nil {
				return total, err
			}
		}
		total += len(docs)
		if len(items) < reindexPageSize {
			break
		}
	}
	for page := 1; ; page++ {
		filter := shared.Filter{Page: page, PageSize: reindexPageSize, OrderBy: "created_at", OrderDir: "asc"}
		items, err := x.contacts.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return total, err
		}
		docs := make([]search.Document, len(items))
		for i := range items {
			docs[i] = ContactDocument(&items[i])
		}
		if len(docs) > 0 {
			if err := x.index.Upsert(docs...); err != nil {
				return total, err
			}
		}
		total += len(docs)
		if len(items) < reindexPageSize {
			break
		}
	}
	x.logger.Info("Search index rebuilt",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("documents", total))
	return total, nil
}
