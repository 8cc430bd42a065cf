// Package maintenance runs housekeeping over tenant data.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TrashPurger hard-deletes one kind of soft-deleted record
type TrashPurger interface {
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Target is one table swept by the purge
type Target struct {
	Name   string
	Purger TrashPurger
}

// PurgeResult counts the rows removed per kind
type PurgeResult struct {
	Cutoff  time.Time        `json:"cutoff"`
	Removed map[string]int64 `json:"removed"`
	Total   int64            `json:"total"`
}

// PurgeService empties the trash of every tenant
type PurgeService struct {
	targets []Target
	logger  *zap.Logger
}

// NewPurgeService creates a new PurgeService. Targets are purged in order, so dependent records
// (activities, tasks) should come before the investors they hang off.
func NewPurgeService(logger *zap.Logger, targets ...Target) *PurgeService {
	return &PurgeService{targets: targets, logger: logger}
}

// Purge removes records deleted before the cutoff. It stops at the first failing target and
// returns what was removed up to that point.
func (s *PurgeService) Purge(ctx context.Context, before time.Time) (result *PurgeResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "PurgeService", "Purge")
	defer telemetry.End(span, &err)

	result = &PurgeResult{Cutoff: before, Removed: make(map[string]int64, len(s.targets))}
	for _, t := range s.targets {
		n, err := t.Purger.PurgeDeletedBefore(ctx, before)
		if err != nil {
			return result, fmt.Errorf("purge %s: %w", t.Name, err)
		}
		result.Removed[t.Name] = n
		result.Total += n
	}

	if result.Total > 0 {
		fields := []zap.Field{zap.Time("cutoff", before), zap.Int64("total", result.Total)}
		for name, n := range result.Removed {
			fields = append(fields, zap.Int64(name, n))
		}
		s.logger.Info("Trash purged", fields...)
	}
	telemetry.SetAttributes(span, telemetry.AttrCount, result.Total)
	return result, nil
}

// PurgeDeleted implements scheduler.Purger
func (s *PurgeService) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.Purge(ctx, before)
	if result == nil {
		return 0, err
	}
	return result.Total, err
}
