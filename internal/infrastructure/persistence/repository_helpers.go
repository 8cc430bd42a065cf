package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps gorm's not-found error onto the domain sentinel
func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// updateWithLock writes every column of model guarded by the version the aggregate was loaded with.
// Zero values are written too, so cleared fields (deleted_at on restore) persist.
func updateWithLock(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, loadedVersion int) error {
	result := db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("created_at", "created_by", "tenant_id").
		Where("id = ? AND version = ?", id, loadedVersion).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrOptimisticLock
	}
	return nil
}

// purgeDeleted hard-deletes rows soft-deleted before the cutoff
func purgeDeleted(ctx context.Context, db *gorm.DB, model any, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(model)
	return result.RowsAffected, result.Error
}

// scopeDeleted applies the trash flags of a filter
func scopeDeleted(query *gorm.DB, filter shared.Filter) *gorm.DB {
	switch {
	case filter.OnlyDeleted:
		return query.Where("deleted_at IS NOT NULL")
	case filter.IncludeDeleted:
		return query
	default:
		return query.Where("deleted_at IS NULL")
	}
}

// applyPaging adds offset/limit and a whitelisted order clause
func applyPaging(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	return query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
}

// likePattern builds a case-insensitive LIKE pattern; callers compare against LOWER(column)
func likePattern(search string) string {
	r := strings.NewReplacer("%", `\%`, "_", `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}

// uuidFilter reads a filter value that may be a uuid.UUID, *uuid.UUID or string
func uuidFilter(v any) (uuid.UUID, bool) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, id != uuid.Nil
	case *uuid.UUID:
		if id == nil {
			return uuid.Nil, false
		}
		return *id, *id != uuid.Nil
	case string:
		parsed, err := uuid.Parse(id)
		return parsed, err == nil
	}
	return uuid.Nil, false
}

// timeFilter reads a filter value that may be a time.Time, *time.Time or RFC3339 string
func timeFilter(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}
