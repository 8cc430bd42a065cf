package shared

import "time"

// SoftDeletable marks a record as deleted instead of removing it, so it can be restored.
type SoftDeletable struct {
	DeletedAt *time.Time
}

// IsDeleted reports whether the record is in the trash
func (s *SoftDeletable) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted stamps deleted_at. Deleting twice is an error.
func (s *SoftDeletable) MarkDeleted(at time.Time) error {
	if s.DeletedAt != nil {
		return ErrAlreadyDeleted
	}
	s.DeletedAt = &at
	return nil
}

// MarkRestored clears deleted_at. Restoring a live record is an error.
func (s *SoftDeletable) MarkRestored() error {
	if s.DeletedAt == nil {
		return ErrNotDeleted
	}
	s.DeletedAt = nil
	return nil
}
