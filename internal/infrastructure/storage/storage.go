// Package storage stores transcripts, LinkedIn uploads and rendered reports in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrObjectNotFound is returned when a key does not exist
	ErrObjectNotFound = errors.New("object not found")
	// ErrPresignUnsupported is returned by backends that cannot issue presigned URLs
	ErrPresignUnsupported = errors.New("presigned URLs are not supported by this storage backend")
	errKeyRequired        = errors.New("storage key is required")
)

// PresignedURL is a time-limited URL for a direct client upload or download
type PresignedURL struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ObjectStorage is the object store used by the application services
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignedURL, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (*PresignedURL, error)
}

// TranscriptKey is where a meeting transcript is stored
func TranscriptKey(tenantID, meetingID uuid.UUID) string {
	return path.Join("tenants", tenantID.String(), "meetings", meetingID.String(), "transcript.txt")
}

// ImportKey is where an uploaded LinkedIn export is stored. The random part keeps re-uploads apart.
func ImportKey(tenantID, userID uuid.UUID) string {
	return path.Join("tenants", tenantID.String(), "imports", userID.String(), uuid.NewString()+".csv")
}

// ReportKey is where a rendered pipeline report is stored
func ReportKey(tenantID uuid.UUID, at time.Time, ext string) string {
	name := fmt.Sprintf("pipeline-%s.%s", at.UTC().Format("20060102-150405"), ext)
	return path.Join("tenants", tenantID.String(), "reports", name)
}

// BelongsToTenant reports whether key lives under the tenant's prefix
func BelongsToTenant(key string, tenantID uuid.UUID) bool {
	prefix := path.Join("tenants", tenantID.String()) + "/"
	clean := path.Clean("/" + key)[1:]
	return len(clean) > len(prefix) && clean[:len(prefix)] == prefix
}
