package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
)

func TestUserLimiter_Reserve(t *testing.T) {
	l := NewUserLimiter(60, 2)
	now := time.Now()
	l.now = func() time.Time { return now }

	ok, _ := l.Reserve("user:a")
	assert.True(t, ok)
	ok, _ = l.Reserve("user:a")
	assert.True(t, ok, "burst of two")
	ok, wait := l.Reserve("user:a")
	assert.False(t, ok)
	assert.InDelta(t, time.Second, wait, float64(50*time.Millisecond))

	ok, _ = l.Reserve("user:b")
	assert.True(t, ok, "buckets are per user")

	now = now.Add(time.Second)
	ok, _ = l.Reserve("user:a")
	assert.True(t, ok, "refilled after one interval")
}

func TestUserLimiter_EvictsIdleBuckets(t *testing.T) {
	l := NewUserLimiter(60, 1)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Reserve("user:a")
	now = now.Add(11 * time.Minute)
	l.Reserve("user:b")
	assert.NotContains(t, l.buckets, "user:a")
	assert.Contains(t, l.buckets, "user:b")
}

func TestPerUserRateLimit(t *testing.T) {
	claims := newClaims(identity.RoleMember)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ClaimsKey, claims)
		c.Next()
	})
	router.Use(PerUserRateLimit(NewUserLimiter(1, 1)))
	router.POST("/chat", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
