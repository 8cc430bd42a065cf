package testutil

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/interfaces/http/dto"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	assert.NotNil(t, mockDB.SqlDB)
	mockDB.ExpectationsWereMet(t)
}

func TestNewTestContext(t *testing.T) {
	tc := NewTestContext(t, http.MethodPost, "/investors")

	assert.Equal(t, http.MethodPost, tc.Context.Request.Method)
	assert.Equal(t, "/investors", tc.Context.Request.URL.Path)
	assert.Equal(t, http.MethodGet, NewGetContext(t).Context.Request.Method)
}

func TestTestContext_SetRequestID(t *testing.T) {
	tc := NewGetContext(t)

	tc.SetRequestID("req-123")

	assert.Equal(t, "req-123", tc.Context.GetString(middleware.RequestIDContextKey))
}

func TestTestContext_SetClaims(t *testing.T) {
	tc := NewGetContext(t)
	tenantID, userID := uuid.New(), uuid.New()

	tc.SetClaims(tenantID, userID, "member", "investor:read")

	gotTenant, ok := middleware.GetTenantID(tc.Context)
	assert.True(t, ok)
	assert.Equal(t, tenantID, gotTenant)

	gotUser, ok := middleware.GetUserID(tc.Context)
	assert.True(t, ok)
	assert.Equal(t, userID, gotUser)

	claims := middleware.GetClaims(tc.Context)
	if assert.NotNil(t, claims) {
		assert.Equal(t, []string{"investor:read"}, claims.Permissions)
	}
}

func envelopeRouter() *gin.Engine {
	router := gin.New()
	router.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeValidation, err.Error()))
			return
		}
		body["tenant"] = c.GetHeader("X-Tenant")
		c.JSON(http.StatusOK, dto.NewSuccessResponse(body))
	})
	return router
}

func TestDoJSON_DecodeData(t *testing.T) {
	w := DoJSON(t, envelopeRouter(), http.MethodPost, "/echo", map[string]string{"name": "Sequoia"}, func(r *http.Request) {
		r.Header.Set("X-Tenant", "acme")
	})
	require.Equal(t, http.StatusOK, w.Code)

	got := DecodeData[map[string]string](t, w)
	assert.Equal(t, "Sequoia", got["name"])
	assert.Equal(t, "acme", got["tenant"])
	assert.True(t, DecodeResponse(t, w).Success)
}

func TestAssertErrorResponse(t *testing.T) {
	w := DoJSON(t, envelopeRouter(), http.MethodPost, "/echo", nil, nil)

	AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestRecordingPublisher_SetError(t *testing.T) {
	p := NewRecordingPublisher()
	require.NoError(t, p.Publish(context.Background()))

	p.SetError(errors.New("bus down"))
	assert.EqualError(t, p.Publish(context.Background()), "bus down")
	assert.Empty(t, p.Types())
}
