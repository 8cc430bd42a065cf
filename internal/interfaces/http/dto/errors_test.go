package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeTokenRevoked, http.StatusUnauthorized},
		{"INVALID_SIGNATURE", http.StatusUnauthorized},
		{ErrCodeAccountLocked, http.StatusLocked},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{"GOOGLE_NOT_CONNECTED", http.StatusNotFound},
		{"MATCHING_IN_PROGRESS", http.StatusConflict},
		{"LAST_OWNER", http.StatusConflict},
		{ErrCodeOptimistic, http.StatusConflict},
		{"TENANT_REQUIRED", http.StatusBadRequest},
		{ErrCodeIntegrationDisabled, http.StatusServiceUnavailable},
		{ErrCodeIntegrationError, http.StatusBadGateway},
		{"RENDER_FAILED", http.StatusBadGateway},
		{ErrCodeRateLimited, http.StatusTooManyRequests},

		// pattern fallbacks
		{"INVALID_STAGE_TRANSITION", http.StatusBadRequest},
		{"COMMITMENT_REQUIRED", http.StatusUnprocessableEntity},
		{"BATCH_NOT_FOUND", http.StatusNotFound},
		{"ALREADY_DELETED", http.StatusConflict},
		{"FLAG_EXISTS", http.StatusConflict},
		{"NOT_DELETED", http.StatusUnprocessableEntity},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 2, resp.Meta.Page)

	resp = NewSuccessResponseWithMeta(nil, 5, 0, 0)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, DefaultPageSize, resp.Meta.PageSize)
	assert.Equal(t, 1, resp.Meta.TotalPages)
}

func TestErrorResponseJSON(t *testing.T) {
	body, err := json.Marshal(NewErrorResponseWithRequestID(ErrCodeNotFound, "Investor not found", "req-1"))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"success":false,"error":{"code":"NOT_FOUND","message":"Investor not found","request_id":"req-1"}}`,
		string(body))

	body, err = json.Marshal(NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
		{Field: "name", Message: "This field is required"},
	}))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"details":[{"field":"name","message":"This field is required"}]`)
}

func TestListRequestNormalize(t *testing.T) {
	r := ListRequest{Page: 0, PageSize: 500}
	r.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, MaxPageSize, r.PageSize)

	r = ListRequest{}
	r.Normalize()
	assert.Equal(t, DefaultPageSize, r.PageSize)
}

func TestParseBoolQuery(t *testing.T) {
	assert.True(t, ParseBoolQuery("true", false))
	assert.False(t, ParseBoolQuery("0", true))
	assert.True(t, ParseBoolQuery("maybe", true))
	assert.False(t, ParseBoolQuery("", false))
}
