package integrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"a"},{"id":"b"}]}`))
	}))
	defer srv.Close()

	c := NewClient("test", time.Second)
	res, err := c.JSON(context.Background(), "list", http.MethodPost, srv.URL, Bearer("tok"), map[string]string{"q": "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, []string{res.Get("items.0.id").String(), res.Get("items.1.id").String()})
}

func TestClient_Form(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"at"}`))
	}))
	defer srv.Close()

	res, err := NewClient("test", 0).Form(context.Background(), "token", srv.URL, url.Values{"grant_type": {"authorization_code"}})
	require.NoError(t, err)
	assert.Equal(t, "at", res.Get("access_token").String())
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantMsg   string
		retryable bool
	}{
		{"nested message", 400, `{"error":{"message":"bad query"}}`, "bad query", false},
		{"oauth description", 401, `{"error":"invalid_grant","error_description":"Token has been revoked"}`, "Token has been revoked", false},
		{"plain error string", 429, `{"error":"rate limited"}`, "rate limited", true},
		{"non json", 502, `upstream down`, "upstream down", true},
		{"empty", 500, ``, "empty response", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient("test", time.Second).JSON(context.Background(), "op", http.MethodGet, srv.URL, nil, nil)
			require.Error(t, err)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.retryable, apiErr.Retryable())
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"broken":`))
	}))
	defer srv.Close()

	_, err := NewClient("test", time.Second).JSON(context.Background(), "op", http.MethodGet, srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid JSON"))
}

func TestClient_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	res, err := NewClient("test", time.Second).JSON(context.Background(), "op", http.MethodDelete, srv.URL, nil, nil)
	require.NoError(t, err)
	assert.False(t, res.Exists())
}
