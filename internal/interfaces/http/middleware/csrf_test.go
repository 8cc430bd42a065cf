package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRF(t *testing.T) {
	router := gin.New()
	router.Use(CSRF(true))
	router.Any("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	token, err := NewCSRFToken()
	require.NoError(t, err)
	assert.Len(t, token, 43)

	send := func(method string, setup func(r *http.Request)) int {
		req := httptest.NewRequest(method, "/test", nil)
		setup(req)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}
	session := func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "jwt"})
		r.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
	}

	tests := []struct {
		name   string
		method string
		setup  func(r *http.Request)
		want   int
	}{
		{"safe method", http.MethodGet, session, http.StatusOK},
		{"cookie session without header", http.MethodPost, session, http.StatusForbidden},
		{"cookie session with matching header", http.MethodPost, func(r *http.Request) {
			session(r)
			r.Header.Set(CSRFHeaderName, token)
		}, http.StatusOK},
		{"cookie session with wrong header", http.MethodDelete, func(r *http.Request) {
			session(r)
			r.Header.Set(CSRFHeaderName, token+"x")
		}, http.StatusForbidden},
		{"refresh cookie alone counts as a session", http.MethodPost, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "r"})
		}, http.StatusForbidden},
		{"bearer requests are exempt", http.MethodPut, func(r *http.Request) {
			session(r)
			r.Header.Set("Authorization", "Bearer jwt")
		}, http.StatusOK},
		{"no session cookie", http.MethodPost, func(*http.Request) {}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, send(tt.method, tt.setup))
		})
	}

	t.Run("disabled", func(t *testing.T) {
		off := gin.New()
		off.Use(CSRF(false))
		off.POST("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		session(req)
		w := httptest.NewRecorder()
		off.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
