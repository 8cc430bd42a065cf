// Package testutil holds the fixtures shared by the CRM backend tests:
// mocked and in-memory databases, authenticated gin contexts and envelope decoding.
package testutil

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM postgres dialect over sqlmock.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a mock database that is closed when the test ends.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// TestContext wraps a Gin test context with its recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
}

// NewTestContext creates a Gin context for a request without body.
func NewTestContext(t *testing.T, method, path string) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return &TestContext{Context: c, Recorder: w}
}

// NewGetContext is NewTestContext for GET /.
func NewGetContext(t *testing.T) *TestContext {
	t.Helper()
	return NewTestContext(t, http.MethodGet, "/")
}

// SetRequestID sets a request ID in the context.
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set(middleware.RequestIDContextKey, id)
}

// SetClaims authenticates the context as userID inside tenantID with the given role.
func (tc *TestContext) SetClaims(tenantID, userID uuid.UUID, role string, permissions ...string) *auth.Claims {
	return Authenticate(tc.Context, tenantID, userID, role, permissions...)
}

// Authenticate stores access-token claims on c the way the auth middleware does.
func Authenticate(c *gin.Context, tenantID, userID uuid.UUID, role string, permissions ...string) *auth.Claims {
	claims := &auth.Claims{
		TenantID:    tenantID,
		UserID:      userID,
		Email:       "user@example.com",
		Role:        role,
		Permissions: permissions,
		TokenType:   auth.TokenTypeAccess,
	}
	c.Set(middleware.ClaimsKey, claims)
	return claims
}
