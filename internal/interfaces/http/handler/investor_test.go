package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	activityapp "github.com/investorcrm/backend/internal/application/activity"
	investorapp "github.com/investorcrm/backend/internal/application/investor"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/infrastructure/cache"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/internal/interfaces/http/dto"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
	"github.com/investorcrm/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type investorFixture struct {
	router   *gin.Engine
	tenantID uuid.UUID
	userID   uuid.UUID
	role     identity.Role
}

func newInvestorFixture(t *testing.T) *investorFixture {
	db := testutil.NewSQLiteDB(t)
	investors := persistence.NewGormInvestorRepository(db)
	activities := persistence.NewGormActivityRepository(db)
	events := testutil.NewRecordingPublisher()
	memCache := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = memCache.Close() })

	recorder := activityapp.NewActivityService(activities, investors, persistence.NewGormContactRepository(db), events, zap.NewNop())
	svc := investorapp.NewInvestorService(
		investors, recorder, activities,
		persistence.NewGormMeetingRepository(db), persistence.NewGormTaskRepository(db),
		memCache, time.Minute, events, nil, zap.NewNop(),
	)
	h := NewInvestorHandler(svc)

	f := &investorFixture{tenantID: uuid.New(), userID: uuid.New(), role: identity.RoleMember}
	router := gin.New()
	router.Use(middleware.RequestID(), func(c *gin.Context) {
		testutil.Authenticate(c, f.tenantID, f.userID, string(f.role))
		c.Next()
	})
	g := router.Group("/investors")
	g.GET("", middleware.RequirePermission(identity.PermInvestorRead), h.List)
	g.POST("", middleware.RequirePermission(identity.PermInvestorWrite), h.Create)
	g.GET("/pipeline", middleware.RequirePermission(identity.PermInvestorRead), h.Pipeline)
	g.GET("/deleted", middleware.RequirePermission(identity.PermInvestorRead), h.ListDeleted)
	g.POST("/bulk/stage", middleware.RequirePermission(identity.PermInvestorWrite), h.BulkMoveStage)
	g.GET("/:id", middleware.RequirePermission(identity.PermInvestorRead), h.GetByID)
	g.PUT("/:id", middleware.RequirePermission(identity.PermInvestorWrite), h.Update)
	g.DELETE("/:id", middleware.RequirePermission(identity.PermInvestorDelete), h.Delete)
	g.POST("/:id/restore", middleware.RequirePermission(identity.PermInvestorDelete), h.Restore)
	g.POST("/:id/stage", middleware.RequirePermission(identity.PermInvestorWrite), h.MoveStage)
	g.GET("/:id/timeline", middleware.RequirePermission(identity.PermInvestorRead), h.Timeline)
	f.router = router
	return f
}

func (f *investorFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoJSON(t, f.router, method, path, body, nil)
}

func (f *investorFixture) create(t *testing.T, name string) investorapp.InvestorResponse {
	t.Helper()
	w := f.do(t, http.MethodPost, "/investors", gin.H{"name": name, "firm_name": name + " Ventures", "type": "vc"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeData[investorapp.InvestorResponse](t, w)
}

func TestInvestorHandler_CreateAndGet(t *testing.T) {
	f := newInvestorFixture(t)

	created := f.create(t, "Jane Partner")
	assert.Equal(t, "target", created.Stage)
	assert.Equal(t, 1, created.Version)

	w := f.do(t, http.MethodGet, "/investors/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, testutil.DecodeData[investorapp.InvestorResponse](t, w).ID)

	t.Run("invalid type", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/investors", gin.H{"name": "X", "type": "bank"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/investors/"+uuid.NewString(), nil)
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("other tenant cannot see it", func(t *testing.T) {
		own := f.tenantID
		f.tenantID = uuid.New()
		defer func() { f.tenantID = own }()

		w := f.do(t, http.MethodGet, "/investors/"+created.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvestorHandler_List(t *testing.T) {
	f := newInvestorFixture(t)
	f.create(t, "Alpha")
	f.create(t, "Beta")
	f.create(t, "Gamma")

	w := f.do(t, http.MethodGet, "/investors?page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	w = f.do(t, http.MethodGet, "/investors?owner_id=not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/investors?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvestorHandler_MoveStage(t *testing.T) {
	f := newInvestorFixture(t)
	inv := f.create(t, "Jane Partner")

	w := f.do(t, http.MethodPost, "/investors/"+inv.ID.String()+"/stage", investorapp.MoveStageRequest{Version: inv.Version, Stage: "contacted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := testutil.DecodeData[investorapp.InvestorResponse](t, w)
	assert.Equal(t, "contacted", moved.Stage)

	t.Run("stale version", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/investors/"+inv.ID.String()+"/stage", investorapp.MoveStageRequest{Version: inv.Version, Stage: "meeting"})
		testutil.AssertErrorResponse(t, w, http.StatusConflict, dto.ErrCodeOptimistic)
	})

	t.Run("timeline records the change", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/investors/"+inv.ID.String()+"/timeline", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "contacted")
	})

	t.Run("bulk move reports per investor", func(t *testing.T) {
		other := f.create(t, "Other")
		w := f.do(t, http.MethodPost, "/investors/bulk/stage", investorapp.BulkMoveStageRequest{
			IDs:   []uuid.UUID{other.ID, uuid.New()},
			Stage: "contacted",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := testutil.DecodeData[investorapp.BulkMoveResponse](t, w)
		assert.Equal(t, 1, result.Succeeded)
		assert.Equal(t, 1, result.Failed)
	})
}

func TestInvestorHandler_DeleteAndRestore(t *testing.T) {
	f := newInvestorFixture(t)
	inv := f.create(t, "Jane Partner")

	t.Run("members cannot delete", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/investors/"+inv.ID.String(), nil)
		testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
	})

	f.role = identity.RoleAdmin
	w := f.do(t, http.MethodDelete, "/investors/"+inv.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/investors/"+inv.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/investors/deleted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	trash := testutil.DecodeData[[]investorapp.InvestorResponse](t, w)
	require.Len(t, trash, 1)
	assert.Equal(t, inv.ID, trash[0].ID)

	w = f.do(t, http.MethodPost, "/investors/"+inv.ID.String()+"/restore", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, testutil.DecodeData[investorapp.InvestorResponse](t, w).DeletedAt)
}

func TestInvestorHandler_ViewerIsReadOnly(t *testing.T) {
	f := newInvestorFixture(t)
	f.create(t, "Jane Partner")
	f.role = identity.RoleViewer

	w := f.do(t, http.MethodGet, "/investors", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/investors", gin.H{"name": "Nope", "type": "vc"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/investors/pipeline", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
