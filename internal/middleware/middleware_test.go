package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func protectedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	validator := stubValidator{
		"editor-token": {UserID: "u-editor", Role: models.RoleEditor},
		"admin-token":  {UserID: "u-admin", Role: models.RoleAdmin},
	}
	chain := append([]gin.HandlerFunc{JWT(validator, "access_token")}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})
	router.GET("/private", chain...)
	return router
}

func TestJWTAcceptsCookieOrBearer(t *testing.T) {
	router := protectedRouter()

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: "admin-token"}) }, http.StatusOK, "u-admin"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer editor-token") }, http.StatusOK, "u-editor"},
		{"cookie wins", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "access_token", Value: "admin-token"})
			r.Header.Set("Authorization", "Bearer editor-token")
		}, http.StatusOK, "u-admin"},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized, ""},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }, http.StatusUnauthorized, ""},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestRoleGuards(t *testing.T) {
	atLeastAdmin := protectedRouter(RequireAtLeast(models.RoleAdmin))
	onlyEditor := protectedRouter(RequireRoles(models.RoleEditor))

	serve := func(router *gin.Engine, token string) int {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(atLeastAdmin, "admin-token"))
	assert.Equal(t, http.StatusForbidden, serve(atLeastAdmin, "editor-token"))
	assert.Equal(t, http.StatusOK, serve(onlyEditor, "editor-token"))
	assert.Equal(t, http.StatusForbidden, serve(onlyEditor, "admin-token"))
}

type recordingAudit struct {
	logs []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	audit := &recordingAudit{}
	router := protectedRouter(Audit(audit, nil, models.AuditActionExport, models.AuditResourceResult))

	req := httptest.NewRequest(http.MethodGet, "/private?format=csv", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionExport, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "u-admin", *audit.logs[0].UserID)
	assert.Contains(t, string(audit.logs[0].NewValues), "format=csv")
}

type recordingObserver struct {
	paths    []string
	statuses []int
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.paths = append(r.paths, path)
	r.statuses = append(r.statuses, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/news/:slug", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/news/sports-day", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, []string{"/news/:slug", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, observer.statuses)
}

func TestResponseMetaTracksCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
