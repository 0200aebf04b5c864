package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/config"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type fakeAuthService struct {
	loginReq      models.LoginRequest
	refreshReq    models.RefreshTokenRequest
	loggedOut     string
	logoutMeta    models.RequestMeta
	changedFor    string
	refreshErr    error
	loginResponse *models.LoginResponse
}

func (f *fakeAuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.loginReq = req
	if req.Password != "secret123" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return f.loginResponse, nil
}

func (f *fakeAuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.LoginResponse, error) {
	f.refreshReq = req
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.loginResponse, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, refreshToken string, meta models.RequestMeta) error {
	f.loggedOut = refreshToken
	f.logoutMeta = meta
	return nil
}

func (f *fakeAuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID, Email: "admin@school.test", Role: models.RoleAdmin}, nil
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest, meta models.RequestMeta) error {
	f.changedFor = userID
	return nil
}

func (f *fakeAuthService) AccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (f *fakeAuthService) RefreshTokenTTL() time.Duration { return 24 * time.Hour }

var testCookies = config.CookieConfig{AccessName: "sp_access", RefreshName: "sp_refresh"}

func cookieMap(cookies []*http.Cookie) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c
	}
	return out
}

func newAuthRouter(svc *fakeAuthService) *AuthHandler {
	return NewAuthHandler(svc, testCookies)
}

func TestAuthLoginSetsSessionCookies(t *testing.T) {
	svc := &fakeAuthService{loginResponse: &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}}
	h := newAuthRouter(svc)
	router := newTestRouter()
	router.POST("/auth/login", h.Login)

	req := jsonRequest(t, http.MethodPost, "/auth/login", map[string]string{"email": "admin@school.test", "password": "secret123"})
	req.Header.Set("User-Agent", "test-agent")
	rec := serve(router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-agent", svc.loginReq.UserAgent)

	cookies := cookieMap(rec.Result().Cookies())
	require.Contains(t, cookies, "sp_access")
	require.Contains(t, cookies, "sp_refresh")
	assert.Equal(t, "access", cookies["sp_access"].Value)
	assert.True(t, cookies["sp_access"].HttpOnly)
	assert.Equal(t, 900, cookies["sp_access"].MaxAge)
	assert.Equal(t, "refresh", cookies["sp_refresh"].Value)
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	h := newAuthRouter(&fakeAuthService{})
	router := newTestRouter()
	router.POST("/auth/login", h.Login)

	rec := serve(router, jsonRequest(t, http.MethodPost, "/auth/login", map[string]string{"email": "admin@school.test", "password": "nope"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestAuthRefreshFallsBackToCookie(t *testing.T) {
	svc := &fakeAuthService{loginResponse: &models.LoginResponse{AccessToken: "a2", RefreshToken: "r2"}}
	h := newAuthRouter(svc)
	router := newTestRouter()
	router.POST("/auth/refresh", h.Refresh)

	req := jsonRequest(t, http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "sp_refresh", Value: "r1"})
	rec := serve(router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", svc.refreshReq.RefreshToken)
	assert.Equal(t, "r2", cookieMap(rec.Result().Cookies())["sp_refresh"].Value)
}

func TestAuthRefreshFailureClearsCookies(t *testing.T) {
	svc := &fakeAuthService{refreshErr: appErrors.Clone(appErrors.ErrUnauthorized, "refresh token expired")}
	h := newAuthRouter(svc)
	router := newTestRouter()
	router.POST("/auth/refresh", h.Refresh)

	rec := serve(router, jsonRequest(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": "old"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cookies := cookieMap(rec.Result().Cookies())
	require.Contains(t, cookies, "sp_access")
	assert.Negative(t, cookies["sp_access"].MaxAge)
}

func TestAuthLogoutWorksWithoutSession(t *testing.T) {
	svc := &fakeAuthService{}
	h := newAuthRouter(svc)
	router := newTestRouter()
	router.POST("/auth/logout", h.Logout)

	req := jsonRequest(t, http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "sp_refresh", Value: "r1"})
	rec := serve(router, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "r1", svc.loggedOut)
	assert.Len(t, rec.Result().Cookies(), 2)
}

func TestAuthMeRequiresClaims(t *testing.T) {
	h := newAuthRouter(&fakeAuthService{})
	router := newTestRouter()
	router.GET("/anon/me", h.Me)
	router.GET("/me", asUser("u-1", models.RoleAdmin), h.Me)

	assert.Equal(t, http.StatusUnauthorized, serve(router, jsonRequest(t, http.MethodGet, "/anon/me", nil)).Code)
	rec := serve(router, jsonRequest(t, http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u-1"`)
}

func TestAuthChangePasswordUsesCaller(t *testing.T) {
	svc := &fakeAuthService{}
	h := newAuthRouter(svc)
	router := newTestRouter()
	router.POST("/auth/change-password", asUser("u-7", models.RoleEditor), h.ChangePassword)

	rec := serve(router, jsonRequest(t, http.MethodPost, "/auth/change-password", map[string]string{"old_password": "a", "new_password": "longenough"}))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u-7", svc.changedFor)
}
