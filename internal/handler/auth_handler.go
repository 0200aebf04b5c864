package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/config"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, refreshToken string, meta models.RequestMeta) error
	Me(ctx context.Context, userID string) (*models.UserInfo, error)
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest, meta models.RequestMeta) error
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

// AuthHandler wires HTTP endpoints to the auth service. Sessions are issued
// as HttpOnly cookies and echoed in the body for API clients.
type AuthHandler struct {
	service authService
	cookies config.CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookies config.CookieConfig) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by email and password; sets session cookies
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSession(c, res)
	response.JSON(c, http.StatusOK, res, nil)
}

// Refresh godoc
// @Summary Refresh session
// @Description Rotate the refresh token from the cookie or request body
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest false "Refresh payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid refresh payload"))
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(h.cookies.RefreshName)
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		h.clearSession(c)
		response.Error(c, err)
		return
	}
	h.setSession(c, res)
	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the refresh token and clear session cookies
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest false "Refresh token"
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, invalidPayload(err))
		return
	}
	if payload.RefreshToken == "" {
		payload.RefreshToken, _ = c.Cookie(h.cookies.RefreshName)
	}

	if err := h.service.Logout(c.Request.Context(), payload.RefreshToken, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.clearSession(c)
	response.NoContent(c)
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	info, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// ChangePassword godoc
// @Summary Change password
// @Description Change password for the current user; other sessions are revoked
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ChangePasswordRequest true "Change password"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), claims.UserID, req, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.clearSession(c)
	response.NoContent(c)
}

func (h *AuthHandler) setSession(c *gin.Context, res *models.LoginResponse) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookies.AccessName, res.AccessToken, int(h.service.AccessTokenTTL().Seconds()), "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(h.cookies.RefreshName, res.RefreshToken, int(h.service.RefreshTokenTTL().Seconds()), "/", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookies.AccessName, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(h.cookies.RefreshName, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
}
