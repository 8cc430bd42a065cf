package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/investorcrm/backend/internal/application/identity"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
)

// csrfCookieTTL bounds a CSRF token fetched outside of login
const csrfCookieTTL = 24 * time.Hour

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	cookies     *SessionCookies
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, cookies *SessionCookies) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
	}
}

// Register godoc
// @Summary      Create a workspace
// @Description  Creates a tenant and its owner account, then signs the owner in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Workspace and owner"
// @Success      201 {object} dto.Response{data=LoginResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), identity.RegisterInput{
		CompanyName: req.CompanyName,
		Slug:        req.Slug,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.session(c, result)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Login godoc
// @Summary      User login
// @Description  Authenticate with email and password. tenant_slug is only needed when the email belongs to several workspaces.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      423 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		TenantSlug: req.TenantSlug,
		Email:      req.Email,
		Password:   req.Password,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.session(c, result)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *AuthHandler) session(c *gin.Context, result *identity.LoginResult) (*LoginResponse, error) {
	csrf, err := h.cookies.SetSession(c, result.Tokens)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:     toTokenResponse(result.Tokens),
		User:      result.User,
		CSRFToken: csrf,
	}, nil
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Description  Rotates the token pair. The refresh token comes from the body or the refresh_token cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest false "Refresh token"
// @Success      200 {object} dto.Response{data=RefreshTokenResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(middleware.RefreshCookieName)
	}
	if req.RefreshToken == "" {
		h.Unauthorized(c, "Refresh token is required")
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.cookies.Clear(c)
		h.HandleError(c, err)
		return
	}

	csrf, err := h.cookies.SetSession(c, pair)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RefreshTokenResponse{Token: toTokenResponse(pair), CSRFToken: csrf})
}

// Logout godoc
// @Summary      User logout
// @Description  Revokes the access token and, when supplied, the refresh token
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req LogoutRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(middleware.RefreshCookieName)
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		TenantID:     claims.TenantID,
		UserID:       claims.UserID,
		AccessJTI:    claims.ID,
		AccessTTL:    ttl,
		RefreshToken: req.RefreshToken,
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.cookies.Clear(c)
	h.Success(c, MessageResponse{Message: "Logged out successfully"})
}

// GetCurrentUser godoc
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	info, err := h.authService.Me(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// UpdateProfile changes the caller's display name or LinkedIn profile URL
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	info, err := h.authService.UpdateProfile(c.Request.Context(), tenantID, userID, identity.UpdateProfileInput{
		DisplayName: req.DisplayName,
		LinkedInURL: req.LinkedInURL,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// CSRFToken godoc
// @Summary      Issue a CSRF token
// @Description  Sets the csrf_token cookie. Cookie-authenticated clients echo it in X-CSRF-Token on unsafe requests.
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=CSRFResponse}
// @Router       /auth/csrf [get]
func (h *AuthHandler) CSRFToken(c *gin.Context) {
	token, err := h.cookies.SetCSRF(c, csrfCookieTTL)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CSRFResponse{CSRFToken: token})
}

// ChangePassword godoc
// @Summary      Change password
// @Description  Changes the caller's password and revokes their other sessions
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Password change request"
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), identity.ChangePasswordInput{
		TenantID:    tenantID,
		UserID:      userID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "Password changed successfully"})
}
