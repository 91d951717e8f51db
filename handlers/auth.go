package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/config"
	"github.com/carolinavmo/PMR-atlas/internal/models"
	"github.com/carolinavmo/PMR-atlas/internal/sessions"
	"github.com/carolinavmo/PMR-atlas/internal/tokens"
	"github.com/carolinavmo/PMR-atlas/internal/users"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
	"github.com/carolinavmo/PMR-atlas/pkg/middleware"
)

// LoginRequest is a password login for a local account.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse is returned by register, login and refresh.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	revocations *sessions.Revocations
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, rev *sessions.Revocations) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, revocations: rev}
}

// Register mounts the unauthenticated routes under /auth.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/register", h.SignUp)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
}

// RegisterProtected mounts routes that need a resolved caller.
func (h *AuthHandler) RegisterProtected(rg *gin.RouterGroup) {
	rg.POST("/auth/logout", h.Logout)
	rg.GET("/auth/me", h.Me)
	rg.GET("/admin/users", h.ListUsers)
	rg.PUT("/admin/users/:id/role", h.SetRole)
}

func (h *AuthHandler) issue(c *gin.Context, u *models.User, status int) {
	access, err := tokens.GenerateAccessToken(h.cfg.JWT.Secret, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		logger.Errorf("failed to sign access token: %v", err)
		middleware.RespondError(c, err)
		return
	}
	refresh, err := h.sessionsSvc.CreateSession(c.Request.Context(), u.Sub, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		middleware.RespondError(c, err)
		return
	}
	c.JSON(status, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(h.cfg.JWT.AccessTokenTTL.Seconds()),
		User:         u,
	})
}

// SignUp creates a student account and logs it in.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req users.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	u, err := h.usersSvc.Register(c.Request.Context(), req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	logger.Infof("auth: registered %s", u.ID)
	h.issue(c, u, http.StatusCreated)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	h.issue(c, u, http.StatusOK)
}

// Refresh rotates the refresh token and mints a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	newRefresh, sub, err := h.sessionsSvc.Rotate(c.Request.Context(), req.RefreshToken, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	u, err := h.usersSvc.GetBySub(c.Request.Context(), sub)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if u == nil {
		_ = h.sessionsSvc.DeleteRefresh(c.Request.Context(), newRefresh)
		middleware.RespondError(c, fmt.Errorf("%w: account no longer exists", apperr.ErrUnauthorized))
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg.JWT.Secret, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: newRefresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(h.cfg.JWT.AccessTokenTTL.Seconds()),
		User:         u,
	})
}

// Logout revokes the presented access token and drops the refresh session
// named in the body, if any.
func (h *AuthHandler) Logout(c *gin.Context) {
	if tok := middleware.TokenFrom(c); tok != "" {
		if err := h.revocations.Revoke(c.Request.Context(), tok, h.cfg.JWT.AccessTokenTTL); err != nil {
			logger.Errorf("auth: revoke access token: %v", err)
			middleware.RespondError(c, fmt.Errorf("%w: could not revoke token", apperr.ErrUpstreamUnavailable))
			return
		}
	}
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken != "" {
		if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
			logger.Warnf("auth: delete refresh session: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	u, err := h.usersSvc.GetByID(c.Request.Context(), caller.ID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	out, err := h.usersSvc.List(c.Request.Context(), caller)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// SetRole handles PUT /admin/users/:id/role?role=editor.
func (h *AuthHandler) SetRole(c *gin.Context) {
	caller, ok := middleware.RequireCaller(c)
	if !ok {
		return
	}
	u, err := h.usersSvc.SetRole(c.Request.Context(), caller, c.Param("id"), c.Query("role"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Role updated to %s", u.Role), "user": u})
}
