package handlers

import (
	"context"
	"net/http"

	"bookdesk/middleware"
	"bookdesk/models"
	"bookdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthBackend is the public part of the scheduling backend.
type AuthBackend interface {
	RegisterUser(ctx context.Context, in models.UserRegistration) (*models.UserResponse, error)
	RegisterProvider(ctx context.Context, in models.ProviderRegistration) (*models.ProviderResponse, error)
	Login(ctx context.Context, in models.LoginRequest) (*models.LoginResponse, error)
	VerifyOTP(ctx context.Context, in models.OTPRequest) (*models.LoginResponse, error)
}

// TokenCache remembers principals for issued tokens.
type TokenCache interface {
	Remember(ctx context.Context, resp models.LoginResponse) (models.Principal, error)
	Forget(ctx context.Context, token string) error
}

// AuthHandler proxies registration and login to the backend.
type AuthHandler struct {
	Backend  AuthBackend
	Tokens   TokenCache
	Sessions Sessions
}

func NewAuthHandler(b AuthBackend, tokens TokenCache, sessions Sessions) *AuthHandler {
	return &AuthHandler{Backend: b, Tokens: tokens, Sessions: sessions}
}

// RegisterUserHandler handles user registration.
func (h *AuthHandler) RegisterUserHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.UserRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid registration request", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	user, err := h.Backend.RegisterUser(c.Request.Context(), req)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	logger.Info("User registered", zap.String("email", user.Email))
	c.JSON(http.StatusCreated, user)
}

// RegisterProviderHandler handles provider registration.
func (h *AuthHandler) RegisterProviderHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.ProviderRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid provider registration request", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	provider, err := h.Backend.RegisterProvider(c.Request.Context(), req)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	logger.Info("Provider registered", zap.String("email", provider.Email))
	c.JSON(http.StatusCreated, provider)
}

// LoginHandler runs the first login step. Admins get a token immediately;
// users and providers are asked for an OTP.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	resp, err := h.Backend.Login(c.Request.Context(), req)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	h.issue(c, resp)
}

// VerifyOTPHandler completes login for users and providers.
func (h *AuthHandler) VerifyOTPHandler(c *gin.Context) {
	var req models.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	resp, err := h.Backend.VerifyOTP(c.Request.Context(), req)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	h.issue(c, resp)
}

func (h *AuthHandler) issue(c *gin.Context, resp *models.LoginResponse) {
	if resp.Token != "" {
		p, err := h.Tokens.Remember(c.Request.Context(), *resp)
		if err != nil {
			getLogger(c).Error("Backend issued an unreadable token", zap.Error(err))
			utils.JSONError(c, http.StatusBadGateway, "Login could not be completed. Please try again.", "")
			return
		}
		if resp.Role == "" {
			resp.Role = p.Role
		}
		getLogger(c).Info("Login completed", zap.String("email", p.Email), zap.String("role", string(p.Role)))
	}
	c.JSON(http.StatusOK, resp)
}

// LogoutHandler forgets the caller's principal and dashboard session.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Missing or invalid Authorization header", "")
		return
	}
	if err := h.Tokens.Forget(c.Request.Context(), token); err != nil {
		getLogger(c).Warn("Failed to forget principal", zap.Error(err))
	}
	h.Sessions.Drop(token)
	c.JSON(http.StatusOK, models.Message{Message: "Logged out"})
}
