package handler

import (
	"net/http"
	"time"

	"github.com/SergeiKhy/shrinkurl/internal/models"
	"github.com/SergeiKhy/shrinkurl/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CookieConfig параметры cookie с токеном сессии
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	service   service.AuthService
	cookie    CookieConfig
	tokenFrom func(*gin.Context) string
	logger    *zap.Logger
}

// NewAuthHandler tokenFrom достаёт токен текущего запроса (тот же, что проверяет middleware)
func NewAuthHandler(service service.AuthService, cookie CookieConfig, tokenFrom func(*gin.Context) string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:   service,
		cookie:    cookie,
		tokenFrom: tokenFrom,
		logger:    logger,
	}
}

type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignUp POST /api/v1/users/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var input models.SignUpInput
	if !bindJSON(c, &input) {
		return
	}

	if _, err := h.service.SignUp(c.Request.Context(), &input); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "User successfully created"})
}

// Login POST /api/v1/users/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginInput
	if !bindJSON(c, &input) {
		return
	}

	session, err := h.service.Login(c.Request.Context(), &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, session.Token, maxAge, "/", "", h.cookie.Secure, true)

	c.JSON(http.StatusOK, LoginResponse{
		Message:   "Login successful",
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout POST /api/v1/users/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), h.tokenFrom(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// Me GET /api/v1/users
func (h *AuthHandler) Me(c *gin.Context) {
	owner, ok := ownerOrAbort(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// VerifyEmail POST /api/v1/users/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var input models.VerifyEmailInput
	if !bindJSON(c, &input) {
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), input.Token); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Email verified successfully"})
}

// RequestPasswordReset POST /api/v1/users/request-password-reset
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var input models.PasswordResetRequestInput
	if !bindJSON(c, &input) {
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), input.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "If the email is registered, a reset link has been sent"})
}

// ChangePassword POST /api/v1/users/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var input models.ChangePasswordInput
	if !bindJSON(c, &input) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), input.Token, input.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}
