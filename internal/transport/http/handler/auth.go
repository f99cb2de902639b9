package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/auth"
	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Login(ctx context.Context, username, password string) (auth.Token, error)
	Register(ctx context.Context, username, password string) (*domain.User, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

// bcrypt ignores input past 72 bytes.
type credentialsRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=72"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	tok, err := h.authUsecase.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     tok.Value,
		TokenType: "Bearer",
		ExpiresAt: tok.ExpiresAt.UTC(),
	})
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	user, err := h.authUsecase.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	h.logger.InfoContext(c.Request.Context(), "user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, registerResponse{Success: true, Message: "User registered successfully"})
}
