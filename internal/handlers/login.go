package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/auth"
	apperrors "github.com/juancollazo-ch/magazord-sales-dashboard/internal/errors"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Status    string    `json:"status"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LoginHandler struct {
	users    *auth.Users
	sessions *auth.Sessions
	logger   *zap.Logger
}

func NewLoginHandler(users *auth.Users, sessions *auth.Sessions, logger *zap.Logger) *LoginHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &LoginHandler{users: users, sessions: sessions, logger: logger}
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.For(r.Context(), h.logger)

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		_ = WriteError(w, apperrors.ErrBadRequest("invalid JSON", err))
		return
	}

	if err := h.users.Authenticate(req.Username, req.Password); err != nil {
		logger.Warn("login rejected", zap.String("user", req.Username))
		_ = WriteError(w, err)
		return
	}

	token, expires := h.sessions.Issue(req.Username)
	logger.Info("login accepted", zap.String("user", req.Username))
	_ = WriteJSON(w, LoginResponse{Status: "success", Token: token, ExpiresAt: expires})
}
