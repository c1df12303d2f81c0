package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nmarks/payflow/internal/adapter/http/dto"
	"github.com/nmarks/payflow/internal/domain"
	"github.com/nmarks/payflow/internal/infrastructure/auth"
)

// AuthHandler mints dev-mode caller identity tokens. Real deployments issue
// tokens from an external identity collaborator and disable this route.
type AuthHandler struct {
	jwtManager *auth.JWTManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{jwtManager: jwtManager}
}

// Token mints a token for the requested identity.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	token, err := h.jwtManager.Generate(&domain.User{
		ID:   req.UserID,
		Name: req.Name,
		Role: domain.Role(req.Role),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token})
}
