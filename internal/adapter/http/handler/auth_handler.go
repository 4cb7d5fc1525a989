package handler

import (
	"net/http"
	"time"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/auth"
)

// AuthHandler issues actor tokens.
type AuthHandler struct {
	jwtManager *auth.JWTManager
	expiration time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtManager *auth.JWTManager, expiration time.Duration) *AuthHandler {
	return &AuthHandler{
		jwtManager: jwtManager,
		expiration: expiration,
	}
}

// IssueToken signs a token for another actor. It is mounted behind the admin
// role check.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	actor := domain.Actor{Username: req.Username, Role: domain.Role(req.Role)}
	token, err := h.jwtManager.Generate(actor)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to issue token", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TokenResponse{
		Token:     token,
		Username:  actor.Username,
		Role:      string(actor.Role),
		ExpiresIn: int64(h.expiration.Seconds()),
	})
}
