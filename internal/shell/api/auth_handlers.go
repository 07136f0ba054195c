package api

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/pgstay/internal/core/auth"
	"github.com/artpar/pgstay/internal/core/domain"
	"github.com/artpar/pgstay/internal/shell/store"
)

const messageBadCredentials = "Invalid phone number or password"

// =============================================================================
// Auth Handlers
// =============================================================================

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := domain.ValidatePassword(req.Password); err != nil {
		h.writeFailure(w, r, "User", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		h.writeFailure(w, r, "User", err)
		return
	}

	user, err := domain.NewUser(req.Name, req.PhoneNumber, req.Role, string(hash))
	if err != nil {
		h.writeFailure(w, r, "User", err)
		return
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		h.writeFailure(w, r, "User", err)
		return
	}

	session, err := h.issueSession(*user)
	if err != nil {
		h.writeFailure(w, r, "User", err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	h.writeSuccess(w, http.StatusCreated, "Registration successful", session)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByPhone(r.Context(), req.PhoneNumber)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusUnauthorized, messageBadCredentials)
		return
	}
	if err != nil {
		h.writeFailure(w, r, "User", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.Warn("login rejected", "user_id", user.ID, "remote_addr", r.RemoteAddr)
		h.writeError(w, http.StatusUnauthorized, messageBadCredentials)
		return
	}

	session, err := h.issueSession(*user)
	if err != nil {
		h.writeFailure(w, r, "User", err)
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID)
	h.writeSuccess(w, http.StatusOK, "Login successful", session)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	if err := h.store.RevokeToken(r.Context(), ac.TokenID, ac.ExpiresAt); err != nil {
		h.writeFailure(w, r, "Session", err)
		return
	}

	h.logger.Info("user logged out", "user_id", ac.UserID, "token_id", ac.TokenID)
	h.writeSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	user, err := h.store.GetUser(r.Context(), ac.UserID)
	if err != nil {
		h.writeFailure(w, r, "User", err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "User retrieved successfully", user)
}

func (h *Handler) issueSession(user domain.User) (domain.Session, error) {
	token, ac, err := h.tokens.Issue(user)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{Token: token, User: user, ExpiresAt: ac.ExpiresAt}, nil
}
