package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-todo-api/internal/model"
	"go-todo-api/internal/service"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload model.SignupRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.Signup(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	tokens, err := h.service.Login(r.Context(), payload)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.service.Refresh(r.Context(), principal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, token, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Logout(r.Context(), principal); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "logged out successfully"}, nil)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.VerifyEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sent, err := h.service.ResendVerification(r.Context(), principal.User)
	if err != nil {
		writeError(w, r, err)
		return
	}

	message := "verification email sent"
	if !sent {
		message = "account is already verified"
	}
	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: message}, nil)
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var payload model.PasswordResetRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), payload.Email); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{
		Message: "if the address belongs to an active account, a reset link has been sent",
	}, nil)
}

func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var payload model.PasswordResetConfirmRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.ConfirmPasswordReset(r.Context(), chi.URLParam(r, "token"), payload); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "password reset successfully"}, nil)
}
