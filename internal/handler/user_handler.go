package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-todo-api/internal/model"
	"go-todo-api/internal/service"
)

type UserHandler struct {
	service *service.AuthService
}

func NewUserHandler(service *service.AuthService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r, "offset")
	if err != nil {
		writeError(w, r, err)
		return
	}

	users, total, err := h.service.ListAccounts(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.UserList{Users: users}, &model.Meta{Offset: offset, Limit: limit, Total: total})
}

func (h *UserHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var payload model.ProvisionRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.ProvisionAccount(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, principal.User, nil)
}

func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.Activate(r.Context(), principal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.Deactivate(r.Context(), principal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.GetAccount(r.Context(), principal.User, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload model.UpdateUserRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.UpdateAccount(r.Context(), principal.User, chi.URLParam(r, "id"), payload.ToUpdate())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeNoContent(w)
}
