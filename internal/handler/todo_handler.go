package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-todo-api/internal/model"
	"go-todo-api/internal/service"
)

type TodoHandler struct {
	service *service.TodoService
}

func NewTodoHandler(service *service.TodoService) *TodoHandler {
	return &TodoHandler{service: service}
}

func (h *TodoHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r, "skip")
	if err != nil {
		writeError(w, r, err)
		return
	}

	lists, total, err := h.service.ListLists(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, lists, &model.Meta{Offset: offset, Limit: limit, Total: total})
}

func (h *TodoHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateTodoListRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.service.CreateList(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, list, nil)
}

func (h *TodoHandler) GetList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.GetList(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, list, nil)
}

func (h *TodoHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	var payload model.UpdateTodoListRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.service.UpdateList(r.Context(), chi.URLParam(r, "id"), payload.ToUpdate())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, list, nil)
}

func (h *TodoHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteList(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeNoContent(w)
}

func (h *TodoHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r, "skip")
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, total, err := h.service.ListItems(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, &model.Meta{Offset: offset, Limit: limit, Total: total})
}

func (h *TodoHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateTodoItemRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.service.CreateItem(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, item, nil)
}

func (h *TodoHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, item, nil)
}

func (h *TodoHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var payload model.UpdateTodoItemRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "id"), payload.ToUpdate())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, item, nil)
}

func (h *TodoHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeNoContent(w)
}
