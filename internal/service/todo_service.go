package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-todo-api/internal/model"
)

type TodoService struct {
	repo TodoRepository
	now  func() time.Time
}

func NewTodoService(repo TodoRepository) *TodoService {
	return &TodoService{repo: repo, now: time.Now}
}

func (s *TodoService) CreateList(ctx context.Context, req model.CreateTodoListRequest) (model.TodoList, error) {
	now := s.now().UTC()
	l := model.TodoList{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		IsActive:  true,
		Items:     []model.TodoItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}

	if err := s.repo.CreateList(ctx, l); err != nil {
		return model.TodoList{}, err
	}
	return l, nil
}

func (s *TodoService) GetList(ctx context.Context, id string) (model.TodoList, error) {
	return s.repo.FindList(ctx, id)
}

func (s *TodoService) ListLists(ctx context.Context, offset int, limit int) ([]model.TodoList, int, error) {
	return s.repo.ListLists(ctx, offset, limit)
}

func (s *TodoService) UpdateList(ctx context.Context, id string, upd model.TodoListUpdate) (model.TodoList, error) {
	l, err := s.repo.FindList(ctx, id)
	if err != nil {
		return model.TodoList{}, err
	}

	if upd.Title != nil {
		l.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.IsActive != nil {
		l.IsActive = *upd.IsActive
	}
	l.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateList(ctx, l); err != nil {
		return model.TodoList{}, err
	}
	return l, nil
}

// DeleteList removes the list together with its items.
func (s *TodoService) DeleteList(ctx context.Context, id string) error {
	return s.repo.DeleteList(ctx, id)
}

func (s *TodoService) CreateItem(ctx context.Context, req model.CreateTodoItemRequest) (model.TodoItem, error) {
	if _, err := s.repo.FindList(ctx, req.TodoListID); err != nil {
		return model.TodoItem{}, err
	}

	now := s.now().UTC()
	it := model.TodoItem{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsComplete:  req.IsComplete,
		TodoListID:  req.TodoListID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateItem(ctx, it); err != nil {
		return model.TodoItem{}, err
	}
	return it, nil
}

func (s *TodoService) GetItem(ctx context.Context, id string) (model.TodoItem, error) {
	return s.repo.FindItem(ctx, id)
}

func (s *TodoService) ListItems(ctx context.Context, offset int, limit int) ([]model.TodoItem, int, error) {
	return s.repo.ListItems(ctx, offset, limit)
}

func (s *TodoService) UpdateItem(ctx context.Context, id string, upd model.TodoItemUpdate) (model.TodoItem, error) {
	it, err := s.repo.FindItem(ctx, id)
	if err != nil {
		return model.TodoItem{}, err
	}

	if upd.TodoListID != nil && *upd.TodoListID != it.TodoListID {
		if _, err := s.repo.FindList(ctx, *upd.TodoListID); err != nil {
			return model.TodoItem{}, err
		}
		it.TodoListID = *upd.TodoListID
	}
	if upd.Name != nil {
		it.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		it.Description = *upd.Description
	}
	if upd.IsComplete != nil {
		it.IsComplete = *upd.IsComplete
	}
	it.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return model.TodoItem{}, err
	}
	return it, nil
}

func (s *TodoService) DeleteItem(ctx context.Context, id string) error {
	return s.repo.DeleteItem(ctx, id)
}
