package testutil

import (
	"context"
	"sort"
	"sync"

	"go-todo-api/internal/model"
)

type TodoStore struct {
	mu    sync.RWMutex
	lists map[string]model.TodoList
	items map[string]model.TodoItem
}

func NewTodoStore() *TodoStore {
	return &TodoStore{
		lists: map[string]model.TodoList{},
		items: map[string]model.TodoItem{},
	}
}

func (s *TodoStore) CreateList(_ context.Context, l model.TodoList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.Items = nil
	s.lists[l.ID] = l
	return nil
}

func (s *TodoStore) FindList(_ context.Context, id string) (model.TodoList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lists[id]
	if !ok {
		return model.TodoList{}, model.ErrTodoListNotFound
	}
	l.Items = s.itemsOfLocked(id)
	return l, nil
}

func (s *TodoStore) ListLists(_ context.Context, offset int, limit int) ([]model.TodoList, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]model.TodoList, 0, len(s.lists))
	for _, l := range s.lists {
		l.Items = s.itemsOfLocked(l.ID)
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return page(all, offset, limit), len(all), nil
}

func (s *TodoStore) UpdateList(_ context.Context, l model.TodoList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[l.ID]; !ok {
		return model.ErrTodoListNotFound
	}
	l.Items = nil
	s.lists[l.ID] = l
	return nil
}

func (s *TodoStore) DeleteList(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[id]; !ok {
		return model.ErrTodoListNotFound
	}
	delete(s.lists, id)
	for itemID, it := range s.items {
		if it.TodoListID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

func (s *TodoStore) CreateItem(_ context.Context, it model.TodoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[it.TodoListID]; !ok {
		return model.ErrTodoListNotFound
	}
	s.items[it.ID] = it
	return nil
}

func (s *TodoStore) FindItem(_ context.Context, id string) (model.TodoItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return model.TodoItem{}, model.ErrTodoItemNotFound
	}
	return it, nil
}

func (s *TodoStore) ListItems(_ context.Context, offset int, limit int) ([]model.TodoItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]model.TodoItem, 0, len(s.items))
	for _, it := range s.items {
		all = append(all, it)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return page(all, offset, limit), len(all), nil
}

func (s *TodoStore) UpdateItem(_ context.Context, it model.TodoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[it.ID]; !ok {
		return model.ErrTodoItemNotFound
	}
	if _, ok := s.lists[it.TodoListID]; !ok {
		return model.ErrTodoListNotFound
	}
	s.items[it.ID] = it
	return nil
}

func (s *TodoStore) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return model.ErrTodoItemNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *TodoStore) itemsOfLocked(listID string) []model.TodoItem {
	out := make([]model.TodoItem, 0)
	for _, it := range s.items {
		if it.TodoListID == listID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
