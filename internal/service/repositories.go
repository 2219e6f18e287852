package service

import (
	"context"

	"go-todo-api/internal/model"
)

// UserRepository is implemented by repository.UserRepository and by the
// in-memory store in internal/testutil.
type UserRepository interface {
	Create(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset int, limit int) ([]model.User, int, error)
}

type TodoRepository interface {
	CreateList(ctx context.Context, l model.TodoList) error
	FindList(ctx context.Context, id string) (model.TodoList, error)
	ListLists(ctx context.Context, offset int, limit int) ([]model.TodoList, int, error)
	UpdateList(ctx context.Context, l model.TodoList) error
	DeleteList(ctx context.Context, id string) error

	CreateItem(ctx context.Context, it model.TodoItem) error
	FindItem(ctx context.Context, id string) (model.TodoItem, error)
	ListItems(ctx context.Context, offset int, limit int) ([]model.TodoItem, int, error)
	UpdateItem(ctx context.Context, it model.TodoItem) error
	DeleteItem(ctx context.Context, id string) error
}
