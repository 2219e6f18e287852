package model

import "errors"

var (
	// User related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Todo related errors
	ErrTodoListNotFound = errors.New("todo list not found")
	ErrTodoItemNotFound = errors.New("todo item not found")
)
