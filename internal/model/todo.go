package model

import "time"

type TodoList struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	IsActive  bool       `json:"is_active"`
	Items     []TodoItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type TodoItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsComplete  bool      `json:"is_complete"`
	TodoListID  string    `json:"todolist_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TodoListUpdate struct {
	Title    *string `json:"title,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type TodoItemUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsComplete  *bool   `json:"is_complete,omitempty"`
	TodoListID  *string `json:"todolist_id,omitempty"`
}
