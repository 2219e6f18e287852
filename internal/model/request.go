package model

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything past 72 bytes
)

type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 250)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 250), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLength, maxPasswordLength)),
		validation.Field(&r.FirstName, validation.Length(0, 250)),
		validation.Field(&r.LastName, validation.Length(0, 250)),
	)
}

// ProvisionRequest is the admin-only account creation payload. An empty
// password means the account owner sets one through the reset flow.
type ProvisionRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       Role   `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

func (r ProvisionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 250)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 250), is.Email),
		validation.Field(&r.Password, validation.Length(minPasswordLength, maxPasswordLength)),
		validation.Field(&r.FirstName, validation.Length(0, 250)),
		validation.Field(&r.LastName, validation.Length(0, 250)),
		validation.Field(&r.Role, validation.In(RoleUser, RoleAdmin)),
	)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

func (r PasswordResetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type PasswordResetConfirmRequest struct {
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

func (r PasswordResetConfirmRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required, validation.Length(minPasswordLength, maxPasswordLength)),
		validation.Field(&r.ConfirmNewPassword, validation.Required),
	)
}

type UpdateUserRequest struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Role       *Role   `json:"role"`
	IsActive   *bool   `json:"is_active"`
	IsVerified *bool   `json:"is_verified"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Length(3, 250)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(3, 250), is.Email),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.Length(minPasswordLength, maxPasswordLength)),
		validation.Field(&r.FirstName, validation.Length(0, 250)),
		validation.Field(&r.LastName, validation.Length(0, 250)),
		validation.Field(&r.Role, validation.NilOrNotEmpty, validation.In(RoleUser, RoleAdmin)),
	)
}

func (r UpdateUserRequest) ToUpdate() UserUpdate {
	return UserUpdate{
		Username:   r.Username,
		Email:      r.Email,
		Password:   r.Password,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Role:       r.Role,
		IsActive:   r.IsActive,
		IsVerified: r.IsVerified,
	}
}

type CreateTodoListRequest struct {
	Title    string `json:"title"`
	IsActive *bool  `json:"is_active"`
}

func (r CreateTodoListRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 250)),
	)
}

type UpdateTodoListRequest struct {
	Title    *string `json:"title"`
	IsActive *bool   `json:"is_active"`
}

func (r UpdateTodoListRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 250)),
	)
}

func (r UpdateTodoListRequest) ToUpdate() TodoListUpdate {
	return TodoListUpdate{Title: r.Title, IsActive: r.IsActive}
}

type CreateTodoItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsComplete  bool   `json:"is_complete"`
	TodoListID  string `json:"todolist_id"`
}

func (r CreateTodoItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 250)),
		validation.Field(&r.TodoListID, validation.Required, is.UUID),
	)
}

type UpdateTodoItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsComplete  *bool   `json:"is_complete"`
	TodoListID  *string `json:"todolist_id"`
}

func (r UpdateTodoItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 250)),
		validation.Field(&r.TodoListID, validation.NilOrNotEmpty, is.UUID),
	)
}

func (r UpdateTodoItemRequest) ToUpdate() TodoItemUpdate {
	return TodoItemUpdate{
		Name:        r.Name,
		Description: r.Description,
		IsComplete:  r.IsComplete,
		TodoListID:  r.TodoListID,
	}
}
