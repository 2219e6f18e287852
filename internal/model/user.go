package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// TokenKind selects which bearer token family an endpoint accepts.
type TokenKind int

const (
	TokenAccess TokenKind = iota
	TokenRefresh
)

func (k TokenKind) String() string {
	if k == TokenRefresh {
		return "refresh"
	}
	return "access"
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserUpdate carries a partial update; nil fields are left untouched.
type UserUpdate struct {
	Username   *string `json:"username,omitempty"`
	Email      *string `json:"email,omitempty"`
	Password   *string `json:"password,omitempty"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Role       *Role   `json:"role,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
	IsVerified *bool   `json:"is_verified,omitempty"`
}

// BearerClaims is the decoded payload of an access or refresh token.
type BearerClaims struct {
	Subject   string    `json:"sub"`
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"exp"`
	Refresh   bool      `json:"refresh"`
}

func (c BearerClaims) Kind() TokenKind {
	if c.Refresh {
		return TokenRefresh
	}
	return TokenAccess
}

// Principal is the authenticated caller resolved by the access guard.
type Principal struct {
	Claims BearerClaims
	User   User
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type UserList struct {
	Users []User `json:"users"`
}
