package domain

import (
	"context"
)

// User is a person who initiates events or asks to participate in them.
// swagger:model User
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUser returns a new User. ID is typically set by the repository on create.
func NewUser(name, email string) *User {
	return &User{Name: name, Email: email}
}

// Category groups events.
// swagger:model Category
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserRepository defines the interface for user storage.
// Create returns ErrConflict when the email is already taken.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
}

// CategoryRepository defines the interface for category storage.
// Create returns ErrConflict when the name is already taken.
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
}

// UserService manages the user records events and requests refer to.
type UserService interface {
	CreateUser(ctx context.Context, name, email string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
}
