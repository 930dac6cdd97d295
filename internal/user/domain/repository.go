package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	FindByAPIKeyHash(ctx context.Context, db *gorm.DB, hash string) (*User, error)
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	InsertAPIKey(ctx context.Context, db *gorm.DB, key *APIKey) error
}

// Resolver guarantees every imported payment has an owning account.
type Resolver interface {
	// Resolve finds an existing account by exact email match or creates
	// one, provisioning first-time side effects exactly once. The bool
	// reports whether a new account was created.
	Resolve(ctx context.Context, email, name string) (*User, bool, error)
}

var ErrInvalidEmail = errors.New("invalid_email")
