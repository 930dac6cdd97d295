package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is the owning account side of reconciliation. Email is the join
// key: every imported payment resolves to exactly one user by exact
// email match.
type User struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Email     string       `json:"email" gorm:"type:text;not null;uniqueIndex"`
	Name      string       `json:"name" gorm:"type:text"`
	Image     string       `json:"image" gorm:"type:text"`
	Role      string       `json:"role" gorm:"type:text;not null;default:member"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (User) TableName() string { return "users" }

// APIKey is the default credential provisioned exactly once when a user
// account is created during import.
type APIKey struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID `json:"user_id" gorm:"not null;index"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	KeyHash   string       `json:"-" gorm:"type:text;not null;uniqueIndex"`
	IsActive  bool         `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (APIKey) TableName() string { return "api_keys" }
