package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/paysynclabs/paysync/internal/user/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	if db == nil {
		db = r.db
	}
	var user domain.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	if db == nil {
		db = r.db
	}
	var user domain.User
	if err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByAPIKeyHash(ctx context.Context, db *gorm.DB, hash string) (*domain.User, error) {
	if db == nil {
		db = r.db
	}
	var user domain.User
	err := db.WithContext(ctx).
		Joins("JOIN api_keys ON api_keys.user_id = users.id").
		Where("api_keys.key_hash = ? AND api_keys.is_active = ?", hash, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Create(user).Error
}

func (r *repository) InsertAPIKey(ctx context.Context, db *gorm.DB, key *domain.APIKey) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Create(key).Error
}
