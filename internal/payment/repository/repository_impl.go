package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/paysynclabs/paysync/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByProcessorOrderID(ctx context.Context, db *gorm.DB, processor, processorOrderID string) (*domain.Payment, error) {
	if db == nil {
		db = r.db
	}
	var payment domain.Payment
	err := db.WithContext(ctx).
		Where("processor = ? AND processor_order_id = ?", processor, processorOrderID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// Insert relies on the storage unique constraint to make concurrent
// re-imports of the same order safe: a conflicting insert becomes an
// in-place refresh of amount/status/metadata.
func (r *repository) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) (bool, error) {
	if db == nil {
		db = r.db
	}

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "processor"}, {Name: "processor_order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"amount", "status", "product_name", "metadata", "updated_at",
		}),
	}).Create(payment)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	if db == nil {
		db = r.db
	}
	payment.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(payment).Error
}

func (r *repository) MarkRefunded(ctx context.Context, db *gorm.DB, processor, processorOrderID string) (bool, error) {
	if db == nil {
		db = r.db
	}
	result := db.WithContext(ctx).Model(&domain.Payment{}).
		Where("processor = ? AND processor_order_id = ?", processor, processorOrderID).
		Updates(map[string]any{
			"status":     domain.PaymentStatusRefunded,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.Payment, error) {
	if db == nil {
		db = r.db
	}
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *repository) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.WithContext(ctx).Model(&domain.Payment{}).Count(&count).Error
	return count, err
}

func (r *repository) DeleteAll(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		db = r.db
	}
	var deleted int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Payment{}).Count(&deleted).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&domain.Payment{}).Error
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
