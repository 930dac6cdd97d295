package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByProcessorOrderID(ctx context.Context, db *gorm.DB, processor, processorOrderID string) (*Payment, error)
	// Insert creates a row, falling back to an in-place update when the
	// (processor, processor_order_id) key already exists. The bool
	// reports whether a new row was created.
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) (bool, error)
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	MarkRefunded(ctx context.Context, db *gorm.DB, processor, processorOrderID string) (bool, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Payment, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	// DeleteAll removes every payment row inside one transaction and
	// returns the number deleted.
	DeleteAll(ctx context.Context, db *gorm.DB) (int64, error)
}
