package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusPending   PaymentStatus = "pending"
)

// Payment is the persisted reconciliation record. (processor,
// processor_order_id) is the idempotency key: re-importing the same
// remote order updates this row rather than duplicating it.
type Payment struct {
	ID               snowflake.ID   `json:"id" gorm:"primaryKey"`
	UserID           snowflake.ID   `json:"user_id" gorm:"index"`
	OrderID          string         `json:"order_id" gorm:"type:text;not null"`
	ProcessorOrderID string         `json:"processor_order_id" gorm:"type:text;not null;uniqueIndex:idx_processor_order,priority:2"`
	Processor        string         `json:"processor" gorm:"type:text;not null;uniqueIndex:idx_processor_order,priority:1"`
	Amount           int64          `json:"amount" gorm:"not null"`
	Status           PaymentStatus  `json:"status" gorm:"type:text;not null"`
	ProductName      string         `json:"product_name" gorm:"type:text;not null"`
	Metadata         datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	PurchasedAt      time.Time      `json:"purchased_at" gorm:"not null"`
	CreatedAt        time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }
