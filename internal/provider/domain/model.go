package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusRefunded OrderStatus = "refunded"
	OrderStatusPending  OrderStatus = "pending"
)

// NormalizedOrder is the canonical, provider-agnostic order shape every
// adapter must produce. Amount is always integer minor units; the raw
// provider payload is preserved in Attributes for audit and debugging
// only and must never drive business logic downstream of normalization.
type NormalizedOrder struct {
	ID           string
	OrderID      string
	UserEmail    string
	UserName     string
	Amount       int64
	Status       OrderStatus
	ProductName  string
	VariantName  string
	PurchaseDate time.Time
	Processor    string
	DiscountCode string
	Attributes   map[string]any
}

// ClampAmount floors provider-reported totals at zero. Some backends
// report refunds as negative totals; stored amounts are always
// non-negative minor units.
func ClampAmount(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

type NormalizedProduct struct {
	ID             string
	Name           string
	Price          float64
	IsSubscription bool
	Provider       string
	Attributes     map[string]any
}

// ImportStats aggregates a single import run. It is returned to the
// caller and never persisted.
type ImportStats struct {
	Total        int `json:"total"`
	Imported     int `json:"imported"`
	Skipped      int `json:"skipped"`
	Errors       int `json:"errors"`
	UsersCreated int `json:"users_created"`
}

func (s *ImportStats) Add(other ImportStats) {
	s.Total += other.Total
	s.Imported += other.Imported
	s.Skipped += other.Skipped
	s.Errors += other.Errors
	s.UsersCreated += other.UsersCreated
}

type CheckoutOptions struct {
	ProductID    string
	Email        string
	Name         string
	SuccessURL   string
	DiscountCode string
	Metadata     map[string]string
}

type WebhookAction string

const (
	WebhookActionPayment WebhookAction = "payment"
	WebhookActionRefund  WebhookAction = "refund"
	WebhookActionIgnored WebhookAction = "ignored"
)

// WebhookResult is the normalized outcome of a provider webhook event.
// Disabled providers return an ignored result rather than an error.
type WebhookResult struct {
	Action WebhookAction
	Order  *NormalizedOrder
}

var IgnoredWebhook = &WebhookResult{Action: WebhookActionIgnored}
