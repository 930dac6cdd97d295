package domain

import (
	"context"
	"errors"
)

// Provider is the contract every payment backend adapter implements.
// Adapters are stateless translators over network calls; they own no
// persisted state.
//
// Every method must first verify the provider is configured and
// enabled. When it is not, read operations return their empty/false
// value, ImportOrders-style fetches return nil, and webhook handling
// returns an ignored result. Callers never need to special-case an
// unconfigured provider.
type Provider interface {
	ID() string
	Name() string
	IsConfigured() bool
	IsEnabled() bool

	GetPaymentStatus(ctx context.Context, email string) (bool, error)
	HasUserPurchasedProduct(ctx context.Context, email, productID string) (bool, error)
	HasUserPurchasedVariant(ctx context.Context, email, variantID string) (bool, error)
	HasActiveSubscription(ctx context.Context, email string) (bool, error)
	GetUserPurchasedProducts(ctx context.Context, email string) ([]NormalizedProduct, error)

	GetAllOrders(ctx context.Context) ([]NormalizedOrder, error)
	GetOrdersByEmail(ctx context.Context, email string) ([]NormalizedOrder, error)
	GetOrderByID(ctx context.Context, orderID string) (*NormalizedOrder, error)

	CreateCheckoutURL(ctx context.Context, opts CheckoutOptions) (string, error)
	ListProducts(ctx context.Context) ([]NormalizedProduct, error)

	HandleWebhookEvent(ctx context.Context, payload []byte) (*WebhookResult, error)
}

var (
	ErrNotConfigured   = errors.New("provider_not_configured")
	ErrProviderAuth    = errors.New("provider_auth_failed")
	ErrProviderNetwork = errors.New("provider_network_error")
	ErrInvalidPayload  = errors.New("invalid_payload")
	ErrOrderNotFound   = errors.New("order_not_found")
	ErrInvalidCheckout = errors.New("invalid_checkout_request")
)
