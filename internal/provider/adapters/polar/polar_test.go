package polar_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paysynclabs/paysync/internal/config"
	"github.com/paysynclabs/paysync/internal/provider/adapters/polar"
	"github.com/paysynclabs/paysync/internal/provider/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdapter(t *testing.T, handler http.Handler) *polar.Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := polar.New(config.ProviderConfig{
		Enabled: true,
		APIKey:  "polar-key",
	}, 5*time.Second, zap.NewNop())
	a.BaseURL = srv.URL
	return a
}

const orderPage = `{
  "items": [
    {
      "id": "ord_1",
      "amount": 4900,
      "currency": "usd",
      "status": "paid",
      "paid": true,
      "created_at": "2024-05-10T09:30:00Z",
      "customer": {"email": "Buyer@Example.com", "name": "Buyer One"},
      "product": {"id": "prod_a", "name": "Lifetime License", "is_recurring": false},
      "items": [{"label": "Lifetime License", "product_price_id": "price_1"}],
      "discount": {"code": "LAUNCH10"}
    },
    {
      "id": "ord_2",
      "amount": 900,
      "status": "pending",
      "paid": false,
      "created_at": "2024-05-11T10:00:00Z",
      "customer": {"email": "buyer2@example.com"},
      "product": {"id": "prod_b", "name": "Addon"}
    }
  ],
  "pagination": {"total_count": 2, "max_page": 1}
}`

func TestGetAllOrdersNormalization(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer polar-key", r.Header.Get("Authorization"))
		w.Write([]byte(orderPage))
	}))

	orders, err := a.GetAllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "ord_1", first.OrderID)
	assert.Equal(t, "buyer@example.com", first.UserEmail)
	assert.Equal(t, int64(4900), first.Amount)
	assert.Equal(t, domain.OrderStatusPaid, first.Status)
	assert.Equal(t, "Lifetime License", first.ProductName)
	assert.Equal(t, "polar", first.Processor)
	assert.Equal(t, "LAUNCH10", first.DiscountCode)
	assert.Equal(t, "prod_a", first.Attributes["product_id"])

	assert.Equal(t, domain.OrderStatusPending, orders[1].Status)
}

func TestPaidFlagFallback(t *testing.T) {
	page := `{"items":[{"id":"ord_3","amount":100,"status":"","paid":true,"customer":{"email":"x@y.z"},"product":{"id":"p","name":"Thing"}}],"pagination":{"max_page":1}}`
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))

	orders, err := a.GetAllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusPaid, orders[0].Status)
}

func TestNegativeAmountClampsToZero(t *testing.T) {
	page := `{"items":[{"id":"ord_4","amount":-2500,"status":"refunded","customer":{"email":"x@y.z"},"product":{"id":"p","name":"Thing"}}],"pagination":{"max_page":1}}`
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))

	orders, err := a.GetAllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(0), orders[0].Amount)
}

func TestGetOrdersByEmailFilter(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "buyer@example.com", r.URL.Query().Get("customer_email"))
		w.Write([]byte(`{"items":[],"pagination":{"max_page":1}}`))
	}))

	orders, err := a.GetOrdersByEmail(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestHasUserPurchasedVariantAliasesProduct(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(orderPage))
	}))

	ok, err := a.HasUserPurchasedVariant(context.Background(), "buyer@example.com", "prod_a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.HasUserPurchasedVariant(context.Background(), "buyer@example.com", "prod_b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisabledProviderReadsAreEmpty(t *testing.T) {
	a := polar.New(config.ProviderConfig{Enabled: false, APIKey: "k"}, 0, zap.NewNop())

	orders, err := a.GetAllOrders(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, orders)

	result, err := a.HandleWebhookEvent(context.Background(), []byte(`{}`))
	assert.NoError(t, err)
	assert.Equal(t, domain.WebhookActionIgnored, result.Action)
}

func TestCreateCheckoutURL(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkouts", r.URL.Path)
		w.Write([]byte(`{"url":"https://polar.sh/checkout/xyz"}`))
	}))

	url, err := a.CreateCheckoutURL(context.Background(), domain.CheckoutOptions{ProductID: "prod_a"})
	require.NoError(t, err)
	assert.Equal(t, "https://polar.sh/checkout/xyz", url)
}

func TestWebhookOrderPaid(t *testing.T) {
	a := newAdapter(t, http.NotFoundHandler())

	payload := `{"type":"order.paid","data":{"id":"ord_hook","amount":2500,"status":"paid","customer":{"email":"hook@example.com"},"product":{"id":"prod_a","name":"Pro"}}}`
	result, err := a.HandleWebhookEvent(context.Background(), []byte(payload))
	require.NoError(t, err)
	require.Equal(t, domain.WebhookActionPayment, result.Action)
	assert.Equal(t, "ord_hook", result.Order.OrderID)
	assert.Equal(t, "Pro", result.Order.ProductName)
}

func TestWebhookRefundCreated(t *testing.T) {
	a := newAdapter(t, http.NotFoundHandler())

	payload := `{"type":"refund.created","data":{"id":"ord_hook","amount":2500,"status":"refunded","customer":{"email":"hook@example.com"},"product":{"id":"prod_a","name":"Pro"}}}`
	result, err := a.HandleWebhookEvent(context.Background(), []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookActionRefund, result.Action)
	assert.Equal(t, domain.OrderStatusRefunded, result.Order.Status)
}

func TestWebhookUnknownTypeIgnored(t *testing.T) {
	a := newAdapter(t, http.NotFoundHandler())

	result, err := a.HandleWebhookEvent(context.Background(), []byte(`{"type":"benefit.granted"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookActionIgnored, result.Action)
}
