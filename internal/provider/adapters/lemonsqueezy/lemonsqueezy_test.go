package lemonsqueezy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paysynclabs/paysync/internal/config"
	"github.com/paysynclabs/paysync/internal/provider/adapters/lemonsqueezy"
	"github.com/paysynclabs/paysync/internal/provider/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdapter(t *testing.T, handler http.Handler) *lemonsqueezy.Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := lemonsqueezy.New(config.ProviderConfig{
		Enabled: true,
		APIKey:  "test-key",
		StoreID: "123",
	}, 5*time.Second, zap.NewNop())
	a.BaseURL = srv.URL
	return a
}

const ordersPage = `{
  "data": [
    {
      "id": "1001",
      "attributes": {
        "identifier": "ord_abc",
        "order_number": 42,
        "user_name": "Jane Doe",
        "user_email": "Jane@Example.com",
        "status": "paid",
        "total": 2999,
        "created_at": "2024-03-01T12:00:00Z",
        "first_order_item": {
          "product_id": 555,
          "variant_id": 777,
          "product_name": "Pro Plan",
          "variant_name": "Yearly"
        }
      }
    },
    {
      "id": "1002",
      "attributes": {
        "identifier": "ord_def",
        "user_email": "other@example.com",
        "status": "refunded",
        "total": 500,
        "created_at": "2024-02-01T08:00:00Z",
        "first_order_item": {
          "product_id": 555,
          "variant_id": 778,
          "product_name": "Pro Plan",
          "variant_name": "Pro Plan"
        }
      }
    }
  ],
  "meta": {"page": {"currentPage": 1, "lastPage": 1}}
}`

func TestGetAllOrdersNormalization(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(ordersPage))
	}))

	orders, err := a.GetAllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "ord_abc", first.OrderID)
	assert.Equal(t, "jane@example.com", first.UserEmail)
	assert.Equal(t, "Jane Doe", first.UserName)
	assert.Equal(t, int64(2999), first.Amount)
	assert.Equal(t, domain.OrderStatusPaid, first.Status)
	assert.Equal(t, "Pro Plan - Yearly", first.ProductName)
	assert.Equal(t, "lemonsqueezy", first.Processor)
	assert.Equal(t, "777", first.Attributes["variant_id"])

	second := orders[1]
	assert.Equal(t, domain.OrderStatusRefunded, second.Status)
	assert.Equal(t, "Pro Plan", second.ProductName)
}

func TestGetAllOrdersPagination(t *testing.T) {
	pages := map[string]string{
		"1": `{"data":[{"id":"1","attributes":{"user_email":"a@b.c","status":"paid","total":100,"first_order_item":{"product_name":"One"}}}],"meta":{"page":{"currentPage":1,"lastPage":2}}}`,
		"2": `{"data":[{"id":"2","attributes":{"user_email":"a@b.c","status":"paid","total":200,"first_order_item":{"product_name":"Two"}}}],"meta":{"page":{"currentPage":2,"lastPage":2}}}`,
	}
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pages[r.URL.Query().Get("page[number]")]))
	}))

	orders, err := a.GetAllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "One", orders[0].ProductName)
	assert.Equal(t, "Two", orders[1].ProductName)
}

func TestDisabledProviderReadsAreEmpty(t *testing.T) {
	a := lemonsqueezy.New(config.ProviderConfig{Enabled: false, APIKey: "key"}, 0, zap.NewNop())

	orders, err := a.GetAllOrders(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, orders)

	paid, err := a.GetPaymentStatus(context.Background(), "x@y.z")
	assert.NoError(t, err)
	assert.False(t, paid)

	result, err := a.HandleWebhookEvent(context.Background(), []byte(`{}`))
	assert.NoError(t, err)
	assert.Equal(t, domain.WebhookActionIgnored, result.Action)

	_, err = a.CreateCheckoutURL(context.Background(), domain.CheckoutOptions{ProductID: "1"})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestAuthFailure(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := a.GetAllOrders(context.Background())
	assert.ErrorIs(t, err, domain.ErrProviderAuth)
}

func TestServerErrorIsNetworkError(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := a.GetAllOrders(context.Background())
	assert.ErrorIs(t, err, domain.ErrProviderNetwork)
}

func TestHasActiveSubscription(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sub@example.com", r.URL.Query().Get("filter[user_email]"))
		w.Write([]byte(`{"data":[{"attributes":{"status":"on_trial"}}]}`))
	}))

	active, err := a.HasActiveSubscription(context.Background(), "sub@example.com")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestGetUserPurchasedProductsMarksSubscriptions(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders":
			w.Write([]byte(ordersPage))
		case "/subscriptions":
			w.Write([]byte(`{"data":[{"attributes":{"status":"active","product_id":555,"variant_id":777}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	products, err := a.GetUserPurchasedProducts(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "777", products[0].ID)
	assert.True(t, products[0].IsSubscription)
}

func TestGetUserPurchasedProductsOneTime(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders":
			w.Write([]byte(ordersPage))
		case "/subscriptions":
			w.Write([]byte(`{"data":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	products, err := a.GetUserPurchasedProducts(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.False(t, products[0].IsSubscription)
}

func TestCreateCheckoutURL(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkouts", r.URL.Path)
		w.Write([]byte(`{"data":{"attributes":{"url":"https://checkout.example/abc"}}}`))
	}))

	url, err := a.CreateCheckoutURL(context.Background(), domain.CheckoutOptions{
		ProductID: "777",
		Email:     "buyer@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/abc", url)
}

func TestWebhookOrderCreated(t *testing.T) {
	a := newAdapter(t, http.NotFoundHandler())

	payload := `{
	  "meta": {"event_name": "order_created"},
	  "data": {
	    "id": "2001",
	    "attributes": {
	      "identifier": "ord_hook",
	      "user_email": "hook@example.com",
	      "status": "paid",
	      "total": 1500,
	      "first_order_item": {"product_name": "Starter", "variant_name": "Monthly"}
	    }
	  }
	}`
	result, err := a.HandleWebhookEvent(context.Background(), []byte(payload))
	require.NoError(t, err)
	require.Equal(t, domain.WebhookActionPayment, result.Action)
	require.NotNil(t, result.Order)
	assert.Equal(t, "ord_hook", result.Order.OrderID)
	assert.Equal(t, "Starter - Monthly", result.Order.ProductName)
}

func TestWebhookOrderRefunded(t *testing.T) {
	a := newAdapter(t, http.NotFoundHandler())

	payload := `{"meta":{"event_name":"order_refunded"},"data":{"id":"2002","attributes":{"identifier":"ord_ref","user_email":"hook@example.com","status":"refunded","total":1500,"first_order_item":{"product_name":"Starter"}}}}`
	result, err := a.HandleWebhookEvent(context.Background(), []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookActionRefund, result.Action)
	assert.Equal(t, domain.OrderStatusRefunded, result.Order.Status)
}

func TestWebhookUnknownEventIgnored(t *testing.T) {
	a := newAdapter(t, http.NotFoundHandler())

	result, err := a.HandleWebhookEvent(context.Background(), []byte(`{"meta":{"event_name":"subscription_updated"}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookActionIgnored, result.Action)
}

func TestWebhookInvalidPayload(t *testing.T) {
	a := newAdapter(t, http.NotFoundHandler())

	_, err := a.HandleWebhookEvent(context.Background(), []byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
