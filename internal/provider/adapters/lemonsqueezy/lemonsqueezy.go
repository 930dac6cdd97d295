package lemonsqueezy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paysynclabs/paysync/internal/config"
	"github.com/paysynclabs/paysync/internal/provider/domain"
	"go.uber.org/zap"
)

const (
	ProviderID     = "lemonsqueezy"
	defaultBaseURL = "https://api.lemonsqueezy.com/v1"

	pageSize = 100
)

// Adapter translates the Lemon Squeezy JSON:API into the normalized
// model. It is stateless; every method is a bounded network call.
type Adapter struct {
	cfg    config.ProviderConfig
	log    *zap.Logger
	client *http.Client

	// BaseURL is overridable in tests.
	BaseURL string
}

func New(cfg config.ProviderConfig, timeout time.Duration, log *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Adapter{
		cfg:     cfg,
		log:     log.Named("provider.lemonsqueezy"),
		client:  &http.Client{Timeout: timeout},
		BaseURL: defaultBaseURL,
	}
}

func (a *Adapter) ID() string   { return ProviderID }
func (a *Adapter) Name() string { return "Lemon Squeezy" }

func (a *Adapter) IsConfigured() bool { return a.cfg.APIKey != "" }
func (a *Adapter) IsEnabled() bool    { return a.cfg.Enabled }

func (a *Adapter) ready() bool { return a.IsConfigured() && a.IsEnabled() }

// --- order listing ---

func (a *Adapter) GetAllOrders(ctx context.Context) ([]domain.NormalizedOrder, error) {
	if !a.ready() {
		return nil, nil
	}
	return a.listOrders(ctx, url.Values{})
}

func (a *Adapter) GetOrdersByEmail(ctx context.Context, email string) ([]domain.NormalizedOrder, error) {
	if !a.ready() || strings.TrimSpace(email) == "" {
		return nil, nil
	}
	query := url.Values{}
	query.Set("filter[user_email]", strings.TrimSpace(email))
	return a.listOrders(ctx, query)
}

func (a *Adapter) GetOrderByID(ctx context.Context, orderID string) (*domain.NormalizedOrder, error) {
	if !a.ready() {
		return nil, nil
	}
	var res struct {
		Data orderResource `json:"data"`
	}
	if err := a.getJSON(ctx, "/orders/"+url.PathEscape(orderID), &res); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, err
	}
	order := a.normalizeOrder(res.Data)
	return &order, nil
}

func (a *Adapter) listOrders(ctx context.Context, query url.Values) ([]domain.NormalizedOrder, error) {
	query.Set("page[size]", fmt.Sprintf("%d", pageSize))
	query.Set("sort", "-createdAt")

	var out []domain.NormalizedOrder
	page := 1
	for {
		query.Set("page[number]", fmt.Sprintf("%d", page))
		var res struct {
			Data []orderResource `json:"data"`
			Meta struct {
				Page struct {
					CurrentPage int `json:"currentPage"`
					LastPage    int `json:"lastPage"`
				} `json:"page"`
			} `json:"meta"`
		}
		if err := a.getJSON(ctx, "/orders?"+query.Encode(), &res); err != nil {
			return nil, err
		}
		for _, item := range res.Data {
			out = append(out, a.normalizeOrder(item))
		}
		if res.Meta.Page.LastPage <= page || len(res.Data) == 0 {
			return out, nil
		}
		page++
	}
}

// --- purchase checks ---

func (a *Adapter) GetPaymentStatus(ctx context.Context, email string) (bool, error) {
	orders, err := a.GetOrdersByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	for _, o := range orders {
		if o.Status == domain.OrderStatusPaid {
			return true, nil
		}
	}
	return false, nil
}

func (a *Adapter) HasUserPurchasedProduct(ctx context.Context, email, productID string) (bool, error) {
	return a.hasPaidOrderMatching(ctx, email, func(o domain.NormalizedOrder) bool {
		return attributeString(o.Attributes, "product_id") == productID
	})
}

func (a *Adapter) HasUserPurchasedVariant(ctx context.Context, email, variantID string) (bool, error) {
	return a.hasPaidOrderMatching(ctx, email, func(o domain.NormalizedOrder) bool {
		return attributeString(o.Attributes, "variant_id") == variantID
	})
}

func (a *Adapter) hasPaidOrderMatching(ctx context.Context, email string, match func(domain.NormalizedOrder) bool) (bool, error) {
	orders, err := a.GetOrdersByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	for _, o := range orders {
		if o.Status == domain.OrderStatusPaid && match(o) {
			return true, nil
		}
	}
	return false, nil
}

type subscriptionResource struct {
	Attributes struct {
		Status    string      `json:"status"`
		ProductID json.Number `json:"product_id"`
		VariantID json.Number `json:"variant_id"`
	} `json:"attributes"`
}

func (a *Adapter) listSubscriptions(ctx context.Context, email string) ([]subscriptionResource, error) {
	query := url.Values{}
	query.Set("filter[user_email]", strings.TrimSpace(email))
	var res struct {
		Data []subscriptionResource `json:"data"`
	}
	if err := a.getJSON(ctx, "/subscriptions?"+query.Encode(), &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (a *Adapter) HasActiveSubscription(ctx context.Context, email string) (bool, error) {
	if !a.ready() || strings.TrimSpace(email) == "" {
		return false, nil
	}
	subs, err := a.listSubscriptions(ctx, email)
	if err != nil {
		return false, err
	}
	for _, sub := range subs {
		switch sub.Attributes.Status {
		case "active", "on_trial":
			return true, nil
		}
	}
	return false, nil
}

// subscriptionKeys collects the variant and product ids of the caller's
// subscriptions. Order payloads carry no subscription flag, so this is
// the only signal for marking a purchased product recurring.
func (a *Adapter) subscriptionKeys(ctx context.Context, email string) map[string]bool {
	subs, err := a.listSubscriptions(ctx, email)
	if err != nil {
		a.log.Warn("subscription lookup failed", zap.Error(err))
		return nil
	}
	keys := make(map[string]bool, len(subs))
	for _, sub := range subs {
		if v := sub.Attributes.VariantID.String(); v != "" && v != "0" {
			keys[v] = true
		}
		if p := sub.Attributes.ProductID.String(); p != "" && p != "0" {
			keys[p] = true
		}
	}
	return keys
}

// GetUserPurchasedProducts deduplicates by variant id; orders arrive
// newest first, so the first occurrence carries the winning attributes.
func (a *Adapter) GetUserPurchasedProducts(ctx context.Context, email string) ([]domain.NormalizedProduct, error) {
	orders, err := a.GetOrdersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	subKeys := a.subscriptionKeys(ctx, email)

	seen := make(map[string]bool)
	var out []domain.NormalizedProduct
	for _, o := range orders {
		if o.Status != domain.OrderStatusPaid {
			continue
		}
		variantID := attributeString(o.Attributes, "variant_id")
		key := variantID
		if key == "" {
			key = attributeString(o.Attributes, "product_id")
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, domain.NormalizedProduct{
			ID:             key,
			Name:           o.ProductName,
			Price:          float64(o.Amount) / 100,
			IsSubscription: subKeys[variantID] || subKeys[attributeString(o.Attributes, "product_id")],
			Provider:       ProviderID,
			Attributes:     o.Attributes,
		})
	}
	return out, nil
}

func (a *Adapter) ListProducts(ctx context.Context) ([]domain.NormalizedProduct, error) {
	if !a.ready() {
		return nil, nil
	}
	var res struct {
		Data []struct {
			ID         string `json:"id"`
			Attributes struct {
				Name        string `json:"name"`
				Price       int64  `json:"price"`
				Description string `json:"description"`
				Status      string `json:"status"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := a.getJSON(ctx, "/products", &res); err != nil {
		return nil, err
	}
	out := make([]domain.NormalizedProduct, 0, len(res.Data))
	for _, p := range res.Data {
		out = append(out, domain.NormalizedProduct{
			ID:       p.ID,
			Name:     p.Attributes.Name,
			Price:    float64(p.Attributes.Price) / 100,
			Provider: ProviderID,
			Attributes: map[string]any{
				"description": p.Attributes.Description,
				"status":      p.Attributes.Status,
			},
		})
	}
	return out, nil
}

// --- checkout ---

func (a *Adapter) CreateCheckoutURL(ctx context.Context, opts domain.CheckoutOptions) (string, error) {
	if !a.ready() {
		return "", domain.ErrNotConfigured
	}
	if strings.TrimSpace(opts.ProductID) == "" {
		return "", domain.ErrInvalidCheckout
	}

	custom := map[string]any{}
	for k, v := range opts.Metadata {
		custom[k] = v
	}

	body := map[string]any{
		"data": map[string]any{
			"type": "checkouts",
			"attributes": map[string]any{
				"checkout_data": map[string]any{
					"email":  opts.Email,
					"name":   opts.Name,
					"custom": custom,
				},
				"product_options": map[string]any{
					"redirect_url": opts.SuccessURL,
				},
			},
			"relationships": map[string]any{
				"store": map[string]any{
					"data": map[string]any{"type": "stores", "id": a.cfg.StoreID},
				},
				"variant": map[string]any{
					"data": map[string]any{"type": "variants", "id": opts.ProductID},
				},
			},
		},
	}

	var res struct {
		Data struct {
			Attributes struct {
				URL string `json:"url"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := a.postJSON(ctx, "/checkouts", body, &res); err != nil {
		return "", err
	}
	return res.Data.Attributes.URL, nil
}

// --- webhook ---

type webhookEvent struct {
	Meta struct {
		EventName  string         `json:"event_name"`
		CustomData map[string]any `json:"custom_data"`
	} `json:"meta"`
	Data orderResource `json:"data"`
}

// HandleWebhookEvent parses order lifecycle events. Signature
// verification happens upstream; a disabled provider no-ops.
func (a *Adapter) HandleWebhookEvent(ctx context.Context, payload []byte) (*domain.WebhookResult, error) {
	if !a.ready() {
		return domain.IgnoredWebhook, nil
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	switch event.Meta.EventName {
	case "order_created":
		order := a.normalizeOrder(event.Data)
		if order.Status != domain.OrderStatusPaid {
			return domain.IgnoredWebhook, nil
		}
		return &domain.WebhookResult{Action: domain.WebhookActionPayment, Order: &order}, nil
	case "order_refunded":
		order := a.normalizeOrder(event.Data)
		order.Status = domain.OrderStatusRefunded
		return &domain.WebhookResult{Action: domain.WebhookActionRefund, Order: &order}, nil
	default:
		a.log.Debug("ignoring webhook event", zap.String("event", event.Meta.EventName))
		return domain.IgnoredWebhook, nil
	}
}

// --- normalization ---

type orderResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Identifier     string `json:"identifier"`
		OrderNumber    int64  `json:"order_number"`
		UserName       string `json:"user_name"`
		UserEmail      string `json:"user_email"`
		Status         string `json:"status"`
		Total          int64  `json:"total"`
		DiscountTotal  int64  `json:"discount_total"`
		CreatedAt      time.Time `json:"created_at"`
		FirstOrderItem struct {
			ProductID   json.Number `json:"product_id"`
			VariantID   json.Number `json:"variant_id"`
			ProductName string      `json:"product_name"`
			VariantName string      `json:"variant_name"`
		} `json:"first_order_item"`
	} `json:"attributes"`
}

func (a *Adapter) normalizeOrder(res orderResource) domain.NormalizedOrder {
	attrs := res.Attributes
	item := attrs.FirstOrderItem

	name := domain.ExtractProductName(domain.NameSource{
		LineProduct: item.ProductName,
		LineVariant: item.VariantName,
	})

	return domain.NormalizedOrder{
		ID:           res.ID,
		OrderID:      firstNonEmpty(attrs.Identifier, res.ID),
		UserEmail:    strings.ToLower(strings.TrimSpace(attrs.UserEmail)),
		UserName:     strings.TrimSpace(attrs.UserName),
		Amount:       domain.ClampAmount(attrs.Total),
		Status:       mapStatus(attrs.Status),
		ProductName:  name,
		VariantName:  strings.TrimSpace(item.VariantName),
		PurchaseDate: attrs.CreatedAt,
		Processor:    ProviderID,
		Attributes: map[string]any{
			"order_number": attrs.OrderNumber,
			"product_id":   item.ProductID.String(),
			"variant_id":   item.VariantID.String(),
			"product_name": item.ProductName,
			"variant_name": item.VariantName,
			"status":       attrs.Status,
		},
	}
}

func mapStatus(raw string) domain.OrderStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid":
		return domain.OrderStatusPaid
	case "refunded", "partial_refund":
		return domain.OrderStatusRefunded
	default:
		return domain.OrderStatusPending
	}
}

// --- transport ---

func (a *Adapter) getJSON(ctx context.Context, path string, out any) error {
	return a.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (a *Adapter) postJSON(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return a.doJSON(ctx, http.MethodPost, path, bytes.NewReader(encoded), out)
}

func (a *Adapter) doJSON(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("Accept", "application/vnd.api+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/vnd.api+json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrProviderAuth
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrOrderNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", domain.ErrProviderNetwork, resp.StatusCode)
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("lemonsqueezy api error: %d body: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.ErrInvalidPayload
	}
	return nil
}

func attributeString(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
