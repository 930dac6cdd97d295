package polar

import (
	"bytes"
	"context"
	"encoding/json"
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
	ProviderID     = "polar"
	defaultBaseURL = "https://api.polar.sh/v1"

	pageLimit = 100
)

// Adapter translates the Polar merchant-of-record API into the
// normalized model.
type Adapter struct {
	cfg    config.ProviderConfig
	log    *zap.Logger
	client *http.Client

	BaseURL string
}

func New(cfg config.ProviderConfig, timeout time.Duration, log *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Adapter{
		cfg:     cfg,
		log:     log.Named("provider.polar"),
		client:  &http.Client{Timeout: timeout},
		BaseURL: defaultBaseURL,
	}
}

func (a *Adapter) ID() string   { return ProviderID }
func (a *Adapter) Name() string { return "Polar" }

func (a *Adapter) IsConfigured() bool { return a.cfg.APIKey != "" }
func (a *Adapter) IsEnabled() bool    { return a.cfg.Enabled }

func (a *Adapter) ready() bool { return a.IsConfigured() && a.IsEnabled() }

// --- orders ---

type polarOrder struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"created_at"`
	Customer  struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer"`
	Product struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		IsRecurring bool   `json:"is_recurring"`
	} `json:"product"`
	Items []struct {
		Label          string `json:"label"`
		ProductPriceID string `json:"product_price_id"`
	} `json:"items"`
	Discount *struct {
		Code string `json:"code"`
	} `json:"discount"`
	Metadata map[string]any `json:"metadata"`
}

type orderPage struct {
	Items      []polarOrder `json:"items"`
	Pagination struct {
		TotalCount int `json:"total_count"`
		MaxPage    int `json:"max_page"`
	} `json:"pagination"`
}

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
	query.Set("customer_email", strings.TrimSpace(email))
	return a.listOrders(ctx, query)
}

func (a *Adapter) listOrders(ctx context.Context, query url.Values) ([]domain.NormalizedOrder, error) {
	query.Set("limit", fmt.Sprintf("%d", pageLimit))
	query.Set("sorting", "-created_at")

	var out []domain.NormalizedOrder
	page := 1
	for {
		query.Set("page", fmt.Sprintf("%d", page))
		var res orderPage
		if err := a.getJSON(ctx, "/orders?"+query.Encode(), &res); err != nil {
			return nil, err
		}
		for _, item := range res.Items {
			out = append(out, a.normalizeOrder(item))
		}
		if page >= res.Pagination.MaxPage || len(res.Items) == 0 {
			return out, nil
		}
		page++
	}
}

func (a *Adapter) GetOrderByID(ctx context.Context, orderID string) (*domain.NormalizedOrder, error) {
	if !a.ready() {
		return nil, nil
	}
	var res polarOrder
	if err := a.getJSON(ctx, "/orders/"+url.PathEscape(orderID), &res); err != nil {
		if err == domain.ErrOrderNotFound {
			return nil, nil
		}
		return nil, err
	}
	order := a.normalizeOrder(res)
	return &order, nil
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
	orders, err := a.GetOrdersByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	for _, o := range orders {
		if o.Status == domain.OrderStatusPaid && attributeString(o.Attributes, "product_id") == productID {
			return true, nil
		}
	}
	return false, nil
}

// Polar has no variant concept; product id doubles as the variant key.
func (a *Adapter) HasUserPurchasedVariant(ctx context.Context, email, variantID string) (bool, error) {
	return a.HasUserPurchasedProduct(ctx, email, variantID)
}

func (a *Adapter) HasActiveSubscription(ctx context.Context, email string) (bool, error) {
	if !a.ready() || strings.TrimSpace(email) == "" {
		return false, nil
	}
	query := url.Values{}
	query.Set("customer_email", strings.TrimSpace(email))
	query.Set("active", "true")
	var res struct {
		Items []struct {
			Status string `json:"status"`
		} `json:"items"`
	}
	if err := a.getJSON(ctx, "/subscriptions?"+query.Encode(), &res); err != nil {
		return false, err
	}
	for _, sub := range res.Items {
		if sub.Status == "active" || sub.Status == "trialing" {
			return true, nil
		}
	}
	return false, nil
}

func (a *Adapter) GetUserPurchasedProducts(ctx context.Context, email string) ([]domain.NormalizedProduct, error) {
	orders, err := a.GetOrdersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []domain.NormalizedProduct
	for _, o := range orders {
		if o.Status != domain.OrderStatusPaid {
			continue
		}
		productID := attributeString(o.Attributes, "product_id")
		if productID == "" || seen[productID] {
			continue
		}
		seen[productID] = true
		out = append(out, domain.NormalizedProduct{
			ID:             productID,
			Name:           o.ProductName,
			Price:          float64(o.Amount) / 100,
			IsSubscription: attributeBool(o.Attributes, "is_recurring"),
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
		Items []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			IsRecurring bool   `json:"is_recurring"`
			Prices      []struct {
				PriceAmount int64 `json:"price_amount"`
			} `json:"prices"`
		} `json:"items"`
	}
	if err := a.getJSON(ctx, "/products?limit=100", &res); err != nil {
		return nil, err
	}
	out := make([]domain.NormalizedProduct, 0, len(res.Items))
	for _, p := range res.Items {
		var price float64
		if len(p.Prices) > 0 {
			price = float64(p.Prices[0].PriceAmount) / 100
		}
		out = append(out, domain.NormalizedProduct{
			ID:             p.ID,
			Name:           p.Name,
			Price:          price,
			IsSubscription: p.IsRecurring,
			Provider:       ProviderID,
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

	body := map[string]any{
		"products":    []string{opts.ProductID},
		"success_url": opts.SuccessURL,
	}
	if opts.Email != "" {
		body["customer_email"] = opts.Email
	}
	if opts.Name != "" {
		body["customer_name"] = opts.Name
	}
	if opts.DiscountCode != "" {
		body["discount_code"] = opts.DiscountCode
	}
	if len(opts.Metadata) > 0 {
		body["metadata"] = opts.Metadata
	}

	var res struct {
		URL string `json:"url"`
	}
	if err := a.postJSON(ctx, "/checkouts", body, &res); err != nil {
		return "", err
	}
	return res.URL, nil
}

// --- webhook ---

type webhookEvent struct {
	Type string     `json:"type"`
	Data polarOrder `json:"data"`
}

func (a *Adapter) HandleWebhookEvent(ctx context.Context, payload []byte) (*domain.WebhookResult, error) {
	if !a.ready() {
		return domain.IgnoredWebhook, nil
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	switch event.Type {
	case "order.paid", "order.created":
		order := a.normalizeOrder(event.Data)
		if order.Status != domain.OrderStatusPaid {
			return domain.IgnoredWebhook, nil
		}
		return &domain.WebhookResult{Action: domain.WebhookActionPayment, Order: &order}, nil
	case "order.refunded", "refund.created":
		order := a.normalizeOrder(event.Data)
		order.Status = domain.OrderStatusRefunded
		return &domain.WebhookResult{Action: domain.WebhookActionRefund, Order: &order}, nil
	default:
		a.log.Debug("ignoring webhook event", zap.String("event", event.Type))
		return domain.IgnoredWebhook, nil
	}
}

// --- normalization ---

func (a *Adapter) normalizeOrder(o polarOrder) domain.NormalizedOrder {
	var lineLabel string
	if len(o.Items) > 0 {
		lineLabel = o.Items[0].Label
	}

	name := domain.ExtractProductName(domain.NameSource{
		Product:     o.Product.Name,
		LineProduct: lineLabel,
	})

	var discount string
	if o.Discount != nil {
		discount = o.Discount.Code
	}

	return domain.NormalizedOrder{
		ID:           o.ID,
		OrderID:      o.ID,
		UserEmail:    strings.ToLower(strings.TrimSpace(o.Customer.Email)),
		UserName:     strings.TrimSpace(o.Customer.Name),
		Amount:       domain.ClampAmount(o.Amount),
		Status:       mapStatus(o),
		ProductName:  name,
		PurchaseDate: o.CreatedAt,
		Processor:    ProviderID,
		DiscountCode: discount,
		Attributes: map[string]any{
			"product_id":   o.Product.ID,
			"product_name": o.Product.Name,
			"is_recurring": o.Product.IsRecurring,
			"currency":     o.Currency,
			"status":       o.Status,
			"metadata":     o.Metadata,
		},
	}
}

func mapStatus(o polarOrder) domain.OrderStatus {
	switch strings.ToLower(strings.TrimSpace(o.Status)) {
	case "paid":
		return domain.OrderStatusPaid
	case "refunded", "partially_refunded":
		return domain.OrderStatusRefunded
	}
	// Older payloads only carry the paid flag.
	if o.Paid {
		return domain.OrderStatusPaid
	}
	return domain.OrderStatusPending
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
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
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
		return fmt.Errorf("polar api error: %d body: %s", resp.StatusCode, string(raw))
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

func attributeBool(attrs map[string]any, key string) bool {
	if attrs == nil {
		return false
	}
	v, _ := attrs[key].(bool)
	return v
}
