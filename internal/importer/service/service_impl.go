package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	importerdomain "github.com/paysynclabs/paysync/internal/importer/domain"
	"github.com/paysynclabs/paysync/internal/observability"
	paymentdomain "github.com/paysynclabs/paysync/internal/payment/domain"
	providerdomain "github.com/paysynclabs/paysync/internal/provider/domain"
	"github.com/paysynclabs/paysync/internal/provider/registry"
	userdomain "github.com/paysynclabs/paysync/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Registry    *registry.Registry
	PaymentRepo paymentdomain.Repository
	Resolver    userdomain.Resolver
	Metrics     *observability.ImportMetrics
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	registry    *registry.Registry
	paymentRepo paymentdomain.Repository
	resolver    userdomain.Resolver
	metrics     *observability.ImportMetrics
}

func New(p Params) importerdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("importer.service"),
		genID:       p.GenID,
		registry:    p.Registry,
		paymentRepo: p.PaymentRepo,
		resolver:    p.Resolver,
		metrics:     p.Metrics,
	}
}

func (s *Service) ImportProvider(ctx context.Context, providerID string) (providerdomain.ImportStats, error) {
	var stats providerdomain.ImportStats

	provider, ok := s.registry.Get(providerID)
	if !ok {
		return stats, importerdomain.ErrUnknownProvider
	}

	orders, err := provider.GetAllOrders(ctx)
	if err != nil {
		s.metrics.Runs.WithLabelValues(providerID, "failed").Inc()
		return stats, err
	}
	stats.Total = len(orders)

	for _, order := range orders {
		// Honor cancellation between orders; committed rows stay intact.
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		s.reconcileOrder(ctx, provider.ID(), order, &stats)
	}

	s.metrics.Runs.WithLabelValues(providerID, "ok").Inc()
	s.log.Info("import finished",
		zap.String("provider", providerID),
		zap.Int("total", stats.Total),
		zap.Int("imported", stats.Imported),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
		zap.Int("users_created", stats.UsersCreated),
	)
	return stats, nil
}

// reconcileOrder applies one order to storage. Failures are counted and
// logged with enough context to reproduce; they never abort the batch.
func (s *Service) reconcileOrder(ctx context.Context, providerID string, order providerdomain.NormalizedOrder, stats *providerdomain.ImportStats) {
	if order.UserEmail == "" {
		stats.Skipped++
		s.metrics.Orders.WithLabelValues(providerID, "skipped").Inc()
		return
	}

	if order.Status != providerdomain.OrderStatusPaid {
		// Refunds detected by re-import transition the stored payment.
		if order.Status == providerdomain.OrderStatusRefunded {
			if _, err := s.paymentRepo.MarkRefunded(ctx, nil, providerID, order.OrderID); err != nil {
				s.logOrderError(providerID, order.OrderID, "mark refunded", err)
				stats.Errors++
				s.metrics.Orders.WithLabelValues(providerID, "error").Inc()
				return
			}
		}
		stats.Skipped++
		s.metrics.Orders.WithLabelValues(providerID, "skipped").Inc()
		return
	}

	existing, err := s.paymentRepo.FindByProcessorOrderID(ctx, nil, providerID, order.OrderID)
	if err != nil {
		s.logOrderError(providerID, order.OrderID, "lookup", err)
		stats.Errors++
		s.metrics.Orders.WithLabelValues(providerID, "error").Inc()
		return
	}

	if existing != nil {
		// Refresh, not duplicate.
		existing.Amount = order.Amount
		existing.Status = mapOrderStatus(order.Status)
		existing.ProductName = order.ProductName
		existing.Metadata = buildMetadata(order)
		if err := s.paymentRepo.Update(ctx, nil, existing); err != nil {
			s.logOrderError(providerID, order.OrderID, "refresh", err)
			stats.Errors++
			s.metrics.Orders.WithLabelValues(providerID, "error").Inc()
			return
		}
		stats.Skipped++
		s.metrics.Orders.WithLabelValues(providerID, "skipped").Inc()
		return
	}

	user, created, err := s.resolver.Resolve(ctx, order.UserEmail, order.UserName)
	if err != nil {
		s.logOrderError(providerID, order.OrderID, "resolve user", err)
		stats.Errors++
		s.metrics.Orders.WithLabelValues(providerID, "error").Inc()
		return
	}
	if created {
		stats.UsersCreated++
	}

	now := time.Now().UTC()
	payment := &paymentdomain.Payment{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		OrderID:          order.ID,
		ProcessorOrderID: order.OrderID,
		Processor:        providerID,
		Amount:           order.Amount,
		Status:           mapOrderStatus(order.Status),
		ProductName:      order.ProductName,
		Metadata:         buildMetadata(order),
		PurchasedAt:      purchaseDate(order, now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := s.paymentRepo.Insert(ctx, nil, payment); err != nil {
		s.logOrderError(providerID, order.OrderID, "insert", err)
		stats.Errors++
		s.metrics.Orders.WithLabelValues(providerID, "error").Inc()
		return
	}

	stats.Imported++
	s.metrics.Orders.WithLabelValues(providerID, "imported").Inc()
}

func (s *Service) ImportAll(ctx context.Context) (map[string]providerdomain.ImportStats, error) {
	providers := s.registry.Enabled()

	results := make(map[string]providerdomain.ImportStats, len(providers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range providers {
		wg.Add(1)
		go func(p providerdomain.Provider) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("provider import panicked",
						zap.String("provider", p.ID()),
						zap.Any("panic", r),
					)
					mu.Lock()
					results[p.ID()] = providerdomain.ImportStats{Errors: 1}
					mu.Unlock()
				}
			}()

			stats, err := s.ImportProvider(ctx, p.ID())
			if err != nil {
				s.log.Error("provider import failed",
					zap.String("provider", p.ID()),
					zap.Error(err),
				)
				stats.Errors++
			}
			mu.Lock()
			results[p.ID()] = stats
			mu.Unlock()
		}(p)
	}

	wg.Wait()
	return results, nil
}

func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	deleted, err := s.paymentRepo.DeleteAll(ctx, nil)
	if err != nil {
		return 0, err
	}
	s.log.Info("payments deleted", zap.Int64("count", deleted))
	return deleted, nil
}

// RefreshAll is the composition of delete-all and import-all, not a
// separate algorithm.
func (s *Service) RefreshAll(ctx context.Context) (*importerdomain.RefreshResult, error) {
	deleted, err := s.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.ImportAll(ctx)
	if err != nil {
		return nil, err
	}
	return &importerdomain.RefreshResult{
		DeletedCount:  deleted,
		ImportResults: results,
	}, nil
}

func (s *Service) HandleWebhook(ctx context.Context, providerID string, payload []byte) error {
	provider, ok := s.registry.Get(providerID)
	if !ok {
		// A supported provider whose feature flag is off still gets its
		// webhooks acknowledged, matching the disabled-adapter no-op.
		if registry.KnownProviderID(providerID) {
			s.metrics.Webhooks.WithLabelValues(providerID, string(providerdomain.WebhookActionIgnored)).Inc()
			s.log.Debug("webhook for disabled provider dropped",
				zap.String("provider", providerID),
			)
			return nil
		}
		return importerdomain.ErrUnknownProvider
	}

	result, err := provider.HandleWebhookEvent(ctx, payload)
	if err != nil {
		return err
	}

	s.metrics.Webhooks.WithLabelValues(providerID, string(result.Action)).Inc()

	switch result.Action {
	case providerdomain.WebhookActionPayment:
		var stats providerdomain.ImportStats
		s.reconcileOrder(ctx, providerID, *result.Order, &stats)
		if stats.Errors > 0 {
			s.log.Warn("webhook payment not persisted",
				zap.String("provider", providerID),
				zap.String("order_id", result.Order.OrderID),
			)
		}
		return nil
	case providerdomain.WebhookActionRefund:
		matched, err := s.paymentRepo.MarkRefunded(ctx, nil, providerID, result.Order.OrderID)
		if err != nil {
			return err
		}
		if !matched {
			// Refund for an order never imported; nothing to transition.
			s.log.Info("refund webhook had no matching payment",
				zap.String("provider", providerID),
				zap.String("order_id", result.Order.OrderID),
			)
		}
		return nil
	default:
		return nil
	}
}

func (s *Service) logOrderError(providerID, orderID, op string, err error) {
	s.log.Error("order reconciliation failed",
		zap.String("provider", providerID),
		zap.String("order_id", orderID),
		zap.String("op", op),
		zap.Error(err),
	)
}

func mapOrderStatus(status providerdomain.OrderStatus) paymentdomain.PaymentStatus {
	switch status {
	case providerdomain.OrderStatusPaid:
		return paymentdomain.PaymentStatusCompleted
	case providerdomain.OrderStatusRefunded:
		return paymentdomain.PaymentStatusRefunded
	default:
		return paymentdomain.PaymentStatusPending
	}
}

// buildMetadata stores the extracted product/variant names redundantly
// at the top level for query simplicity, plus the full provider payload
// for audit.
func buildMetadata(order providerdomain.NormalizedOrder) datatypes.JSON {
	bag := map[string]any{
		"product_name": order.ProductName,
		"variant_name": order.VariantName,
		"processor":    order.Processor,
		"order":        order.Attributes,
	}
	if order.DiscountCode != "" {
		bag["discount_code"] = order.DiscountCode
	}
	encoded, err := json.Marshal(bag)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(encoded)
}

func purchaseDate(order providerdomain.NormalizedOrder, fallback time.Time) time.Time {
	if order.PurchaseDate.IsZero() {
		return fallback
	}
	return order.PurchaseDate.UTC()
}
