package service

import (
	"context"
	"errors"
	"time"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/pricing"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/chetan13062004/agromate/pkg/metrics"
	"go.uber.org/zap"
)

// CheckoutService converts a cart into an order and decrements inventory
type CheckoutService struct {
	store *repository.Store
	bus   EventPublisher
}

func NewCheckoutService(store *repository.Store, bus EventPublisher) *CheckoutService {
	return &CheckoutService{store: store, bus: publisherOrNop(bus)}
}

// Checkout validates every cart line against current stock, then writes
// the order, the stock decrements and the cart reset in one transaction.
// Validation failures return before any write.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64) (*domain.Order, error) {
	cart, err := s.store.Carts.GetByUser(ctx, userID)
	if err != nil && !isNotFound(err) {
		metrics.CheckoutTotal.WithLabelValues("error").Inc()
		return nil, apperr.Internal(err, "Failed to load cart")
	}
	if cart == nil || len(cart.Items) == 0 {
		metrics.CheckoutTotal.WithLabelValues("empty").Inc()
		return nil, apperr.InvalidState("Cart is empty").WithCode("CART_EMPTY")
	}

	if err := validateLines(cart.Items); err != nil {
		zap.L().Info("checkout rejected",
			zap.Int64("user_id", userID),
			zap.String("reason", err.Message))
		metrics.CheckoutTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	order := buildOrder(userID, cart.Items)

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Orders.Create(ctx, order); err != nil {
			return apperr.Internal(err, "Failed to create order")
		}
		for _, item := range cart.Items {
			ok, err := tx.Products.DecrementStock(ctx, item.ProductID, item.Quantity, item.Product.Price)
			if err != nil {
				return apperr.Internal(err, "Failed to update stock")
			}
			if !ok {
				// another checkout consumed the stock after validation
				return insufficientAfterRace(ctx, tx, item)
			}
		}
		if err := tx.Carts.Clear(ctx, cart.ID); err != nil {
			return apperr.Internal(err, "Failed to clear cart")
		}
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Kind == apperr.KindInvalidState {
			metrics.CheckoutTotal.WithLabelValues("insufficient").Inc()
		} else {
			metrics.CheckoutTotal.WithLabelValues("error").Inc()
			zap.L().Error("checkout transaction failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	s.attachProducts(ctx, order, cart.Items)

	metrics.CheckoutTotal.WithLabelValues("ok").Inc()
	metrics.OrderRevenue.Add(order.Total)
	zap.L().Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int("lines", len(order.Items)),
		zap.Float64("total", order.Total))

	s.bus.Publish(domain.TopicOrderPlaced, order)
	return order, nil
}

// attachProducts resolves the order lines to the post-checkout product rows,
// keeping the cart snapshot for any row that cannot be reloaded
func (s *CheckoutService) attachProducts(ctx context.Context, order *domain.Order, lines []domain.CartItem) {
	ids := make([]int64, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	fresh, err := s.store.Products.GetByIDs(ctx, ids)
	if err != nil {
		zap.L().Warn("reload ordered products failed", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	for i := range order.Items {
		if p, ok := fresh[order.Items[i].ProductID]; ok {
			order.Items[i].Product = p
		} else {
			order.Items[i].Product = lines[i].Product
		}
	}
}

func validateLines(items []domain.CartItem) *apperr.Error {
	for _, item := range items {
		p := item.Product
		if p == nil {
			return apperr.InvalidState("Product %d is no longer available", item.ProductID).WithCode("PRODUCT_UNAVAILABLE")
		}
		if p.Status != domain.ProductActive {
			return apperr.InvalidState("Product %s is not available", p.Name).WithCode("PRODUCT_UNAVAILABLE")
		}
		if p.Stock < item.Quantity {
			return apperr.InvalidState("Insufficient stock for %s. Available: %d", p.Name, p.Stock).WithCode("INSUFFICIENT_STOCK")
		}
	}
	return nil
}

func resultLabel(err *apperr.Error) string {
	if err.Code == "INSUFFICIENT_STOCK" {
		return "insufficient"
	}
	return "unavailable"
}

// buildOrder snapshots prices read at checkout time
func buildOrder(userID int64, items []domain.CartItem) *domain.Order {
	now := time.Now()
	order := &domain.Order{
		UserID:    userID,
		Items:     make([]domain.OrderItem, 0, len(items)),
		Status:    domain.OrderPlaced,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		})
		order.Subtotal += item.Product.Price * float64(item.Quantity)
	}
	order.DeliveryFee, order.Total = pricing.Totals(order.Subtotal)
	return order
}

func insufficientAfterRace(ctx context.Context, tx *repository.Store, item domain.CartItem) error {
	current, err := tx.Products.GetByID(ctx, item.ProductID)
	if err != nil {
		return apperr.InvalidState("Product %s is no longer available", item.Product.Name).WithCode("PRODUCT_UNAVAILABLE")
	}
	if current.Status != domain.ProductActive {
		return apperr.InvalidState("Product %s is not available", current.Name).WithCode("PRODUCT_UNAVAILABLE")
	}
	return apperr.InvalidState("Insufficient stock for %s. Available: %d", current.Name, current.Stock).WithCode("INSUFFICIENT_STOCK")
}
