package service

import (
	"context"
	"time"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/chetan13062004/agromate/pkg/metrics"
	"go.uber.org/zap"
)

// OrderService answers buyer, farmer and admin order queries
type OrderService struct {
	store *repository.Store
	bus   EventPublisher
}

func NewOrderService(store *repository.Store, bus EventPublisher) *OrderService {
	return &OrderService{store: store, bus: publisherOrNop(bus)}
}

// ListMyOrders returns the buyer's orders, newest first
func (s *OrderService) ListMyOrders(ctx context.Context, buyerID int64) ([]*domain.Order, error) {
	orders, err := s.store.Orders.ListByUser(ctx, buyerID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to query orders")
	}
	return nonNilOrders(orders), nil
}

// GetOrder loads one order for its owner or an admin
func (s *OrderService) GetOrder(ctx context.Context, id int64, requester *domain.User) (*domain.Order, error) {
	order, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.Internal(err, "Failed to query order")
	}
	if requester == nil || (order.UserID != requester.ID && !requester.IsAdmin()) {
		return nil, apperr.Forbidden("Not authorized to view this order")
	}
	return order, nil
}

// ListFarmerOrders returns orders containing at least one of the farmer's
// products. Each returned order only carries the farmer's own lines.
func (s *OrderService) ListFarmerOrders(ctx context.Context, farmerID int64) ([]*domain.Order, error) {
	orders, err := s.store.Orders.ListContainingFarmer(ctx, farmerID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to query farmer orders")
	}
	result := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		if view := farmerView(o, farmerID); view != nil {
			result = append(result, view)
		}
	}
	return result, nil
}

// farmerView keeps the lines whose resolved product belongs to farmerID,
// returning nil when none do
func farmerView(o *domain.Order, farmerID int64) *domain.Order {
	var lines []domain.OrderItem
	for _, item := range o.Items {
		if item.Product != nil && item.Product.FarmerID == farmerID {
			lines = append(lines, item)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	view := *o
	view.Items = lines
	return &view
}

// ValidateDateRange rejects a window whose start is after its end
func ValidateDateRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return apperr.Validation("'from' must not be after 'to'")
	}
	return nil
}

func validateFilter(filter repository.OrderFilter) error {
	if filter.Status != "" {
		switch domain.NormalizeOrderStatus(filter.Status) {
		case domain.OrderPlaced, domain.OrderProcessing, domain.OrderInTransit, domain.OrderDelivered, domain.OrderCancelled:
		default:
			return apperr.Validation("Invalid status filter %q", filter.Status)
		}
	}
	return ValidateDateRange(filter.From, filter.To)
}

// ListOrders is the admin listing
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page repository.Page) ([]*domain.Order, int64, error) {
	if err := validateFilter(filter); err != nil {
		return nil, 0, err
	}
	orders, total, err := s.store.Orders.List(ctx, filter, page)
	if err != nil {
		return nil, 0, apperr.Internal(err, "Failed to query orders")
	}
	return nonNilOrders(orders), total, nil
}

// UpdateStatus moves an order to processing, in_transit, delivered or
// cancelled. Delivered and cancelled orders are final.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	if !domain.AdminSettableStatus(status) {
		return nil, apperr.Validation("Invalid status %q", status)
	}
	status = domain.NormalizeOrderStatus(status)

	order, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.Internal(err, "Failed to query order")
	}
	if order.Terminal() && order.Status != status {
		return nil, apperr.InvalidState("Order is already %s", order.Status)
	}
	previous := order.Status
	if err := s.store.Orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperr.Internal(err, "Failed to update order")
	}
	order.Status = status
	order.UpdatedAt = time.Now()

	metrics.OrderStatusChanges.WithLabelValues(status).Inc()
	zap.L().Info("order status updated",
		zap.Int64("order_id", id),
		zap.String("from", previous),
		zap.String("to", status))
	if previous != status {
		s.bus.Publish(domain.TopicOrderStatusChanged, order)
	}
	return order, nil
}

func nonNilOrders(orders []*domain.Order) []*domain.Order {
	if orders == nil {
		return []*domain.Order{}
	}
	return orders
}
