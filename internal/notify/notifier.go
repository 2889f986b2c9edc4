// Package notify delivers order emails off the request path. Services
// publish domain events on the bus; the Notifier renders and sends the
// emails on a bounded worker pool.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/chetan13062004/agromate/pkg/metrics"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

// NewBus returns the in-process event bus
func NewBus() EventBus.Bus {
	return EventBus.New()
}

// Notifier turns order events into emails
type Notifier struct {
	store  *repository.Store
	mailer Mailer
	pool   *ants.Pool
	wg     sync.WaitGroup
}

func NewNotifier(store *repository.Store, mailer Mailer, workers int) (*Notifier, error) {
	if workers <= 0 {
		workers = 4
	}
	// bus handlers run on the publisher's goroutine, so a full pool drops
	// the notification instead of stalling the request
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			zap.L().Error("notification worker panic", zap.Any("panic", p))
		}))
	if err != nil {
		return nil, errors.Wrap(err, "create notification pool")
	}
	return &Notifier{store: store, mailer: mailer, pool: pool}, nil
}

// Subscribe registers the handlers on bus
func (n *Notifier) Subscribe(bus EventBus.Bus) error {
	if err := bus.Subscribe(domain.TopicOrderPlaced, n.OnOrderPlaced); err != nil {
		return errors.Wrap(err, "subscribe order placed")
	}
	if err := bus.Subscribe(domain.TopicOrderStatusChanged, n.OnOrderStatusChanged); err != nil {
		return errors.Wrap(err, "subscribe order status")
	}
	return nil
}

// OnOrderPlaced emails the buyer a confirmation and every farmer whose
// products were bought a summary of their lines
func (n *Notifier) OnOrderPlaced(order *domain.Order) {
	n.submit(func(ctx context.Context) {
		buyer, err := n.store.Users.GetByID(ctx, order.UserID)
		if err != nil {
			zap.L().Warn("order notification skipped, buyer not found",
				zap.Int64("order_id", order.ID), zap.Error(err))
		} else {
			n.deliver(ctx, buyerConfirmation(buyer, order))
		}

		for farmerID, lines := range linesByFarmer(order) {
			farmer, err := n.store.Users.GetByID(ctx, farmerID)
			if err != nil {
				zap.L().Warn("farmer notification skipped",
					zap.Int64("order_id", order.ID),
					zap.Int64("farmer_id", farmerID),
					zap.Error(err))
				continue
			}
			n.deliver(ctx, farmerSummary(farmer, order, lines))
		}
	})
}

// OnOrderStatusChanged tells the buyer where the order stands
func (n *Notifier) OnOrderStatusChanged(order *domain.Order) {
	n.submit(func(ctx context.Context) {
		buyer, err := n.store.Users.GetByID(ctx, order.UserID)
		if err != nil {
			zap.L().Warn("status notification skipped, buyer not found",
				zap.Int64("order_id", order.ID), zap.Error(err))
			return
		}
		n.deliver(ctx, Message{
			To:      buyer.Email,
			Subject: fmt.Sprintf("Order %d is now %s", order.ID, statusLabel(order.Status)),
			Body: fmt.Sprintf("Hello %s,\n\nYour order %d is now %s.\n\nTotal: %.2f\n",
				buyer.Name, order.ID, statusLabel(order.Status), order.Total),
		})
	})
}

// Drain blocks until queued notifications have been sent
func (n *Notifier) Drain() {
	n.wg.Wait()
}

// Close drains the queue and releases the pool
func (n *Notifier) Close() {
	n.Drain()
	n.pool.Release()
}

func (n *Notifier) submit(task func(ctx context.Context)) {
	n.wg.Add(1)
	err := n.pool.Submit(func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		task(ctx)
	})
	if err != nil {
		n.wg.Done()
		metrics.NotificationsSent.WithLabelValues("dropped").Inc()
		zap.L().Error("notification dropped", zap.Error(err))
	}
}

func (n *Notifier) deliver(ctx context.Context, msg Message) {
	if strings.TrimSpace(msg.To) == "" {
		return
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		zap.L().Error("notification send failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return
	}
	metrics.NotificationsSent.WithLabelValues("sent").Inc()
}

// linesByFarmer groups lines whose product resolved, keyed by farmer
func linesByFarmer(order *domain.Order) map[int64][]domain.OrderItem {
	out := make(map[int64][]domain.OrderItem)
	for _, item := range order.Items {
		if item.Product == nil || item.Product.FarmerID == 0 {
			continue
		}
		out[item.Product.FarmerID] = append(out[item.Product.FarmerID], item)
	}
	return out
}

func buyerConfirmation(buyer *domain.User, order *domain.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nThank you for your order %d.\n\n", buyer.Name, order.ID)
	writeLines(&b, order.Items)
	fmt.Fprintf(&b, "\nSubtotal: %.2f\nDelivery: %.2f\nTotal: %.2f\n",
		order.Subtotal, order.DeliveryFee, order.Total)
	return Message{
		To:      buyer.Email,
		Subject: fmt.Sprintf("Order %d confirmed", order.ID),
		Body:    b.String(),
	}
}

func farmerSummary(farmer *domain.User, order *domain.Order, lines []domain.OrderItem) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nOrder %d includes your products:\n\n", farmer.Name, order.ID)
	writeLines(&b, lines)
	return Message{
		To:      farmer.Email,
		Subject: fmt.Sprintf("New order %d", order.ID),
		Body:    b.String(),
	}
}

func writeLines(b *strings.Builder, items []domain.OrderItem) {
	sorted := append([]domain.OrderItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	for _, item := range sorted {
		name := fmt.Sprintf("product %d", item.ProductID)
		unit := ""
		if item.Product != nil {
			name = item.Product.Name
			unit = " " + item.Product.Unit
		}
		fmt.Fprintf(b, "  %s x %d%s @ %.2f = %.2f\n",
			name, item.Quantity, unit, item.Price, item.Price*float64(item.Quantity))
	}
}

func statusLabel(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
