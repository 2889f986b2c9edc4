package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chetan13062004/agromate/config"
	"github.com/chetan13062004/agromate/internal/dbtest"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/chetan13062004/agromate/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// blockingMailer holds every send until release is closed
type blockingMailer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	count   int
	mu      sync.Mutex
}

func (m *blockingMailer) Send(ctx context.Context, _ Message) error {
	m.once.Do(func() { close(m.started) })
	select {
	case <-m.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	m.mu.Lock()
	m.count++
	m.mu.Unlock()
	return nil
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.sent {
		out = append(out, msg.To)
	}
	return out
}

func TestOrderPlacedNotifiesBuyerAndFarmers(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db)
	buyer := dbtest.CreateUser(t, db, domain.RoleBuyer, "buyer@example.com")
	f1 := dbtest.CreateUser(t, db, domain.RoleFarmer, "f1@example.com")
	f2 := dbtest.CreateUser(t, db, domain.RoleFarmer, "f2@example.com")
	p1 := dbtest.CreateProduct(t, db, f1.ID, "okra", 30, 5)
	p2 := dbtest.CreateProduct(t, db, f2.ID, "yam", 70, 5)

	mailer := &fakeMailer{}
	n, err := NewNotifier(store, mailer, 2)
	require.NoError(t, err)
	defer n.Close()

	bus := NewBus()
	require.NoError(t, n.Subscribe(bus))

	order := &domain.Order{
		ID:     99,
		UserID: buyer.ID,
		Items: []domain.OrderItem{
			{ProductID: p1.ID, Product: p1, Quantity: 2, Price: 30},
			{ProductID: p2.ID, Product: p2, Quantity: 1, Price: 70},
		},
		Subtotal:    130,
		DeliveryFee: 13,
		Total:       143,
		Status:      domain.OrderPlaced,
	}
	bus.Publish(domain.TopicOrderPlaced, order)
	n.Drain()

	assert.ElementsMatch(t, []string{"buyer@example.com", "f1@example.com", "f2@example.com"}, mailer.recipients())
	for _, msg := range mailer.sent {
		if msg.To == "buyer@example.com" {
			assert.Equal(t, "Order 99 confirmed", msg.Subject)
			assert.Contains(t, msg.Body, "okra x 2 kg @ 30.00 = 60.00")
			assert.Contains(t, msg.Body, "Total: 143.00")
		}
		if msg.To == "f1@example.com" {
			assert.Contains(t, msg.Body, "okra")
			assert.NotContains(t, msg.Body, "yam")
		}
	}
}

func TestStatusChangeNotifiesBuyer(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db)
	buyer := dbtest.CreateUser(t, db, domain.RoleBuyer, "buyer@example.com")

	mailer := &fakeMailer{}
	n, err := NewNotifier(store, mailer, 1)
	require.NoError(t, err)
	defer n.Close()

	n.OnOrderStatusChanged(&domain.Order{ID: 5, UserID: buyer.ID, Status: domain.OrderInTransit, Total: 12})
	n.OnOrderStatusChanged(&domain.Order{ID: 6, UserID: 123456, Status: domain.OrderDelivered})
	n.Drain()

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Order 5 is now in transit", mailer.sent[0].Subject)
}

func TestSendFailureDoesNotBlock(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db)
	buyer := dbtest.CreateUser(t, db, domain.RoleBuyer, "buyer@example.com")

	mailer := &fakeMailer{err: errors.New("relay down")}
	n, err := NewNotifier(store, mailer, 1)
	require.NoError(t, err)
	defer n.Close()

	n.OnOrderStatusChanged(&domain.Order{ID: 7, UserID: buyer.ID, Status: domain.OrderCancelled})
	n.Drain()
	assert.Empty(t, mailer.sent)
}

func TestPublishDoesNotWaitForBusyWorkers(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db)
	buyer := dbtest.CreateUser(t, db, domain.RoleBuyer, "buyer@example.com")

	mailer := &blockingMailer{started: make(chan struct{}), release: make(chan struct{})}
	n, err := NewNotifier(store, mailer, 1)
	require.NoError(t, err)
	defer n.Close()
	bus := NewBus()
	require.NoError(t, n.Subscribe(bus))

	dropped := testutil.ToFloat64(metrics.NotificationsSent.WithLabelValues("dropped"))
	bus.Publish(domain.TopicOrderStatusChanged, &domain.Order{ID: 8, UserID: buyer.ID, Status: domain.OrderInTransit})
	select {
	case <-mailer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first notification never reached the mailer")
	}

	done := make(chan struct{})
	go func() {
		bus.Publish(domain.TopicOrderStatusChanged, &domain.Order{ID: 9, UserID: buyer.ID, Status: domain.OrderInTransit})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		close(mailer.release)
		t.Fatal("publish blocked on a busy worker pool")
	}
	assert.Equal(t, dropped+1, testutil.ToFloat64(metrics.NotificationsSent.WithLabelValues("dropped")))

	close(mailer.release)
	n.Drain()
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	assert.EqualValues(t, 1, mailer.count)
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	assert.IsType(t, LogMailer{}, NewMailer(config.MailConfig{}))
	assert.IsType(t, LogMailer{}, NewMailer(config.MailConfig{Enabled: true}))
	assert.IsType(t, &SMTPMailer{}, NewMailer(config.MailConfig{Enabled: true, Host: "smtp.example.com", Port: 25}))
}
