package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agromate"

var (
	// CheckoutTotal counts checkout attempts by result (ok, empty, unavailable, insufficient, error)
	CheckoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})

	// OrderRevenue accumulates order totals at checkout time
	OrderRevenue = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_revenue_total",
		Help:      "Sum of order totals placed through checkout.",
	})

	// OrderStatusChanges counts admin status transitions by target status
	OrderStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_changes_total",
		Help:      "Order status updates by new status.",
	}, []string{"status"})

	// AIRequests counts outbound inference calls by endpoint and outcome
	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ai_requests_total",
		Help:      "Outbound inference requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// NotificationsSent counts notification deliveries by outcome
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification emails by outcome.",
	}, []string{"outcome"})

	// OutOfStockProducts is refreshed by the inventory reconciliation job
	OutOfStockProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "out_of_stock_products",
		Help:      "Products currently out of stock.",
	})

	ProcessCPU = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "process_cpu_percent",
		Help:      "CPU usage of the server process in percent.",
	})

	ProcessMemory = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "process_memory_mb",
		Help:      "Resident memory of the server process in MB.",
	})

	SystemMemoryUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "system_memory_used_percent",
		Help:      "Host memory usage in percent.",
	})
)
