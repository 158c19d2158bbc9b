package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts checkout and order lifecycle outcomes.
type OrderMetrics struct {
	placed            prometheus.Counter
	checkoutFailures  *prometheus.CounterVec
	cancelled         *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	accountsSuspended prometheus.Counter
}

func NewOrderMetrics(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &OrderMetrics{
		placed: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Total number of orders placed",
		})),
		checkoutFailures: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_failures_total",
			Help: "Checkouts rejected, by reason",
		}, []string{"reason"})),
		cancelled: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "Orders cancelled, by who cancelled them",
		}, []string{"actor"})),
		transitions: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status transitions applied",
		}, []string{"from", "to"})),
		accountsSuspended: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accounts_suspended_total",
			Help: "Accounts suspended for excessive cancellations",
		})),
	}
}

// register returns the already registered collector when one with the same
// descriptor exists, so tests and restarts can share a registry.
func register[T prometheus.Collector](registerer prometheus.Registerer, c T) T {
	if err := registerer.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type: %T", are.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return c
}

func (m *OrderMetrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.placed.Inc()
}

func (m *OrderMetrics) CheckoutFailed(reason string) {
	if m == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(reason).Inc()
}

func (m *OrderMetrics) OrderCancelled(actor string) {
	if m == nil {
		return
	}
	m.cancelled.WithLabelValues(actor).Inc()
}

func (m *OrderMetrics) StatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *OrderMetrics) AccountSuspended() {
	if m == nil {
		return
	}
	m.accountsSuspended.Inc()
}
