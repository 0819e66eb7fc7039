package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	OrdersCreated     prometheus.Counter
	PaymentsInitiated prometheus.Counter
	PaymentsConfirmed prometheus.Counter
	PaymentsFailed    prometheus.Counter
	PaymentsRefunded  prometheus.Counter
	GatewayLatencySec prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "pay_orders_created_total"})
	paymentsInitiated := prometheus.NewCounter(prometheus.CounterOpts{Name: "pay_payments_initiated_total"})
	paymentsConfirmed := prometheus.NewCounter(prometheus.CounterOpts{Name: "pay_payments_confirmed_total"})
	paymentsFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "pay_payments_failed_total"})
	paymentsRefunded := prometheus.NewCounter(prometheus.CounterOpts{Name: "pay_payments_refunded_total"})
	gatewayLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pay_gateway_request_seconds",
		Buckets: prometheus.DefBuckets,
	})
	r.MustRegister(ordersCreated, paymentsInitiated, paymentsConfirmed, paymentsFailed, paymentsRefunded, gatewayLatency)
	return &Registry{
		reg:               r,
		OrdersCreated:     ordersCreated,
		PaymentsInitiated: paymentsInitiated,
		PaymentsConfirmed: paymentsConfirmed,
		PaymentsFailed:    paymentsFailed,
		PaymentsRefunded:  paymentsRefunded,
		GatewayLatencySec: gatewayLatency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
