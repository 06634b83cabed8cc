package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders confirmed by the checkout",
		},
	)

	orderValueTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_order_value_total",
			Help: "Sum of confirmed order totals",
		},
	)

	orderItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_order_items",
			Help:    "Units per confirmed order",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
	)

	checkoutRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_rejections_total",
			Help: "Checkout actions refused, by step and reason",
		},
		[]string{"step", "reason"},
	)

	customizerQuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_customizer_quotes_total",
			Help: "Customizer price quotes, by product",
		},
		[]string{"product"},
	)
)

func OrderPlaced(total float64, items int) {
	ordersPlacedTotal.Inc()
	orderValueTotal.Add(total)
	orderItems.Observe(float64(items))
}

// CheckoutRejected counts a refused wizard action. reason is a short fixed
// label such as "validation" or "wrong_step".
func CheckoutRejected(step, reason string) {
	checkoutRejectionsTotal.WithLabelValues(step, reason).Inc()
}

func CustomizerQuoted(productSlug string) {
	customizerQuotesTotal.WithLabelValues(productSlug).Inc()
}
