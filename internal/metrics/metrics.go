// Package metrics holds the Prometheus collectors of the back-office API.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the service counters.
type Metrics struct {
	PurchaseLines  *prometheus.CounterVec
	TokensRedeemed prometheus.Counter
	SaleLines      prometheus.Counter
	Oversold       prometheus.Counter
	SaleAmendments *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PurchaseLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medstock",
			Name:      "purchase_lines_total",
			Help:      "Purchase lines received, by outcome.",
		}, []string{"status"}),
		TokensRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medstock",
			Name:      "pending_tokens_redeemed_total",
			Help:      "Pending purchase tokens redeemed with a barcode.",
		}),
		SaleLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medstock",
			Name:      "sale_lines_total",
			Help:      "Sale lines recorded.",
		}),
		Oversold: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medstock",
			Name:      "oversold_units_total",
			Help:      "Units sold beyond the recorded stock level.",
		}),
		SaleAmendments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medstock",
			Name:      "sale_line_changes_total",
			Help:      "Sale line amendments and cancellations.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.PurchaseLines, m.TokensRedeemed, m.SaleLines, m.Oversold, m.SaleAmendments)
	return m
}
