package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement counters. Registered on the default registry and exposed on
// /metrics by cmd/api.
var (
	PaymentsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_settled_total",
		Help: "Number of vigencia payments successfully settled.",
	})

	SettledAmountCOP = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_settled_amount_cop_total",
		Help: "Total settled amount in COP minor units.",
	})

	SettlementsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_rejected_total",
		Help: "Settlement attempts rejected, by error kind.",
	}, []string{"kind"})
)
