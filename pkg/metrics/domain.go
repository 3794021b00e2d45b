package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultNoop  = "noop"
)

var (
	OrderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order state transitions by action and result",
		},
		[]string{"action", "result"},
	)

	WalletOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "operations_total",
			Help:      "Wallet ledger operations by kind and result",
		},
		[]string{"operation", "result"},
	)

	PaymentEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "events_total",
			Help:      "Payment confirmations by source, event kind and result",
		},
		[]string{"source", "kind", "result"},
	)

	NotificationsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "failed_total",
			Help:      "Notification dispatch failures by sink",
		},
		[]string{"sink"},
	)
)

func init() {
	Registry.MustRegister(
		OrderTransitionsTotal,
		WalletOperationsTotal,
		PaymentEventsTotal,
		NotificationsFailedTotal,
	)
}

// Outcome maps an operation error to a result label.
func Outcome(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
