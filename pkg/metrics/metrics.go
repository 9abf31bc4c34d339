package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts API requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fredinstallments_http_requests_total",
			Help: "API requests by route and status code",
		},
		[]string{"route", "status"},
	)

	// PaymentsRecorded counts payments written through the ledger.
	PaymentsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fredinstallments_payments_recorded_total",
			Help: "Payments recorded",
		},
	)

	// Calculations counts calculator runs by kind.
	Calculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fredinstallments_calculations_total",
			Help: "Installment calculations by kind",
		},
		[]string{"kind"},
	)

	OverdueDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fredinstallments_overdue_devices",
			Help: "Devices past their next due date at the last scan",
		},
	)

	OverdueCustomers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fredinstallments_overdue_customers",
			Help: "Customers with at least one overdue device at the last scan",
		},
	)

	OutstandingBalance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fredinstallments_outstanding_balance",
			Help: "Sum of customer balances at the last scan",
		},
	)
)
