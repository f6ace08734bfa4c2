package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of checkouts committed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	OrderUnitsAllocatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_units_allocated_total",
		Help: "Total number of purchased units written by the allocation transaction",
	})

	CredentialsAssignedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credentials_assigned_total",
		Help: "Total number of digital credentials taken from product pools",
	})

	AllocationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_allocation_latency_seconds",
		Help:    "Latency of the order allocation transaction",
		Buckets: prometheus.DefBuckets,
	})

	PaymentPagesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_pages_created_total",
		Help: "Total number of hosted payment pages requested",
	})

	PaymentVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Total number of payment verifications by outcome",
	}, []string{"outcome"})

	ShipmentsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipments_created_total",
		Help: "Total number of carrier shipments booked by the worker",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
