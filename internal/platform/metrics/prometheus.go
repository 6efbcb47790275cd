package metrics

import (
	"net/http"

	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Manager holds the service's custom Prometheus metrics.
type Manager struct {
	Registry             *prometheus.Registry
	ListingsCreatedTotal prometheus.Counter
	ListingUpdatesTotal  prometheus.Counter
	ListingDeletesTotal  prometheus.Counter
	EventsPublishedTotal *prometheus.CounterVec
	ErrorsTotal          *prometheus.CounterVec
	OperationLatency     *prometheus.HistogramVec
}

// NewManager initializes and registers the listing-service metrics on a
// dedicated registry.
func NewManager(serviceName string) *Manager {
	registry := prometheus.NewRegistry()

	listingsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listings_created_total",
		Help:      "Total number of listings created.",
	})
	listingUpdatesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listing_updates_total",
		Help:      "Total number of listing updates (price, status, photos).",
	})
	listingDeletesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listing_deletes_total",
		Help:      "Total number of listings soft-deleted.",
	})
	eventsPublishedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "events_published_total",
		Help:      "Total number of domain events published, by subject.",
	}, []string{"subject"})
	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "errors_total",
		Help:      "Total number of failed operations by method and error type.",
	}, []string{"method", "error_type"})
	operationLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "operation_latency_seconds",
		Help:      "Latency of usecase operations by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	registry.MustRegister(
		listingsCreatedTotal,
		listingUpdatesTotal,
		listingDeletesTotal,
		eventsPublishedTotal,
		errorsTotal,
		operationLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:             registry,
		ListingsCreatedTotal: listingsCreatedTotal,
		ListingUpdatesTotal:  listingUpdatesTotal,
		ListingDeletesTotal:  listingDeletesTotal,
		EventsPublishedTotal: eventsPublishedTotal,
		ErrorsTotal:          errorsTotal,
		OperationLatency:     operationLatency,
	}
}

// StartServer exposes /metrics on the given port. An empty port disables the
// server.
func StartServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics port not configured, metrics server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
