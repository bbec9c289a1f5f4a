package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	FetchTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gundem_fetch_total",
		Help: "Количество опросов страницы гюндема",
	})
	FetchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gundem_fetch_errors_total",
		Help: "Ошибки получения или разбора гюндема",
	})
	TitlesScanned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "titles_scanned_total",
		Help: "Количество заголовков, проверенных матчером",
	})
	DetectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "earthquake_detections_total",
		Help: "Количество новых обнаруженных землетрясений",
	}, []string{"confidence"})
	DuplicatesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "earthquake_duplicates_skipped_total",
		Help: "Повторные совпадения, отброшенные дедупликацией",
	})
	PersistErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "detection_persist_errors_total",
		Help: "Ошибки записи срабатываний в журнал",
	})
	NotifyErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alert_notify_errors_total",
		Help: "Ошибки доставки уведомлений",
	})
	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "poll_cycle_seconds",
		Help:    "Длительность одного цикла опроса",
		Buckets: prometheus.DefBuckets,
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		FetchTotal,
		FetchErrors,
		TitlesScanned,
		DetectionsTotal,
		DuplicatesSkipped,
		PersistErrors,
		NotifyErrors,
		CycleDuration,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}
