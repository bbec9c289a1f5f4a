package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"eksi-quake-watch/internal/adapters/eventlog"
	"eksi-quake-watch/internal/adapters/repo"
	"eksi-quake-watch/internal/domain"
	"eksi-quake-watch/internal/infra/config"
	"eksi-quake-watch/internal/infra/db"
	apphttp "eksi-quake-watch/internal/infra/http"
	applog "eksi-quake-watch/internal/infra/log"
	"eksi-quake-watch/internal/infra/metrics"
)

func main() {
	cfg := config.Load()

	logger := applog.NewLogger(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("api: некорректная конфигурация")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	list := listFromJournal(cfg)
	if cfg.PGDSN != "" {
		pool, err := db.Connect(ctx, cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к БД")
		}
		defer pool.Close()
		detectionRepo := repo.NewPostgres(pool)
		if err := detectionRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("api: не удалось подготовить схему БД")
		}
		list = detectionRepo.ListDetections
	}

	server := apphttp.NewServer(logger.With().Str("component", "http").Logger())
	server.Router.Get("/api/v1/detections", detectionsHandler(list, logger))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api: ошибка при остановке сервера")
		}
	}()

	if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
		logger.Fatal().Err(err).Msg("api: сервер завершился с ошибкой")
	}
	logger.Info().Msg("api: остановлен")
}

type listFunc func(ctx context.Context, limit int) ([]domain.DetectionRecord, error)

// listFromJournal отдаёт срабатывания из JSONL журнала, новые первыми.
// Используется, когда БД не настроена.
func listFromJournal(cfg config.AppConfig) listFunc {
	return func(_ context.Context, limit int) ([]domain.DetectionRecord, error) {
		records, err := eventlog.ReadRecords(cfg.DetectedEventsPath())
		if err != nil {
			return nil, err
		}
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}
		return records, nil
	}
}

// detectionsHandler отдаёт последние срабатывания в JSON.
// Лимит задаётся параметром ?limit=, по умолчанию 50, максимум 500.
func detectionsHandler(list listFunc, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "некорректный limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}
		if limit > 500 {
			limit = 500
		}

		records, err := list(r.Context(), limit)
		if err != nil {
			logger.Error().Err(err).Msg("api: не удалось получить срабатывания")
			http.Error(w, "внутренняя ошибка", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []domain.DetectionRecord{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			logger.Error().Err(err).Msg("api: не удалось сериализовать ответ")
		}
	}
}
