package main

import (
	"context"
	"net/url"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"eksi-quake-watch/internal/adapters/dedup"
	"eksi-quake-watch/internal/adapters/eventlog"
	"eksi-quake-watch/internal/adapters/gundem"
	"eksi-quake-watch/internal/adapters/notify"
	"eksi-quake-watch/internal/adapters/repo"
	"eksi-quake-watch/internal/domain"
	"eksi-quake-watch/internal/infra/config"
	"eksi-quake-watch/internal/infra/db"
	applog "eksi-quake-watch/internal/infra/log"
	"eksi-quake-watch/internal/infra/metrics"
	"eksi-quake-watch/internal/usecase/detect"
	"eksi-quake-watch/internal/usecase/monitor"
)

func main() {
	cfg := config.Load()

	bootLog := applog.NewLogger(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal().Err(err).Msg("monitor: некорректная конфигурация")
	}

	logger, logCloser, err := applog.NewFileLogger(cfg.AppEnv, cfg.MonitorLogPath())
	if err != nil {
		bootLog.Fatal().Err(err).Msg("monitor: не удалось открыть файл логов")
	}
	defer logCloser.Close()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	detlog, err := eventlog.Open(cfg.DetectedEventsPath(), logger.With().Str("component", "alert").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("monitor: не удалось открыть журнал срабатываний")
	}
	defer detlog.Close()

	opts := monitor.Options{
		Interval:       cfg.Gundem.PollInterval,
		FetchTimeout:   cfg.Gundem.FetchTimeout,
		HeartbeatEvery: cfg.HeartbeatEvery,
		MaxDateDrift:   cfg.Match.MaxDateDrift,
	}

	var detectionRepo *repo.Postgres
	if cfg.PGDSN != "" {
		pool, err := db.Connect(ctx, cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("monitor: нет подключения к БД")
		}
		defer pool.Close()
		detectionRepo = repo.NewPostgres(pool)
		if err := detectionRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("monitor: не удалось подготовить схему БД")
		}
		opts.Repo = detectionRepo
	}

	store := buildStore(ctx, cfg, detectionRepo, logger)

	if cfg.Telegram.Token != "" && cfg.Telegram.AlertChatID != 0 {
		botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("monitor: не удалось создать бота")
		}
		opts.Notifiers = append(opts.Notifiers, notify.NewTelegram(botAPI, cfg.Telegram.AlertChatID, siteBase(cfg.Gundem.URL)))
	}

	if cfg.Rabbit.URL != "" {
		publisher, err := notify.NewAMQP(cfg.Rabbit.URL, cfg.Rabbit.Queue)
		if err != nil {
			logger.Fatal().Err(err).Msg("monitor: не удалось подключиться к RabbitMQ")
		}
		defer publisher.Close()
		opts.Notifiers = append(opts.Notifiers, publisher)
	}

	fetcher := gundem.NewClient(cfg.Gundem.URL, cfg.Gundem.FetchTimeout)
	service := monitor.NewService(fetcher, store, detlog, logger.With().Str("component", "monitor").Logger(), opts)

	logger.Info().
		Str("url", cfg.Gundem.URL).
		Dur("interval", cfg.Gundem.PollInterval).
		Msg("monitor: система обнаружения землетрясений запущена")

	service.Run(ctx)
	logger.Info().Msg("monitor: остановлен")
}

// buildStore выбирает хранилище дедупликации: Redis, если задан адрес,
// иначе память процесса с регидратацией из журнала и БД.
func buildStore(ctx context.Context, cfg config.AppConfig, detectionRepo *repo.Postgres, logger zerolog.Logger) domain.DedupStore {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		return dedup.NewRedis(client, cfg.Redis.SeenKey, logger.With().Str("component", "dedup").Logger())
	}

	store := dedup.NewMemory()

	records, err := eventlog.ReadRecords(cfg.DetectedEventsPath())
	if err != nil {
		logger.Warn().Err(err).Msg("monitor: регидратация из журнала не удалась")
	}
	keys := make([]domain.EventKey, 0, len(records))
	for _, rec := range records {
		keys = append(keys, detect.Key(rec.Info))
	}
	store.Rehydrate(keys)

	if detectionRepo != nil {
		dbKeys, err := detectionRepo.ListSeenKeys(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("monitor: регидратация из БД не удалась")
		}
		store.Rehydrate(dbKeys)
	}

	logger.Info().Int("keys", store.Len()).Msg("monitor: дедупликация восстановлена")
	return store
}

// siteBase выделяет базовый адрес сайта из URL гюндема.
func siteBase(gundemURL string) string {
	parsed, err := url.Parse(gundemURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
