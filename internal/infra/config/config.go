package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Gundem struct {
		URL          string        `envconfig:"GUNDEM_URL" default:"https://eksisozluk.com/basliklar/gundem"`
		PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
		FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"20s"`
	} `envconfig:""`

	DataDir        string `envconfig:"DATA_DIR" default:"data"`
	LogDir         string `envconfig:"LOG_DIR" default:"logs"`
	HeartbeatEvery int    `envconfig:"HEARTBEAT_EVERY" default:"2"`

	Match struct {
		// MaxDateDrift ограничивает возраст даты события относительно текущего дня.
		// 0 отключает фильтр.
		MaxDateDrift time.Duration `envconfig:"MATCH_MAX_DATE_DRIFT" default:"0"`
	} `envconfig:""`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN string `envconfig:"PG_DSN"`

	Redis struct {
		Addr    string `envconfig:"REDIS_ADDR"`
		SeenKey string `envconfig:"REDIS_SEEN_KEY" default:"quake:seen"`
	} `envconfig:""`

	Telegram struct {
		Token       string `envconfig:"TG_BOT_TOKEN"`
		AlertChatID int64  `envconfig:"TG_ALERT_CHAT_ID"`
	} `envconfig:""`

	Rabbit struct {
		URL   string `envconfig:"RABBITMQ_URL"`
		Queue string `envconfig:"ALERT_QUEUE" default:"quake_alerts"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Validate проверяет конфигурацию до запуска цикла опроса.
// Ошибки этого класса фатальны: процесс не должен стартовать
// с невалидным интервалом или недоступными каталогами.
func (c AppConfig) Validate() error {
	if c.Gundem.URL == "" {
		return fmt.Errorf("не указан адрес гюндема (GUNDEM_URL)")
	}
	if c.Gundem.PollInterval <= 0 {
		return fmt.Errorf("некорректный интервал опроса: %s", c.Gundem.PollInterval)
	}
	if c.Gundem.FetchTimeout <= 0 {
		return fmt.Errorf("некорректный таймаут запроса: %s", c.Gundem.FetchTimeout)
	}
	if c.HeartbeatEvery <= 0 {
		return fmt.Errorf("некорректный интервал heartbeat: %d", c.HeartbeatEvery)
	}
	for _, dir := range []string{c.DataDir, c.LogDir} {
		if err := ensureWritableDir(dir); err != nil {
			return err
		}
	}
	return nil
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("каталог %s недоступен: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("каталог %s недоступен для записи: %w", dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

// DetectedEventsPath возвращает путь к журналу срабатываний.
func (c AppConfig) DetectedEventsPath() string {
	return filepath.Join(c.DataDir, "detected_events.jsonl")
}

// MonitorLogPath возвращает путь к файлу логов монитора.
func (c AppConfig) MonitorLogPath() string {
	return filepath.Join(c.LogDir, "gundem_monitor.log")
}
