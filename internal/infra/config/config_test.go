package config

import (
	"path/filepath"
	"testing"
	"time"
)

func validConfig(t *testing.T) AppConfig {
	t.Helper()
	var cfg AppConfig
	cfg.Gundem.URL = "https://eksisozluk.com/basliklar/gundem"
	cfg.Gundem.PollInterval = 30 * time.Second
	cfg.Gundem.FetchTimeout = 20 * time.Second
	cfg.HeartbeatEvery = 2
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.LogDir = filepath.Join(t.TempDir(), "logs")
	return cfg
}

func TestValidateOK(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("валидная конфигурация отклонена: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		mutil func(*AppConfig)
	}{
		{"пустой URL", func(c *AppConfig) { c.Gundem.URL = "" }},
		{"нулевой интервал", func(c *AppConfig) { c.Gundem.PollInterval = 0 }},
		{"отрицательный интервал", func(c *AppConfig) { c.Gundem.PollInterval = -time.Second }},
		{"нулевой таймаут", func(c *AppConfig) { c.Gundem.FetchTimeout = 0 }},
		{"нулевой heartbeat", func(c *AppConfig) { c.HeartbeatEvery = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutil(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("ожидалась ошибка валидации")
			}
		})
	}
}

func TestValidateCreatesDirs(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	path := cfg.DetectedEventsPath()
	if filepath.Dir(path) != cfg.DataDir {
		t.Fatalf("журнал должен лежать в DataDir, получили %s", path)
	}
	if filepath.Dir(cfg.MonitorLogPath()) != cfg.LogDir {
		t.Fatalf("лог монитора должен лежать в LogDir, получили %s", cfg.MonitorLogPath())
	}
}

func TestValidateRejectsUnwritableDir(t *testing.T) {
	cfg := validConfig(t)
	cfg.DataDir = "/proc/nonexistent/data"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ожидалась ошибка: каталог недоступен для записи")
	}
}
