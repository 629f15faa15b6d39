package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(BotTokenEnv, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("defaults must load: %v", err)
	}

	if cfg.Feed.BaseURL != "https://www.cbr.ru/scripts/XML_dynamic.asp" || cfg.Feed.CurrencyCode != "R01375" {
		t.Fatalf("unexpected feed defaults: %+v", cfg.Feed)
	}
	if cfg.Feed.WindowDays != 5 || cfg.Feed.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected window/timeout: %+v", cfg.Feed)
	}
	if cfg.Digest.Enabled || cfg.Metrics.Enabled {
		t.Fatal("digest and metrics must be off by default")
	}
	if err := cfg.ValidateTelegram(); err == nil {
		t.Fatal("missing token must fail telegram validation")
	}

	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Moscow" {
		t.Fatalf("timezone should resolve to Europe/Moscow: %v %v", loc, err)
	}
}

func TestLoadTokenFromEnv(t *testing.T) {
	t.Setenv(BotTokenEnv, "123:abc")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.BotToken != "123:abc" {
		t.Fatalf("token should come from %s, got %q", BotTokenEnv, cfg.Telegram.BotToken)
	}
	if err := cfg.ValidateTelegram(); err != nil {
		t.Fatalf("token present: %v", err)
	}
}

func TestLoadFileAndPrefixedEnv(t *testing.T) {
	t.Setenv(BotTokenEnv, "")
	t.Setenv("YUANBOT_CHART_WIDTH", "1024")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
feed:
  request_timeout: 3s
analysis:
  fixed_divisor: 5
digest:
  enabled: true
  chat_id: 100500
  interval: 12h
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chart.Width != 1024 {
		t.Fatalf("env override expected 1024, got %d", cfg.Chart.Width)
	}
	if cfg.Feed.RequestTimeout != 3*time.Second {
		t.Fatalf("file value expected 3s, got %s", cfg.Feed.RequestTimeout)
	}
	if cfg.Analysis.FixedDivisor != 5 {
		t.Fatalf("fixed divisor expected 5, got %d", cfg.Analysis.FixedDivisor)
	}
	if !cfg.Digest.Enabled || cfg.Digest.ChatID != 100500 || cfg.Digest.Interval != 12*time.Hour {
		t.Fatalf("digest settings not applied: %+v", cfg.Digest)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() Config {
		return Config{
			Feed:  FeedConfig{WindowDays: 5, RequestTimeout: time.Second, Timezone: "UTC"},
			Chart: ChartConfig{Width: 800, Height: 600},
		}
	}

	cases := map[string]func(c *Config){
		"window":   func(c *Config) { c.Feed.WindowDays = 0 },
		"window7":  func(c *Config) { c.Feed.WindowDays = 7 },
		"timezone": func(c *Config) { c.Feed.Timezone = "Mars/Olympus" },
		"divisor":  func(c *Config) { c.Analysis.FixedDivisor = -1 },
		"digest":   func(c *Config) { c.Digest.Enabled = true; c.Digest.Interval = time.Hour },
		"metrics":  func(c *Config) { c.Metrics.Enabled = true },
		"interval": func(c *Config) { c.Digest.Enabled = true; c.Digest.ChatID = 1 },
	}
	for name, mutate := range cases {
		cfg := base()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("base config must be valid: %v", err)
	}

	cfg.Digest = DigestConfig{Enabled: true, ChatID: 1, Cron: "0 9 * * *"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("cron without interval must be valid: %v", err)
	}
}
