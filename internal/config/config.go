package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"yuan-rate-bot/internal/logging"
)

// BotTokenEnv is the environment variable holding the Telegram credential.
const BotTokenEnv = "TELEGRAM_BOT_API_KEY"

// CaptionWindowDays is the window the reply caption is worded for ("за 5 дней").
const CaptionWindowDays = 5

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Digest   DigestConfig   `mapstructure:"digest"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// TelegramConfig covers Bot API access.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	APIEndpoint    string        `mapstructure:"api_endpoint"`
	Debug          bool          `mapstructure:"debug"`
	UpdateTimeout  int           `mapstructure:"update_timeout"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
	ParseMode      string        `mapstructure:"parse_mode"`
}

// FeedConfig describes the CBR rates feed.
type FeedConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	CurrencyCode   string        `mapstructure:"currency_code"`
	WindowDays     int           `mapstructure:"window_days"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timezone       string        `mapstructure:"timezone"`
}

// AnalysisConfig tunes the summary computation.
type AnalysisConfig struct {
	FixedDivisor int `mapstructure:"fixed_divisor"`
}

// ChartConfig sets the rendered image size.
type ChartConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

// DigestConfig controls the optional periodic report to one chat.
type DigestConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ChatID       int64         `mapstructure:"chat_id"`
	Cron         string        `mapstructure:"cron"`
	Interval     time.Duration `mapstructure:"interval"`
	Align        bool          `mapstructure:"align"`
	Offset       time.Duration `mapstructure:"offset"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("YUANBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("telegram.bot_token", BotTokenEnv, "YUANBOT_TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "yuanbot")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("telegram.api_endpoint", "https://api.telegram.org/bot%s/%s")
	v.SetDefault("telegram.debug", false)
	v.SetDefault("telegram.update_timeout", 60)
	v.SetDefault("telegram.handler_timeout", "30s")
	v.SetDefault("telegram.parse_mode", "")

	v.SetDefault("feed.base_url", "https://www.cbr.ru/scripts/XML_dynamic.asp")
	v.SetDefault("feed.currency_code", "R01375")
	v.SetDefault("feed.window_days", 5)
	v.SetDefault("feed.request_timeout", "10s")
	v.SetDefault("feed.user_agent", "yuanbot/1.0")
	v.SetDefault("feed.timezone", "Europe/Moscow")

	v.SetDefault("analysis.fixed_divisor", 0)

	v.SetDefault("chart.width", 800)
	v.SetDefault("chart.height", 600)
	v.SetDefault("chart.title", "CNY/RUB")

	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.chat_id", 0)
	v.SetDefault("digest.cron", "")
	v.SetDefault("digest.interval", "24h")
	v.SetDefault("digest.align", true)
	v.SetDefault("digest.offset", "9h")
	v.SetDefault("digest.startup_delay", "0s")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":9090")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Feed.WindowDays != CaptionWindowDays {
		return fmt.Errorf("feed.window_days must be %d: the reply caption reports a %d day change", CaptionWindowDays, CaptionWindowDays)
	}
	if c.Feed.RequestTimeout <= 0 {
		return fmt.Errorf("feed.request_timeout must be greater than zero")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Analysis.FixedDivisor < 0 {
		return fmt.Errorf("analysis.fixed_divisor cannot be negative")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be greater than zero")
	}
	if c.Digest.Enabled {
		if c.Digest.ChatID == 0 {
			return fmt.Errorf("digest.chat_id is required when digest is enabled")
		}
		if c.Digest.Cron == "" && c.Digest.Interval <= 0 {
			return fmt.Errorf("digest.interval must be greater than zero when digest.cron is empty")
		}
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr is required when metrics are enabled")
	}
	return nil
}

// ValidateTelegram checks what the bot needs on top of Validate.
func (c *Config) ValidateTelegram() error {
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		return fmt.Errorf("telegram bot token missing: set %s", BotTokenEnv)
	}
	return nil
}

// Location resolves feed.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Feed.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Feed.Timezone)
	if err != nil {
		return nil, fmt.Errorf("feed.timezone: %w", err)
	}
	return loc, nil
}
