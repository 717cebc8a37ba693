package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds bot credentials and the update delivery mode.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// SetCommands publishes the visible command list via setMyCommands at startup.
	SetCommands bool `yaml:"set_commands" envconfig:"TELEGRAM_SET_COMMANDS"`
}

// WebhookConfig specifies the inbound HTTP listener used in webhook mode.
type WebhookConfig struct {
	URL         string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen      string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port        int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	Path        string `yaml:"path" envconfig:"WEBHOOK_PATH"`
	SecretToken string `yaml:"secret_token" envconfig:"WEBHOOK_SECRET"`
	// Register calls setWebhook with URL and SecretToken on startup.
	Register               bool `yaml:"register" envconfig:"WEBHOOK_REGISTER"`
	ShutdownTimeoutSeconds int  `yaml:"shutdown_timeout_seconds" envconfig:"WEBHOOK_SHUTDOWN_TIMEOUT_SECONDS"`
}

// AssetsConfig locates topic images on disk and on the public web.
type AssetsConfig struct {
	Dir string `yaml:"dir" envconfig:"ASSETS_DIR"`
	// PublicOrigin overrides the origin derived from webhook requests, e.g. https://bot.example.org.
	PublicOrigin string `yaml:"public_origin" envconfig:"ASSETS_PUBLIC_ORIGIN"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	File        string `yaml:"file"`
	// Output selects the console stream: "stdout" (default) or "stderr".
	Output string `yaml:"output" envconfig:"LOG_OUTPUT"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook serves Telegram updates over an HTTP endpoint.
	RunModeWebhook = "webhook"
	// RunModeLongpoll pulls Telegram updates with getUpdates.
	RunModeLongpoll = "longpoll"
)

const (
	defaultWebhookListen = "0.0.0.0"
	defaultWebhookPath   = "/webhook"
	defaultAssetsDir     = "public/assets"
)

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads the core configuration from path and the environment, then validates it.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode fills dst from the YAML file at path, a local .env file and the process
// environment, in that order of precedence (later wins). dst must be a struct pointer.
func Decode(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeWebhook
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}

	origin, err := normalizeOrigin(cfg.Assets.PublicOrigin)
	if err != nil {
		return err
	}
	cfg.Assets.PublicOrigin = origin
	if strings.TrimSpace(cfg.Assets.Dir) == "" {
		cfg.Assets.Dir = defaultAssetsDir
	}

	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.SecretToken) == "" {
			return fmt.Errorf("webhook.secret_token is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			cfg.Webhook.Listen = defaultWebhookListen
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
		path := strings.TrimSpace(cfg.Webhook.Path)
		if path == "" {
			path = defaultWebhookPath
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		cfg.Webhook.Path = path
		if cfg.Webhook.Register && strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when webhook.register is enabled")
		}
		if cfg.Webhook.ShutdownTimeoutSeconds <= 0 {
			cfg.Webhook.ShutdownTimeoutSeconds = 10
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
		if cfg.Assets.PublicOrigin == "" {
			return fmt.Errorf("assets.public_origin is required when telegram.run_mode is 'longpoll'")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	return nil
}

func normalizeOrigin(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("assets.public_origin must be an absolute http(s) URL, got %q", raw)
	}
	if u.Path != "" || u.RawQuery != "" {
		return "", fmt.Errorf("assets.public_origin must not contain a path or query, got %q", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}
