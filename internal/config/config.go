package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"avito-watch/internal/model"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const DefaultTargetURL = "https://www.avito.ru/kazan/kvartiry/sdam/na_dlitelnyy_srok/2-komnatnye-ASgBAgICA0SSA8gQ8AeQUswIkFk?pmin=35000&pmax=45000"

type Config struct {
	TargetURL           string `yaml:"target_url"`
	MinPrice            int64  `yaml:"min_price"`
	MaxPrice            int64  `yaml:"max_price"`
	TargetRooms         int    `yaml:"target_rooms"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	PollCron            string `yaml:"poll_cron"`

	FetchTimeoutSeconds      int    `yaml:"fetch_timeout_seconds"`
	RateLimitCooldownSeconds int    `yaml:"rate_limit_cooldown_seconds"`
	UserAgent                string `yaml:"user_agent"`
	AcceptLanguage           string `yaml:"accept_language"`

	TelegramToken    string `yaml:"telegram_bot_token"`
	TelegramChat     string `yaml:"telegram_chat_id"`
	TelegramThreadID *int   `yaml:"telegram_chat_thread_id"`
	NotifyIntervalMS int    `yaml:"notify_interval_ms"`

	HTTPPort  string `yaml:"http_port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Default() Config {
	return Config{
		TargetURL:                DefaultTargetURL,
		MinPrice:                 35000,
		MaxPrice:                 45000,
		TargetRooms:              2,
		PollIntervalSeconds:      300,
		FetchTimeoutSeconds:      15,
		RateLimitCooldownSeconds: 60,
		UserAgent:                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		AcceptLanguage:           "ru-RU,ru;q=0.9",
		NotifyIntervalMS:         1000,
		HTTPPort:                 "3000",
		LogLevel:                 "info",
		LogFormat:                "console",
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by CONFIG_FILE, and the environment (including .env), in that order.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	var errs []error
	overrideString("AVITO_URL", &cfg.TargetURL)
	overrideInt64("MIN_PRICE", &cfg.MinPrice, &errs)
	overrideInt64("MAX_PRICE", &cfg.MaxPrice, &errs)
	overrideInt("TARGET_ROOMS", &cfg.TargetRooms, &errs)
	overrideInt("POLL_INTERVAL_SECONDS", &cfg.PollIntervalSeconds, &errs)
	overrideString("POLL_CRON", &cfg.PollCron)
	overrideInt("FETCH_TIMEOUT_SECONDS", &cfg.FetchTimeoutSeconds, &errs)
	overrideInt("RATE_LIMIT_COOLDOWN_SECONDS", &cfg.RateLimitCooldownSeconds, &errs)
	overrideString("FETCH_USER_AGENT", &cfg.UserAgent)
	overrideString("FETCH_ACCEPT_LANGUAGE", &cfg.AcceptLanguage)
	overrideString("TELEGRAM_BOT_TOKEN", &cfg.TelegramToken)
	overrideString("TELEGRAM_CHAT_ID", &cfg.TelegramChat)
	overrideInt("NOTIFY_INTERVAL_MS", &cfg.NotifyIntervalMS, &errs)
	overrideString("HTTP_PORT", &cfg.HTTPPort)
	overrideString("LOG_LEVEL", &cfg.LogLevel)
	overrideString("LOG_FORMAT", &cfg.LogFormat)

	threadID, err := envOrIntPtr("TELEGRAM_CHAT_THREAD_ID")
	if err != nil {
		errs = append(errs, err)
	} else if threadID != nil {
		cfg.TelegramThreadID = threadID
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.TargetURL == "" {
		errs = append(errs, errors.New("AVITO_URL is empty"))
	}
	if !c.PriceRange().Valid() {
		errs = append(errs, fmt.Errorf("price range [%d, %d] is invalid", c.MinPrice, c.MaxPrice))
	}
	if c.PollCron == "" && c.PollIntervalSeconds <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL_SECONDS must be > 0"))
	}
	if c.TargetRooms <= 0 {
		errs = append(errs, errors.New("TARGET_ROOMS must be > 0"))
	}
	if c.FetchTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("FETCH_TIMEOUT_SECONDS must be > 0"))
	}
	if c.RateLimitCooldownSeconds < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_COOLDOWN_SECONDS must be >= 0"))
	}
	if c.NotifyIntervalMS < 0 {
		errs = append(errs, errors.New("NOTIFY_INTERVAL_MS must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (c Config) PriceRange() model.PriceRange {
	return model.PriceRange{Min: c.MinPrice, Max: c.MaxPrice}
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c Config) RateLimitCooldown() time.Duration {
	return time.Duration(c.RateLimitCooldownSeconds) * time.Second
}

func (c Config) NotifyInterval() time.Duration {
	return time.Duration(c.NotifyIntervalMS) * time.Millisecond
}

func (c Config) TelegramConfigured() bool {
	return c.TelegramToken != "" && c.TelegramChat != ""
}

func overlayFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

func overrideString(key string, dst *string) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(val)
	}
}

func overrideInt(key string, dst *int, errs *[]error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return
	}
	*dst = parsed
}

func overrideInt64(key string, dst *int64, errs *[]error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return
	}
	*dst = parsed
}

func envOrIntPtr(key string) (*int, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &parsed, nil
}
