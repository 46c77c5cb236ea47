package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// SecretToken is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	SecretToken string `yaml:"secret_token" envconfig:"WEBHOOK_SECRET_TOKEN"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	File        string `yaml:"file" envconfig:"LOG_FILE"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig throttles raw updates before they reach any bot logic.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// BotConfig selects which conversation engine the process serves.
type BotConfig struct {
	Mode string `yaml:"mode" envconfig:"BOT_MODE"`
	// IdleText overrides the resting reply in idle mode.
	IdleText string `yaml:"idle_text" envconfig:"BOT_IDLE_TEXT"`
}

// GameConfig tunes the quiz guards. Zero values fall back to defaults in Normalize.
type GameConfig struct {
	MaxDailyGames            int    `yaml:"max_daily_games" envconfig:"GAME_MAX_DAILY"`
	CooldownSeconds          int    `yaml:"cooldown_seconds" envconfig:"GAME_COOLDOWN_SECONDS"`
	MaxConsecutiveAttempts   int    `yaml:"max_consecutive_attempts" envconfig:"GAME_MAX_CONSECUTIVE"`
	ConsecutiveWindowSeconds int    `yaml:"consecutive_window_seconds" envconfig:"GAME_CONSECUTIVE_WINDOW_SECONDS"`
	Timezone                 string `yaml:"timezone" envconfig:"GAME_TIMEZONE"`
	// Difficulty restricts questions to one level (1..3); 0 mixes all levels.
	Difficulty int `yaml:"difficulty" envconfig:"GAME_DIFFICULTY"`
}

// SessionConfig controls idle session eviction. IdleTTLMinutes == 0 keeps sessions forever.
type SessionConfig struct {
	IdleTTLMinutes       int `yaml:"idle_ttl_minutes" envconfig:"SESSION_IDLE_TTL_MINUTES"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" envconfig:"SESSION_SWEEP_INTERVAL_SECONDS"`
}

// SurveyConfig bounds accepted survey answers.
type SurveyConfig struct {
	MinAge int `yaml:"min_age" envconfig:"SURVEY_MIN_AGE"`
	MaxAge int `yaml:"max_age" envconfig:"SURVEY_MAX_AGE"`
}

// StorageConfig selects where survey submissions are written.
type StorageConfig struct {
	Driver         string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	Path           string `yaml:"path" envconfig:"DB_PATH"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// MetricsConfig exposes Prometheus metrics over HTTP when enabled.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
	Listen    string `yaml:"listen" envconfig:"METRICS_LISTEN"`
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

const (
	// BotModeIdle answers every update with the resting message.
	BotModeIdle = "idle"
	// BotModeQuiz runs the quiz game.
	BotModeQuiz = "quiz"
	// BotModeSurvey runs the survey form.
	BotModeSurvey = "survey"
)

const (
	// DriverMemory keeps survey submissions in process memory.
	DriverMemory = "memory"
	// DriverPostgres stores survey submissions in PostgreSQL.
	DriverPostgres = "postgres"
	// DriverSQLite stores survey submissions in a SQLite file.
	DriverSQLite = "sqlite3"
)

// Config aggregates the whole application configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Bot       BotConfig       `yaml:"bot"`
	Game      GameConfig      `yaml:"game"`
	Session   SessionConfig   `yaml:"session"`
	Survey    SurveyConfig    `yaml:"survey"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Load reads configuration from a YAML file and environment variables.
// A missing file is not an error: the environment alone may carry everything.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := normalizeBot(&cfg.Bot); err != nil {
		return err
	}
	if err := normalizeGame(&cfg.Game); err != nil {
		return err
	}
	if cfg.Session.IdleTTLMinutes < 0 {
		return fmt.Errorf("session.idle_ttl_minutes must be >= 0")
	}
	if cfg.Session.SweepIntervalSeconds <= 0 {
		cfg.Session.SweepIntervalSeconds = 300
	}
	if err := normalizeSurvey(&cfg.Survey); err != nil {
		return err
	}
	if err := normalizeStorage(&cfg.Storage); err != nil {
		return err
	}
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Listen) == "" {
		cfg.Metrics.Listen = ":9090"
	}
	if strings.TrimSpace(cfg.Metrics.Namespace) == "" {
		cfg.Metrics.Namespace = "deplot"
	}
	return nil
}

func normalizeBot(b *BotConfig) error {
	mode := strings.ToLower(strings.TrimSpace(b.Mode))
	if mode == "" {
		mode = BotModeIdle
	}
	switch mode {
	case BotModeIdle, BotModeQuiz, BotModeSurvey:
	default:
		return fmt.Errorf("invalid bot.mode %q; allowed: idle, quiz, survey", b.Mode)
	}
	b.Mode = mode
	return nil
}

func normalizeGame(g *GameConfig) error {
	if g.MaxDailyGames < 0 || g.CooldownSeconds < 0 || g.MaxConsecutiveAttempts < 0 || g.ConsecutiveWindowSeconds < 0 {
		return fmt.Errorf("game limits must be >= 0")
	}
	if g.MaxDailyGames == 0 {
		g.MaxDailyGames = 20
	}
	if g.CooldownSeconds == 0 {
		g.CooldownSeconds = 10
	}
	if g.MaxConsecutiveAttempts == 0 {
		g.MaxConsecutiveAttempts = 5
	}
	if g.ConsecutiveWindowSeconds == 0 {
		g.ConsecutiveWindowSeconds = 60
	}
	if g.Difficulty < 0 || g.Difficulty > 3 {
		return fmt.Errorf("game.difficulty must be between 0 and 3")
	}
	g.Timezone = strings.TrimSpace(g.Timezone)
	if g.Timezone != "" {
		if _, err := time.LoadLocation(g.Timezone); err != nil {
			return fmt.Errorf("invalid game.timezone %q: %w", g.Timezone, err)
		}
	}
	return nil
}

func normalizeSurvey(s *SurveyConfig) error {
	if s.MinAge <= 0 {
		s.MinAge = 1
	}
	if s.MaxAge <= 0 {
		s.MaxAge = 120
	}
	if s.MinAge > s.MaxAge {
		return fmt.Errorf("survey.min_age (%d) must not exceed survey.max_age (%d)", s.MinAge, s.MaxAge)
	}
	return nil
}

func normalizeStorage(s *StorageConfig) error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	switch driver {
	case "", DriverMemory:
		driver = DriverMemory
	case "postgresql", DriverPostgres:
		driver = DriverPostgres
		if strings.TrimSpace(s.Host) == "" || strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("storage.host and storage.name are required for postgres")
		}
		if s.Port == "" {
			s.Port = "5432"
		}
		if s.SSLMode == "" {
			s.SSLMode = "disable"
		}
	case "sqlite", DriverSQLite:
		driver = DriverSQLite
		if strings.TrimSpace(s.Path) == "" {
			s.Path = "./data/deplot.db"
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: memory, postgres, sqlite3", s.Driver)
	}
	s.Driver = driver
	if s.MaxConnections <= 0 {
		s.MaxConnections = 5
	}
	return nil
}

// Location resolves the configured game time zone, defaulting to time.Local.
func (g GameConfig) Location() *time.Location {
	if g.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IdleTTL converts IdleTTLMinutes into a duration.
func (s SessionConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}
