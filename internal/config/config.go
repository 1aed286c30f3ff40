package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the bot.
type Config struct {
	AppName     string
	Environment string
	Telegram    TelegramConfig
	Scheduler   SchedulerConfig
	DeadLetter  DeadLetterConfig
	HTTP        HTTPConfig
	JWT         JWTConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Monitor     MonitorConfig
}

type TelegramConfig struct {
	Token          string
	APIURL         string
	PollTimeout    time.Duration
	RequestTimeout time.Duration
}

type SchedulerConfig struct {
	Interval      time.Duration
	NotifyTimeout time.Duration
	Workers       int
}

// DeadLetterConfig enables the undelivered notification journal when Path is set.
type DeadLetterConfig struct {
	Path      string
	Retention time.Duration
}

type HTTPConfig struct {
	Enabled      bool
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type JWTConfig struct {
	Secret string
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MonitorConfig struct {
	Interval time.Duration
}

// ErrMissingToken is returned when neither TOKEN nor TELEGRAM_TOKEN is set.
var ErrMissingToken = errors.New("config: TOKEN is required")

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the bot only needs a token to boot.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "remindbot"),
		Environment: getString("APP_ENV", "development"),
		Telegram: TelegramConfig{
			Token:          getString("TOKEN", os.Getenv("TELEGRAM_TOKEN")),
			APIURL:         getString("TELEGRAM_API_URL", "https://api.telegram.org"),
			PollTimeout:    getDuration("TELEGRAM_POLL_TIMEOUT", 30*time.Second),
			RequestTimeout: getDuration("TELEGRAM_REQUEST_TIMEOUT", 10*time.Second),
		},
		Scheduler: SchedulerConfig{
			Interval:      getDuration("SCHEDULER_INTERVAL", 10*time.Second),
			NotifyTimeout: getDuration("NOTIFY_TIMEOUT", 5*time.Second),
			Workers:       getInt("SCHEDULER_WORKERS", 4),
		},
		DeadLetter: DeadLetterConfig{
			Path:      os.Getenv("DEADLETTER_PATH"),
			Retention: getDuration("DEADLETTER_RETENTION", 7*24*time.Hour),
		},
		HTTP: HTTPConfig{
			Enabled:      getBool("HTTP_ENABLED", false),
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Monitor: MonitorConfig{
			Interval: getDuration("MONITOR_INTERVAL", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the bot cannot run with.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	if c.Scheduler.Interval < time.Second {
		return fmt.Errorf("config: SCHEDULER_INTERVAL must be at least 1s, got %s", c.Scheduler.Interval)
	}
	if c.HTTP.Enabled && c.JWT.Secret == "" {
		return errors.New("config: JWT_SECRET is required when HTTP_ENABLED is set")
	}
	return nil
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
