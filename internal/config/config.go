// Package config holds the runtime configuration and the domain constants of the backend.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no explicit path is given.
const DefaultPath = "config.yaml"

// Config is the resolved runtime configuration.
type Config struct {
	HTTPAddr string
	// TrustedProxies are the reverse proxies whose forwarding headers name the client address.
	TrustedProxies []string

	DatabaseURL string
	MaxDBConns  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	SessionTTL time.Duration

	UploadRoot     string
	MaxUploadBytes int64

	ResendAPIKey string
	MailFrom     string
	AdminEmail   string
	SiteURL      string
	Language     string

	TelegramBotToken string
	TelegramChatID   int64

	SubmitLimit  int
	SubmitWindow time.Duration

	LogLevel string
}

// fileConfig mirrors the YAML schema of config.yaml.
type fileConfig struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"server"`
	Database struct {
		URL      string `yaml:"url"`
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret  string `yaml:"jwt_secret"`
		SessionTTL string `yaml:"session_ttl"`
	} `yaml:"auth"`
	Uploads struct {
		Root     string `yaml:"root"`
		MaxBytes int64  `yaml:"max_bytes"`
	} `yaml:"uploads"`
	Mail struct {
		ResendAPIKey string `yaml:"resend_api_key"`
		From         string `yaml:"from"`
		AdminEmail   string `yaml:"admin_email"`
		SiteURL      string `yaml:"site_url"`
		Language     string `yaml:"language"`
	} `yaml:"mail"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Complaints struct {
		SubmitLimit  int    `yaml:"submit_limit"`
		SubmitWindow string `yaml:"submit_window"`
	} `yaml:"complaints"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load resolves configuration in priority order: defaults -> file -> env.
// A missing file is only an error when path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Config{
		HTTPAddr:       ":8080",
		DatabaseURL:    "host=localhost user=bhrc password=bhrc dbname=bhrc port=5432 sslmode=disable",
		MaxDBConns:     20,
		RedisAddr:      "localhost:6379",
		SessionTTL:     12 * time.Hour,
		UploadRoot:     "uploads",
		MaxUploadBytes: 10 << 20,
		MailFrom:       "BHRC <noreply@bhrc.org>",
		SiteURL:        "http://localhost:8080",
		Language:       "en",
		SubmitLimit:    DefaultSubmitLimit,
		SubmitWindow:   DefaultSubmitWindow,
		LogLevel:       "info",
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := applyFile(&cfg, data); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func applyFile(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	setString(&cfg.HTTPAddr, fc.Server.Addr)
	if len(fc.Server.TrustedProxies) > 0 {
		cfg.TrustedProxies = fc.Server.TrustedProxies
	}
	setString(&cfg.DatabaseURL, fc.Database.URL)
	if fc.Database.MaxConns > 0 {
		cfg.MaxDBConns = fc.Database.MaxConns
	}
	setString(&cfg.RedisAddr, fc.Redis.Addr)
	setString(&cfg.RedisPassword, fc.Redis.Password)
	if fc.Redis.DB > 0 {
		cfg.RedisDB = fc.Redis.DB
	}
	setString(&cfg.JWTSecret, fc.Auth.JWTSecret)
	if err := setDuration(&cfg.SessionTTL, fc.Auth.SessionTTL); err != nil {
		return fmt.Errorf("auth.session_ttl: %w", err)
	}
	setString(&cfg.UploadRoot, fc.Uploads.Root)
	if fc.Uploads.MaxBytes > 0 {
		cfg.MaxUploadBytes = fc.Uploads.MaxBytes
	}
	setString(&cfg.ResendAPIKey, fc.Mail.ResendAPIKey)
	setString(&cfg.MailFrom, fc.Mail.From)
	setString(&cfg.AdminEmail, fc.Mail.AdminEmail)
	setString(&cfg.SiteURL, fc.Mail.SiteURL)
	setString(&cfg.Language, fc.Mail.Language)
	setString(&cfg.TelegramBotToken, fc.Telegram.BotToken)
	if fc.Telegram.ChatID != 0 {
		cfg.TelegramChatID = fc.Telegram.ChatID
	}
	if fc.Complaints.SubmitLimit > 0 {
		cfg.SubmitLimit = fc.Complaints.SubmitLimit
	}
	if err := setDuration(&cfg.SubmitWindow, fc.Complaints.SubmitWindow); err != nil {
		return fmt.Errorf("complaints.submit_window: %w", err)
	}
	setString(&cfg.LogLevel, fc.Log.Level)
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTPAddr, os.Getenv("HTTP_ADDR"))
	setString(&cfg.DatabaseURL, os.Getenv("DATABASE_URL"))
	setString(&cfg.RedisAddr, os.Getenv("REDIS_ADDR"))
	setString(&cfg.RedisPassword, os.Getenv("REDIS_PASSWORD"))
	setString(&cfg.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&cfg.UploadRoot, os.Getenv("UPLOAD_ROOT"))
	setString(&cfg.ResendAPIKey, os.Getenv("RESEND_API_KEY"))
	setString(&cfg.MailFrom, os.Getenv("MAIL_FROM"))
	setString(&cfg.AdminEmail, os.Getenv("ADMIN_EMAIL"))
	setString(&cfg.SiteURL, os.Getenv("SITE_URL"))
	setString(&cfg.Language, os.Getenv("MAIL_LANGUAGE"))
	setString(&cfg.TelegramBotToken, os.Getenv("TELEGRAM_BOT_TOKEN"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	if raw := os.Getenv("TRUSTED_PROXIES"); raw != "" {
		cfg.TrustedProxies = nil
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, p)
			}
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"DB_MAX_CONNS", &cfg.MaxDBConns},
		{"REDIS_DB", &cfg.RedisDB},
		{"COMPLAINT_SUBMIT_LIMIT", &cfg.SubmitLimit},
	}
	for _, v := range ints {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = n
	}

	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.MaxUploadBytes = n
	}
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = n
	}
	if err := setDuration(&cfg.SessionTTL, os.Getenv("SESSION_TTL")); err != nil {
		return fmt.Errorf("SESSION_TTL: %w", err)
	}
	if err := setDuration(&cfg.SubmitWindow, os.Getenv("COMPLAINT_SUBMIT_WINDOW")); err != nil {
		return fmt.Errorf("COMPLAINT_SUBMIT_WINDOW: %w", err)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
