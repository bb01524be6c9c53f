package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"chat-forwarder/internal/usecase"
)

const chatbotURLParam = "chatbot_url"

type Config struct {
	// Backend
	ChatbotURL     string
	ParamPrefix    string
	ResponseMode   usecase.ResponseMode
	ChatbotTimeout time.Duration

	// Exchange recording
	ExchangeTable string

	// Logging
	LogLevel slog.Level

	// Local server
	Port        string
	Env         string
	FrontendURL string
	Version     string
}

// ParamGetter reads a single SSM parameter.
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	mode, err := usecase.ParseResponseMode(os.Getenv("CHATBOT_RESPONSE_MODE"))
	if err != nil {
		return nil, fmt.Errorf("config: CHATBOT_RESPONSE_MODE: %w", err)
	}
	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		ChatbotURL:     strings.TrimSpace(os.Getenv("CHATBOT_URL")),
		ParamPrefix:    strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
		ResponseMode:   mode,
		ChatbotTimeout: time.Duration(envInt("CHATBOT_TIMEOUT_SECONDS", 30)) * time.Second,
		ExchangeTable:  strings.TrimSpace(os.Getenv("EXCHANGE_TABLE")),
		LogLevel:       level,
		Port:           getEnv("PORT", "8080"),
		Env:            strings.ToLower(getEnv("ENVIRONMENT", "dev")),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		Version:        getEnv("APP_VERSION", "dev"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ChatbotURL == "" && c.ParamPrefix == "" {
		return errors.New("config: one of CHATBOT_URL or PARAM_PREFIX must be set")
	}
	if c.ChatbotURL != "" {
		if err := validateURL(c.ChatbotURL); err != nil {
			return fmt.Errorf("config: CHATBOT_URL: %w", err)
		}
	}
	if c.ChatbotTimeout <= 0 {
		return errors.New("config: CHATBOT_TIMEOUT_SECONDS must be positive")
	}
	if c.Env != "dev" && c.Env != "production" {
		return fmt.Errorf("config: ENVIRONMENT must be dev or production, got %q", c.Env)
	}
	if c.IsProduction() {
		if err := validateURL(c.FrontendURL); err != nil {
			return fmt.Errorf("config: FRONTEND_URL: %w", err)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NeedsParamStore reports whether the backend URL must be read from SSM.
func (c *Config) NeedsParamStore() bool {
	return c.ChatbotURL == ""
}

// ResolveChatbotURL returns CHATBOT_URL, or <PARAM_PREFIX>/chatbot_url from
// SSM when the variable is unset.
func (c *Config) ResolveChatbotURL(ctx context.Context, params ParamGetter) (string, error) {
	if !c.NeedsParamStore() {
		return c.ChatbotURL, nil
	}
	if params == nil {
		return "", errors.New("config: CHATBOT_URL is unset and no parameter store is available")
	}
	name := c.ParamPrefix + "/" + chatbotURLParam
	v, err := params.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("config: load %s: %w", name, err)
	}
	if err := validateURL(v); err != nil {
		return "", fmt.Errorf("config: %s: %w", name, err)
	}
	return strings.TrimSpace(v), nil
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
