package config

import (
	"errors"
	"os"
	"strings"
)

const tokenSecretPath = "/run/secrets/telegram_bot_token"

type Config struct {
	TelegramToken string

	OrbisURL    string
	OrbisAPIKey string

	OracleBaseURL string
	OracleAPIKey  string
	OracleModel   string

	// StateDB selects the persistent conversation store; empty keeps the
	// in-memory one.
	StateDB string
}

func Load() (Config, error) {
	cfg := Config{
		TelegramToken: botToken(),
		OrbisURL:      strings.TrimSpace(os.Getenv("ORBIS_URL")),
		OrbisAPIKey:   strings.TrimSpace(os.Getenv("ORBIS_API_KEY")),
		OracleBaseURL: strings.TrimSpace(os.Getenv("MESAGPT_BASE_URL")),
		OracleAPIKey:  strings.TrimSpace(os.Getenv("MESAGPT_API_KEY")),
		OracleModel:   strings.TrimSpace(os.Getenv("MESAGPT_MODEL")),
		StateDB:       strings.TrimSpace(os.Getenv("BRIDGE_STATE_DB")),
	}
	if cfg.TelegramToken == "" {
		return cfg, errors.New("telegram token not found: neither Docker secret nor TELEGRAM_BOT_TOKEN is set")
	}
	if cfg.OrbisURL == "" {
		return cfg, errors.New("ORBIS_URL is not set")
	}
	return cfg, nil
}

func botToken() string {
	if data, err := os.ReadFile(tokenSecretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	return strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
}
