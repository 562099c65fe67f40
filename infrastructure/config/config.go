package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	QRProviderQuickChart = "quickchart"
	QRProviderLocal      = "local"
)

// Config is read once from the environment at startup.
type Config struct {
	Addr          string
	SQLitePath    string
	ChecklistPath string
	ProposalPath  string
	SessionTTL    time.Duration

	TotalAmount       int64
	PaidAmount        int64
	RequestedAmount   int64
	CurrentCheckpoint int
	UPIID             string
	PayeeName         string

	QRProvider string
	QREndpoint string
}

// Load reads the configuration through getenv, falling back to defaults.
// Pass os.Getenv in production and a map lookup in tests.
func Load(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Addr:          env("APP_ADDR", ":8080"),
		SQLitePath:    env("SQLITE_PATH", "proposal.db"),
		ChecklistPath: env("CHECKLIST_PATH", ""),
		ProposalPath:  env("PROPOSAL_PATH", ""),
		UPIID:         env("UPI_ID", "9810167696@indie"),
		PayeeName:     env("UPI_PAYEE_NAME", "Codvertex"),
		QRProvider:    strings.ToLower(env("QR_PROVIDER", QRProviderQuickChart)),
		QREndpoint:    env("QR_ENDPOINT", "https://quickchart.io/qr"),
	}

	var err error
	if cfg.SessionTTL, err = time.ParseDuration(env("SESSION_TTL", "12h")); err != nil || cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if cfg.TotalAmount, err = parseAmount("TRACKER_TOTAL_AMOUNT", env("TRACKER_TOTAL_AMOUNT", "21000")); err != nil {
		return Config{}, err
	}
	if cfg.PaidAmount, err = parseAmount("TRACKER_PAID_AMOUNT", env("TRACKER_PAID_AMOUNT", "0")); err != nil {
		return Config{}, err
	}
	if cfg.RequestedAmount, err = parseAmount("TRACKER_REQUESTED_AMOUNT", env("TRACKER_REQUESTED_AMOUNT", "1000")); err != nil {
		return Config{}, err
	}
	checkpoint, err := strconv.Atoi(env("TRACKER_CURRENT_CHECKPOINT", "1"))
	if err != nil || checkpoint <= 0 {
		return Config{}, fmt.Errorf("TRACKER_CURRENT_CHECKPOINT must be a positive integer")
	}
	cfg.CurrentCheckpoint = checkpoint

	switch cfg.QRProvider {
	case QRProviderQuickChart, QRProviderLocal:
	default:
		return Config{}, fmt.Errorf("QR_PROVIDER must be %q or %q, got %q", QRProviderQuickChart, QRProviderLocal, cfg.QRProvider)
	}
	return cfg, nil
}

// FromEnv loads the configuration from the process environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

func parseAmount(key, raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole rupee amount: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return v, nil
}
