package config

import (
	"testing"
	"time"
)

func lookup(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(lookup(nil))
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.SQLitePath != "proposal.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TotalAmount != 21000 || cfg.PaidAmount != 0 || cfg.RequestedAmount != 1000 || cfg.CurrentCheckpoint != 1 {
		t.Fatalf("unexpected payment defaults: %+v", cfg)
	}
	if cfg.UPIID != "9810167696@indie" || cfg.PayeeName != "Codvertex" {
		t.Fatalf("unexpected upi defaults: %+v", cfg)
	}
	if cfg.QRProvider != QRProviderQuickChart || cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("unexpected qr/session defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(lookup(map[string]string{
		"TRACKER_PAID_AMOUNT": "8000",
		"QR_PROVIDER":         "LOCAL",
		"SESSION_TTL":         "30m",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PaidAmount != 8000 || cfg.QRProvider != QRProviderLocal || cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []map[string]string{
		{"TRACKER_TOTAL_AMOUNT": "lots"},
		{"TRACKER_PAID_AMOUNT": "-1"},
		{"TRACKER_CURRENT_CHECKPOINT": "0"},
		{"QR_PROVIDER": "printer"},
		{"SESSION_TTL": "forever"},
	}
	for _, env := range cases {
		if _, err := Load(lookup(env)); err == nil {
			t.Fatalf("expected error for %v", env)
		}
	}
}
