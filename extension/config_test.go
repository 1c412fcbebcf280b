package extension

import (
	"testing"
	"time"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{PaymentTermDays: 30})
	if cfg.PaymentTermDays != 30 {
		t.Errorf("payment term: got %d, want 30", cfg.PaymentTermDays)
	}
	if cfg.BasePath != "/faktura" || cfg.DefaultCurrency != "eur" || cfg.OverheadPct != 10 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestMergeConfigurations(t *testing.T) {
	file := Config{BasePath: "/billing", PaymentTermDays: 7}
	prog := Config{
		BasePath:        "/ignored",
		PaymentTermDays: 21,
		DisableMigrate:  true,
		SweepInterval:   time.Hour,
		SweepTenants:    []string{"acme"},
	}

	cfg := mergeConfigurations(file, prog)
	if cfg.BasePath != "/billing" || cfg.PaymentTermDays != 7 {
		t.Errorf("file values must win: %+v", cfg)
	}
	if !cfg.DisableMigrate {
		t.Error("programmatic DisableMigrate lost")
	}
	if cfg.SweepInterval != time.Hour || len(cfg.SweepTenants) != 1 {
		t.Errorf("sweep config not filled: %+v", cfg)
	}
	if cfg.DefaultLocale != "de" {
		t.Errorf("defaults not applied: %q", cfg.DefaultLocale)
	}
}
