package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultsProduceEnginePolicy(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg := FromViper(v)

	policy := cfg.Engine.Policy()
	if policy.SafetyFactor != 1.0 {
		t.Fatalf("expected safety factor 1.0, got %v", policy.SafetyFactor)
	}
	if policy.ReorderPaddingDays != 7 {
		t.Fatalf("expected padding 7, got %d", policy.ReorderPaddingDays)
	}
	if policy.HighViabilityScore != 70 || policy.MediumViabilityScore != 40 {
		t.Fatalf("unexpected viability bands %v/%v", policy.HighViabilityScore, policy.MediumViabilityScore)
	}
	if cfg.Inventory.Backend != "postgres" {
		t.Fatalf("expected postgres backend by default, got %q", cfg.Inventory.Backend)
	}
	if cfg.Inventory.StoreTimeout() != 2*time.Second {
		t.Fatalf("expected 2s store timeout, got %v", cfg.Inventory.StoreTimeout())
	}
}

func TestOverridesTakePrecedence(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("ENGINE_SAFETY_FACTOR", 1.65)
	v.Set("INVENTORY_BACKEND", "memory")
	v.Set("FORECAST_TIMEOUT_MS", 250)

	cfg := FromViper(v)
	if cfg.Engine.SafetyFactor != 1.65 {
		t.Fatalf("expected overridden safety factor, got %v", cfg.Engine.SafetyFactor)
	}
	if cfg.Inventory.Backend != "memory" {
		t.Fatalf("expected memory backend, got %q", cfg.Inventory.Backend)
	}
	if cfg.Forecast.Timeout() != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", cfg.Forecast.Timeout())
	}
}
