package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}
	if cfg.MinMatchScore != 0.4 {
		t.Fatalf("expected default min match score 0.4, got %v", cfg.MinMatchScore)
	}
	if cfg.MaxMatchesPerNeed != 10 {
		t.Fatalf("expected default max matches 10, got %d", cfg.MaxMatchesPerNeed)
	}
	if cfg.HistoryAlpha != 0.3 {
		t.Fatalf("expected default history alpha 0.3, got %v", cfg.HistoryAlpha)
	}
	if cfg.StoreDriver != "sqlite" {
		t.Fatalf("expected default store driver sqlite, got %s", cfg.StoreDriver)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SUBSTRATE_MIN_MATCH_SCORE", "0.6")
	t.Setenv("SUBSTRATE_SCORING_WORKERS", "4")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinMatchScore != 0.6 {
		t.Fatalf("expected 0.6, got %v", cfg.MinMatchScore)
	}
	if cfg.ScoringWorkers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.ScoringWorkers)
	}
}

func TestValidateRejectsNegativeWeight(t *testing.T) {
	t.Setenv("SUBSTRATE_WEIGHT_SIMILARITY", "-0.1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative weight")
	}
}

func TestValidateRejectsBadMinScore(t *testing.T) {
	t.Setenv("SUBSTRATE_MIN_MATCH_SCORE", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for min match score > 1")
	}
}

func TestValidateRejectsBadPenalty(t *testing.T) {
	t.Setenv("SUBSTRATE_TIMEZONE_PENALTY", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero penalty")
	}
}

func TestValidateRejectsUnknownStoreDriver(t *testing.T) {
	t.Setenv("SUBSTRATE_STORE_DRIVER", "flatfile")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}

func TestValidatePostgresRequiresDSN(t *testing.T) {
	t.Setenv("SUBSTRATE_STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when postgres driver has no DATABASE_URL")
	}
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("SUBSTRATE_SCORING_WORKERS", "many")
	t.Setenv("SUBSTRATE_MIN_MATCH_SCORE", "high")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScoringWorkers != 8 {
		t.Fatalf("expected fallback 8, got %d", cfg.ScoringWorkers)
	}
	if cfg.MinMatchScore != 0.4 {
		t.Fatalf("expected fallback 0.4, got %v", cfg.MinMatchScore)
	}
}
