package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.AccessTokenIssuer != "rental-auth" {
		t.Errorf("AccessTokenIssuer = %q, want %q", cfg.AccessTokenIssuer, "rental-auth")
	}
	if cfg.AccessTokenAudience != "rental-api" {
		t.Errorf("AccessTokenAudience = %q, want %q", cfg.AccessTokenAudience, "rental-api")
	}
	if cfg.RefreshTokenAudience != "rental-auth-refresh" {
		t.Errorf("RefreshTokenAudience = %q, want %q", cfg.RefreshTokenAudience, "rental-auth-refresh")
	}
	if cfg.AccessTokenTTL != "15m" {
		t.Errorf("AccessTokenTTL = %q, want %q", cfg.AccessTokenTTL, "15m")
	}
	if cfg.RefreshTokenTTL != "168h" {
		t.Errorf("RefreshTokenTTL = %q, want %q", cfg.RefreshTokenTTL, "168h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.LockoutThreshold != 5 {
		t.Errorf("LockoutThreshold = %d, want 5", cfg.LockoutThreshold)
	}
	if cfg.RevokedRetentionDays != 30 {
		t.Errorf("RevokedRetentionDays = %d, want 30", cfg.RevokedRetentionDays)
	}
	if cfg.TelemetryKafkaTopic != "rental-auth-events" {
		t.Errorf("TelemetryKafkaTopic = %q, want default", cfg.TelemetryKafkaTopic)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("ACCESS_TOKEN_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("LOCKOUT_THRESHOLD", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessTokenIssuer != "custom-issuer" {
		t.Errorf("AccessTokenIssuer = %q, want %q", cfg.AccessTokenIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.LockoutThreshold != 3 {
		t.Errorf("LockoutThreshold = %d, want 3", cfg.LockoutThreshold)
	}
}

func TestLoad_SameSecretsRejected(t *testing.T) {
	os.Clearenv()
	os.Setenv("ACCESS_TOKEN_SECRET", "shared-secret")
	os.Setenv("REFRESH_TOKEN_SECRET", "shared-secret")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject identical access and refresh secrets")
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject BCRYPT_COST out of range")
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		AccessTokenTTL:  "30m",
		RefreshTokenTTL: "720h",
		LockoutWindow:   "10m",
		LockoutDuration: "20m",
		SweepInterval:   "2h",
	}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", got)
	}
	if got := cfg.RefreshTTL(); got != 720*time.Hour {
		t.Errorf("RefreshTTL = %v, want 720h", got)
	}
	if got := cfg.LockWindow(); got != 10*time.Minute {
		t.Errorf("LockWindow = %v, want 10m", got)
	}
	if got := cfg.LockDuration(); got != 20*time.Minute {
		t.Errorf("LockDuration = %v, want 20m", got)
	}
	if got := cfg.SweepEvery(); got != 2*time.Hour {
		t.Errorf("SweepEvery = %v, want 2h", got)
	}
}

func TestConfig_DurationFallbacks(t *testing.T) {
	cfg := &Config{AccessTokenTTL: "garbage", RefreshTokenTTL: "", LockoutWindow: "-5m"}
	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", got)
	}
	if got := cfg.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL fallback = %v, want 168h", got)
	}
	if got := cfg.LockWindow(); got != 15*time.Minute {
		t.Errorf("LockWindow fallback = %v, want 15m", got)
	}
}

func TestConfig_TelemetryKafkaBrokersList(t *testing.T) {
	cfg := &Config{TelemetryKafkaBrokers: "localhost:9092, broker2:9092 ,,"}
	got := cfg.TelemetryKafkaBrokersList()
	if len(got) != 2 {
		t.Fatalf("brokers = %v, want 2 entries", got)
	}
	if got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("brokers = %v", got)
	}

	empty := &Config{}
	if l := empty.TelemetryKafkaBrokersList(); l != nil {
		t.Errorf("empty brokers should return nil, got %v", l)
	}
}
