package config

import (
	"testing"
)

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "gridsync",
		Password: "secret",
		Database: "gridsync_engine",
		SSLMode:  "require",
	}

	got := cfg.ConnectionString()
	want := "host=db.internal port=5433 user=gridsync password=secret dbname=gridsync_engine sslmode=require"
	if got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}

func TestValidate_RejectsInvalidRole(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.Users = []UserConfig{
		{Username: "ops", Role: "superuser"},
	}
	if err := cfg.validate(); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestValidate_RejectsDuplicateUsernames(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.Users = []UserConfig{
		{Username: "ops", Role: "admin"},
		{Username: "ops", Role: "viewer"},
	}
	if err := cfg.validate(); err == nil {
		t.Error("expected error for duplicate username")
	}
}

func TestValidate_AcceptsWellFormedUsers(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.Users = []UserConfig{
		{Username: "ops", Role: "admin"},
		{Username: "finance", Role: "viewer", Screens: []string{"dashboard"}},
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSheetsConfig_Durations(t *testing.T) {
	cfg := SheetsConfig{
		HealthCacheMinutes:    5,
		SheetListCacheMinutes: 30,
		SheetListMaxAgeHours:  24,
		RequestTimeoutSeconds: 30,
	}
	if cfg.HealthCacheTTL().Minutes() != 5 {
		t.Errorf("HealthCacheTTL = %v", cfg.HealthCacheTTL())
	}
	if cfg.SheetListCacheTTL().Minutes() != 30 {
		t.Errorf("SheetListCacheTTL = %v", cfg.SheetListCacheTTL())
	}
	if cfg.SheetListMaxAge().Hours() != 24 {
		t.Errorf("SheetListMaxAge = %v", cfg.SheetListMaxAge())
	}
	if cfg.RequestTimeout().Seconds() != 30 {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout())
	}
}
