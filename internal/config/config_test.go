package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Scheduler.Interval != 30*time.Second {
		t.Errorf("Expected 30s scheduler interval, got %s", cfg.Scheduler.Interval)
	}
	if !cfg.Scheduler.Enabled {
		t.Error("Scheduler should be enabled by default")
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 50 {
		t.Errorf("Unexpected search limits %+v", cfg.Search)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SCHEDULER_INTERVAL", "5s")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Scheduler.Interval != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.Enabled {
		t.Error("Scheduler should be disabled")
	}
	if cfg.Database.MaxOpenConns != 7 {
		t.Errorf("Expected 7 open conns, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected lower-cased level, got %s", cfg.Log.Level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "database:\n  name: fansite\nassets:\n  root: /srv/assets\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Name != "fansite" {
		t.Errorf("Expected database name from file, got %s", cfg.Database.Name)
	}
	if cfg.Assets.Root != "/srv/assets" {
		t.Errorf("Expected assets root from file, got %s", cfg.Assets.Root)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Database:  DatabaseConfig{Host: "localhost", Name: "db"},
		Scheduler: SchedulerConfig{Interval: time.Second},
		Search:    SearchConfig{DefaultLimit: 10, MaxLimit: 50},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing host", func(c *Config) { c.Database.Host = "" }},
		{"missing name", func(c *Config) { c.Database.Name = "" }},
		{"zero interval", func(c *Config) { c.Scheduler.Interval = 0 }},
		{"inverted search limits", func(c *Config) { c.Search.MaxLimit = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := db.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}
