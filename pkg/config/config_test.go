package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	return path
}

func TestLoadWithPath_Defaults(t *testing.T) {
	path := writeEnvFile(t, "APP_NAME=ticketd-test\n")

	cfg, err := LoadWithPath(path)
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}

	if cfg.App.Name != "ticketd-test" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "ticketd-test")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("Database.MaxConns = %d, want 25", cfg.Database.MaxConns)
	}
	if cfg.Sweep.ExpiryThreshold != 15*time.Minute {
		t.Errorf("Sweep.ExpiryThreshold = %v, want 15m", cfg.Sweep.ExpiryThreshold)
	}
	if cfg.Sweep.Interval != time.Minute {
		t.Errorf("Sweep.Interval = %v, want 1m", cfg.Sweep.Interval)
	}
	if cfg.Kafka.Topic != "ticketd.notifications" {
		t.Errorf("Kafka.Topic = %q, want ticketd.notifications", cfg.Kafka.Topic)
	}
}

func TestLoadWithPath_Overrides(t *testing.T) {
	path := writeEnvFile(t, `SERVER_PORT=9090
DATABASE_DBNAME=ticketd_test
SWEEP_EXPIRY_THRESHOLD=20m
GATEWAY_PROVIDER=mock
`)

	cfg, err := LoadWithPath(path)
	if err != nil {
		t.Fatalf("LoadWithPath() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.DBName != "ticketd_test" {
		t.Errorf("Database.DBName = %q, want ticketd_test", cfg.Database.DBName)
	}
	if cfg.Sweep.ExpiryThreshold != 20*time.Minute {
		t.Errorf("Sweep.ExpiryThreshold = %v, want 20m", cfg.Sweep.ExpiryThreshold)
	}
	if cfg.Gateway.Provider != "mock" {
		t.Errorf("Gateway.Provider = %q, want mock", cfg.Gateway.Provider)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:      AppConfig{Name: "ticketd", Environment: "development"},
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Host: "localhost", DBName: "ticketd"},
			Token:    TokenConfig{Secret: "secret"},
			Sweep:    SweepConfig{ExpiryThreshold: 15 * time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing app name", func(c *Config) { c.App.Name = "" }, true},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, true},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, true},
		{"missing db name", func(c *Config) { c.Database.DBName = "" }, true},
		{"missing token secret", func(c *Config) { c.Token.Secret = "" }, true},
		{"default secret in production", func(c *Config) {
			c.App.Environment = "production"
			c.Token.Secret = "change-me-in-production"
		}, true},
		{"stripe without key in production", func(c *Config) {
			c.App.Environment = "production"
			c.Gateway.Provider = "stripe"
		}, true},
		{"zero sweep threshold", func(c *Config) { c.Sweep.ExpiryThreshold = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "ticketd",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=postgres password=postgres dbname=ticketd sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := &RedisConfig{Host: "localhost", Port: 6379}
	if got := cfg.Addr(); got != "localhost:6379" {
		t.Errorf("Addr() = %q, want localhost:6379", got)
	}
}
