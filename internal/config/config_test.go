package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		TelegramBotToken:        "123:abc",
		StorageDriver:           StorageDriverPostgres,
		DBPassword:              "secret",
		DBMaxConns:              25,
		DBMinConns:              5,
		ReferralSecret:          "s3cr3t",
		BotMaxInflight:          64,
		BotUpdateTimeoutSeconds: 60,
		LeaderboardSize:         10,
		RateLimitRequests:       20,
		RateLimitWindow:         time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"memory driver without db password", func(c *Config) {
			c.StorageDriver = StorageDriverMemory
			c.DBPassword = ""
		}, false},
		{"missing token", func(c *Config) { c.TelegramBotToken = "" }, true},
		{"postgres without password", func(c *Config) { c.DBPassword = "" }, true},
		{"unknown driver", func(c *Config) { c.StorageDriver = "mysql" }, true},
		{"min conns above max", func(c *Config) { c.DBMinConns = 30 }, true},
		{"zero inflight", func(c *Config) { c.BotMaxInflight = 0 }, true},
		{"zero leaderboard", func(c *Config) { c.LeaderboardSize = 0 }, true},
		{"missing referral secret", func(c *Config) { c.ReferralSecret = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadReadsTokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("  42:from-file \n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}

	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_BOT_TOKEN_FILE", path)
	t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
	t.Setenv("REFERRAL_SECRET", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramBotToken != "42:from-file" {
		t.Fatalf("token=%q", cfg.TelegramBotToken)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Fatalf("default RATE_LIMIT_WINDOW=%v", cfg.RateLimitWindow)
	}
}

func TestLocationFallback(t *testing.T) {
	c := Config{AppTimezone: "Mars/Olympus"}
	_, offset := time.Now().In(c.Location()).Zone()
	if offset != 3*60*60 {
		t.Fatalf("fallback offset=%d, want UTC+3", offset)
	}
}
