package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults when no config file", func(t *testing.T) {
		// Ensure no config file exists for this test
		os.Remove("config.yml")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}

		if cfg.Port != 8080 {
			t.Errorf("Expected default port 8080, got %d", cfg.Port)
		}
		if cfg.Database.Path != "./readalong.db" {
			t.Errorf("Expected default db path './readalong.db', got '%s'", cfg.Database.Path)
		}
		if cfg.Jobs.ReminderInterval != 15 {
			t.Errorf("Expected default reminder interval 15, got %d", cfg.Jobs.ReminderInterval)
		}
		if cfg.MaxMembers() != 10 {
			t.Errorf("Expected default member cap 10, got %d", cfg.MaxMembers())
		}
	})

	t.Run("Loads from config file", func(t *testing.T) {
		configContent := `
port: 9999
timezone: "Asia/Tokyo"
database:
  path: "/tmp/test.db"
pages:
  path: "/tmp/pages"
groups:
  max_members: 4
unknown_setting: "should be ignored"
`
		// Viper looks in the CWD, so t.TempDir() is not used here.
		configPath := "config.yml"
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write test config file: %v", err)
		}
		defer os.Remove(configPath)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}

		if cfg.Port != 9999 {
			t.Errorf("Expected port 9999, got %d", cfg.Port)
		}
		if cfg.Database.Path != "/tmp/test.db" {
			t.Errorf("Expected db path '/tmp/test.db', got '%s'", cfg.Database.Path)
		}
		if cfg.Pages.Path != "/tmp/pages" {
			t.Errorf("Expected pages path '/tmp/pages', got '%s'", cfg.Pages.Path)
		}
		if cfg.MaxMembers() != 4 {
			t.Errorf("Expected member cap 4, got %d", cfg.MaxMembers())
		}
		if cfg.Jobs.SessionIdleTimeout != 30 {
			t.Errorf("Expected default idle timeout of 30, got %d", cfg.Jobs.SessionIdleTimeout)
		}
		loc, err := cfg.Location()
		if err != nil {
			t.Fatalf("Location() returned an error: %v", err)
		}
		if loc.String() != "Asia/Tokyo" {
			t.Errorf("Expected location Asia/Tokyo, got %s", loc)
		}
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		t.Setenv("READALONG_PORT", "7070")
		t.Setenv("READALONG_JOBS_REMINDER_INTERVAL", "3")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}
		if cfg.Port != 7070 {
			t.Errorf("Expected port 7070 from env, got %d", cfg.Port)
		}
		if cfg.Jobs.ReminderInterval != 3 {
			t.Errorf("Expected reminder interval 3 from env, got %d", cfg.Jobs.ReminderInterval)
		}
	})

	t.Run("Rejects an unknown timezone", func(t *testing.T) {
		t.Setenv("READALONG_TIMEZONE", "Mars/Olympus")
		if _, err := Load(); err == nil {
			t.Error("Expected an error for an unknown timezone")
		}
	})
}

func TestLocationDefaultsToUTC(t *testing.T) {
	var cfg *Config
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Expected UTC for an unset config, got %v (%v)", loc, err)
	}
}
