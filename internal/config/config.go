// This file defines the configuration structure for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vrsandeep/readalong/internal/models"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int    `mapstructure:"port"`
	Timezone string `mapstructure:"timezone"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Pages struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"pages"`
	Jobs struct {
		ReminderInterval      int `mapstructure:"reminder_interval"`
		SessionReaperInterval int `mapstructure:"session_reaper_interval"`
		SessionIdleTimeout    int `mapstructure:"session_idle_timeout"`
		LoginPruneInterval    int `mapstructure:"login_prune_interval"`
	} `mapstructure:"jobs"`
	Groups struct {
		MaxMembers int `mapstructure:"max_members"`
	} `mapstructure:"groups"`
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (c *Config) Location() (*time.Location, error) {
	if c == nil || c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// MaxMembers is the per-group member cap.
func (c *Config) MaxMembers() int {
	if c == nil || c.Groups.MaxMembers <= 0 {
		return models.DefaultMaxMembers
	}
	return c.Groups.MaxMembers
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")
	v.AddConfigPath(".")

	// READALONG_DATABASE_PATH overrides `database.path`, and so on.
	v.SetEnvPrefix("READALONG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("database.path", "./readalong.db")
	v.SetDefault("pages.path", "")
	v.SetDefault("jobs.reminder_interval", 15)
	v.SetDefault("jobs.session_reaper_interval", 5)
	v.SetDefault("jobs.session_idle_timeout", 30)
	v.SetDefault("jobs.login_prune_interval", 60)
	v.SetDefault("groups.max_members", models.DefaultMaxMembers)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if _, err := config.Location(); err != nil {
		return nil, err
	}

	return &config, nil
}
