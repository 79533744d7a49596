package blok

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sozlukcu/eksiblok/blok/internal/notify"
	"github.com/sozlukcu/eksiblok/blok/internal/runner"
	"github.com/sozlukcu/eksiblok/blok/internal/site"
)

// Action is the relation applied to each user. Re-exported from internal.
type Action = site.Action

// Relation actions.
const (
	Mute  = site.Mute
	Block = site.Block
)

// SiteConfig configures the Ekşi Sözlük client.
type SiteConfig = site.Config

// RunnerConfig tunes the batch loop delays and budgets.
type RunnerConfig = runner.Config

// Notification is a progress/status message. Re-exported from internal.
type Notification = notify.Notification

// Notifier receives notifications.
type Notifier = notify.Notifier

// Config is the top-level service configuration.
type Config struct {
	// DBPath is the SQLite file holding operation state and the event log.
	// Default: eksiblok.db.
	DBPath string `yaml:"db_path"`
	// Listen is the control API address. Default: 127.0.0.1:8417.
	Listen string `yaml:"listen"`
	// EventRetentionDays bounds the job event log. 0 keeps everything.
	EventRetentionDays int `yaml:"event_retention_days"`

	Site   SiteConfig   `yaml:"site"`
	Runner RunnerConfig `yaml:"runner"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "eksiblok.db"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8417"
	}
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blok: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("blok: parse config: %w", err)
	}
	cfg.defaults()
	return &cfg, nil
}
