// internal/config/config.go
//
// This package handles configuration and the .qstorm directory structure.
// Every directory qstorm runs in gets a .qstorm/ folder holding the config,
// the saved session, the history database, logs and exports.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/qstorm/internal/paradox"
	"github.com/kingrea/qstorm/internal/store"
	"github.com/kingrea/qstorm/internal/timer"
)

const (
	// Dir is the name of the directory we create in the working directory
	Dir = ".qstorm"

	defaultDatabase    = "data/sessions.db"
	defaultExportDir   = "exports"
	defaultSaveTimeout = 10 * time.Second
)

const defaultProjectConfigYAML = `# qstorm configuration
version: 1

storming:
  # Storm length in seconds (10-3600). Can be changed per session at setup.
  default_duration: 730
  # The timer turns red when fewer seconds than this remain.
  urgency_threshold: 30

paradox:
  rotation_interval: 20s
  # Leave empty to use the built-in constraints.
  constraints: []

questions:
  # Entries that do not end with "?" must start with one of these.
  lead_words: [who, what, where, when, why, how]
  # Extra lead words accepted in paradox mode.
  paradox_lead_words: [if, could, would, should]

history:
  # Relative paths are resolved against .qstorm/
  database: data/sessions.db
  limit: 50
  save_timeout: 10s

exports:
  dir: exports
`

// StormingConfig controls the countdown.
type StormingConfig struct {
	DefaultDuration  int `yaml:"default_duration"`
	UrgencyThreshold int `yaml:"urgency_threshold"`
}

// ParadoxConfig controls the constraint rotation.
type ParadoxConfig struct {
	RotationInterval time.Duration `yaml:"rotation_interval"`
	Constraints      []string      `yaml:"constraints,omitempty"`
}

// QuestionsConfig controls the validator word lists.
type QuestionsConfig struct {
	LeadWords        []string `yaml:"lead_words,omitempty"`
	ParadoxLeadWords []string `yaml:"paradox_lead_words,omitempty"`
}

// HistoryConfig controls the session database.
type HistoryConfig struct {
	Database    string        `yaml:"database"`
	Limit       int           `yaml:"limit"`
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

// ExportsConfig controls where review exports land.
type ExportsConfig struct {
	Dir string `yaml:"dir"`
}

// ProjectConfig models .qstorm/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	Storming  StormingConfig  `yaml:"storming"`
	Paradox   ParadoxConfig   `yaml:"paradox"`
	Questions QuestionsConfig `yaml:"questions"`
	History   HistoryConfig   `yaml:"history"`
	Exports   ExportsConfig   `yaml:"exports"`
}

// Config holds the runtime configuration for qstorm.
type Config struct {
	// ProjectDir is the directory where the user ran `qstorm` from
	ProjectDir string

	// StormDir is ProjectDir/.qstorm
	StormDir string

	Project ProjectConfig
}

// envOverrides are applied on top of config.yaml. Zero values mean unset.
type envOverrides struct {
	Database         string        `env:"QSTORM_DATABASE"`
	DefaultDuration  int           `env:"QSTORM_DEFAULT_DURATION"`
	HistoryLimit     int           `env:"QSTORM_HISTORY_LIMIT"`
	ExportDir        string        `env:"QSTORM_EXPORT_DIR"`
	RotationInterval time.Duration `env:"QSTORM_ROTATION_INTERVAL"`
}

// InitDir creates the .qstorm directory structure in the given directory.
//
// Structure created:
// .qstorm/
// ├── config.yaml
// ├── state/      <- the saved session
// ├── logs/       <- journey.log
// ├── data/       <- sessions.db
// └── exports/    <- review exports
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	dirs := []string{
		filepath.Join(root, "state"),
		filepath.Join(root, "logs"),
		filepath.Join(root, "data"),
		filepath.Join(root, "exports"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig loads .qstorm/config.yaml (if any) and applies environment
// overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		StormDir:   filepath.Join(projectDir, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the on-disk location for the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StormDir, "config.yaml")
}

// StatePath returns the file that holds the saved session
func (c *Config) StatePath() string {
	return filepath.Join(c.StormDir, "state", "session.json")
}

// LogPath returns the journey log location
func (c *Config) LogPath() string {
	return filepath.Join(c.StormDir, "logs", "journey.log")
}

// DatabasePath returns the history database location
func (c *Config) DatabasePath() string {
	return c.resolve(c.Project.History.Database)
}

// ExportDir returns the directory exports are written to
func (c *Config) ExportDir() string {
	return c.resolve(c.Project.Exports.Dir)
}

// DefaultDuration returns the storm length a fresh session starts with.
func (c *Config) DefaultDuration() int {
	return c.Project.Storming.DefaultDuration
}

// UrgencyThreshold returns the seconds below which the timer is urgent.
func (c *Config) UrgencyThreshold() int {
	return c.Project.Storming.UrgencyThreshold
}

// RotationInterval returns how long each paradox constraint stays active.
func (c *Config) RotationInterval() time.Duration {
	return c.Project.Paradox.RotationInterval
}

// Constraints returns the paradox constraint cycle.
func (c *Config) Constraints() []string {
	if len(c.Project.Paradox.Constraints) == 0 {
		return paradox.DefaultConstraints
	}
	return c.Project.Paradox.Constraints
}

// HistoryLimit returns how many records the history view loads.
func (c *Config) HistoryLimit() int {
	return c.Project.History.Limit
}

// SaveTimeout bounds the post-storm insert.
func (c *Config) SaveTimeout() time.Duration {
	return c.Project.History.SaveTimeout
}

func (c *Config) resolve(path string) string {
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.StormDir, path)
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	if o.Database != "" {
		c.Project.History.Database = o.Database
	}
	if o.DefaultDuration != 0 {
		c.Project.Storming.DefaultDuration = o.DefaultDuration
	}
	if o.HistoryLimit != 0 {
		c.Project.History.Limit = o.HistoryLimit
	}
	if o.ExportDir != "" {
		c.Project.Exports.Dir = o.ExportDir
	}
	if o.RotationInterval != 0 {
		c.Project.Paradox.RotationInterval = o.RotationInterval
	}
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Storming: StormingConfig{
			DefaultDuration:  timer.DefaultDuration,
			UrgencyThreshold: timer.DefaultUrgencyThreshold,
		},
		Paradox: ParadoxConfig{
			RotationInterval: paradox.DefaultInterval,
		},
		History: HistoryConfig{
			Database:    defaultDatabase,
			Limit:       store.DefaultListLimit,
			SaveTimeout: defaultSaveTimeout,
		},
		Exports: ExportsConfig{
			Dir: defaultExportDir,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Storming.DefaultDuration == 0 {
		pc.Storming.DefaultDuration = timer.DefaultDuration
	}
	if pc.Storming.UrgencyThreshold == 0 {
		pc.Storming.UrgencyThreshold = timer.DefaultUrgencyThreshold
	}
	if pc.Paradox.RotationInterval == 0 {
		pc.Paradox.RotationInterval = paradox.DefaultInterval
	}
	if pc.History.Limit == 0 {
		pc.History.Limit = store.DefaultListLimit
	}
	if pc.History.SaveTimeout == 0 {
		pc.History.SaveTimeout = defaultSaveTimeout
	}
}

func (pc *ProjectConfig) normalize() {
	pc.History.Database = strings.TrimSpace(pc.History.Database)
	if pc.History.Database == "" {
		pc.History.Database = defaultDatabase
	}
	pc.Exports.Dir = strings.TrimSpace(pc.Exports.Dir)
	if pc.Exports.Dir == "" {
		pc.Exports.Dir = defaultExportDir
	}
	pc.Paradox.Constraints = trimAll(pc.Paradox.Constraints)
	pc.Questions.LeadWords = trimAll(pc.Questions.LeadWords)
	pc.Questions.ParadoxLeadWords = trimAll(pc.Questions.ParadoxLeadWords)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !timer.ValidDuration(pc.Storming.DefaultDuration) {
		return fmt.Errorf("storming.default_duration must be between %d and %d, got %d",
			timer.MinDuration, timer.MaxDuration, pc.Storming.DefaultDuration)
	}
	if pc.Storming.UrgencyThreshold < 0 {
		return fmt.Errorf("storming.urgency_threshold must not be negative")
	}
	if pc.Paradox.RotationInterval < time.Second {
		return fmt.Errorf("paradox.rotation_interval must be at least 1s, got %s", pc.Paradox.RotationInterval)
	}
	if pc.History.Limit < 1 {
		return fmt.Errorf("history.limit must be positive")
	}
	if pc.History.SaveTimeout < 0 {
		return fmt.Errorf("history.save_timeout must not be negative")
	}
	return nil
}

// trimAll drops blank entries. A nil result means "use the defaults".
func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
