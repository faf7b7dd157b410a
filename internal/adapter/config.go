package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Timeline TimelineConfig `mapstructure:"timeline"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Project  ProjectConfig  `mapstructure:"project"`
	UI       UIConfig       `mapstructure:"ui"`
	Preview  PreviewConfig  `mapstructure:"preview"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TimelineConfig holds trim and asset policy
type TimelineConfig struct {
	ToleranceMs     int64 `mapstructure:"tolerance_ms"`      // Smallest duration change treated as an edit
	MinClipMs       int64 `mapstructure:"min_clip_ms"`       // Minimum clip duration
	MaxStillMs      int64 `mapstructure:"max_still_ms"`      // Maximum still image duration
	DefaultStillMs  int64 `mapstructure:"default_still_ms"`  // Duration of a newly imported still
	ThumbnailSlotMs int64 `mapstructure:"thumbnail_slot_ms"` // Source time per thumbnail slot
	WaveformBlockMs int64 `mapstructure:"waveform_block_ms"` // Source time per waveform block
}

// CacheConfig holds media cache configuration
type CacheConfig struct {
	CapacityBytes int64 `mapstructure:"capacity_bytes"`
}

// ProjectConfig holds project storage configuration
type ProjectConfig struct {
	Dir       string `mapstructure:"dir"`        // Base directory for project databases, empty = memory only
	QueueSize int    `mapstructure:"queue_size"` // Pending edit commands before new ones are dropped
}

// UIConfig holds UI configuration
type UIConfig struct {
	Zoom        int  `mapstructure:"zoom"`         // Initial zoom level (1 = whole timeline fits)
	ShowOverlay bool `mapstructure:"show_overlay"` // Show the overlay row
}

// PreviewConfig holds external player configuration
type PreviewConfig struct {
	Command   string   `mapstructure:"command"`    // Player command, empty = auto-detect
	Args      []string `mapstructure:"args"`       // Extra player arguments
	StartFlag string   `mapstructure:"start_flag"` // Offset flag for unknown players, e.g. "--seek="
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File   string `mapstructure:"file"`   // Log path, {project} is replaced by the project name
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Timeline: TimelineConfig{
			ToleranceMs:     30,
			MinClipMs:       1000,
			MaxStillMs:      60000,
			DefaultStillMs:  5000,
			ThumbnailSlotMs: 1000,
			WaveformBlockMs: 1000,
		},
		Cache: CacheConfig{
			CapacityBytes: 3 << 20,
		},
		Project: ProjectConfig{
			Dir:       defaultDataPath(),
			QueueSize: 64,
		},
		UI: UIConfig{
			Zoom:        1,
			ShowOverlay: true,
		},
		Preview: PreviewConfig{
			Args: []string{},
		},
		Logging: LoggingConfig{
			File:   filepath.Join(defaultDataPath(), "logs", projectToken+".log"),
			Level:  "INFO",
			Format: "json",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "splice")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "splice")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "splice")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "splice")
	}
}

// LoadConfig loads configuration from .env, the config file and environment
func LoadConfig() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}
	return loadConfig(viper.New(), defaultConfigPath(), ".")
}

func loadConfig(v *viper.Viper, paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variable overrides, e.g. SPLICE_CACHE_CAPACITY_BYTES
	v.SetEnvPrefix("SPLICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, cfg.Validate()
}

// bindDefaults registers every key so AutomaticEnv overrides reach Unmarshal
func bindDefaults(v *viper.Viper, cfg *Config) {
	for key, val := range settings(cfg) {
		v.SetDefault(key, val)
	}
}

func settings(cfg *Config) map[string]any {
	return map[string]any{
		"timeline.tolerance_ms":      cfg.Timeline.ToleranceMs,
		"timeline.min_clip_ms":       cfg.Timeline.MinClipMs,
		"timeline.max_still_ms":      cfg.Timeline.MaxStillMs,
		"timeline.default_still_ms":  cfg.Timeline.DefaultStillMs,
		"timeline.thumbnail_slot_ms": cfg.Timeline.ThumbnailSlotMs,
		"timeline.waveform_block_ms": cfg.Timeline.WaveformBlockMs,
		"cache.capacity_bytes":       cfg.Cache.CapacityBytes,
		"project.dir":                cfg.Project.Dir,
		"project.queue_size":         cfg.Project.QueueSize,
		"ui.zoom":                    cfg.UI.Zoom,
		"ui.show_overlay":            cfg.UI.ShowOverlay,
		"preview.command":            cfg.Preview.Command,
		"preview.args":               cfg.Preview.Args,
		"preview.start_flag":         cfg.Preview.StartFlag,
		"logging.file":               cfg.Logging.File,
		"logging.level":              cfg.Logging.Level,
		"logging.format":             cfg.Logging.Format,
	}
}

// Validate rejects settings the timeline cannot work with
func (c *Config) Validate() error {
	switch {
	case c.Timeline.ToleranceMs < 0:
		return fmt.Errorf("timeline.tolerance_ms must not be negative")
	case c.Timeline.MinClipMs <= 0:
		return fmt.Errorf("timeline.min_clip_ms must be positive")
	case c.Timeline.MaxStillMs < c.Timeline.MinClipMs:
		return fmt.Errorf("timeline.max_still_ms must be at least timeline.min_clip_ms")
	case c.Cache.CapacityBytes <= 0:
		return fmt.Errorf("cache.capacity_bytes must be positive")
	case c.Logging.Format != "" && !strings.EqualFold(c.Logging.Format, "json") && !strings.EqualFold(c.Logging.Format, "text"):
		return fmt.Errorf("logging.format must be json or text")
	}
	return nil
}

// SaveConfig saves the configuration to the default config file
func SaveConfig(cfg *Config) error {
	return saveConfig(cfg, defaultConfigPath())
}

func saveConfig(cfg *Config, configPath string) error {
	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v := viper.New()
	for key, val := range settings(cfg) {
		v.Set(key, val)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
