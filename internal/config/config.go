package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/deskctl/internal/ble"
	"github.com/chaz8081/deskctl/internal/desk/protocol"
)

// Config holds all application configuration.
type Config struct {
	Device    DeviceConfig       `yaml:"device"`
	Discovery DiscoveryConfig    `yaml:"discovery"`
	Move      MoveConfig         `yaml:"move"`
	Presets   map[string]float64 `yaml:"presets"` // name -> height in cm
	LogLevel  string             `yaml:"log_level"`
}

// DeviceConfig selects which desk to connect to. Address wins over Name.
type DeviceConfig struct {
	Name    string `yaml:"name"`    // advertised-name substring
	Address string `yaml:"address"` // MAC, or CoreBluetooth UUID on macOS
}

// DiscoveryConfig bounds the discovery poll.
type DiscoveryConfig struct {
	Attempts     int           `yaml:"attempts"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// MoveConfig holds move-to-height settings.
type MoveConfig struct {
	Timeout time.Duration `yaml:"timeout"` // 0 disables the limit
	Notify  bool          `yaml:"notify"`  // subscribe to position notifications
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "deskctl")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name: "Desk",
		},
		Discovery: DiscoveryConfig{
			Attempts:     240,
			PollInterval: 50 * time.Millisecond,
		},
		Move: MoveConfig{
			Timeout: 2 * time.Minute,
		},
		Presets: map[string]float64{
			"sit":   72.0,
			"stand": 110.0,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. A presets section replaces the default presets.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	var raw struct {
		Presets map[string]float64 `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if raw.Presets != nil {
		cfg.Presets = nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.Address != "" {
		if _, err := ble.ParseAddress(c.Device.Address); err != nil {
			return fmt.Errorf("device.address %q is not a MAC address or device UUID", c.Device.Address)
		}
	}

	if c.Discovery.Attempts <= 0 {
		return fmt.Errorf("discovery.attempts must be > 0")
	}

	if c.Discovery.PollInterval <= 0 {
		return fmt.Errorf("discovery.poll_interval must be > 0")
	}

	if c.Move.Timeout < 0 {
		return fmt.Errorf("move.timeout must be >= 0")
	}

	for _, name := range c.PresetNames() {
		h := protocol.FromCentimeters(c.Presets[name])
		if !h.InRange() {
			return fmt.Errorf("presets.%s = %.1f must be between %.1f and %.1f",
				name, c.Presets[name], protocol.MinHeight.Centimeters(), protocol.MaxHeight.Centimeters())
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// Preset returns the height stored under name.
func (c *Config) Preset(name string) (protocol.Height, bool) {
	cm, ok := c.Presets[name]
	if !ok {
		return 0, false
	}
	return protocol.FromCentimeters(cm), true
}

// PresetNames returns the preset names in sorted order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseLogLevel maps a log_level value to a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultHeader = `# deskctl configuration
#
# device.address takes precedence over device.name. On macOS the address is
# the CoreBluetooth device UUID shown by "deskctl scan".
# Preset heights are in centimetres (62.0 - 127.0).

`

// WriteDefault writes the default config to DefaultConfigPath. It returns
// the path written, or "" without error if a config file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}
