// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application level configuration. Per-run autofill settings
// live in their own file (see AutofillConfig) because each competition target
// points at a different one.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Runner  RunnerConfig  `mapstructure:"runner" yaml:"runner"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings shared by every browser session the tool launches.
type BrowserConfig struct {
	// Args are extra Chrome flags, "--name=value" or "--name".
	Args []string `mapstructure:"args" yaml:"args"`
	// WindowRecoveryTimeout bounds how long the scanner hunts for a live window.
	WindowRecoveryTimeout time.Duration `mapstructure:"window_recovery_timeout" yaml:"window_recovery_timeout"`
	// SettleDelay is how long to wait after clicking submit before the second snapshot.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	// LaunchTimeout bounds browser start up and the about:blank liveness check.
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// RunnerConfig configures the pilot runner that walks discovered competition links.
type RunnerConfig struct {
	TargetsFile string `mapstructure:"targets_file" yaml:"targets_file"`
	StateFile   string `mapstructure:"state_file" yaml:"state_file"`
	// MinInterval is the minimum spacing between two consecutive entries.
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for the application configuration.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "autoentry")
	v.SetDefault("logger.log_file", "autoentry.log")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.window_recovery_timeout", "5s")
	v.SetDefault("browser.settle_delay", "3s")
	v.SetDefault("browser.launch_timeout", "30s")

	// -- Runner --
	v.SetDefault("runner.targets_file", "automation_targets.yaml")
	v.SetDefault("runner.state_file", "competition_state.json")
	v.SetDefault("runner.min_interval", "5s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Browser.WindowRecoveryTimeout < 0 {
		return fmt.Errorf("browser.window_recovery_timeout must not be negative")
	}
	if c.Browser.SettleDelay < 0 {
		return fmt.Errorf("browser.settle_delay must not be negative")
	}
	if c.Browser.LaunchTimeout < 0 {
		return fmt.Errorf("browser.launch_timeout must not be negative")
	}
	if c.Runner.MinInterval < 0 {
		return fmt.Errorf("runner.min_interval must not be negative")
	}
	return nil
}
