// File: internal/config/autofill.go
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// DefaultSubmitSelector matches the usual submit controls, falling back to any button.
const DefaultSubmitSelector = "button[type='submit'], input[type='submit'], button"

// ErrInvalidAutofillConfig is returned for values that cannot be normalized.
var ErrInvalidAutofillConfig = errors.New("invalid autofill configuration")

// AutofillFile mirrors the on-disk (JSON or YAML) shape of a per-run configuration.
// Durations are expressed in seconds to stay compatible with existing config files.
type AutofillFile struct {
	URL               string    `mapstructure:"url" json:"url" yaml:"url"`
	Headless          bool      `mapstructure:"headless" json:"headless" yaml:"headless"`
	WaitTimeout       float64   `mapstructure:"wait_timeout" json:"wait_timeout" yaml:"wait_timeout"`
	SubmitSelector    string    `mapstructure:"submit_selector" json:"submit_selector" yaml:"submit_selector"`
	HumanDelaySeconds []float64 `mapstructure:"human_delay_seconds" json:"human_delay_seconds" yaml:"human_delay_seconds"`
	ScreenshotDir     string    `mapstructure:"screenshot_dir" json:"screenshot_dir" yaml:"screenshot_dir"`
	WebdriverPath     string    `mapstructure:"webdriver_path" json:"webdriver_path" yaml:"webdriver_path"`
	PauseOnCaptcha    bool      `mapstructure:"pause_on_captcha" json:"pause_on_captcha" yaml:"pause_on_captcha"`
	CloseDelaySeconds float64   `mapstructure:"close_delay_seconds" json:"close_delay_seconds" yaml:"close_delay_seconds"`
}

// DelayRange is a closed [Min, Max] interval for human-like pauses.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// Normalized returns the range with its bounds in ascending order.
func (d DelayRange) Normalized() DelayRange {
	if d.Min > d.Max {
		return DelayRange{Min: d.Max, Max: d.Min}
	}
	return d
}

// AutofillConfig is the validated, read-only input of a single autofill run.
type AutofillConfig struct {
	URL            string
	Headless       bool
	// WaitTimeout bounds the wait for the page body; zero checks once.
	WaitTimeout    time.Duration
	SubmitSelector string
	HumanDelay     DelayRange
	ScreenshotDir  string
	WebdriverPath  string
	PauseOnCaptcha bool
	CloseDelay     time.Duration
}

// DefaultAutofillFile returns the values used when a key is absent from the file.
func DefaultAutofillFile() AutofillFile {
	return AutofillFile{
		WaitTimeout:       10,
		SubmitSelector:    DefaultSubmitSelector,
		HumanDelaySeconds: []float64{0.4, 1.0},
		ScreenshotDir:     ".",
		CloseDelaySeconds: 10,
	}
}

func setAutofillDefaults(v *viper.Viper) {
	d := DefaultAutofillFile()
	v.SetDefault("url", "")
	v.SetDefault("headless", false)
	v.SetDefault("wait_timeout", d.WaitTimeout)
	v.SetDefault("submit_selector", d.SubmitSelector)
	v.SetDefault("human_delay_seconds", d.HumanDelaySeconds)
	v.SetDefault("screenshot_dir", d.ScreenshotDir)
	v.SetDefault("webdriver_path", "")
	v.SetDefault("pause_on_captcha", false)
	v.SetDefault("close_delay_seconds", d.CloseDelaySeconds)
}

// LoadAutofillConfig reads a per-run configuration file. The format is taken from
// the file extension (json, yaml, yml, toml).
func LoadAutofillConfig(path string) (*AutofillConfig, error) {
	v := viper.New()
	setAutofillDefaults(v)

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve config path '%s': %w", path, err)
	}
	v.SetConfigFile(expanded)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading autofill config '%s': %w", expanded, err)
	}

	var file AutofillFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("error unmarshaling autofill config '%s': %w", expanded, err)
	}
	return NewAutofillConfig(file)
}

// NewAutofillConfig validates and normalizes a raw configuration. Inverted delay
// bounds are swapped and a malformed delay pair falls back to the default pair.
// An empty URL is accepted here; front-ends may prompt for it and the orchestrator
// refuses to run without one.
func NewAutofillConfig(file AutofillFile) (*AutofillConfig, error) {
	if file.WaitTimeout < 0 {
		return nil, fmt.Errorf("%w: wait_timeout must not be negative", ErrInvalidAutofillConfig)
	}
	if file.CloseDelaySeconds < 0 {
		return nil, fmt.Errorf("%w: close_delay_seconds must not be negative", ErrInvalidAutofillConfig)
	}

	bounds := file.HumanDelaySeconds
	if len(bounds) != 2 {
		bounds = DefaultAutofillFile().HumanDelaySeconds
	}
	if bounds[0] < 0 || bounds[1] < 0 {
		return nil, fmt.Errorf("%w: human_delay_seconds must not contain negative values", ErrInvalidAutofillConfig)
	}

	selector := strings.TrimSpace(file.SubmitSelector)
	if selector == "" {
		selector = DefaultSubmitSelector
	}

	screenshotDir := strings.TrimSpace(file.ScreenshotDir)
	if screenshotDir == "" {
		screenshotDir = "."
	}
	screenshotDir, err := homedir.Expand(screenshotDir)
	if err != nil {
		return nil, fmt.Errorf("%w: screenshot_dir: %v", ErrInvalidAutofillConfig, err)
	}

	webdriverPath := strings.TrimSpace(file.WebdriverPath)
	if webdriverPath != "" {
		if webdriverPath, err = homedir.Expand(webdriverPath); err != nil {
			return nil, fmt.Errorf("%w: webdriver_path: %v", ErrInvalidAutofillConfig, err)
		}
	}

	return &AutofillConfig{
		URL:            strings.TrimSpace(file.URL),
		Headless:       file.Headless,
		WaitTimeout:    seconds(file.WaitTimeout),
		SubmitSelector: selector,
		HumanDelay: DelayRange{
			Min: seconds(bounds[0]),
			Max: seconds(bounds[1]),
		}.Normalized(),
		ScreenshotDir:  filepath.Clean(screenshotDir),
		WebdriverPath:  webdriverPath,
		PauseOnCaptcha: file.PauseOnCaptcha,
		CloseDelay:     seconds(file.CloseDelaySeconds),
	}, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
