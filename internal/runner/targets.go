// internal/runner/targets.go
package runner

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Target is an opt-in automation rule: links containing Match are entered
// using the given autofill config and data record.
type Target struct {
	Match          string
	ConfigPath     string
	DataPath       string
	ScreenshotDir  string
	SubmitSelector string
}

// Matches reports whether link belongs to this target.
func (t Target) Matches(link string) bool {
	return t.Match != "" && strings.Contains(link, t.Match)
}

// targetEntry is the on-disk shape of a target or of the defaults block.
type targetEntry struct {
	Match          string `yaml:"match"`
	Config         string `yaml:"config"`
	Data           string `yaml:"data"`
	ScreenshotDir  string `yaml:"screenshot_dir"`
	SubmitSelector string `yaml:"submit_selector"`
}

type targetsFile struct {
	Defaults targetEntry   `yaml:"defaults"`
	Targets  []targetEntry `yaml:"targets"`
}

// LoadTargets reads a targets file. A missing file is an error; malformed
// entries are skipped with a warning.
func LoadTargets(path string, logger *zap.Logger) ([]Target, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve targets path '%s': %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("automation target file not found: %w", err)
	}
	return ParseTargets(data, logger)
}

// ParseTargets decodes targets YAML. Each entry inherits config, data,
// screenshot_dir and submit_selector from the defaults block when it does not
// set them itself.
func ParseTargets(data []byte, logger *zap.Logger) ([]Target, error) {
	var file targetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse targets YAML: %w", err)
	}

	targets := make([]Target, 0, len(file.Targets))
	for i, entry := range file.Targets {
		t := Target{
			Match:          strings.TrimSpace(entry.Match),
			ConfigPath:     firstNonEmpty(entry.Config, file.Defaults.Config),
			DataPath:       firstNonEmpty(entry.Data, file.Defaults.Data),
			ScreenshotDir:  firstNonEmpty(entry.ScreenshotDir, file.Defaults.ScreenshotDir),
			SubmitSelector: firstNonEmpty(entry.SubmitSelector, file.Defaults.SubmitSelector),
		}
		if t.Match == "" || t.ConfigPath == "" || t.DataPath == "" {
			logger.Warn("Skipping malformed target entry.",
				zap.Int("index", i),
				zap.String("match", t.Match),
				zap.String("config", t.ConfigPath),
				zap.String("data", t.DataPath))
			continue
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Find returns the first target matching link.
func Find(targets []Target, link string) (Target, bool) {
	for _, t := range targets {
		if t.Matches(link) {
			return t, true
		}
	}
	return Target{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
