// internal/runner/targets_test.go
package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const targetsYAML = `
defaults:
  config: configs/default.json
  data: data/me.json
  submit_selector: "button.enter"
targets:
  - match: prizes.example.test
  - match: win.example.test/draw
    config: configs/win.yaml
    screenshot_dir: ~/shots
    submit_selector: "#enter"
  - config: configs/orphan.json
  - match: "   "
`

func TestParseTargets(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	targets, err := ParseTargets([]byte(targetsYAML), zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, []Target{
		{
			Match:          "prizes.example.test",
			ConfigPath:     "configs/default.json",
			DataPath:       "data/me.json",
			SubmitSelector: "button.enter",
		},
		{
			Match:          "win.example.test/draw",
			ConfigPath:     "configs/win.yaml",
			DataPath:       "data/me.json",
			ScreenshotDir:  "~/shots",
			SubmitSelector: "#enter",
		},
	}, targets)
	assert.Equal(t, 2, logs.FilterMessage("Skipping malformed target entry.").Len())
}

func TestParseTargets_InvalidYAML(t *testing.T) {
	_, err := ParseTargets([]byte("targets: [unterminated"), zap.NewNop())
	assert.Error(t, err)
}

func TestLoadTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(targetsYAML), 0o600))

	targets, err := LoadTargets(path, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, targets, 2)

	_, err = LoadTargets(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFind(t *testing.T) {
	targets := []Target{
		{Match: "example.test/a"},
		{Match: "example.test"},
	}

	got, ok := Find(targets, "https://example.test/a/comp")
	require.True(t, ok)
	assert.Equal(t, "example.test/a", got.Match)

	got, ok = Find(targets, "https://example.test/b")
	require.True(t, ok)
	assert.Equal(t, "example.test", got.Match)

	_, ok = Find(targets, "https://other.test")
	assert.False(t, ok)

	assert.False(t, Target{}.Matches("anything"))
}
