// cmd/main_test.go
package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/autoentry/internal/browser"
	"github.com/xkilldash9x/autoentry/internal/browser/htmlpage"
	"github.com/xkilldash9x/autoentry/internal/config"
	"github.com/xkilldash9x/autoentry/internal/observability"
)

// TestMain initializes the global logger once with a silent sink so the
// root pre-run never opens a log file in the package directory.
func TestMain(m *testing.M) {
	observability.Initialize(config.LoggerConfig{Level: "fatal", Format: "console"}, zapcore.AddSync(discard{}))
	os.Exit(m.Run())
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

const entryPage = `<!DOCTYPE html>
<html><body>
<form action="/enter" method="post">
  <label for="fullname">Your Name</label>
  <input type="text" id="fullname">
  <label for="mail">Email address</label>
  <input type="email" id="mail">
  <button>Enter Now</button>
</form>
</body></html>`

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// runFixture holds the files of a complete fill run served from static markup.
type runFixture struct {
	dir        string
	configPath string
	dataPath   string
	launcher   *htmlpage.Launcher
}

func newRunFixture(t *testing.T, url string) *runFixture {
	t.Helper()
	dir := t.TempDir()
	cfgJSON := `{"url": "` + url + `", "human_delay_seconds": [0, 0], "close_delay_seconds": 0, "screenshot_dir": "` + filepath.ToSlash(dir) + `"}`
	return &runFixture{
		dir:        dir,
		configPath: writeFile(t, dir, "config.json", cfgJSON),
		dataPath:   writeFile(t, dir, "data.json", `{"name": "Jane Doe", "email": "jane@example.test"}`),
		launcher:   htmlpage.NewLauncher(entryPage),
	}
}

func (f *runFixture) deps(input string, terminal bool) fillDeps {
	return fillDeps{
		in:         strings.NewReader(input),
		isTerminal: func() bool { return terminal },
		newLauncher: func(*zap.Logger, *config.Config) browser.Launcher {
			return f.launcher
		},
	}
}

func testAppConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Browser.SettleDelay = 0
	cfg.Runner.MinInterval = 0
	return cfg
}
