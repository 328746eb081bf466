// cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := executeRoot(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestVersionCmd(t *testing.T) {
	out, err := executeRoot(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "autoentry "+Version+"\n", out)
}

func TestRootCmd_NoArgsPrintsHelp(t *testing.T) {
	out, err := executeRoot(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Autoentry fills competition entry forms")
	for _, sub := range []string{"fill", "preview", "run", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_ArgumentValidation(t *testing.T) {
	_, err := executeRoot(t, "fill", "only-one.json")
	assert.ErrorContains(t, err, "accepts 2 arg(s)")

	_, err = executeRoot(t, "run")
	assert.ErrorContains(t, err, "accepts 1 arg(s)")
}

func TestRootCmd_BadConfigFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "runner: [not, a, map")
	_, err := executeRoot(t, "--config", path, "version")
	assert.ErrorContains(t, err, "failed to initialize configuration")
}

func TestRootCmd_InvalidConfigValues(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "runner:\n  min_interval: -5s\n")
	_, err := executeRoot(t, "--config", path, "version")
	assert.ErrorContains(t, err, "runner.min_interval must not be negative")
}

func TestInitializeConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "runner:\n  min_interval: 1m\nbrowser:\n  settle_delay: 1s\n")
	t.Setenv("AUTOENTRY_BROWSER_SETTLE_DELAY", "2s")

	v := viper.New()
	require.NoError(t, initializeConfig(v, path))
	assert.Equal(t, time.Minute, v.GetDuration("runner.min_interval"))
	assert.Equal(t, 2*time.Second, v.GetDuration("browser.settle_delay"))
}

func TestGetConfigFromContext(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.Error(t, err)

	cfg := testAppConfig()
	got, err := getConfigFromContext(context.WithValue(context.Background(), configKey, cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
