// cmd/fill_test.go
package cmd

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/autoentry/internal/autofill"
)

func fillWith(t *testing.T, f *runFixture, opts fillOptions, input string, terminal bool) (string, string, error) {
	t.Helper()
	opts.configPath, opts.dataPath = f.configPath, f.dataPath
	var out, errOut bytes.Buffer
	err := runFill(context.Background(), &out, &errOut, zaptest.NewLogger(t), testAppConfig(), opts, f.deps(input, terminal))
	return out.String(), errOut.String(), err
}

func TestRunFill_AutoConfirm(t *testing.T) {
	f := newRunFixture(t, "https://example.test/enter")

	out, _, err := fillWith(t, f, fillOptions{autoYes: true}, "", false)
	require.NoError(t, err)

	assert.Contains(t, out, "01. label='your name  fullname'")
	assert.Contains(t, out, "value_preview=jane@example.test")
	assert.Contains(t, out, "Auto-confirming submission")
	assert.Contains(t, out, "=== Run summary ===\nSubmitted: true\n")
	assert.Contains(t, out, "Post-submit screenshot: "+f.dir)

	page := f.launcher.LastPage()
	require.NotNil(t, page)
	assert.Equal(t, "https://example.test/enter", page.URL())
	assert.Equal(t, "Jane Doe", page.Value("#fullname"))
	assert.Equal(t, []string{"button Enter Now"}, page.Clicks())
	assert.True(t, page.Closed())
}

func TestRunFill_PromptDeclines(t *testing.T) {
	f := newRunFixture(t, "https://example.test/enter")

	out, _, err := fillWith(t, f, fillOptions{}, "no\n", false)
	require.NoError(t, err)
	assert.Contains(t, out, "Type YES to submit automatically")
	assert.Contains(t, out, "Submitted: false\n")
	assert.Contains(t, out, "Aborted reason: "+autofill.ReasonCancelledByUser)
	assert.Empty(t, f.launcher.LastPage().Clicks())
}

func TestRunFill_PromptAccepts(t *testing.T) {
	f := newRunFixture(t, "https://example.test/enter")

	out, _, err := fillWith(t, f, fillOptions{}, "yes\n", false)
	require.NoError(t, err)
	assert.Contains(t, out, "Submitted: true\n")
}

func TestRunFill_PromptsForMissingURL(t *testing.T) {
	f := newRunFixture(t, "")

	out, _, err := fillWith(t, f, fillOptions{autoYes: true}, "https://example.test/typed\n", true)
	require.NoError(t, err)
	assert.Contains(t, out, "Enter URL to open: ")
	assert.Equal(t, "https://example.test/typed", f.launcher.LastPage().URL())
}

func TestRunFill_URLFlagWins(t *testing.T) {
	f := newRunFixture(t, "https://example.test/from-config")

	_, _, err := fillWith(t, f, fillOptions{autoYes: true, url: " https://example.test/flag "}, "", false)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/flag", f.launcher.LastPage().URL())
}

func TestRunFill_MissingURLWithoutTerminalFails(t *testing.T) {
	f := newRunFixture(t, "")

	_, _, err := fillWith(t, f, fillOptions{autoYes: true}, "", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, autofill.ErrConfiguration)
	assert.Nil(t, f.launcher.LastPage(), "no browser is launched without a URL")
}

func TestRunFill_JSONOutput(t *testing.T) {
	f := newRunFixture(t, "https://example.test/enter")

	out, errOut, err := fillWith(t, f, fillOptions{jsonOut: true}, "yes\n", false)
	require.NoError(t, err)
	assert.Contains(t, errOut, "=== Autofill preview ===")

	var decoded struct {
		URL         string `json:"url"`
		Submitted   bool   `json:"submitted"`
		FinalState  string `json:"final_state"`
		FillActions []struct {
			MappedKey string `json:"mapped_key"`
			Filled    bool   `json:"filled"`
		} `json:"fill_actions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "https://example.test/enter", decoded.URL)
	assert.True(t, decoded.Submitted)
	assert.Equal(t, "done", decoded.FinalState)
	require.Len(t, decoded.FillActions, 2)
	assert.Equal(t, "name", decoded.FillActions[0].MappedKey)
	assert.Equal(t, "email", decoded.FillActions[1].MappedKey)
}

func TestRunFill_BadInputFiles(t *testing.T) {
	f := newRunFixture(t, "https://example.test/enter")

	var out, errOut bytes.Buffer
	err := runFill(context.Background(), &out, &errOut, zaptest.NewLogger(t), testAppConfig(),
		fillOptions{configPath: filepath.Join(f.dir, "missing.json"), dataPath: f.dataPath}, f.deps("", false))
	assert.Error(t, err)

	broken := filepath.Join(f.dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o600))
	err = runFill(context.Background(), &out, &errOut, zaptest.NewLogger(t), testAppConfig(),
		fillOptions{configPath: f.configPath, dataPath: broken}, f.deps("", false))
	assert.Error(t, err)
}

func TestOutcomeError(t *testing.T) {
	assert.NoError(t, outcomeError(&autofill.Outcome{Submitted: true}))
	assert.EqualError(t, outcomeError(&autofill.Outcome{Error: "boom"}), "autofill run failed: boom")
}

func TestReadURL_GivesUpWhenCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := readURL(ctx, bufio.NewReader(pr))
	assert.ErrorIs(t, err, context.Canceled)

	got, err := readURL(context.Background(), bufio.NewReader(strings.NewReader("  https://example.test/x \n")))
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/x", got)
}
