// cmd/preview.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoentry/internal/autofill"
	"github.com/xkilldash9x/autoentry/internal/browser/htmlpage"
	"github.com/xkilldash9x/autoentry/internal/config"
	"github.com/xkilldash9x/autoentry/internal/observability"
)

func newPreviewCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "preview <page.html> <data.json>",
		Short: "Show how a saved page would be filled, without a browser",
		Long: `Preview parses a saved copy of an entry page and prints the fill actions the
engine would take for the given data record. Nothing is submitted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), cmd.OutOrStdout(), observability.GetLogger(), args[0], args[1], jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the fill actions as JSON.")
	return cmd
}

func runPreview(ctx context.Context, out io.Writer, logger *zap.Logger, pagePath, dataPath string, jsonOut bool) error {
	launcher, err := htmlpage.LoadLauncher(pagePath)
	if err != nil {
		return err
	}
	data, err := config.LoadRecord(dataPath)
	if err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "autoentry-preview-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	file := config.DefaultAutofillFile()
	abs, err := filepath.Abs(pagePath)
	if err != nil {
		abs = pagePath
	}
	file.URL = "file://" + filepath.ToSlash(abs)
	file.HumanDelaySeconds = []float64{0, 0}
	file.CloseDelaySeconds = 0
	file.ScreenshotDir = scratch
	runCfg, err := config.NewAutofillConfig(file)
	if err != nil {
		return err
	}

	var actions []autofill.FillAction
	decline := autofill.GateFunc(func(_ context.Context, a []autofill.FillAction, _ string) (bool, error) {
		actions = append([]autofill.FillAction(nil), a...)
		return false, nil
	})
	outcome := autofill.New(runCfg, launcher, logger,
		autofill.WithGate(decline),
		autofill.WithReporter(observability.NewLogReporter(logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))),
	).Run(ctx, autofill.Record(data))
	if err := outcomeError(outcome); err != nil {
		return err
	}
	if actions == nil {
		actions = outcome.FillActions
	}

	if jsonOut {
		encoded, err := json.MarshalIndent(actions, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode fill actions: %w", err)
		}
		_, err = fmt.Fprintln(out, string(encoded))
		return err
	}

	fmt.Fprintln(out, "=== Autofill preview ===")
	fmt.Fprint(out, autofill.FormatPreview(actions))
	fmt.Fprintf(out, "\n%d of %d fields would be filled.\n", outcome.FilledCount(), len(actions))
	return nil
}
