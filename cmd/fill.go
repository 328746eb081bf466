// cmd/fill.go
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/xkilldash9x/autoentry/internal/autofill"
	"github.com/xkilldash9x/autoentry/internal/browser"
	"github.com/xkilldash9x/autoentry/internal/config"
	"github.com/xkilldash9x/autoentry/internal/observability"
)

// fillDeps are the process-level collaborators of the fill and run commands.
type fillDeps struct {
	in          io.Reader
	isTerminal  func() bool
	newLauncher func(logger *zap.Logger, cfg *config.Config) browser.Launcher
}

func defaultFillDeps() fillDeps {
	return fillDeps{
		in:         os.Stdin,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		newLauncher: func(logger *zap.Logger, cfg *config.Config) browser.Launcher {
			return browser.NewChromeLauncher(logger, cfg.Browser, browser.NewExecResolver())
		},
	}
}

type fillOptions struct {
	configPath string
	dataPath   string
	url        string
	autoYes    bool
	jsonOut    bool
}

func newFillCmd(deps fillDeps) *cobra.Command {
	var opts fillOptions

	cmd := &cobra.Command{
		Use:   "fill <config> <data.json>",
		Short: "Fill one entry form, show a preview and submit after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			opts.configPath, opts.dataPath = args[0], args[1]
			logger := observability.GetLogger()
			return runFill(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger, cfg, opts, deps)
		},
	}

	cmd.Flags().BoolVarP(&opts.autoYes, "yes", "y", false, "Submit without asking for confirmation.")
	cmd.Flags().StringVar(&opts.url, "url", "", "Override the URL from the config file.")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the run outcome as JSON.")
	return cmd
}

// runFill performs one run and prints its summary. A run that ends in error is
// returned as an error so the process exits non-zero. With --json, prompts go
// to errOut so that out carries only the outcome document.
func runFill(ctx context.Context, out, errOut io.Writer, logger *zap.Logger, appCfg *config.Config, opts fillOptions, deps fillDeps) error {
	runCfg, err := config.LoadAutofillConfig(opts.configPath)
	if err != nil {
		return err
	}
	data, err := config.LoadRecord(opts.dataPath)
	if err != nil {
		return err
	}

	in := bufio.NewReader(deps.in)
	interactive := deps.isTerminal()
	promptOut := out
	if opts.jsonOut {
		promptOut = errOut
	}

	if u := strings.TrimSpace(opts.url); u != "" {
		runCfg.URL = u
	}
	if runCfg.URL == "" && interactive {
		fmt.Fprint(promptOut, "Enter URL to open: ")
		line, err := readURL(ctx, in)
		if err != nil {
			return err
		}
		runCfg.URL = line
	}

	orchestrator := autofill.New(runCfg, deps.newLauncher(logger, appCfg), logger,
		orchestratorOptions(promptOut, in, appCfg, opts.autoYes, interactive)...)
	outcome := orchestrator.Run(ctx, autofill.Record(data))

	if opts.jsonOut {
		if err := printOutcomeJSON(out, outcome); err != nil {
			return err
		}
	} else {
		printSummary(out, outcome)
	}
	return outcomeError(outcome)
}

// readURL reads one line from in, giving up when ctx ends.
func readURL(ctx context.Context, in *bufio.Reader) (string, error) {
	lines := make(chan string, 1)
	go func() {
		line, _ := in.ReadString('\n')
		lines <- strings.TrimSpace(line)
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line := <-lines:
		return line, nil
	}
}

// outcomeError converts a failed outcome into an error; nil otherwise.
func outcomeError(o *autofill.Outcome) error {
	if !o.Failed() {
		return nil
	}
	if o.Cause != nil {
		return fmt.Errorf("autofill run failed: %w", o.Cause)
	}
	return errors.New("autofill run failed: " + o.Error)
}

// orchestratorOptions wires the interactive collaborators. Without a terminal
// and without --yes the prompt gate still runs, and closed input declines.
func orchestratorOptions(out io.Writer, in *bufio.Reader, appCfg *config.Config, autoYes, interactive bool) []autofill.Option {
	opts := []autofill.Option{
		autofill.WithSettleDelay(appCfg.Browser.SettleDelay),
		autofill.WithWindowWait(appCfg.Browser.WindowRecoveryTimeout),
	}
	if autoYes {
		printer := observability.NewFuncReporter(func(msg string) { fmt.Fprintln(out, msg) }, observability.GetLogger())
		opts = append(opts, autofill.WithGate(autofill.AlwaysConfirm{Reporter: printer}))
	} else {
		opts = append(opts, autofill.WithGate(autofill.NewPromptGate(in, out)))
	}
	if interactive {
		opts = append(opts, autofill.WithManualCompletion(autofill.NewPromptManualCompletion(in, out)))
	}
	return opts
}

// printSummary prints the outcome of a run that did not fail; failures are
// reported by Execute.
func printSummary(out io.Writer, o *autofill.Outcome) {
	if o.Failed() {
		return
	}
	fmt.Fprintln(out, "\n=== Run summary ===")
	fmt.Fprintf(out, "Submitted: %t\n", o.Submitted)
	if o.ScreenshotPath != "" {
		fmt.Fprintf(out, "Preview screenshot: %s\n", o.ScreenshotPath)
	}
	if o.PostSubmitScreenshotPath != "" {
		fmt.Fprintf(out, "Post-submit screenshot: %s\n", o.PostSubmitScreenshotPath)
	}
	if o.AbortedReason != "" {
		fmt.Fprintf(out, "Aborted reason: %s\n", o.AbortedReason)
	}
}

func printOutcomeJSON(out io.Writer, o *autofill.Outcome) error {
	encoded, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}
