// cmd/run.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoentry/internal/autofill"
	"github.com/xkilldash9x/autoentry/internal/config"
	"github.com/xkilldash9x/autoentry/internal/observability"
	"github.com/xkilldash9x/autoentry/internal/runner"
)

type runOptions struct {
	linksPath   string
	targetsPath string
	statePath   string
	dryRun      bool
	autoYes     bool
	limit       int
}

func newRunCmd(deps fillDeps) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <links-file>",
		Short: "Enter every listed competition covered by an automation target",
		Long: `Run reads competition links (one per line, '#' starts a comment) and enters
each link whose address contains the match string of a target in the targets
file. Successful submissions are recorded in the state file and skipped on
later runs. Use --dry-run to check which links would be entered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			opts.linksPath = args[0]
			if opts.targetsPath == "" {
				opts.targetsPath = cfg.Runner.TargetsFile
			}
			if opts.statePath == "" {
				opts.statePath = cfg.Runner.StateFile
			}
			return runRun(ctx, cmd.OutOrStdout(), observability.GetLogger(), cfg, opts, deps)
		},
	}

	cmd.Flags().StringVarP(&opts.targetsPath, "targets", "t", "", "Automation targets file (default from runner.targets_file).")
	cmd.Flags().StringVar(&opts.statePath, "state", "", "State file recording submissions (default from runner.state_file).")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "List matching links without launching a browser.")
	cmd.Flags().BoolVar(&opts.autoYes, "auto-confirm", false, "Submit without asking for confirmation.")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of competitions to process (0 = no limit).")
	return cmd
}

func runRun(ctx context.Context, out io.Writer, logger *zap.Logger, appCfg *config.Config, opts runOptions, deps fillDeps) error {
	if opts.limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}
	targets, err := runner.LoadTargets(opts.targetsPath, logger)
	if err != nil {
		return err
	}
	links, err := runner.ReadLinks(opts.linksPath)
	if err != nil {
		return err
	}

	in := bufio.NewReader(deps.in)
	interactive := deps.isTerminal()
	launcher := deps.newLauncher(logger, appCfg)
	execute := func(ctx context.Context, cfg *config.AutofillConfig, data autofill.Record) *autofill.Outcome {
		return autofill.New(cfg, launcher, logger, orchestratorOptions(out, in, appCfg, opts.autoYes, interactive)...).Run(ctx, data)
	}

	results := &observability.RecordingReporter{}
	reporter := observability.MultiReporter{observability.NewLogReporter(logger), results}
	r := runner.New(targets, execute, runner.Options{
		DryRun:      opts.dryRun,
		Limit:       opts.limit,
		MinInterval: appCfg.Runner.MinInterval,
		StatePath:   opts.statePath,
	}, logger, reporter)

	summary, err := r.Run(ctx, links)
	fmt.Fprintln(out, "\n=== Run summary ===")
	for _, line := range results.Messages() {
		fmt.Fprintln(out, line)
	}
	if summary != nil {
		fmt.Fprintf(out, "Processed %d competitions (%d submitted, %d already submitted).\n",
			summary.Processed, len(summary.Submitted), summary.Skipped)
	}
	return err
}
