// internal/runner/runner.go
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/autoentry/internal/autofill"
	"github.com/xkilldash9x/autoentry/internal/config"
	"github.com/xkilldash9x/autoentry/internal/observability"
)

// Executor performs one autofill run for a prepared configuration.
type Executor func(ctx context.Context, cfg *config.AutofillConfig, data autofill.Record) *autofill.Outcome

// Options tune a Runner.
type Options struct {
	// DryRun lists matching links without launching anything.
	DryRun bool
	// Limit caps the number of matching links processed; 0 means no cap.
	Limit int
	// MinInterval is the minimum spacing between two consecutive runs.
	MinInterval time.Duration
	// StatePath is the state file updated with successful submissions. Empty disables it.
	StatePath string
}

// Summary describes what a Runner did.
type Summary struct {
	Processed int
	Skipped   int
	Submitted []string
	Outcomes  map[string]*autofill.Outcome
}

// Runner walks a list of competition links and enters the ones covered by a target.
type Runner struct {
	targets  []Target
	execute  Executor
	opts     Options
	logger   *zap.Logger
	reporter observability.Reporter
	limiter  *rate.Limiter

	loadConfig func(path string) (*config.AutofillConfig, error)
	loadRecord func(path string) (map[string]string, error)
	now        func() time.Time
}

// New creates a runner. reporter receives one line per processed link.
func New(targets []Target, execute Executor, opts Options, logger *zap.Logger, reporter observability.Reporter) *Runner {
	if logger == nil {
		logger = observability.GetLogger()
	}
	logger = logger.Named("runner")
	if reporter == nil {
		reporter = observability.NewLogReporter(logger)
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	return &Runner{
		targets:    targets,
		execute:    execute,
		opts:       opts,
		logger:     logger,
		reporter:   reporter,
		limiter:    rate.NewLimiter(limit, 1),
		loadConfig: config.LoadAutofillConfig,
		loadRecord: config.LoadRecord,
		now:        time.Now,
	}
}

// Run processes links in order. Per-link failures are logged and counted in
// the summary; only context cancellation and state-file errors are returned.
func (r *Runner) Run(ctx context.Context, links []string) (*Summary, error) {
	summary := &Summary{Outcomes: map[string]*autofill.Outcome{}}
	if len(r.targets) == 0 {
		r.logger.Warn("No automation targets defined; nothing to do.")
		return summary, nil
	}

	var state *State
	if r.opts.StatePath != "" {
		state = LoadState(r.opts.StatePath, r.logger)
	}

	runErr := r.process(ctx, links, state, summary)

	r.logger.Info("Processed competitions.",
		zap.Int("processed", summary.Processed),
		zap.Int("successes", len(summary.Submitted)))

	// Submissions made before a cancellation are persisted too.
	if err := r.persist(state, summary); err != nil {
		if runErr != nil {
			return summary, errors.Join(runErr, err)
		}
		return summary, err
	}
	return summary, runErr
}

func (r *Runner) process(ctx context.Context, links []string, state *State, summary *Summary) error {
	for _, link := range links {
		target, ok := Find(r.targets, link)
		if !ok {
			continue
		}
		if state != nil && state.IsSubmitted(link) {
			r.logger.Debug("Link already submitted; skipping.", zap.String("link", link))
			summary.Skipped++
			continue
		}
		if r.opts.Limit > 0 && summary.Processed >= r.opts.Limit {
			break
		}
		summary.Processed++
		r.logger.Info("Processing competition.", zap.String("link", link), zap.String("target", target.Match))

		if r.opts.DryRun {
			r.reporter.Report(fmt.Sprintf("[DRY RUN] Would submit: %s using %s", link, target.ConfigPath))
			continue
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		outcome, err := r.enter(ctx, target, link)
		if err != nil {
			r.logger.Error("Could not prepare run.", zap.String("link", link), zap.Error(err))
			r.reporter.Report(fmt.Sprintf("Skipped %s: %v", link, err))
			continue
		}
		summary.Outcomes[link] = outcome
		r.reportOutcome(link, outcome)
		if outcome.Submitted {
			summary.Submitted = append(summary.Submitted, link)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// persist records this run's submissions in the state file.
func (r *Runner) persist(state *State, summary *Summary) error {
	if state == nil || r.opts.DryRun || len(summary.Submitted) == 0 {
		return nil
	}
	state.MarkSubmitted(summary.Submitted...)
	if err := SaveState(r.opts.StatePath, state, r.now()); err != nil {
		return err
	}
	r.logger.Info("Updated state file.", zap.String("path", r.opts.StatePath))
	return nil
}

// enter prepares the per-link configuration and runs it.
func (r *Runner) enter(ctx context.Context, target Target, link string) (*autofill.Outcome, error) {
	loaded, err := r.loadConfig(target.ConfigPath)
	if err != nil {
		return nil, err
	}
	data, err := r.loadRecord(target.DataPath)
	if err != nil {
		return nil, err
	}

	cfg := *loaded
	cfg.URL = link
	if target.ScreenshotDir != "" {
		dir, err := homedir.Expand(target.ScreenshotDir)
		if err != nil {
			return nil, fmt.Errorf("could not resolve screenshot_dir '%s': %w", target.ScreenshotDir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create screenshot_dir '%s': %w", dir, err)
		}
		cfg.ScreenshotDir = dir
	}
	if target.SubmitSelector != "" {
		cfg.SubmitSelector = target.SubmitSelector
	}

	outcome := r.execute(ctx, &cfg, autofill.Record(data))
	if outcome == nil {
		return nil, errors.New("executor returned no outcome")
	}
	return outcome, nil
}

func (r *Runner) reportOutcome(link string, o *autofill.Outcome) {
	switch {
	case o.Submitted:
		r.reporter.Report(fmt.Sprintf("Submitted %s (%d fields filled).", link, o.FilledCount()))
	case o.Aborted():
		r.reporter.Report(fmt.Sprintf("Not submitted %s: %s", link, o.AbortedReason))
	case o.Failed():
		r.reporter.Report(fmt.Sprintf("Failed %s: %s", link, o.Error))
	default:
		r.reporter.Report(fmt.Sprintf("Not submitted %s.", link))
	}
}

// ReadLinks reads one link per line. Blank lines and lines starting with '#'
// are ignored.
func ReadLinks(path string) ([]string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve links path '%s': %w", path, err)
	}
	f, err := os.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to open links file: %w", err)
	}
	defer f.Close()

	var links []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read links file: %w", err)
	}
	return links, nil
}
