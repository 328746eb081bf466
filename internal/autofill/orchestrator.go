// internal/autofill/orchestrator.go
package autofill

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoentry/internal/browser"
	"github.com/xkilldash9x/autoentry/internal/config"
	"github.com/xkilldash9x/autoentry/internal/humanoid"
	"github.com/xkilldash9x/autoentry/internal/observability"
)

const (
	// DefaultSettleDelay is the wait between clicking submit and the second snapshot.
	DefaultSettleDelay = 3 * time.Second
	// readySelector is the minimal page-ready signal.
	readySelector = "body"
	// releaseTimeout bounds the graceful shutdown of the browser session.
	releaseTimeout = 15 * time.Second
)

// Orchestrator drives one autofill run from navigation to submission.
type Orchestrator struct {
	cfg      *config.AutofillConfig
	launcher browser.Launcher
	logger   *zap.Logger

	gate       ConfirmationGate
	manual     ManualCompletion
	reporter   observability.Reporter
	pacer      *humanoid.Pacer
	now        func() time.Time
	settle     time.Duration
	windowWait time.Duration
	observer   func(State)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGate sets the confirmation gate. Without one the run submits unasked.
func WithGate(g ConfirmationGate) Option { return func(o *Orchestrator) { o.gate = g } }

// WithManualCompletion sets the handler offered when a CAPTCHA blocks submission.
func WithManualCompletion(m ManualCompletion) Option { return func(o *Orchestrator) { o.manual = m } }

// WithReporter sets the status sink.
func WithReporter(r observability.Reporter) Option { return func(o *Orchestrator) { o.reporter = r } }

// WithPacer sets the source of human-like pauses.
func WithPacer(p *humanoid.Pacer) Option { return func(o *Orchestrator) { o.pacer = p } }

// WithClock sets the clock used for evidence file names.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option { return func(o *Orchestrator) { o.settle = d } }

// WithWindowWait overrides DefaultWindowWait.
func WithWindowWait(d time.Duration) Option { return func(o *Orchestrator) { o.windowWait = d } }

// WithStateObserver registers a callback invoked on every state transition.
func WithStateObserver(fn func(State)) Option { return func(o *Orchestrator) { o.observer = fn } }

// New creates an orchestrator for a validated configuration.
func New(cfg *config.AutofillConfig, launcher browser.Launcher, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = observability.GetLogger()
	}
	o := &Orchestrator{
		cfg:      cfg,
		launcher: launcher,
		logger:   logger.Named("orchestrator"),
		now:      time.Now,
		settle:   DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.reporter == nil {
		o.reporter = observability.NewLogReporter(logger)
	}
	if o.pacer == nil {
		o.pacer = humanoid.NewPacer(nil, nil)
	}
	return o
}

// run carries the mutable state of a single Run call.
type run struct {
	o       *Orchestrator
	logger  *zap.Logger
	outcome *Outcome
	state   State
	session browser.Session
	delay   config.DelayRange
}

// Run executes the whole state machine and always returns an outcome. Faults,
// including panics, are recorded on the outcome; the browser session, once
// acquired, is always released before Run returns.
func (o *Orchestrator) Run(ctx context.Context, data Record) (outcome *Outcome) {
	runID := uuid.NewString()
	r := &run{
		o:      o,
		logger: o.logger.With(zap.String("run_id", runID)),
		outcome: &Outcome{
			RunID:       runID,
			FillActions: []FillAction{},
		},
		state: StateInit,
	}
	if o.cfg != nil {
		r.outcome.URL = o.cfg.URL
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Run panicked.", zap.Any("panic", rec), zap.Stack("stack"))
			r.fail(newPhaseError(ErrUnexpected, fmt.Sprintf("Unexpected error: %v", rec), nil))
		}
		r.cleanup(ctx)
		r.outcome.FinalState = r.state
		outcome = r.outcome
	}()

	if err := r.execute(ctx, data); err != nil {
		r.fail(err)
	}
	return r.outcome
}

func (r *run) transition(next State) {
	r.logger.Debug("State transition.", zap.Stringer("from", r.state), zap.Stringer("to", next))
	r.state = next
	if r.o.observer != nil {
		r.o.observer(next)
	}
}

func (r *run) report(msg string) {
	r.o.reporter.Report(msg)
}

func (r *run) fail(err error) {
	var phaseErr *PhaseError
	if !errors.As(err, &phaseErr) {
		phaseErr = newPhaseError(ErrUnexpected, "Unexpected error", err)
	}
	r.outcome.Error = phaseErr.Error()
	r.outcome.Cause = phaseErr
	r.outcome.Submitted = false
	r.outcome.AbortedReason = ""
	r.report(r.outcome.Error)
	r.transition(StateFailed)
}

func (r *run) abort(reason string) {
	r.outcome.AbortedReason = reason
	r.report(reason)
	r.transition(StateAborted)
}

func (r *run) pause(ctx context.Context) error {
	if err := r.o.pacer.Pause(ctx, r.delay); err != nil {
		return newPhaseError(ErrUnexpected, "Run interrupted", err)
	}
	return nil
}

func (r *run) execute(ctx context.Context, data Record) error {
	// -- Init --
	cfg := r.o.cfg
	if cfg == nil || cfg.URL == "" {
		return newPhaseError(ErrConfiguration, "Configuration missing a URL to open.", nil)
	}
	r.delay = cfg.HumanDelay.Normalized()
	if err := os.MkdirAll(cfg.ScreenshotDir, 0o755); err != nil {
		return newPhaseError(ErrConfiguration, fmt.Sprintf("Could not create screenshot directory '%s'", cfg.ScreenshotDir), err)
	}

	// -- Navigating --
	r.transition(StateNavigating)
	session, err := r.o.launcher.Launch(ctx, browser.LaunchOptions{Headless: cfg.Headless, ExecPath: cfg.WebdriverPath})
	if err != nil {
		return newPhaseError(ErrSessionAcquisition, "Browser error", err)
	}
	r.session = session

	r.report(fmt.Sprintf("Opening %s", cfg.URL))
	if err := session.Navigate(ctx, cfg.URL); err != nil {
		return newPhaseError(ErrNavigation, fmt.Sprintf("Failed to open %s", cfg.URL), err)
	}
	if err := session.EnsureActiveWindow(ctx, r.windowWait()); err != nil {
		return newPhaseError(ErrWindowState, "Browser window error", err)
	}
	if err := session.WaitReady(ctx, readySelector, cfg.WaitTimeout); err != nil {
		return newPhaseError(ErrNavigation, fmt.Sprintf("Page did not become ready within %s", cfg.WaitTimeout), err)
	}
	if err := r.pause(ctx); err != nil {
		return err
	}

	// -- Scanning --
	r.transition(StateScanning)
	fields, err := NewScanner(r.logger, r.windowWait()).Scan(ctx, session)
	if err != nil {
		return newPhaseError(ErrWindowState, "Could not scan the page", err)
	}
	r.report(fmt.Sprintf("Found %d visible inputs", len(fields)))

	// -- Filling --
	r.transition(StateFilling)
	for _, field := range fields {
		action, err := r.fill(ctx, field, data)
		if err != nil {
			return err
		}
		r.outcome.FillActions = append(r.outcome.FillActions, action)
	}

	// -- Snapshotting --
	r.transition(StateSnapshotting)
	timestamp := r.o.now().Unix()
	previewPath := filepath.Join(cfg.ScreenshotDir, fmt.Sprintf("autofill_preview_%d.png", timestamp))
	if err := session.Screenshot(ctx, previewPath); err != nil {
		return newPhaseError(ErrSnapshot, "Failed to save snapshot", err)
	}
	r.outcome.ScreenshotPath = previewPath
	r.report(fmt.Sprintf("Saved snapshot for review: %s", previewPath))

	// -- AwaitingConfirmation --
	r.transition(StateAwaitingConfirmation)
	if r.o.gate != nil {
		approved, err := r.o.gate.Confirm(ctx, append([]FillAction(nil), r.outcome.FillActions...), previewPath)
		if err != nil {
			return newPhaseError(ErrGate, "Confirmation failed", err)
		}
		if !approved {
			r.abort(ReasonCancelledByUser)
			return nil
		}
	}

	// -- ObstacleCheck --
	r.transition(StateObstacleCheck)
	markup, err := session.HTML(ctx)
	if err != nil {
		return newPhaseError(ErrNavigation, "Failed to read page markup", err)
	}
	if DetectCaptcha(markup) {
		r.handleCaptcha(ctx)
		return nil
	}

	// -- Submitting --
	r.transition(StateSubmitting)
	control, err := findSubmitControl(ctx, session, cfg.SubmitSelector)
	if err != nil {
		return newPhaseError(ErrWindowState, "Failed to look up the submit control", err)
	}
	if control == nil {
		r.abort(fmt.Sprintf(reasonNoSubmitFormat, cfg.SubmitSelector))
		return nil
	}
	if err := r.pause(ctx); err != nil {
		return err
	}
	if err := control.Click(ctx); err != nil {
		return newPhaseError(ErrUnexpected, "Unexpected error: failed to click the submit control", err)
	}
	r.report("Clicked submit element; waiting for post-submit page.")

	// -- PostSubmitSnapshot --
	r.transition(StatePostSubmitSnapshot)
	if err := r.o.pacer.Sleep(ctx, r.o.settle); err != nil {
		return newPhaseError(ErrUnexpected, "Run interrupted", err)
	}
	postPath := filepath.Join(cfg.ScreenshotDir, fmt.Sprintf("autofill_after_submit_%d.png", timestamp))
	if err := session.Screenshot(ctx, postPath); err != nil {
		return newPhaseError(ErrSnapshot, "Clicked submit but failed to save the post-submit snapshot", err)
	}
	r.outcome.PostSubmitScreenshotPath = postPath
	r.outcome.Submitted = true
	r.report(fmt.Sprintf("Submitted. Post-submit screenshot saved: %s", postPath))
	r.transition(StateDone)
	return nil
}

func (r *run) windowWait() time.Duration {
	if r.o.windowWait > 0 {
		return r.o.windowWait
	}
	return DefaultWindowWait
}

// fill classifies one field and types its value when the score allows it.
// Write faults stay with the field; only an interrupted pause ends the run.
func (r *run) fill(ctx context.Context, field ScannedField, data Record) (FillAction, error) {
	key, score := Classify(field.Label)
	score += InputTypeBonus(field.InputType)

	action := FillAction{
		Label:     field.Label,
		Tag:       field.Tag,
		InputType: field.InputType,
		Score:     score,
	}
	if key == "" || !Fillable(field.Tag, score) {
		return action, nil
	}
	action.MappedKey = key

	value, ok := Resolve(key, data)
	if !ok || value == "" {
		return action, nil
	}
	action.Value = value

	if err := field.Element.Clear(ctx); err != nil {
		r.logger.Debug("Clearing field failed; typing anyway.", zap.String("label", field.Label), zap.Error(err))
	}
	if err := field.Element.SendKeys(ctx, value); err != nil {
		r.logger.Debug("Typing into field failed.", zap.String("label", field.Label), zap.Error(err))
		return action, nil
	}
	action.Filled = true

	if err := r.pause(ctx); err != nil {
		return action, err
	}
	return action, nil
}

// handleCaptcha aborts the submission, offering a manual path when a visible
// browser is available and the configuration asks for it.
func (r *run) handleCaptcha(ctx context.Context) {
	r.abort(ReasonCaptchaDetected)
	cfg := r.o.cfg
	if !cfg.PauseOnCaptcha {
		return
	}
	if cfg.Headless {
		r.report("Headless mode prevents manual CAPTCHA solving. Consider setting headless=false.")
		return
	}
	if r.o.manual == nil {
		r.report("No manual completion handler available; leaving the entry unsubmitted.")
		return
	}

	submitted, err := r.o.manual.AwaitManualSubmission(ctx)
	if err != nil {
		r.logger.Warn("Manual CAPTCHA completion failed.", zap.Error(err))
		return
	}
	if submitted {
		r.outcome.Submitted = true
		r.outcome.AbortedReason = ""
		r.report("Entry submitted manually after solving the CAPTCHA.")
		r.transition(StateDone)
	}
}

// cleanup waits the configured close delay and releases the session. It runs
// on every path, including after a panic.
func (r *run) cleanup(ctx context.Context) {
	if r.session == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Releasing the browser session panicked.", zap.Any("panic", rec))
		}
	}()

	if delay := r.o.cfg.CloseDelay; delay > 0 {
		if err := r.o.pacer.Sleep(ctx, delay); err != nil {
			r.logger.Debug("Close delay interrupted.", zap.Error(err))
		}
	}

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := r.session.Close(closeCtx); err != nil {
		r.logger.Warn("Browser session did not close cleanly.", zap.Error(err))
	}
	r.session = nil
}
