// internal/autofill/helpers_test.go
package autofill

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/autoentry/internal/browser"
	"github.com/xkilldash9x/autoentry/internal/browser/htmlpage"
	"github.com/xkilldash9x/autoentry/internal/config"
	"github.com/xkilldash9x/autoentry/internal/humanoid"
)

// recordingSleeper returns immediately and remembers what it was asked to wait.
type recordingSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
	return ctx.Err()
}

func (s *recordingSleeper) Durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.slept...)
}

func instantPacer(sleeper humanoid.Sleeper) *humanoid.Pacer {
	return humanoid.NewPacer(rand.New(rand.NewSource(1)), sleeper)
}

// testConfig returns the configuration of the reference scenario: an example
// URL, no human delay and no close delay, evidence in a temp dir.
func testConfig(t *testing.T) *config.AutofillConfig {
	t.Helper()
	file := config.DefaultAutofillFile()
	file.URL = "https://example.test/enter"
	file.HumanDelaySeconds = []float64{0, 0}
	file.CloseDelaySeconds = 0
	file.ScreenshotDir = t.TempDir()
	cfg, err := config.NewAutofillConfig(file)
	require.NoError(t, err)
	return cfg
}

// faultySession wraps a static page and injects faults on demand.
type faultySession struct {
	*htmlpage.Page

	mu               sync.Mutex
	queries          []string
	windowErr        error
	waitErr          error
	screenshotErr    error
	panicOnSendKeys  bool
	failSendKeysWith error
}

func (s *faultySession) record(selector string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, selector)
}

// Queries returns every selector passed to Query or QueryAll.
func (s *faultySession) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func (s *faultySession) EnsureActiveWindow(ctx context.Context, wait time.Duration) error {
	if s.windowErr != nil {
		return s.windowErr
	}
	return s.Page.EnsureActiveWindow(ctx, wait)
}

func (s *faultySession) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	if s.waitErr != nil {
		return s.waitErr
	}
	return s.Page.WaitReady(ctx, selector, timeout)
}

func (s *faultySession) Screenshot(ctx context.Context, path string) error {
	if s.screenshotErr != nil {
		return s.screenshotErr
	}
	return s.Page.Screenshot(ctx, path)
}

func (s *faultySession) Query(ctx context.Context, selector string) (browser.Element, error) {
	s.record(selector)
	el, err := s.Page.Query(ctx, selector)
	if err != nil {
		return nil, err
	}
	return s.wrap(el), nil
}

func (s *faultySession) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	s.record(selector)
	elements, err := s.Page.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	for i, el := range elements {
		elements[i] = s.wrap(el)
	}
	return elements, nil
}

func (s *faultySession) wrap(el browser.Element) browser.Element {
	return &faultyElement{Element: el, session: s}
}

type faultyElement struct {
	browser.Element
	session *faultySession
}

func (e *faultyElement) SendKeys(ctx context.Context, value string) error {
	if e.session.panicOnSendKeys {
		panic("element detached while typing")
	}
	if e.session.failSendKeysWith != nil {
		return e.session.failSendKeysWith
	}
	return e.Element.SendKeys(ctx, value)
}

// faultyLauncher launches faultySessions over fixed markup.
type faultyLauncher struct {
	markup    string
	configure func(*faultySession)
	launchErr error

	mu       sync.Mutex
	sessions []*faultySession
}

func (l *faultyLauncher) Launch(ctx context.Context, _ browser.LaunchOptions) (browser.Session, error) {
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	page, err := htmlpage.New(l.markup)
	if err != nil {
		return nil, err
	}
	s := &faultySession{Page: page}
	if l.configure != nil {
		l.configure(s)
	}
	l.mu.Lock()
	l.sessions = append(l.sessions, s)
	l.mu.Unlock()
	return s, nil
}

func (l *faultyLauncher) last() *faultySession {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sessions) == 0 {
		return nil
	}
	return l.sessions[len(l.sessions)-1]
}
