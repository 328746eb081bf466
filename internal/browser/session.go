// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	windowPollInterval = 200 * time.Millisecond

	// defaultElementTimeout bounds a single element operation.
	defaultElementTimeout = 10 * time.Second
)

// chromeSession is a Session backed by a chromedp browser context. The tab the
// session drives can change when the page closes its window and another one
// is adopted by EnsureActiveWindow.
type chromeSession struct {
	logger *zap.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	elementTimeout time.Duration

	mu        sync.Mutex
	tabCtx    context.Context
	tabCancel context.CancelFunc
	closed    bool
	// opened holds page targets in creation order.
	opened []target.ID
}

var _ Session = (*chromeSession)(nil)

func newChromeSession(logger *zap.Logger, allocCancel context.CancelFunc, browserCtx context.Context, browserCancel context.CancelFunc) *chromeSession {
	s := &chromeSession{
		logger:         logger.Named("session"),
		allocCancel:    allocCancel,
		browserCtx:     browserCtx,
		browserCancel:  browserCancel,
		elementTimeout: defaultElementTimeout,
		tabCtx:         browserCtx,
	}
	chromedp.ListenBrowser(browserCtx, func(ev interface{}) {
		if e, ok := ev.(*target.EventTargetCreated); ok && e.TargetInfo.Type == "page" {
			s.windowOpened(e.TargetInfo.TargetID)
		}
	})
	return s
}

func (s *chromeSession) windowOpened(id target.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, id)
}

// newestPage picks the most recently opened of pages. Targets that were never
// seen being created rank below every tracked one; among those the last listed wins.
func (s *chromeSession) newestPage(pages []*target.Info) target.ID {
	s.mu.Lock()
	rank := make(map[target.ID]int, len(s.opened))
	for i, id := range s.opened {
		rank[id] = i + 1
	}
	s.mu.Unlock()

	best, bestRank := pages[len(pages)-1].TargetID, 0
	for _, info := range pages {
		if r := rank[info.TargetID]; r > bestRank {
			best, bestRank = info.TargetID, r
		}
	}
	return best
}

func (s *chromeSession) currentTab() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.tabCtx, nil
}

// run executes actions on the current tab, bounded by the operation context.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	tab, err := s.currentTab()
	if err != nil {
		return err
	}
	runCtx, cancel := CombineContext(tab, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// runElement runs actions against a single element under the element timeout.
// chromedp retries node queries until its context ends; the timeout turns a
// detached or hidden node into an error.
func (s *chromeSession) runElement(ctx context.Context, op string, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(ctx, s.elementTimeout)
	defer cancel()

	err := s.run(opCtx, actions...)
	if err != nil && ctx.Err() == nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		s.logger.Debug("Element operation timed out.", zap.String("op", op), zap.Duration("timeout", s.elementTimeout))
		return fmt.Errorf("%w: %s after %s", ErrElementTimeout, op, s.elementTimeout)
	}
	return err
}

// Navigate implements Page.
func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to '%s': %w", url, err)
	}
	return nil
}

// WaitReady implements Page. A zero timeout checks the page once.
func (s *chromeSession) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		var nodes []*cdp.Node
		if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
			return err
		}
		if len(nodes) == 0 {
			return fmt.Errorf("%w: '%s' not present", ErrElementNotFound, selector)
		}
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// EnsureActiveWindow implements Page. It polls the browser's page targets until
// the current one is alive or another one can be adopted, newest first.
func (s *chromeSession) EnsureActiveWindow(ctx context.Context, wait time.Duration) error {
	tab, err := s.currentTab()
	if err != nil {
		return err
	}
	current := currentTargetID(tab)

	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(windowPollInterval)
	defer ticker.Stop()

	for {
		pages, err := s.pageTargets(ctx)
		if err == nil {
			for _, info := range pages {
				if info.TargetID == current {
					return nil
				}
			}
			if len(pages) > 0 {
				return s.adopt(ctx, s.newestPage(pages))
			}
		} else {
			s.logger.Debug("Listing browser targets failed.", zap.Error(err))
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w after waiting %s", ErrNoLiveWindow, wait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func currentTargetID(ctx context.Context) target.ID {
	if c := chromedp.FromContext(ctx); c != nil && c.Target != nil {
		return c.Target.TargetID
	}
	return ""
}

func (s *chromeSession) pageTargets(ctx context.Context) ([]*target.Info, error) {
	listCtx, cancel := CombineContext(s.browserCtx, ctx)
	defer cancel()
	infos, err := chromedp.Targets(listCtx)
	if err != nil {
		return nil, err
	}
	pages := make([]*target.Info, 0, len(infos))
	for _, info := range infos {
		if info.Type == "page" {
			pages = append(pages, info)
		}
	}
	return pages, nil
}

// adopt attaches the session to another window of the same browser.
func (s *chromeSession) adopt(ctx context.Context, id target.ID) error {
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(id))
	attachCtx, cancel := CombineContext(tabCtx, ctx)
	defer cancel()
	if err := chromedp.Run(attachCtx); err != nil {
		tabCancel()
		return fmt.Errorf("failed to attach to window %s: %w", id, err)
	}

	s.mu.Lock()
	previous := s.tabCancel
	s.tabCtx, s.tabCancel = tabCtx, tabCancel
	s.mu.Unlock()
	if previous != nil {
		previous()
	}
	s.logger.Info("Switched to the most recent live window.", zap.String("target_id", string(id)))
	return nil
}

// QueryAll implements Page.
func (s *chromeSession) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query '%s' failed: %w", selector, err)
	}
	elements := make([]Element, 0, len(nodes))
	for _, node := range nodes {
		elements = append(elements, &chromeElement{session: s, node: node})
	}
	return elements, nil
}

// Query implements Page.
func (s *chromeSession) Query(ctx context.Context, selector string) (Element, error) {
	elements, err := s.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrElementNotFound, selector)
	}
	return elements[0], nil
}

// HTML implements Page.
func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page markup: %w", err)
	}
	return html, nil
}

// Screenshot implements Page.
func (s *chromeSession) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	// Quality 100 makes chromedp capture PNG.
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot '%s': %w", path, err)
	}
	return nil
}

// Close implements Session. It asks the browser to shut down gracefully and
// then tears down the allocator, which kills the process if it is still alive.
func (s *chromeSession) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	tabCancel := s.tabCancel
	s.mu.Unlock()

	s.logger.Info("Closing browser session.")
	if tabCancel != nil {
		tabCancel()
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(s.browserCtx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
		s.logger.Warn("Graceful browser shutdown timed out; forcing termination.", zap.Error(err))
	}

	s.browserCancel()
	s.allocCancel()
	return err
}
