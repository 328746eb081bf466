// internal/browser/htmlpage/page.go
package htmlpage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/autoentry/internal/browser"
)

// Default box of a rendered form control. Static markup has no layout engine,
// so every visible element gets the same size unless its inline style zeroes it.
const (
	defaultWidth  = 120.0
	defaultHeight = 24.0
)

// Page is a browser.Session over a static HTML document. Writes mutate the
// in-memory document, so the markup returned by HTML reflects filled values.
type Page struct {
	mu      sync.Mutex
	doc     *goquery.Document
	url     string
	clicked []string
	closed  bool
}

var _ browser.Session = (*Page)(nil)

// New parses markup into a page.
func New(markup string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page markup: %w", err)
	}
	return &Page{doc: doc}, nil
}

// Load reads a saved page from disk.
func Load(path string) (*Page, error) {
	markup, err := readMarkup(path)
	if err != nil {
		return nil, err
	}
	return New(markup)
}

func readMarkup(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("could not resolve page path '%s': %w", path, err)
	}
	raw, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to read page '%s': %w", expanded, err)
	}
	return string(raw), nil
}

func (p *Page) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.closed {
		return browser.ErrSessionClosed
	}
	return nil
}

// Navigate implements browser.Page. The document does not change; only the URL is recorded.
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(ctx); err != nil {
		return err
	}
	p.url = url
	return nil
}

// URL returns the last URL passed to Navigate.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// WaitReady implements browser.Page.
func (p *Page) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(ctx); err != nil {
		return err
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return fmt.Errorf("invalid selector '%s': %w", selector, err)
	}
	if p.doc.FindMatcher(m).Length() == 0 {
		return fmt.Errorf("timed out after %s waiting for '%s'", timeout, selector)
	}
	return nil
}

// EnsureActiveWindow implements browser.Page. A static page has exactly one window.
func (p *Page) EnsureActiveWindow(ctx context.Context, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(ctx); err != nil {
		return fmt.Errorf("%w: %v", browser.ErrNoLiveWindow, err)
	}
	return nil
}

// QueryAll implements browser.Page.
func (p *Page) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector '%s': %w", selector, err)
	}

	var elements []browser.Element
	p.doc.FindMatcher(m).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &Element{page: p, sel: s})
	})
	return elements, nil
}

// Query implements browser.Page.
func (p *Page) Query(ctx context.Context, selector string) (browser.Element, error) {
	elements, err := p.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: '%s'", browser.ErrElementNotFound, selector)
	}
	return elements[0], nil
}

// HTML implements browser.Page.
func (p *Page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(ctx); err != nil {
		return "", err
	}
	return goquery.OuterHtml(p.doc.Find("html"))
}

// Screenshot implements browser.Page. Static markup cannot be rendered, so the
// file is a one pixel placeholder PNG that marks where the evidence would be.
func (p *Page) Screenshot(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(ctx); err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode placeholder screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot '%s': %w", path, err)
	}
	return nil
}

// Close implements browser.Session.
func (p *Page) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Clicks returns a description of every clicked element, in order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicked...)
}

// Value returns the current value of the first element matching selector, as
// the engine left it.
func (p *Page) Value(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.doc.Find(selector).First()
	if s.Length() == 0 {
		return ""
	}
	return valueOf(s)
}
