// internal/autofill/scanner.go
package autofill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autoentry/internal/browser"
)

const (
	// FormControlSelector matches every control the scanner considers.
	FormControlSelector = "input, textarea, select"
	// DefaultWindowWait bounds the search for a live window before scanning.
	DefaultWindowWait = 5 * time.Second
)

// ScannedField is a visible form control together with the facts the
// classifier needs about it.
type ScannedField struct {
	Element   browser.Element
	Tag       string
	InputType string
	Label     string
}

// Scanner enumerates the visible, non-empty form controls of a page in document order.
type Scanner struct {
	logger     *zap.Logger
	windowWait time.Duration
}

// NewScanner creates a scanner. A non-positive windowWait uses DefaultWindowWait.
func NewScanner(logger *zap.Logger, windowWait time.Duration) *Scanner {
	if windowWait <= 0 {
		windowWait = DefaultWindowWait
	}
	return &Scanner{logger: logger.Named("scanner"), windowWait: windowWait}
}

// Scan returns the visible controls of page. Only a missing window or a failed
// query is an error; any fault while probing a single element drops that element.
func (s *Scanner) Scan(ctx context.Context, page browser.Page) ([]ScannedField, error) {
	if err := page.EnsureActiveWindow(ctx, s.windowWait); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWindowState, err)
	}

	elements, err := page.QueryAll(ctx, FormControlSelector)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWindowState, err)
	}

	fields := make([]ScannedField, 0, len(elements))
	for i, el := range elements {
		if !s.visible(ctx, el) {
			continue
		}
		field, err := s.describe(ctx, page, el)
		if err != nil {
			s.logger.Debug("Skipping element that could not be described.", zap.Int("index", i), zap.Error(err))
			continue
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (s *Scanner) visible(ctx context.Context, el browser.Element) bool {
	shown, err := el.Displayed(ctx)
	if err != nil || !shown {
		return false
	}
	width, height, err := el.Size(ctx)
	if err != nil {
		return false
	}
	return width > 0 && height > 0
}

func (s *Scanner) describe(ctx context.Context, page browser.Page, el browser.Element) (ScannedField, error) {
	tag, err := el.TagName(ctx)
	if err != nil {
		return ScannedField{}, err
	}
	tag = strings.ToLower(tag)

	inputType := strings.ToLower(attribute(ctx, el, "type"))
	if tag == "textarea" {
		inputType = "textarea"
	}

	return ScannedField{
		Element:   el,
		Tag:       tag,
		InputType: inputType,
		Label:     LabelText(ctx, page, el),
	}, nil
}

// LabelText joins every naming source of el (aria-label, placeholder, the text
// of label[for=<id>], name, id) with spaces, trimmed and lowercased. A source
// that cannot be read contributes "".
func LabelText(ctx context.Context, page browser.Page, el browser.Element) string {
	aria := attribute(ctx, el, "aria-label")
	placeholder := attribute(ctx, el, "placeholder")
	name := attribute(ctx, el, "name")
	id := attribute(ctx, el, "id")

	labelText := ""
	if id != "" {
		if label, err := page.Query(ctx, fmt.Sprintf("label[for='%s']", id)); err == nil {
			labelText, _ = label.Text(ctx)
		}
	}

	combined := strings.Join([]string{aria, placeholder, labelText, name, id}, " ")
	return strings.ToLower(strings.TrimSpace(combined))
}

func attribute(ctx context.Context, el browser.Element, name string) string {
	v, err := el.Attribute(ctx, name)
	if err != nil {
		return ""
	}
	return v
}
