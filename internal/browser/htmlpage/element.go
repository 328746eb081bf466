// internal/browser/htmlpage/element.go
package htmlpage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/autoentry/internal/browser"
)

var errNotInteractable = errors.New("element not interactable")

// Element is a browser.Element backed by a goquery selection of one node.
type Element struct {
	page *Page
	sel  *goquery.Selection
}

var _ browser.Element = (*Element)(nil)

func (e *Element) lock(ctx context.Context) (func(), error) {
	e.page.mu.Lock()
	if err := e.page.check(ctx); err != nil {
		e.page.mu.Unlock()
		return nil, err
	}
	return e.page.mu.Unlock, nil
}

// TagName implements browser.Element.
func (e *Element) TagName(ctx context.Context) (string, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()
	return strings.ToLower(goquery.NodeName(e.sel)), nil
}

// Attribute implements browser.Element.
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()
	return e.sel.AttrOr(name, ""), nil
}

// Text implements browser.Element. Whitespace runs collapse to single spaces.
func (e *Element) Text(ctx context.Context) (string, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

// Displayed implements browser.Element.
func (e *Element) Displayed(ctx context.Context) (bool, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()
	return displayed(e.sel), nil
}

// Size implements browser.Element.
func (e *Element) Size(ctx context.Context) (float64, float64, error) {
	unlock, err := e.lock(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer unlock()
	if !displayed(e.sel) {
		return 0, 0, nil
	}
	style := parseStyle(e.sel.AttrOr("style", ""))
	width, height := defaultWidth, defaultHeight
	if zeroLength(style["width"]) {
		width = 0
	}
	if zeroLength(style["height"]) {
		height = 0
	}
	return width, height, nil
}

// Clear implements browser.Element.
func (e *Element) Clear(ctx context.Context) error {
	unlock, err := e.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := writable(e.sel); err != nil {
		return err
	}
	switch goquery.NodeName(e.sel) {
	case "textarea":
		e.sel.SetText("")
	case "select":
		return fmt.Errorf("%w: a select cannot be cleared", errNotInteractable)
	default:
		e.sel.SetAttr("value", "")
	}
	return nil
}

// SendKeys implements browser.Element. Text is appended to the current value,
// the way typing into a focused control would; a select picks a matching option.
func (e *Element) SendKeys(ctx context.Context, value string) error {
	unlock, err := e.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := writable(e.sel); err != nil {
		return err
	}

	switch goquery.NodeName(e.sel) {
	case "textarea":
		e.sel.SetText(e.sel.Text() + value)
	case "select":
		return selectOption(e.sel, value)
	default:
		e.sel.SetAttr("value", e.sel.AttrOr("value", "")+value)
	}
	return nil
}

// Click implements browser.Element.
func (e *Element) Click(ctx context.Context) error {
	unlock, err := e.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if !displayed(e.sel) {
		return fmt.Errorf("%w: element is not displayed", errNotInteractable)
	}
	e.page.clicked = append(e.page.clicked, describe(e.sel))
	return nil
}

func writable(s *goquery.Selection) error {
	if !displayed(s) {
		return fmt.Errorf("%w: element is not displayed", errNotInteractable)
	}
	if _, ok := s.Attr("disabled"); ok {
		return fmt.Errorf("%w: element is disabled", errNotInteractable)
	}
	if _, ok := s.Attr("readonly"); ok {
		return fmt.Errorf("%w: element is read-only", errNotInteractable)
	}
	return nil
}

func selectOption(s *goquery.Selection, value string) error {
	needle := strings.ToLower(strings.TrimSpace(value))
	options := s.Find("option")
	match := options.FilterFunction(func(_ int, o *goquery.Selection) bool {
		return strings.ToLower(strings.TrimSpace(o.AttrOr("value", ""))) == needle ||
			strings.ToLower(strings.TrimSpace(o.Text())) == needle
	}).First()
	if match.Length() == 0 {
		return fmt.Errorf("no option matching '%s'", value)
	}
	options.RemoveAttr("selected")
	match.SetAttr("selected", "selected")
	return nil
}

// valueOf returns the current value of a form control.
func valueOf(s *goquery.Selection) string {
	switch goquery.NodeName(s) {
	case "textarea":
		return s.Text()
	case "select":
		selected := s.Find("option[selected]").First()
		if selected.Length() == 0 {
			selected = s.Find("option").First()
		}
		if v, ok := selected.Attr("value"); ok {
			return v
		}
		return strings.TrimSpace(selected.Text())
	default:
		return s.AttrOr("value", "")
	}
}

func describe(s *goquery.Selection) string {
	desc := goquery.NodeName(s)
	if id := s.AttrOr("id", ""); id != "" {
		desc += "#" + id
	}
	if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
		desc += " " + text
	} else if v := s.AttrOr("value", ""); v != "" {
		desc += " " + v
	}
	return desc
}

// displayed applies the visibility rules static markup allows: the hidden
// attribute, hidden inputs, inline display/visibility styles on the element or
// any ancestor, and anything outside body.
func displayed(s *goquery.Selection) bool {
	if strings.EqualFold(s.AttrOr("type", ""), "hidden") && goquery.NodeName(s) == "input" {
		return false
	}
	if s.Closest("body").Length() == 0 {
		return false
	}
	for node := s; node.Length() > 0; node = node.Parent() {
		name := goquery.NodeName(node)
		if name == "body" || name == "html" {
			break
		}
		if _, ok := node.Attr("hidden"); ok {
			return false
		}
		style := parseStyle(node.AttrOr("style", ""))
		if style["display"] == "none" || style["visibility"] == "hidden" {
			return false
		}
	}
	return true
}

// parseStyle splits an inline style attribute into lowercase property/value pairs.
func parseStyle(style string) map[string]string {
	props := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		props[strings.ToLower(strings.TrimSpace(name))] = strings.ToLower(value)
	}
	return props
}

func zeroLength(v string) bool {
	if v == "" {
		return false
	}
	v = strings.TrimRight(v, "pxemrvwh%")
	return strings.Trim(v, "0.") == ""
}
