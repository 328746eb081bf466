// internal/browser/element.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// geometryScript reports whether the element is rendered and its box size.
const geometryScript = `function() {
	const style = window.getComputedStyle(this);
	const rect = this.getBoundingClientRect();
	const displayed = style.display !== 'none' &&
		style.visibility !== 'hidden' &&
		style.visibility !== 'collapse' &&
		this.getClientRects().length > 0;
	return {displayed: displayed, width: rect.width, height: rect.height};
}`

// textScript returns the rendered text; elements that are not rendered have none.
const textScript = `function() {
	return this.getClientRects().length > 0 ? this.innerText : "";
}`

// selectOptionScript picks the option whose value or visible text matches,
// case-insensitively, and fires the events a user selection would.
const selectOptionScript = `function(wanted) {
	const needle = String(wanted).trim().toLowerCase();
	for (const option of this.options) {
		if (option.value.trim().toLowerCase() === needle || option.text.trim().toLowerCase() === needle) {
			this.value = option.value;
			this.dispatchEvent(new Event('input', {bubbles: true}));
			this.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		}
	}
	return false;
}`

type geometry struct {
	Displayed bool    `json:"displayed"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

// chromeElement is an Element addressed by its CDP node ID.
type chromeElement struct {
	session *chromeSession
	node    *cdp.Node
}

var _ Element = (*chromeElement)(nil)

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

// callFunction runs script with the element bound to this.
func (e *chromeElement) callFunction(script string, res interface{}, args ...interface{}) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve node %d: %w", e.node.NodeID, err)
		}
		// Release errors are ignored.
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		return chromedp.CallFunctionOn(script, res,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(obj.ObjectID)
			},
			args...,
		).Do(ctx)
	})
}

// TagName implements Element.
func (e *chromeElement) TagName(context.Context) (string, error) {
	return strings.ToLower(e.node.NodeName), nil
}

// Attribute implements Element.
func (e *chromeElement) Attribute(ctx context.Context, name string) (string, error) {
	var value string
	var ok bool
	if err := e.session.runElement(ctx, "attribute", chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

// Text implements Element.
func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.session.runElement(ctx, "text", e.callFunction(textScript, &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (e *chromeElement) geometry(ctx context.Context) (geometry, error) {
	var g geometry
	err := e.session.runElement(ctx, "geometry", e.callFunction(geometryScript, &g))
	return g, err
}

// Displayed implements Element.
func (e *chromeElement) Displayed(ctx context.Context) (bool, error) {
	g, err := e.geometry(ctx)
	if err != nil {
		return false, err
	}
	return g.Displayed, nil
}

// Size implements Element.
func (e *chromeElement) Size(ctx context.Context) (float64, float64, error) {
	g, err := e.geometry(ctx)
	if err != nil {
		return 0, 0, err
	}
	return g.Width, g.Height, nil
}

// Clear implements Element.
func (e *chromeElement) Clear(ctx context.Context) error {
	return e.session.runElement(ctx, "clear", chromedp.Clear(e.ids(), chromedp.ByNodeID))
}

// SendKeys implements Element.
func (e *chromeElement) SendKeys(ctx context.Context, value string) error {
	if strings.EqualFold(e.node.NodeName, "select") {
		var matched bool
		if err := e.session.runElement(ctx, "select option", e.callFunction(selectOptionScript, &matched, value)); err != nil {
			return err
		}
		if !matched {
			return fmt.Errorf("no option matching '%s'", value)
		}
		return nil
	}
	return e.session.runElement(ctx, "send keys", chromedp.SendKeys(e.ids(), value, chromedp.ByNodeID))
}

// Click implements Element. A hidden element never becomes clickable, so the
// element timeout is what turns that into an error.
func (e *chromeElement) Click(ctx context.Context) error {
	return e.session.runElement(ctx, "click", chromedp.Click(e.ids(), chromedp.ByNodeID))
}
