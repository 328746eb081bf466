// internal/autofill/submit.go
package autofill

import (
	"context"
	"errors"
	"strings"

	"github.com/xkilldash9x/autoentry/internal/browser"
)

// fallbackSubmitSelector is searched when the configured selector finds nothing.
const fallbackSubmitSelector = "button, input[type='submit']"

// submitSynonyms are matched against the lowercased text or value of fallback candidates.
var submitSynonyms = []string{"submit", "enter", "confirm", "join", "register", "enter now"}

// findSubmitControl locates the control to click. The configured selector is
// tried first; otherwise the first button or submit input whose text (or value,
// when it has no text) contains a submission synonym is used. A nil element
// with a nil error means nothing suitable exists.
func findSubmitControl(ctx context.Context, page browser.Page, selector string) (browser.Element, error) {
	el, err := page.Query(ctx, selector)
	if err == nil {
		return el, nil
	}
	if !errors.Is(err, browser.ErrElementNotFound) {
		return nil, err
	}

	candidates, err := page.QueryAll(ctx, fallbackSubmitSelector)
	if err != nil {
		return nil, err
	}
	for _, candidate := range candidates {
		text, err := candidate.Text(ctx)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			text = attribute(ctx, candidate, "value")
		}
		text = strings.ToLower(text)
		for _, synonym := range submitSynonyms {
			if strings.Contains(text, synonym) {
				return candidate, nil
			}
		}
	}
	return nil, nil
}
