// internal/autofill/preview.go
package autofill

import (
	"fmt"
	"strings"
)

const previewWidth = 60

// FormatPreview renders one numbered line per action for review before submission.
func FormatPreview(actions []FillAction) string {
	var b strings.Builder
	for i, a := range actions {
		label := strings.TrimSpace(a.Label)
		if label == "" {
			label = "<no label>"
		}
		mapped := a.MappedKey
		if mapped == "" {
			mapped = "-"
		}
		fmt.Fprintf(&b, "%02d. label='%s' tag=%s type=%s score=%d mapped=%s filled=%t value_preview=%s\n",
			i+1, truncate(label, previewWidth), a.Tag, a.InputType, a.Score, mapped, a.Filled, truncate(a.Value, previewWidth))
	}
	return b.String()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
