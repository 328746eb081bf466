// internal/autofill/captcha.go
package autofill

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// captchaMarkers are matched case-insensitively anywhere in the page markup.
var captchaMarkers = []string{"recaptcha", "g-recaptcha", "captcha"}

// DetectCaptcha reports whether markup carries a known CAPTCHA marker. It is a
// substring heuristic and will also fire on pages that merely mention one.
func DetectCaptcha(markup string) bool {
	lower := strings.ToLower(markup)
	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ManualCompletion lets a human solve a CAPTCHA in the open browser and report
// whether they submitted the entry themselves.
type ManualCompletion interface {
	AwaitManualSubmission(ctx context.Context) (bool, error)
}

// PromptManualCompletion asks on a text stream; only the literal "SUBMITTED"
// (any case) counts as a completed submission.
type PromptManualCompletion struct {
	in  *answerReader
	out io.Writer
}

// NewPromptManualCompletion creates a terminal manual-completion handler.
func NewPromptManualCompletion(in io.Reader, out io.Writer) *PromptManualCompletion {
	return &PromptManualCompletion{in: newAnswerReader(in), out: out}
}

// AwaitManualSubmission implements ManualCompletion.
func (p *PromptManualCompletion) AwaitManualSubmission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprint(p.out, "CAPTCHA detected. Solve it manually in the open browser.\n"+
		"Press ENTER to skip, or type SUBMITTED once you have sent the entry: ")
	answer, err := p.in.readLine(ctx)
	if err != nil {
		return false, err
	}
	return answer == "submitted", nil
}

// ManualCompletionFunc adapts a function to ManualCompletion.
type ManualCompletionFunc func(ctx context.Context) (bool, error)

// AwaitManualSubmission implements ManualCompletion.
func (f ManualCompletionFunc) AwaitManualSubmission(ctx context.Context) (bool, error) {
	return f(ctx)
}
