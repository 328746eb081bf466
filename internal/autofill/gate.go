// internal/autofill/gate.go
package autofill

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xkilldash9x/autoentry/internal/observability"
)

// ConfirmationGate decides whether a filled form may be submitted. The
// orchestrator calls it synchronously and blocks until it returns.
type ConfirmationGate interface {
	Confirm(ctx context.Context, actions []FillAction, screenshotPath string) (bool, error)
}

// GateFunc adapts a function to ConfirmationGate.
type GateFunc func(ctx context.Context, actions []FillAction, screenshotPath string) (bool, error)

// Confirm implements ConfirmationGate.
func (f GateFunc) Confirm(ctx context.Context, actions []FillAction, screenshotPath string) (bool, error) {
	return f(ctx, actions, screenshotPath)
}

// AlwaysConfirm approves every submission. The preview is still reported so
// unattended runs leave a record of what was typed.
type AlwaysConfirm struct {
	Reporter observability.Reporter
}

// Confirm implements ConfirmationGate.
func (g AlwaysConfirm) Confirm(_ context.Context, actions []FillAction, screenshotPath string) (bool, error) {
	if g.Reporter != nil {
		for _, line := range strings.Split(strings.TrimRight(FormatPreview(actions), "\n"), "\n") {
			if line != "" {
				g.Reporter.Report(line)
			}
		}
		g.Reporter.Report(fmt.Sprintf("Auto-confirming submission (screenshot: %s).", screenshotPath))
	}
	return true, nil
}

// PromptGate asks on a text stream and accepts only the answer "yes".
type PromptGate struct {
	in  *answerReader
	out io.Writer
}

// NewPromptGate creates a gate reading answers from in and printing to out.
func NewPromptGate(in io.Reader, out io.Writer) *PromptGate {
	return &PromptGate{in: newAnswerReader(in), out: out}
}

// Confirm implements ConfirmationGate. Closed input declines.
func (g *PromptGate) Confirm(ctx context.Context, actions []FillAction, screenshotPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintln(g.out, "\n=== Autofill preview ===")
	fmt.Fprint(g.out, FormatPreview(actions))
	fmt.Fprintf(g.out, "\nScreenshot saved: %s\n", screenshotPath)
	fmt.Fprintln(g.out, "Please review the browser page. Do not proceed if anything looks wrong.")
	fmt.Fprintln(g.out, "You can edit fields manually in the browser before confirming.")
	fmt.Fprint(g.out, "\nType YES to submit automatically, anything else to abort: ")

	answer, err := g.in.readLine(ctx)
	if err != nil {
		return false, err
	}
	if answer == "yes" {
		return true, nil
	}
	fmt.Fprintln(g.out, "Aborted. Exiting without submitting.")
	return false, nil
}

type readResult struct {
	line string
	err  error
}

// answerReader reads prompt answers without blocking past ctx. A read
// abandoned on cancellation keeps running, and the next call collects its
// line instead of starting a second concurrent read.
type answerReader struct {
	r       *bufio.Reader
	pending chan readResult
}

func newAnswerReader(in io.Reader) *answerReader {
	return &answerReader{r: bufio.NewReader(in)}
}

// readLine returns the next line, trimmed and lowercased. EOF counts as an empty answer.
func (a *answerReader) readLine(ctx context.Context) (string, error) {
	if a.pending == nil {
		ch := make(chan readResult, 1)
		go func() {
			line, err := a.r.ReadString('\n')
			ch <- readResult{line: line, err: err}
		}()
		a.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-a.pending:
		a.pending = nil
		if res.err != nil && !errors.Is(res.err, io.EOF) {
			return "", fmt.Errorf("failed to read answer: %w", res.err)
		}
		return strings.ToLower(strings.TrimSpace(res.line)), nil
	}
}

// ConfirmationRequest is posted by DialogGate to the UI side, which must call
// Respond exactly once.
type ConfirmationRequest struct {
	Actions        []FillAction
	ScreenshotPath string

	reply chan bool
	once  *sync.Once
}

// Respond delivers the decision back to the waiting run. Later calls are ignored.
func (r ConfirmationRequest) Respond(approved bool) {
	r.once.Do(func() { r.reply <- approved })
}

// DialogGate hands the decision to another goroutine, typically a UI event
// loop, and blocks the run until that side responds or ctx ends.
type DialogGate struct {
	requests chan ConfirmationRequest
}

// NewDialogGate creates a gate; the UI side reads Requests.
func NewDialogGate() *DialogGate {
	return &DialogGate{requests: make(chan ConfirmationRequest)}
}

// Requests is the channel the UI side receives confirmation requests on.
func (g *DialogGate) Requests() <-chan ConfirmationRequest {
	return g.requests
}

// Confirm implements ConfirmationGate.
func (g *DialogGate) Confirm(ctx context.Context, actions []FillAction, screenshotPath string) (bool, error) {
	req := ConfirmationRequest{
		Actions:        append([]FillAction(nil), actions...),
		ScreenshotPath: screenshotPath,
		reply:          make(chan bool, 1),
		once:           &sync.Once{},
	}

	select {
	case g.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case approved := <-req.reply:
		return approved, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
