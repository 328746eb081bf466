// internal/autofill/errors.go
package autofill

import "errors"

// Phase-level faults. Each one ends the run with Outcome.Error set; cleanup still runs.
var (
	ErrConfiguration      = errors.New("configuration error")
	ErrSessionAcquisition = errors.New("browser session could not be started")
	ErrNavigation         = errors.New("navigation failed")
	ErrWindowState        = errors.New("browser window error")
	ErrSnapshot           = errors.New("snapshot failed")
	ErrGate               = errors.New("confirmation failed")
	ErrUnexpected         = errors.New("unexpected error")
)

// Abort reasons. These are expected, policy-driven stops, not errors.
const (
	ReasonCancelledByUser = "Submission cancelled by user."
	ReasonCaptchaDetected = "CAPTCHA-like content detected; submission skipped."
	reasonNoSubmitFormat  = "Submit button not found using selector '%s'."
)

// PhaseError is a fault that ended a run. Kind is one of the sentinels above;
// Message is the human-readable text shown to the user.
type PhaseError struct {
	Kind    error
	Message string
	Err     error
}

func newPhaseError(kind error, message string, err error) *PhaseError {
	return &PhaseError{Kind: kind, Message: message, Err: err}
}

func (e *PhaseError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is and errors.As.
func (e *PhaseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
