// internal/autofill/types.go
package autofill

// Record maps semantic keys ("email", "first_name", ...) to the values to type.
type Record map[string]string

// FillAction records what happened to one scanned form control. It is created
// once per element during the fill pass and never changed afterwards.
type FillAction struct {
	// Label is the lowercase text aggregated from every naming source of the element.
	Label     string `json:"label"`
	Tag       string `json:"tag"`
	InputType string `json:"input_type"`
	// MappedKey is empty when no key reached the fill threshold.
	MappedKey string `json:"mapped_key,omitempty"`
	// Value is the text typed into the element, empty when nothing was typed.
	Value  string `json:"value,omitempty"`
	Score  int    `json:"score"`
	Filled bool   `json:"filled"`
}

// Outcome is the result of one run. Normally exactly one of Submitted,
// AbortedReason and Error is set.
type Outcome struct {
	RunID                    string       `json:"run_id"`
	URL                      string       `json:"url"`
	FillActions              []FillAction `json:"fill_actions"`
	ScreenshotPath           string       `json:"screenshot_path,omitempty"`
	PostSubmitScreenshotPath string       `json:"post_submit_screenshot_path,omitempty"`
	Submitted                bool         `json:"submitted"`
	AbortedReason            string       `json:"aborted_reason,omitempty"`
	Error                    string       `json:"error,omitempty"`
	// FinalState is the state the run stopped in: Done, Aborted or Failed.
	FinalState State `json:"final_state"`
	// Cause is the fault behind Error, for errors.Is checks against the package sentinels.
	Cause error `json:"-"`
}

// Aborted reports whether the run stopped on policy rather than success or fault.
func (o *Outcome) Aborted() bool { return o.AbortedReason != "" }

// Failed reports whether the run stopped on a fault.
func (o *Outcome) Failed() bool { return o.Error != "" }

// FilledCount returns how many controls were written successfully.
func (o *Outcome) FilledCount() int {
	n := 0
	for _, a := range o.FillActions {
		if a.Filled {
			n++
		}
	}
	return n
}

// State is a phase of the orchestrator state machine.
type State int

const (
	StateInit State = iota
	StateNavigating
	StateScanning
	StateFilling
	StateSnapshotting
	StateAwaitingConfirmation
	StateObstacleCheck
	StateSubmitting
	StatePostSubmitSnapshot
	StateDone
	StateAborted
	StateFailed
)

var stateNames = [...]string{
	StateInit:                 "init",
	StateNavigating:           "navigating",
	StateScanning:             "scanning",
	StateFilling:              "filling",
	StateSnapshotting:         "snapshotting",
	StateAwaitingConfirmation: "awaiting_confirmation",
	StateObstacleCheck:        "obstacle_check",
	StateSubmitting:           "submitting",
	StatePostSubmitSnapshot:   "post_submit_snapshot",
	StateDone:                 "done",
	StateAborted:              "aborted",
	StateFailed:               "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted || s == StateFailed
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
