// internal/runner/state.go
package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// State is the set of competition links already seen and already submitted.
// It is shared with the discovery tooling through the state file.
type State struct {
	Seen      map[string]struct{}
	Submitted map[string]struct{}
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Seen: map[string]struct{}{}, Submitted: map[string]struct{}{}}
}

// MarkSubmitted records links as both submitted and seen.
func (s *State) MarkSubmitted(links ...string) {
	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		s.Seen[link] = struct{}{}
		s.Submitted[link] = struct{}{}
	}
}

// IsSubmitted reports whether link was already entered.
func (s *State) IsSubmitted(link string) bool {
	_, ok := s.Submitted[strings.TrimSpace(link)]
	return ok
}

// stateFile is the on-disk shape. Entries is the legacy list of seen links.
type stateFile struct {
	GeneratedAt string        `json:"generated_at,omitempty"`
	Seen        []interface{} `json:"seen,omitempty"`
	Submitted   []interface{} `json:"submitted,omitempty"`
	Entries     []interface{} `json:"entries,omitempty"`
}

// LoadState reads the state file. A missing, unreadable or malformed file
// yields an empty state; only the latter two are logged.
func LoadState(path string, logger *zap.Logger) *State {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to read state file; starting fresh.", zap.String("path", path), zap.Error(err))
		}
		return NewState()
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		logger.Warn("Failed to parse state file; starting fresh.", zap.String("path", path), zap.Error(err))
		return NewState()
	}
	var file stateFile
	if err := json.Unmarshal(raw, &file); err != nil {
		logger.Warn("State file has unexpected format; starting fresh.", zap.String("path", path), zap.Error(err))
		return NewState()
	}

	state := NewState()
	_, hasSeen := keys["seen"]
	_, hasSubmitted := keys["submitted"]
	_, hasEntries := keys["entries"]
	switch {
	case hasSeen || hasSubmitted:
		addLinks(state.Seen, file.Seen)
		addLinks(state.Submitted, file.Submitted)
	case hasEntries:
		addLinks(state.Seen, file.Entries)
	default:
		logger.Warn("State file has unexpected format; starting fresh.", zap.String("path", path))
	}
	return state
}

// addLinks keeps the non-blank string items of values.
func addLinks(set map[string]struct{}, values []interface{}) {
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			set[s] = struct{}{}
		}
	}
}

// SaveState writes the state with sorted link lists, replacing the file atomically.
func SaveState(path string, state *State, now time.Time) error {
	payload := struct {
		GeneratedAt string   `json:"generated_at"`
		Seen        []string `json:"seen"`
		Submitted   []string `json:"submitted"`
	}{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Seen:        sortedKeys(state.Seen),
		Submitted:   sortedKeys(state.Submitted),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace state file '%s': %w", path, err)
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
