// internal/browser/exec.go
package browser

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrBrowserNotFound is returned when no usable browser executable could be located.
var ErrBrowserNotFound = errors.New("no Chrome or Chromium executable available")

// errNotApplicable lets a strategy defer to the next one in the chain.
var errNotApplicable = errors.New("strategy not applicable")

// ExecStrategy resolves the browser executable for a session.
type ExecStrategy interface {
	Name() string
	// Resolve returns an absolute or PATH-resolvable executable, or
	// errNotApplicable to let the next strategy try.
	Resolve(explicit string) (string, error)
}

// ExecPathStrategy uses an explicitly configured executable.
type ExecPathStrategy struct {
	stat func(string) (os.FileInfo, error)
}

// Name implements ExecStrategy.
func (ExecPathStrategy) Name() string { return "explicit path" }

// Resolve implements ExecStrategy.
func (s ExecPathStrategy) Resolve(explicit string) (string, error) {
	if strings.TrimSpace(explicit) == "" {
		return "", errNotApplicable
	}
	stat := s.stat
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(explicit)
	if err != nil {
		return "", fmt.Errorf("configured browser executable '%s' is not usable: %w", explicit, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("configured browser executable '%s' is a directory", explicit)
	}
	return explicit, nil
}

// DiscoveryStrategy looks for a locally installed Chrome or Chromium, first on
// PATH and then at the usual install locations of the platform.
type DiscoveryStrategy struct {
	lookPath   func(string) (string, error)
	candidates []string
}

// NewDiscoveryStrategy returns a strategy with the candidates of the running platform.
func NewDiscoveryStrategy() DiscoveryStrategy {
	return DiscoveryStrategy{lookPath: exec.LookPath, candidates: platformCandidates(runtime.GOOS)}
}

// Name implements ExecStrategy.
func (DiscoveryStrategy) Name() string { return "platform discovery" }

// Resolve implements ExecStrategy. The explicit path is ignored.
func (s DiscoveryStrategy) Resolve(string) (string, error) {
	lookPath := s.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, candidate := range s.candidates {
		if path, err := lookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("none of %d known browser locations exist", len(s.candidates))
}

func platformCandidates(goos string) []string {
	switch goos {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"google-chrome",
			"chromium",
		}
	case "windows":
		return []string{
			"chrome",
			"chrome.exe",
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		}
	default:
		return []string{
			"headless_shell",
			"headless-shell",
			"chromium",
			"chromium-browser",
			"google-chrome",
			"google-chrome-stable",
			"google-chrome-beta",
			"/usr/bin/google-chrome",
			"/usr/local/bin/chrome",
			"/snap/bin/chromium",
			"chrome",
		}
	}
}

// ExecResolver runs its strategies in order and returns the first hit.
type ExecResolver struct {
	strategies []ExecStrategy
}

// NewExecResolver builds a resolver. With no strategies it uses the explicit
// path strategy followed by platform discovery.
func NewExecResolver(strategies ...ExecStrategy) *ExecResolver {
	if len(strategies) == 0 {
		strategies = []ExecStrategy{ExecPathStrategy{}, NewDiscoveryStrategy()}
	}
	return &ExecResolver{strategies: strategies}
}

// Resolve returns the browser executable to launch. The first strategy that
// applies decides; a configured path that is unusable is not silently replaced
// by a discovered one. A failure names both remedies.
func (r *ExecResolver) Resolve(explicit string) (string, error) {
	detail := ""
	for _, strategy := range r.strategies {
		path, err := strategy.Resolve(explicit)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, errNotApplicable) {
			continue
		}
		detail = fmt.Sprintf(" (%s: %v)", strategy.Name(), err)
		break
	}
	return "", fmt.Errorf("%w%s. Install Google Chrome or Chromium so it is on PATH, or set webdriver_path to the browser executable", ErrBrowserNotFound, detail)
}
