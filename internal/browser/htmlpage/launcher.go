// internal/browser/htmlpage/launcher.go
package htmlpage

import (
	"context"
	"sync"

	"github.com/xkilldash9x/autoentry/internal/browser"
)

// Launcher hands out pages parsed from fixed markup, whatever URL is opened later.
type Launcher struct {
	markup string

	mu       sync.Mutex
	sessions []*Page
}

var _ browser.Launcher = (*Launcher)(nil)

// NewLauncher creates a launcher serving markup.
func NewLauncher(markup string) *Launcher {
	return &Launcher{markup: markup}
}

// LoadLauncher creates a launcher serving the page saved at path.
func LoadLauncher(path string) (*Launcher, error) {
	markup, err := readMarkup(path)
	if err != nil {
		return nil, err
	}
	if _, err := New(markup); err != nil {
		return nil, err
	}
	return NewLauncher(markup), nil
}

// Launch implements browser.Launcher. Options are ignored.
func (l *Launcher) Launch(ctx context.Context, _ browser.LaunchOptions) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := New(l.markup)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.sessions = append(l.sessions, page)
	l.mu.Unlock()
	return page, nil
}

// LastPage returns the most recently launched page, or nil.
func (l *Launcher) LastPage() *Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sessions) == 0 {
		return nil
	}
	return l.sessions[len(l.sessions)-1]
}
