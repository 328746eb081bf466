// internal/browser/browser_setup_test.go
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/autoentry/internal/config"
)

const testTimeout = 45 * time.Second

// newTestSession launches a headless browser for one test. The test is
// skipped when no Chrome or Chromium can be found or started.
func newTestSession(t *testing.T) *chromeSession {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	resolver := NewExecResolver()
	if _, err := resolver.Resolve(""); err != nil {
		t.Skipf("no browser available: %v", err)
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	launcher := NewChromeLauncher(logger, config.BrowserConfig{LaunchTimeout: 30 * time.Second}, resolver)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	session, err := launcher.Launch(ctx, LaunchOptions{Headless: true})
	if err != nil {
		t.Skipf("browser could not be started: %v", err)
	}

	cs := session.(*chromeSession)
	t.Cleanup(func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer closeCancel()
		_ = cs.Close(closeCtx)
	})
	return cs
}

// createStaticTestServer serves markup on every path.
func createStaticTestServer(t *testing.T, markup string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, markup)
	}))
	t.Cleanup(server.Close)
	return server
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}
