// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoentry/internal/config"
)

// ChromeLauncher starts one Chrome process per session through chromedp.
type ChromeLauncher struct {
	logger   *zap.Logger
	cfg      config.BrowserConfig
	resolver *ExecResolver
}

var _ Launcher = (*ChromeLauncher)(nil)

// NewChromeLauncher creates a launcher. A nil resolver uses the default strategy chain.
func NewChromeLauncher(logger *zap.Logger, cfg config.BrowserConfig, resolver *ExecResolver) *ChromeLauncher {
	if resolver == nil {
		resolver = NewExecResolver()
	}
	return &ChromeLauncher{
		logger:   logger.Named("browser_launcher"),
		cfg:      cfg,
		resolver: resolver,
	}
}

// Launch resolves the executable, starts the browser and verifies that it responds.
func (l *ChromeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	execPath, err := l.resolver.Resolve(opts.ExecPath)
	if err != nil {
		return nil, err
	}
	l.logger.Info("Initializing browser allocator...", zap.String("exec_path", execPath), zap.Bool("headless", opts.Headless))

	// The process must outlive ctx; Session.Close owns its lifetime.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), l.buildAllocatorOptions(execPath, opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(l.logger.Sugar().Debugf),
		chromedp.WithErrorf(l.logger.Sugar().Debugf),
	)

	// The first Run allocates the browser and must not carry a deadline.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser failed to start: %w", err)
	}

	timeout := l.cfg.LaunchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	checkCtx, checkCancel := CombineContext(browserCtx, ctx)
	defer checkCancel()
	checkCtx, cancelTimeout := context.WithTimeout(checkCtx, timeout)
	defer cancelTimeout()

	if err := chromedp.Run(checkCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	l.logger.Info("Browser launched successfully and is responsive.")
	return newChromeSession(l.logger, allocCancel, browserCtx, browserCancel), nil
}

// buildAllocatorOptions assembles the Chrome flags for a session.
func (l *ChromeLauncher) buildAllocatorOptions(execPath string, opts LaunchOptions) []chromedp.ExecAllocatorOption {
	// Flags set later override the defaults of the same name.
	allocOpts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)

	allocOpts = append(allocOpts,
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("hide-scrollbars", opts.Headless),
		chromedp.Flag("mute-audio", opts.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", opts.Headless),
		chromedp.WindowSize(1280, 1024),
	)

	// Custom arguments from config.yaml.
	for _, f := range parseFlagArgs(l.cfg.Args) {
		allocOpts = append(allocOpts, chromedp.Flag(f.name, f.value))
	}

	// Containers (Docker on Linux) need the sandbox disabled.
	if runtime.GOOS == "linux" {
		allocOpts = append(allocOpts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return allocOpts
}

type flagArg struct {
	name  string
	value interface{}
}

// parseFlagArgs turns "--name=value" and "--name" strings into chromedp flags.
func parseFlagArgs(args []string) []flagArg {
	flags := make([]flagArg, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
		name := strings.TrimLeft(parts[0], "-")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags = append(flags, flagArg{name: name, value: parts[1]})
		} else {
			flags = append(flags, flagArg{name: name, value: true})
		}
	}
	return flags
}
