// File: internal/browser/capture.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/domsnapshot"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/internal/config"
	"github.com/xkilldash9x/scalpel-locator/internal/dom/snapshot"
)

// Capturer renders pages in Chrome and converts them into snapshot documents.
// The browser process is started on first use and shared by every capture
// until Close.
type Capturer struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewCapturer creates a Capturer. No browser is launched yet.
func NewCapturer(logger *zap.Logger, cfg config.BrowserConfig) *Capturer {
	return &Capturer{logger: logger.Named("capture"), cfg: cfg}
}

// allocatorFlags are the command line switches the browser is launched with,
// on top of chromedp's defaults.
func allocatorFlags(cfg config.BrowserConfig) map[string]any {
	flags := map[string]any{
		"headless":                  cfg.Headless,
		"enable-automation":         false,
		"ignore-certificate-errors": cfg.IgnoreTLSErrors,
		"disable-blink-features":    "AutomationControlled",
		"disable-extensions":        true,
		"disable-gpu":               cfg.Headless,
		"hide-scrollbars":           true,
	}

	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			flags[name] = value
		} else {
			flags[name] = true
		}
	}

	// Containers (Docker on Linux) cannot use the setuid sandbox.
	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
		flags["disable-dev-shm-usage"] = true
		flags["disable-setuid-sandbox"] = true
	}
	return flags
}

func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	flags := allocatorFlags(cfg)
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, flags[name]))
	}
	return append(opts, chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight))
}

func (c *Capturer) allocator() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.allocCtx == nil {
		c.logger.Info("Launching browser allocator.", zap.Bool("headless", c.cfg.Headless))
		c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(c.cfg)...)
	}
	return c.allocCtx
}

// Capture navigates a fresh tab to url, waits for the page to settle and
// returns a snapshot of its main frame.
func (c *Capturer) Capture(ctx context.Context, url string) (*snapshot.Document, error) {
	tabCtx, cancelTab := chromedp.NewContext(c.allocator())
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	navCtx, cancelNav := context.WithTimeout(tabCtx, c.cfg.NavigationTimeout)
	defer cancelNav()

	var (
		docs []*domsnapshot.DocumentSnapshot
		strs []string
	)
	err := chromedp.Run(navCtx,
		chromedp.EmulateViewport(int64(c.cfg.ViewportWidth), int64(c.cfg.ViewportHeight)),
		chromedp.Navigate(url),
		chromedp.Sleep(c.cfg.SettleTime),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			docs, strs, err = domsnapshot.CaptureSnapshot(snapshot.ComputedStyles).Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to capture %s: %w", url, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("capture of %s returned no documents", url)
	}

	doc, err := snapshot.FromDOMSnapshot(url, docs[0], strs)
	if err != nil {
		return nil, fmt.Errorf("failed to convert snapshot of %s: %w", url, err)
	}
	c.logger.Debug("Captured page.", zap.String("url", url), zap.Int("frames", len(docs)))
	return doc, nil
}

// Close terminates the browser process, if one was started.
func (c *Capturer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.allocCancel != nil {
		c.allocCancel()
		c.allocCtx, c.allocCancel = nil, nil
	}
}
