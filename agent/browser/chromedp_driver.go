package browser

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// ChromeDPDriver implements Driver on top of chromedp.
type ChromeDPDriver struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	config      Config
	started     bool
	logger      *zap.Logger
	mu          sync.Mutex
}

// NewChromeDPDriver creates a chromedp driver. The browser process is not
// launched until Start.
func NewChromeDPDriver(config Config, logger *zap.Logger) *ChromeDPDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromeDPDriver{
		config: config,
		logger: logger.With(zap.String("component", "chromedp_driver")),
	}
}

// Start launches the browser process.
func (d *ChromeDPDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.config.Headless),
		chromedp.WindowSize(d.config.ViewportWidth, d.config.ViewportHeight),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if d.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(d.config.UserAgent))
	}

	d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	d.ctx, d.cancel = chromedp.NewContext(d.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			d.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	if err := chromedp.Run(d.ctx); err != nil {
		d.allocCancel()
		d.cancel()
		d.allocCtx, d.allocCancel, d.ctx, d.cancel = nil, nil, nil, nil
		return fmt.Errorf("failed to start browser: %w", err)
	}

	d.started = true
	d.logger.Info("chromedp browser started",
		zap.Bool("headless", d.config.Headless),
		zap.Int("viewport_w", d.config.ViewportWidth),
		zap.Int("viewport_h", d.config.ViewportHeight))
	return nil
}

// Stop closes the browser. It is safe to call on a driver that never
// started, so cleanup can run unconditionally on every exit path.
func (d *ChromeDPDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}
	d.logger.Info("closing chromedp browser")
	d.cancel()
	d.allocCancel()
	d.started = false
	return nil
}

// opCtx derives the context a single browser operation runs against. When
// Config.Timeout is set it bounds the call, so a hung navigation or eval
// fails instead of blocking forever. Callers must hold d.mu.
func (d *ChromeDPDriver) opCtx() (context.Context, context.CancelFunc) {
	if d.config.Timeout <= 0 {
		return d.ctx, func() {}
	}
	return context.WithTimeout(d.ctx, d.config.Timeout)
}

// Navigate loads url, enforcing the allowed-domains guard.
func (d *ChromeDPDriver) Navigate(ctx context.Context, rawURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return fmt.Errorf("browser not started")
	}
	if err := d.checkDomain(rawURL); err != nil {
		return err
	}

	d.logger.Debug("navigating", zap.String("url", rawURL))
	opCtx, cancel := d.opCtx()
	defer cancel()
	return chromedp.Run(opCtx, chromedp.Navigate(rawURL))
}

func (d *ChromeDPDriver) checkDomain(rawURL string) error {
	if len(d.config.AllowedDomains) == 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	host := parsed.Hostname()
	for _, allowed := range d.config.AllowedDomains {
		if strings.EqualFold(host, allowed) {
			return nil
		}
	}
	return fmt.Errorf("navigation to %q blocked: host %q not in allowed domains", rawURL, host)
}

// CurrentURL returns the active page URL.
func (d *ChromeDPDriver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return "", fmt.Errorf("browser not started")
	}
	opCtx, cancel := d.opCtx()
	defer cancel()
	var current string
	if err := chromedp.Run(opCtx, chromedp.Location(&current)); err != nil {
		return "", fmt.Errorf("failed to get URL: %w", err)
	}
	return current, nil
}

// PageContent returns the serialized DOM of the active page.
func (d *ChromeDPDriver) PageContent(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return "", fmt.Errorf("browser not started")
	}
	opCtx, cancel := d.opCtx()
	defer cancel()
	var content string
	err := chromedp.Run(opCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			content, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	return content, nil
}

// Screenshot writes a capture of the active page to path, creating parent
// directories as needed.
func (d *ChromeDPDriver) Screenshot(ctx context.Context, path string, fullPage bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return fmt.Errorf("browser not started")
	}
	var buf []byte
	var capture chromedp.Action
	if fullPage {
		capture = chromedp.FullScreenshot(&buf, 90)
	} else {
		capture = chromedp.CaptureScreenshot(&buf)
	}
	opCtx, cancel := d.opCtx()
	defer cancel()
	if err := chromedp.Run(opCtx, capture); err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}

	d.logger.Debug("screenshot saved", zap.String("path", path), zap.Bool("full_page", fullPage))
	return nil
}

// Evaluate runs a JavaScript expression and decodes the result into out.
func (d *ChromeDPDriver) Evaluate(ctx context.Context, expr string, out any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return fmt.Errorf("browser not started")
	}
	opCtx, cancel := d.opCtx()
	defer cancel()
	return chromedp.Run(opCtx, chromedp.Evaluate(expr, out))
}

// SendKey dispatches a keyboard key by name (Enter, Tab, Escape, ...) or
// sends the literal runes for anything unrecognized.
func (d *ChromeDPDriver) SendKey(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return fmt.Errorf("browser not started")
	}
	d.logger.Debug("sending key", zap.String("key", key))
	opCtx, cancel := d.opCtx()
	defer cancel()
	return chromedp.Run(opCtx, chromedp.KeyEvent(namedKey(key)))
}

func namedKey(key string) string {
	switch key {
	case "Enter", "enter":
		return kb.Enter
	case "Tab", "tab":
		return kb.Tab
	case "Escape", "escape", "Esc":
		return kb.Escape
	case "Backspace", "backspace":
		return kb.Backspace
	case "ArrowUp":
		return kb.ArrowUp
	case "ArrowDown":
		return kb.ArrowDown
	case "ArrowLeft":
		return kb.ArrowLeft
	case "ArrowRight":
		return kb.ArrowRight
	default:
		return key
	}
}
