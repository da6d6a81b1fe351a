// Package browser provides the browser driving layer of the smoke suite:
// a driver contract, a chromedp implementation, polling wait helpers and
// the executor that maps model actions onto driver calls.
package browser

import (
	"context"
	"fmt"
	"time"
)

// Config configures a browser session.
type Config struct {
	Headless       bool          `json:"headless" yaml:"headless"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
	ViewportWidth  int           `json:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int           `json:"viewport_height" yaml:"viewport_height"`
	UserAgent      string        `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	// AllowedDomains restricts navigation; empty means unrestricted.
	AllowedDomains []string `json:"allowed_domains,omitempty" yaml:"allowed_domains,omitempty"`
}

// DefaultConfig returns sensible defaults for a local smoke run.
func DefaultConfig() Config {
	return Config{
		Headless:       true,
		Timeout:        30 * time.Second,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AllowedDomains: []string{"localhost", "127.0.0.1"},
	}
}

// Driver is the browser session contract the rest of the suite programs
// against. Exactly one sequential test run owns a driver; no locking is
// required by callers.
type Driver interface {
	// Start launches the browser session.
	Start(ctx context.Context) error
	// Stop releases the browser session. Safe to call after a failed Start.
	Stop() error
	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error
	// CurrentURL returns the active page URL.
	CurrentURL(ctx context.Context) (string, error)
	// PageContent returns the serialized DOM of the active page.
	PageContent(ctx context.Context) (string, error)
	// Screenshot writes a capture of the active page to path.
	Screenshot(ctx context.Context, path string, fullPage bool) error
	// Evaluate runs a JavaScript expression and decodes its result into out.
	Evaluate(ctx context.Context, expr string, out any) error
	// SendKey dispatches a keyboard key to the focused element.
	SendKey(ctx context.Context, key string) error
}

// TimeoutError reports an expired polling wait.
type TimeoutError struct {
	What    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.What)
}
