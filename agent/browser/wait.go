package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// WaitConfig bounds a polling wait.
type WaitConfig struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultWaitConfig polls every 200ms for up to 10s.
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{Interval: 200 * time.Millisecond, Timeout: 10 * time.Second}
}

func (w WaitConfig) withDefaults() WaitConfig {
	if w.Interval <= 0 {
		w.Interval = 200 * time.Millisecond
	}
	if w.Timeout <= 0 {
		w.Timeout = 10 * time.Second
	}
	return w
}

// poll runs probe every interval until it reports done, the deadline
// expires, or ctx is cancelled. Cancellation unwinds immediately so a
// caller's deferred cleanup can release the browser session.
func poll(ctx context.Context, cfg WaitConfig, what string, probe func(context.Context) (bool, error)) error {
	cfg = cfg.withDefaults()
	deadline := time.Now().Add(cfg.Timeout)
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		done, err := probe(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return &TimeoutError{What: what, Timeout: cfg.Timeout}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// selectorLiteral embeds a selector into JavaScript as a quoted string.
func selectorLiteral(selector string) string {
	b, _ := json.Marshal(selector)
	return string(b)
}

// WaitForSelector polls until the selector matches an element that is not
// a disabled button.
func WaitForSelector(ctx context.Context, d Driver, selector string, cfg WaitConfig) error {
	lit := selectorLiteral(selector)
	expr := fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  return !!(el && !(el instanceof HTMLButtonElement && el.disabled));
})()`, lit)

	return poll(ctx, cfg, fmt.Sprintf("selector %s", selector), func(ctx context.Context) (bool, error) {
		var ready bool
		if err := d.Evaluate(ctx, expr, &ready); err != nil {
			return false, err
		}
		return ready, nil
	})
}

// WaitForPath polls until the current URL path starts with prefix and
// returns the matching URL.
func WaitForPath(ctx context.Context, d Driver, prefix string, cfg WaitConfig) (string, error) {
	var matched string
	err := poll(ctx, cfg, fmt.Sprintf("path prefix %s", prefix), func(ctx context.Context) (bool, error) {
		current, err := d.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		if current == "" {
			return false, nil
		}
		parsed, err := url.Parse(current)
		if err != nil {
			return false, nil
		}
		if strings.HasPrefix(parsed.Path, prefix) {
			matched = current
			return true, nil
		}
		return false, nil
	})
	return matched, err
}

// WaitForText polls until the page content contains text
// (case-insensitive).
func WaitForText(ctx context.Context, d Driver, text string, cfg WaitConfig) error {
	needle := strings.ToLower(text)
	return poll(ctx, cfg, fmt.Sprintf("text %q", text), func(ctx context.Context) (bool, error) {
		content, err := d.PageContent(ctx)
		if err != nil {
			return false, err
		}
		return strings.Contains(strings.ToLower(content), needle), nil
	})
}

// ClickSelector clicks the element matching selector on the active page.
func ClickSelector(ctx context.Context, d Driver, selector string) error {
	lit := selectorLiteral(selector)
	expr := fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) {
    throw new Error('Element not found for selector ' + %s);
  }
  if (el instanceof HTMLButtonElement && el.disabled) {
    throw new Error('Element disabled for selector ' + %s);
  }
  el.click();
  return true;
})()`, lit, lit, lit)

	var clicked bool
	return d.Evaluate(ctx, expr, &clicked)
}

// ClickText clicks the first clickable element whose visible text matches
// text exactly after trimming.
func ClickText(ctx context.Context, d Driver, text string) error {
	lit := selectorLiteral(text)
	expr := fmt.Sprintf(`(() => {
  const wanted = %s.trim();
  const candidates = document.querySelectorAll('button, a, [role="button"], input[type="submit"]');
  for (const el of candidates) {
    const label = (el.innerText || el.value || '').trim();
    if (label === wanted) {
      el.click();
      return true;
    }
  }
  throw new Error('No clickable element with text ' + %s);
})()`, lit, lit)

	var clicked bool
	return d.Evaluate(ctx, expr, &clicked)
}

// TypeIntoSelector focuses the element, sets its value and fires an input
// event. With submit set, an Enter key is dispatched afterwards.
func TypeIntoSelector(ctx context.Context, d Driver, selector, text string, submit bool) error {
	selLit := selectorLiteral(selector)
	textLit := selectorLiteral(text)
	expr := fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) {
    throw new Error('Element not found for selector ' + %s);
  }
  el.focus();
  el.value = %s;
  el.dispatchEvent(new Event('input', { bubbles: true }));
  el.dispatchEvent(new Event('change', { bubbles: true }));
  return true;
})()`, selLit, selLit, textLit)

	var typed bool
	if err := d.Evaluate(ctx, expr, &typed); err != nil {
		return err
	}
	if submit {
		return d.SendKey(ctx, "Enter")
	}
	return nil
}

// SelectOption sets the value of a select element and fires a change
// event.
func SelectOption(ctx context.Context, d Driver, selector, value string) error {
	selLit := selectorLiteral(selector)
	valLit := selectorLiteral(value)
	expr := fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) {
    throw new Error('Element not found for selector ' + %s);
  }
  el.value = %s;
  el.dispatchEvent(new Event('change', { bubbles: true }));
  return true;
})()`, selLit, selLit, valLit)

	var selected bool
	return d.Evaluate(ctx, expr, &selected)
}

// ScrollTo scrolls to the top or bottom of the page, or brings the element
// matching selector into view.
func ScrollTo(ctx context.Context, d Driver, to, selector string) error {
	var expr string
	switch {
	case selector != "":
		lit := selectorLiteral(selector)
		expr = fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) {
    throw new Error('Element not found for selector ' + %s);
  }
  el.scrollIntoView({ block: 'center' });
  return true;
})()`, lit, lit)
	case to == "top":
		expr = `(() => { window.scrollTo(0, 0); return true; })()`
	case to == "bottom":
		expr = `(() => { window.scrollTo(0, document.body.scrollHeight); return true; })()`
	default:
		return fmt.Errorf("scroll needs a selector or to=top|bottom, got to=%q", to)
	}

	var scrolled bool
	return d.Evaluate(ctx, expr, &scrolled)
}
