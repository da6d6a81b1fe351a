package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// FakeDriver is a scripted browser.Driver replacement. Evaluate results
// and current URLs are consumed in order, with the last entry repeating;
// every call is recorded for assertions.
type FakeDriver struct {
	mu sync.Mutex

	Started bool
	Stopped bool

	NavigatedURLs []string
	Keys          []string
	Screenshots   []string
	EvalExprs     []string

	urls        []string
	content     string
	evalResults []evalResult

	// EvalFunc, when set, overrides the scripted Evaluate results.
	EvalFunc func(expr string) (any, error)

	StartErr    error
	NavigateErr error
}

type evalResult struct {
	value any
	err   error
}

// NewFakeDriver creates an empty fake driver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// SetContent sets the page content returned by PageContent.
func (d *FakeDriver) SetContent(content string) *FakeDriver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content = content
	return d
}

// PushURL appends a URL to the CurrentURL script.
func (d *FakeDriver) PushURL(url string) *FakeDriver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	return d
}

// QueueEval appends a scripted Evaluate result.
func (d *FakeDriver) QueueEval(value any) *FakeDriver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.evalResults = append(d.evalResults, evalResult{value: value})
	return d
}

// QueueEvalErr appends a scripted Evaluate error.
func (d *FakeDriver) QueueEvalErr(err error) *FakeDriver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.evalResults = append(d.evalResults, evalResult{err: err})
	return d
}

func (d *FakeDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.StartErr != nil {
		return d.StartErr
	}
	d.Started = true
	return nil
}

func (d *FakeDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Stopped = true
	return nil
}

func (d *FakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.NavigateErr != nil {
		return d.NavigateErr
	}
	d.NavigatedURLs = append(d.NavigatedURLs, url)
	d.urls = append(d.urls, url)
	return nil
}

func (d *FakeDriver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.urls) == 0 {
		return "", nil
	}
	url := d.urls[0]
	if len(d.urls) > 1 {
		d.urls = d.urls[1:]
	}
	return url, nil
}

func (d *FakeDriver) PageContent(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content, nil
}

func (d *FakeDriver) Screenshot(ctx context.Context, path string, fullPage bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Screenshots = append(d.Screenshots, path)
	return nil
}

func (d *FakeDriver) Evaluate(ctx context.Context, expr string, out any) error {
	d.mu.Lock()
	d.EvalExprs = append(d.EvalExprs, expr)
	override := d.EvalFunc

	var res evalResult
	if override == nil {
		if len(d.evalResults) == 0 {
			res = evalResult{value: true}
		} else {
			res = d.evalResults[0]
			if len(d.evalResults) > 1 {
				d.evalResults = d.evalResults[1:]
			}
		}
	}
	d.mu.Unlock()

	if override != nil {
		value, err := override(expr)
		if err != nil {
			return err
		}
		return assign(value, out)
	}
	if res.err != nil {
		return res.err
	}
	return assign(res.value, out)
}

func (d *FakeDriver) SendKey(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Keys = append(d.Keys, key)
	return nil
}

// assign copies a scripted value into the caller's out pointer via a JSON
// round trip, mirroring how chromedp decodes evaluate results.
func assign(value, out any) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("bad scripted eval value: %w", err)
	}
	return json.Unmarshal(data, out)
}
