// Package capture screenshots web pages with headless Chromium.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const DefaultTimeout = 30 * time.Second

// Options defines a single page capture.
type Options struct {
	URL string

	// Width and Height are the viewport size in pixels.
	Width  int
	Height int

	// WaitSelector, when set, is waited on (visible) before the screenshot.
	WaitSelector string

	// Settle is an extra delay before the screenshot for late paints.
	Settle time.Duration

	Timeout time.Duration
}

// Capturer returns a PNG screenshot of a page.
type Capturer interface {
	Capture(ctx context.Context, opts Options) ([]byte, error)
}

// Chromium drives a fresh headless browser per capture.
type Chromium struct {
	// AllocatorOptions are appended to chromedp's defaults, e.g. to point at
	// a specific Chromium binary.
	AllocatorOptions []chromedp.ExecAllocatorOption
}

func NewChromium(opts ...chromedp.ExecAllocatorOption) *Chromium {
	return &Chromium{AllocatorOptions: opts}
}

// Capture navigates to opts.URL with the given viewport and returns a
// viewport-sized PNG.
func (c *Chromium) Capture(parent context.Context, opts Options) ([]byte, error) {
	if opts.URL == "" {
		return nil, errors.New("capture: URL is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("capture: invalid viewport %dx%d", opts.Width, opts.Height)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}

	ctx := parent
	if len(c.AllocatorOptions) > 0 {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], c.AllocatorOptions...)
		var cancelAlloc context.CancelFunc
		ctx, cancelAlloc = chromedp.NewExecAllocator(parent, allocOpts...)
		defer cancelAlloc()
	}

	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
	}
	if opts.WaitSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery))
	}
	tasks = append(tasks,
		chromedp.Sleep(opts.Settle),
		chromedp.CaptureScreenshot(&png),
	)

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return png, nil
}
