package render

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Printer turns a rendered HTML artifact into a print-ready PDF.
type Printer interface {
	Print(ctx context.Context, html []byte) ([]byte, error)
}

// ChromiumPrinter prints through headless Chromium. A browser that cannot be
// started or does not finish in time is reported as ErrPresentationUnavailable.
type ChromiumPrinter struct {
	ExecPath string
	Timeout  time.Duration
}

func (p ChromiumPrinter) Print(ctx context.Context, html []byte) ([]byte, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if p.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(p.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	runCtx, cancelRun := chromedp.NewContext(allocCtx)
	defer cancelRun()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, timeout)
	defer cancelTimeout()

	var pdf []byte
	dataURL := "data:text/html," + url.PathEscape(string(html))
	err := chromedp.Run(runCtx,
		chromedp.Navigate(dataURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, perr := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if perr == nil {
				pdf = buf
			}
			return perr
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: chromium print: %v", ErrPresentationUnavailable, err)
	}
	return pdf, nil
}
