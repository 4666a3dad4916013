package gupy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"jobwatch/internal/scrape/util"

	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "jobwatch/1.0 (+https://github.com/jobwatch)"

// maxPage caps how much of a response body is read.
const maxPage = 8 << 20

// HTTPRenderer fetches the server-rendered page.
type HTTPRenderer struct {
	hc        *http.Client
	limiter   *util.BoardLimiter
	userAgent string
}

func NewHTTPRenderer(timeout time.Duration, limiter *util.BoardLimiter, userAgent string) *HTTPRenderer {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPRenderer{
		hc:        &http.Client{Timeout: timeout},
		limiter:   limiter,
		userAgent: userAgent,
	}
}

func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	if err := r.limiter.Wait(ctx, url); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	res, err := r.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("status %d", res.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, maxPage))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}

// settle gives client-side rendering time to finish after the list shows up.
const settle = 2 * time.Second

// BrowserRenderer renders the page in headless Chrome and waits up to wait
// for the job list to appear. Requires Chrome/Chromium on the host.
type BrowserRenderer struct {
	limiter *util.BoardLimiter
	timeout time.Duration
	wait    time.Duration
}

func NewBrowserRenderer(timeout, wait time.Duration, limiter *util.BoardLimiter) *BrowserRenderer {
	return &BrowserRenderer{limiter: limiter, timeout: timeout + wait + settle, wait: wait}
}

func (r *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	if err := r.limiter.Wait(ctx, url); err != nil {
		return "", err
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// empty searches never render the list, so don't block on it
		chromedp.ActionFunc(func(ctx context.Context) error {
			wctx, cancel := context.WithTimeout(ctx, r.wait)
			defer cancel()
			_ = chromedp.WaitVisible(listSel, chromedp.ByQuery).Do(wctx)
			return nil
		}),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	return html, nil
}
