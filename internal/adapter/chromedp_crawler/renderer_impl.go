package chromedp_crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/proxy"
)

// RendererImpl provides a concrete implementation for the PageRenderer interface using chromedp.
// One browser process is shared; every Render opens and closes its own tab.
type RendererImpl struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

// NewRenderer starts a headless browser allocator. The user agent and proxy
// are picked once from the manager for the lifetime of the browser.
func NewRenderer(pageLoadTimeout time.Duration, proxies *proxy.Manager, logger *zap.Logger) *RendererImpl {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(proxies.GetUserAgent()),
	)
	if p := proxies.GetProxy(); p != "" {
		opts = append(opts, chromedp.ProxyServer(p))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &RendererImpl{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		timeout:     pageLoadTimeout,
		logger:      logger,
	}
}

// Render navigates to url, waits for opts.WaitSelector (or body), clicks every
// element matching opts.ExpandSelector, waits opts.Settle and returns the
// document's outer HTML.
func (r *RendererImpl) Render(ctx context.Context, url string, opts entity.RenderOptions) (string, error) {
	taskCtx, cancel := chromedp.NewContext(r.allocCtx, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer cancel()

	// Tie the tab to the caller's context as well as the page timeout.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if r.timeout > 0 {
		var timeoutCancel context.CancelFunc
		taskCtx, timeoutCancel = context.WithTimeout(taskCtx, r.timeout)
		defer timeoutCancel()
	}

	wait := opts.WaitSelector
	if wait == "" {
		wait = "body"
	}

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitVisible(wait, chromedp.ByQuery),
	}
	var clicked int
	if opts.ExpandSelector != "" {
		actions = append(actions, chromedp.Evaluate(expandScript(opts.ExpandSelector), &clicked))
	}
	if opts.Settle > 0 {
		actions = append(actions, chromedp.Sleep(opts.Settle))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	startTime := time.Now()
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}

	r.logger.Info("rendered page",
		zap.String("url", url),
		zap.Int("expanded", clicked),
		zap.Duration("elapsed", time.Since(startTime)),
	)
	return html, nil
}

// Close shuts the browser down.
func (r *RendererImpl) Close() {
	r.allocCancel()
}

// expandScript clicks every element matching selector and returns how many
// were clicked.
func expandScript(selector string) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`(() => {
	const els = document.querySelectorAll(%s);
	els.forEach((el) => el.click());
	return els.length;
})()`, quoted)
}
