package hsct

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// searchInputSel matches the site's lookup box across its layout variants.
const searchInputSel = `input[type="search"], input[name="q"], input[name="key"]`

// BrowserConfig configures the headless Chrome session.
type BrowserConfig struct {
	BaseURL        string
	Headless       bool
	Settle         time.Duration
	NavTimeout     time.Duration
	UserAgent      string
	ExecPath       string
	DisableSandbox bool
}

// ChromeBrowser implements Browser with chromedp. One browser process is
// shared; each call opens a fresh tab so page state never bleeds between
// lookups.
type ChromeBrowser struct {
	cfg         BrowserConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromeBrowser prepares a Chrome allocator. The browser process itself
// starts lazily on the first call.
func NewChromeBrowser(cfg BrowserConfig) *ChromeBrowser {
	if cfg.Settle <= 0 {
		cfg.Settle = 2 * time.Second
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.DisableSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeBrowser{cfg: cfg, allocCtx: allocCtx, allocCancel: cancel}
}

// Close shuts the browser process down.
func (b *ChromeBrowser) Close() {
	b.allocCancel()
}

// Search opens the site, submits the lookup form with the query, and
// returns the rendered result page. The fixed settle delay gives the site's
// scripts time to populate the page.
func (b *ChromeBrowser) Search(ctx context.Context, query string) (string, error) {
	var rendered string
	err := b.run(ctx,
		chromedp.Navigate(b.cfg.BaseURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.cfg.Settle),
		chromedp.SendKeys(searchInputSel, query, chromedp.ByQuery),
		chromedp.Submit(searchInputSel, chromedp.ByQuery),
		chromedp.Sleep(b.cfg.Settle),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	)
	if err != nil {
		return "", eris.Wrapf(err, "hsct: browser search %q", query)
	}
	return rendered, nil
}

// Navigate opens an absolute URL and returns the rendered page.
func (b *ChromeBrowser) Navigate(ctx context.Context, pageURL string) (string, error) {
	var rendered string
	err := b.run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.cfg.Settle),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	)
	if err != nil {
		return "", eris.Wrapf(err, "hsct: browser navigate %s", pageURL)
	}
	return rendered, nil
}

func (b *ChromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx)
	defer cancelTab()

	// Propagate caller cancellation into the tab.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	runCtx, cancel := context.WithTimeout(tabCtx, b.cfg.NavTimeout)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}
