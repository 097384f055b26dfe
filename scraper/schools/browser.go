package schools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"medschool-scraper/extractor"
	"medschool-scraper/utils"
)

// settleDelay gives client-side scripts time to render before the DOM is read.
const settleDelay = 3 * time.Second

// BrowserFetcher renders pages in headless Chrome, for school sites that build
// their content with JavaScript.
type BrowserFetcher struct {
	logger  *utils.Logger
	timeout time.Duration

	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelTab   context.CancelFunc
}

// NewBrowserFetcher starts one browser process shared by every Fetch. chromeBin
// may be empty, in which case a local Chrome or Chromium is looked up.
func NewBrowserFetcher(ctx context.Context, chromeBin, userAgent string, timeout time.Duration, logger *utils.Logger) (*BrowserFetcher, error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", displayBinary(chromeBin))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	// Suppress chromedp log noise
	browserCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Launch eagerly so a missing binary fails here and not on the first seed.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start chrome: %w", err)
	}

	return &BrowserFetcher{
		logger:      logger,
		timeout:     timeout,
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancelTab:   cancelTab,
	}, nil
}

func (b *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (extractor.Document, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	// Tie the tab to the caller's context as well as the browser's.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var markup, finalURL string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(settleDelay),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("browser: render %s: %w", pageURL, err)
	}
	if finalURL == "" {
		finalURL = pageURL
	}

	b.logger.Debug("[browser] Rendered %s (%d bytes)", finalURL, len(markup))
	doc, err := extractor.ParseHTML(finalURL, []byte(markup))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() error {
	b.cancelTab()
	b.cancelAlloc()
	return nil
}

func displayBinary(bin string) string {
	if bin == "" {
		return "(chromedp default)"
	}
	return bin
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
