// Package browser provides shared chromedp configuration.
package browser

import "github.com/chromedp/chromedp"

// DefaultUserAgent identifies smoke-check traffic in the server logs
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 milho-smoke"

// Options returns chromedp allocator options.
// All browser instances should use this to ensure consistent configuration.
func Options(headless bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.UserAgent(DefaultUserAgent),

		// below the page's 720px single-column breakpoint
		chromedp.WindowSize(412, 915),

		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	return opts
}
