// Package smoke drives a real browser against a running site and checks
// that posts render and that typing into the search box filters them.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/milhonews/milho/internal/browser"
)

// DOM selectors rendered by the digest template
const (
	PostList     = `#posts`
	VisiblePosts = `#posts article:not([hidden])`
	SearchInput  = `#search`
	ShownCounter = `#shown`
)

const countVisibleJS = `document.querySelectorAll('#posts article:not([hidden])').length`

// DefaultTimeout bounds a whole smoke run
const DefaultTimeout = time.Minute

// ErrNoPosts is returned when the page renders without any visible post
var ErrNoPosts = errors.New("no posts rendered")

// Options configures a smoke run
type Options struct {
	URL      string
	Query    string
	Headless bool
	Timeout  time.Duration
}

// Report is what the browser saw
type Report struct {
	Before  int    `json:"before"`
	After   int    `json:"after"`
	Shown   string `json:"shown"`
	FirstID string `json:"first_id"`
}

// Run opens opts.URL, counts the visible posts, types opts.Query into the
// search box and counts again.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.Options(opts.Headless)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, opts.Timeout)
	defer timeoutCancel()

	slog.InfoContext(ctx, "smoke run starting", "component", "smoke", "url", opts.URL, "query", opts.Query)

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(opts.URL),
		chromedp.WaitReady(PostList, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	var nodes []*cdp.Node
	if err := chromedp.Run(browserCtx,
		chromedp.Nodes(VisiblePosts, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if len(nodes) == 0 {
		return nil, ErrNoPosts
	}

	report := &Report{Before: len(nodes)}
	if id, ok := nodes[0].Attribute("data-id"); ok {
		report.FirstID = id
	}

	if opts.Query == "" {
		report.After = report.Before
	} else {
		if err := chromedp.Run(browserCtx,
			chromedp.SendKeys(SearchInput, opts.Query, chromedp.ByQuery),
			chromedp.Evaluate(countVisibleJS, &report.After),
		); err != nil {
			return nil, fmt.Errorf("failed to search: %w", err)
		}
	}

	if err := chromedp.Run(browserCtx,
		chromedp.Text(ShownCounter, &report.Shown, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to read counter: %w", err)
	}

	slog.InfoContext(ctx, "smoke run finished",
		"component", "smoke",
		"before", report.Before,
		"after", report.After,
		"first_id", report.FirstID)

	return report, nil
}
