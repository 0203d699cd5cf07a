package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/milhonews/milho/internal/config"
	"github.com/milhonews/milho/internal/feed"
	"github.com/milhonews/milho/internal/summary"
	"github.com/milhonews/milho/internal/types"
	"github.com/milhonews/milho/internal/upstream"
)

// ErrUnknownSection is returned when a page is requested for a section that is not configured
var ErrUnknownSection = errors.New("unknown section")

// Fetcher is the upstream surface the app needs
type Fetcher interface {
	FetchPosts(ctx context.Context, path string) ([]types.Post, error)
	FetchSummary(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

// Page is everything needed to render one section
type Page struct {
	Section types.Section `json:"section"`
	Query   string        `json:"query"`
	Topics  []types.Topic `json:"topics"`
	Posts   []types.Post  `json:"posts"` // after filtering
	All     []types.Post  `json:"-"`     // before filtering, for live search in the browser
	Total   int           `json:"total"` // len(All)
}

// App holds the application state.
type App struct {
	mu sync.RWMutex

	// Mutable fields - use getSnapshot() for concurrent access.
	config  *config.Config
	fetcher Fetcher
}

// snapshot holds fields that may be replaced by ReloadConfig.
type snapshot struct {
	config  *config.Config
	fetcher Fetcher
}

func (s snapshot) section(name string) (types.Section, bool) {
	for _, sec := range s.config.Sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return types.Section{}, false
}

// getSnapshot returns a snapshot of mutable fields under read lock.
func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{
		config:  a.config,
		fetcher: a.fetcher,
	}
}

// New creates a new App instance.
func New(cfg *config.Config, fetcher Fetcher) *App {
	return &App{
		config:  cfg,
		fetcher: fetcher,
	}
}

// Config returns the current configuration
func (a *App) Config() *config.Config {
	return a.getSnapshot().config
}

// Sections lists the configured sections in display order
func (a *App) Sections() []types.Section {
	return append([]types.Section(nil), a.getSnapshot().config.Sections...)
}

// DefaultSection is the first configured section
func (a *App) DefaultSection() types.Section {
	return a.getSnapshot().config.Sections[0]
}

// Section looks up a configured section by name
func (a *App) Section(name string) (types.Section, bool) {
	return a.getSnapshot().section(name)
}

// Load fetches the section's posts and, when the section shows it, the summary.
// The two fetches run concurrently and independently: a failed fetch is logged
// and leaves its part of the page empty. Posts are filtered by query.
func (a *App) Load(ctx context.Context, sectionName, query string) (*Page, error) {
	s := a.getSnapshot()

	section, ok := s.section(sectionName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, sectionName)
	}

	var (
		posts []types.Post
		raw   string
		g     errgroup.Group
	)

	g.Go(func() error {
		p, err := s.fetcher.FetchPosts(ctx, section.Path)
		if err != nil {
			logFetchError(ctx, "posts", section.Name, err)
			return nil
		}
		posts = p
		return nil
	})

	if section.Summary {
		g.Go(func() error {
			r, err := s.fetcher.FetchSummary(ctx)
			if err != nil {
				logFetchError(ctx, "summary", section.Name, err)
				return nil
			}
			raw = r
			return nil
		})
	}

	// each fetch logs its own failure and leaves its slot empty, so Wait is always nil
	_ = g.Wait()

	topics := summary.Parse(raw)
	if topics == nil {
		topics = []types.Topic{}
	}
	if posts == nil {
		posts = []types.Post{}
	}

	return &Page{
		Section: section,
		Query:   query,
		Topics:  topics,
		Posts:   feed.Filter(query, posts),
		All:     posts,
		Total:   len(posts),
	}, nil
}

// Summary fetches and parses the summary alone. A failed fetch yields no topics.
func (a *App) Summary(ctx context.Context) []types.Topic {
	s := a.getSnapshot()

	raw, err := s.fetcher.FetchSummary(ctx)
	if err != nil {
		logFetchError(ctx, "summary", "", err)
		return []types.Topic{}
	}
	topics := summary.Parse(raw)
	if topics == nil {
		return []types.Topic{}
	}
	return topics
}

// KeepWarm pings the upstream services
func (a *App) KeepWarm(ctx context.Context) error {
	return a.getSnapshot().fetcher.Ping(ctx)
}

// ReloadConfig swaps in a new configuration and the fetcher built from it.
func (a *App) ReloadConfig(cfg *config.Config, fetcher Fetcher) {
	a.mu.Lock()
	a.config = cfg
	a.fetcher = fetcher
	a.mu.Unlock()

	slog.Info("configuration reloaded", "component", "app", "sections", len(cfg.Sections))
}

func logFetchError(ctx context.Context, what, section string, err error) {
	kind := "fetch failed"
	if errors.Is(err, upstream.ErrUnexpectedShape) {
		kind = "unexpected shape"
	}
	slog.ErrorContext(ctx, "upstream "+what+" unavailable",
		"component", "app",
		"section", section,
		"kind", kind,
		"error", err)
}
