package smoke

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milhonews/milho/internal/app"
	"github.com/milhonews/milho/internal/config"
	"github.com/milhonews/milho/internal/digest"
	"github.com/milhonews/milho/internal/feed"
	"github.com/milhonews/milho/internal/types"
)

func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser smoke test skipped in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome or Chromium found on PATH")
}

func servePage(t *testing.T, posts []types.Post) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	b, err := digest.New(cfg.Server.SiteTitle, cfg.Server.DefaultTheme)
	require.NoError(t, err)

	page := &app.Page{
		Section: cfg.Sections[0],
		Topics:  []types.Topic{},
		Posts:   feed.Filter("", posts),
		All:     posts,
		Total:   len(posts),
	}
	d, err := b.Build(page, cfg.Sections, "")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(d.HTMLBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunFiltersAsYouType(t *testing.T) {
	requireChrome(t)
	srv := servePage(t, []types.Post{
		{ID: "p1", Text: "I love React", AuthorHandle: "ana.bsky.social", AuthorDisplayName: "Ana"},
		{ID: "p2", Text: "Go generics", AuthorHandle: "bruno.bsky.social", AuthorDisplayName: "Bruno"},
		{ID: "p3", Text: "nothing here", AuthorHandle: "react.dev", AuthorDisplayName: "Carla"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	report, err := Run(ctx, Options{URL: srv.URL, Query: "REACT", Headless: true, Timeout: time.Minute})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Before)
	assert.Equal(t, 2, report.After)
	assert.Equal(t, "2", report.Shown)
	assert.Equal(t, "p1", report.FirstID)
}

func TestRunEmptyPage(t *testing.T) {
	requireChrome(t)
	srv := servePage(t, nil)

	_, err := Run(context.Background(), Options{URL: srv.URL, Headless: true, Timeout: 30 * time.Second})
	assert.ErrorIs(t, err, ErrNoPosts)
}

func TestRunFoldsCaseConsistently(t *testing.T) {
	requireChrome(t)
	srv := servePage(t, []types.Post{
		{ID: "p1", Text: "İstanbul meetup", AuthorHandle: "ana.bsky.social", AuthorDisplayName: "Ana"},
		{ID: "p2", Text: "Go generics", AuthorHandle: "bruno.bsky.social", AuthorDisplayName: "Bruno"},
	})

	report, err := Run(context.Background(), Options{URL: srv.URL, Query: "İst", Headless: true, Timeout: time.Minute})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Before)
	assert.Equal(t, 1, report.After)
	assert.Equal(t, "1", report.Shown)
}
