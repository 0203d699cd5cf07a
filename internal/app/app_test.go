package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/milhonews/milho/internal/config"
	"github.com/milhonews/milho/internal/types"
	"github.com/milhonews/milho/internal/upstream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFetcher struct {
	mu          sync.Mutex
	posts       map[string][]types.Post
	postsErr    error
	summary     string
	summaryErr  error
	pingErr     error
	postCalls   []string
	summaryHits int
	gate        chan struct{} // when set, FetchPosts waits for it
}

func (f *fakeFetcher) FetchPosts(ctx context.Context, path string) ([]types.Post, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.postCalls = append(f.postCalls, path)
	f.mu.Unlock()
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	return f.posts[path], nil
}

func (f *fakeFetcher) FetchSummary(ctx context.Context) (string, error) {
	f.mu.Lock()
	f.summaryHits++
	f.mu.Unlock()
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return f.summary, nil
}

func (f *fakeFetcher) Ping(ctx context.Context) error {
	return f.pingErr
}

func newsPosts() []types.Post {
	return []types.Post{
		{ID: "a", Text: "I love React", AuthorHandle: "ana.bsky.social", AuthorDisplayName: "Ana"},
		{ID: "b", Text: "unrelated", AuthorHandle: "bruno.bsky.social", AuthorDisplayName: "Bruno"},
	}
}

func newFake() *fakeFetcher {
	return &fakeFetcher{
		posts: map[string][]types.Post{
			"/service/RelevantPotopsts": newsPosts(),
			"/post/github":              {{ID: "gh", Text: "new release", AuthorHandle: "oss.dev"}},
		},
		summary: "**A**content1**B**content2",
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoadNews(t *testing.T) {
	f := newFake()
	a := New(config.Default(), f)

	page, err := a.Load(context.Background(), "news", "")
	require.NoError(t, err)

	assert.Equal(t, "news", page.Section.Name)
	assert.Equal(t, []types.Topic{
		{Title: "A", Content: "content1"},
		{Title: "B", Content: "content2"},
	}, page.Topics)
	assert.Equal(t, newsPosts(), page.Posts)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, f.summaryHits)
}

func TestLoadFiltersPosts(t *testing.T) {
	a := New(config.Default(), newFake())

	page, err := a.Load(context.Background(), "news", "REACT")
	require.NoError(t, err)

	require.Len(t, page.Posts, 1)
	assert.Equal(t, "a", page.Posts[0].ID)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "REACT", page.Query)
}

func TestLoadSectionWithoutSummary(t *testing.T) {
	f := newFake()
	a := New(config.Default(), f)

	page, err := a.Load(context.Background(), "opensource", "")
	require.NoError(t, err)

	assert.Empty(t, page.Topics)
	assert.NotNil(t, page.Topics)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "gh", page.Posts[0].ID)
	assert.Equal(t, 0, f.summaryHits)
	assert.Equal(t, []string{"/post/github"}, f.postCalls)
}

func TestLoadUnknownSection(t *testing.T) {
	a := New(config.Default(), newFake())

	page, err := a.Load(context.Background(), "sports", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSection))
	assert.Nil(t, page)
}

func TestSectionLookup(t *testing.T) {
	a := New(config.Default(), newFake())

	sec, ok := a.Section("opensource")
	require.True(t, ok)
	assert.Equal(t, "/post/github", sec.Path)
	assert.False(t, sec.Summary)

	_, ok = a.Section("sports")
	assert.False(t, ok)
	assert.Equal(t, "news", a.DefaultSection().Name)
}

func TestLoadPostsFailureKeepsSummary(t *testing.T) {
	logs := captureLogs(t)
	f := newFake()
	f.postsErr = fmt.Errorf("%w: connection refused", upstream.ErrFetch)
	a := New(config.Default(), f)

	page, err := a.Load(context.Background(), "news", "")
	require.NoError(t, err)

	assert.Empty(t, page.Posts)
	assert.NotNil(t, page.Posts)
	assert.Equal(t, 0, page.Total)
	assert.Len(t, page.Topics, 2)
	assert.Contains(t, logs.String(), "upstream posts unavailable")
	assert.Contains(t, logs.String(), `kind="fetch failed"`)
}

func TestLoadSummaryShapeFailureKeepsPosts(t *testing.T) {
	logs := captureLogs(t)
	f := newFake()
	f.summaryErr = fmt.Errorf("%w: missing summary field", upstream.ErrUnexpectedShape)
	a := New(config.Default(), f)

	page, err := a.Load(context.Background(), "news", "")
	require.NoError(t, err)

	assert.Empty(t, page.Topics)
	assert.Len(t, page.Posts, 2)
	assert.Contains(t, logs.String(), "upstream summary unavailable")
	assert.Contains(t, logs.String(), `kind="unexpected shape"`)
}

func TestLoadFetchesConcurrently(t *testing.T) {
	f := newFake()
	f.gate = make(chan struct{})
	a := New(config.Default(), f)

	done := make(chan *Page)
	go func() {
		page, _ := a.Load(context.Background(), "news", "")
		done <- page
	}()

	// the summary fetch completes while the posts fetch is still blocked
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.summaryHits == 1
	}, time.Second, 5*time.Millisecond)

	close(f.gate)
	page := <-done
	assert.Len(t, page.Posts, 2)
	assert.Len(t, page.Topics, 2)
}

func TestSummary(t *testing.T) {
	f := newFake()
	a := New(config.Default(), f)
	assert.Len(t, a.Summary(context.Background()), 2)

	captureLogs(t)
	f.summaryErr = upstream.ErrFetch
	topics := a.Summary(context.Background())
	assert.Empty(t, topics)
	assert.NotNil(t, topics)
}

func TestReloadConfig(t *testing.T) {
	captureLogs(t)
	a := New(config.Default(), newFake())
	assert.Equal(t, "news", a.DefaultSection().Name)

	cfg := config.Default()
	cfg.Sections = []types.Section{{Name: "tech", Title: "Tech", Path: "/tech"}}
	f := &fakeFetcher{posts: map[string][]types.Post{"/tech": {{ID: "t"}}}}
	a.ReloadConfig(cfg, f)

	assert.Equal(t, "tech", a.DefaultSection().Name)
	assert.Len(t, a.Sections(), 1)

	page, err := a.Load(context.Background(), "tech", "")
	require.NoError(t, err)
	assert.Equal(t, "t", page.Posts[0].ID)

	_, err = a.Load(context.Background(), "news", "")
	assert.True(t, errors.Is(err, ErrUnknownSection))
}

func TestKeepWarm(t *testing.T) {
	f := newFake()
	a := New(config.Default(), f)
	assert.NoError(t, a.KeepWarm(context.Background()))

	f.pingErr = upstream.ErrFetch
	assert.ErrorIs(t, a.KeepWarm(context.Background()), upstream.ErrFetch)
}
