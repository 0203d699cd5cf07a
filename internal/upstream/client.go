// Package upstream talks to the remote posts and summarization services.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/milhonews/milho/internal/config"
	"github.com/milhonews/milho/internal/types"
)

var (
	// ErrFetch means the request could not be made or returned a non-2xx status
	ErrFetch = errors.New("fetch failed")
	// ErrUnexpectedShape means the request succeeded but the body was not what we expect
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

const maxBodyBytes = 8 << 20

// Client fetches posts and summaries over HTTP
type Client struct {
	http      *http.Client
	cfg       config.UpstreamConfig
	userAgent string
}

// New creates a client for the configured upstreams
func New(cfg config.UpstreamConfig, version string) *Client {
	return &Client{
		http:      &http.Client{},
		cfg:       cfg,
		userAgent: "milho/" + version,
	}
}

// wirePost is the post shape served by the posts service
type wirePost struct {
	URI    string `json:"uri"`
	CID    string `json:"cid"`
	Author struct {
		DID         string `json:"did"`
		Handle      string `json:"handle"`
		DisplayName string `json:"displayName"`
		Avatar      string `json:"avatar"`
	} `json:"author"`
	Record struct {
		CreatedAt string `json:"createdAt"`
		Text      string `json:"text"`
	} `json:"record"`
	ReplyCount  int64  `json:"replyCount"`
	RepostCount int64  `json:"repostCount"`
	LikeCount   int64  `json:"likeCount"`
	IndexedAt   string `json:"indexedAt"`
}

func (w wirePost) toPost() types.Post {
	return types.Post{
		ID:                w.CID,
		URI:               w.URI,
		AuthorDID:         w.Author.DID,
		AuthorHandle:      w.Author.Handle,
		AuthorDisplayName: w.Author.DisplayName,
		AuthorAvatarURL:   w.Author.Avatar,
		Text:              w.Record.Text,
		CreatedAt:         parseTime(w.Record.CreatedAt),
		IndexedAt:         parseTime(w.IndexedAt),
		ReplyCount:        count(w.ReplyCount),
		RepostCount:       count(w.RepostCount),
		LikeCount:         count(w.LikeCount),
	}
}

// FetchPosts GETs path on the posts service and decodes the JSON array it returns.
// Server order is preserved.
func (c *Client) FetchPosts(ctx context.Context, path string) ([]types.Post, error) {
	body, err := c.get(ctx, c.cfg.PostsBaseURL+path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: posts response is not an array", ErrUnexpectedShape)
	}

	var wire []wirePost
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedShape, err)
	}

	posts := make([]types.Post, len(wire))
	for i, w := range wire {
		posts[i] = w.toPost()
	}
	return posts, nil
}

// FetchSummary GETs the summarize endpoint and returns its raw summary text
func (c *Client) FetchSummary(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.cfg.SummaryBaseURL+c.cfg.SummaryPath)
	if err != nil {
		return "", err
	}

	var resp struct {
		Summary *string `json:"summary"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnexpectedShape, err)
	}
	if resp.Summary == nil {
		return "", fmt.Errorf("%w: missing summary field", ErrUnexpectedShape)
	}
	return *resp.Summary, nil
}

// Ping requests both upstream base URLs and discards the bodies.
// Free-tier hosts sleep when idle, so this keeps them warm. Any HTTP
// response counts as awake; only transport failures are reported.
func (c *Client) Ping(ctx context.Context) error {
	var errs []error
	for _, u := range []string{c.cfg.PostsBaseURL, c.cfg.SummaryBaseURL} {
		resp, cancel, err := c.do(ctx, u)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		cancel()
	}
	return errors.Join(errs...)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	resp, cancel, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrFetch, err)
	}
	return body, nil
}

// do sends a GET bounded by the configured timeout. The caller closes the
// body and then calls cancel.
func (c *Client) do(ctx context.Context, url string) (*http.Response, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if c.cfg.Timeout.Duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout.Duration)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return resp, cancel, nil
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func count(n int64) uint {
	if n < 0 {
		return 0
	}
	return uint(n)
}
