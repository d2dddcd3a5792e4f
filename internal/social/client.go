package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultBaseURL is the X API host.
const DefaultBaseURL = "https://api.x.com"

const (
	defaultTimeout = 30 * time.Second

	// X accepts between 5 and 100 results per timeline page.
	minTimelineResults = 5
	maxTimelineResults = 100
)

// TokenSourcer hands out a token source for the duration of ctx.
// *auth.Refresher implements it.
type TokenSourcer interface {
	TokenSource(ctx context.Context) oauth2.TokenSource
}

// User is an X account.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Post is a single post (tweet).
type Post struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTransport sets the base transport beneath the authorizing transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithTimeout bounds each API request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client calls the X API on behalf of the authenticated account.
type Client struct {
	tokens    TokenSourcer
	baseURL   string
	transport http.RoundTripper
	timeout   time.Duration
}

// New creates a Client that authorizes requests with tokens.
func New(tokens TokenSourcer, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("missing token source")
	}

	c := &Client{
		tokens:  tokens,
		baseURL: DefaultBaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := url.Parse(c.baseURL); err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	return c, nil
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp struct {
		Data User `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/2/users/me", nil, &resp); err != nil {
		return User{}, fmt.Errorf("get authenticated user: %w", err)
	}
	return resp.Data, nil
}

// Post publishes text as a new post.
func (c *Client) Post(ctx context.Context, text string) (Post, error) {
	post, err := c.create(ctx, createPostRequest{Text: text})
	if err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// Quote publishes text quoting the post with id quotedID.
func (c *Client) Quote(ctx context.Context, text, quotedID string) (Post, error) {
	if quotedID == "" {
		return Post{}, fmt.Errorf("quote post: missing quoted post id")
	}

	post, err := c.create(ctx, createPostRequest{Text: text, QuoteTweetID: quotedID})
	if err != nil {
		return Post{}, fmt.Errorf("quote post %s: %w", quotedID, err)
	}
	return post, nil
}

// UserPosts returns up to limit of the most recent posts of userID, newest
// first. limit is clamped to the range the API accepts.
func (c *Client) UserPosts(ctx context.Context, userID string, limit int) ([]Post, error) {
	if userID == "" {
		return nil, fmt.Errorf("user posts: missing user id")
	}
	limit = min(max(limit, minTimelineResults), maxTimelineResults)

	query := url.Values{"max_results": {strconv.Itoa(limit)}}
	path := "/2/users/" + url.PathEscape(userID) + "/tweets?" + query.Encode()

	var resp struct {
		Data []Post `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("user posts of %s: %w", userID, err)
	}
	return resp.Data, nil
}

type createPostRequest struct {
	Text         string `json:"text"`
	QuoteTweetID string `json:"quote_tweet_id,omitempty"`
}

func (c *Client) create(ctx context.Context, req createPostRequest) (Post, error) {
	var resp struct {
		Data Post `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/2/tweets", req, &resp); err != nil {
		return Post{}, err
	}
	return resp.Data, nil
}

// do sends an authorized request and decodes a successful JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: c.tokens.TokenSource(ctx),
			Base:   c.transport,
		},
		Timeout: c.timeout,
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
