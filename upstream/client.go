// Package upstream calls the posts and comments services on behalf of the gateway.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/n9te9/go-graphql-rest-gateway/metrics"
	"github.com/n9te9/go-graphql-rest-gateway/store"
)

const defaultRetryInterval = 50 * time.Millisecond

// RetryOption defines how many times a failed call is attempted and how long to wait
// before the next attempt. The wait doubles after every failure.
type RetryOption struct {
	Attempts int    `yaml:"attempts" validate:"gte=0"`
	Interval string `yaml:"interval"`
}

// StatusError is returned when a service answers with anything but 200.
type StatusError struct {
	Service    string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s service (%s)", e.StatusCode, e.Service, e.URL)
}

// Client performs GET requests against one backing service.
type Client struct {
	service    string
	baseURL    *url.URL
	httpClient *http.Client
	attempts   int
	interval   time.Duration
	metrics    *metrics.Metrics
}

// NewClient returns a client for the service reachable at baseURL.
func NewClient(service, baseURL string, httpClient *http.Client, retry RetryOption, m *metrics.Metrics) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid %s service address %q: %w", service, baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s service address %q: scheme and host are required", service, baseURL)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	attempts := retry.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	interval := defaultRetryInterval
	if retry.Interval != "" {
		d, err := time.ParseDuration(retry.Interval)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid retry interval %q", retry.Interval)
		}
		interval = d
	}

	return &Client{
		service:    service,
		baseURL:    u,
		httpClient: httpClient,
		attempts:   attempts,
		interval:   interval,
		metrics:    m,
	}, nil
}

// ListPosts calls GET /posts.
func (c *Client) ListPosts(ctx context.Context) ([]store.Post, error) {
	var posts []store.Post
	if err := c.get(ctx, "/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListComments calls GET /comments with the filter described by q.
func (c *Client) ListComments(ctx context.Context, q CommentsQuery) ([]store.Comment, error) {
	var comments []store.Comment
	if err := c.get(ctx, "/comments", q.Values(), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()
	target := u.String()

	var lastErr error
	wait := c.interval
	for i := 0; i < c.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("failed to call %s service: %w", c.service, lastErr)
			case <-time.After(wait):
			}
			wait *= 2
		}

		start := time.Now()
		err := c.doGet(ctx, target, out)
		c.metrics.ObserveUpstream(c.service, start, err)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) {
			return err
		}
	}

	if c.attempts > 1 {
		return fmt.Errorf("failed to call %s service after %d attempt(s): %w", c.service, c.attempts, lastErr)
	}
	return lastErr
}

// retryable reports whether another attempt could succeed. Client errors are final.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < 400 || statusErr.StatusCode >= 500
	}
	return true
}

func (c *Client) doGet(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	copyRequestHeader(ctx, req.Header)
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s service: %w", c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Service: c.service, URL: target, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s service response: %w", c.service, err)
	}

	return nil
}

// CommentsQuery is the filter sent to GET /comments. The zero value asks for every
// comment.
type CommentsQuery struct {
	id     *string
	postID *int
}

// IDSet asks for the comments whose identifiers are in ids. An empty ids still sends
// an empty id parameter, which the comments service treats as no filter.
func IDSet(ids []int) CommentsQuery {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	joined := strings.Join(parts, ",")
	return CommentsQuery{id: &joined}
}

func (q CommentsQuery) Values() url.Values {
	v := url.Values{}
	if q.id != nil {
		v.Set("id", *q.id)
	}
	if q.postID != nil {
		v.Set("postId", strconv.Itoa(*q.postID))
	}
	return v
}

func (q CommentsQuery) String() string {
	return q.Values().Encode()
}
