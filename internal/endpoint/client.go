package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Error is the single failure kind of the endpoint: either the server
// answered with a non-2xx status or the request never completed.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Transport reports whether the request failed before any HTTP status was received.
func (e *Error) Transport() bool { return e.StatusCode == 0 }

// MaxReplyBytes caps how much of a successful reply is read. Larger replies
// fail instead of being cut, since the body is shown verbatim.
const MaxReplyBytes = 4 << 20

type request struct {
	Message string `json:"message"`
}

type Client struct {
	url      string
	log      *slog.Logger
	client   *http.Client
	maxReply int64
}

// NewClient targets a fixed chat URL. The http.Client carries no timeout of
// its own; deadlines come from the caller's context.
func NewClient(url string, log *slog.Logger) *Client {
	return &Client{
		url:      url,
		log:      log,
		client:   &http.Client{},
		maxReply: MaxReplyBytes,
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// WithMaxReplyBytes overrides MaxReplyBytes.
func (c *Client) WithMaxReplyBytes(n int64) *Client {
	c.maxReply = n
	return c
}

func (c *Client) URL() string { return c.url }

// Send posts {"message": text} and returns the response body verbatim.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	b, err := json.Marshal(request{Message: text})
	if err != nil {
		return "", &Error{Err: errors.Wrap(err, "encode request")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", &Error{Err: errors.Wrap(err, "build request")}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("endpoint call failed", "url", c.url, "err", err)
		return "", &Error{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
		c.log.Warn("endpoint returned error status", "url", c.url, "status", res.StatusCode)
		return "", &Error{StatusCode: res.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxReply+1))
	if err != nil {
		return "", &Error{Err: errors.Wrap(err, "read response")}
	}
	if int64(len(body)) > c.maxReply {
		c.log.Warn("endpoint reply too large", "url", c.url, "limit", c.maxReply)
		return "", &Error{Err: errors.Errorf("response larger than %d bytes", c.maxReply)}
	}
	c.log.Debug("endpoint reply", "bytes", len(body), "duration_ms", time.Since(start).Milliseconds())
	return string(body), nil
}
