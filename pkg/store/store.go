// Package store is the HTTP client for the word store. It owns no state:
// every call is one request, and reads are the only requests ever retried.
package store

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

	"github.com/PuerkitoBio/rehttp"

	"github.com/japaniel/wordbook/pkg/vocab"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 10 * 1024 * 1024

// StatusError is returned when the store answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("store: %s %s: status %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client talks to one store base URL.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*options)

type options struct {
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	transport  http.RoundTripper
}

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithRetries sets how many times a failed GET is retried.
func WithRetries(n int) Option { return func(o *options) { o.retries = n } }

// WithRetryDelay sets the base delay between GET retries.
func WithRetryDelay(d time.Duration) Option { return func(o *options) { o.retryDelay = d } }

// WithTransport replaces the base round tripper.
func WithTransport(rt http.RoundTripper) Option { return func(o *options) { o.transport = rt } }

// New returns a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	o := options{timeout: 10 * time.Second, retries: 2, retryDelay: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("store: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("store: base url %q must be absolute", baseURL)
	}

	retry := rehttp.RetryAll(
		rehttp.RetryMaxRetries(o.retries),
		rehttp.RetryHTTPMethods(http.MethodGet),
		rehttp.RetryAny(
			rehttp.RetryTemporaryErr(),
			rehttp.RetryStatuses(http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout),
		),
	)
	tr := rehttp.NewTransport(o.transport, retry, rehttp.ExpJitterDelay(o.retryDelay, 2*time.Second))

	return &Client{
		base: u,
		http: &http.Client{Transport: tr, Timeout: o.timeout},
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// ListAll returns every record.
func (c *Client) ListAll(ctx context.Context) ([]vocab.Record, error) {
	return c.listRecords(ctx, "/words_list")
}

// ListByScript returns the records containing the kanji char.
func (c *Client) ListByScript(ctx context.Context, char string) ([]vocab.Record, error) {
	return c.listRecords(ctx, "/kanji/"+url.PathEscape(char))
}

// ListByTag returns the records carrying tag.
func (c *Client) ListByTag(ctx context.Context, tag string) ([]vocab.Record, error) {
	return c.listRecords(ctx, "/category/"+url.PathEscape(tag))
}

// ListTags returns every known tag.
func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListScripts returns every kanji that appears in a record.
func (c *Client) ListScripts(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/kanji", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create adds rec. Timestamps and id are left to the store.
func (c *Client) Create(ctx context.Context, rec vocab.Record) error {
	return c.do(ctx, http.MethodPost, "/kanji", rec.ForCreate(), nil)
}

// Replace overwrites the stored record with rec as a whole. There is no
// version check: the last replace to reach the store wins.
func (c *Client) Replace(ctx context.Context, rec vocab.Record) error {
	path := "/kanji"
	if rec.ID > 0 {
		path += "/" + strconv.FormatInt(rec.ID, 10)
	}
	return c.do(ctx, http.MethodPut, path, rec, nil)
}

func (c *Client) listRecords(ctx context.Context, path string) ([]vocab.Record, error) {
	var recs []vocab.Record
	if err := c.do(ctx, http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].Normalize()
	}
	return recs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("store: encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rdr)
	if err != nil {
		return fmt.Errorf("store: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("store: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("store: read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: detail(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("store: decode %s %s: %w", method, path, err)
	}
	return nil
}

// detail pulls the message out of an error body, falling back to the raw
// text.
func detail(body []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
