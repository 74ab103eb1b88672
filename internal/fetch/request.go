package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"
)

// Request describes one call against the client's base URL. An absolute
// URL in Path is used as-is.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Do performs req, holding a concurrency slot for the whole call including
// retries.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	if c.quotaTripped(ctx) {
		return nil, c.quotaError(0)
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	c.inFlight.Add(1)
	defer func() {
		c.inFlight.Add(-1)
		c.sem.Release(1)
	}()

	return c.doWithRetry(ctx, req)
}

// GetJSON performs a GET and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return err
	}
	return c.decode(body, out)
}

// PostFormJSON posts a url-encoded form and decodes the JSON response.
func (c *Client) PostFormJSON(ctx context.Context, path string, form url.Values, out any) error {
	h := make(http.Header)
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	body, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   path,
		Header: h,
		Body:   []byte(form.Encode()),
	})
	if err != nil {
		return err
	}
	return c.decode(body, out)
}

func (c *Client) decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Source: c.source, Kind: KindMalformed, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	return nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, req Request) ([]byte, error) {
	var lastErr error
	backoff := c.baseDelay

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := min(backoff, c.maxDelay)
			// Add jitter: delay * (0.5 to 1.5)
			if delay > 0 {
				delay = delay/2 + time.Duration(rand.Int64N(int64(delay)))
			}
			c.retries.Add(1)
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", delay,
				"path", req.Path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-c.clock.After(delay):
			}

			backoff *= 2
		}

		if c.quotaTripped(ctx) {
			return nil, c.quotaError(attempt - 1)
		}

		waited, err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, err
		}
		if waited > 0 {
			c.throttleWait.Add(int64(waited))
		}

		body, err := c.attempt(ctx, req)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err

		var fe *Error
		if !errors.As(err, &fe) || !fe.IsRetryable() {
			c.failures.Add(1)
			return nil, err
		}
	}

	c.failures.Add(1)
	var fe *Error
	if errors.As(lastErr, &fe) {
		fe.Attempts = c.maxAttempts
	}
	return nil, lastErr
}

// attempt performs a single HTTP exchange under the per-attempt timeout.
func (c *Client) attempt(ctx context.Context, req Request) ([]byte, error) {
	c.requests.Add(1)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, &Error{Source: c.source, Kind: KindPermanent, Err: err}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Source: c.source, Kind: KindTransient, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Source: c.source, Kind: KindTransient, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if c.isQuota != nil && c.isQuota(resp.StatusCode, body) {
		return nil, c.tripQuota(ctx, resp.StatusCode, body)
	}

	if resp.StatusCode >= 400 {
		kind := KindPermanent
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusRequestTimeout {
			kind = KindTransient
		}
		return nil, &Error{
			Source:     c.source,
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Body:       body,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	return body, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	fullURL := req.Path
	if u, err := url.Parse(req.Path); err != nil || !u.IsAbs() {
		fullURL = c.baseURL + req.Path
	}
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	for k, vs := range c.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	if c.authorizer != nil {
		if err := c.authorizer.Authorize(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("authorize: %w", err)
		}
	}

	return httpReq, nil
}

// quotaTripped reports whether the quota is suspended for the caller's
// cycle, or for the client itself when ctx carries no cycle.
func (c *Client) quotaTripped(ctx context.Context) bool {
	if cycle := CycleFrom(ctx); cycle != nil {
		return cycle.Exceeded(c.source)
	}
	return c.quotaExceeded.Load()
}

// tripQuota sets the sticky flag, logging only on the first trip of a cycle.
func (c *Client) tripQuota(ctx context.Context, statusCode int, body []byte) error {
	var first bool
	if cycle := CycleFrom(ctx); cycle != nil {
		first = cycle.trip(c.source)
	} else {
		first = c.quotaExceeded.CompareAndSwap(false, true)
	}
	if first {
		c.rateLimited.Add(1)
		c.logger.Warn("source quota exceeded, suspending calls for remainder of cycle",
			"status", statusCode,
		)
	}
	return &Error{
		Source:     c.source,
		Kind:       KindRateLimited,
		StatusCode: statusCode,
		Body:       body,
		Err:        ErrQuotaExceeded,
	}
}

func (c *Client) quotaError(attempts int) error {
	return &Error{Source: c.source, Kind: KindRateLimited, Attempts: attempts, Err: ErrQuotaExceeded}
}
