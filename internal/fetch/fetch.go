package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Client wraps http.Client with a user-agent, per-request timeout, and a
// redirect cap. There is deliberately no retry: the registry document may be
// republished between the resolution step and the download, and retrying one
// leg risks mixing revisions.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
}

// Document is a fetched binary document together with its cache validator.
// The ETag is opaque metadata and is never inspected; a response without the
// header yields an empty tag rather than an error.
type Document struct {
	URL  string
	Body []byte
	ETag string
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// GetPage issues a GET for an HTML listing page and returns the body decoded
// to UTF-8. The registry serves some pages as windows-1252, so decoding goes
// through charset.NewReader using the declared Content-Type.
func (c *Client) GetPage(ctx context.Context, pageURL string) (string, error) {
	body, _, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetDocument issues a GET for the binary registry document and returns the
// raw bytes plus the ETag response header, passed through untouched.
func (c *Client) GetDocument(ctx context.Context, docURL string) (Document, error) {
	body, etag, err := c.getRaw(ctx, docURL)
	if err != nil {
		return Document{}, err
	}
	return Document{URL: docURL, Body: body, ETag: etag}, nil
}

// get fetches and charset-decodes a text resource.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	return c.fetch(ctx, rawURL, true)
}

// getRaw fetches a resource without any decoding.
func (c *Client) getRaw(ctx context.Context, rawURL string) ([]byte, string, error) {
	return c.fetch(ctx, rawURL, false)
}

func (c *Client) fetch(ctx context.Context, rawURL string, decode bool) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if req.URL == nil || !isHTTPScheme(req.URL) {
		return nil, "", fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	var reader io.Reader = resp.Body
	if decode {
		if dec, derr := charset.NewReader(resp.Body, resp.Header.Get("Content-Type")); derr == nil {
			reader = dec
		}
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("read body of %s: %w", rawURL, err)
	}
	return b, resp.Header.Get("ETag"), nil
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
