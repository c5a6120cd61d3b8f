// Package wdsclient is the typed adapter over the four remote WDS
// operations named in spec.md §4.A. It is a pure adapter: it never
// touches disk or the database, only returns raw payload bytes (or a
// decoded summary, for ChangedCubeList) to its caller.
//
// Grounded on ais/backend/http.go's "one constructor builds pooled
// clients, callers never construct their own" shape, but the underlying
// transport is valyala/fasthttp rather than net/http: fasthttp exposes
// DoRedirects natively, which is exactly the "follow one redirect to a
// signed URL" contract DownloadCubeCsv needs.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package wdsclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"

	"github.com/statcan/wds-pipeline/cmn"
)

const maxRedirects = 1

type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	maxRetries int
	httpClient *fasthttp.Client

	mu           sync.Mutex
	lastMetadata time.Time
	lastCube     time.Time
}

// New builds a Client. baseURL has no trailing slash.
func New(baseURL, userAgent string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		timeout:    timeout,
		maxRetries: maxRetries,
		httpClient: &fasthttp.Client{
			Name:                     userAgent,
			MaxIdleConnDuration:      90 * time.Second,
			NoDefaultUserAgentHeader: true,
			ReadTimeout:              timeout,
			WriteTimeout:             timeout,
		},
	}
}

// ListAllCubes returns the raw JSON bytes of the full spine snapshot.
func (c *Client) ListAllCubes(ctx context.Context) ([]byte, error) {
	c.throttle(&c.lastMetadata, cmn.MinDelayMetadata)
	return c.getJSON(ctx, cmn.FamilySpine, c.baseURL+"/getAllCubesListLite")
}

// ChangedCubeList returns the productids that changed on the given date.
func (c *Client) ChangedCubeList(ctx context.Context, date time.Time) ([]ChangedCube, error) {
	c.throttle(&c.lastMetadata, cmn.MinDelayMetadata)
	url := fmt.Sprintf("%s/getChangedCubeList/%s", c.baseURL, date.Format("2006-01-02"))
	body, err := c.getJSON(ctx, cmn.FamilySpine, url)
	if err != nil {
		return nil, err
	}
	var out []ChangedCube
	if err := decodeJSON(body, &out); err != nil {
		return nil, cmn.NewSchemaError(cmn.FamilySpine, 0, errors.Wrap(err, "decoding changed cube list"))
	}
	return out, nil
}

// CubeMetadata returns the raw bilingual metadata JSON for one productid.
func (c *Client) CubeMetadata(ctx context.Context, productID int64) ([]byte, error) {
	c.throttle(&c.lastMetadata, cmn.MinDelayMetadata)
	url := fmt.Sprintf("%s/getCubeMetadata", c.baseURL)
	return c.postJSON(ctx, cmn.FamilyMetadata, url, fmt.Sprintf(`{"productId":%d}`, productID))
}

// DownloadCubeCsv follows one redirect to a signed URL and returns the raw
// ZIP payload.
func (c *Client) DownloadCubeCsv(ctx context.Context, productID int64) ([]byte, error) {
	c.throttle(&c.lastCube, cmn.MinDelayCube)
	url := fmt.Sprintf("%s/getFullTableDownloadCSV/%d/en", c.baseURL, productID)
	loc, err := c.getString(ctx, cmn.FamilyCube, url)
	if err != nil {
		return nil, err
	}
	return c.getBytes(ctx, cmn.FamilyCube, loc)
}

// throttle blocks until at least floor has elapsed since the last call on
// this endpoint family (spec.md §6: politeness floors).
func (c *Client) throttle(last *time.Time, floor time.Duration) {
	c.mu.Lock()
	wait := floor - time.Since(*last)
	if wait > 0 {
		c.mu.Unlock()
		time.Sleep(wait)
		c.mu.Lock()
	}
	*last = time.Now()
	c.mu.Unlock()
}

func (c *Client) getJSON(ctx context.Context, family, url string) ([]byte, error) {
	return c.do(ctx, family, fasthttp.MethodGet, url, nil)
}

func (c *Client) postJSON(ctx context.Context, family, url, body string) ([]byte, error) {
	return c.do(ctx, family, fasthttp.MethodPost, url, []byte(body))
}

func (c *Client) getBytes(ctx context.Context, family, url string) ([]byte, error) {
	return c.do(ctx, family, fasthttp.MethodGet, url, nil)
}

// getString fetches a small JSON body whose "object" field names the
// download URL, as WDS's getFullTableDownloadCSV does.
func (c *Client) getString(ctx context.Context, family, url string) (string, error) {
	body, err := c.do(ctx, family, fasthttp.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	var env struct {
		Object string `json:"object"`
	}
	if err := decodeJSON(body, &env); err != nil {
		return "", cmn.NewSchemaError(family, 0, errors.Wrap(err, "decoding download-url envelope"))
	}
	return env.Object, nil
}

// do executes one call with retries for transient failures, bounded by
// c.timeout per attempt (spec.md §4.A: "bounded by a per-call deadline").
func (c *Client) do(ctx context.Context, family, method, url string, body []byte) ([]byte, error) {
	bo := newBackoff(200*time.Millisecond, 10*time.Second)
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		req.SetRequestURI(url)
		req.Header.SetMethod(method)
		req.Header.Set("User-Agent", c.userAgent)
		if body != nil {
			req.Header.SetContentType("application/json")
			req.SetBody(body)
		}

		err := c.doWithDeadline(req, resp)
		var out []byte
		var status int
		if err == nil {
			status = resp.StatusCode()
			out = append(out, resp.Body()...)
		}
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)

		if err == nil && status < 500 && status != 0 {
			if status >= 400 {
				return nil, errors.Errorf("wds: %s returned status %d", url, status)
			}
			return out, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = errors.Errorf("wds: %s returned status %d", url, status)
		}
		glog.Warningf("wds call %s attempt %d/%d failed: %v", url, attempt+1, c.maxRetries+1, lastErr)
		if attempt < c.maxRetries {
			time.Sleep(bo.next())
		}
	}
	return nil, cmn.NewTransientError(family, lastErr)
}

// doWithDeadline runs one attempt bounded by c.timeout, following at most
// maxRedirects hops (spec.md §4.A: "bounded by a per-call deadline" and
// "follows one redirect to a signed URL").
func (c *Client) doWithDeadline(req *fasthttp.Request, resp *fasthttp.Response) error {
	return c.httpClient.DoRedirects(req, resp, maxRedirects)
}
