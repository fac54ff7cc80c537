// Package httpx holds the small GET/JSON helpers every source adapter
// needs to pull an upstream listing, shared so each adapter doesn't
// reimplement fasthttp request plumbing.
package httpx

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/core"
	"github.com/valyala/fasthttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var defaultClient = &fasthttp.Client{
	ReadTimeout:  60 * time.Second,
	WriteTimeout: 60 * time.Second,
}

func clientOf(mission *core.Mission) *fasthttp.Client {
	if mission != nil && mission.HTTPClient != nil {
		return mission.HTTPClient
	}
	return defaultClient
}

// retryAttempts is the attempt budget every enumeration request gets,
// per spec.md §7's "retried with a short capped backoff" policy for
// 429/5xx responses hit while building a snapshot.
const retryAttempts = 4

// statusOf extracts the HTTP status code cmn.Retry keys its backoff
// choice on; errors without an HTTP status (network failures) fall
// back to Retry's default capped backoff.
func statusOf(err error) (int, bool) {
	var httpErr *cmn.ErrHTTPStatus
	if errors.As(err, &httpErr) {
		return httpErr.Code, true
	}
	return 0, false
}

// GetText performs a GET and returns the response body as a string.
// Non-2xx responses fail with cmn.ErrHTTPStatus.
func GetText(ctx context.Context, mission *core.Mission, url string) (string, error) {
	body, _, err := GetBytes(ctx, mission, url)
	return string(body), err
}

// GetBytes performs a GET and returns the raw response body plus the
// response's Last-Modified header (seconds since epoch, nil if absent).
// Transient 429/5xx responses are retried with a capped backoff.
func GetBytes(ctx context.Context, mission *core.Mission, url string) ([]byte, *uint64, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if mission != nil && mission.UserAgent != "" {
		req.Header.SetUserAgent(mission.UserAgent)
	}

	client := clientOf(mission)
	err := cmn.Retry(ctx, retryAttempts, "httpx.GetBytes", statusOf, func() error {
		resp.Reset()
		deadline, hasDeadline := ctx.Deadline()
		var doErr error
		if hasDeadline {
			doErr = client.DoDeadline(req, resp, deadline)
		} else {
			doErr = client.DoTimeout(req, resp, 60*time.Second)
		}
		if doErr != nil {
			return &cmn.ErrNetwork{Err: doErr}
		}
		if status := resp.StatusCode(); status < 200 || status >= 300 {
			return &cmn.ErrHTTPStatus{Code: status, URL: url}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	body := append([]byte(nil), resp.Body()...)

	var lastModified *uint64
	if lm := string(resp.Header.Peek(fasthttp.HeaderLastModified)); lm != "" {
		if t, parseErr := time.Parse(time.RFC1123, lm); parseErr == nil {
			v := uint64(t.Unix())
			lastModified = &v
		}
	}
	return body, lastModified, nil
}

// GetJSON performs a GET and decodes the JSON body into dst.
func GetJSON(ctx context.Context, mission *core.Mission, url string, dst any) error {
	body, _, err := GetBytes(ctx, mission, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &cmn.ErrDecode{Format: "json", Err: err}
	}
	return nil
}

// HeadLastModified issues a HEAD request and returns the parsed
// Last-Modified header, if present. Transient 429/5xx responses are
// retried with a capped backoff.
func HeadLastModified(ctx context.Context, mission *core.Mission, url string) (*uint64, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodHead)
	if mission != nil && mission.UserAgent != "" {
		req.Header.SetUserAgent(mission.UserAgent)
	}

	client := clientOf(mission)
	err := cmn.Retry(ctx, retryAttempts, "httpx.HeadLastModified", statusOf, func() error {
		resp.Reset()
		if doErr := client.DoTimeout(req, resp, 60*time.Second); doErr != nil {
			return &cmn.ErrNetwork{Err: doErr}
		}
		if status := resp.StatusCode(); status < 200 || status >= 300 {
			return &cmn.ErrHTTPStatus{Code: status, URL: url}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	lm := string(resp.Header.Peek(fasthttp.HeaderLastModified))
	if lm == "" {
		return nil, nil
	}
	t, parseErr := time.Parse(time.RFC1123, lm)
	if parseErr != nil {
		return nil, nil
	}
	v := uint64(t.Unix())
	return &v, nil
}
