// Package httpclient fetches listing pages and JSON endpoints over plain HTTP.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/proxy"
)

// ErrUnexpectedStatus is returned for non-2xx responses left after retries.
var ErrUnexpectedStatus = errors.New("unexpected http status")

// Options tune timeouts and retries.
type Options struct {
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
}

// FetcherImpl provides a concrete implementation for the PageFetcher interface using resty.
type FetcherImpl struct {
	client  *resty.Client
	proxies *proxy.Manager
	logger  *zap.Logger
}

// NewFetcher creates a new instance of FetcherImpl. Transport errors, 429 and
// 5xx responses are retried opts.Retries times, opts.RetryWait apart.
func NewFetcher(opts Options, proxies *proxy.Manager, logger *zap.Logger) *FetcherImpl {
	client := resty.New()
	// listing endpoints behind JSP sessions expect their cookies back
	if jar, err := cookiejar.New(nil); err == nil {
		client.SetCookieJar(jar)
	}
	client.SetTransport(&http.Transport{
		Proxy: func(*http.Request) (*url.URL, error) {
			if p := proxies.GetProxy(); p != "" {
				return url.Parse(p)
			}
			return nil, nil
		},
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	client.
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		AddRetryHook(func(r *resty.Response, err error) {
			fields := []zap.Field{zap.Error(err)}
			if r != nil && r.Request != nil {
				fields = append(fields, zap.String("url", r.Request.URL), zap.Int("status", r.StatusCode()))
			}
			logger.Warn("retrying request", fields...)
		})

	return &FetcherImpl{client: client, proxies: proxies, logger: logger}
}

// Fetch performs the request and returns the body of a 2xx response.
// A request with form values defaults to POST, anything else to GET.
func (f *FetcherImpl) Fetch(ctx context.Context, req entity.FetchRequest) ([]byte, error) {
	r := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", f.proxies.GetUserAgent()).
		SetHeaders(req.Headers).
		SetQueryParams(req.Query)

	method := strings.ToUpper(req.Method)
	if len(req.Form) > 0 {
		r.SetFormData(req.Form)
		if method == "" {
			method = http.MethodPost
		}
	}
	if method == "" {
		method = http.MethodGet
	}

	start := time.Now()
	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, req.URL, resp.StatusCode())
	}

	f.logger.Debug("fetched page",
		zap.String("method", method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.Body(), nil
}
