package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/bookscraper/config"
	"github.com/gocolly/colly/v2"
)

// PageFetcher retrieves the raw body of a URL. phase labels the request
// for metrics.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL, phase string) ([]byte, error)
}

var errRequestAborted = errors.New("request aborted")

const (
	ctxKeyContext = "go_context"
	ctxKeyStart   = "start"
	ctxKeyBody    = "body"
	ctxKeyStatus  = "status"
)

// Fetcher is a synchronous PageFetcher backed by a colly collector.
type Fetcher struct {
	collector *colly.Collector
	metrics   *Metrics

	requestCount int64
}

// NewFetcher builds a fetcher restricted to the configured host.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(0),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	// Every status reaches OnResponse; Fetch decides what counts as success.
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	f := &Fetcher{
		collector: collector,
		metrics:   metrics,
	}
	f.configureHandlers()
	return f, nil
}

func (f *Fetcher) configureHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		if ctx, ok := r.Ctx.GetAny(ctxKeyContext).(context.Context); ok && ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Ctx.Put(ctxKeyStart, time.Now())
		atomic.AddInt64(&f.requestCount, 1)
	})

	f.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxKeyStatus, r.StatusCode)
		r.Ctx.Put(ctxKeyBody, r.Body)
		if start, ok := r.Ctx.GetAny(ctxKeyStart).(time.Time); ok {
			f.metrics.ObserveDuration(time.Since(start))
		}
	})

	f.collector.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Ctx == nil {
			return
		}
		if r.StatusCode != 0 {
			r.Ctx.Put(ctxKeyStatus, r.StatusCode)
		}
		if start, ok := r.Ctx.GetAny(ctxKeyStart).(time.Time); ok {
			f.metrics.ObserveDuration(time.Since(start))
		}
	})
}

// Fetch issues a GET for rawURL and returns the body. Any non-2xx status,
// transport failure or cancellation yields a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, phase string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	f.metrics.IncRequest(phase)

	cctx := colly.NewContext()
	cctx.Put(ctxKeyContext, ctx)

	err := f.collector.Request(http.MethodGet, rawURL, nil, cctx, nil)
	status, _ := cctx.GetAny(ctxKeyStatus).(int)
	if err != nil {
		return nil, f.fail(rawURL, status, classifyError(err, status))
	}

	body, ok := cctx.GetAny(ctxKeyBody).([]byte)
	if !ok {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, f.fail(rawURL, status, ctxErr)
		}
		return nil, f.fail(rawURL, status, errRequestAborted)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, f.fail(rawURL, status, classifyError(errors.New(http.StatusText(status)), status))
	}

	slog.Debug("fetched",
		slog.String("phase", phase),
		slog.String("url", rawURL),
		slog.Int("bytes", len(body)),
	)
	return body, nil
}

// Requests returns the number of requests sent so far.
func (f *Fetcher) Requests() int {
	return int(atomic.LoadInt64(&f.requestCount))
}

func (f *Fetcher) fail(rawURL string, status int, err error) *FetchError {
	fetchErr := &FetchError{URL: rawURL, StatusCode: status, Err: err}
	f.metrics.IncError(fetchErr.Kind())
	return fetchErr
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
