package session

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"chcrawler/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "chcrawler/1.0"
	// BrowserUserAgent is sent when BrowserTransport is on.
	BrowserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

const (
	report_http_open = "http.open"
)

type HTTPOptions struct {
	// Timeout of a single request, defaults to 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond limits requests across every session of the
	// provider, zero disables the limit.
	RequestsPerSecond float64
	// Burst defaults to 1 when RequestsPerSecond is set.
	Burst      int
	RetryCount int
	// UserAgent defaults to DefaultUserAgent, or BrowserUserAgent with
	// BrowserTransport.
	UserAgent string
	// BrowserTransport makes requests look like they come from a browser
	// (cloudflare-bp-go tls and headers). Off unless asked for.
	BrowserTransport bool
}

// HTTPProvider opens sessions that fetch pages over http and parse them
// with goquery.
type HTTPProvider struct {
	options HTTPOptions
	limiter *rate.Limiter
	tel     telemetry.API
}

func NewHTTPProvider(options HTTPOptions, tel telemetry.API) *HTTPProvider {
	if options.Timeout <= 0 {
		options.Timeout = 30 * time.Second
	}
	if options.UserAgent == "" {
		options.UserAgent = DefaultUserAgent
		if options.BrowserTransport {
			options.UserAgent = BrowserUserAgent
		}
	}
	if options.RetryCount < 0 {
		options.RetryCount = 0
	}

	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		burst := options.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), burst)
	}

	return &HTTPProvider{
		options: options,
		limiter: limiter,
		tel:     telemetry.NewScopedAPI("session", tel),
	}
}

func (p *HTTPProvider) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		p.tel.ReportBroken(report_http_open, err)
		return nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	if p.options.BrowserTransport {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", p.options.UserAgent)
	client.SetTimeout(p.options.Timeout)
	client.SetRetryCount(p.options.RetryCount)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetRetryMaxWaitTime(5 * time.Second)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if res == nil {
			return err != nil
		}
		return res.StatusCode() == http.StatusTooManyRequests ||
			res.StatusCode() >= http.StatusInternalServerError
	})
	if p.limiter != nil {
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return p.limiter.Wait(req.Context())
		})
	}
	telemetry.InstrumentResty(client, p.tel)

	return &httpSession{client: client, tel: p.tel}, nil
}

type httpSession struct {
	client *resty.Client
	tel    telemetry.API
	page   *Page
	closed bool
}

func (s *httpSession) Navigate(ctx context.Context, link string) error {
	if s.closed {
		return &Error{URL: link, Err: ErrClosed}
	}
	s.page = nil

	res, err := s.client.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return &Error{URL: link, Err: err}
	}
	if res.StatusCode() >= http.StatusInternalServerError {
		return &Error{URL: link, Err: fmt.Errorf("unexpected status %s", res.Status())}
	}
	if res.IsError() {
		s.tel.ReportDebug("client error status", "url", link, "status", res.Status())
	}

	base, err := url.Parse(link)
	if err != nil {
		return &Error{URL: link, Err: err}
	}
	// follow redirects for link resolution
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		base = res.RawResponse.Request.URL
	}

	page, err := NewPage(bytes.NewBuffer(res.Body()), base)
	if err != nil {
		return &Error{URL: link, Err: fmt.Errorf("parse html: %w", err)}
	}
	s.page = page
	return nil
}

func (s *httpSession) Find(l Locator) (Element, bool) {
	return s.page.Find(l)
}

func (s *httpSession) FindAll(l Locator) []Element {
	return s.page.FindAll(l)
}

func (s *httpSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.page = nil
	s.client.GetClient().CloseIdleConnections()
	return nil
}
