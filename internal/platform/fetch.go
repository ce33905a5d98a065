package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"
)

// FetchOptions configures a direct-to-site Fetcher.
type FetchOptions struct {
	Timeout        time.Duration
	UserAgents     []string
	Proxies        *ProxyRing
	RequestsPerSec float64 // per target host
	Burst          int
}

// Fetcher performs direct browser-style requests against marketplace
// hosts: rotating user agents, per-host rate limiting, optional proxy
// rotation and charset normalization. It never retries; a failed request
// is the caller's problem to classify.
type Fetcher struct {
	client *http.Client
	uas    *UAPool

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// Result is a completed HTTP exchange. Body has been charset-decoded to
// UTF-8 when the response declared a known non-UTF-8 encoding.
type Result struct {
	StatusCode int
	Body       string
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	rps := rate.Limit(opts.RequestsPerSec)
	if rps <= 0 {
		rps = 2
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	if opts.Proxies.Size() > 0 {
		ring := opts.Proxies
		transport.Proxy = func(*http.Request) (*url.URL, error) {
			return ring.Next(), nil
		}
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		uas:      NewUAPool(opts.UserAgents),
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (f *Fetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.rps, f.burst)
		f.limiters[host] = lim
	}
	return lim
}

func (f *Fetcher) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.uas.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

// Get performs a rate-limited GET and returns the decoded body alongside
// the status code. Non-2xx responses are returned, not turned into
// errors; classification belongs to the platform service.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: parse url %s", rawURL)
	}
	if err := f.limiterFor(u.Host).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetch: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	f.setBrowserHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: get %s", rawURL)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	return &Result{StatusCode: resp.StatusCode, Body: body}, nil
}

// PostMultipart uploads a single file plus optional form fields and
// returns the decoded response. Used by the image-search upload endpoints.
func (f *Fetcher) PostMultipart(ctx context.Context, rawURL string, fields map[string]string, fileField, filename, mimeType string, data []byte) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: parse url %s", rawURL)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, eris.Wrapf(err, "fetch: write field %s", k)
		}
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, filename))
	hdr.Set("Content-Type", mimeType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create file part")
	}
	if _, err := part.Write(data); err != nil {
		return nil, eris.Wrap(err, "fetch: write file part")
	}
	if err := w.Close(); err != nil {
		return nil, eris.Wrap(err, "fetch: close multipart writer")
	}

	if err := f.limiterFor(u.Host).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetch: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, &buf)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	f.setBrowserHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: post %s", rawURL)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	return &Result{StatusCode: resp.StatusCode, Body: body}, nil
}

// decodeBody reads the response and converts it to UTF-8 when the
// Content-Type names a known non-UTF-8 charset. Chinese marketplaces
// still serve the occasional GBK page. Unknown charsets pass through
// unconverted.
func decodeBody(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "fetch: read body")
	}

	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return string(raw), nil
	}
	cs := params["charset"]
	if cs == "" || strings.EqualFold(cs, "utf-8") {
		return string(raw), nil
	}

	enc, err := htmlindex.Get(cs)
	if err != nil {
		return string(raw), nil
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", eris.Wrapf(err, "fetch: decode %s body", cs)
	}
	return string(decoded), nil
}
