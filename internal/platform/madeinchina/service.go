package madeinchina

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/htmlcache"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/platform"
)

// PageSize is how many listings Made-in-China serves per search page.
const PageSize = 40

// Config tunes the Made-in-China service. Zero values get sane defaults.
type Config struct {
	// BaseURL is the site root, overridable in tests.
	BaseURL string
	// CacheTTL bounds how long fetched search pages are served from cache.
	CacheTTL time.Duration
}

// Service searches Made-in-China.com. The site tolerates plain
// browser-style requests, so both modes go through the direct Fetcher
// instead of the scraping backend.
type Service struct {
	fetcher  *platform.Fetcher
	cache    htmlcache.Cache
	baseURL  string
	cacheTTL time.Duration
}

// NewService wires a Made-in-China service. cache may be nil to disable
// page caching.
func NewService(fetcher *platform.Fetcher, cache htmlcache.Cache, cfg Config) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.made-in-china.com"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Service{
		fetcher:  fetcher,
		cache:    cache,
		baseURL:  cfg.BaseURL,
		cacheTTL: cfg.CacheTTL,
	}
}

func (s *Service) Platform() model.PlatformType { return model.PlatformMadeInChina }

// SearchText fetches one page of text-search results, serving repeats
// from the cache while fresh.
func (s *Service) SearchText(ctx context.Context, query string, page int) (*platform.SearchPage, error) {
	if page < 1 {
		page = 1
	}
	searchURL := s.searchURL(query, page)

	html := s.cachedHTML(ctx, searchURL)
	if html == "" {
		res, err := s.fetcher.Get(ctx, searchURL)
		if err != nil {
			return nil, &platform.FetchError{Platform: model.PlatformMadeInChina, URL: searchURL, Err: err}
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return nil, &platform.FetchError{Platform: model.PlatformMadeInChina, URL: searchURL, StatusCode: res.StatusCode}
		}
		html = res.Body
		s.storeHTML(ctx, searchURL, html)
	}

	return s.buildPage(html, searchURL, page)
}

// SearchImage uploads the image in a single multipart POST; the response
// is a regular result page parsed by the same listing parser.
func (s *Service) SearchImage(ctx context.Context, img model.ImageAttachment, page int) (*platform.SearchPage, error) {
	if page < 1 {
		page = 1
	}
	if len(img.Data) == 0 {
		return nil, eris.New("made-in-china: image attachment has no data")
	}

	uploadURL := fmt.Sprintf("%s/imagesearch.do?page=%d", s.baseURL, page)
	res, err := s.fetcher.PostMultipart(ctx, uploadURL, nil, "imageFile", img.Filename, img.MIME, img.Data)
	if err != nil {
		return nil, &platform.FetchError{Platform: model.PlatformMadeInChina, URL: uploadURL, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &platform.FetchError{Platform: model.PlatformMadeInChina, URL: uploadURL, StatusCode: res.StatusCode}
	}

	return s.buildPage(res.Body, uploadURL, page)
}

func (s *Service) buildPage(html, sourceURL string, page int) (*platform.SearchPage, error) {
	parsed, err := ParseSearchHTML(html, s.baseURL)
	if err != nil {
		return nil, &platform.ParseError{Platform: model.PlatformMadeInChina, URL: sourceURL, Err: err}
	}
	products := MapListings(parsed.Listings)
	return &platform.SearchPage{
		Products:   products,
		TotalCount: parsed.TotalCount,
		HasMore:    platform.HasMore(parsed.TotalCount, page, PageSize, len(products)),
	}, nil
}

func (s *Service) searchURL(query string, page int) string {
	v := url.Values{}
	v.Set("word", query)
	v.Set("page", fmt.Sprintf("%d", page))
	return s.baseURL + "/productdirsearch.do?" + v.Encode()
}

// Cache failures degrade to a live fetch, never to a failed search.
func (s *Service) cachedHTML(ctx context.Context, url string) string {
	if s.cache == nil {
		return ""
	}
	html, err := s.cache.GetHTML(ctx, url)
	if err != nil {
		zap.L().Warn("html cache read failed",
			zap.String("platform", string(model.PlatformMadeInChina)),
			zap.String("url", url),
			zap.Error(err))
		return ""
	}
	return html
}

func (s *Service) storeHTML(ctx context.Context, url, html string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetHTML(ctx, url, html, s.cacheTTL); err != nil {
		zap.L().Warn("html cache write failed",
			zap.String("platform", string(model.PlatformMadeInChina)),
			zap.String("url", url),
			zap.Error(err))
	}
}
