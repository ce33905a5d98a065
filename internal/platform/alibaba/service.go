package alibaba

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/htmlcache"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/model"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/platform"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/queue"
	"github.com/Nirmal2000/suppliercanvas-sub000/pkg/firecrawl"
)

// PageSize is how many listings Alibaba serves per search page.
const PageSize = 48

// Config tunes the Alibaba service. Zero values get sane defaults.
type Config struct {
	// BaseURL is the site root, overridable in tests.
	BaseURL string
	// WaitFor is how long the scraping backend should let the page render,
	// in milliseconds. Alibaba hydrates listings client-side.
	WaitFor int
	// CacheTTL bounds how long fetched search pages are served from cache.
	CacheTTL time.Duration
}

// Service searches Alibaba.com. Text queries go through the scraping
// backend because the search page is JS-rendered and bot-walled; image
// queries hit the picture-search API directly.
type Service struct {
	scraper  firecrawl.Client
	queue    *queue.Queue
	fetcher  *platform.Fetcher
	cache    htmlcache.Cache
	baseURL  string
	waitFor  int
	cacheTTL time.Duration
}

// NewService wires an Alibaba service. cache may be nil to disable page
// caching.
func NewService(scraper firecrawl.Client, q *queue.Queue, fetcher *platform.Fetcher, cache htmlcache.Cache, cfg Config) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.alibaba.com"
	}
	if cfg.WaitFor <= 0 {
		cfg.WaitFor = 3000
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Service{
		scraper:  scraper,
		queue:    q,
		fetcher:  fetcher,
		cache:    cache,
		baseURL:  cfg.BaseURL,
		waitFor:  cfg.WaitFor,
		cacheTTL: cfg.CacheTTL,
	}
}

func (s *Service) Platform() model.PlatformType { return model.PlatformAlibaba }

// SearchText fetches one page of text-search results. Pages come from the
// cache when fresh; otherwise the fetch is admitted through the shared
// queue so concurrent searches cannot stampede the scraping backend.
func (s *Service) SearchText(ctx context.Context, query string, page int) (*platform.SearchPage, error) {
	if page < 1 {
		page = 1
	}
	searchURL := s.searchURL(query, page)

	html := s.cachedHTML(ctx, searchURL)
	if html == "" {
		var err error
		html, err = s.scrapePage(ctx, searchURL)
		if err != nil {
			return nil, err
		}
		s.storeHTML(ctx, searchURL, html)
	}

	parsed, err := ParseSearchHTML(html, s.baseURL)
	if err != nil {
		return nil, &platform.ParseError{Platform: model.PlatformAlibaba, URL: searchURL, Err: err}
	}

	products := MapListings(parsed.Listings)
	return &platform.SearchPage{
		Products:   products,
		TotalCount: parsed.TotalCount,
		HasMore:    platform.HasMore(parsed.TotalCount, page, PageSize, len(products)),
	}, nil
}

// SearchImage runs picture search: upload the image to obtain a search
// key, then page through the JSON results under that key.
func (s *Service) SearchImage(ctx context.Context, img model.ImageAttachment, page int) (*platform.SearchPage, error) {
	if page < 1 {
		page = 1
	}
	if len(img.Data) == 0 {
		return nil, eris.New("alibaba: image attachment has no data")
	}

	key, err := s.uploadImage(ctx, img)
	if err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf("%s/picture/search.json?imageKey=%s&page=%d&pageSize=%d",
		s.baseURL, url.QueryEscape(key), page, PageSize)
	res, err := s.fetcher.Get(ctx, searchURL)
	if err != nil {
		return nil, &platform.FetchError{Platform: model.PlatformAlibaba, URL: searchURL, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &platform.FetchError{Platform: model.PlatformAlibaba, URL: searchURL, StatusCode: res.StatusCode}
	}

	parsed, err := ParseImageSearchJSON([]byte(res.Body), s.baseURL)
	if err != nil {
		return nil, &platform.ParseError{Platform: model.PlatformAlibaba, URL: searchURL, Err: err}
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
	v.Set("fsb", "y")
	v.Set("IndexArea", "product_en")
	v.Set("SearchText", query)
	v.Set("page", fmt.Sprintf("%d", page))
	return s.baseURL + "/trade/search?" + v.Encode()
}

// scrapePage renders the search page through the scraping backend. The
// call is admitted through the shared queue; admission honors ctx, the
// fetch itself runs to completion once started.
func (s *Service) scrapePage(ctx context.Context, pageURL string) (string, error) {
	resp, err := queue.Submit(ctx, s.queue, func(ctx context.Context) (*firecrawl.ScrapeResponse, error) {
		return s.scraper.Scrape(ctx, firecrawl.ScrapeRequest{
			URL:     pageURL,
			Formats: []string{firecrawl.FormatHTML},
			WaitFor: s.waitFor,
		})
	})
	if err != nil {
		return "", &platform.FetchError{Platform: model.PlatformAlibaba, URL: pageURL, Err: err}
	}
	if code := resp.Data.StatusCode; code != 0 && (code < 200 || code > 299) {
		return "", &platform.FetchError{Platform: model.PlatformAlibaba, URL: pageURL, StatusCode: code}
	}
	if !resp.Success || resp.Data.HTML == "" {
		return "", &platform.FetchError{Platform: model.PlatformAlibaba, URL: pageURL, Err: eris.New("scraping backend returned no html")}
	}
	return resp.Data.HTML, nil
}

func (s *Service) uploadImage(ctx context.Context, img model.ImageAttachment) (string, error) {
	uploadURL := s.baseURL + "/image/upload"
	res, err := s.fetcher.PostMultipart(ctx, uploadURL,
		map[string]string{"scene": "pic_search"},
		"imageFile", img.Filename, img.MIME, img.Data)
	if err != nil {
		return "", &platform.FetchError{Platform: model.PlatformAlibaba, URL: uploadURL, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &platform.FetchError{Platform: model.PlatformAlibaba, URL: uploadURL, StatusCode: res.StatusCode}
	}

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			ImageKey string `json:"imageKey"`
			ImageID  string `json:"imageId"`
			Region   string `json:"region"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(res.Body), &env); err != nil {
		return "", &platform.ParseError{Platform: model.PlatformAlibaba, URL: uploadURL, Err: eris.Wrap(err, "decode upload response")}
	}
	key := platform.FirstNonEmpty(env.Data.ImageKey, env.Data.ImageID)
	if !env.Success || key == "" {
		return "", &platform.FetchError{Platform: model.PlatformAlibaba, URL: uploadURL, Err: eris.New("image upload returned no key")}
	}
	return key, nil
}

// Cache failures degrade to a live fetch, never to a failed search.
func (s *Service) cachedHTML(ctx context.Context, url string) string {
	if s.cache == nil {
		return ""
	}
	html, err := s.cache.GetHTML(ctx, url)
	if err != nil {
		zap.L().Warn("html cache read failed",
			zap.String("platform", string(model.PlatformAlibaba)),
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
			zap.String("platform", string(model.PlatformAlibaba)),
			zap.String("url", url),
			zap.Error(err))
	}
}
