package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Nirmal2000/suppliercanvas-sub000/internal/agent"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/htmlcache"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/platform"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/platform/alibaba"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/platform/madeinchina"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/queue"
	"github.com/Nirmal2000/suppliercanvas-sub000/internal/search"
	anthropicpkg "github.com/Nirmal2000/suppliercanvas-sub000/pkg/anthropic"
	"github.com/Nirmal2000/suppliercanvas-sub000/pkg/firecrawl"
)

// searchEnv holds the initialized cache, queue, services, orchestrator,
// and optional agent needed by the search/serve commands.
type searchEnv struct {
	Cache        htmlcache.Cache // may be nil (cache.driver "none")
	Queue        *queue.Queue
	Orchestrator *search.Orchestrator
	Agent        *agent.Agent // nil without an Anthropic key
}

// Close releases resources held by the search environment.
func (se *searchEnv) Close() {
	if se.Queue != nil {
		se.Queue.Close()
	}
	if se.Cache != nil {
		_ = se.Cache.Close()
	}
}

// initSearch validates config for the given mode and wires the full search
// pipeline. Callers should defer env.Close().
func initSearch(ctx context.Context, mode string) (*searchEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	cache, err := initCache(ctx)
	if err != nil {
		return nil, err
	}

	q := queue.New(cfg.Queue.Limit)

	scraper := firecrawl.NewClient(cfg.Firecrawl.Key,
		firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL),
		firecrawl.WithTimeout(time.Duration(cfg.Firecrawl.TimeoutSecs)*time.Second),
	)

	// proxies.yaml is optional; a missing file means direct, unproxied
	// fetching with the built-in browser profiles.
	proxyFile, err := platform.LoadProxyFile(cfg.Fetch.ProxiesFile)
	if err != nil {
		zap.L().Warn("proxies file not loaded, fetching directly", zap.Error(err))
		proxyFile = &platform.ProxyFile{}
	}
	ring, err := platform.NewProxyRing(proxyFile.Proxies)
	if err != nil {
		q.Close()
		closeCache(cache)
		return nil, err
	}
	if ring != nil {
		zap.L().Info("outbound proxies enabled", zap.Int("proxies", len(proxyFile.Proxies)))
	}

	fetcher := platform.NewFetcher(platform.FetchOptions{
		Timeout:        time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		UserAgents:     proxyFile.UserAgents,
		Proxies:        ring,
		RequestsPerSec: cfg.Fetch.RequestsPerSec,
		Burst:          cfg.Fetch.Burst,
	})

	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour

	ali := alibaba.NewService(scraper, q, fetcher, cache, alibaba.Config{
		BaseURL:  cfg.Alibaba.BaseURL,
		WaitFor:  cfg.Alibaba.WaitForMS,
		CacheTTL: ttl,
	})
	mic := madeinchina.NewService(fetcher, cache, madeinchina.Config{
		BaseURL:  cfg.MadeInChina.BaseURL,
		CacheTTL: ttl,
	})

	orch := search.NewOrchestrator(ali, mic)

	// The agent is optional; plain searches work without an API key.
	var ag *agent.Agent
	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		ag = agent.New(client, agent.NewSearchTool(orch), agent.Config{
			Model:     cfg.Anthropic.Model,
			MaxTokens: int64(cfg.Agent.MaxTokens),
			MaxRounds: cfg.Agent.MaxRounds,
		})
		zap.L().Info("sourcing agent enabled", zap.String("model", cfg.Anthropic.Model))
	} else {
		zap.L().Debug("SUPPLIERCANVAS_ANTHROPIC_KEY not set, sourcing agent disabled")
	}

	return &searchEnv{
		Cache:        cache,
		Queue:        q,
		Orchestrator: orch,
		Agent:        ag,
	}, nil
}

// initCache opens and migrates the configured page cache backend. Driver
// "none" returns a nil cache, which the services treat as caching off.
func initCache(ctx context.Context) (htmlcache.Cache, error) {
	var (
		cache htmlcache.Cache
		err   error
	)
	switch cfg.Cache.Driver {
	case "sqlite":
		cache, err = htmlcache.NewSQLite(cfg.Cache.Path)
	case "postgres":
		cache, err = htmlcache.NewPostgres(ctx, cfg.Cache.DatabaseURL, nil)
	case "none":
		return nil, nil
	default:
		return nil, eris.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := cache.Migrate(ctx); err != nil {
		_ = cache.Close()
		return nil, eris.Wrap(err, "migrate cache")
	}
	return cache, nil
}

// closeCache closes a possibly-nil cache. The Cache interface value from
// initCache is non-nil only when a backend was opened.
func closeCache(cache htmlcache.Cache) {
	if cache != nil {
		_ = cache.Close()
	}
}
