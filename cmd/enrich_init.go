package main

import (
	"go.uber.org/zap"

	"github.com/sells-group/calllist-cli/internal/cache"
	"github.com/sells-group/calllist-cli/internal/config"
	"github.com/sells-group/calllist-cli/internal/keypool"
	"github.com/sells-group/calllist-cli/internal/resolver"
	"github.com/sells-group/calllist-cli/internal/worklist"
	"github.com/sells-group/calllist-cli/pkg/serpapi"
)

// enrichEnv bundles the wired components shared by enrich and serve.
type enrichEnv struct {
	Pool     *keypool.Pool
	Resolver *resolver.Resolver
	Cache    *cache.Cache
}

func (e *enrichEnv) Close() {
	if e.Cache != nil {
		if err := e.Cache.Close(); err != nil {
			zap.L().Warn("close cache", zap.Error(err))
		}
	}
}

// newProcessor builds a processor over the environment's resolver with
// the configured pacing.
func (e *enrichEnv) newProcessor(concurrency int) *worklist.Processor {
	return worklist.NewProcessor(e.Resolver, cfg.Output).
		WithCache(e.Cache).
		WithRateLimit(cfg.SerpAPI.RatePerSec).
		WithConcurrency(concurrency)
}

func loadPool(cfg *config.Config) *keypool.Pool {
	return keypool.Load(
		keypool.SecretsFileSource{Path: cfg.Secrets.File},
		keypool.EnvSource{},
	)
}

func initEnrich(useCache bool) (*enrichEnv, error) {
	pool := loadPool(cfg)
	zap.L().Info("loaded api key pool", zap.Int("keys", pool.Size()))

	client := serpapi.NewClient(serpapi.WithBaseURL(cfg.SerpAPI.BaseURL))
	res := resolver.New(client, pool, resolver.Config{
		PhoneTerm:     cfg.SerpAPI.PhoneTerm,
		Language:      cfg.SerpAPI.Language,
		Country:       cfg.SerpAPI.Country,
		ResultCount:   cfg.SerpAPI.ResultCount,
		QuotaKeywords: cfg.SerpAPI.QuotaKeywords,
	})

	env := &enrichEnv{Pool: pool, Resolver: res}

	if useCache && cfg.Cache.Enabled {
		c, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		env.Cache = c
	}

	return env, nil
}
