package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"finance/internal/backend"
	"finance/internal/cache"
	"finance/internal/client"
	"finance/internal/config"
	"finance/internal/log"
	"finance/internal/resolver"
)

// App bundles the components built from configuration.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Backend  *backend.Result
	Resolver *resolver.Resolver
	Client   *client.Client
	Caches   *cache.Manager
}

// NewApp wires the route store, the optional notifier, the resolver and the
// feature client.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	candidates := resolver.DefaultCandidates()
	if cfg.RoutesFile != "" {
		extra, err := resolver.LoadCandidatesFile(cfg.RoutesFile)
		if err != nil {
			_ = result.Cleanup()
			return nil, err
		}
		candidates = candidates.Merge(extra)
		logger.InfoContext(ctx, "Loaded extra route candidates", "file", cfg.RoutesFile, "keys", len(extra))
	}

	memory := cache.NewLRUCache[resolver.ResolvedRoute](cfg.RouteCacheSize, cfg.RouteCacheTTL)
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(memory)
	if cfg.RouteCacheTTL > 0 {
		caches.StartCleanup(cleanupInterval(cfg.RouteCacheTTL))
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	opts := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithCandidates(candidates),
		resolver.WithStore(result.Store),
		resolver.WithMemoryCache(memory),
		resolver.WithProber(resolver.NewHTTPProber(httpClient, cfg.ProbeTimeout)),
		resolver.WithTTL(cfg.RouteCacheTTL),
	}
	if result.Notifier != nil {
		opts = append(opts, resolver.WithNotifier(result.Notifier))
	}
	res, err := resolver.New(resolver.Config{BaseURL: cfg.APIURL, Prefix: cfg.APIPrefix}, opts...)
	if err != nil {
		caches.Stop()
		_ = result.Cleanup()
		return nil, fmt.Errorf("build resolver: %w", err)
	}
	if res.BaseURL() == "" {
		logger.WarnContext(ctx, "FINANCE_API_URL is not set; backend calls will fail until it is configured")
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Backend:  result,
		Resolver: res,
		Client:   client.New(res, client.WithHTTPClient(httpClient), client.WithLogger(logger)),
		Caches:   caches,
	}, nil
}

// Close stops background work and releases the backend.
func (a *App) Close() error {
	a.Caches.Stop()
	if a.Backend != nil && a.Backend.Cleanup != nil {
		return a.Backend.Cleanup()
	}
	return nil
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}
