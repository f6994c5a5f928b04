// Package service wires C1-C9 into a single container the HTTP handlers
// (C10, in internal/api) depend on.
package service

import (
	"go.uber.org/zap"

	"github.com/sys3222/akshare-mcp-adapter/internal/cache"
	"github.com/sys3222/akshare-mcp-adapter/internal/config"
	"github.com/sys3222/akshare-mcp-adapter/internal/credentials"
	"github.com/sys3222/akshare-mcp-adapter/internal/files"
	"github.com/sys3222/akshare-mcp-adapter/internal/httputil"
	"github.com/sys3222/akshare-mcp-adapter/internal/llm"
	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
	"github.com/sys3222/akshare-mcp-adapter/internal/resilience"
	"github.com/sys3222/akshare-mcp-adapter/internal/tokens"
	"github.com/sys3222/akshare-mcp-adapter/internal/tools"
	"github.com/sys3222/akshare-mcp-adapter/internal/upstream"
)

// Container holds every wired component the request pipeline dispatches
// to.
type Container struct {
	Config      *config.Config
	Logger      *logging.Logger
	Credentials *credentials.Store
	Tokens      *tokens.Issuer
	Registry    *upstream.Registry
	Invoker     *upstream.Invoker
	Cache       *cache.Store
	Files       *files.Store
	Tools       *tools.Registry
	Dispatcher  *llm.Dispatcher

	stopSweep func()
}

// Build wires every component from cfg. It does not start the HTTP
// server; callers (cmd/server) do that separately so tests can build a
// Container without binding a port.
func Build(cfg *config.Config, logger *logging.Logger) (*Container, error) {
	registry, err := upstream.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	credStore, err := credentials.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	tokenIssuer := tokens.NewIssuer(cfg.TokenSigningSecret, cfg.TokenTTL)

	httpClient := httputil.NewClient(httputil.ClientConfig{Timeout: cfg.UpstreamTimeout})
	breakers := resilience.NewRegistry(resilience.DefaultCircuitBreakerConfig())
	invokerCfg := upstream.InvokerConfig{
		Timeout:       cfg.UpstreamTimeout,
		MaxAttempts:   cfg.UpstreamRetries,
		BaseDelay:     cfg.UpstreamBaseDelay,
		MaxResultByte: cfg.ResultMaxBytes,
	}
	invoker := upstream.NewInvoker(registry, httpClient, invokerCfg, breakers)

	cacheStore, err := cache.NewStore(cache.Config{
		Root:            cfg.CacheRoot,
		CeilingBytes:    cfg.CacheCeilingByte,
		ServeStaleOnErr: cfg.ServeStaleOnErr,
	}, logger)
	if err != nil {
		return nil, err
	}

	fileStore, err := files.NewStore(cfg.FilesRoot)
	if err != nil {
		return nil, err
	}

	toolRegistry := tools.NewRegistry()
	toolRegistry.Register(tools.NewFetchMarketDataTool(cacheStore, invoker))
	toolRegistry.Register(tools.NewListMyFilesTool(fileStore))
	toolRegistry.Register(tools.NewReadMyFileTool(fileStore))
	toolRegistry.Register(tools.NewDescribeInterfacesTool(registry))

	llmHTTPClient := httputil.NewClient(httputil.ClientConfig{Timeout: cfg.LLMTimeout})
	llmClient := llm.NewClient(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel, llmHTTPClient, breakers)
	fallback := llm.NewFallbackAnalyzer(registry, toolRegistry)
	auditLogger, err := zap.NewProduction()
	if err != nil {
		auditLogger = zap.NewNop()
	}
	dispatcher := llm.NewDispatcher(llmClient, toolRegistry, llm.DispatcherConfig{
		MaxTurns: cfg.LLMMaxTurns,
		MaxWall:  cfg.LLMMaxWall,
	}, auditLogger, fallback)

	stopSweep, err := cacheStore.StartEvictionSweep("@every "+cfg.CacheSweepEvery.String(), logger)
	if err != nil {
		logger.WithField("error", err.Error()).Warn("failed to schedule cache eviction sweep")
		stopSweep = func() {}
	}

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Credentials: credStore,
		Tokens:      tokenIssuer,
		Registry:    registry,
		Invoker:     invoker,
		Cache:       cacheStore,
		Files:       fileStore,
		Tools:       toolRegistry,
		Dispatcher:  dispatcher,
		stopSweep:   stopSweep,
	}, nil
}

// Close releases every resource the Container holds (database
// connections, background sweeps).
func (c *Container) Close() error {
	if c.stopSweep != nil {
		c.stopSweep()
	}
	if c.Credentials != nil {
		return c.Credentials.Close()
	}
	return nil
}
