package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/rr-relay/internal/dns/common/clock"
	"github.com/haukened/rr-relay/internal/dns/common/log"
	"github.com/haukened/rr-relay/internal/dns/config"
	"github.com/haukened/rr-relay/internal/dns/gateways/transport"
	"github.com/haukened/rr-relay/internal/dns/gateways/wire"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts/bloom"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts/bolt"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts/lru"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts/memory"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts/parsers"
	"github.com/haukened/rr-relay/internal/dns/repos/transactions"
	"github.com/haukened/rr-relay/internal/dns/services/relay"
	"github.com/haukened/rr-relay/internal/dns/services/resolver"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "rr-relayd"

	// bloomFalsePositiveRate tunes the hosts prefilter. False positives only
	// cost one extra store lookup, so a loose rate keeps the filter small.
	bloomFalsePositiveRate = 0.01
)

// Application holds all the components of the relay
type Application struct {
	config *config.AppConfig
	engine *relay.Engine
	hosts  *hosts.Repository
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":     version,
		"env":         cfg.Env,
		"log_level":   cfg.LogLevel,
		"listen":      cfg.ListenAddr,
		"upstream":    cfg.Upstream,
		"hosts_path":  cfg.HostsPath,
		"hosts_store": cfg.HostsStore,
	}, "Starting RR relay")

	// Build application with all dependencies
	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	// Start the relay
	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Relay failed")
	}

	log.Info(nil, "RR relay stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	// Initialize logger (already configured globally)
	logger := log.GetLogger()

	// Create DNS wire codec
	codec := wire.NewUDPCodec(logger)

	// Build the hosts repository the resolver answers from
	hostsRepo, err := buildHostsRepository(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build hosts repository: %w", err)
	}

	// Build gateway layer. Either bind failure is fatal.
	client, err := transport.NewClientEndpoint(cfg.ListenAddr, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to bind client endpoint: %w", err)
	}
	upstream, err := transport.NewUpstreamEndpoint(cfg.UpstreamBindAddr, cfg.Upstream, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to bind upstream endpoint: %w", err)
	}

	// Build service layer
	resolverService := resolver.New(resolver.Options{
		Hosts:     hostsRepo,
		RecordTTL: cfg.RecordTTL,
		Logger:    logger,
	})

	table := transactions.New(transactions.Options{
		MaxAge: cfg.ReapMaxAge,
		Clock:  &clock.RealClock{},
		Logger: logger,
	})

	engine := relay.New(relay.Options{
		Client:       client,
		Upstream:     upstream,
		Codec:        codec,
		Resolver:     resolverService,
		Table:        table,
		Logger:       logger,
		ReapInterval: cfg.ReapInterval,
	})

	return &Application{
		config: cfg,
		engine: engine,
		hosts:  hostsRepo,
	}, nil
}

// buildHostsRepository loads the hosts table from disk and assembles the
// store, decision cache, and bloom prefilter around it.
func buildHostsRepository(cfg *config.AppConfig, logger log.Logger) (*hosts.Repository, error) {
	entries, err := loadHostsEntries(cfg, logger)
	if err != nil {
		return nil, err
	}

	var store hosts.Store
	switch cfg.HostsStore {
	case "bolt":
		bs, err := bolt.New(cfg.HostsDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open hosts database: %w", err)
		}
		if err := bs.Rebuild(entries, time.Now().Unix()); err != nil {
			bs.Close()
			return nil, fmt.Errorf("failed to rebuild hosts database: %w", err)
		}
		store = bs
	default:
		store = memory.New(entries)
	}

	// Safely convert uint to int with bounds check
	cacheSize := cfg.CacheSize
	if cacheSize > uint(^uint(0)>>1) { // Check if it exceeds max int
		return nil, fmt.Errorf("cache size too large: %d (max %d)", cacheSize, ^uint(0)>>1)
	}
	cache, err := lru.New(int(cacheSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}

	filter := bloom.Seed(entries, bloomFalsePositiveRate)

	log.Info(map[string]any{
		"names":      store.Len(),
		"store":      cfg.HostsStore,
		"cache_size": cfg.CacheSize,
	}, "Hosts table loaded")

	return hosts.NewRepository(store, cache, filter, logger), nil
}

// loadHostsEntries reads the hosts file and, when configured, the additional
// blacklist file. Blacklist names map to the sentinel address.
func loadHostsEntries(cfg *config.AppConfig, logger log.Logger) ([]hosts.Entry, error) {
	f, err := os.Open(cfg.HostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open hosts file: %w", err)
	}
	defer f.Close()

	entries, err := parsers.ParseHostsFile(f, cfg.HostsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hosts file: %w", err)
	}

	if cfg.BlacklistPath != "" {
		bf, err := os.Open(cfg.BlacklistPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open blacklist file: %w", err)
		}
		defer bf.Close()

		blocked, err := parsers.ParseBlacklist(bf, cfg.BlacklistPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to parse blacklist file: %w", err)
		}
		entries = append(entries, blocked...)
	}

	return entries, nil
}

// Run starts the relay and blocks until context is cancelled
func (app *Application) Run(ctx context.Context) error {
	err := app.engine.Run(ctx)

	if cerr := app.hosts.Close(); cerr != nil {
		log.Warn(map[string]any{"error": cerr}, "Error closing hosts repository")
	}

	return err
}
