package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/rr-dns/internal/dns/cache"
	"github.com/haukened/rr-dns/internal/dns/common/clock"
	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/config"
	"github.com/haukened/rr-dns/internal/dns/resolver"
	"github.com/haukened/rr-dns/internal/dns/transport"
	"github.com/haukened/rr-dns/internal/dns/upstream"
	"github.com/haukened/rr-dns/internal/dns/zone"
)

const (
	version = "0.1.0-dev"
	appName = "homedns"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds every running component of the DNS server.
type Application struct {
	config    *config.AppConfig
	udp       transport.ServerTransport
	tcp       transport.ServerTransport
	resolver  *resolver.Resolver
	reloader  *zone.Reloader
}

func main() {
	flags, err := config.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":         version,
		"env":             cfg.Env,
		"log_level":       cfg.LogLevel,
		"interface":       cfg.Interface,
		"cache_size":      cfg.CacheSize,
		"metrics_address": cfg.MetricsAddress,
	}, "starting "+appName)

	if cfg.MetricsAddress != "" {
		log.Info(map[string]any{"metrics_address": cfg.MetricsAddress}, "metrics address configured (exporter not implemented)")
	}

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range sigChan {
			if sig == syscall.SIGHUP {
				log.Info(nil, "reload signal received")
				if err := app.reloader.Reload(); err != nil {
					log.Warn(map[string]any{"error": err.Error()}, "reload completed with errors")
				}
				continue
			}
			log.Info(map[string]any{"signal": sig.String()}, "shutdown signal received")
			cancel()
			return
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "server failed")
	}

	log.Info(nil, appName+" stopped gracefully")
}

// buildApplication constructs every component and wires them together per
// spec §2 "Data flow": zone store, cache, upstream client, local resolver,
// recursive resolver, and the two network front-ends.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()
	clk := clock.RealClock{}

	store := zone.NewStore()
	reloader := zone.NewReloader(store, zone.Sources{
		HostsDirs:  cfg.HostsDirs,
		HostsFiles: cfg.HostsFiles,
		ZoneDirs:   cfg.ZoneDirs,
		ZoneFiles:  cfg.ZoneFiles,
	}, logger)

	if err := reloader.Reload(); err != nil {
		log.Warn(map[string]any{"error": err.Error()}, "initial load completed with errors")
	}

	if err := reloader.WatchFilesystem(); err != nil {
		log.Warn(map[string]any{"error": err.Error()}, "failed to start filesystem watcher")
	}

	recordCache, err := cache.New(int(cfg.CacheSize), cache.DefaultMaxTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to build cache: %w", err)
	}

	upstreamClient := upstream.New(upstream.Options{})
	recursive := resolver.NewRecursive(store, recordCache, upstreamClient, resolver.RecursiveOptions{})
	svc := resolver.New(store, recordCache, recursive)

	udpTransport, err := transport.NewTransport(transport.TransportUDP, cfg.Interface, logger, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to build UDP transport: %w", err)
	}
	tcpTransport, err := transport.NewTransport(transport.TransportTCP, cfg.Interface, logger, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to build TCP transport: %w", err)
	}

	return &Application{
		config:   cfg,
		udp:      udpTransport,
		tcp:      tcpTransport,
		resolver: svc,
		reloader: reloader,
	}, nil
}

// Run starts both transports and blocks until ctx is cancelled, then shuts
// down gracefully (spec §7 "propagation policy").
func (app *Application) Run(ctx context.Context) error {
	if err := app.udp.Start(ctx, app.resolver); err != nil {
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}
	if err := app.tcp.Start(ctx, app.resolver); err != nil {
		return fmt.Errorf("failed to start TCP transport: %w", err)
	}

	log.Info(map[string]any{
		"udp_address": app.udp.Address(),
		"tcp_address": app.tcp.Address(),
	}, "DNS server started")

	<-ctx.Done()
	log.Info(nil, "shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := app.udp.Stop(); err != nil {
		log.Warn(map[string]any{"error": err.Error()}, "error during UDP transport shutdown")
	}
	if err := app.tcp.Stop(); err != nil {
		log.Warn(map[string]any{"error": err.Error()}, "error during TCP transport shutdown")
	}
	_ = app.reloader.Close()

	done := make(chan struct{})
	go func() { close(done) }()

	select {
	case <-done:
		log.Info(nil, "graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout.String()}, "shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
