package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/config"
	"github.com/haukened/rr-dns/internal/dns/domain"
)

func createTestQuery(b *testing.B, id uint16, name string, qtype domain.RRType) domain.Message {
	b.Helper()
	q, err := domain.NewQuestion(domain.CanonicalName(name), qtype, domain.RRClassIN)
	if err != nil {
		b.Fatalf("building question: %v", err)
	}
	return domain.NewQueryMessage(id, true, q)
}

func setupBenchApplication(b *testing.B, zoneContent string) *Application {
	b.Helper()
	log.SetLogger(log.NewNoopLogger())

	dir := b.TempDir()
	zonePath := fmt.Sprintf("%s/bench.example.zone", dir)
	if err := os.WriteFile(zonePath, []byte(zoneContent), 0o644); err != nil {
		b.Fatalf("writing zone fixture: %v", err)
	}

	cfg, err := config.Load(config.Flags{
		Interface: "127.0.0.1:0",
		ZoneFiles: []string{zonePath},
	})
	if err != nil {
		b.Fatalf("loading config: %v", err)
	}

	app, err := buildApplication(cfg)
	if err != nil {
		b.Fatalf("building application: %v", err)
	}
	b.Cleanup(func() { app.reloader.Close() })
	return app
}

func BenchmarkBuildApplication(b *testing.B) {
	log.SetLogger(log.NewNoopLogger())
	defer log.SetLogger(log.GetLogger())

	cfg, err := config.Load(config.Flags{Interface: "127.0.0.1:0"})
	if err != nil {
		b.Fatalf("loading config: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		app, err := buildApplication(cfg)
		if err != nil {
			b.Fatalf("building application: %v", err)
		}
		app.reloader.Close()
	}
}

func BenchmarkApplicationLifecycle(b *testing.B) {
	log.SetLogger(log.NewNoopLogger())
	defer log.SetLogger(log.GetLogger())

	for i := 0; i < b.N; i++ {
		cfg, err := config.Load(config.Flags{Interface: "127.0.0.1:0"})
		if err != nil {
			b.Fatalf("loading config: %v", err)
		}
		app, err := buildApplication(cfg)
		if err != nil {
			b.Fatalf("building application: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			app.Run(ctx)
			close(done)
		}()

		// give the listeners a moment to bind before tearing down.
		time.Sleep(5 * time.Millisecond)
		cancel()
		<-done
	}
}

func BenchmarkQuery_AuthoritativeZone(b *testing.B) {
	app := setupBenchApplication(b, "@ IN SOA ns.bench.example. host.bench.example. 1 3600 600 604800 300\nwww IN A 192.0.2.1\n")
	query := createTestQuery(b, 1, "www.bench.example.", domain.RRTypeA)
	clientAddr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		app.resolver.HandleQuery(context.Background(), query, clientAddr, time.Now())
	}
}

func BenchmarkQuery_CachePerformance(b *testing.B) {
	app := setupBenchApplication(b, "@ IN SOA ns.bench.example. host.bench.example. 1 3600 600 604800 300\nwww IN A 192.0.2.1\n")
	query := createTestQuery(b, 1, "www.bench.example.", domain.RRTypeA)
	clientAddr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}

	// warm up so repeated lookups exercise the authoritative zone lookup
	// path consistently (the zone store itself is the steady-state cost
	// here; the record cache only applies to recursive answers).
	app.resolver.HandleQuery(context.Background(), query, clientAddr, time.Now())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		app.resolver.HandleQuery(context.Background(), query, clientAddr, time.Now())
	}
}

func BenchmarkQuery_Mixed(b *testing.B) {
	app := setupBenchApplication(b, "@ IN SOA ns.bench.example. host.bench.example. 1 3600 600 604800 300\n"+
		"www IN A 192.0.2.1\n"+
		"mail IN A 192.0.2.2\n"+
		"ftp IN A 192.0.2.3\n")
	clientAddr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}
	names := []string{"www.bench.example.", "mail.bench.example.", "ftp.bench.example.", "unknown.bench.example."}

	queries := make([]domain.Message, len(names))
	for i, n := range names {
		queries[i] = createTestQuery(b, uint16(i), n, domain.RRTypeA)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		app.resolver.HandleQuery(context.Background(), queries[i%len(queries)], clientAddr, time.Now())
	}
}
