// printerscan browses the local network for print-capable services and
// prints each snapshot of the discovered set as it changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/wudi/printkit/discovery"
	"github.com/wudi/printkit/observability"
)

func main() {
	timeout := flag.Duration("timeout", discovery.DefaultResolveTimeout, "per-candidate resolve timeout")
	duration := flag.Duration("for", 30*time.Second, "how long to browse before stopping")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := observability.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	m := discovery.New(
		discovery.NewMDNSBrowser(),
		discovery.NewMDNSResolver(),
		discovery.WithLogger(log),
		discovery.WithResolveTimeout(*timeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	for snap := range m.Start(ctx) {
		fmt.Printf("--- %d printer(s)\n", len(snap))
		for _, p := range snap {
			fmt.Printf("  %-30s %s:%d (%s)\n", p.Name, p.Host, p.Port, p.ServiceType)
		}
	}
}
