// Command auctiond is the main entry point for the private order-flow
// auction house.
//
// Usage:
//
//	auctiond [flags]
//
// Flags:
//
//	-config   Path to a TOML-like config file (optional; defaults apply)
//	-version  Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flashhouse/auctionhouse/internal/config"
	"github.com/flashhouse/auctionhouse/pkg/auctionhouse"
	"github.com/flashhouse/auctionhouse/pkg/chainclient"
	"github.com/flashhouse/auctionhouse/pkg/cleanup"
	"github.com/flashhouse/auctionhouse/pkg/httpapi"
	"github.com/flashhouse/auctionhouse/pkg/log"
	"github.com/flashhouse/auctionhouse/pkg/pool"
	"github.com/flashhouse/auctionhouse/pkg/settlement"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

// run is the actual entry point, returning an exit code. This pattern
// makes it easy to test the binary without calling os.Exit directly.
func run() int {
	configPath := flag.String("config", "", "path to a TOML-like config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("auctiond %s (commit %s)\n", version, commit)
		return 0
	}

	cfg := config.Default()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "auctiond: failed to read config: %v\n", err)
			return 1
		}
		cfg, err = config.Load(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "auctiond: failed to parse config: %v\n", err)
			return 1
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "auctiond: invalid configuration: %v\n", err)
		return 1
	}

	logger := log.New(cfg.SlogLevel(), cfg.LogWriter(), cfg.Log.Format)
	log.SetDefault(logger)

	logger.Info("auctiond starting",
		"version", version,
		"chain_provider", cfg.Chain.Provider,
		"http_addr", cfg.HTTP.Addr,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, time.Duration(cfg.Chain.RequestTimeoutSeconds)*time.Second)
	defer dialCancel()
	chain, err := chainclient.Dial(dialCtx, cfg.Chain.Provider)
	if err != nil {
		logger.Error("failed to dial chain provider", "err", err)
		return 1
	}
	defer chain.Close()

	p := pool.New()
	ah := auctionhouse.New(p, chain, logger, cfg.Chain.GenesisTime)

	settleLoop := settlement.New(p, logger, cfg.Chain.GenesisTime)
	cleanupLoop := cleanup.New(p, chain, logger)
	go settleLoop.Run(ctx)
	go cleanupLoop.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httpapi.New(ah, logger),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
		}
		cancel()
		return 1
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during http shutdown", "err", err)
		return 1
	}

	logger.Info("shutdown complete")
	return 0
}
