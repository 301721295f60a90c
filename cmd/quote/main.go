// Package main is the entry point for the quote engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fd1az/quote-engine/business/chain"
	"github.com/fd1az/quote-engine/business/quote"
	"github.com/fd1az/quote-engine/business/quote/app"
	quoteDI "github.com/fd1az/quote-engine/business/quote/di"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/di"
	"github.com/fd1az/quote-engine/internal/logger"
	"github.com/fd1az/quote-engine/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"log-level": "app.log_level",
	"rpc-url":   "ethereum.http_url",
	"chain-id":  "ethereum.chain_id",
	"strict":    "orchestrator.strict",
	"timeout":   "orchestrator.source_timeout",
	"port":      "server.port",
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "quote-engine",
		Short:        "Best-execution swap quotes across DEX venues and routers",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("rpc-url", "", "Ethereum JSON-RPC endpoint")
	pf.Uint64("chain-id", 1, "default chain id")
	pf.Bool("strict", false, "fail with NO_LIVE_SOURCE instead of serving simulated quotes")
	pf.Duration("timeout", 0, "per-source timeout")

	root.AddCommand(
		newQuoteCmd(),
		newPlanCmd(),
		newCompareCmd(),
		newInspectCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quote-engine %s (commit: %s, built: %s)\n", version, commit, buildDate)
		},
	}
}

// runtime is what a command needs once modules are started.
type runtime struct {
	cfg      *config.Config
	log      logger.LoggerInterface
	services di.ServiceRegistry
	svc      *app.QuoteService
}

// run loads configuration, starts the modules and calls fn. Resources are
// released when fn returns.
func run(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, config.WithFlags(cmd.Flags(), flagKeys))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&chain.Module{}, // gas pricing, optional
		&quote.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	return fn(ctx, &runtime{
		cfg:      cfg,
		log:      log,
		services: mono.Services(),
		svc:      quoteDI.GetQuoteService(mono.Services()),
	})
}

func newLogger(cfg *config.Config) *logger.Logger {
	level := logger.ParseLevel(cfg.App.LogLevel)
	if cfg.App.Environment == "development" {
		return logger.NewConsole(os.Stderr, level, cfg.App.Name, nil)
	}
	return logger.New(os.Stderr, level, cfg.App.Name, nil)
}
