// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

// Package main is the entry point for the Alertledger server.
//
// Alertledger keeps GitHub code scanning alerts and GitHub issues in sync
// through two channels:
//
//  1. Push: the code_scanning_alert webhook delivers per-alert events that
//     are translated into issue transitions (create, close, reopen, label).
//  2. Pull: a reconciliation sweep diffs the full set of open alerts against
//     existing issues and creates anything the webhook path missed.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 with layered sources (defaults, config.yaml,
//     environment variables)
//  2. Logging: zerolog initialized from LOG_LEVEL / LOG_FORMAT
//  3. Ledger backend: GitHub Issues client wrapped in a circuit breaker
//  4. Engine: branch policy + event processor + reconciliation sweeper
//  5. HTTP server: Chi router (webhook, health, reconcile, metrics)
//  6. Supervisor tree: suture v4 supervises the HTTP server and the startup
//     reconciliation service
//
// # Configuration
//
// Required environment variables:
//   - GITHUB_TOKEN: token with issues write and code scanning read scopes
//   - GITHUB_OWNER / GITHUB_REPO: the repository to synchronize
//   - GITHUB_WEBHOOK_SECRET: HMAC secret shared with the webhook
//
// Branch policy:
//   - BRANCH_STRATEGY: main_only (default), main_with_branch_updates, or
//     all_branches
//   - MAIN_BRANCH: branch tracked by the main_* strategies (default: main)
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the supervisor stops the
// reconciler, then the HTTP server drains in-flight requests (10s timeout).
//
// # Example Usage
//
//	export GITHUB_TOKEN=ghp_...
//	export GITHUB_OWNER=acme
//	export GITHUB_REPO=storefront
//	export GITHUB_WEBHOOK_SECRET=$(openssl rand -hex 32)
//	./alertledger
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alertledger/alertledger/internal/api"
	"github.com/alertledger/alertledger/internal/config"
	"github.com/alertledger/alertledger/internal/engine"
	"github.com/alertledger/alertledger/internal/ledger/github"
	"github.com/alertledger/alertledger/internal/logging"
	"github.com/alertledger/alertledger/internal/reconcile"
	"github.com/alertledger/alertledger/internal/supervisor"
	"github.com/alertledger/alertledger/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Alertledger with supervisor tree")
	logging.Info().
		Str("repository", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo).
		Str("branch_strategy", cfg.Webhook.BranchStrategy).
		Str("main_branch", cfg.Webhook.MainBranch).
		Bool("reconcile_enabled", cfg.Reconcile.Enabled).
		Msg("Configuration loaded")

	// GitHub ledger backend behind a circuit breaker so a degraded GitHub
	// API sheds load instead of stacking up retries.
	ghClient := github.NewClient(&cfg.GitHub)
	backend := github.NewBreakerLedger("github-issues", ghClient)

	policy := engine.Policy{
		Strategy:   engine.ParseStrategy(cfg.Webhook.BranchStrategy),
		MainBranch: cfg.Webhook.MainBranch,
	}
	processor := engine.NewProcessor(backend, policy)
	sweeper := reconcile.NewSweeper(backend, processor)

	handler := api.NewHandler(cfg, processor, sweeper)
	middleware := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
	})
	router := api.NewRouter(handler, middleware)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	if cfg.Reconcile.Enabled {
		tree.AddSyncService(services.NewReconcilerService(sweeper, cfg.Reconcile.StartupDelay))
		logging.Info().
			Dur("startup_delay", cfg.Reconcile.StartupDelay).
			Msg("Startup reconciliation service added")
	} else {
		logging.Info().Msg("Startup reconciliation disabled (RECONCILE_ENABLED=false)")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
