// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

// Package config provides application configuration loaded via Koanf v2
// with layered sources: built-in defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration, constructed once at startup and treated
// as immutable for the process lifetime. No component reads the environment
// directly; everything flows through an explicitly passed Config.
type Config struct {
	GitHub    GitHubConfig    `koanf:"github"`
	Webhook   WebhookConfig   `koanf:"webhook"`
	Reconcile ReconcileConfig `koanf:"reconcile"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// GitHubConfig configures the GitHub ledger backend.
type GitHubConfig struct {
	// Token is a personal access token or installation token with issues
	// and code scanning read scopes. Required.
	Token string `koanf:"token"`

	// Owner and Repo identify the repository whose alerts and issues are
	// synchronized. Required.
	Owner string `koanf:"owner"`
	Repo  string `koanf:"repo"`

	// BaseURL overrides the API endpoint for GitHub Enterprise Server.
	// Default: https://api.github.com
	BaseURL string `koanf:"base_url"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries bounds retries on HTTP 429 responses.
	MaxRetries int `koanf:"max_retries"`

	// RetryBaseDelay is the base delay for exponential backoff on retries.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// RequestsPerSecond is the client-side rate budget for the GitHub API.
	// 0 disables client-side limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// WebhookConfig configures inbound webhook handling and the branch policy.
type WebhookConfig struct {
	// Secret is the shared HMAC-SHA256 secret for signature verification.
	// Required; deliveries without a valid signature are rejected.
	Secret string `koanf:"secret"`

	// BranchStrategy is one of main_only, main_with_branch_updates,
	// all_branches. Default: main_only.
	BranchStrategy string `koanf:"branch_strategy"`

	// MainBranch is the branch tracked by the main_* strategies.
	// Default: main.
	MainBranch string `koanf:"main_branch"`
}

// ReconcileConfig configures the startup reconciliation sweep.
type ReconcileConfig struct {
	// Enabled runs one sweep shortly after startup. Recurring sweeps are an
	// external scheduler's job (cron hitting POST /api/v1/reconcile).
	// Default: true.
	Enabled bool `koanf:"enabled"`

	// StartupDelay is how long to wait after startup before the sweep, so
	// the webhook listener is up first.
	StartupDelay time.Duration `koanf:"startup_delay"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// SecurityConfig configures HTTP rate limiting and CORS.
type SecurityConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// validStrategies lists the accepted branch strategy values.
var validStrategies = map[string]bool{
	"main_only":                true,
	"main_with_branch_updates": true,
	"all_branches":             true,
}

// Validate checks the configuration for missing required values and
// out-of-range settings. Called by Load after unmarshaling.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("github.token is required (GITHUB_TOKEN)")
	}
	if c.GitHub.Owner == "" {
		return fmt.Errorf("github.owner is required (GITHUB_OWNER)")
	}
	if c.GitHub.Repo == "" {
		return fmt.Errorf("github.repo is required (GITHUB_REPO)")
	}
	if c.Webhook.Secret == "" {
		return fmt.Errorf("webhook.secret is required (GITHUB_WEBHOOK_SECRET)")
	}
	if !validStrategies[c.Webhook.BranchStrategy] {
		return fmt.Errorf("webhook.branch_strategy %q is invalid (want main_only, main_with_branch_updates, or all_branches)", c.Webhook.BranchStrategy)
	}
	if c.Webhook.MainBranch == "" {
		return fmt.Errorf("webhook.main_branch cannot be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.GitHub.MaxRetries < 0 {
		return fmt.Errorf("github.max_retries cannot be negative")
	}
	return nil
}
