// Alertledger - Code Scanning Alert to Issue Tracker Synchronization
// Copyright 2026 Alertledger Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/alertledger/alertledger

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/alertledger/config.yaml",
	"/etc/alertledger/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			Token:             "",
			Owner:             "",
			Repo:              "",
			BaseURL:           "https://api.github.com",
			Timeout:           30 * time.Second,
			MaxRetries:        5,
			RetryBaseDelay:    1 * time.Second,
			RequestsPerSecond: 10,
		},
		Webhook: WebhookConfig{
			Secret:         "",
			BranchStrategy: "main_only",
			MainBranch:     "main",
		},
		Reconcile: ReconcileConfig{
			Enabled:      true,
			StartupDelay: 1 * time.Second,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        3000,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration with layered sources (highest priority wins):
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Legacy branch-strategy environment booleans
//  4. Environment variables
//
// The result is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: legacy boolean strategy selectors, kept for compatibility
	// with pre-strategy deployments. BRANCH_ALERT_STRATEGY (layer 4) wins.
	if err := applyLegacyStrategyEnv(k); err != nil {
		return nil, err
	}

	// Layer 4: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processDerivedFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, environment override first.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envKeyMap maps environment variable names to koanf config paths. Only
// listed variables are consumed; everything else in the environment is
// ignored.
var envKeyMap = map[string]string{
	"GITHUB_TOKEN":               "github.token",
	"GITHUB_OWNER":               "github.owner",
	"GITHUB_REPO":                "github.repo",
	"GITHUB_BASE_URL":            "github.base_url",
	"GITHUB_TIMEOUT":             "github.timeout",
	"GITHUB_MAX_RETRIES":         "github.max_retries",
	"GITHUB_RETRY_BASE_DELAY":    "github.retry_base_delay",
	"GITHUB_REQUESTS_PER_SECOND": "github.requests_per_second",
	"GITHUB_WEBHOOK_SECRET":      "webhook.secret",
	"BRANCH_ALERT_STRATEGY":      "webhook.branch_strategy",
	"MAIN_BRANCH":                "webhook.main_branch",
	"ENABLE_RECONCILIATION":      "reconcile.enabled",
	"RECONCILIATION_DELAY":       "reconcile.startup_delay",
	"HOST":                       "server.host",
	"PORT":                       "server.port",
	"SERVER_TIMEOUT":             "server.timeout",
	"ENVIRONMENT":                "server.environment",
	"RATE_LIMIT_REQS":            "security.rate_limit_reqs",
	"RATE_LIMIT_WINDOW":          "security.rate_limit_window",
	"CORS_ORIGINS":               "security.cors_origins",
	"LOG_LEVEL":                  "logging.level",
	"LOG_FORMAT":                 "logging.format",
	"LOG_CALLER":                 "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Returning an empty string drops the variable.
func envTransformFunc(key string) string {
	return envKeyMap[key]
}

// applyLegacyStrategyEnv honors the pre-strategy boolean environment
// variables: CREATE_ISSUES_FOR_ALL_BRANCHES=true selects all_branches,
// otherwise TRACK_BRANCH_ALERTS=true selects main_with_branch_updates.
func applyLegacyStrategyEnv(k *koanf.Koanf) error {
	var strategy string
	switch {
	case os.Getenv("CREATE_ISSUES_FOR_ALL_BRANCHES") == "true":
		strategy = "all_branches"
	case os.Getenv("TRACK_BRANCH_ALERTS") == "true":
		strategy = "main_with_branch_updates"
	default:
		return nil
	}

	if err := k.Set("webhook.branch_strategy", strategy); err != nil {
		return fmt.Errorf("failed to apply legacy strategy: %w", err)
	}
	return nil
}

// processDerivedFields normalizes values that need shaping before unmarshal:
// the branch strategy is lowercased, and comma-separated CORS origins from
// the environment become a slice.
func processDerivedFields(k *koanf.Koanf) error {
	if s := k.String("webhook.branch_strategy"); s != "" {
		if err := k.Set("webhook.branch_strategy", strings.ToLower(s)); err != nil {
			return fmt.Errorf("failed to normalize strategy: %w", err)
		}
	}

	val := k.Get("security.cors_origins")
	if strVal, ok := val.(string); ok && strVal != "" {
		parts := strings.Split(strVal, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		if len(origins) > 0 {
			if err := k.Set("security.cors_origins", origins); err != nil {
				return fmt.Errorf("failed to set cors origins: %w", err)
			}
		}
	}

	return nil
}
