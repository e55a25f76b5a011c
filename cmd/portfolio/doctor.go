package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"portfolio-ai/internal/adapter/store"
	"portfolio-ai/internal/domain"
	"portfolio-ai/internal/infra/config"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(cfg *config.Config) CheckResult
}

// contentStore is the read side the content checks need.
type contentStore interface {
	domain.ChatbotStore
	domain.ResumeStore
	Ping(ctx context.Context) error
}

// runDoctor executes all health checks and reports results.
func runDoctor() error {
	cfgPath := configPath()
	cfg, cfgErr := config.Load(cfgPath)

	var st contentStore
	var stErr error
	if cfg != nil {
		sqlite, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			stErr = err
		} else {
			defer sqlite.Close()
			st = sqlite
		}
	}

	checks := []Check{
		{Name: "Config file", Fn: checkConfigFile(cfgPath, cfgErr)},
		{Name: "LLM API key", Fn: checkLLMAPIKey},
		{Name: "LLM connectivity", Fn: checkLLMConnectivity},
		{Name: "Store", Fn: checkStore(st, stErr)},
		{Name: "Chatbot config", Fn: checkChatbotConfig(st)},
		{Name: "Default resume", Fn: checkDefaultResume(st)},
	}

	fmt.Println("portfolio doctor")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	results := runChecks(cfg, checks)

	var pass, warn, fail int
	for _, result := range results {
		fmt.Printf("  %s %s: %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Fix != "" {
			fmt.Printf("      Fix: %s\n", result.Fix)
		}
		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)

	if fail > 0 {
		return fmt.Errorf("%d check(s) failed", fail)
	}
	return nil
}

func runChecks(cfg *config.Config, checks []Check) []CheckResult {
	results := make([]CheckResult, 0, len(checks))
	for _, check := range checks {
		result := check.Fn(cfg)
		result.Name = check.Name
		results = append(results, result)
	}
	return results
}

func statusIcon(s CheckStatus) string {
	switch s {
	case StatusPass:
		return "[PASS]"
	case StatusWarn:
		return "[WARN]"
	case StatusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

// checkConfigFile reports whether the config loaded. A missing file only
// warns because defaults plus env overrides are a valid setup.
func checkConfigFile(cfgPath string, cfgErr error) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config error: %v", cfgErr),
				Fix:     "Check config.yaml syntax and the PORTFOLIO_* environment",
			}
		}
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no config file at %s; using defaults and environment", cfgPath),
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

// checkLLMAPIKey verifies the default provider can authenticate.
func checkLLMAPIKey(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check: config not loaded"}
	}

	pc, ok := cfg.LLM.Provider(cfg.LLM.DefaultProvider)
	if !ok {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("default provider %q not found in config", cfg.LLM.DefaultProvider),
		}
	}
	if pc.Type == "bedrock" {
		return CheckResult{
			Status:  StatusPass,
			Message: "bedrock uses the AWS credential chain",
		}
	}
	if pc.APIKey == "" {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("no API key for provider %q; chat will be unavailable", pc.Name),
			Fix:     fmt.Sprintf("Set GROQ_API_KEY or PORTFOLIO_LLM_PROVIDER_%s_API_KEY", strings.ToUpper(pc.Name)),
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("API key configured for %s", pc.Name),
	}
}

// checkLLMConnectivity tests if the default provider's endpoint is reachable.
func checkLLMConnectivity(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check: config not loaded"}
	}
	pc, ok := cfg.LLM.Provider(cfg.LLM.DefaultProvider)
	if !ok {
		return CheckResult{Status: StatusFail, Message: "default provider not configured"}
	}
	endpoint := providerEndpoint(pc)
	if endpoint == "" {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("no known endpoint for provider type %q; skipping", pc.Type),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cannot reach %s: %v", endpoint, err),
			Fix:     "Check your internet connection and firewall settings",
		}
	}
	resp.Body.Close()

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s reachable (latency: %dms)", pc.Name, latency.Milliseconds()),
	}
}

// providerEndpoint returns a URL that answers without credentials.
func providerEndpoint(p config.ProviderConfig) string {
	switch p.Type {
	case "openai", "":
		base := p.BaseURL
		if base == "" {
			base = config.DefaultGroqBaseURL
		}
		return strings.TrimRight(base, "/") + "/models"
	default:
		return ""
	}
}

func checkStore(st contentStore, openErr error) func(*config.Config) CheckResult {
	return func(cfg *config.Config) CheckResult {
		if cfg == nil {
			return CheckResult{Status: StatusFail, Message: "cannot check: config not loaded"}
		}
		if openErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("cannot open %s: %v", cfg.Store.Path, openErr),
				Fix:     "Check the directory permissions of store.path",
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			return CheckResult{Status: StatusFail, Message: fmt.Sprintf("ping failed: %v", err)}
		}
		return CheckResult{Status: StatusPass, Message: fmt.Sprintf("sqlite at %s", cfg.Store.Path)}
	}
}

func checkChatbotConfig(st contentStore) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if st == nil {
			return CheckResult{Status: StatusFail, Message: "cannot check: store not open"}
		}
		_, err := st.Chatbot(context.Background())
		if err != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("chatbot unusable: %v", err),
				Fix:     "Run 'portfolio seed FILE' with a chatbot bio and prompt",
			}
		}
		return CheckResult{Status: StatusPass, Message: "bio and prompt present"}
	}
}

func checkDefaultResume(st contentStore) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if st == nil {
			return CheckResult{Status: StatusFail, Message: "cannot check: store not open"}
		}
		r, err := st.DefaultResume(context.Background())
		if errors.Is(err, domain.ErrNotFound) {
			return CheckResult{
				Status:  StatusWarn,
				Message: "no resume stored; prompts will carry the bio only",
				Fix:     "Run 'portfolio seed FILE' with at least one resume",
			}
		}
		if err != nil {
			return CheckResult{Status: StatusFail, Message: fmt.Sprintf("resume lookup failed: %v", err)}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("default resume %q (%s)", r.Slug, r.Name),
		}
	}
}
