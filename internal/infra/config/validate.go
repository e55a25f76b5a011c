package config

import (
	"fmt"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateServer(cfg, ve)
	validateChat(cfg, ve)
	validateWidget(cfg, ve)
	validateStore(cfg, ve)
	validateLLM(cfg, ve)
	validateLogger(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateServer(cfg *Config, ve *ValidationError) {
	if cfg.Server.Addr == "" {
		ve.Add("server.addr must not be empty")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		ve.Add("server.max_body_bytes must be > 0")
	}
	if cfg.Server.RateLimit.RequestsPerSecond <= 0 {
		ve.Add("server.rate_limit.requests_per_second must be > 0")
	}
	if cfg.Server.RateLimit.Burst <= 0 {
		ve.Add("server.rate_limit.burst must be > 0")
	}
}

func validateChat(cfg *Config, ve *ValidationError) {
	c := cfg.Chat
	if c.Model == "" {
		ve.Add("chat.model must not be empty")
	}
	if c.MaxTurns <= 0 {
		ve.Add("chat.max_turns must be > 0")
	}
	if c.MaxMessageLength <= 0 {
		ve.Add("chat.max_message_length must be > 0")
	}
	if c.MaxConversationLength <= 0 {
		ve.Add("chat.max_conversation_length must be > 0")
	}
	if c.MaxSystemLength <= 0 {
		ve.Add("chat.max_system_length must be > 0")
	}
	if c.RequestTimeout <= 0 {
		ve.Add("chat.request_timeout must be > 0")
	}
}

func validateWidget(cfg *Config, ve *ValidationError) {
	w := cfg.Widget
	if w.ResetDelay <= 0 {
		ve.Add("widget.reset_delay must be > 0")
	}
	if w.HighlightInterval <= 0 {
		ve.Add("widget.highlight_interval must be > 0")
	}
	if w.HighlightDuration <= 0 || w.HighlightDuration >= w.HighlightInterval {
		ve.Add("widget.highlight_duration must be > 0 and shorter than widget.highlight_interval")
	}
}

func validateStore(cfg *Config, ve *ValidationError) {
	if cfg.Store.Path == "" {
		ve.Add("store.path must not be empty")
	}
	if cfg.Store.CacheDuration < 0 {
		ve.Add("store.cache_duration must be >= 0")
	}
}

var validProviderTypes = map[string]bool{
	"openai":  true,
	"bedrock": true,
}

// validateLLM does not require API keys: a provider without one is skipped at
// startup and the chat feature reports itself unavailable.
func validateLLM(cfg *Config, ve *ValidationError) {
	if cfg.LLM.DefaultProvider == "" {
		ve.Add("llm.default_provider must not be empty")
	}

	seen := make(map[string]bool)
	foundDefault := false
	for i, p := range cfg.LLM.Providers {
		if p.Name == "" {
			ve.Add("llm.providers[%d].name must not be empty", i)
			continue
		}
		if seen[p.Name] {
			ve.Add("llm.providers[%d]: duplicate provider name %q", i, p.Name)
		}
		seen[p.Name] = true

		if p.Type != "" && !validProviderTypes[p.Type] {
			ve.Add("llm.providers[%d].type %q is invalid (want: openai, bedrock)", i, p.Type)
		}
		if p.Type == "bedrock" && p.Region == "" {
			ve.Add("llm.providers[%d] (%s): region is required for bedrock provider", i, p.Name)
		}
		if p.Name == cfg.LLM.DefaultProvider {
			foundDefault = true
		}
	}

	if !foundDefault && cfg.LLM.DefaultProvider != "" {
		ve.Add("llm.default_provider %q does not match any configured provider", cfg.LLM.DefaultProvider)
	}

	if cfg.LLM.Failover.Enabled {
		for _, name := range cfg.LLM.Failover.Fallbacks {
			if !seen[name] {
				ve.Add("llm.failover.fallbacks: unknown provider %q", name)
			}
		}
	}

	if cb := cfg.LLM.CircuitBreaker; cb.Enabled {
		if cb.MaxFailures == 0 {
			ve.Add("llm.circuit_breaker.max_failures must be > 0 when enabled")
		}
		if cb.Timeout <= 0 {
			ve.Add("llm.circuit_breaker.timeout must be > 0 when enabled")
		}
	}
}

var validLogFormats = map[string]bool{"": true, "json": true, "text": true}

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLogFormats[cfg.Logger.Format] {
		ve.Add("logger.format %q is invalid (want: json, text)", cfg.Logger.Format)
	}
}
