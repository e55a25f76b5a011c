package main

import (
	"fmt"
	"log/slog"

	"portfolio-ai/internal/adapter/llm"
	"portfolio-ai/internal/domain"
	"portfolio-ai/internal/infra/config"
)

// LLMComponents holds the provider registry and the provider the gateway
// calls. DefaultLLM is nil when no provider has credentials.
type LLMComponents struct {
	Registry   *llm.Registry
	DefaultLLM domain.LLMProvider
}

// initLLM registers every usable provider and wraps the default one with
// failover when configured.
func initLLM(cfg *config.Config, log *slog.Logger) (*LLMComponents, error) {
	registry := llm.NewRegistry()

	cbCfg := cfg.LLM.CircuitBreaker
	for _, pc := range cfg.LLM.Providers {
		provider, err := createLLMProvider(pc, log)
		if err != nil {
			return nil, fmt.Errorf("llm provider %s: %w", pc.Name, err)
		}
		if provider == nil {
			log.Warn("llm provider skipped: no API key", "provider", pc.Name)
			continue
		}

		if cbCfg.Enabled {
			provider = llm.NewCircuitBreakerProvider(provider, cbCfg, log)
		}

		if err := registry.Register(provider); err != nil {
			return nil, fmt.Errorf("llm provider %s: %w", pc.Name, err)
		}
	}

	comp := &LLMComponents{Registry: registry}

	var fallbacks []string
	if cfg.LLM.Failover.Enabled {
		fallbacks = cfg.LLM.Failover.Fallbacks
	}
	defaultLLM, used, err := registry.Resolve(cfg.LLM.DefaultProvider, fallbacks, log)
	if err != nil {
		// Chat stays unavailable; the API still serves resumes.
		log.Warn("chat disabled: default llm provider unavailable",
			"provider", cfg.LLM.DefaultProvider,
			"error", err,
		)
		return comp, nil
	}
	if len(used) > 0 {
		log.Info("model failover enabled", "fallbacks", used)
	}

	comp.DefaultLLM = defaultLLM
	return comp, nil
}

// createLLMProvider builds one provider. It returns a nil provider and no
// error when an OpenAI-compatible provider has no API key.
func createLLMProvider(pc config.ProviderConfig, log *slog.Logger) (domain.LLMProvider, error) {
	switch pc.Type {
	case "openai", "":
		if pc.APIKey == "" {
			return nil, nil
		}
		return llm.NewOpenAIProvider(pc, log), nil
	case "bedrock":
		return createBedrockProvider(pc, log)
	default:
		return nil, fmt.Errorf("unknown provider type %q", pc.Type)
	}
}
