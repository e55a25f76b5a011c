//go:build bedrock

package main

import (
	"log/slog"

	"portfolio-ai/internal/adapter/llm"
	"portfolio-ai/internal/domain"
	"portfolio-ai/internal/infra/config"
)

func createBedrockProvider(pc config.ProviderConfig, log *slog.Logger) (domain.LLMProvider, error) {
	return llm.NewBedrockProvider(pc, log)
}
