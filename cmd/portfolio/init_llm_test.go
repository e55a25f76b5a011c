package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-ai/internal/adapter/llm"
	"portfolio-ai/internal/infra/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestInitLLM_NoKeyLeavesChatUnavailable(t *testing.T) {
	cfg := config.Defaults()

	comp, err := initLLM(cfg, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, comp.DefaultLLM)
	assert.Empty(t, comp.Registry.List())
}

func TestInitLLM_WrapsWithCircuitBreaker(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.Providers[0].APIKey = "gsk-test"

	comp, err := initLLM(cfg, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, comp.DefaultLLM)
	assert.Equal(t, "groq", comp.DefaultLLM.Name())
	_, ok := comp.DefaultLLM.(*llm.CircuitBreakerProvider)
	assert.True(t, ok)
}

func TestInitLLM_Failover(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.CircuitBreaker.Enabled = false
	cfg.LLM.Providers = []config.ProviderConfig{
		{Name: "groq", Type: "openai", APIKey: "gsk-test"},
		{Name: "backup", Type: "openai", APIKey: "sk-test", BaseURL: "http://localhost:9999/v1"},
	}
	cfg.LLM.Failover = config.FailoverConfig{Enabled: true, Fallbacks: []string{"backup", "missing"}}

	comp, err := initLLM(cfg, discardLogger())
	require.NoError(t, err)
	_, ok := comp.DefaultLLM.(*llm.FailoverProvider)
	assert.True(t, ok)
	assert.Equal(t, []string{"groq", "backup"}, comp.Registry.List())
}

func TestCreateLLMProvider_UnknownType(t *testing.T) {
	_, err := createLLMProvider(config.ProviderConfig{Name: "x", Type: "carrier-pigeon"}, discardLogger())
	assert.Error(t, err)
}
