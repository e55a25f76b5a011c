package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"portfolio-ai/internal/adapter/store"
	"portfolio-ai/internal/domain"
	"portfolio-ai/internal/infra/config"
)

func openTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore("file::memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestCheckConfigFile_LoadError(t *testing.T) {
	fn := checkConfigFile("/nonexistent/config.yaml", &config.ValidationError{Errors: []string{"bad"}})
	result := fn(nil)
	if result.Status != StatusFail {
		t.Errorf("expected FAIL for load error, got %s", result.Status)
	}
	if result.Fix == "" {
		t.Error("expected fix suggestion")
	}
}

func TestCheckConfigFile_MissingFileWarns(t *testing.T) {
	fn := checkConfigFile("/nonexistent/config.yaml", nil)
	if got := fn(config.Defaults()).Status; got != StatusWarn {
		t.Errorf("expected WARN for missing file, got %s", got)
	}
}

func TestCheckConfigFile_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chat:\n  max_turns: 5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	result := checkConfigFile(path, nil)(config.Defaults())
	if result.Status != StatusPass {
		t.Errorf("expected PASS, got %s: %s", result.Status, result.Message)
	}
}

func TestCheckLLMAPIKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want CheckStatus
	}{
		{name: "nil config", cfg: nil, want: StatusFail},
		{
			name: "missing default provider",
			cfg:  &config.Config{LLM: config.LLMConfig{DefaultProvider: "groq"}},
			want: StatusFail,
		},
		{
			name: "no key",
			cfg: &config.Config{LLM: config.LLMConfig{
				DefaultProvider: "groq",
				Providers:       []config.ProviderConfig{{Name: "groq", Type: "openai"}},
			}},
			want: StatusFail,
		},
		{
			name: "key present",
			cfg: &config.Config{LLM: config.LLMConfig{
				DefaultProvider: "groq",
				Providers:       []config.ProviderConfig{{Name: "groq", Type: "openai", APIKey: "gsk-test"}},
			}},
			want: StatusPass,
		},
		{
			name: "bedrock",
			cfg: &config.Config{LLM: config.LLMConfig{
				DefaultProvider: "aws",
				Providers:       []config.ProviderConfig{{Name: "aws", Type: "bedrock"}},
			}},
			want: StatusPass,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkLLMAPIKey(tt.cfg).Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProviderEndpoint(t *testing.T) {
	got := providerEndpoint(config.ProviderConfig{Type: "openai"})
	if got != config.DefaultGroqBaseURL+"/models" {
		t.Errorf("endpoint = %q", got)
	}
	got = providerEndpoint(config.ProviderConfig{Type: "openai", BaseURL: "http://localhost:9999/v1/"})
	if got != "http://localhost:9999/v1/models" {
		t.Errorf("endpoint = %q", got)
	}
	if got := providerEndpoint(config.ProviderConfig{Type: "bedrock"}); got != "" {
		t.Errorf("bedrock endpoint = %q, want empty", got)
	}
}

func TestCheckStore(t *testing.T) {
	cfg := config.Defaults()

	if got := checkStore(nil, errors.New("disk full"))(cfg).Status; got != StatusFail {
		t.Errorf("open error: status = %s, want FAIL", got)
	}

	st := openTestStore(t)
	if got := checkStore(st, nil)(cfg).Status; got != StatusPass {
		t.Errorf("healthy store: status = %s, want PASS", got)
	}
}

func TestCheckContent(t *testing.T) {
	st := openTestStore(t)
	cfg := config.Defaults()

	if got := checkChatbotConfig(st)(cfg).Status; got != StatusFail {
		t.Errorf("empty chatbot: status = %s, want FAIL", got)
	}
	if got := checkDefaultResume(st)(cfg).Status; got != StatusWarn {
		t.Errorf("no resume: status = %s, want WARN", got)
	}

	ctx := context.Background()
	if err := st.SetChatbot(ctx, domain.ChatbotConfig{Bio: "Engineer", Prompt: "Be brief."}); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveResume(ctx, &domain.Resume{ID: "r1", Slug: "jane", Name: "Jane Doe"}, true); err != nil {
		t.Fatal(err)
	}

	if got := checkChatbotConfig(st)(cfg).Status; got != StatusPass {
		t.Errorf("seeded chatbot: status = %s, want PASS", got)
	}
	if got := checkDefaultResume(st)(cfg).Status; got != StatusPass {
		t.Errorf("seeded resume: status = %s, want PASS", got)
	}
}

func TestCheckContent_NoStore(t *testing.T) {
	if got := checkChatbotConfig(nil)(nil).Status; got != StatusFail {
		t.Errorf("status = %s, want FAIL", got)
	}
	if got := checkDefaultResume(nil)(nil).Status; got != StatusFail {
		t.Errorf("status = %s, want FAIL", got)
	}
}

func TestRunChecks_NamesResults(t *testing.T) {
	results := runChecks(nil, []Check{
		{Name: "one", Fn: func(*config.Config) CheckResult { return CheckResult{Status: StatusPass} }},
		{Name: "two", Fn: func(*config.Config) CheckResult { return CheckResult{Status: StatusWarn} }},
	})
	if len(results) != 2 || results[0].Name != "one" || results[1].Status != StatusWarn {
		t.Errorf("unexpected results: %+v", results)
	}
}
