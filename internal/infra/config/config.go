package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the portfolio service and its chat client.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Chat   ChatConfig   `yaml:"chat"`
	Widget WidgetConfig `yaml:"widget"`
	Client ClientConfig `yaml:"client"`
	Store  StoreConfig  `yaml:"store"`
	LLM    LLMConfig    `yaml:"llm"`
	Logger LoggerConfig `yaml:"logger"`
	Tracer TracerConfig `yaml:"tracer"`
}

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Addr              string          `yaml:"addr"`
	ReadHeaderTimeout time.Duration   `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration   `yaml:"read_timeout"`
	WriteTimeout      time.Duration   `yaml:"write_timeout"`
	MaxBodyBytes      int64           `yaml:"max_body_bytes"`
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures the per-IP token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
	TrustedProxies    []string `yaml:"trusted_proxies,omitempty"` // peers whose X-Forwarded-For is believed
}

// ChatConfig holds the chat pipeline budgets.
type ChatConfig struct {
	Model                 string        `yaml:"model"`
	MaxTurns              int           `yaml:"max_turns"`               // assistant replies per conversation
	MaxMessageLength      int           `yaml:"max_message_length"`      // characters per message
	MaxConversationLength int           `yaml:"max_conversation_length"` // characters, system prompt included
	MaxSystemLength       int           `yaml:"max_system_length"`
	RequestTimeout        time.Duration `yaml:"request_timeout"`
}

// WidgetConfig holds the conversation controller timers.
type WidgetConfig struct {
	ResetDelay        time.Duration `yaml:"reset_delay"`
	HighlightInterval time.Duration `yaml:"highlight_interval"`
	HighlightDuration time.Duration `yaml:"highlight_duration"`
}

// ClientConfig configures the terminal chat client.
type ClientConfig struct {
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
	LogFile string        `yaml:"log_file"`
}

// StoreConfig configures the resume and chatbot store.
type StoreConfig struct {
	Path          string        `yaml:"path"`
	CacheDuration time.Duration `yaml:"cache_duration"`
}

// FailoverConfig lists providers tried after the default one fails.
type FailoverConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Fallbacks []string `yaml:"fallbacks"`
}

// LLMConfig holds the upstream chat-completion providers.
type LLMConfig struct {
	DefaultProvider string               `yaml:"default_provider"`
	Providers       []ProviderConfig     `yaml:"providers"`
	Failover        FailoverConfig       `yaml:"failover"`
	CircuitBreaker  CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig configures the per-provider breaker.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// PoolConfig tunes the provider's HTTP connection pool.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// ProviderConfig describes one upstream provider.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	Type        string        `yaml:"type"` // "openai" (any compatible API) or "bedrock"
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Region      string        `yaml:"region,omitempty"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	Pool        PoolConfig    `yaml:"pool"`
}

// LoggerConfig configures the slog logger.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig configures OpenTelemetry tracing.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// DefaultGroqBaseURL is the OpenAI-compatible endpoint of the default provider.
const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

// Defaults returns a Config populated with the service defaults.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			MaxBodyBytes:      1 << 20,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 2,
				Burst:             10,
			},
		},
		Chat: ChatConfig{
			Model:                 "llama-3.3-70b-versatile",
			MaxTurns:              20,
			MaxMessageLength:      1000,
			MaxConversationLength: 10000,
			MaxSystemLength:       50000,
			RequestTimeout:        30 * time.Second,
		},
		Widget: WidgetConfig{
			ResetDelay:        5 * time.Second,
			HighlightInterval: 15 * time.Second,
			HighlightDuration: time.Second,
		},
		Client: ClientConfig{
			APIURL:  "http://localhost:8080",
			Timeout: 45 * time.Second,
			LogFile: filepath.Join(os.TempDir(), "portfolio-chat.log"),
		},
		Store: StoreConfig{
			Path:          "./data/portfolio.db",
			CacheDuration: 30 * time.Second,
		},
		LLM: LLMConfig{
			DefaultProvider: "groq",
			Providers: []ProviderConfig{
				{Name: "groq", Type: "openai", BaseURL: DefaultGroqBaseURL},
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// Load reads a YAML config file, applies env var overrides, and decrypts secrets.
// A missing file is not an error: defaults plus env overrides are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		if err := validatePermissions(absPath); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	ApplyEnvOverrides(cfg)

	if passphrase := os.Getenv("PORTFOLIO_CONFIG_KEY"); passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps PORTFOLIO_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORTFOLIO_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PORTFOLIO_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	envInt("PORTFOLIO_CHAT_MAX_TURNS", &cfg.Chat.MaxTurns)
	envInt("PORTFOLIO_CHAT_MAX_MESSAGE_LENGTH", &cfg.Chat.MaxMessageLength)
	envInt("PORTFOLIO_CHAT_MAX_CONVERSATION_LENGTH", &cfg.Chat.MaxConversationLength)
	envInt("PORTFOLIO_CHAT_MAX_SYSTEM_LENGTH", &cfg.Chat.MaxSystemLength)
	envDuration("PORTFOLIO_CHAT_REQUEST_TIMEOUT", &cfg.Chat.RequestTimeout)

	envDuration("PORTFOLIO_WIDGET_RESET_DELAY", &cfg.Widget.ResetDelay)
	envDuration("PORTFOLIO_WIDGET_HIGHLIGHT_INTERVAL", &cfg.Widget.HighlightInterval)

	if v := os.Getenv("PORTFOLIO_CLIENT_API_URL"); v != "" {
		cfg.Client.APIURL = v
	}
	if v := os.Getenv("PORTFOLIO_CLIENT_LOG_FILE"); v != "" {
		cfg.Client.LogFile = v
	}

	if v := os.Getenv("PORTFOLIO_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	envDuration("PORTFOLIO_STORE_CACHE_DURATION", &cfg.Store.CacheDuration)
	// Whole seconds, kept for deployments that only set a number.
	if v := os.Getenv("PORTFOLIO_STORE_CACHE_DURATION_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Store.CacheDuration = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("PORTFOLIO_LLM_DEFAULT_PROVIDER"); v != "" {
		cfg.LLM.DefaultProvider = v
	}
	if v := os.Getenv("PORTFOLIO_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("PORTFOLIO_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("PORTFOLIO_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("PORTFOLIO_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}

	// Per-provider API key overrides: PORTFOLIO_LLM_PROVIDER_<NAME>_API_KEY
	for i := range cfg.LLM.Providers {
		p := &cfg.LLM.Providers[i]
		envKey := fmt.Sprintf("PORTFOLIO_LLM_PROVIDER_%s_API_KEY", strings.ToUpper(p.Name))
		if v := os.Getenv(envKey); v != "" {
			p.APIKey = v
			continue
		}
		if p.Name == "groq" && p.APIKey == "" {
			p.APIKey = os.Getenv("GROQ_API_KEY")
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			*dst = d
		}
	}
}

// Provider returns the named provider config.
func (c *LLMConfig) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
