package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"portfolio-ai/internal/adapter/client"
	"portfolio-ai/internal/adapter/httpapi"
	"portfolio-ai/internal/adapter/store"
	"portfolio-ai/internal/adapter/tui/chat"
	"portfolio-ai/internal/infra/config"
	"portfolio-ai/internal/infra/logger"
	"portfolio-ai/internal/infra/tracer"
	"portfolio-ai/internal/usecase"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	cmd := "serve"
	if len(os.Args) >= 2 && !strings.HasPrefix(os.Args[1], "-") {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe()
	case "chat":
		err = runChat()
	case "seed":
		err = runSeed()
	case "encrypt":
		err = runEncrypt()
	case "doctor":
		err = runDoctor()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'portfolio --help' for usage information.\n", cmd)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`portfolio - AI chat backend for a portfolio site

USAGE:
    portfolio [COMMAND] [FLAGS]

COMMANDS:
    serve           Run the HTTP API (default)
    chat            Open the terminal chat widget against a running API
    seed FILE       Load a resume and chatbot configuration from YAML
    encrypt VALUE   Encrypt a secret for config.yaml (needs PORTFOLIO_CONFIG_KEY)
    doctor          Run health checks on your setup

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file path (default: ./config.yaml)
    --resume SLUG      Resume used by 'chat' (default: the default resume)

CONFIGURATION:
    Config file: ./config.yaml (optional)
    Environment: PORTFOLIO_* variables override config
                 GROQ_API_KEY sets the key of the "groq" provider`)
}

func configPath() string {
	if p := flagValue("--config"); p != "" {
		return p
	}
	if p := os.Getenv("PORTFOLIO_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

// flagValue returns the value of --name VALUE or --name=VALUE from os.Args.
func flagValue(name string) string {
	for i, arg := range os.Args {
		if arg == name && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
		if strings.HasPrefix(arg, name+"=") {
			return strings.TrimPrefix(arg, name+"=")
		}
	}
	return ""
}

// positional returns the n-th argument after the subcommand, skipping flags.
func positional(n int) string {
	var args []string
	for i := 2; i < len(os.Args); i++ {
		arg := os.Args[i]
		if strings.HasPrefix(arg, "--") {
			if !strings.Contains(arg, "=") {
				i++ // skip the flag value
			}
			continue
		}
		args = append(args, arg)
	}
	if n < len(args) {
		return args[n]
	}
	return ""
}

func runServe() error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(context.Background())

	st, err := initStore(cfg.Store, log)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	llmComp, err := initLLM(cfg, log)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	gateway := usecase.NewGateway(llmComp.DefaultLLM, usecase.GatewayConfig{
		DefaultModel:          cfg.Chat.Model,
		MaxMessageLength:      cfg.Chat.MaxMessageLength,
		MaxConversationLength: cfg.Chat.MaxConversationLength,
		MaxSystemLength:       cfg.Chat.MaxSystemLength,
		RequestTimeout:        cfg.Chat.RequestTimeout,
	}, log)

	srv, err := httpapi.NewServer(ctx, cfg.Server, cfg.Chat, httpapi.Deps{
		Chat:    gateway,
		Chatbot: st.Cached,
		Resumes: st.Cached,
		Health:  st.SQLite,
	}, log)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	log.Info("portfolio-ai starting",
		"addr", cfg.Server.Addr,
		"providers", llmComp.Registry.List(),
		"chat_available", gateway.Available(),
		"store", cfg.Store.Path,
	)
	return srv.Start(ctx)
}

func runChat() error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// The widget owns the terminal; logs go to a file.
	log, logCloser, err := logger.NewFile(cfg.Logger, cfg.Client.LogFile)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	api := client.New(cfg.Client, log)

	ctrlCfg := usecase.ControllerConfig{
		Model:             cfg.Chat.Model,
		MaxTurns:          cfg.Chat.MaxTurns,
		MaxMessageLength:  cfg.Chat.MaxMessageLength,
		ResetDelay:        cfg.Widget.ResetDelay,
		HighlightInterval: cfg.Widget.HighlightInterval,
		HighlightDuration: cfg.Widget.HighlightDuration,
	}
	// The server's limits win over the local config when it is reachable.
	if info, err := api.Info(ctx); err == nil {
		ctrlCfg.Model = info.Model
		ctrlCfg.MaxTurns = info.MaxTurns
		ctrlCfg.MaxMessageLength = info.MaxMessageLength
	} else {
		log.Warn("chatbot info unavailable", "error", err)
	}

	ctrl := usecase.NewController(ctrlCfg, api, api, log)

	resume, err := api.Resume(ctx, flagValue("--resume"))
	if err != nil {
		log.Warn("resume unavailable", "error", err)
	} else {
		ctrl.SetResume(resume)
	}

	err = chat.Run(ctx, chat.ModelDeps{
		Controller:       ctrl,
		Logger:           log,
		MaxMessageLength: ctrlCfg.MaxMessageLength,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runSeed() error {
	path := positional(0)
	if path == "" {
		return errors.New("usage: portfolio seed FILE")
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	seed, err := store.LoadSeed(path)
	if err != nil {
		return err
	}

	st, err := initStore(cfg.Store, log)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	if err := seed.Apply(context.Background(), st.SQLite); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}

	log.Info("seed applied",
		"path", path,
		"resumes", len(seed.Resumes),
		"chatbot", seed.Chatbot != nil,
	)
	return nil
}

func runEncrypt() error {
	value := positional(0)
	if value == "" {
		return errors.New("usage: portfolio encrypt VALUE")
	}
	passphrase := os.Getenv("PORTFOLIO_CONFIG_KEY")
	if passphrase == "" {
		return errors.New("PORTFOLIO_CONFIG_KEY is not set")
	}
	enc, err := config.EncryptValue(value, passphrase)
	if err != nil {
		return err
	}
	fmt.Println("enc:" + enc)
	return nil
}
