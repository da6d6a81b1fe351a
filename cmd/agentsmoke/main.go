// agentsmoke drives a browser smoke test of a local web app with a local
// vision model behind an OpenAI-compatible endpoint.
//
// Usage:
//
//	agentsmoke run                        # model-driven smoke run
//	agentsmoke run --config config.yaml   # with a config file
//	agentsmoke scripted                   # deterministic single-player flow
//	agentsmoke health                     # check the model endpoint
//	agentsmoke version                    # show version information
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/agentsmoke/agent"
	"github.com/BaSui01/agentsmoke/agent/browser"
	"github.com/BaSui01/agentsmoke/config"
	"github.com/BaSui01/agentsmoke/internal/metrics"
	"github.com/BaSui01/agentsmoke/llm"
	"github.com/BaSui01/agentsmoke/llm/compat"
	"github.com/BaSui01/agentsmoke/providers"
	"github.com/BaSui01/agentsmoke/providers/mock"
	"github.com/BaSui01/agentsmoke/providers/ollama"
)

// Version information injected at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runSmoke(os.Args[2:])
	case "scripted":
		runScripted(os.Args[2:])
	case "health":
		runHealthCheck(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runSmoke(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	appURL := fs.String("url", "", "App under test (overrides config)")
	successText := fs.String("success-text", "", "Text that marks a passing run (overrides config)")
	mockMode := fs.Bool("mock", false, "Answer model calls with a canned action instead of a live endpoint")
	fs.Parse(args)

	// AI_SMOKE_TEST_MODE=mock is the legacy spelling of --mock.
	if strings.EqualFold(os.Getenv("AI_SMOKE_TEST_MODE"), "mock") {
		*mockMode = true
	}

	cfg := loadConfig(*configPath)
	if *appURL != "" {
		cfg.App.URL = *appURL
	}
	if *successText != "" {
		cfg.App.SuccessText = *successText
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting agentsmoke",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(cfg.Metrics.Namespace, prometheus.DefaultRegisterer, logger)

	var provider llm.Provider
	if *mockMode {
		logger.Info("running offline with the mock model")
		provider = mock.NewProvider(cfg.App.URL, logger)
	} else {
		live := ollama.NewOllamaProvider(providers.OllamaConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		}, logger)

		logger.Info("checking model endpoint", zap.String("base_url", cfg.LLM.BaseURL))
		if err := live.Preflight(ctx); err != nil {
			logger.Error("model endpoint not usable", zap.Error(err))
			fmt.Println("FAIL")
			os.Exit(1)
		}
		provider = live
	}

	client := compat.NewClient(provider, compat.Config{
		Model:       cfg.LLM.Model,
		TargetURL:   cfg.App.URL,
		Temperature: float32(cfg.LLM.Temperature),
		MaxTokens:   cfg.LLM.MaxTokens,
	}, collector, logger)

	driver := browser.NewChromeDPDriver(browser.Config{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.App.Timeout,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		UserAgent:      cfg.Browser.UserAgent,
		AllowedDomains: cfg.Browser.AllowedDomains,
	}, logger)

	runner := agent.NewRunner(client, driver, agent.RunnerConfig{
		AppURL:      cfg.App.URL,
		SuccessText: cfg.App.SuccessText,
		ArtifactDir: cfg.Artifacts.Dir,
		MaxActions:  cfg.App.MaxActions,
		ActionDelay: cfg.App.ActionDelay,
		Timeout:     cfg.App.Timeout,
		Wait: browser.WaitConfig{
			Interval: cfg.Browser.WaitInterval,
			Timeout:  cfg.Browser.WaitTimeout,
		},
	}, collector, logger)

	result, err := runner.Run(ctx)
	if err != nil {
		logger.Error("smoke run aborted", zap.Error(err))
	}

	if result != nil && result.Passed {
		fmt.Println("PASS")
		return
	}
	fmt.Println("FAIL")
	if result != nil && result.Reason != "" {
		fmt.Printf("Reason: %s\n", result.Reason)
	}
	os.Exit(1)
}

func runScripted(args []string) {
	fs := flag.NewFlagSet("scripted", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	players := fs.Int("players", 0, "Player count (0 picks a random count)")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *players != 0 {
		cfg.App.PlayerCount = *players
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := browser.NewChromeDPDriver(browser.Config{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.App.Timeout,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		UserAgent:      cfg.Browser.UserAgent,
		AllowedDomains: cfg.Browser.AllowedDomains,
	}, logger)

	result, err := agent.RunScripted(ctx, driver, agent.ScriptedConfig{
		AppURL:      cfg.App.URL,
		ArtifactDir: cfg.Artifacts.Dir,
		PlayerCount: cfg.App.PlayerCount,
		Wait: browser.WaitConfig{
			Interval: cfg.Browser.WaitInterval,
			Timeout:  cfg.Browser.WaitTimeout,
		},
	}, logger)
	if err != nil {
		logger.Error("scripted flow failed", zap.Error(err))
		fmt.Printf("FAIL - %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("PASS - opened single-player setup with %d players. Final URL: %s\n",
		result.PlayerCount, result.FinalURL)
}

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	timeout := fs.Duration("timeout", 30*time.Second, "Check deadline")
	fs.Parse(args)

	cfg := loadConfig(*configPath)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	provider := ollama.NewOllamaProvider(providers.OllamaConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, zap.NewNop())

	if err := provider.Preflight(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func loadConfig(path string) *config.Config {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func printVersion() {
	fmt.Printf("agentsmoke %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`agentsmoke - model-driven browser smoke tests

Usage:
  agentsmoke <command> [options]

Commands:
  run       Run the model-driven smoke test
  scripted  Run the deterministic single-player setup flow
  health    Check the model endpoint
  version   Show version information
  help      Show this help message

Options for 'run':
  --config <path>        Path to configuration file (YAML)
  --url <url>            App under test
  --success-text <text>  Text that marks a passing run
  --mock                 Answer model calls with a canned action (offline)

Options for 'scripted':
  --config <path>   Path to configuration file (YAML)
  --players <n>     Player count (0 picks a random count)

Examples:
  agentsmoke run
  agentsmoke run --config config.yaml --url http://localhost:3000
  agentsmoke run --mock
  agentsmoke scripted --players 4
  agentsmoke health
  agentsmoke version`)
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	opts := []zap.Option{}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
