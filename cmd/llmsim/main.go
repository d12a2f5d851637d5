// Command llmsim runs the LLMSim HTTP server: a wire-level simulator of
// OpenAI Chat Completions, OpenAI Responses, and OpenResponses APIs. The
// root command *is* `serve` (spec §6's single-subcommand contract),
// mirroring the teacher's cmd/cli/main.go root-command-plus-subcommands
// shape.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chaliy/llmsim/internal/domain/injector"
	"github.com/chaliy/llmsim/internal/infrastructure/config"
	"github.com/chaliy/llmsim/internal/infrastructure/logger"
	llmsimhttp "github.com/chaliy/llmsim/internal/interfaces/http"
	"github.com/chaliy/llmsim/internal/interfaces/tui"
)

const (
	appName    = "llmsim"
	appVersion = "0.1.0"
)

func main() {
	var (
		host         string
		port         int
		configPath   string
		generator    string
		targetTokens int
		useTUI       bool
	)

	root := &cobra.Command{
		Use:   appName,
		Short: "Simulate LLM HTTP APIs without running any actual model.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, host, port, configPath, generator, targetTokens, useTUI)
		},
	}

	flags := root.Flags()
	flags.StringVar(&host, "host", "", "bind host (overrides config, default 0.0.0.0)")
	flags.IntVar(&port, "port", 0, "bind port (overrides config, default 8080)")
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&generator, "generator", "", "completion generator: lorem|echo|fixed:TEXT|random|sequence")
	flags.IntVar(&targetTokens, "target-tokens", 0, "default completion length in tokens")
	flags.BoolVar(&useTUI, "tui", false, "show a live terminal stats dashboard instead of log output")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the llmsim version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", appName, appVersion)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, host string, port int, configPath, generatorName string, targetTokens int, useTUI bool) error {
	flags := cmd.Flags()
	logFormat, logLevel := "json", "info"
	if useTUI {
		// The TUI owns the terminal; demote server logs so they don't tear
		// up the dashboard.
		logFormat, logLevel = "console", "error"
	}
	log, err := logger.NewLogger(logger.Config{Level: logLevel, Format: logFormat, OutputPath: "stdout"})
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer log.Sync()

	loader, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loader.BindFlags(host, port, generatorName, targetTokens,
		flags.Changed("host"), flags.Changed("port"), flags.Changed("generator"), flags.Changed("target-tokens"))

	cfg, err := loader.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot config: %w", err)
	}

	seed := seedFromEnv()
	srv := llmsimhttp.Boot(cfg, log, seed)

	loader.Watch(func(updated config.Config) {
		srv.Orchestrator.SetErrorConfig(errorConfigFrom(updated))
		srv.Orchestrator.SetGenerator(llmsimhttp.GeneratorFromName(updated.Response.Generator, srv.RNGPool.Next()))
		log.Info("config reloaded", zap.Float64("rate_limit_rate", updated.Errors.RateLimitRate),
			zap.Float64("server_error_rate", updated.Errors.ServerErrorRate),
			zap.Float64("timeout_rate", updated.Errors.TimeoutRate))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: srv.Engine}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("llmsim listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	if useTUI {
		statsURL := fmt.Sprintf("http://127.0.0.1:%d/llmsim/stats", cfg.Server.Port)
		if cfg.Server.Host != "0.0.0.0" && cfg.Server.Host != "" {
			statsURL = fmt.Sprintf("http://%s:%d/llmsim/stats", cfg.Server.Host, cfg.Server.Port)
		}
		// Give the listener a brief head start before the dashboard's first
		// poll.
		time.Sleep(50 * time.Millisecond)
		if err := tui.Run(statsURL); err != nil {
			log.Error("tui exited with error", zap.Error(err))
		}
		return shutdown(httpServer, log)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case sig := <-quit:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	return shutdown(httpServer, log)
}

func shutdown(httpServer *http.Server, log *zap.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
		return err
	}
	log.Info("llmsim stopped cleanly")
	return nil
}

// errorConfigFrom translates the config file's errors section into the
// injector's Config shape, used to apply a live-reloaded config.
func errorConfigFrom(cfg config.Config) injector.Config {
	return injector.Config{
		RateLimitRate:   cfg.Errors.RateLimitRate,
		ServerErrorRate: cfg.Errors.ServerErrorRate,
		TimeoutRate:     cfg.Errors.TimeoutRate,
		TimeoutAfterMs:  cfg.Errors.TimeoutAfterMs,
	}
}

// seedFromEnv returns the LLMSIM_SEED override as an int64, or 0 (meaning
// "draw fresh entropy") if unset or unparseable, per spec §9's deterministic
// testing escape hatch.
func seedFromEnv() int64 {
	raw := os.Getenv("LLMSIM_SEED")
	if raw == "" {
		return 0
	}
	var seed int64
	if _, err := fmt.Sscanf(raw, "%d", &seed); err != nil {
		return 0
	}
	return seed
}
