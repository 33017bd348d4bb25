package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dnsproxy/internal/api"
	"dnsproxy/internal/config"
	"dnsproxy/internal/engine"
	"dnsproxy/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values.
type cliFlags struct {
	configPath string
	host       string
	port       int
	jsonLogs   bool
	debug      bool
}

// parseFlags parses command-line flags and returns the values.
func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&f.host, "host", "", "Override DNS server bind host")
	flag.IntVar(&f.port, "port", 0, "Override DNS server bind port")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return f
}

// applyCLIOverrides applies command-line overrides to the config.
func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if f.port != 0 {
		cfg.Server.Port = f.port
	}
	if f.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if f.debug {
		cfg.Logging.Level = "DEBUG"
	}
}

func run() error {
	f := parseFlags()

	path := config.ResolveConfigPath(f.configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCLIOverrides(cfg, f)

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})
	logger.Info("DNSProxy starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"tcp", cfg.Server.EnableTCP,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng := engine.New(*cfg, logger)
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	var apiSrv *api.Server
	if cfg.API.Enabled {
		apiSrv = api.New(eng, *cfg, logger)
		logger.Info("management api starting", "addr", apiSrv.Addr())
		go func() {
			serveErr := apiSrv.ListenAndServe()
			if serveErr == nil || errors.Is(serveErr, http.ErrServerClosed) {
				return
			}
			logger.Error("management api error", "err", serveErr)
			cancel()
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if apiSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = apiSrv.Shutdown(shutdownCtx)
		shutdownCancel()
		logger.Info("management api stopped")
	}

	if err := eng.Stop(); err != nil {
		return fmt.Errorf("engine shutdown error: %w", err)
	}
	return nil
}
