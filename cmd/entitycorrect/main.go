package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hazyhaar/entitycorrect/pkg/api"
	"github.com/hazyhaar/entitycorrect/pkg/chassis"
	"github.com/hazyhaar/entitycorrect/pkg/correct"
	"github.com/hazyhaar/entitycorrect/pkg/importer"
	"github.com/hazyhaar/entitycorrect/pkg/observe"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

const version = "0.3.0"

type config struct {
	Addr          string                  `yaml:"addr"`
	DictsDir      string                  `yaml:"dicts_dir"`
	CertFile      string                  `yaml:"cert_file"`
	KeyFile       string                  `yaml:"key_file"`
	LogLevel      string                  `yaml:"log_level"`
	CheckInterval time.Duration           `yaml:"check_interval"`
	Sources       []importer.SourceConfig `yaml:"sources"`
	Redis         *importer.RedisConfig   `yaml:"redis"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "correct":
		cmdCorrect(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "remote":
		cmdRemote(os.Args[2:])
	case "custom":
		cmdCustom(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: entitycorrect <command> [flags]

Commands:
  serve    Start the HTTP/3 + MCP server
  correct  Correct text locally against dictionary directories
  import   Build dictionaries from configured sources
  remote   Call a running server over MCP/QUIC
  custom   Manage the Redis custom dictionary (add|remove|list)
`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, logger := mustConfig(*cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		logger.Error("metrics provider", "error", err)
		os.Exit(1)
	}
	defer shutdownMetrics(context.Background())
	metrics := observe.DefaultMetrics()

	reg := correct.NewRegistry(cfg.DictsDir, correct.WithLogger(logger), correct.WithMetrics(metrics))
	if err := reg.Load(); err != nil {
		logger.Error("failed to load dictionaries", "error", err)
		os.Exit(1)
	}
	logger.Info("dictionaries loaded", "count", reg.DictCount(), "keys", reg.TotalKeys())

	mcpSrv := server.NewMCPServer("entitycorrect", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(mcpSrv, reg, logger)

	srv, err := chassis.New(chassis.Config{
		Addr:      cfg.Addr,
		CertFile:  cfg.CertFile,
		KeyFile:   cfg.KeyFile,
		Handler:   api.NewRouter(reg, logger, metrics),
		MCPServer: mcpSrv,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("chassis", "error", err)
		os.Exit(1)
	}

	// SIGHUP: hot reload dictionaries.
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, reloading dictionaries")
			if err := reg.Reload(); err != nil {
				logger.Error("reload failed", "error", err)
			} else {
				logger.Info("dictionaries reloaded", "count", reg.DictCount(), "keys", reg.TotalKeys())
			}
		}
	}()

	if cfg.CheckInterval > 0 {
		sdb, err := openSources(cfg)
		if err != nil {
			logger.Warn("source checker disabled", "error", err)
		} else {
			defer sdb.Close()
			go importer.NewChecker(sdb, logger, cfg.CheckInterval).Start(ctx)
		}
	}

	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", "error", err)
		stop()
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("shutdown", "error", err)
	}
}

// openSources registers the configured adapters and opens the source
// database kept next to the dictionaries.
func openSources(cfg config) (*importer.SourceDB, error) {
	importer.Reset()
	if err := importer.RegisterSources(cfg.Sources); err != nil {
		return nil, err
	}
	if cfg.Redis != nil {
		importer.Register(importer.NewRedisAdapter(*cfg.Redis))
	}
	if err := os.MkdirAll(cfg.DictsDir, 0o755); err != nil {
		return nil, err
	}
	sdb, err := importer.OpenSourceDB(filepath.Join(cfg.DictsDir, "sources.db"))
	if err != nil {
		return nil, err
	}
	if err := sdb.Seed(importer.All()); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("seed sources: %w", err)
	}
	return sdb, nil
}

func mustConfig(path string) (config, *slog.Logger) {
	cfg, err := loadConfig(path)
	logger := newLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("config", "path", path, "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

func loadConfig(path string) (config, error) {
	cfg := config{
		Addr:          ":8420",
		DictsDir:      "dicts",
		LogLevel:      "info",
		CheckInterval: 24 * time.Hour,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger
}
