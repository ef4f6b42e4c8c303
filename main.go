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

	"github.com/lexandro/docshelf-mcp/config"
	"github.com/lexandro/docshelf-mcp/discovery"
	"github.com/lexandro/docshelf-mcp/httpapi"
	"github.com/lexandro/docshelf-mcp/ignore"
	"github.com/lexandro/docshelf-mcp/index"
	"github.com/lexandro/docshelf-mcp/library"
	"github.com/lexandro/docshelf-mcp/prefs"
	"github.com/lexandro/docshelf-mcp/preview"
	"github.com/lexandro/docshelf-mcp/register"
	"github.com/lexandro/docshelf-mcp/server"
	"github.com/lexandro/docshelf-mcp/tools"
	"github.com/lexandro/docshelf-mcp/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "register" {
		err := register.Run(register.DeriveServerName(os.Args[0]), os.Args[2:], os.Stdout)
		if errors.Is(err, register.ErrUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			register.PrintUsage(os.Stderr)
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Parse CLI flags. Only flags set explicitly override the config file
	// and environment.
	var roots, excludes config.StringList
	configFile := flag.String("config", "", "Config file (yaml, toml or json)")
	flag.Var(&roots, "root", "Scan root (repeatable or comma-separated; default: Downloads, Documents, Desktop, Pictures, home)")
	flag.Var(&excludes, "exclude", "Extra ignore pattern (repeatable)")
	flag.Int64("size-floor", 0, "Minimum document size in bytes (0: 1024, negative: no floor)")
	flag.Int64("max-file-size", 0, "Maximum file size in bytes (0: unlimited)")
	flag.String("prefs-file", "", "Favorites and recently opened store (default: user config dir)")
	flag.Int("sync-interval", 300, "Seconds between sync verifications (0 disables)")
	flag.String("http-addr", "", "Listen address of the HTTP API and metrics (empty disables)")
	flag.Int("max-results", 50, "Default max list and search results")
	flag.Int("max-recent", prefs.DefaultMaxRecent, "Recently opened documents to remember")
	flag.Int("preview-lines", 200, "Text lines per preview")
	flag.Int("preview-cache-size", 64, "Cached previews")
	flag.String("log-level", "info", "Log level: debug|info|warn|error")
	flag.String("log-file", "", "Log file path (default: user cache dir)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyFlags(flag.CommandLine)

	// Setup logger (always to file or stderr, never to stdout - stdout is for MCP stdio)
	logger := setupLogger(cfg.LogLevel, cfg.LogFile)

	logger.Info("starting docshelf-mcp",
		"version", server.Version,
		"roots", cfg.Roots,
		"sizeFloor", cfg.SizeFloor,
		"prefsFile", cfg.PrefsFile,
		"httpAddr", cfg.HTTPAddr,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("docshelf-mcp stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	startTime := time.Now()

	ignoreMatcher := ignore.NewMatcher(ignore.MatcherOptions{
		Roots:            cfg.Roots,
		CustomPatterns:   cfg.Exclude,
		MaxFileSizeBytes: cfg.MaxFileSize,
	})
	scanner := discovery.NewService(discovery.Options{
		Roots:          cfg.Roots,
		SizeFloorBytes: cfg.SizeFloor,
		Ignore:         ignoreMatcher,
		Logger:         logger,
	})

	store, err := prefs.Open(cfg.PrefsFile, cfg.MaxRecent)
	if err != nil {
		return fmt.Errorf("opening preferences: %w", err)
	}

	nameIndex, err := index.NewNameIndex()
	if err != nil {
		return fmt.Errorf("creating name index: %w", err)
	}
	defer nameIndex.Close()

	renderer, err := preview.NewRenderer(preview.Options{
		MaxLines:  cfg.PreviewLines,
		CacheSize: cfg.PreviewCacheSize,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating preview renderer: %w", err)
	}

	lib := library.New(library.Options{
		Scanner:    scanner,
		Prefs:      store,
		NameIndex:  nameIndex,
		TextLoader: preview.TextLoader(index.MaxIndexedTextBytes, logger),
		Logger:     logger,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := httpapi.NewMetrics(registry)
	lib.Subscribe(metrics.Observe)

	// Initial scan
	snapshot := lib.Refresh()
	if !snapshot.AccessGranted {
		logger.Warn("storage access denied, the shelf starts empty")
	}
	logger.Info("initial scan complete",
		"documents", len(snapshot.Documents),
		"rootsScanned", snapshot.Stats.RootsScanned,
		"rootsSkipped", snapshot.Stats.RootsSkipped,
		"duration", time.Since(startTime),
	)

	// Start file watcher
	fileWatcher, err := watcher.NewWatcher(scanner.Roots(), ignoreMatcher, watcher.DefaultDebounceInterval, logger)
	if err != nil {
		logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
	} else {
		go fileWatcher.Start()
		go handleWatcherEvents(fileWatcher.Events(), lib, scanner, ignoreMatcher, logger)
		defer fileWatcher.Close()
	}

	stopSync := make(chan struct{})
	defer close(stopSync)
	if cfg.SyncInterval > 0 {
		go runPeriodicSync(cfg.SyncInterval, scanner, lib, logger, stopSync)
	}

	if cfg.HTTPAddr != "" {
		apiServer := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(lib, metrics, registry, logger), logger)
		if err := apiServer.Start(); err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiServer.Shutdown(ctx); err != nil {
				logger.Warn("HTTP API shutdown", "error", err)
			}
		}()
	}

	mcpServer := server.Setup(server.Handlers{
		Scan:   &tools.ScanHandler{Library: lib, Logger: logger},
		List:   &tools.ListHandler{Library: lib, MaxResults: cfg.MaxResults, Logger: logger},
		Search: &tools.SearchHandler{Library: lib, MaxResults: cfg.MaxResults, Logger: logger},
		Favorite: &tools.FavoriteHandler{
			Library: lib,
			Logger:  logger,
		},
		Open:   &tools.OpenHandler{Library: lib, Renderer: renderer, Logger: logger},
		Recent: &tools.RecentHandler{Library: lib, Logger: logger},
		Status: &tools.StatusHandler{
			Library:   lib,
			Roots:     scanner.Roots(),
			PrefsFile: store.Path(),
			StartTime: startTime,
			Logger:    logger,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server: %w", err)
	}
	logger.Info("MCP server stopped")
	return nil
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	writer := os.Stderr
	if logFile != "" {
		f, err := openLogFile(logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
		} else {
			writer = f
		}
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
