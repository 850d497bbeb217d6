package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/codepulse/internal/cache"
	"github.com/rpggio/codepulse/internal/codec"
	"github.com/rpggio/codepulse/internal/config"
	"github.com/rpggio/codepulse/internal/domain/activity"
	"github.com/rpggio/codepulse/internal/domain/project"
	"github.com/rpggio/codepulse/internal/domain/session"
	"github.com/rpggio/codepulse/internal/liveness"
	"github.com/rpggio/codepulse/internal/mcp"
	"github.com/rpggio/codepulse/internal/metrics"
	"github.com/rpggio/codepulse/internal/sqlite"
	"github.com/rpggio/codepulse/internal/transport"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries MCP frames in stdio mode.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("CODEPULSE_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		return err
	}

	key, err := loadKey(cfg.Crypto)
	if err != nil {
		return err
	}
	sealer, err := codec.New(key)
	if err != nil {
		return err
	}

	m := metrics.New(cfg.Metrics.Enabled, prometheus.DefaultRegisterer)
	summaries := cache.New(cache.Config{
		Enabled: cfg.Cache.Enabled,
		SizeMB:  cfg.Cache.SizeMB,
		TTL:     cfg.Cache.TTL,
	}, m, logger)

	projectRepo := sqlite.NewProjectRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)

	projectSvc := project.NewService(projectRepo, sealer, logger)
	sessionSvc := session.NewService(sessionRepo, logger)
	activitySvc := activity.NewService(sessionRepo, projectRepo, sealer, summaries, logger)

	sweeper := liveness.NewSweeper(sessionRepo, cfg.Liveness.Interval, cfg.Liveness.Threshold, logger, m)
	sweeper.Start()
	defer sweeper.Stop()

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("jwt secret not set, bearer-authenticated routes will reject every request")
	}
	identity := transport.NewJWTResolver(cfg.Auth.JWTSecret)

	mcpServer := mcp.NewServer(mcp.Config{
		Activity:      activitySvc,
		Resolver:      identity,
		TransportMode: cfg.Transport.Mode,
		DefaultUserID: cfg.MCP.UserID,
		Logger:        logger,
		Version:       version,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(logger, mcpServer)
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.Handler()
	}
	router := transport.NewServer(transport.Config{
		Projects:       projectSvc,
		Sessions:       sessionSvc,
		Activity:       activitySvc,
		Identity:       identity,
		APIKey:         cfg.Auth.APIKey,
		Metrics:        m,
		MetricsHandler: metricsHandler,
		MCPHandler:     mcp.NewHTTPHandler(mcpServer),
		Logger:         logger,
	})
	return runHTTPMode(logger, router, cfg.Server.Host, cfg.Server.Port)
}

func loadKey(cfg config.CryptoConfig) ([]byte, error) {
	if cfg.Key != "" {
		return codec.ParseKey(cfg.Key)
	}
	return codec.DeriveKey(cfg.Passphrase)
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTPMode(logger *slog.Logger, handler http.Handler, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(logger, httpServer, errCh)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

// logFileWriter appends to a log file and, once it grows past
// maxLogSizeBytes, keeps only the newest keepLogSizeBytes.
type logFileWriter struct {
	mu    sync.Mutex
	file  *os.File
	limit int64
	keep  int64
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	w := &logFileWriter{file: file, limit: maxLogSizeBytes, keep: keepLogSizeBytes}
	if err := w.trim(); err != nil {
		file.Close()
		return nil, nil, err
	}
	return w, file, nil
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.trim()
}

func (w *logFileWriter) trim() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= w.limit {
		return nil
	}

	tail := make([]byte, w.keep)
	n, err := w.file.ReadAt(tail, size-w.keep)
	if err != nil && err != io.EOF {
		return err
	}
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes land at the new end regardless of offset.
	_, err = w.file.Write(tail[:n])
	return err
}
