package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"metafetch/internal/config"
	"metafetch/internal/logger"
	"metafetch/internal/shutdown"
	"metafetch/internal/web"
)

func main() {
	var (
		port       int
		configPath string
		envFile    string
	)

	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&configPath, "config", "", "Config file path")
	flag.StringVar(&envFile, "env-file", "", "Env file with API credentials")
	flag.Parse()

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger with file logging
	l := logger.New(false)
	if err := os.MkdirAll(cfg.LogDir, 0755); err == nil {
		logPath := filepath.Join(cfg.LogDir, fmt.Sprintf("metafetch-web-%d.log", time.Now().Unix()))
		if err := l.SetFileLog(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
		}
	}
	defer l.Close()

	sh := shutdown.New()
	sh.Listen()

	jobMgr := web.NewJobManager()
	jobMgr.StartCleanup(sh.Context())
	server := web.NewServer(sh.Context(), jobMgr, cfg, l)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		l.Info("Starting web server on port %d", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("Server error: %v", err)
			os.Exit(1)
		}
	}()

	<-sh.Context().Done()

	l.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		l.Error("Server shutdown error: %v", err)
	}

	// Running jobs see the cancelled context and stop after their current file.
	server.Wait()
	l.Info("Server stopped")
}
