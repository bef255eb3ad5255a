package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/pdfdancer/internal/api"
	"github.com/dgallion1/pdfdancer/internal/config"
	"github.com/dgallion1/pdfdancer/internal/pdfinfo"
	"github.com/dgallion1/pdfdancer/internal/session"
	"github.com/dgallion1/pdfdancer/internal/transport"
)

var version = "dev"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	retry, err := cfg.RetryPolicy()
	if err != nil {
		log.Error("invalid retry settings", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	opts := session.Options{
		BaseURL:       cfg.BaseURL,
		Token:         cfg.Token,
		Timeout:       cfg.Timeout,
		Retry:         &retry,
		Stats:         transport.NewStats(cfg.StatsWindow),
		ClientVersion: version,
		Logger:        log,
	}

	sess, title, err := openSession(ctx, cfg, opts)
	if err != nil {
		log.Error("failed to open session", "error", err, "pdf_path", cfg.PDFPath)
		os.Exit(1)
	}

	srv := api.NewServer(sess, title, opts, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		srv.Close()
	}()

	log.Info("starting pdfdancer inspector", "port", cfg.Port, "session_id", sess.ID(), "base_url", cfg.BaseURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openSession uploads PDF_PATH when set, or starts a blank document.
func openSession(ctx context.Context, cfg config.Config, opts session.Options) (*session.Session, string, error) {
	if cfg.PDFPath == "" {
		sess, err := session.New(ctx, opts, session.BlankOptions{})
		return sess, "Untitled", err
	}

	data, err := os.ReadFile(cfg.PDFPath)
	if err != nil {
		return nil, "", err
	}
	title := strings.TrimSuffix(filepath.Base(cfg.PDFPath), filepath.Ext(cfg.PDFPath))
	if info, err := pdfinfo.Inspect(data); err == nil && info.Title != "" {
		title = info.Title
	}
	sess, err := session.Open(ctx, opts, data)
	return sess, title, err
}
