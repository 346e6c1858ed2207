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
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/armature-corp/qrchart/api"
	"github.com/armature-corp/qrchart/config"
	"github.com/armature-corp/qrchart/metrics"
	"github.com/armature-corp/qrchart/provider"
	"github.com/armature-corp/qrchart/store"
)

var version = "v0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qrchart",
		Short: "Render QR-code images through a chart service or locally",
	}

	// --- serve command -------------------------------------------------------
	var configPath string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the QR image HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	root.AddCommand(serveCmd)

	// --- fetch command -------------------------------------------------------
	var fetch fetchFlags
	fetchCmd := &cobra.Command{
		Use:   "fetch [text]",
		Short: "Render a QR image and write it to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetch.marginSet = cmd.Flags().Changed("margin")
			return runFetch(cmd.Context(), cmd.OutOrStdout(), fetch, args[0])
		},
	}
	fetchCmd.Flags().StringVarP(&fetch.configPath, "config", "c", "config.yaml", "Path to config file")
	fetchCmd.Flags().IntVarP(&fetch.size, "size", "s", 200, "Image width and height in pixels")
	fetchCmd.Flags().StringVarP(&fetch.out, "out", "o", "", "Output file (default stdout)")
	fetchCmd.Flags().StringVar(&fetch.level, "level", "", "Error correction level: L, M, Q or H")
	fetchCmd.Flags().IntVar(&fetch.margin, "margin", 0, "Margin in grid rows (default from config)")
	fetchCmd.Flags().StringVar(&fetch.provider, "provider", "", "Provider: googlecharts or local")
	root.AddCommand(fetchCmd)

	// --- url command ---------------------------------------------------------
	var urlSize, urlMargin int
	var urlLevel string
	urlCmd := &cobra.Command{
		Use:   "url [text]",
		Short: "Print the chart URL for text without fetching it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runURL(cmd.OutOrStdout(), args[0], urlSize, urlLevel, urlMargin)
		},
	}
	urlCmd.Flags().IntVarP(&urlSize, "size", "s", 200, "Image width and height in pixels")
	urlCmd.Flags().StringVar(&urlLevel, "level", "L", "Error correction level: L, M, Q or H")
	urlCmd.Flags().IntVar(&urlMargin, "margin", 1, "Margin in grid rows")
	root.AddCommand(urlCmd)

	// --- history command -----------------------------------------------------
	var historyAddr string
	var historyLimit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent renders from a running service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.OutOrStdout(), historyAddr, historyLimit)
		},
	}
	historyCmd.Flags().StringVar(&historyAddr, "addr", "http://localhost:8556", "Service HTTP address")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries")
	root.AddCommand(historyCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qrchart %s\n", version)
		},
	})

	return root
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// runServe is the main service entrypoint that wires all components together.
func runServe(configPath string) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Setup logger
	log := newLogger(cfg.LogLevel, os.Stdout)
	slog.SetDefault(log)

	log.Info("starting qrchart", "version", version, "port", cfg.Port, "provider", cfg.Provider)

	// 3. Build provider
	level, err := cfg.Level()
	if err != nil {
		return fmt.Errorf("parse level: %w", err)
	}
	opts, err := cfg.ProviderOptions()
	if err != nil {
		return fmt.Errorf("provider options: %w", err)
	}
	p, err := provider.New(cfg.Provider, append(opts, provider.WithLogger(log))...)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	if len(cfg.PinnedFingerprints) > 0 {
		log.Info("certificate pinning enabled", "pins", len(cfg.PinnedFingerprints))
	}

	// 4. Open history store
	var history *store.HistoryStore
	if cfg.History {
		if err := cfg.EnsureDataDir(); err != nil {
			return fmt.Errorf("ensure data dir: %w", err)
		}
		history, err = store.NewHistoryStore(filepath.Join(cfg.DataDir, "history.db"))
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer history.Close()
	}

	// 5. Start HTTP server
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(&api.Server{
			Provider:     p,
			ProviderName: cfg.Provider,
			Level:        level,
			Margin:       cfg.MarginRows,
			Store:        history,
			Metrics:      metrics.NewRecorder(nil),
			Log:          log,
			Version:      version,
			StartTime:    time.Now(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 6. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("goodbye")
	return nil
}

type fetchFlags struct {
	configPath string
	size       int
	out        string
	level      string
	margin     int
	marginSet  bool
	provider   string
}

// runFetch renders one image using the config file with any flag overrides.
func runFetch(ctx context.Context, stdout io.Writer, f fetchFlags, text string) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.level != "" {
		cfg.ErrorCorrection = f.level
	}
	if f.marginSet {
		cfg.MarginRows = f.margin
	}
	if f.provider != "" {
		cfg.Provider = f.provider
	}

	opts, err := cfg.ProviderOptions()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel, os.Stderr)
	p, err := provider.New(cfg.Provider, append(opts, provider.WithLogger(log))...)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	img, err := p.GetImage(ctx, text, f.size)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}

	if f.out == "" {
		_, err = stdout.Write(img)
		return err
	}
	if err := os.WriteFile(f.out, img, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.out, err)
	}
	log.Info("image written", "path", f.out, "bytes", len(img), "mime_type", p.GetMimeType())
	return nil
}

// runURL prints the chart URL; no network I/O is performed.
func runURL(stdout io.Writer, text string, size int, level string, margin int) error {
	l, err := provider.ParseErrorCorrectionLevel(level)
	if err != nil {
		return err
	}
	p, err := provider.NewGoogleCharts(
		provider.WithErrorCorrectionLevel(l),
		provider.WithMarginRows(margin),
	)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, p.URL(text, size))
	return err
}

// runHistory queries the service history endpoint.
func runHistory(stdout io.Writer, addr string, limit int) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(fmt.Sprintf("%s/history?limit=%d", addr, limit))
	if err != nil {
		return fmt.Errorf("failed to reach service at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("history request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if _, err := io.Copy(stdout, resp.Body); err != nil {
		return err
	}
	fmt.Fprintln(stdout)
	return nil
}
