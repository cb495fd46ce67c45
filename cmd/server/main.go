package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/noxwise/noxwise/internal/api"
	"github.com/noxwise/noxwise/internal/auth"
	"github.com/noxwise/noxwise/internal/config"
	"github.com/noxwise/noxwise/internal/history"
	"github.com/noxwise/noxwise/internal/metrics"
	"github.com/noxwise/noxwise/internal/predictor"
	"github.com/noxwise/noxwise/internal/stats"
	"github.com/noxwise/noxwise/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	historyPath := flag.String("history", "", "preload a previously exported evaluation history CSV")
	uiDir := flag.String("ui-dir", "", "serve the React UI static files from this directory (e.g. ui/dist); leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("noxwise-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"bands", len(cfg.Bands),
		"predictor", cfg.Predictor.BaseURL,
		"auth_mode", cfg.Server.Auth.Mode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Historical dataset → per-field statistics for the dashboard context.
	var fieldStats map[string]stats.FieldStats
	if cfg.Data.HistoryCSV != "" {
		fieldStats, err = stats.LoadFile(cfg.Data.HistoryCSV)
		if err != nil {
			slog.Error("failed to load historical dataset", "path", cfg.Data.HistoryCSV, "err", err)
			os.Exit(1)
		}
		slog.Info("historical statistics computed", "path", cfg.Data.HistoryCSV, "fields", len(fieldStats))
	} else {
		slog.Warn("no historical dataset configured — /api/v1/stats disabled")
	}

	// Evaluation history, optionally seeded from a previous session's export.
	st := history.New(cfg.Server.HistoryCapacity)
	if *historyPath != "" {
		entries, err := history.LoadFile(*historyPath)
		if err != nil {
			slog.Error("failed to preload history", "path", *historyPath, "err", err)
			os.Exit(1)
		}
		st.Preload(entries)
		slog.Info("history preloaded", "path", *historyPath, "entries", len(entries))
	}

	reg := metrics.New(st.Count)
	handler := api.New(cfg, st, fieldStats, predictor.New(cfg.Predictor), reg)

	// Watch config for hot reload of band envelopes and engine thresholds.
	go func() {
		if err := config.Watch(ctx, *configPath, handler.SetConfig); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// WebSocket hub — pushes the evaluation history to dashboard clients.
	hub := ws.New(st, cfg.Server.WSInterval)
	go hub.Run(ctx)

	authWrap := func(next http.Handler) http.Handler {
		return auth.APIKeyMiddleware(
			cfg.Server.Auth.Mode,
			cfg.Server.Auth.EffectiveHeader(),
			cfg.Server.Auth.Key(),
			next,
		)
	}

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", authWrap(handler))
	httpMux.Handle("/ws/stream", authWrap(hub))
	httpMux.Handle("/metrics", reg)

	// Optional: serve the pre-built React UI from a local directory.
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		httpMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			// SPA fallback: if the requested file doesn't exist, serve index.html.
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("noxwise-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
