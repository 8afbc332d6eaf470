package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/booktrade/sellerd/internal/bus"
	"github.com/booktrade/sellerd/internal/catalogue"
	"github.com/booktrade/sellerd/internal/config"
	"github.com/booktrade/sellerd/internal/database"
	"github.com/booktrade/sellerd/internal/ledger"
	"github.com/booktrade/sellerd/internal/notify"
	"github.com/booktrade/sellerd/internal/pricing"
	"github.com/booktrade/sellerd/internal/seller"
	"github.com/booktrade/sellerd/internal/transport"
	"github.com/booktrade/sellerd/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (empty for built-in defaults)")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting sellerd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	var cfg *config.Config
	if *configPath == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.LoadAndValidate(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger.Info("configuration loaded",
		"seller_id", cfg.Seller.ID,
		"listen_addr", cfg.Server.ListenAddr,
		"tick_interval", cfg.Pricing.TickInterval,
		"ledger_enabled", cfg.Database.Enabled,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// User notifications go to the terminal and the log
	notifier := notify.NewMulti(
		notify.NewConsole(os.Stdout),
		notify.NewLog(logger),
	)

	cat := catalogue.New()
	msgBus := bus.New(cfg.Bus.QueueSize)

	sellerSvc := seller.New(seller.Config{
		ID: cfg.Seller.ID,
		Pricing: pricing.Config{
			TickInterval: cfg.Pricing.TickInterval,
			LegacyDecay:  cfg.Pricing.LegacyDecay,
		},
	}, cat, msgBus, notifier, logger)

	if err := sellerSvc.Start(ctx); err != nil {
		logger.Error("failed to start seller", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		sellerSvc.Stop(shutdownCtx)
	}()

	// Optional sale ledger
	var pool *pgxpool.Pool
	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)

		p, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		pool = p
		defer pool.Close()

		if err := ledger.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure ledger schema", "error", err)
			os.Exit(1)
		}

		led := ledger.New(ledger.Config{
			BatchSize:     cfg.Ledger.BatchSize,
			FlushInterval: cfg.Ledger.FlushInterval,
		}, pool, cat.Changes(), logger)

		if err := led.Start(ctx); err != nil {
			logger.Error("failed to start ledger", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			led.Stop(shutdownCtx)
		}()

		logger.Info("sale ledger connected")
	}

	// HTTP surface: buyer WebSocket endpoint plus admin/health handlers
	mux := http.NewServeMux()
	mux.Handle("/ws", transport.NewEndpoint(msgBus, logger))
	registerAdminHandlers(mux, sellerSvc, cat, pool, logger)

	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("sellerd running",
		"seller_id", cfg.Seller.ID,
		"ws_url", fmt.Sprintf("ws://localhost%s/ws", cfg.Server.ListenAddr),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("sellerd stopped")
}

// putForSaleRequest is the admin payload creating a listing.
type putForSaleRequest struct {
	Title        string    `json:"title"`
	InitialPrice int       `json:"initial_price"`
	FloorPrice   int       `json:"floor_price"`
	Deadline     time.Time `json:"deadline"`
}

// registerAdminHandlers wires the health and listing admin endpoints.
func registerAdminHandlers(mux *http.ServeMux, sellerSvc *seller.Seller, cat *catalogue.Catalogue, pool *pgxpool.Pool, logger *slog.Logger) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancelReq := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancelReq()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["postgres"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["postgres"] = "connected"
			}
		}

		health.Components["catalogue"] = map[string]any{
			"listings": cat.Len(),
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/listings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req putForSaleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := sellerSvc.PutForSale(req.Title, req.InitialPrice, req.FloorPrice, req.Deadline); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		logger.Info("listing created",
			"title", req.Title,
			"initial_price", req.InitialPrice,
			"floor_price", req.FloorPrice,
			"deadline", req.Deadline,
		)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"title": req.Title})
	})

	mux.HandleFunc("/debug/listings", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count":    cat.Len(),
			"listings": cat.Snapshot(),
		})
	})
}
