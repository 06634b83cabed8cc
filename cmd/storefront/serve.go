package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"storefront-bff/internal/account"
	"storefront-bff/internal/api"
	"storefront-bff/internal/auth"
	"storefront-bff/internal/cache"
	"storefront-bff/internal/catalog"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/session"
	"storefront-bff/internal/telemetry"
	"storefront-bff/internal/web"
)

var (
	servePort string
	demoUser  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (overrides HTTP_PORT)")
	serveCmd.Flags().StringVar(&demoUser, "demo-user", "tony", "account shown on the HTML account page")
	rootCmd.AddCommand(serveCmd)
}

func openCache(ctx context.Context) (cache.Cache, error) {
	limit := cache.RateLimit{Requests: cfg.RateLimit, Window: cfg.RateWindow}
	if cfg.RedisAddr == "" {
		slog.Info("REDIS_ADDR not set, keeping sessions in memory")
		return cache.NewMemory(limit), nil
	}
	c, err := cache.NewClient(ctx, cfg.RedisAddr, limit)
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to Redis", "addr", cfg.RedisAddr)
	return c, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port := cfg.HTTPPort
	if servePort != "" {
		port = servePort
	}
	slog.Info("Starting storefront", "port", port, "env", cfg.Env)

	store, err := catalog.Load()
	if err != nil {
		return err
	}

	kv, err := openCache(ctx)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		return err
	}
	defer kv.Close()

	sessions := session.NewStore(kv, cfg.SessionTTL, store.StarterCart)
	dashboard := account.NewDashboard(store.SeedAccount)

	processor := checkout.NewProcessor(cfg.SubmitDelay, dashboard)
	processor.OnPlaced = func(c checkout.Confirmation) {
		items := 0
		for _, it := range c.Items {
			items += it.Quantity
		}
		telemetry.OrderPlaced(c.Total.InexactFloat64(), items)
	}

	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)
	pages, err := web.NewHandler(store, sessions, dashboard, processor, demoUser, cfg.SessionTTL)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	api.NewHandler(store, kv, sessions, dashboard, processor, authMiddleware).Register(mux)
	pages.Register(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           telemetry.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.SubmitDelay + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SubmitDelay+10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		return err
	}
	return nil
}
