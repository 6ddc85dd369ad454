// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/community-registration/internal/config"
	"github.com/Shivanand-hulikatti/community-registration/internal/database"
	"github.com/Shivanand-hulikatti/community-registration/internal/gateway"
	"github.com/Shivanand-hulikatti/community-registration/internal/handler"
	"github.com/Shivanand-hulikatti/community-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/community-registration/internal/repository"
	"github.com/Shivanand-hulikatti/community-registration/internal/service"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// overrides holds command-line values that win over file and environment.
type overrides struct {
	configPath  string
	port        string
	gatewayURL  string
	flagBackend string
	logLevel    string
	logFormat   string
}

func rootCmd() *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:           "regform",
		Short:         "Community registration form service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&o.gatewayURL, "gateway-url", "", "registration endpoint URL")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&o.logFormat, "log-format", "", "log format (json or console)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	serve.Flags().StringVarP(&o.port, "port", "p", "", "listen port")
	serve.Flags().StringVar(&o.flagBackend, "flag-backend", "", "submitted-flag store: memory, postgres or redis")

	shareLink := &cobra.Command{
		Use:   "share-link",
		Short: "Print the share deep link",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), service.ShareLink(cfg.ShareMessage()))
			return err
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}

	cmd.AddCommand(serve, shareLink, version)
	return cmd
}

func loadConfig(cmd *cobra.Command, o overrides) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	if flags.Changed("gateway-url") {
		cfg.GatewayURL = o.gatewayURL
	}
	if flags.Changed("flag-backend") {
		cfg.FlagBackend = o.flagBackend
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	return cfg, nil
}

// openFlagStore connects the configured backend. The returned closer
// releases any connections.
func openFlagStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (repository.FlagStore, func(), error) {
	switch cfg.FlagBackend {
	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		store := repository.NewPostgresFlagStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info().Msg("connected to PostgreSQL")
		return store, pool.Close, nil

	case config.BackendRedis:
		client, err := database.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		return repository.NewRedisFlagStore(client), func() { _ = client.Close() }, nil
	}

	logger.Warn().Msg("using in-memory flag store; submitted flags are lost on restart")
	return repository.NewMemoryFlagStore(), func() {}, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.NewLogger(os.Stderr)

	// ── 1. Open the flag store ───────────────────────────────────────────
	store, closeStore, err := openFlagStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── 2. Wire up layers ────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessions := service.NewSessions(service.SessionsConfig{
		Store:        store,
		Gateway:      gateway.New(cfg.GatewayURL, nil),
		ShareMessage: cfg.ShareMessage(),
		TTL:          cfg.SessionTTL,
		Metrics:      metrics.New(reg),
		Logger:       logger,
	})

	router := handler.NewRouter(handler.RouterConfig{
		Sessions:  sessions,
		Logger:    logger,
		Gatherer:  reg,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepSessions(ctx, sessions, cfg.SessionTTL/4, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func sweepSessions(ctx context.Context, sessions *service.Sessions, every time.Duration, logger zerolog.Logger) {
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := sessions.Sweep(); n > 0 {
				logger.Debug().Int("evicted", n).Int("live", sessions.Len()).Msg("swept idle sessions")
			}
		}
	}
}
