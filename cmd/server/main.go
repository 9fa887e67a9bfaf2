package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/UkralStul/chirp/internal/auth"
	"github.com/UkralStul/chirp/internal/config"
	"github.com/UkralStul/chirp/internal/live"
	"github.com/UkralStul/chirp/internal/service"
	"github.com/UkralStul/chirp/internal/storage"
	"github.com/UkralStul/chirp/internal/storage/inmemory"
	"github.com/UkralStul/chirp/internal/storage/sqlstore"
	"github.com/UkralStul/chirp/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "chirp",
		Short:        "Chirp - short posts, likes and live comments",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	root.AddCommand(newServeCmd(&configPath), newMigrateCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	var (
		storageType string
		port        string
		seed        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			// Флаги сильнее файла и окружения
			if cmd.Flags().Changed("storage") {
				cfg.Storage = storageType
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, seed)
		},
	}
	cmd.Flags().StringVar(&storageType, "storage", config.StorageInMemory, "storage type (inmemory, postgres or sqlite)")
	cmd.Flags().StringVar(&port, "port", "8080", "HTTP port")
	cmd.Flags().BoolVar(&seed, "seed", false, "fill storage with demo data (always on for inmemory)")
	return cmd
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Storage == config.StorageInMemory {
				return errors.New("migrate needs postgres or sqlite storage")
			}
			// Миграция выполняется при открытии хранилища
			_, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			log.Printf("Schema for %s storage is up to date", cfg.Storage)
			return nil
		},
	}
}

// openStore выбирает реализацию хранилища по конфигурации.
func openStore(cfg *config.Config) (storage.Storage, func(), error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		store, err := sqlstore.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case config.StorageSQLite:
		store, err := sqlstore.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return inmemory.New(), func() {}, nil
	}
}

func serve(ctx context.Context, cfg *config.Config, seed bool) error {
	log.Printf("Starting server with %s storage", cfg.Storage)
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	observer := live.NewObserver()
	svc := service.New(store,
		service.WithNotifier(observer),
		service.WithFeedLimit(cfg.FeedLimit),
	)

	if seed || cfg.Storage == config.StorageInMemory {
		// Заполним данными для демонстрации
		if err := fillWithMockData(ctx, store, svc); err != nil {
			return err
		}
	}

	deps := web.Deps{
		Service:       svc,
		Store:         store,
		Observer:      observer,
		Verifier:      auth.NewVerifier(cfg.SupabaseJWTSecret),
		SiteURL:       cfg.SiteURL,
		OAuthProvider: cfg.OAuthProvider,
		SecureCookies: cfg.SecureCookies,
	}
	if cfg.AuthEnabled() {
		deps.AuthClient = auth.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	} else {
		log.Printf("SUPABASE_URL is not set, sign-in is disabled")
	}

	srv, err := web.New(deps)
	if err != nil {
		return err
	}
	httpServer := srv.NewHTTPServer(":" + cfg.Port)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("connect to http://localhost:%s/ for the feed", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
