package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"adwin-rewards/config"
	"adwin-rewards/dashboard"
	"adwin-rewards/database"
	"adwin-rewards/handlers"
	"adwin-rewards/ledger"
	"adwin-rewards/logging"
	"adwin-rewards/notify"
	"adwin-rewards/recommender"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "adwin",
	Short: "Rewards dashboard service",
	Long: `adwin serves the rewards dashboard API: daily check-ins, ad and quiz
rewards, and engagement-driven widget layout.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), v, cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

		db, err := database.Connect(cmd.Context(), cfg.Database, logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := database.InitDB(cmd.Context(), db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		logger.Info("schema up to date")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./adwin.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, configCmd)
}

func loadConfig() (*viper.Viper, *config.Config, error) {
	v := config.New(cfgFile)
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	return v, cfg, nil
}

func serve(ctx context.Context, v *viper.Viper, cfg *config.Config) error {
	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger.Logger)
	config.Watch(v, func(l config.LoggingConfig) {
		logger.SetLevel(l.Level)
		logger.Info("log level changed", "level", logger.Level().String())
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	keys, err := cfg.DeriveKeys()
	if err != nil {
		return err
	}

	// Database
	db, err := database.Connect(ctx, cfg.Database, logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := database.InitDB(ctx, db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	hub := notify.NewHub(logger.Logger)
	defer hub.Close()

	watcher := ledger.NewWatcher(cfg.Database.DSN(), hub, logger.Logger)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Error("balance watcher stopped", "error", err)
		}
	}()

	registry := dashboard.NewRegistry(dashboard.Deps{
		Ledger:      ledger.New(db, logger.Logger),
		Recommender: newRecommender(cfg.Recommend, logger.Logger),
		Publisher:   hub,
		Logger:      logger.Logger,
	}, dashboard.Options{
		CheckInRewards: cfg.Rewards.CheckInReward,
		AdReward:       cfg.Rewards.AdReward,
		QuizReward:     cfg.Rewards.QuizReward,
		TaskDelay:      cfg.Rewards.TaskDelay,
	})
	defer registry.CloseAll()

	users := database.NewUsers(db, logger.Logger)
	store := sessions.NewCookieStore(keys.CookieAuth, keys.CookieEncrypt)
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Auth.SecureCookies

	router := handlers.NewRouter(&handlers.Env{
		Users:          users,
		Audio:          users,
		Registry:       registry,
		Hub:            hub,
		Store:          store,
		Keys:           keys,
		Auth:           cfg.Auth,
		Rewards:        cfg.Rewards,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger.Logger,
	}, cfg.Server.StaticDir)

	var handler http.Handler = router
	if len(cfg.Server.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
		}).Handler(router)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down", "sessions", registry.Len())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRecommender calls the remote function when one is configured.
func newRecommender(cfg config.RecommendConfig, logger *slog.Logger) dashboard.Recommender {
	if cfg.URL == "" {
		logger.Info("no recommender configured, using local heuristic")
		return recommender.Heuristic{Widgets: dashboard.DefaultOrder().Strings()}
	}
	return recommender.NewClient(cfg.URL, cfg.APIKey, cfg.Timeout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
