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

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"buildboard-backend/internal/auth"
	"buildboard-backend/internal/cache"
	"buildboard-backend/internal/config"
	"buildboard-backend/internal/db"
	"buildboard-backend/internal/metrics"
	"buildboard-backend/internal/users"
)

const (
	appName = "buildboard"
	Version = "0.1.0"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Construction project management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), false)
		},
	}

	cmd.AddCommand(serveCmd(), migrateCmd(), userCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the schema before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := setupLogger(cfg.Env, cfg.LogLevel)

			driver, dsn := cfg.DataSource()
			dbx, err := db.Open(cmd.Context(), driver, dsn)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer dbx.Close()

			if err := db.Migrate(cmd.Context(), dbx); err != nil {
				return err
			}
			log.WithField("driver", cfg.DBDriver).Info("schema applied")
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var name, email, password, contact, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account, e.g. the first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			driver, dsn := cfg.DataSource()
			dbx, err := db.Open(cmd.Context(), driver, dsn)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer dbx.Close()

			in, err := users.Prepare(name, email, password, contact, auth.Role(role))
			if err != nil {
				return err
			}
			acc, err := users.NewStore(dbx).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", acc.ID, acc.Email, acc.Role)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "Display name")
	create.Flags().StringVar(&email, "email", "", "Login email")
	create.Flags().StringVar(&password, "password", "", "Initial password")
	create.Flags().StringVar(&contact, "contact", "", "Contact details")
	create.Flags().StringVar(&role, "role", string(auth.RoleUser), "USER or ADMIN")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := setupLogger(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver, dsn := cfg.DataSource()
	dbx, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer dbx.Close()
	log.WithField("driver", cfg.DBDriver).Info("connected to database")

	if migrate {
		if err := db.Migrate(ctx, dbx); err != nil {
			return err
		}
	}

	m := metrics.New()
	results, closeCache := newResultCache(ctx, cfg, log, m)
	defer closeCache()

	router := newRouter(deps{
		cfg:     cfg,
		db:      dbx,
		log:     log,
		metrics: m,
		cache:   results,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("API server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newResultCache picks redis when REDIS_ADDR is set and reachable, otherwise
// the in-process cache.
func newResultCache(ctx context.Context, cfg *config.Config, log *logrus.Entry, m *metrics.Metrics) (cache.Cache, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		err := client.Ping(ctx).Err()
		if err == nil {
			log.WithField("addr", cfg.RedisAddr).Info("using redis result cache")
			return cache.NewRedis(client, appName+":", log, m), func() { _ = client.Close() }
		}
		log.WithError(err).Warn("redis unreachable, falling back to memory cache")
		_ = client.Close()
	}
	return cache.NewMemory(cfg.CacheMaxEntries, cache.WithMetrics(m)), func() {}
}
