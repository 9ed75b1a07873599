package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dan9191/finflow/internal/config"
	"github.com/Dan9191/finflow/internal/handler"
	"github.com/Dan9191/finflow/internal/notify"
	"github.com/Dan9191/finflow/internal/repository"
	"github.com/Dan9191/finflow/internal/scheduler"
	"github.com/Dan9191/finflow/internal/service"
	"github.com/Dan9191/finflow/internal/taxonomy"
)

var flagMigrate bool

var rootCmd = &cobra.Command{
	Use:           "finflow",
	Short:         "Personal finance tracker with forward cash-flow projection",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the alert job",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the postgres schema",
	RunE:  runMigrate,
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Send alert e-mails once and exit",
	RunE:  runAlerts,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagMigrate, "migrate", false, "Create the postgres schema before starting")
	rootCmd.AddCommand(serveCmd, migrateCmd, alertsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the wired dependencies shared by every command.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	svc     *service.Service
	pg      *repository.Postgres
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("Failed to release resource")
		}
	}
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a := &app{cfg: cfg, log: newLogger(cfg.LogLevel)}

	tax, err := taxonomy.Load(cfg.TaxonomyFile)
	if err != nil {
		return nil, err
	}

	var store repository.Store
	switch cfg.Storage {
	case config.StorageMemory:
		a.log.Warn("Using in-memory storage; data is lost on exit")
		store = repository.NewMemory()
	default:
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		a.pg = repository.NewPostgres(db)
		store = a.pg
	}

	var cache repository.Cache
	if cfg.RedisAddr != "" {
		rc := repository.NewRedisCache(cfg.RedisAddr)
		a.closers = append(a.closers, rc.Close)
		if err := rc.Ping(ctx); err != nil {
			a.log.WithError(err).Warn("Redis unavailable, reads fall through to the store until it recovers")
		}
		cache = rc
	} else {
		cache = repository.NewMemoryCache()
	}
	store = repository.NewCached(store, cache, cfg.CacheTTL, a.log)

	a.svc = service.NewService(store, a.log, cfg, tax)
	return a, nil
}

func (a *app) migrate(ctx context.Context) error {
	if a.pg == nil {
		return errors.New("migrate requires postgres storage")
	}
	if err := a.pg.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	a.log.Info("Schema is up to date")
	return nil
}

func (a *app) alertJob() *scheduler.Scheduler {
	sender := notify.NewSender(a.cfg, notify.NewSMTPTransport(a.cfg), a.log)
	return scheduler.New(a.svc, sender, a.log)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if flagMigrate {
		if err := a.migrate(ctx); err != nil {
			return err
		}
	}

	job := a.alertJob()
	if err := job.Start(a.cfg.AlertSchedule); err != nil {
		return err
	}

	h := handler.NewHandler(a.svc, a.log)
	addr := fmt.Sprintf(":%s", a.cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, a.cfg, a.log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		a.log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	job.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return a.migrate(cmd.Context())
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.alertJob().RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "users: %d, notified: %d, failed: %d\n", report.Users, report.Notified, report.Failed)
	return nil
}
