package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository/memory"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/repository/sqlite"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/server"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/service"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/validation"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgFile string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the package tracking API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v, cfgFile)
		},
	}

	root := &cobra.Command{
		Use:           "packagesync",
		Short:         "Package tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")

	flags := root.PersistentFlags()
	flags.String("port", "9000", "HTTP listen port")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("store", config.DriverMemory, "store driver (memory, sqlite, postgres)")
	flags.String("dsn", "", "store connection string")
	flags.Bool("seed", false, "add demo packages to an empty store")
	bindFlag(v, "http.port", flags.Lookup("port"))
	bindFlag(v, "log.level", flags.Lookup("log-level"))
	bindFlag(v, "store.driver", flags.Lookup("store"))
	bindFlag(v, "store.dsn", flags.Lookup("dsn"))
	bindFlag(v, "seed.packages", flags.Lookup("seed"))

	root.AddCommand(serve)
	return root
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

func runServe(ctx context.Context, v *viper.Viper, cfgFile string) error {
	envPath, err := config.LoadEnv("")
	if err != nil {
		return err
	}

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if envPath != "" {
		log.Info("loaded environment file", zap.String("path", envPath))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer st.close()

	issuer, err := auth.NewJWTIssuer(auth.Config{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
	})
	if err != nil {
		return err
	}

	packages := service.NewPackageService(st.packages, validation.New(time.Now), log.Named("packages"))
	users := service.NewAuthService(st.users, issuer, log.Named("auth"))

	if err := seed(ctx, cfg, packages, users, log); err != nil {
		return err
	}

	var producer kafka.Producer
	if len(cfg.Audit.Brokers) > 0 {
		producer = kafka.NewKafkaProducer(cfg.Audit.Brokers, log.Named("kafka"))
	} else {
		producer = kafka.NewLogProducer(log.Named("audit"))
	}
	auditManager := server.NewAuditManager(producer, server.AuditConfig{
		Topic:       cfg.Audit.Topic,
		WorkerCount: cfg.Audit.Workers,
		BatchSize:   cfg.Audit.BatchSize,
		Timeout:     cfg.Audit.FlushInterval,
	}, log.Named("audit"))

	srv := server.New(packages, users, auditManager, log.Named("http"))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gCtx, cfg.HTTP.Port)
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	log.Info("server gracefully stopped")
	return nil
}

type stores struct {
	packages service.PackageRepository
	users    service.UserRepository
	close    func()
}

func openStores(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		bunDB, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		log.Info("using sqlite store", zap.String("dsn", cfg.DSN))
		return &stores{
			packages: sqlite.NewPackageRepo(bunDB),
			users:    sqlite.NewUserRepo(bunDB),
			close:    func() { _ = bunDB.Close() },
		}, nil

	case config.DriverPostgres:
		database, err := db.NewDb(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := postgresql.EnsureSchema(ctx, database); err != nil {
			database.Close()
			return nil, err
		}
		log.Info("using postgres store")
		return &stores{
			packages: postgresql.NewPackageRepo(database),
			users:    postgresql.NewUserRepo(database),
			close:    database.Close,
		}, nil

	default:
		log.Info("using in-memory store")
		return &stores{
			packages: memory.NewPackageRepo(),
			users:    memory.NewUserRepo(),
			close:    func() {},
		}, nil
	}
}

func seed(ctx context.Context, cfg *config.Config, packages *service.PackageService, users *service.AuthService, log *zap.Logger) error {
	if cfg.Seed.Packages {
		n, err := packages.SeedDemoPackages(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			log.Info("store already has packages, skipping demo data")
		}
	}

	if cfg.Admin.Password == "" {
		log.Warn("admin.password is not set, no admin user created")
		return nil
	}
	if err := users.EnsureUser(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}
