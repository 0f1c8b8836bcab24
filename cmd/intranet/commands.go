package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-intranet-backend/internal/auth"
	"github.com/tbourn/go-intranet-backend/internal/derive"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	httpapi "github.com/tbourn/go-intranet-backend/internal/http"
	"github.com/tbourn/go-intranet-backend/internal/observability"
	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/services"
)

func serveCmd() *cobra.Command {
	var janitorEvery time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, janitorEvery)
		},
	}
	cmd.Flags().DurationVar(&janitorEvery, "janitor-every", time.Hour, "interval between purges of expired sessions and idempotency keys (0 disables)")
	return cmd
}

func serve(ctx context.Context, janitorEvery time.Duration) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		if err := observability.ShutdownWithin(shutdownOTel, 5*time.Second); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDB()
	if err != nil {
		return err
	}

	deps := httpapi.Deps{Version: appVersion()}
	if cfg.Auth.RedisAddr != "" {
		rs, err := auth.NewRedisSessions(ctx, cfg.Auth.RedisAddr, cfg.Auth.RedisPassword, cfg.Auth.RedisDB)
		if err != nil {
			return fmt.Errorf("redis sessions: %w", err)
		}
		defer rs.Close()
		deps.Sessions = rs
		log.Info().Str("addr", cfg.Auth.RedisAddr).Msg("sessions stored in redis")
	}
	if cfg.Ledger.TariffFile != "" {
		t, err := derive.LoadTariffs(cfg.Ledger.TariffFile)
		if err != nil {
			return fmt.Errorf("tariffs: %w", err)
		}
		deps.Tariffs = t
		log.Info().Str("file", cfg.Ledger.TariffFile).Int("codes", len(t.All())).Msg("tariff table loaded")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, deps, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	if janitorEvery > 0 {
		go janitor(ctx, db, janitorEvery)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", appVersion()).Msg("listening")
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

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// janitor purges expired rows every interval until ctx ends.
func janitor(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			sessions, keys, err := purgeExpired(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("janitor purge failed")
				continue
			}
			log.Debug().Int64("sessions", sessions).Int64("idempotency_keys", keys).Msg("janitor purge")
		}
	}
}

// purgeExpired drops sessions and idempotency records expired at now.
func purgeExpired(ctx context.Context, db *gorm.DB, now time.Time) (sessions, keys int64, err error) {
	if sessions, err = repo.DeleteExpiredSessions(ctx, db, now); err != nil {
		return 0, 0, fmt.Errorf("sessions: %w", err)
	}
	if keys, err = repo.PurgeIdempotency(ctx, db, now); err != nil {
		return sessions, 0, fmt.Errorf("idempotency: %w", err)
	}
	return sessions, keys, nil
}

func openDB() (*gorm.DB, error) {
	db, err := repo.Open(cfg.DB, cfg.OTEL.Enabled)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DB.Driver, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openDB(); err != nil {
				return err
			}
			log.Info().Str("driver", cfg.DB.Driver).Msg("schema up to date")
			return nil
		},
	}
}

func addAccountCmd() *cobra.Command {
	var (
		email, name, password string
		labels                []string
	)
	cmd := &cobra.Command{
		Use:   "add-account",
		Short: "Create a sign-in account",
		Example: `  intranet add-account --email alice@example.com --name Alice --password s3cret-pass --label admin
  intranet add-account --email bob@example.com --name Bob --password s3cret-pass`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			acc, err := createAccount(cmd.Context(), db, email, name, password, labels)
			if err != nil {
				return err
			}
			log.Info().Str("id", acc.ID).Str("email", acc.Email).Strs("labels", acc.Labels).Msg("account created")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "sign-in email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&password, "password", "", "initial password, at least 8 characters (required)")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "account label, repeatable (e.g. admin)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func createAccount(ctx context.Context, db *gorm.DB, email, name, password string, labels []string) (*domain.Account, error) {
	svc := &services.AuthService{DB: db}
	return svc.AddAccount(ctx, email, name, password, labels)
}

func purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions and idempotency keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			sessions, keys, err := purgeExpired(cmd.Context(), db, time.Now().UTC())
			if err != nil {
				return err
			}
			log.Info().Int64("sessions", sessions).Int64("idempotency_keys", keys).Msg("purged")
			return nil
		},
	}
}
