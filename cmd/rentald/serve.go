package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/propertyhub/rental-api/internal/api"
	"github.com/propertyhub/rental-api/internal/api/handler"
	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/ports"
	"github.com/propertyhub/rental-api/internal/core/service"
	"github.com/propertyhub/rental-api/internal/core/token"
	mongodb "github.com/propertyhub/rental-api/internal/infrastructure/db/mongo"
	redisdb "github.com/propertyhub/rental-api/internal/infrastructure/db/redis"
	"github.com/propertyhub/rental-api/internal/infrastructure/identity"
	"github.com/propertyhub/rental-api/internal/infrastructure/mail"
	"github.com/propertyhub/rental-api/internal/infrastructure/queue"
	"github.com/propertyhub/rental-api/internal/infrastructure/storage/s3"
	"github.com/propertyhub/rental-api/internal/pkg/config"
	"github.com/propertyhub/rental-api/internal/pkg/hasher"
	"github.com/propertyhub/rental-api/pkg/logger"
)

const (
	shutdownTimeout = 30 * time.Second
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "rental-api",
	})

	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Attempts: connectAttempts,
		Backoff:  connectBackoff,
		Logger:   logger.Component("redis"),
	})
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	issuer, err := token.NewIssuer(token.Secrets{
		Access:     cfg.Tokens.AccessSecret,
		Refresh:    cfg.Tokens.RefreshSecret,
		Activation: cfg.Tokens.ActivationSecret,
	})
	if err != nil {
		return err
	}

	roleRepo := mongodb.NewRoleRepository(db)
	if err := roleRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("role indexes: %w", err)
	}

	providers := identityRegistry(cfg)
	avatars, err := avatarStore(ctx, cfg)
	if err != nil {
		return err
	}

	// Workers outlive the request context. Stopping them after Shutdown
	// delivers the mail still queued, bounded by the dispatcher's drain timeout.
	mailCtx, stopMail := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.SMTP.Workers, mailSender(cfg, log), logger.Component("mail"))
	dispatcher.Start(mailCtx)
	defer func() {
		stopMail()
		dispatcher.Wait()
	}()

	sessions := service.Directory{}
	for _, desc := range domain.DefaultKinds() {
		desc.AccessTTL = accessTTL(cfg.Tokens, desc)
		actors := mongodb.NewActorRepository(db, desc)
		if err := actors.EnsureIndexes(ctx, providers.Names()); err != nil {
			return fmt.Errorf("%s indexes: %w", desc.Collection, err)
		}
		sessions[desc.Kind] = service.NewSessionService(desc, service.SessionDeps{
			Actors:   actors,
			Roles:    roleRepo,
			Hasher:   hasher.NewBcrypt(cfg.BcryptCost),
			Tokens:   issuer,
			Mailer:   dispatcher,
			Tickets:  redisdb.NewTicketGuard(rdb),
			Identity: providers,
			Avatars:  avatars,
			Logger:   logger.Component("session"),
		})
	}

	e := api.NewRouter(api.Deps{
		Logger:     logger.Component("http"),
		Env:        cfg.Env,
		ClientURL:  cfg.ClientURL,
		TrustProxy: cfg.TrustProxy,
		Cookies:    handler.NewCookieConfig(cfg.IsProduction(), cfg.CookieCrossSite),
		Verifier:   issuer,
		Sessions:   sessions,
		Roles:      service.NewRoleService(roleRepo, logger.Component("roles")),
		Limiter:    redisdb.NewRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window),
		Checks:     readinessChecks(client, rdb),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func connectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Attempts: connectAttempts,
		Backoff:  connectBackoff,
		Logger:   logger.Component("mongo"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: %w", err)
	}
	return client, db, nil
}

func accessTTL(cfg config.TokenConfig, desc domain.KindDescriptor) time.Duration {
	var ttl time.Duration
	switch desc.Kind {
	case domain.KindUser:
		ttl = cfg.UserAccessTTL
	case domain.KindLandlord:
		ttl = cfg.LandlordAccessTTL
	case domain.KindTenant:
		ttl = cfg.TenantAccessTTL
	case domain.KindAdmin:
		ttl = cfg.AdminAccessTTL
	}
	if ttl <= 0 {
		return desc.AccessTTL
	}
	return ttl
}

func identityRegistry(cfg *config.Config) *identity.Registry {
	var providers []ports.IdentityProvider
	if cfg.Google.ClientID != "" {
		providers = append(providers, identity.NewGoogle(cfg.Google.ClientID))
	}
	if cfg.Facebook.ClientID != "" && cfg.Facebook.ClientSecret != "" {
		providers = append(providers, identity.NewFacebook(identity.FacebookConfig{
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			RedirectURL:  cfg.Facebook.RedirectURL,
		}))
	}
	return identity.NewRegistry(providers...)
}

// avatarStore returns nil when no bucket is configured; avatar routes then
// answer 501.
func avatarStore(ctx context.Context, cfg *config.Config) (ports.AvatarStore, error) {
	if cfg.S3.Bucket == "" {
		return nil, nil
	}
	store, err := s3.NewAvatarStore(ctx, s3.Config{
		Bucket:          cfg.S3.Bucket,
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		PublicBaseURL:   cfg.S3.PublicBaseURL,
		PresignTTL:      cfg.S3.PresignTTL,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func mailSender(cfg *config.Config, log zerolog.Logger) queue.Sender {
	if !cfg.SMTP.Enabled() {
		log.Warn().Msg("SMTP_HOST not set, mail is written to the log")
		return mail.NewLogSender(logger.Component("mail"))
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

func readinessChecks(client *mongo.Client, rdb *redis.Client) map[string]handler.Check {
	return map[string]handler.Check{
		"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
		"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
}
